package llm

import (
	"regexp"
	"strings"
)

var (
	excessNewlines = regexp.MustCompile(`\n{3,}`)
	headingMarkers = regexp.MustCompile(`(?m)^#+\s*`)
)

// CleanOutput normalizes a completed answer for display: 3+ consecutive
// newlines collapse to 2 and markdown heading markers are stripped. Bold,
// italic and mathematical notation pass through untouched. Streamed answers
// are stored without this pass so LaTeX survives intact.
func CleanOutput(text string) string {
	text = excessNewlines.ReplaceAllString(text, "\n\n")
	text = headingMarkers.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}
