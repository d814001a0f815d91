package hfrouter

import (
	"strings"

	"github.com/moonmehedi/A-Rag-System-to-Read-Books/internal/config"
)

// tokenBuffer approximates word-boundary flushing so the frontend renders
// smoothly. It is a display heuristic only: fragments may still split or merge
// tokens imperfectly.
type tokenBuffer struct {
	buf strings.Builder
}

// Push appends a delta and reports whether the buffer flushed. A flush happens
// as soon as the buffer holds a space or newline, grows past the length cap,
// or ends in punctuation.
func (b *tokenBuffer) Push(token string) (string, bool) {
	b.buf.WriteString(token)
	s := b.buf.String()

	if strings.ContainsAny(s, " \n") || len(s) > config.FlushMaxBufferLen {
		b.buf.Reset()
		return s, true
	}
	if len(s) > 0 && strings.ContainsAny(s[len(s)-1:], config.FlushPunctuation) {
		b.buf.Reset()
		return s, true
	}
	return "", false
}

// Flush drains whatever is left at stream end.
func (b *tokenBuffer) Flush() string {
	s := b.buf.String()
	b.buf.Reset()
	return s
}
