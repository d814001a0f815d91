package ingest

import (
	"errors"
	"fmt"
	"time"

	"github.com/dslipak/pdf"
	"github.com/lu4p/cat"
)

func extractPDF(path string) ([]rawPage, error) {
	f, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}

	var pages []rawPage
	numPages := f.NumPage()
	for i := 1; i <= numPages; i++ {
		page := f.Page(i)
		if page.V.IsNull() {
			continue
		}

		content, err := protectExtract(page)
		if err != nil {
			// Log warning but continue with other pages
			logger.Error("Error parsing page content", "page", i, "error", err)
			continue
		}

		pages = append(pages, rawPage{
			Number:  i,
			Content: content,
		})
	}
	return pages, nil
}

// extractdocxTxtRtf reads a .odt, .docx, .rtf or plaintext file. cat gives no
// page boundaries, so everything lands on one page.
func extractdocxTxtRtf(path string) ([]rawPage, error) {
	text, err := cat.File(path)
	if err != nil {
		return nil, fmt.Errorf("failed to extract document: %w", err)
	}

	return []rawPage{
		{
			Number:  1,
			Content: text,
		},
	}, nil
}

// protectExtract guards against dslipak/pdf hanging on malformed pages.
func protectExtract(page pdf.Page) (string, error) {
	type result struct {
		content string
		err     error
	}
	resChan := make(chan result, 1)

	go func() {
		content, err := page.GetPlainText(nil)
		resChan <- result{content, err}
	}()
	select {
	case r := <-resChan:
		return r.content, r.err
	case <-time.After(time.Second * 10):
		return "", errors.New("timeout")
	}
}
