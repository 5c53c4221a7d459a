package extractor

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDFExtractor reads the text layer of a PDF.
type PDFExtractor struct{}

// Extract prefers row-ordered text and falls back to the reader's plain text
// stream when rows come out unreadable.
func (PDFExtractor) Extract(ctx context.Context, document []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("PDFExtractor.Extract: pdf library panicked: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(document), int64(len(document)))
	if err != nil {
		return "", fmt.Errorf("PDFExtractor.Extract: open: %w", err)
	}
	if r.NumPage() == 0 {
		return "", fmt.Errorf("PDFExtractor.Extract: document has no pages")
	}

	text = textByRow(r)
	if IsReadable(text) {
		return text, nil
	}

	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("PDFExtractor.Extract: plain text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", fmt.Errorf("PDFExtractor.Extract: read plain text: %w", err)
	}
	return buf.String(), nil
}

func textByRow(r *pdf.Reader) string {
	var lines []string
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			continue
		}
		for _, row := range rows {
			words := make([]string, 0, len(row.Content))
			for _, w := range row.Content {
				words = append(words, w.S)
			}
			if line := strings.TrimSpace(strings.Join(words, " ")); line != "" {
				lines = append(lines, line)
			}
		}
	}
	return strings.Join(lines, "\n")
}
