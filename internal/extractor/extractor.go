// Package extractor turns uploaded statement documents into plain text for
// the statement parser.
package extractor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dvloznov/finance-ledger/internal/logger"
)

// ErrUnreadable is returned when no extractor produced usable text.
var ErrUnreadable = errors.New("no readable text in document")

var pdfMagic = []byte("%PDF")

// Extractor returns the text content of a document.
type Extractor interface {
	Extract(ctx context.Context, document []byte) (string, error)
}

// IsPDF reports whether document carries the PDF header.
func IsPDF(document []byte) bool {
	return bytes.HasPrefix(bytes.TrimLeft(document, " \t\r\n"), pdfMagic)
}

// Chain tries each extractor in turn and returns the first readable text.
// Documents that are not PDFs are treated as text already and returned as is.
type Chain []Extractor

func (c Chain) Extract(ctx context.Context, document []byte) (string, error) {
	if !IsPDF(document) {
		if !utf8.Valid(document) {
			return "", fmt.Errorf("Chain.Extract: document is neither PDF nor UTF-8 text")
		}
		return string(document), nil
	}

	log := logger.FromContext(ctx)
	var errs []error
	for i, ex := range c {
		text, err := ex.Extract(ctx, document)
		if err != nil {
			log.Warn().Err(err).Int("extractor", i).Msg("Extractor failed, trying next")
			errs = append(errs, err)
			continue
		}
		if IsReadable(text) {
			return text, nil
		}
		log.Warn().Int("extractor", i).Int("chars", len(text)).Msg("Extracted text is not readable, trying next")
	}
	errs = append([]error{ErrUnreadable}, errs...)
	return "", fmt.Errorf("Chain.Extract: %w", errors.Join(errs...))
}

// IsReadable rejects empty output and the symbol soup produced by PDFs with
// custom font encodings: at least 20 characters, more than 60% of them plain
// ASCII letters, digits, punctuation or whitespace, and at least one digit.
func IsReadable(text string) bool {
	if utf8.RuneCountInString(strings.TrimSpace(text)) < 20 {
		return false
	}
	total, readable, digits := 0, 0, 0
	for _, r := range text {
		total++
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsPunct(r) || unicode.IsSpace(r)):
			readable++
		case r == '£' || r == '€' || r == '$' || r == '\'' || r == '+':
			readable++
		}
		if unicode.IsDigit(r) {
			digits++
		}
	}
	return digits > 0 && float64(readable)/float64(total) > 0.6
}
