// Package pdf provides a Normaliser for PDF documents using ledongthuc/pdf.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/custodia-labs/sercha-server/internal/core/domain"
	"github.com/custodia-labs/sercha-server/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles PDF documents.
type Normaliser struct{}

// New creates a new PDF normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedTypes returns the file types this normaliser handles.
func (n *Normaliser) SupportedTypes() []domain.FileType {
	return []domain.FileType{domain.FileTypePDF}
}

// Normalise returns one segment per page that has text.
func (n *Normaliser) Normalise(ctx context.Context, raw *domain.RawFile) (res *driven.NormaliseResult, err error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	// The parser panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = fmt.Errorf("%w: malformed pdf: %v", domain.ErrExtraction, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(raw.Content), int64(len(raw.Content)))
	if err != nil {
		return nil, fmt.Errorf("%w: opening pdf: %v", domain.ErrExtraction, err)
	}

	var segments []string
	for i := 1; i <= reader.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("%w: page %d: %v", domain.ErrExtraction, i, err)
		}
		if text = cleanPage(text); text != "" {
			segments = append(segments, text)
		}
	}

	return &driven.NormaliseResult{Segments: segments}, nil
}

var (
	pageNumberLine = regexp.MustCompile(`^\d{1,3}$`)
	ruleLine       = regexp.MustCompile(`^[-–—=_.]+$`)
)

// cleanPage trims lines and drops bare page numbers and rules.
func cleanPage(text string) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || pageNumberLine.MatchString(line) || ruleLine.MatchString(line) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}
