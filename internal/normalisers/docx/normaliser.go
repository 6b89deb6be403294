// Package docx provides a Normaliser for Word documents.
package docx

import (
	"context"

	"github.com/custodia-labs/sercha-server/internal/core/domain"
	"github.com/custodia-labs/sercha-server/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-server/internal/normalisers/ooxml"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles DOCX documents.
type Normaliser struct{}

// New creates a new DOCX normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedTypes returns the file types this normaliser handles.
func (n *Normaliser) SupportedTypes() []domain.FileType {
	return []domain.FileType{domain.FileTypeDOCX}
}

// Normalise extracts the body text of word/document.xml, one line per
// paragraph. Table cells are paragraphs too, so tables are kept.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawFile) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	reader, err := ooxml.Open(raw.Content)
	if err != nil {
		return nil, err
	}

	body, err := ooxml.ReadPart(reader, "word/document.xml")
	if err != nil {
		return nil, err
	}

	content, err := ooxml.Text(body, "t", "p", "tab")
	if err != nil {
		return nil, err
	}

	return &driven.NormaliseResult{Segments: []string{content}}, nil
}
