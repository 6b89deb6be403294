// Package pptx provides a Normaliser for PowerPoint presentations.
package pptx

import (
	"context"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/custodia-labs/sercha-server/internal/core/domain"
	"github.com/custodia-labs/sercha-server/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-server/internal/normalisers/ooxml"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles PPTX presentations.
type Normaliser struct{}

// New creates a new PPTX normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedTypes returns the file types this normaliser handles.
func (n *Normaliser) SupportedTypes() []domain.FileType {
	return []domain.FileType{domain.FileTypePPTX}
}

// Normalise returns one segment per slide with text, in slide order.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawFile) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	reader, err := ooxml.Open(raw.Content)
	if err != nil {
		return nil, err
	}

	type slide struct {
		num  int
		name string
	}
	var slides []slide
	for _, f := range reader.File {
		if num, ok := slideNumber(f.Name); ok {
			slides = append(slides, slide{num: num, name: f.Name})
		}
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].num < slides[j].num })

	segments := make([]string, 0, len(slides))
	for _, s := range slides {
		data, err := ooxml.ReadPart(reader, s.name)
		if err != nil {
			return nil, err
		}
		text, err := ooxml.Text(data, "t", "p", "tab")
		if err != nil {
			return nil, err
		}
		if text != "" {
			segments = append(segments, text)
		}
	}

	return &driven.NormaliseResult{Segments: segments}, nil
}

// slideNumber parses ppt/slides/slideN.xml. Layouts and notes do not match.
func slideNumber(name string) (int, bool) {
	if path.Dir(name) != "ppt/slides" {
		return 0, false
	}
	base := path.Base(name)
	if !strings.HasPrefix(base, "slide") || !strings.HasSuffix(base, ".xml") {
		return 0, false
	}
	num, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(base, "slide"), ".xml"))
	if err != nil {
		return 0, false
	}
	return num, true
}
