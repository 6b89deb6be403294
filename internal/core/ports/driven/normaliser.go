package driven

import (
	"context"

	"github.com/custodia-labs/sercha-server/internal/core/domain"
)

// Normaliser extracts plain-text segments from an uploaded file.
type Normaliser interface {
	// SupportedTypes returns the file types this normaliser handles.
	SupportedTypes() []domain.FileType

	// Normalise returns the file's text as an ordered list of segments
	// (pages, slides, sheets, sections). Failures wrap domain.ErrExtraction.
	Normalise(ctx context.Context, raw *domain.RawFile) (*NormaliseResult, error)
}

// NormaliseResult is the output of normalisation.
type NormaliseResult struct {
	// Segments are non-empty text blocks in document order.
	Segments []string
}
