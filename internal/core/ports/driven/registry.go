package driven

import (
	"context"

	"github.com/custodia-labs/sercha-server/internal/core/domain"
)

// NormaliserRegistry selects the normaliser for a file type.
type NormaliserRegistry interface {
	// Normalise extracts text using the normaliser registered for raw.FileType.
	// Returns domain.ErrUnsupportedType when none is registered.
	Normalise(ctx context.Context, raw *domain.RawFile) (*NormaliseResult, error)

	// Register adds a normaliser, replacing any earlier one for the same types.
	Register(normaliser Normaliser)

	// SupportedTypes returns every registered file type.
	SupportedTypes() []domain.FileType
}
