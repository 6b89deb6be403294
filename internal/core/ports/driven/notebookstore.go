package driven

import (
	"context"

	"github.com/custodia-labs/sercha-server/internal/core/domain"
)

// NotebookStore persists notebooks.
// DocumentCount is always derived from the documents on read.
type NotebookStore interface {
	// Save stores or updates a notebook.
	Save(ctx context.Context, notebook *domain.Notebook) error

	// Get retrieves a notebook by ID.
	Get(ctx context.Context, id string) (*domain.Notebook, error)

	// ListByUser returns the user's notebooks, oldest first.
	ListByUser(ctx context.Context, userID string) ([]domain.Notebook, error)

	// Delete removes a notebook and, by cascade, its documents and chunks.
	Delete(ctx context.Context, id string) error
}
