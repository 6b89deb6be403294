package driving

import (
	"context"

	"github.com/custodia-labs/sercha-server/internal/core/domain"
)

// NotebookService manages notebooks.
type NotebookService interface {
	// Create adds a notebook for a user.
	Create(ctx context.Context, userID, name, description string) (*domain.Notebook, error)

	// Get retrieves a notebook by ID.
	Get(ctx context.Context, notebookID string) (*domain.Notebook, error)

	// ListByUser returns a user's notebooks.
	ListByUser(ctx context.Context, userID string) ([]domain.Notebook, error)

	// Update applies changes to a notebook's name or description.
	Update(ctx context.Context, notebookID string, update domain.NotebookUpdate) (*domain.Notebook, error)

	// Delete removes a notebook with its documents and vectors.
	Delete(ctx context.Context, notebookID string) error
}
