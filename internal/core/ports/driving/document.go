package driving

import (
	"context"

	"github.com/custodia-labs/sercha-server/internal/core/domain"
)

// DocumentService owns document lifecycles: upload, background ingestion,
// status and deletion.
type DocumentService interface {
	// Upload validates and stores a file, creates a pending document and
	// schedules ingestion. It returns before any text is extracted.
	Upload(ctx context.Context, notebookID, filename string, content []byte) (*domain.Document, error)

	// Get retrieves a document by ID.
	Get(ctx context.Context, documentID string) (*domain.Document, error)

	// ListByNotebook returns the documents of a notebook.
	ListByNotebook(ctx context.Context, notebookID string) ([]domain.Document, error)

	// Status returns the processing summary of a document.
	Status(ctx context.Context, documentID string) (*domain.DocumentStatus, error)

	// Delete cancels in-flight work for a document and removes it with its vectors.
	Delete(ctx context.Context, documentID string) error
}
