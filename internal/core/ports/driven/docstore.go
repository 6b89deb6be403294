package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/sercha-server/internal/core/domain"
)

// DocumentStore persists documents.
type DocumentStore interface {
	// SaveDocument stores or updates a document.
	SaveDocument(ctx context.Context, doc *domain.Document) error

	// GetDocument retrieves a document by ID.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// ListByNotebook returns a notebook's documents, oldest first.
	ListByNotebook(ctx context.Context, notebookID string) ([]domain.Document, error)

	// ListByStatus returns documents in the given status across all notebooks.
	ListByStatus(ctx context.Context, status domain.ProcessingStatus) ([]domain.Document, error)

	// UpdateStatus records a status transition for a document.
	// processedAt is stored only when non-nil.
	UpdateStatus(ctx context.Context, id string, status domain.ProcessingStatus,
		chunkCount int, errorMessage string, processedAt *time.Time) error

	// DeleteDocument removes a document and its chunks.
	DeleteDocument(ctx context.Context, id string) error
}

// ChunkStore persists chunk text and per-chunk processing state.
// Vectors live in the VectorIndex.
type ChunkStore interface {
	// SaveChunks stores chunks for a document.
	SaveChunks(ctx context.Context, chunks []domain.Chunk) error

	// GetChunks retrieves all chunks for a document in index order.
	GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error)

	// UpdateChunkState records a chunk transition. errMsg is stored for failures.
	// Updating a chunk that no longer exists is not an error.
	UpdateChunkState(ctx context.Context, id string, state domain.ChunkState, errMsg string) error

	// CountByDocument tallies a document's chunks by state.
	CountByDocument(ctx context.Context, documentID string) (domain.StateCounts, error)

	// CountAll tallies every chunk by state.
	CountAll(ctx context.Context) (domain.StateCounts, error)

	// DeleteByDocument removes a document's chunks.
	DeleteByDocument(ctx context.Context, documentID string) error
}
