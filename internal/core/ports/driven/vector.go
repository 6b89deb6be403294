package driven

import "context"

// VectorPayload is stored alongside each vector.
type VectorPayload struct {
	DocumentID string
	NotebookID string
	UserID     string
	Text       string
	ChunkIndex int
}

// VectorRecord is a vector to insert into a collection.
type VectorRecord struct {
	// ID is the chunk identifier.
	ID string

	// Vector is the embedding.
	Vector []float32

	// Payload is returned with hits.
	Payload VectorPayload
}

// VectorHit is a k-NN result.
type VectorHit struct {
	// ID is the chunk identifier.
	ID string

	// Distance is the L2 distance to the query. Lower is closer.
	Distance float64

	// Seq orders records by insertion for deterministic tie-breaks.
	Seq int64

	// Payload is the stored payload.
	Payload VectorPayload
}

// VectorIndex stores vectors in per-notebook collections and retrieves
// nearest neighbours by L2 distance. Collections are created on first insert.
type VectorIndex interface {
	// Add inserts records into a collection.
	Add(ctx context.Context, collection string, records []VectorRecord) error

	// DeleteByDocument removes every record of a document from a collection.
	DeleteByDocument(ctx context.Context, collection, documentID string) error

	// DeleteCollection drops a collection and all of its records.
	DeleteCollection(ctx context.Context, collection string) error

	// Search returns up to k records owned by owner closest to query,
	// nearest first. An empty owner matches every record. A missing or
	// empty collection yields no hits and no error.
	Search(ctx context.Context, collection string, query []float32, k int, owner string) ([]VectorHit, error)

	// Count returns the number of records in a collection.
	Count(ctx context.Context, collection string) (int, error)

	// Close releases resources.
	Close() error
}
