package driven

import "context"

// InputType tells asymmetric embedding models which side of a retrieval
// pair the text is on.
type InputType string

// Input types.
const (
	InputTypeQuery   InputType = "query"
	InputTypePassage InputType = "passage"
)

// EmbeddingService generates vector embeddings for text.
// Implementations classify failures by wrapping domain.ErrEmbeddingTransient
// (overload, network, 5xx) or domain.ErrEmbeddingPermanent (rejected input).
type EmbeddingService interface {
	// Embed generates a vector embedding for a single text.
	Embed(ctx context.Context, text string, inputType InputType) ([]float32, error)

	// Dimensions returns the embedding vector size.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
