package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested user, notebook, document or chunk does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or out-of-range input.
	// Validation failures are surfaced immediately and never retried.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an uploaded file type has no normaliser.
	ErrUnsupportedType = errors.New("unsupported file type")

	// ErrFileTooLarge indicates an upload exceeds the configured size limit.
	ErrFileTooLarge = errors.New("file too large")

	// ErrExtraction indicates text could not be derived from a file.
	// The owning document is marked failed and no chunks are created.
	ErrExtraction = errors.New("text extraction failed")

	// ErrEmbeddingTransient indicates the embedding provider was overloaded
	// or unreachable. The dispatcher retries these with bounded backoff.
	ErrEmbeddingTransient = errors.New("embedding provider temporarily unavailable")

	// ErrEmbeddingPermanent indicates the embedding provider rejected the input.
	ErrEmbeddingPermanent = errors.New("embedding provider rejected input")

	// ErrCapacity indicates the rate governor could not admit a request
	// before the caller's deadline. Callers may retry later.
	ErrCapacity = errors.New("embedding capacity exhausted")

	// ErrGovernorClosed indicates the rate governor has been shut down.
	ErrGovernorClosed = errors.New("rate governor closed")

	// ErrDocumentDeleted indicates work was discarded because its document was deleted.
	ErrDocumentDeleted = errors.New("document deleted")

	// ErrEmbeddingUnavailable indicates no embedding provider is configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")
)

// IsRetryable reports whether err is worth retrying later by the caller.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrEmbeddingTransient) || errors.Is(err, ErrCapacity)
}
