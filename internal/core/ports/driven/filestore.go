package driven

import "context"

// FileStore persists raw uploads so interrupted ingestion can resume.
type FileStore interface {
	// Save writes content and returns its storage path.
	Save(ctx context.Context, documentID, filename string, content []byte) (string, error)

	// Load reads content previously written by Save.
	Load(ctx context.Context, path string) ([]byte, error)

	// Delete removes stored content. Missing files are not an error.
	Delete(ctx context.Context, path string) error
}
