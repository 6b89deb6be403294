package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/sercha-server/internal/core/domain"
	"github.com/custodia-labs/sercha-server/internal/core/ports/driven"
)

// Ensure FileStore implements the interface.
var _ driven.FileStore = (*FileStore)(nil)

// FileStore is an in-memory implementation of driven.FileStore.
type FileStore struct {
	mu    sync.RWMutex
	files map[string][]byte
}

// NewFileStore creates a new in-memory file store.
func NewFileStore() *FileStore {
	return &FileStore{files: make(map[string][]byte)}
}

// Save stores content under a path derived from the document ID.
func (s *FileStore) Save(_ context.Context, documentID, filename string, content []byte) (string, error) {
	path := documentID + "/" + filename
	buf := make([]byte, len(content))
	copy(buf, content)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[path] = buf
	return path, nil
}

// Load returns stored content.
func (s *FileStore) Load(_ context.Context, path string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	content, ok := s.files[path]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return content, nil
}

// Delete removes stored content.
func (s *FileStore) Delete(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.files, path)
	return nil
}

// Len returns the number of stored files.
func (s *FileStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.files)
}
