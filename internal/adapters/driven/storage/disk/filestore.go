// Package disk stores uploaded files on the local filesystem.
package disk

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/sercha-server/internal/core/domain"
	"github.com/custodia-labs/sercha-server/internal/core/ports/driven"
)

// Ensure FileStore implements the interface.
var _ driven.FileStore = (*FileStore)(nil)

// FileStore keeps uploads under <root>/<documentID>/<filename>.
type FileStore struct {
	root string
}

// NewFileStore creates the upload root if needed.
func NewFileStore(root string) (*FileStore, error) {
	if err := os.MkdirAll(root, 0700); err != nil {
		return nil, fmt.Errorf("creating upload directory: %w", err)
	}
	return &FileStore{root: root}, nil
}

// Root returns the upload directory.
func (s *FileStore) Root() string {
	return s.root
}

// Save writes content and returns its path relative to the root.
func (s *FileStore) Save(_ context.Context, documentID, filename string, content []byte) (string, error) {
	name := filepath.Base(filename)
	if documentID == "" || name == "." || name == string(filepath.Separator) {
		return "", fmt.Errorf("%w: invalid upload path", domain.ErrInvalidInput)
	}
	rel := filepath.ToSlash(filepath.Join(filepath.Base(documentID), name))

	full, err := s.resolve(rel)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0700); err != nil {
		return "", fmt.Errorf("creating document directory: %w", err)
	}

	// Write to a temp file first so a crash never leaves a partial upload.
	tmp := full + ".tmp"
	if err := os.WriteFile(tmp, content, 0600); err != nil {
		return "", fmt.Errorf("writing upload: %w", err)
	}
	if err := os.Rename(tmp, full); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("renaming upload: %w", err)
	}
	return rel, nil
}

// Load reads stored content.
func (s *FileStore) Load(_ context.Context, path string) ([]byte, error) {
	full, err := s.resolve(path)
	if err != nil {
		return nil, err
	}
	content, err := os.ReadFile(full)
	if errors.Is(err, os.ErrNotExist) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading upload: %w", err)
	}
	return content, nil
}

// Delete removes stored content and its document directory.
func (s *FileStore) Delete(_ context.Context, path string) error {
	full, err := s.resolve(path)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing upload: %w", err)
	}
	// Only succeeds once the directory is empty.
	_ = os.Remove(filepath.Dir(full))
	return nil
}

// resolve maps a relative path into the root, rejecting escapes.
func (s *FileStore) resolve(rel string) (string, error) {
	full := filepath.Join(s.root, filepath.FromSlash(rel))
	inside, err := filepath.Rel(s.root, full)
	if err != nil || inside == "." || strings.HasPrefix(inside, "..") {
		return "", fmt.Errorf("%w: path %q escapes upload directory", domain.ErrInvalidInput, rel)
	}
	return full, nil
}
