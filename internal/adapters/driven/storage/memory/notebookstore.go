package memory

import (
	"context"
	"sort"

	"github.com/custodia-labs/sercha-server/internal/core/domain"
	"github.com/custodia-labs/sercha-server/internal/core/ports/driven"
)

// Ensure NotebookStore implements the interface.
var _ driven.NotebookStore = (*NotebookStore)(nil)

// NotebookStore is an in-memory implementation of driven.NotebookStore.
type NotebookStore struct {
	db *database
}

// NewNotebookStore creates a standalone in-memory notebook store.
func NewNotebookStore() *NotebookStore {
	return &NotebookStore{db: newDatabase()}
}

// Save stores or updates a notebook.
func (s *NotebookStore) Save(_ context.Context, notebook *domain.Notebook) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	nb := *notebook
	nb.DocumentCount = 0
	s.db.notebooks[nb.ID] = nb
	return nil
}

// Get retrieves a notebook by ID.
func (s *NotebookStore) Get(_ context.Context, id string) (*domain.Notebook, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	nb, ok := s.db.notebooks[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	nb.DocumentCount = s.countLocked(id)
	return &nb, nil
}

// ListByUser returns the user's notebooks, oldest first.
func (s *NotebookStore) ListByUser(_ context.Context, userID string) ([]domain.Notebook, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	result := make([]domain.Notebook, 0)
	for _, nb := range s.db.notebooks {
		if nb.UserID == userID {
			nb.DocumentCount = s.countLocked(nb.ID)
			result = append(result, nb)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// Delete removes a notebook with its documents and chunks.
func (s *NotebookStore) Delete(_ context.Context, id string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.notebooks[id]; !ok {
		return domain.ErrNotFound
	}
	s.db.deleteNotebookLocked(id)
	return nil
}

func (s *NotebookStore) countLocked(notebookID string) int {
	n := 0
	for _, doc := range s.db.documents {
		if doc.NotebookID == notebookID {
			n++
		}
	}
	return n
}
