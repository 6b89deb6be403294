package memory

import (
	"context"

	"github.com/custodia-labs/sercha-server/internal/core/domain"
	"github.com/custodia-labs/sercha-server/internal/core/ports/driven"
)

// Ensure UserStore implements the interface.
var _ driven.UserStore = (*UserStore)(nil)

// UserStore is an in-memory implementation of driven.UserStore.
type UserStore struct {
	db *database
}

// NewUserStore creates a standalone in-memory user store.
func NewUserStore() *UserStore {
	return &UserStore{db: newDatabase()}
}

// Create stores a new user.
func (s *UserStore) Create(_ context.Context, user *domain.User) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.users[user.ID]; ok {
		return domain.ErrAlreadyExists
	}
	s.db.users[user.ID] = *user
	return nil
}

// Get retrieves a user by ID.
func (s *UserStore) Get(_ context.Context, id string) (*domain.User, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	user, ok := s.db.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &user, nil
}

// Delete removes a user with its notebooks, documents and chunks.
func (s *UserStore) Delete(_ context.Context, id string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.users[id]; !ok {
		return domain.ErrNotFound
	}
	for nbID, nb := range s.db.notebooks {
		if nb.UserID == id {
			s.db.deleteNotebookLocked(nbID)
		}
	}
	delete(s.db.users, id)
	return nil
}
