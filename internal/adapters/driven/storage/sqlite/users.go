package sqlite

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/sercha-server/internal/core/domain"
	"github.com/custodia-labs/sercha-server/internal/core/ports/driven"
)

// userStore implements driven.UserStore.
type userStore struct {
	store *Store
}

var _ driven.UserStore = (*userStore)(nil)

// Create stores a new user.
func (s *userStore) Create(ctx context.Context, user *domain.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	res, err := s.store.db.ExecContext(ctx, `
		INSERT INTO users (id, created_at) VALUES (?, ?)
		ON CONFLICT(id) DO NOTHING
	`, user.ID, user.CreatedAt)
	if err != nil {
		return fmt.Errorf("saving user: %w", err)
	}
	if err := affected(res, "saving user"); errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("%w: user %s", domain.ErrAlreadyExists, user.ID)
	} else if err != nil {
		return err
	}
	return nil
}

// Get retrieves a user by ID.
func (s *userStore) Get(ctx context.Context, id string) (*domain.User, error) {
	var user domain.User
	err := s.store.db.QueryRowContext(ctx, `SELECT id, created_at FROM users WHERE id = ?`, id).
		Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		return nil, notFound(err, "scanning user")
	}
	return &user, nil
}

// Delete removes a user. Notebooks, documents and chunks cascade.
func (s *userStore) Delete(ctx context.Context, id string) error {
	res, err := s.store.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	return affected(res, "deleting user")
}
