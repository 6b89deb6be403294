package driven

import (
	"context"

	"github.com/custodia-labs/sercha-server/internal/core/domain"
)

// UserStore persists users.
type UserStore interface {
	// Create stores a new user. Returns domain.ErrAlreadyExists on duplicates.
	Create(ctx context.Context, user *domain.User) error

	// Get retrieves a user by ID.
	Get(ctx context.Context, id string) (*domain.User, error)

	// Delete removes a user and, by cascade, everything it owns.
	Delete(ctx context.Context, id string) error
}
