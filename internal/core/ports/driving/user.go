package driving

import (
	"context"

	"github.com/custodia-labs/sercha-server/internal/core/domain"
)

// UserService manages users.
type UserService interface {
	// Create registers a user under an externally assigned ID.
	Create(ctx context.Context, userID string) (*domain.User, error)

	// Get retrieves a user by ID.
	Get(ctx context.Context, userID string) (*domain.User, error)

	// Delete removes a user with everything it owns.
	Delete(ctx context.Context, userID string) error
}
