package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-server/internal/core/domain"
	"github.com/custodia-labs/sercha-server/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-server/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-server/internal/logger"
)

// Ensure UserService implements the interface.
var _ driving.UserService = (*UserService)(nil)

// UserService manages users.
type UserService struct {
	users     driven.UserStore
	notebooks driven.NotebookStore
	documents purger
}

// NewUserService creates a user service.
func NewUserService(users driven.UserStore, notebooks driven.NotebookStore, documents purger) *UserService {
	return &UserService{
		users:     users,
		notebooks: notebooks,
		documents: documents,
	}
}

// Create registers a user.
func (s *UserService) Create(ctx context.Context, userID string) (*domain.User, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" || len(userID) > domain.MaxUserIDLength {
		return nil, fmt.Errorf("%w: user_id must be 1 to %d characters", domain.ErrInvalidInput, domain.MaxUserIDLength)
	}

	user := &domain.User{ID: userID, CreatedAt: time.Now().UTC()}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("user %s: %w", userID, err)
	}
	logger.Info("user: created %s", userID)
	return user, nil
}

// Get retrieves a user by ID.
func (s *UserService) Get(ctx context.Context, userID string) (*domain.User, error) {
	return s.users.Get(ctx, userID)
}

// Delete removes a user with all notebooks, documents and vectors it owns.
func (s *UserService) Delete(ctx context.Context, userID string) error {
	if _, err := s.users.Get(ctx, userID); err != nil {
		return err
	}

	notebooks, err := s.notebooks.ListByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("user: listing notebooks: %w", err)
	}
	for i := range notebooks {
		defer s.documents.ReleaseNotebook(notebooks[i].ID)
		if err := s.documents.PurgeNotebook(ctx, notebooks[i].ID); err != nil {
			return fmt.Errorf("user: %w", err)
		}
	}

	if err := s.users.Delete(ctx, userID); err != nil {
		return fmt.Errorf("user: deleting: %w", err)
	}
	logger.Info("user: deleted %s and %d notebooks", userID, len(notebooks))
	return nil
}
