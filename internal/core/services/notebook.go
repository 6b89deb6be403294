package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-server/internal/core/domain"
	"github.com/custodia-labs/sercha-server/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-server/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-server/internal/logger"
)

// Ensure NotebookService implements the interface.
var _ driving.NotebookService = (*NotebookService)(nil)

// purger removes the vectors and stored files of a notebook's documents.
// A purged notebook accepts no new ingestion until it is released.
type purger interface {
	PurgeNotebook(ctx context.Context, notebookID string) error
	ReleaseNotebook(notebookID string)
}

// NotebookService manages notebooks.
type NotebookService struct {
	users     driven.UserStore
	notebooks driven.NotebookStore
	documents purger
}

// NewNotebookService creates a notebook service.
func NewNotebookService(users driven.UserStore, notebooks driven.NotebookStore, documents purger) *NotebookService {
	return &NotebookService{
		users:     users,
		notebooks: notebooks,
		documents: documents,
	}
}

// Create adds a notebook for an existing user.
func (s *NotebookService) Create(ctx context.Context, userID, name, description string) (*domain.Notebook, error) {
	if _, err := s.users.Get(ctx, userID); err != nil {
		return nil, fmt.Errorf("notebook: user %s: %w", userID, err)
	}

	name = strings.TrimSpace(name)
	if err := validateNotebook(name, description); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	nb := &domain.Notebook{
		ID:          uuid.New().String(),
		UserID:      userID,
		Name:        name,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.notebooks.Save(ctx, nb); err != nil {
		return nil, fmt.Errorf("notebook: saving: %w", err)
	}
	logger.Info("notebook: created %s for %s", nb.ID, userID)
	return nb, nil
}

// Get retrieves a notebook by ID.
func (s *NotebookService) Get(ctx context.Context, notebookID string) (*domain.Notebook, error) {
	return s.notebooks.Get(ctx, notebookID)
}

// ListByUser returns a user's notebooks.
func (s *NotebookService) ListByUser(ctx context.Context, userID string) ([]domain.Notebook, error) {
	if _, err := s.users.Get(ctx, userID); err != nil {
		return nil, err
	}
	return s.notebooks.ListByUser(ctx, userID)
}

// Update changes a notebook's name or description.
func (s *NotebookService) Update(ctx context.Context, notebookID string, update domain.NotebookUpdate) (*domain.Notebook, error) {
	nb, err := s.notebooks.Get(ctx, notebookID)
	if err != nil {
		return nil, err
	}

	name, description := nb.Name, nb.Description
	if update.Name != nil {
		name = strings.TrimSpace(*update.Name)
	}
	if update.Description != nil {
		description = *update.Description
	}
	if err := validateNotebook(name, description); err != nil {
		return nil, err
	}

	nb.Name = name
	nb.Description = description
	nb.UpdatedAt = time.Now().UTC()
	if err := s.notebooks.Save(ctx, nb); err != nil {
		return nil, fmt.Errorf("notebook: saving: %w", err)
	}
	return s.notebooks.Get(ctx, notebookID)
}

// Delete removes a notebook with its documents, chunks and vectors.
func (s *NotebookService) Delete(ctx context.Context, notebookID string) error {
	if _, err := s.notebooks.Get(ctx, notebookID); err != nil {
		return err
	}
	defer s.documents.ReleaseNotebook(notebookID)
	if err := s.documents.PurgeNotebook(ctx, notebookID); err != nil {
		return fmt.Errorf("notebook: %w", err)
	}
	if err := s.notebooks.Delete(ctx, notebookID); err != nil {
		return fmt.Errorf("notebook: deleting: %w", err)
	}
	logger.Info("notebook: deleted %s", notebookID)
	return nil
}

func validateNotebook(name, description string) error {
	if name == "" {
		return fmt.Errorf("%w: notebook name is required", domain.ErrInvalidInput)
	}
	if utf8.RuneCountInString(name) > domain.MaxNotebookNameLength {
		return fmt.Errorf("%w: notebook name exceeds %d characters", domain.ErrInvalidInput, domain.MaxNotebookNameLength)
	}
	if utf8.RuneCountInString(description) > domain.MaxNotebookDescriptionLength {
		return fmt.Errorf("%w: description exceeds %d characters", domain.ErrInvalidInput, domain.MaxNotebookDescriptionLength)
	}
	return nil
}
