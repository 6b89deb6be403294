package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/custodia-labs/sercha-server/internal/core/domain"
	"github.com/custodia-labs/sercha-server/internal/core/ports/driven"
)

// notebookStore implements driven.NotebookStore.
type notebookStore struct {
	store *Store
}

var _ driven.NotebookStore = (*notebookStore)(nil)

const notebookColumns = `
	n.id, n.user_id, n.name, n.description, n.created_at, n.updated_at,
	(SELECT COUNT(*) FROM documents d WHERE d.notebook_id = n.id)`

// Save stores or updates a notebook.
func (s *notebookStore) Save(ctx context.Context, nb *domain.Notebook) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO notebooks (id, user_id, name, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			updated_at = excluded.updated_at
	`, nb.ID, nb.UserID, nb.Name, nb.Description, nb.CreatedAt, nb.UpdatedAt)
	if err != nil {
		return fmt.Errorf("saving notebook: %w", err)
	}
	return nil
}

// Get retrieves a notebook by ID.
func (s *notebookStore) Get(ctx context.Context, id string) (*domain.Notebook, error) {
	row := s.store.db.QueryRowContext(ctx, `SELECT `+notebookColumns+` FROM notebooks n WHERE n.id = ?`, id)
	nb, err := scanNotebook(row)
	if err != nil {
		return nil, notFound(err, "scanning notebook")
	}
	return nb, nil
}

// ListByUser returns the user's notebooks, oldest first.
func (s *notebookStore) ListByUser(ctx context.Context, userID string) ([]domain.Notebook, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT `+notebookColumns+`
		FROM notebooks n WHERE n.user_id = ?
		ORDER BY n.created_at, n.id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying notebooks: %w", err)
	}
	defer rows.Close()

	notebooks := make([]domain.Notebook, 0)
	for rows.Next() {
		nb, err := scanNotebook(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning notebook: %w", err)
		}
		notebooks = append(notebooks, *nb)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating notebooks: %w", err)
	}
	return notebooks, nil
}

// Delete removes a notebook. Documents and chunks cascade.
func (s *notebookStore) Delete(ctx context.Context, id string) error {
	res, err := s.store.db.ExecContext(ctx, `DELETE FROM notebooks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting notebook: %w", err)
	}
	return affected(res, "deleting notebook")
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanNotebook(row scanner) (*domain.Notebook, error) {
	var nb domain.Notebook
	var createdAt, updatedAt sql.NullTime
	if err := row.Scan(&nb.ID, &nb.UserID, &nb.Name, &nb.Description,
		&createdAt, &updatedAt, &nb.DocumentCount); err != nil {
		return nil, err
	}
	if createdAt.Valid {
		nb.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		nb.UpdatedAt = updatedAt.Time
	}
	return &nb, nil
}
