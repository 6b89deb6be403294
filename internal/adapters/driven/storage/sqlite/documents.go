package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/custodia-labs/sercha-server/internal/core/domain"
	"github.com/custodia-labs/sercha-server/internal/core/ports/driven"
)

// documentStore implements driven.DocumentStore.
type documentStore struct {
	store *Store
}

var _ driven.DocumentStore = (*documentStore)(nil)

const documentColumns = `
	id, notebook_id, user_id, filename, file_type, file_size, file_hash, storage_path,
	status, error_message, chunk_count, created_at, processed_at`

// SaveDocument stores or updates a document.
func (s *documentStore) SaveDocument(ctx context.Context, doc *domain.Document) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO documents (`+documentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			filename = excluded.filename,
			file_type = excluded.file_type,
			file_size = excluded.file_size,
			file_hash = excluded.file_hash,
			storage_path = excluded.storage_path,
			status = excluded.status,
			error_message = excluded.error_message,
			chunk_count = excluded.chunk_count,
			processed_at = excluded.processed_at
	`, doc.ID, doc.NotebookID, doc.UserID, doc.Filename, string(doc.FileType), doc.FileSize,
		doc.FileHash, doc.StoragePath, string(doc.Status), doc.ErrorMessage, doc.ChunkCount,
		doc.CreatedAt, nullTime(doc.ProcessedAt))
	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

// GetDocument retrieves a document by ID.
func (s *documentStore) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	row := s.store.db.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = ?`, id)
	doc, err := scanDocument(row)
	if err != nil {
		return nil, notFound(err, "scanning document")
	}
	return doc, nil
}

// ListByNotebook returns a notebook's documents, oldest first.
func (s *documentStore) ListByNotebook(ctx context.Context, notebookID string) ([]domain.Document, error) {
	return s.list(ctx, `WHERE notebook_id = ?`, notebookID)
}

// ListByStatus returns documents in the given status.
func (s *documentStore) ListByStatus(ctx context.Context, status domain.ProcessingStatus) ([]domain.Document, error) {
	return s.list(ctx, `WHERE status = ?`, string(status))
}

func (s *documentStore) list(ctx context.Context, where string, arg any) ([]domain.Document, error) {
	rows, err := s.store.db.QueryContext(ctx,
		`SELECT `+documentColumns+` FROM documents `+where+` ORDER BY created_at, id`, arg)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	docs := make([]domain.Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	return docs, nil
}

// UpdateStatus records a status transition.
func (s *documentStore) UpdateStatus(
	ctx context.Context,
	id string,
	status domain.ProcessingStatus,
	chunkCount int,
	errorMessage string,
	processedAt *time.Time,
) error {
	res, err := s.store.db.ExecContext(ctx, `
		UPDATE documents
		SET status = ?, chunk_count = ?, error_message = ?, processed_at = COALESCE(?, processed_at)
		WHERE id = ?
	`, string(status), chunkCount, errorMessage, nullTime(processedAt), id)
	if err != nil {
		return fmt.Errorf("updating document status: %w", err)
	}
	return affected(res, "updating document status")
}

// DeleteDocument removes a document. Chunks cascade.
func (s *documentStore) DeleteDocument(ctx context.Context, id string) error {
	if _, err := s.store.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	return nil
}

func scanDocument(row scanner) (*domain.Document, error) {
	var doc domain.Document
	var fileType, status string
	var createdAt, processedAt sql.NullTime
	if err := row.Scan(&doc.ID, &doc.NotebookID, &doc.UserID, &doc.Filename, &fileType,
		&doc.FileSize, &doc.FileHash, &doc.StoragePath, &status, &doc.ErrorMessage,
		&doc.ChunkCount, &createdAt, &processedAt); err != nil {
		return nil, err
	}
	doc.FileType = domain.FileType(fileType)
	doc.Status = domain.ProcessingStatus(status)
	if createdAt.Valid {
		doc.CreatedAt = createdAt.Time
	}
	if processedAt.Valid {
		t := processedAt.Time
		doc.ProcessedAt = &t
	}
	return &doc, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
