package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/custodia-labs/sercha-server/internal/core/domain"
	"github.com/custodia-labs/sercha-server/internal/core/ports/driven"
)

// chunkStore implements driven.ChunkStore.
type chunkStore struct {
	store *Store
}

var _ driven.ChunkStore = (*chunkStore)(nil)

// SaveChunks stores chunks in a single transaction.
func (s *chunkStore) SaveChunks(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, document_id, notebook_id, user_id, chunk_index, text, state, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			text = excluded.text,
			state = excluded.state,
			error = excluded.error
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, c := range chunks {
		state := c.State
		if state == "" {
			state = domain.ChunkPending
		}
		if _, err := stmt.ExecContext(ctx, c.ID, c.DocumentID, c.NotebookID, c.UserID,
			c.Index, c.Text, string(state), c.Error, c.CreatedAt); err != nil {
			return fmt.Errorf("inserting chunk %s: %w", c.ID, err)
		}
	}

	return tx.Commit()
}

// GetChunks retrieves a document's chunks in index order.
func (s *chunkStore) GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, document_id, notebook_id, user_id, chunk_index, text, state, error, created_at
		FROM chunks WHERE document_id = ?
		ORDER BY chunk_index
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.Chunk //nolint:prealloc // size unknown from query
	for rows.Next() {
		var c domain.Chunk
		var state string
		var createdAt sql.NullTime
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.NotebookID, &c.UserID, &c.Index,
			&c.Text, &state, &c.Error, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		c.State = domain.ChunkState(state)
		if createdAt.Valid {
			c.CreatedAt = createdAt.Time
		}
		chunks = append(chunks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}
	return chunks, nil
}

// UpdateChunkState records a chunk transition.
func (s *chunkStore) UpdateChunkState(ctx context.Context, id string, state domain.ChunkState, errMsg string) error {
	_, err := s.store.db.ExecContext(ctx, `UPDATE chunks SET state = ?, error = ? WHERE id = ?`,
		string(state), errMsg, id)
	if err != nil {
		return fmt.Errorf("updating chunk state: %w", err)
	}
	return nil
}

// CountByDocument tallies a document's chunks by state.
func (s *chunkStore) CountByDocument(ctx context.Context, documentID string) (domain.StateCounts, error) {
	return s.count(ctx, `WHERE document_id = ?`, documentID)
}

// CountAll tallies every chunk by state.
func (s *chunkStore) CountAll(ctx context.Context) (domain.StateCounts, error) {
	return s.count(ctx, "")
}

func (s *chunkStore) count(ctx context.Context, where string, args ...any) (domain.StateCounts, error) {
	var counts domain.StateCounts
	rows, err := s.store.db.QueryContext(ctx, `SELECT state, COUNT(*) FROM chunks `+where+` GROUP BY state`, args...)
	if err != nil {
		return counts, fmt.Errorf("counting chunks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var state string
		var n int
		if err := rows.Scan(&state, &n); err != nil {
			return counts, fmt.Errorf("scanning chunk count: %w", err)
		}
		counts.Add(domain.ChunkState(state), n)
	}
	return counts, rows.Err()
}

// DeleteByDocument removes a document's chunks.
func (s *chunkStore) DeleteByDocument(ctx context.Context, documentID string) error {
	if _, err := s.store.db.ExecContext(ctx, `DELETE FROM chunks WHERE document_id = ?`, documentID); err != nil {
		return fmt.Errorf("deleting chunks: %w", err)
	}
	return nil
}
