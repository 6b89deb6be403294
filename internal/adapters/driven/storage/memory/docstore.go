package memory

import (
	"context"
	"sort"
	"time"

	"github.com/custodia-labs/sercha-server/internal/core/domain"
	"github.com/custodia-labs/sercha-server/internal/core/ports/driven"
)

// Ensure DocumentStore implements the interfaces.
var (
	_ driven.DocumentStore = (*DocumentStore)(nil)
	_ driven.ChunkStore    = (*DocumentStore)(nil)
)

// DocumentStore is an in-memory implementation of driven.DocumentStore
// and driven.ChunkStore.
type DocumentStore struct {
	db *database
}

// NewDocumentStore creates a standalone in-memory document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{db: newDatabase()}
}

// SaveDocument stores or updates a document.
func (s *DocumentStore) SaveDocument(_ context.Context, doc *domain.Document) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.documents[doc.ID] = *doc
	return nil
}

// GetDocument retrieves a document by ID.
func (s *DocumentStore) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	doc, ok := s.db.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

// ListByNotebook returns a notebook's documents, oldest first.
func (s *DocumentStore) ListByNotebook(_ context.Context, notebookID string) ([]domain.Document, error) {
	return s.list(func(d *domain.Document) bool { return d.NotebookID == notebookID }), nil
}

// ListByStatus returns documents in the given status.
func (s *DocumentStore) ListByStatus(_ context.Context, status domain.ProcessingStatus) ([]domain.Document, error) {
	return s.list(func(d *domain.Document) bool { return d.Status == status }), nil
}

func (s *DocumentStore) list(match func(*domain.Document) bool) []domain.Document {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	result := make([]domain.Document, 0)
	for id := range s.db.documents {
		doc := s.db.documents[id]
		if match(&doc) {
			result = append(result, doc)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result
}

// UpdateStatus records a status transition.
func (s *DocumentStore) UpdateStatus(
	_ context.Context,
	id string,
	status domain.ProcessingStatus,
	chunkCount int,
	errorMessage string,
	processedAt *time.Time,
) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	doc, ok := s.db.documents[id]
	if !ok {
		return domain.ErrNotFound
	}
	doc.Status = status
	doc.ChunkCount = chunkCount
	doc.ErrorMessage = errorMessage
	if processedAt != nil {
		t := *processedAt
		doc.ProcessedAt = &t
	}
	s.db.documents[id] = doc
	return nil
}

// DeleteDocument removes a document and its chunks.
func (s *DocumentStore) DeleteDocument(_ context.Context, id string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.deleteDocumentLocked(id)
	return nil
}

// SaveChunks stores chunks, replacing any earlier chunks of the same documents.
func (s *DocumentStore) SaveChunks(_ context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	byDoc := make(map[string][]domain.Chunk)
	for _, c := range chunks {
		byDoc[c.DocumentID] = append(byDoc[c.DocumentID], c)
	}
	for docID, cs := range byDoc {
		for _, old := range s.db.chunks[docID] {
			delete(s.db.chunkDoc, old.ID)
		}
		sort.Slice(cs, func(i, j int) bool { return cs[i].Index < cs[j].Index })
		s.db.chunks[docID] = cs
		for _, c := range cs {
			s.db.chunkDoc[c.ID] = docID
		}
	}
	return nil
}

// GetChunks retrieves a document's chunks in index order.
func (s *DocumentStore) GetChunks(_ context.Context, documentID string) ([]domain.Chunk, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	chunks := s.db.chunks[documentID]
	out := make([]domain.Chunk, len(chunks))
	copy(out, chunks)
	return out, nil
}

// UpdateChunkState records a chunk transition.
func (s *DocumentStore) UpdateChunkState(_ context.Context, id string, state domain.ChunkState, errMsg string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	docID, ok := s.db.chunkDoc[id]
	if !ok {
		return nil
	}
	chunks := s.db.chunks[docID]
	for i := range chunks {
		if chunks[i].ID == id {
			chunks[i].State = state
			chunks[i].Error = errMsg
			break
		}
	}
	return nil
}

// CountByDocument tallies a document's chunks by state.
func (s *DocumentStore) CountByDocument(_ context.Context, documentID string) (domain.StateCounts, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	var counts domain.StateCounts
	for _, c := range s.db.chunks[documentID] {
		counts.Add(c.State, 1)
	}
	return counts, nil
}

// CountAll tallies every chunk by state.
func (s *DocumentStore) CountAll(_ context.Context) (domain.StateCounts, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	var counts domain.StateCounts
	for _, chunks := range s.db.chunks {
		for _, c := range chunks {
			counts.Add(c.State, 1)
		}
	}
	return counts, nil
}

// DeleteByDocument removes a document's chunks.
func (s *DocumentStore) DeleteByDocument(_ context.Context, documentID string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, c := range s.db.chunks[documentID] {
		delete(s.db.chunkDoc, c.ID)
	}
	delete(s.db.chunks, documentID)
	return nil
}
