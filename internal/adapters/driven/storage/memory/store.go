package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/sercha-server/internal/core/domain"
)

// database holds the shared state behind the in-memory stores so that
// deletes cascade the way foreign keys do in SQLite.
type database struct {
	mu        sync.RWMutex
	users     map[string]domain.User
	notebooks map[string]domain.Notebook
	documents map[string]domain.Document
	chunks    map[string][]domain.Chunk
	chunkDoc  map[string]string
}

func newDatabase() *database {
	return &database{
		users:     make(map[string]domain.User),
		notebooks: make(map[string]domain.Notebook),
		documents: make(map[string]domain.Document),
		chunks:    make(map[string][]domain.Chunk),
		chunkDoc:  make(map[string]string),
	}
}

// Store bundles in-memory stores over one database.
type Store struct {
	Users     *UserStore
	Notebooks *NotebookStore
	Documents *DocumentStore
}

// New creates a set of in-memory stores sharing state.
func New() *Store {
	db := newDatabase()
	return &Store{
		Users:     &UserStore{db: db},
		Notebooks: &NotebookStore{db: db},
		Documents: &DocumentStore{db: db},
	}
}

// deleteDocumentLocked removes a document and its chunks. Caller holds db.mu.
func (db *database) deleteDocumentLocked(id string) {
	for _, c := range db.chunks[id] {
		delete(db.chunkDoc, c.ID)
	}
	delete(db.chunks, id)
	delete(db.documents, id)
}

// deleteNotebookLocked removes a notebook and its documents. Caller holds db.mu.
func (db *database) deleteNotebookLocked(id string) {
	for docID, doc := range db.documents {
		if doc.NotebookID == id {
			db.deleteDocumentLocked(docID)
		}
	}
	delete(db.notebooks, id)
}

// Ping always succeeds.
func (s *Store) Ping(_ context.Context) error {
	return nil
}
