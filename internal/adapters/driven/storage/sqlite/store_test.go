package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-server/internal/core/domain"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	require.NotNil(t, store)
	t.Cleanup(func() { assert.NoError(t, store.Close()) })

	return store
}

// seed creates a user with one notebook.
func seed(t *testing.T, s *Store, userID, notebookID string) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, s.UserStore().Create(ctx, &domain.User{ID: userID}))
	now := time.Now().UTC()
	require.NoError(t, s.NotebookStore().Save(ctx, &domain.Notebook{
		ID: notebookID, UserID: userID, Name: "nb " + notebookID, CreatedAt: now, UpdatedAt: now,
	}))
}

func saveDoc(t *testing.T, s *Store, id, notebookID, userID string) *domain.Document {
	t.Helper()
	doc := &domain.Document{
		ID:         id,
		NotebookID: notebookID,
		UserID:     userID,
		Filename:   id + ".txt",
		FileType:   domain.FileType("txt"),
		FileSize:   12,
		Status:     domain.StatusPending,
		CreatedAt:  time.Now().UTC(),
	}
	require.NoError(t, s.DocumentStore().SaveDocument(context.Background(), doc))
	return doc
}

func chunksFor(doc *domain.Document, n int) []domain.Chunk {
	chunks := make([]domain.Chunk, n)
	for i := range chunks {
		chunks[i] = domain.Chunk{
			ID:         domain.ChunkID(doc.ID, i),
			DocumentID: doc.ID,
			NotebookID: doc.NotebookID,
			UserID:     doc.UserID,
			Index:      i,
			Text:       "chunk text",
			State:      domain.ChunkPending,
			CreatedAt:  time.Now().UTC(),
		}
	}
	return chunks
}

func TestNewStore(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, filepath.Join(dir, "metadata.db"), store.Path())
	_, err = os.Stat(store.Path())
	assert.NoError(t, err)
	assert.NoError(t, store.Ping(context.Background()))
}

func TestNewStore_ReopenKeepsData(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.UserStore().Create(ctx, &domain.User{ID: "alice"}))
	require.NoError(t, store.Close())

	reopened, err := NewStore(dir)
	require.NoError(t, err)
	defer reopened.Close()

	user, err := reopened.UserStore().Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.ID)
}

func TestUserStore(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	users := s.UserStore()

	require.NoError(t, users.Create(ctx, &domain.User{ID: "alice"}))

	err := users.Create(ctx, &domain.User{ID: "alice"})
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)

	user, err := users.Get(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, user.CreatedAt.IsZero())

	_, err = users.Get(ctx, "bob")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, users.Delete(ctx, "alice"))
	assert.ErrorIs(t, users.Delete(ctx, "alice"), domain.ErrNotFound)
}

func TestNotebookStore(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	notebooks := s.NotebookStore()

	seed(t, s, "alice", "nb-1")
	later := time.Now().UTC().Add(time.Second)
	require.NoError(t, notebooks.Save(ctx, &domain.Notebook{
		ID: "nb-2", UserID: "alice", Name: "second", CreatedAt: later, UpdatedAt: later,
	}))
	saveDoc(t, s, "doc-1", "nb-1", "alice")

	nb, err := notebooks.Get(ctx, "nb-1")
	require.NoError(t, err)
	assert.Equal(t, "nb nb-1", nb.Name)
	assert.Equal(t, 1, nb.DocumentCount)

	list, err := notebooks.ListByUser(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "nb-1", list[0].ID)
	assert.Equal(t, "nb-2", list[1].ID)

	nb.Name = "renamed"
	nb.Description = "updated"
	require.NoError(t, notebooks.Save(ctx, nb))
	nb, err = notebooks.Get(ctx, "nb-1")
	require.NoError(t, err)
	assert.Equal(t, "renamed", nb.Name)
	assert.Equal(t, "updated", nb.Description)

	empty, err := notebooks.ListByUser(ctx, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	_, err = notebooks.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, notebooks.Delete(ctx, "missing"), domain.ErrNotFound)
}

func TestNotebookStore_RequiresUser(t *testing.T) {
	s := setupTestStore(t)
	now := time.Now().UTC()

	err := s.NotebookStore().Save(context.Background(), &domain.Notebook{
		ID: "nb", UserID: "ghost", Name: "x", CreatedAt: now, UpdatedAt: now,
	})
	assert.Error(t, err)
}

func TestDocumentStore(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	docs := s.DocumentStore()
	seed(t, s, "alice", "nb-1")

	doc := saveDoc(t, s, "doc-1", "nb-1", "alice")
	saveDoc(t, s, "doc-2", "nb-1", "alice")

	got, err := docs.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.Filename, got.Filename)
	assert.Equal(t, domain.StatusPending, got.Status)
	assert.Nil(t, got.ProcessedAt)

	require.NoError(t, docs.UpdateStatus(ctx, doc.ID, domain.StatusProcessing, 3, "", nil))
	done := time.Now().UTC()
	require.NoError(t, docs.UpdateStatus(ctx, doc.ID, domain.StatusFailed, 3, "1 of 3 chunks failed", &done))

	got, err = docs.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, got.Status)
	assert.Equal(t, 3, got.ChunkCount)
	assert.Equal(t, "1 of 3 chunks failed", got.ErrorMessage)
	require.NotNil(t, got.ProcessedAt)
	assert.WithinDuration(t, done, *got.ProcessedAt, time.Second)

	list, err := docs.ListByNotebook(ctx, "nb-1")
	require.NoError(t, err)
	assert.Len(t, list, 2)

	pending, err := docs.ListByStatus(ctx, domain.StatusPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "doc-2", pending[0].ID)

	err = docs.UpdateStatus(ctx, "missing", domain.StatusCompleted, 0, "", nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, docs.DeleteDocument(ctx, doc.ID))
	_, err = docs.GetDocument(ctx, doc.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestChunkStore(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	chunks := s.ChunkStore()
	seed(t, s, "alice", "nb-1")
	doc := saveDoc(t, s, "doc-1", "nb-1", "alice")

	require.NoError(t, chunks.SaveChunks(ctx, chunksFor(doc, 4)))

	got, err := chunks.GetChunks(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, got, 4)
	for i, c := range got {
		assert.Equal(t, i, c.Index)
	}

	require.NoError(t, chunks.UpdateChunkState(ctx, domain.ChunkID(doc.ID, 0), domain.ChunkCompleted, ""))
	require.NoError(t, chunks.UpdateChunkState(ctx, domain.ChunkID(doc.ID, 1), domain.ChunkFailed, "boom"))
	require.NoError(t, chunks.UpdateChunkState(ctx, domain.ChunkID(doc.ID, 2), domain.ChunkProcessing, ""))
	require.NoError(t, chunks.UpdateChunkState(ctx, "missing_0", domain.ChunkCompleted, ""))

	counts, err := chunks.CountByDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StateCounts{Pending: 1, Processing: 1, Completed: 1, Failed: 1}, counts)
	assert.Equal(t, 4, counts.Total())

	got, err = chunks.GetChunks(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "boom", got[1].Error)

	require.NoError(t, chunks.DeleteByDocument(ctx, doc.ID))
	counts, err = chunks.CountAll(ctx)
	require.NoError(t, err)
	assert.Zero(t, counts.Total())
}

func TestCascadeDelete(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	seed(t, s, "alice", "nb-1")
	seed(t, s, "bob", "nb-2")

	aliceDoc := saveDoc(t, s, "doc-a", "nb-1", "alice")
	bobDoc := saveDoc(t, s, "doc-b", "nb-2", "bob")
	require.NoError(t, s.ChunkStore().SaveChunks(ctx, chunksFor(aliceDoc, 2)))
	require.NoError(t, s.ChunkStore().SaveChunks(ctx, chunksFor(bobDoc, 3)))

	require.NoError(t, s.UserStore().Delete(ctx, "alice"))

	_, err := s.NotebookStore().Get(ctx, "nb-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = s.DocumentStore().GetDocument(ctx, aliceDoc.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	counts, err := s.ChunkStore().CountAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, counts.Pending)

	require.NoError(t, s.NotebookStore().Delete(ctx, "nb-2"))
	counts, err = s.ChunkStore().CountAll(ctx)
	require.NoError(t, err)
	assert.Zero(t, counts.Total())
}

func TestStore_SchemaVersion(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	v, err := store.SchemaVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, v)
}

func TestPendingMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"002_more.up.sql":      {Data: []byte("SELECT 1;")},
		"001_initial.up.sql":   {Data: []byte("SELECT 1;")},
		"001_initial.down.sql": {Data: []byte("SELECT 1;")},
		"010_later.up.sql":     {Data: []byte("SELECT 1;")},
	}

	pending, err := pendingMigrations(fsys, 1)
	require.NoError(t, err)
	assert.Equal(t, []migration{
		{version: 2, name: "002_more.up.sql"},
		{version: 10, name: "010_later.up.sql"},
	}, pending)

	_, err = pendingMigrations(fstest.MapFS{"initial.up.sql": {}}, 0)
	assert.Error(t, err)
}
