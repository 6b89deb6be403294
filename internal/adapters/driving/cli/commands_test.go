package cli

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-server/internal/core/domain"
	"github.com/custodia-labs/sercha-server/internal/core/ports/driving"
)

func TestRootCmd_HasSubcommands(t *testing.T) {
	names := make([]string, 0)
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}

	for _, want := range []string{
		"serve", "mcp", "user", "notebook", "upload", "status",
		"document", "query", "queue", "health", "watch", "config", "version",
	} {
		assert.Contains(t, names, want)
	}
}

func TestSetup_BootstrapsOnce(t *testing.T) {
	oldApp, oldBoot := app, bootstrap
	defer func() { app, bootstrap = oldApp, oldBoot }()
	app = nil

	calls := 0
	closed := false
	SetBootstrap(func(path string) (*App, error) {
		calls++
		assert.Equal(t, "/tmp/sercha.toml", path)
		return &App{
			Queue: &mockQueueService{status: &domain.QueueStatus{}},
			Close: func() error {
				closed = true
				return nil
			},
		}, nil
	})

	_, err := execute(t, "--config", "/tmp/sercha.toml", "queue")
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.True(t, closed)
}

func TestSetup_BootstrapError(t *testing.T) {
	oldApp, oldBoot := app, bootstrap
	defer func() { app, bootstrap = oldApp, oldBoot }()
	app = nil

	SetBootstrap(func(string) (*App, error) {
		return nil, errors.New("invalid settings")
	})

	_, err := execute(t, "queue")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid settings")
}

func TestUserCommands(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "user", "create", "alice")
	require.NoError(t, err)
	assert.Contains(t, out, "Created user alice")

	out, err = execute(t, "user", "get", "alice")
	require.NoError(t, err)
	assert.Contains(t, out, "2024-01-02 03:04:05")

	ts.users.err = domain.ErrNotFound
	_, err = execute(t, "user", "delete", "bob")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = execute(t, "user", "create")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestNotebookCommands(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "notebook", "create", "alice", "Research", "-d", "papers")
	require.NoError(t, err)
	assert.Contains(t, out, "Created notebook Research (nb-1)")

	out, err = execute(t, "notebook", "list", "alice")
	require.NoError(t, err)
	assert.Contains(t, out, "No notebooks found.")

	ts.notebooks.notebooks = []domain.Notebook{{ID: "nb-1", Name: "Research", Description: "papers", DocumentCount: 2}}
	out, err = execute(t, "notebook", "list", "alice")
	require.NoError(t, err)
	assert.Contains(t, out, "Research (2 documents)")
	assert.Contains(t, out, "papers")

	out, err = execute(t, "notebook", "delete", "nb-1")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted notebook nb-1")
}

func TestUploadCmd(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o600))

	out, err := execute(t, "upload", "nb-1", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Uploaded notes.txt as doc-1 (txt, 5 bytes)")
	assert.Equal(t, []byte("hello"), ts.documents.uploaded)

	_, err = execute(t, "upload", "nb-1", filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestUploadCmd_Wait(t *testing.T) {
	oldInterval := uploadInterval
	uploadInterval = time.Millisecond
	defer func() { uploadInterval = oldInterval }()

	t.Run("completes", func(t *testing.T) {
		ts, cleanup := setupTestServices()
		defer cleanup()
		ts.documents.statuses = []domain.DocumentStatus{
			{DocumentID: "doc-1", Status: domain.StatusProcessing, ChunkCount: 2, Counts: domain.StateCounts{Pending: 2}},
			{DocumentID: "doc-1", Status: domain.StatusProcessing, ChunkCount: 2, Counts: domain.StateCounts{Pending: 1, Completed: 1}},
			{DocumentID: "doc-1", Status: domain.StatusCompleted, ChunkCount: 2, Counts: domain.StateCounts{Completed: 2}},
		}

		path := filepath.Join(t.TempDir(), "notes.md")
		require.NoError(t, os.WriteFile(path, []byte("# hi"), 0o600))

		out, err := execute(t, "upload", "nb-1", path, "--wait")
		require.NoError(t, err)
		assert.Contains(t, out, "1/2 chunks")
		assert.Contains(t, out, "Document doc-1 completed")
	})

	t.Run("failed", func(t *testing.T) {
		ts, cleanup := setupTestServices()
		defer cleanup()
		ts.documents.statuses = []domain.DocumentStatus{
			{DocumentID: "doc-1", Status: domain.StatusFailed, ErrorMessage: "no text extracted"},
		}

		path := filepath.Join(t.TempDir(), "scan.pdf")
		require.NoError(t, os.WriteFile(path, []byte("%PDF"), 0o600))

		_, err := execute(t, "upload", "nb-1", path, "--wait")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no text extracted")
	})
}

func TestWaitForDocument_ContextCancelled(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.documents.statuses = []domain.DocumentStatus{{DocumentID: "doc-1", Status: domain.StatusProcessing}}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := waitForDocument(ctx, app, "doc-1", func(*domain.DocumentStatus) {})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestStatusCmd(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.documents.statuses = []domain.DocumentStatus{{
		DocumentID:   "doc-1",
		Status:       domain.StatusFailed,
		ChunkCount:   3,
		Counts:       domain.StateCounts{Completed: 2, Failed: 1},
		ErrorMessage: "1 of 3 chunks failed",
	}}

	out, err := execute(t, "status", "doc-1")
	require.NoError(t, err)
	assert.Contains(t, out, "Status:   failed")
	assert.Contains(t, out, "Failed:     1")
	assert.Contains(t, out, "1 of 3 chunks failed")

	out, err = execute(t, "status", "doc-1", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"processing_status": "failed"`)
}

func TestDocumentCommands(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.documents.documents = []domain.Document{{ID: "doc-1", Filename: "a.txt", Status: domain.StatusCompleted, ChunkCount: 4}}

	out, err := execute(t, "document", "list", "nb-1")
	require.NoError(t, err)
	assert.Contains(t, out, "a.txt")
	assert.Contains(t, out, "(4 chunks)")

	out, err = execute(t, "document", "delete", "doc-1")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted document doc-1")
}

func TestQueryCmd(t *testing.T) {
	t.Run("notebook scope", func(t *testing.T) {
		ts, cleanup := setupTestServices()
		defer cleanup()
		ts.query.response = &domain.QueryResponse{
			Results: []domain.QueryResult{{ChunkID: "doc-1_0", Text: "Go   is\nfun", Score: 0.25}},
		}

		out, err := execute(t, "query", "--notebook", "nb-1", "what", "is", "go")
		require.NoError(t, err)
		assert.Equal(t, domain.QueryScope{Kind: domain.ScopeNotebook, ID: "nb-1"}, ts.query.lastScope)
		assert.Equal(t, "what is go", ts.query.lastText)
		assert.Equal(t, domain.DefaultTopK, ts.query.lastTopK)
		assert.Contains(t, out, "[1] doc-1_0 (0.2500)")
		assert.Contains(t, out, "Go is fun")
	})

	t.Run("user scope with top-k", func(t *testing.T) {
		ts, cleanup := setupTestServices()
		defer cleanup()

		out, err := execute(t, "query", "--user", "alice", "-k", "3", "hello")
		require.NoError(t, err)
		assert.Equal(t, domain.QueryScope{Kind: domain.ScopeUser, ID: "alice"}, ts.query.lastScope)
		assert.Equal(t, 3, ts.query.lastTopK)
		assert.Contains(t, out, "No results found.")
	})

	t.Run("requires a scope", func(t *testing.T) {
		_, cleanup := setupTestServices()
		defer cleanup()

		_, err := execute(t, "query", "hello")
		assert.Error(t, err)
	})

	t.Run("scopes are exclusive", func(t *testing.T) {
		_, cleanup := setupTestServices()
		defer cleanup()

		_, err := execute(t, "query", "--user", "alice", "--notebook", "nb-1", "hello")
		assert.Error(t, err)
	})

	t.Run("capacity error surfaces", func(t *testing.T) {
		ts, cleanup := setupTestServices()
		defer cleanup()
		ts.query.err = domain.ErrCapacity

		_, err := execute(t, "query", "--user", "alice", "hello")
		assert.ErrorIs(t, err, domain.ErrCapacity)
	})
}

func TestSnippet(t *testing.T) {
	assert.Equal(t, "a b c", snippet("a \n b\t c", 10))
	assert.Equal(t, "héll...", snippet("héllo world", 4))
}

func TestQueueCmd(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	wait := 2.5
	ts.queue.status = &domain.QueueStatus{Pending: 100, Completed: 3, EstimatedWaitMinutes: &wait}

	out, err := execute(t, "queue")
	require.NoError(t, err)
	assert.Contains(t, out, "Pending:    100")
	assert.Contains(t, out, "Estimated wait: 2.5 min")

	out, err = execute(t, "queue", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"estimated_wait_minutes": 2.5`)
}

func TestHealthCmd(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.queue.health = &domain.HealthStatus{Status: domain.HealthDegraded, DatabaseConnected: true, QueueDepth: 4}

	out, err := execute(t, "health")
	require.NoError(t, err)
	assert.Contains(t, out, "Status:    degraded")
	assert.Contains(t, out, "Embedding: unreachable")
	assert.Contains(t, out, "Database:  connected")
}

func TestConfigCommands(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.settings.settings.Embedding.APIKey = "nvapi-1234567890"

	out, err := execute(t, "config")
	require.NoError(t, err)
	assert.Contains(t, out, "[Embedding]")
	assert.Contains(t, out, "API Key: nvap...7890")
	assert.Contains(t, out, "Requests per minute: 40")

	out, err = execute(t, "config", "keys")
	require.NoError(t, err)
	assert.Contains(t, out, "server.addr")

	_, err = execute(t, "config", "set", "server.addr", ":9090")
	require.NoError(t, err)
	assert.Equal(t, ":9090", ts.settings.set["server.addr"])

	ts.settings.err = domain.ErrInvalidInput
	_, err = execute(t, "config", "set", "embedding.dimensions", "abc")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestConfigCommands_UseSettingsBootstrap(t *testing.T) {
	oldApp, oldBoot, oldSettings := app, bootstrap, settingsBootstrap
	defer func() { app, bootstrap, settingsBootstrap = oldApp, oldBoot, oldSettings }()
	app = nil

	SetBootstrap(func(string) (*App, error) {
		t.Fatal("full bootstrap must not run for config commands")
		return nil, nil
	})
	SetSettingsBootstrap(func(string) (driving.SettingsService, error) {
		return &mockSettingsService{settings: domain.DefaultSettings()}, nil
	})

	out, err := execute(t, "config", "keys")
	require.NoError(t, err)
	assert.Contains(t, out, "embedding.model")
}

func TestMaskAPIKey(t *testing.T) {
	assert.Equal(t, "****", maskAPIKey("short"))
	assert.Equal(t, "abcd...wxyz", maskAPIKey("abcdefghijklmnopqrstuvwxyz"))
}

func TestApp_Resume(t *testing.T) {
	var a App
	assert.NoError(t, a.resume(context.Background()))

	calls := 0
	a.Recover = func(context.Context) error {
		calls++
		return nil
	}
	assert.NoError(t, a.resume(context.Background()))
	assert.Equal(t, 1, calls)

	a.Recover = func(context.Context) error { return errors.New("disk gone") }
	err := a.resume(context.Background())
	assert.ErrorContains(t, err, "resuming ingestion: disk gone")
}
