package cli

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/sercha-server/internal/core/domain"
)

type mockUserService struct {
	err error
}

func (m *mockUserService) Create(_ context.Context, userID string) (*domain.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &domain.User{ID: userID, CreatedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)}, nil
}

func (m *mockUserService) Get(ctx context.Context, userID string) (*domain.User, error) {
	return m.Create(ctx, userID)
}

func (m *mockUserService) Delete(_ context.Context, _ string) error {
	return m.err
}

type mockNotebookService struct {
	notebooks []domain.Notebook
	err       error
}

func (m *mockNotebookService) Create(_ context.Context, userID, name, description string) (*domain.Notebook, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &domain.Notebook{ID: "nb-1", UserID: userID, Name: name, Description: description}, nil
}

func (m *mockNotebookService) Get(_ context.Context, _ string) (*domain.Notebook, error) {
	if len(m.notebooks) == 0 {
		return nil, domain.ErrNotFound
	}
	return &m.notebooks[0], m.err
}

func (m *mockNotebookService) ListByUser(_ context.Context, _ string) ([]domain.Notebook, error) {
	return m.notebooks, m.err
}

func (m *mockNotebookService) Update(
	_ context.Context,
	_ string,
	_ domain.NotebookUpdate,
) (*domain.Notebook, error) {
	return nil, m.err
}

func (m *mockNotebookService) Delete(_ context.Context, _ string) error {
	return m.err
}

// mockDocumentService returns statuses in sequence, repeating the last.
type mockDocumentService struct {
	mu        sync.Mutex
	documents []domain.Document
	statuses  []domain.DocumentStatus
	err       error
	uploaded  []byte
}

func (m *mockDocumentService) Upload(
	_ context.Context,
	notebookID, filename string,
	content []byte,
) (*domain.Document, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.uploaded = content
	return &domain.Document{
		ID:         "doc-1",
		NotebookID: notebookID,
		Filename:   filename,
		FileType:   domain.FileTypeFromName(filename),
		FileSize:   int64(len(content)),
		Status:     domain.StatusPending,
	}, nil
}

func (m *mockDocumentService) Get(_ context.Context, _ string) (*domain.Document, error) {
	if len(m.documents) == 0 {
		return nil, domain.ErrNotFound
	}
	return &m.documents[0], m.err
}

func (m *mockDocumentService) ListByNotebook(_ context.Context, _ string) ([]domain.Document, error) {
	return m.documents, m.err
}

func (m *mockDocumentService) Status(_ context.Context, _ string) (*domain.DocumentStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if len(m.statuses) == 0 {
		return nil, domain.ErrNotFound
	}
	s := m.statuses[0]
	if len(m.statuses) > 1 {
		m.statuses = m.statuses[1:]
	}
	return &s, nil
}

func (m *mockDocumentService) Delete(_ context.Context, _ string) error {
	return m.err
}

type mockQueryService struct {
	response  *domain.QueryResponse
	err       error
	lastScope domain.QueryScope
	lastText  string
	lastTopK  int
}

func (m *mockQueryService) Query(
	_ context.Context,
	scope domain.QueryScope,
	text string,
	topK int,
) (*domain.QueryResponse, error) {
	m.lastScope, m.lastText, m.lastTopK = scope, text, topK
	if m.err != nil {
		return nil, m.err
	}
	return m.response, nil
}

type mockQueueService struct {
	status *domain.QueueStatus
	health *domain.HealthStatus
	err    error
}

func (m *mockQueueService) Status(_ context.Context) (*domain.QueueStatus, error) {
	return m.status, m.err
}

func (m *mockQueueService) Health(_ context.Context) (*domain.HealthStatus, error) {
	return m.health, m.err
}

type mockSettingsService struct {
	settings domain.Settings
	set      map[string]string
	err      error
}

func (m *mockSettingsService) Get() (*domain.Settings, error) {
	if m.err != nil {
		return nil, m.err
	}
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Set(key, value string) error {
	if m.err != nil {
		return m.err
	}
	if m.set == nil {
		m.set = make(map[string]string)
	}
	m.set[key] = value
	return nil
}

func (m *mockSettingsService) Keys() []string {
	return []string{"embedding.model", "server.addr"}
}

func (m *mockSettingsService) GetDefaults() domain.Settings {
	return domain.DefaultSettings()
}

type testServices struct {
	users     *mockUserService
	notebooks *mockNotebookService
	documents *mockDocumentService
	query     *mockQueryService
	queue     *mockQueueService
	settings  *mockSettingsService
}

// setupTestServices installs mock services and returns them with a cleanup func.
func setupTestServices() (*testServices, func()) {
	ts := &testServices{
		users:     &mockUserService{},
		notebooks: &mockNotebookService{},
		documents: &mockDocumentService{},
		query:     &mockQueryService{response: &domain.QueryResponse{}},
		queue:     &mockQueueService{},
		settings:  &mockSettingsService{settings: domain.DefaultSettings()},
	}

	old := app
	SetApp(&App{
		Users:     ts.users,
		Notebooks: ts.notebooks,
		Documents: ts.documents,
		Query:     ts.query,
		Queue:     ts.queue,
		Settings:  ts.settings,
	})

	return ts, func() { app = old }
}

// execute runs the root command with args and returns combined output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	color.NoColor = true
	resetFlags(rootCmd)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

// resetFlags restores every flag to its default so state does not leak
// between executions of the shared command tree.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}
