package httpapi

import (
	"context"

	"github.com/custodia-labs/sercha-server/internal/core/domain"
)

type mockUserService struct {
	user *domain.User
	err  error
}

func (m *mockUserService) Create(_ context.Context, userID string) (*domain.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &domain.User{ID: userID}, nil
}

func (m *mockUserService) Get(_ context.Context, _ string) (*domain.User, error) {
	return m.user, m.err
}

func (m *mockUserService) Delete(_ context.Context, _ string) error {
	return m.err
}

type mockNotebookService struct {
	notebook   *domain.Notebook
	notebooks  []domain.Notebook
	err        error
	lastUpdate domain.NotebookUpdate
}

func (m *mockNotebookService) Create(_ context.Context, userID, name, description string) (*domain.Notebook, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &domain.Notebook{ID: "nb-1", UserID: userID, Name: name, Description: description}, nil
}

func (m *mockNotebookService) Get(_ context.Context, _ string) (*domain.Notebook, error) {
	return m.notebook, m.err
}

func (m *mockNotebookService) ListByUser(_ context.Context, _ string) ([]domain.Notebook, error) {
	return m.notebooks, m.err
}

func (m *mockNotebookService) Update(
	_ context.Context,
	_ string,
	update domain.NotebookUpdate,
) (*domain.Notebook, error) {
	m.lastUpdate = update
	return m.notebook, m.err
}

func (m *mockNotebookService) Delete(_ context.Context, _ string) error {
	return m.err
}

type mockDocumentService struct {
	document  *domain.Document
	documents []domain.Document
	status    *domain.DocumentStatus
	err       error

	uploadedName    string
	uploadedContent []byte
}

func (m *mockDocumentService) Upload(
	_ context.Context,
	notebookID, filename string,
	content []byte,
) (*domain.Document, error) {
	m.uploadedName = filename
	m.uploadedContent = content
	if m.err != nil {
		return nil, m.err
	}
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
	return m.document, m.err
}

func (m *mockDocumentService) ListByNotebook(_ context.Context, _ string) ([]domain.Document, error) {
	return m.documents, m.err
}

func (m *mockDocumentService) Status(_ context.Context, _ string) (*domain.DocumentStatus, error) {
	return m.status, m.err
}

func (m *mockDocumentService) Delete(_ context.Context, _ string) error {
	return m.err
}

type mockQueryService struct {
	response *domain.QueryResponse
	err      error

	lastScope domain.QueryScope
	lastTopK  int
}

func (m *mockQueryService) Query(
	_ context.Context,
	scope domain.QueryScope,
	text string,
	topK int,
) (*domain.QueryResponse, error) {
	m.lastScope = scope
	m.lastTopK = topK
	if m.err != nil {
		return nil, m.err
	}
	if m.response != nil {
		return m.response, nil
	}
	return &domain.QueryResponse{Query: text}, nil
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
