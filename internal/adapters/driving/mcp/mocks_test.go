package mcp

import (
	"context"

	"github.com/custodia-labs/sercha-server/internal/core/domain"
)

// mockQueryService is a mock implementation of driving.QueryService.
type mockQueryService struct {
	response *domain.QueryResponse
	err      error

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
	m.lastScope = scope
	m.lastText = text
	m.lastTopK = topK
	return m.response, m.err
}

// mockDocumentService is a mock implementation of driving.DocumentService.
type mockDocumentService struct {
	document *domain.Document
	status   *domain.DocumentStatus
	err      error
}

func (m *mockDocumentService) Upload(_ context.Context, _, _ string, _ []byte) (*domain.Document, error) {
	return m.document, m.err
}

func (m *mockDocumentService) Get(_ context.Context, _ string) (*domain.Document, error) {
	return m.document, m.err
}

func (m *mockDocumentService) ListByNotebook(_ context.Context, _ string) ([]domain.Document, error) {
	if m.document == nil {
		return nil, m.err
	}
	return []domain.Document{*m.document}, m.err
}

func (m *mockDocumentService) Status(_ context.Context, _ string) (*domain.DocumentStatus, error) {
	return m.status, m.err
}

func (m *mockDocumentService) Delete(_ context.Context, _ string) error {
	return m.err
}

// mockQueueService is a mock implementation of driving.QueueService.
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
