package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/sercha-server/internal/core/domain"
)

// QueryNotebookInput is the input schema for the query_notebook tool.
type QueryNotebookInput struct {
	NotebookID string `json:"notebook_id" jsonschema:"the notebook to search"`
	Query      string `json:"query" jsonschema:"natural language question or phrase"`
	TopK       int    `json:"top_k,omitempty" jsonschema:"number of chunks to return, 1 to 20 (default 5)"`
}

// QueryLibraryInput is the input schema for the query_library tool.
type QueryLibraryInput struct {
	UserID string `json:"user_id" jsonschema:"the user whose notebooks are searched"`
	Query  string `json:"query" jsonschema:"natural language question or phrase"`
	TopK   int    `json:"top_k,omitempty" jsonschema:"number of chunks to return, 1 to 20 (default 5)"`
}

// QueryOutput is the output schema for both query tools.
type QueryOutput struct {
	Query        string               `json:"query"`
	Results      []domain.QueryResult `json:"results"`
	ResultCount  int                  `json:"result_count"`
	SearchTimeMs float64              `json:"search_time_ms"`
}

// DocumentStatusInput is the input schema for the document_status tool.
type DocumentStatusInput struct {
	DocumentID string `json:"document_id" jsonschema:"the document to inspect"`
}

// DocumentStatusOutput is the output schema for the document_status tool.
type DocumentStatusOutput struct {
	ProcessingStatus string             `json:"processing_status"`
	ChunkCount       int                `json:"chunk_count"`
	QueueStatus      domain.StateCounts `json:"queue_status"`
	ErrorMessage     string             `json:"error_message,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "query_notebook",
		Description: "Find the passages in one notebook closest in meaning to a query",
	}, s.handleQueryNotebook)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "query_library",
		Description: "Find the passages across all of a user's notebooks closest in meaning to a query",
	}, s.handleQueryLibrary)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "document_status",
		Description: "Report how far ingestion of an uploaded document has progressed",
	}, s.handleDocumentStatus)
}

func (s *Server) handleQueryNotebook(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input QueryNotebookInput,
) (*mcp.CallToolResult, QueryOutput, error) {
	return s.query(ctx, domain.QueryScope{Kind: domain.ScopeNotebook, ID: input.NotebookID}, input.Query, input.TopK)
}

func (s *Server) handleQueryLibrary(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input QueryLibraryInput,
) (*mcp.CallToolResult, QueryOutput, error) {
	return s.query(ctx, domain.QueryScope{Kind: domain.ScopeUser, ID: input.UserID}, input.Query, input.TopK)
}

func (s *Server) query(
	ctx context.Context,
	scope domain.QueryScope,
	text string,
	topK int,
) (*mcp.CallToolResult, QueryOutput, error) {
	if topK == 0 {
		topK = domain.DefaultTopK
	}

	resp, err := s.ports.Query.Query(ctx, scope, text, topK)
	if err != nil {
		return nil, QueryOutput{}, err
	}

	return nil, QueryOutput{
		Query:        resp.Query,
		Results:      resp.Results,
		ResultCount:  resp.ResultCount,
		SearchTimeMs: resp.SearchTimeMs,
	}, nil
}

func (s *Server) handleDocumentStatus(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DocumentStatusInput,
) (*mcp.CallToolResult, DocumentStatusOutput, error) {
	if s.ports.Document == nil {
		return nil, DocumentStatusOutput{}, fmt.Errorf("document %s: %w", input.DocumentID, domain.ErrNotFound)
	}

	status, err := s.ports.Document.Status(ctx, input.DocumentID)
	if err != nil {
		return nil, DocumentStatusOutput{}, err
	}

	return nil, DocumentStatusOutput{
		ProcessingStatus: string(status.Status),
		ChunkCount:       status.ChunkCount,
		QueueStatus:      status.Counts,
		ErrorMessage:     status.ErrorMessage,
	}, nil
}
