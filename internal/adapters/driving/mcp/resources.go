package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// URIScheme is the custom URI scheme for Sercha resources.
	uriScheme = "sercha://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "queue",
		Name:        "queue",
		Description: "Chunks waiting, in flight, done and failed across all documents, with an estimated wait",
		MIMEType:    "application/json",
	}, s.handleQueueResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "documents/{documentId}/status",
		Name:        "document-status",
		Description: "Ingestion status of a specific document",
		MIMEType:    "application/json",
	}, s.handleDocumentStatusResource)
}

// handleQueueResource returns the global queue status.
func (s *Server) handleQueueResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Queue == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	status, err := s.ports.Queue.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading queue status: %w", err)
	}

	return jsonResource(req.Params.URI, status)
}

// handleDocumentStatusResource returns the status of one document.
func (s *Server) handleDocumentStatusResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Document == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	docID := extractDocumentID(req.Params.URI)
	if docID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	_, out, err := s.handleDocumentStatus(ctx, nil, DocumentStatusInput{DocumentID: docID})
	if err != nil {
		return nil, fmt.Errorf("reading document status: %w", err)
	}

	return jsonResource(req.Params.URI, out)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling resource: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractDocumentID extracts the document ID from sercha://documents/{documentId}/status.
func extractDocumentID(uri string) string {
	const prefix = uriScheme + "documents/"
	const suffix = "/status"

	if !strings.HasPrefix(uri, prefix) || !strings.HasSuffix(uri, suffix) {
		return ""
	}

	id := strings.TrimSuffix(strings.TrimPrefix(uri, prefix), suffix)
	if strings.Contains(id, "/") {
		return ""
	}
	return id
}
