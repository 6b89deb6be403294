package mcp

import (
	"github.com/custodia-labs/sercha-server/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
type Ports struct {
	// Query answers semantic queries.
	Query driving.QueryService

	// Document reports ingestion status.
	Document driving.DocumentService

	// Queue reports global queue state.
	Queue driving.QueueService
}

// Validate ensures all required ports are set.
// Document and Queue are optional; their tools and resources then report
// nothing to find.
func (p *Ports) Validate() error {
	if p.Query == nil {
		return ErrMissingQueryService
	}
	return nil
}
