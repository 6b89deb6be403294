package domain

// Query limits.
const (
	MinTopK        = 1
	MaxTopK        = 20
	DefaultTopK    = 5
	MaxQueryLength = 2000
)

// ScopeKind selects which collections a query searches.
type ScopeKind string

// Query scopes.
const (
	// ScopeNotebook searches a single notebook.
	ScopeNotebook ScopeKind = "notebook"

	// ScopeUser searches every notebook owned by a user.
	ScopeUser ScopeKind = "user"
)

// QueryScope identifies the collections a query runs against.
type QueryScope struct {
	Kind ScopeKind
	ID   string
}

// QueryResult is a single ranked chunk.
type QueryResult struct {
	// ChunkID identifies the matched chunk.
	ChunkID string `json:"chunk_id"`

	// DocumentID is the chunk's document.
	DocumentID string `json:"document_id"`

	// NotebookID is the chunk's notebook.
	NotebookID string `json:"notebook_id"`

	// Text is the chunk content.
	Text string `json:"text"`

	// Score is the L2 distance to the query vector. Lower is more relevant.
	Score float64 `json:"score"`
}

// QueryResponse is the outcome of a query.
type QueryResponse struct {
	Query        string        `json:"query"`
	Results      []QueryResult `json:"results"`
	ResultCount  int           `json:"result_count"`
	SearchTimeMs float64       `json:"search_time_ms"`
}
