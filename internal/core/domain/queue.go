package domain

// Priority orders admission to the embedding provider.
type Priority int

// Admission priorities.
const (
	// PriorityLow is used for background ingestion.
	PriorityLow Priority = iota

	// PriorityHigh is used for interactive query embeddings.
	PriorityHigh
)

// String returns the string representation.
func (p Priority) String() string {
	if p == PriorityHigh {
		return "high"
	}
	return "low"
}

// QueueStatus summarises the global ingestion backlog.
type QueueStatus struct {
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`

	// EstimatedWaitMinutes is nil when nothing is waiting.
	EstimatedWaitMinutes *float64 `json:"estimated_wait_minutes"`
}

// HealthStatus reports connectivity of the service's dependencies.
type HealthStatus struct {
	Status             string `json:"status"`
	EmbeddingConnected bool   `json:"embedding_connected"`
	DatabaseConnected  bool   `json:"database_connected"`
	QueueDepth         int    `json:"queue_depth"`
}

// Health states.
const (
	HealthHealthy  = "healthy"
	HealthDegraded = "degraded"
)
