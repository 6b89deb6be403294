package driving

import (
	"context"

	"github.com/custodia-labs/sercha-server/internal/core/domain"
)

// QueueService reports on the ingestion backlog and service health.
type QueueService interface {
	// Status returns global chunk counts and the estimated wait.
	Status(ctx context.Context) (*domain.QueueStatus, error)

	// Health checks the embedding provider and metadata store.
	Health(ctx context.Context) (*domain.HealthStatus, error)
}
