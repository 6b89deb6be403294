package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/custodia-labs/sercha-server/internal/core/domain"
	"github.com/custodia-labs/sercha-server/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-server/internal/core/ports/driving"
)

// Ensure QueueService implements the interface.
var _ driving.QueueService = (*QueueService)(nil)

// healthTimeout bounds each dependency ping.
const healthTimeout = 5 * time.Second

// backlog reports governor waiters and throughput.
type backlog interface {
	Backlog() (high, low int)
	Limit() int
	Window() time.Duration
}

// QueueService reports ingestion progress and dependency health.
type QueueService struct {
	chunks    driven.ChunkStore
	governor  backlog
	embedding driven.EmbeddingService
	db        driven.HealthChecker
}

// NewQueueService creates a queue service.
func NewQueueService(
	chunks driven.ChunkStore,
	governor backlog,
	embedding driven.EmbeddingService,
	db driven.HealthChecker,
) *QueueService {
	return &QueueService{
		chunks:    chunks,
		governor:  governor,
		embedding: embedding,
		db:        db,
	}
}

// Status returns chunk counts across all documents and the estimated wait
// for queued work to drain at the governor's rate.
func (s *QueueService) Status(ctx context.Context) (*domain.QueueStatus, error) {
	counts, err := s.chunks.CountAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("queue: %w", err)
	}

	status := &domain.QueueStatus{
		Pending:    counts.Pending,
		Processing: counts.Processing,
		Completed:  counts.Completed,
		Failed:     counts.Failed,
	}

	waiting := counts.Pending + counts.Processing
	if s.governor != nil {
		high, _ := s.governor.Backlog()
		waiting += high
		if limit := s.governor.Limit(); waiting > 0 && limit > 0 {
			minutes := float64(waiting) / float64(limit) * s.governor.Window().Minutes()
			minutes = math.Round(minutes*10) / 10
			status.EstimatedWaitMinutes = &minutes
		}
	}
	return status, nil
}

// Health pings the embedding provider and metadata store.
func (s *QueueService) Health(ctx context.Context) (*domain.HealthStatus, error) {
	h := &domain.HealthStatus{
		EmbeddingConnected: ping(ctx, s.embedding),
		DatabaseConnected:  ping(ctx, s.db),
	}

	if counts, err := s.chunks.CountAll(ctx); err == nil {
		h.QueueDepth = counts.Pending + counts.Processing
	} else {
		h.DatabaseConnected = false
	}

	h.Status = domain.HealthDegraded
	if h.EmbeddingConnected && h.DatabaseConnected {
		h.Status = domain.HealthHealthy
	}
	return h, nil
}

func ping(ctx context.Context, c driven.HealthChecker) bool {
	if c == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()
	return c.Ping(ctx) == nil
}
