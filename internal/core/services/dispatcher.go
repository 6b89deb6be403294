package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/custodia-labs/sercha-server/internal/core/domain"
	"github.com/custodia-labs/sercha-server/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-server/internal/logger"
)

// Default retry policy for transient embedding failures.
const (
	DefaultMaxAttempts    = 3
	DefaultRetryBaseDelay = time.Second
)

// admitter gates access to the embedding provider.
type admitter interface {
	Acquire(ctx context.Context, p domain.Priority) error
}

// embedder produces embeddings at a given priority.
type embedder interface {
	Embed(ctx context.Context, text string, p domain.Priority) ([]float32, error)
}

// DispatcherConfig configures retries.
type DispatcherConfig struct {
	// MaxAttempts bounds provider calls per low-priority request.
	MaxAttempts int

	// BaseDelay is the first backoff; each retry doubles it, with jitter.
	BaseDelay time.Duration
}

// Dispatcher is the only caller of the embedding provider. Every provider
// attempt first passes the governor, so concurrent callers never exceed
// the provider quota.
type Dispatcher struct {
	governor  admitter
	embedding driven.EmbeddingService
	cfg       DispatcherConfig
	jitter    func() float64
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(governor admitter, embedding driven.EmbeddingService, cfg DispatcherConfig) *Dispatcher {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = DefaultRetryBaseDelay
	}
	return &Dispatcher{
		governor:  governor,
		embedding: embedding,
		cfg:       cfg,
		jitter:    rand.Float64,
	}
}

// Embed returns the embedding of text.
//
// Low priority (ingestion) retries transient failures up to MaxAttempts with
// exponential backoff. High priority (queries) makes a single attempt.
// Permanent failures are never retried.
func (d *Dispatcher) Embed(ctx context.Context, text string, p domain.Priority) ([]float32, error) {
	if d.embedding == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	inputType := driven.InputTypePassage
	attempts := d.cfg.MaxAttempts
	if p == domain.PriorityHigh {
		inputType = driven.InputTypeQuery
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := d.governor.Acquire(ctx, p); err != nil {
			return nil, fmt.Errorf("embed: %w", err)
		}

		vec, err := d.embedding.Embed(ctx, text, inputType)
		if err == nil {
			return vec, nil
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("embed: %w: %w", domain.ErrEmbeddingTransient, ctxErr)
		}
		if !errors.Is(err, domain.ErrEmbeddingTransient) {
			if !errors.Is(err, domain.ErrEmbeddingPermanent) {
				err = fmt.Errorf("%w: %w", domain.ErrEmbeddingPermanent, err)
			}
			return nil, fmt.Errorf("embed: %w", err)
		}

		lastErr = err
		if attempt == attempts {
			break
		}

		delay := d.backoff(attempt)
		logger.Debug("embed: attempt %d/%d failed, retrying in %s: %v", attempt, attempts, delay, err)

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("embed: %w: %w", domain.ErrEmbeddingTransient, ctx.Err())
		}
	}

	return nil, fmt.Errorf("embed: giving up after %d attempts: %w", attempts, lastErr)
}

// backoff returns BaseDelay * 2^(attempt-1), scaled by a factor in [0.5, 1.5).
func (d *Dispatcher) backoff(attempt int) time.Duration {
	base := d.cfg.BaseDelay << (attempt - 1)
	return time.Duration(float64(base) * (0.5 + d.jitter()))
}
