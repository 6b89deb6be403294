package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/sercha-server/internal/core/domain"
	"github.com/custodia-labs/sercha-server/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-server/internal/logger"
)

// DefaultChunkWorkers is the default number of chunks of one document
// embedded concurrently.
const DefaultChunkWorkers = 4

// ChunkOutcome reports a single chunk state transition.
type ChunkOutcome struct {
	ChunkID string
	From    domain.ChunkState
	To      domain.ChunkState

	// Err is set when To is failed.
	Err error
}

// ChunkProcessor splits extracted text into chunks and drives each chunk
// through embedding and indexing. Chunk failures are recorded and do not
// stop sibling chunks.
type ChunkProcessor struct {
	pipeline driven.PostProcessorPipeline
	embedder embedder
	index    driven.VectorIndex
	chunks   driven.ChunkStore
	workers  int
}

// NewChunkProcessor creates a chunk processor. workers bounds concurrent
// chunks per document.
func NewChunkProcessor(
	pipeline driven.PostProcessorPipeline,
	embedder embedder,
	index driven.VectorIndex,
	chunks driven.ChunkStore,
	workers int,
) *ChunkProcessor {
	if workers <= 0 {
		workers = DefaultChunkWorkers
	}
	return &ChunkProcessor{
		pipeline: pipeline,
		embedder: embedder,
		index:    index,
		chunks:   chunks,
		workers:  workers,
	}
}

// Split turns ordered text segments into the document's chunk sequence.
func (p *ChunkProcessor) Split(ctx context.Context, doc *domain.Document, segments []string) ([]domain.Chunk, error) {
	texts, err := p.pipeline.Process(ctx, segments)
	if err != nil {
		return nil, fmt.Errorf("split: %w", err)
	}

	now := time.Now()
	chunks := make([]domain.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = domain.Chunk{
			ID:         domain.ChunkID(doc.ID, i),
			DocumentID: doc.ID,
			NotebookID: doc.NotebookID,
			UserID:     doc.UserID,
			Index:      i,
			Text:       text,
			State:      domain.ChunkPending,
			CreatedAt:  now,
		}
	}
	return chunks, nil
}

// Process embeds and indexes chunks with bounded concurrency and streams
// their transitions. The channel closes once every started chunk settles.
// Work for a cancelled job stops being scheduled and produces no outcomes.
func (p *ChunkProcessor) Process(job *ingestJob, chunks []domain.Chunk) <-chan ChunkOutcome {
	out := make(chan ChunkOutcome, p.workers)

	go func() {
		defer close(out)

		var g errgroup.Group
		g.SetLimit(p.workers)
		for i := range chunks {
			if job.ctx.Err() != nil {
				break
			}
			c := chunks[i]
			g.Go(func() error {
				p.processChunk(job, c, out)
				return nil
			})
		}
		_ = g.Wait()
	}()

	return out
}

// processChunk moves one chunk through processing to completed or failed.
func (p *ChunkProcessor) processChunk(job *ingestJob, c domain.Chunk, out chan<- ChunkOutcome) {
	ctx := job.ctx
	if ctx.Err() != nil {
		return
	}

	err := job.commit(func() error {
		return p.chunks.UpdateChunkState(ctx, c.ID, domain.ChunkProcessing, "")
	})
	if errors.Is(err, domain.ErrDocumentDeleted) {
		return
	}
	if err != nil {
		logger.Warn("chunk %s: recording processing state: %v", c.ID, err)
	}
	out <- ChunkOutcome{ChunkID: c.ID, From: domain.ChunkPending, To: domain.ChunkProcessing}

	vec, err := p.embedder.Embed(ctx, c.Text, domain.PriorityLow)
	if err != nil {
		if ctx.Err() != nil {
			// Deleted or shutting down; the result is discarded.
			return
		}
		p.fail(job, c, err, out)
		return
	}

	err = job.commit(func() error {
		record := driven.VectorRecord{
			ID:     c.ID,
			Vector: vec,
			Payload: driven.VectorPayload{
				DocumentID: c.DocumentID,
				NotebookID: c.NotebookID,
				UserID:     c.UserID,
				Text:       c.Text,
				ChunkIndex: c.Index,
			},
		}
		if err := p.index.Add(ctx, c.NotebookID, []driven.VectorRecord{record}); err != nil {
			return fmt.Errorf("index: %w", err)
		}
		return p.chunks.UpdateChunkState(ctx, c.ID, domain.ChunkCompleted, "")
	})
	switch {
	case errors.Is(err, domain.ErrDocumentDeleted):
		logger.Debug("chunk %s: document deleted, discarding embedding", c.ID)
		return
	case err != nil:
		p.fail(job, c, err, out)
		return
	}

	out <- ChunkOutcome{ChunkID: c.ID, From: domain.ChunkProcessing, To: domain.ChunkCompleted}
}

// fail records a terminal chunk failure.
func (p *ChunkProcessor) fail(job *ingestJob, c domain.Chunk, cause error, out chan<- ChunkOutcome) {
	logger.Warn("chunk %s: %v", c.ID, cause)

	err := job.commit(func() error {
		return p.chunks.UpdateChunkState(job.ctx, c.ID, domain.ChunkFailed, cause.Error())
	})
	if errors.Is(err, domain.ErrDocumentDeleted) {
		return
	}
	if err != nil {
		logger.Warn("chunk %s: recording failure: %v", c.ID, err)
	}
	out <- ChunkOutcome{ChunkID: c.ID, From: domain.ChunkProcessing, To: domain.ChunkFailed, Err: cause}
}
