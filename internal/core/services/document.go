package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/custodia-labs/sercha-server/internal/core/domain"
	"github.com/custodia-labs/sercha-server/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-server/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-server/internal/logger"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

var errServiceClosed = fmt.Errorf("%w: document service is shutting down", domain.ErrCapacity)

// DefaultMaxConcurrentDocuments bounds documents ingested at once.
const DefaultMaxConcurrentDocuments = 8

// DocumentServiceConfig configures uploads and background ingestion.
type DocumentServiceConfig struct {
	// MaxFileSize is the upload limit in bytes.
	MaxFileSize int64

	// MaxConcurrentDocuments bounds documents being extracted and embedded at once.
	MaxConcurrentDocuments int
}

// DocumentStores groups the persistence ports used by DocumentService.
type DocumentStores struct {
	Notebooks driven.NotebookStore
	Documents driven.DocumentStore
	Chunks    driven.ChunkStore
	Files     driven.FileStore
}

// DocumentService orchestrates document lifecycles. Upload returns as soon
// as the document is recorded; extraction, chunking, embedding and indexing
// run in the background and report back over a channel from which the
// aggregate status is derived.
type DocumentService struct {
	notebooks   driven.NotebookStore
	documents   driven.DocumentStore
	chunks      driven.ChunkStore
	files       driven.FileStore
	index       driven.VectorIndex
	normalisers driven.NormaliserRegistry
	processor   *ChunkProcessor
	cfg         DocumentServiceConfig

	sem        *semaphore.Weighted
	root       context.Context
	stop       context.CancelFunc
	generation atomic.Uint64
	wg         sync.WaitGroup

	mu      sync.Mutex
	jobs    map[string]*ingestJob
	purging map[string]int
	closed  bool
}

// NewDocumentService creates a document service.
func NewDocumentService(
	stores DocumentStores,
	index driven.VectorIndex,
	normalisers driven.NormaliserRegistry,
	processor *ChunkProcessor,
	cfg DocumentServiceConfig,
) *DocumentService {
	if cfg.MaxConcurrentDocuments <= 0 {
		cfg.MaxConcurrentDocuments = DefaultMaxConcurrentDocuments
	}
	root, stop := context.WithCancel(context.Background())
	return &DocumentService{
		notebooks:   stores.Notebooks,
		documents:   stores.Documents,
		chunks:      stores.Chunks,
		files:       stores.Files,
		index:       index,
		normalisers: normalisers,
		processor:   processor,
		cfg:         cfg,
		sem:         semaphore.NewWeighted(int64(cfg.MaxConcurrentDocuments)),
		root:        root,
		stop:        stop,
		jobs:        make(map[string]*ingestJob),
		purging:     make(map[string]int),
	}
}

// Upload validates a file, records a pending document and schedules ingestion.
func (s *DocumentService) Upload(ctx context.Context, notebookID, filename string, content []byte) (*domain.Document, error) {
	if s.isClosed() {
		return nil, errServiceClosed
	}

	notebook, err := s.notebooks.Get(ctx, notebookID)
	if err != nil {
		return nil, fmt.Errorf("upload: notebook %s: %w", notebookID, err)
	}
	if s.isPurging(notebookID) {
		return nil, fmt.Errorf("upload: %w", errNotebookPurging(notebookID))
	}

	filename = filepath.Base(strings.TrimSpace(filename))
	if filename == "" || filename == "." || filename == string(filepath.Separator) {
		return nil, fmt.Errorf("upload: %w: filename is required", domain.ErrInvalidInput)
	}

	fileType := domain.FileTypeFromName(filename)
	if !fileType.IsSupported() || !slices.Contains(s.normalisers.SupportedTypes(), fileType) {
		return nil, fmt.Errorf("upload: %w: %q", domain.ErrUnsupportedType, fileType)
	}
	if s.cfg.MaxFileSize > 0 && int64(len(content)) > s.cfg.MaxFileSize {
		return nil, fmt.Errorf("upload: %w: %d bytes exceeds limit of %d", domain.ErrFileTooLarge, len(content), s.cfg.MaxFileSize)
	}
	if len(content) == 0 {
		return nil, fmt.Errorf("upload: %w: file is empty", domain.ErrInvalidInput)
	}

	sum := sha256.Sum256(content)
	doc := &domain.Document{
		ID:         uuid.New().String(),
		NotebookID: notebook.ID,
		UserID:     notebook.UserID,
		Filename:   filename,
		FileType:   fileType,
		FileSize:   int64(len(content)),
		FileHash:   hex.EncodeToString(sum[:]),
		Status:     domain.StatusPending,
		CreatedAt:  time.Now().UTC(),
	}

	if s.files != nil {
		path, err := s.files.Save(ctx, doc.ID, filename, content)
		if err != nil {
			return nil, fmt.Errorf("upload: storing file: %w", err)
		}
		doc.StoragePath = path
	}

	if err := s.documents.SaveDocument(ctx, doc); err != nil {
		s.removeFile(ctx, doc)
		return nil, fmt.Errorf("upload: saving document: %w", err)
	}

	job, err := s.startJob(*doc)
	if err != nil {
		s.discard(ctx, doc)
		return nil, fmt.Errorf("upload: %w", err)
	}
	// A notebook delete that finished while the document was being saved
	// left no purge mark behind; the row itself is the authority.
	if _, err := s.notebooks.Get(ctx, notebookID); err != nil {
		s.abandon(job)
		s.discard(ctx, doc)
		return nil, fmt.Errorf("upload: notebook %s: %w", notebookID, err)
	}
	s.launch(job, content)

	logger.Info("upload: accepted %s (%s, %d bytes) into notebook %s", doc.ID, doc.Filename, doc.FileSize, doc.NotebookID)
	return doc, nil
}

// Ingest schedules background processing of a recorded document and
// returns immediately.
func (s *DocumentService) Ingest(_ context.Context, doc *domain.Document, content []byte) error {
	job, err := s.startJob(*doc)
	if err != nil {
		return err
	}
	s.launch(job, content)
	return nil
}

func (s *DocumentService) launch(job *ingestJob, content []byte) {
	go func() {
		defer s.wg.Done()
		defer s.finishJob(job)
		s.run(job, content)
	}()
}

// Get retrieves a document by ID.
func (s *DocumentService) Get(ctx context.Context, documentID string) (*domain.Document, error) {
	return s.documents.GetDocument(ctx, documentID)
}

// ListByNotebook returns the documents of a notebook.
func (s *DocumentService) ListByNotebook(ctx context.Context, notebookID string) ([]domain.Document, error) {
	if _, err := s.notebooks.Get(ctx, notebookID); err != nil {
		return nil, err
	}
	return s.documents.ListByNotebook(ctx, notebookID)
}

// Status returns the processing summary of a document.
func (s *DocumentService) Status(ctx context.Context, documentID string) (*domain.DocumentStatus, error) {
	doc, err := s.documents.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	counts, err := s.chunks.CountByDocument(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("status: counting chunks: %w", err)
	}
	return &domain.DocumentStatus{
		DocumentID:   doc.ID,
		Status:       doc.Status,
		ChunkCount:   doc.ChunkCount,
		Counts:       counts,
		ErrorMessage: doc.ErrorMessage,
	}, nil
}

// Delete cancels any in-flight work for a document, then removes its
// vectors, chunks, record and stored file.
func (s *DocumentService) Delete(ctx context.Context, documentID string) error {
	doc, err := s.documents.GetDocument(ctx, documentID)
	if err != nil {
		return err
	}

	s.revokeJob(documentID)

	if err := s.index.DeleteByDocument(ctx, doc.NotebookID, doc.ID); err != nil {
		return fmt.Errorf("delete: removing vectors: %w", err)
	}
	if err := s.chunks.DeleteByDocument(ctx, doc.ID); err != nil {
		return fmt.Errorf("delete: removing chunks: %w", err)
	}
	if err := s.documents.DeleteDocument(ctx, doc.ID); err != nil {
		return fmt.Errorf("delete: removing document: %w", err)
	}
	s.removeFile(ctx, doc)

	logger.Info("delete: removed document %s", doc.ID)
	return nil
}

// PurgeNotebook cancels work for every document in a notebook and drops its
// vector collection and stored files. Metadata rows are left to the caller.
//
// The notebook stays marked as being deleted until ReleaseNotebook, and no
// ingestion can start for it in the meantime. Callers release it once the
// notebook row is gone, whether or not the purge succeeded.
func (s *DocumentService) PurgeNotebook(ctx context.Context, notebookID string) error {
	s.mu.Lock()
	s.purging[notebookID]++
	var running []string
	for id, job := range s.jobs {
		if job.doc.NotebookID == notebookID {
			running = append(running, id)
		}
	}
	s.mu.Unlock()
	for _, id := range running {
		s.revokeJob(id)
	}

	docs, err := s.documents.ListByNotebook(ctx, notebookID)
	if err != nil {
		return fmt.Errorf("purge: listing documents: %w", err)
	}
	for i := range docs {
		s.revokeJob(docs[i].ID)
	}
	if err := s.index.DeleteCollection(ctx, notebookID); err != nil {
		return fmt.Errorf("purge: dropping collection: %w", err)
	}
	for i := range docs {
		s.removeFile(ctx, &docs[i])
	}
	return nil
}

// ReleaseNotebook ends the delete started by PurgeNotebook.
func (s *DocumentService) ReleaseNotebook(notebookID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.purging[notebookID] <= 1 {
		delete(s.purging, notebookID)
		return
	}
	s.purging[notebookID]--
}

// Recover resumes ingestion interrupted by a restart. Documents still
// pending are re-ingested from their stored file; documents processing
// resume with their unfinished chunks.
func (s *DocumentService) Recover(ctx context.Context) error {
	logger.Section("Recover")

	pending, err := s.documents.ListByStatus(ctx, domain.StatusPending)
	if err != nil {
		return fmt.Errorf("recover: %w", err)
	}
	for i := range pending {
		doc := pending[i]
		if s.files == nil || doc.StoragePath == "" {
			s.markFailed(ctx, &doc, "stored file unavailable for recovery")
			continue
		}
		content, err := s.files.Load(ctx, doc.StoragePath)
		if err != nil {
			s.markFailed(ctx, &doc, fmt.Sprintf("loading stored file: %v", err))
			continue
		}
		if err := s.chunks.DeleteByDocument(ctx, doc.ID); err != nil {
			return fmt.Errorf("recover: %w", err)
		}
		if err := s.Ingest(ctx, &doc, content); err != nil {
			return err
		}
		logger.Debug("recover: re-ingesting %s", doc.ID)
	}

	processing, err := s.documents.ListByStatus(ctx, domain.StatusProcessing)
	if err != nil {
		return fmt.Errorf("recover: %w", err)
	}
	for i := range processing {
		if err := s.resume(ctx, processing[i]); err != nil {
			return err
		}
	}

	logger.Info("recover: %d pending and %d processing documents resumed", len(pending), len(processing))
	return nil
}

// resume restarts embedding for a document's unfinished chunks.
func (s *DocumentService) resume(ctx context.Context, doc domain.Document) error {
	chunks, err := s.chunks.GetChunks(ctx, doc.ID)
	if err != nil {
		return fmt.Errorf("recover: %w", err)
	}

	var counts domain.StateCounts
	var firstErr string
	var unfinished []domain.Chunk
	for _, c := range chunks {
		switch c.State {
		case domain.ChunkPending, domain.ChunkProcessing:
			if err := s.chunks.UpdateChunkState(ctx, c.ID, domain.ChunkPending, ""); err != nil {
				return fmt.Errorf("recover: %w", err)
			}
			c.State = domain.ChunkPending
			unfinished = append(unfinished, c)
		case domain.ChunkFailed:
			if firstErr == "" {
				firstErr = c.Error
			}
		}
		counts.Add(c.State, 1)
	}

	job, err := s.startJob(doc)
	if err != nil {
		return err
	}
	go func() {
		defer s.wg.Done()
		defer s.finishJob(job)
		if err := s.sem.Acquire(job.ctx, 1); err != nil {
			return
		}
		defer s.sem.Release(1)
		s.track(job, unfinished, counts, firstErr)
	}()
	return nil
}

// Close stops background ingestion and waits for workers to exit.
// Interrupted documents stay in processing and are picked up by Recover.
func (s *DocumentService) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.stop()
	s.wg.Wait()
	return nil
}

func (s *DocumentService) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *DocumentService) isPurging(notebookID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.purging[notebookID] > 0
}

func errNotebookPurging(notebookID string) error {
	return fmt.Errorf("%w: notebook %s is being deleted", domain.ErrNotFound, notebookID)
}

// startJob registers a job for a document, superseding any earlier one.
func (s *DocumentService) startJob(doc domain.Document) (*ingestJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, errServiceClosed
	}
	if s.purging[doc.NotebookID] > 0 {
		return nil, errNotebookPurging(doc.NotebookID)
	}
	if prev, ok := s.jobs[doc.ID]; ok {
		prev.revoke()
	}

	job := newIngestJob(s.root, doc, s.generation.Add(1))
	s.jobs[doc.ID] = job
	s.wg.Add(1)
	return job, nil
}

// finishJob unregisters a job unless a newer generation replaced it.
func (s *DocumentService) finishJob(job *ingestJob) {
	s.mu.Lock()
	if cur, ok := s.jobs[job.doc.ID]; ok && cur.generation == job.generation {
		delete(s.jobs, job.doc.ID)
	}
	s.mu.Unlock()

	job.cancel()
	close(job.done)
}

// abandon unregisters a job that was never launched.
func (s *DocumentService) abandon(job *ingestJob) {
	s.revokeJob(job.doc.ID)
	s.finishJob(job)
	s.wg.Done()
}

// revokeJob stops the current job for a document, if any.
func (s *DocumentService) revokeJob(documentID string) {
	s.mu.Lock()
	job, ok := s.jobs[documentID]
	delete(s.jobs, documentID)
	s.mu.Unlock()

	if ok {
		job.revoke()
		logger.Debug("ingest: cancelled generation %d of %s", job.generation, documentID)
	}
}

// run is the background pipeline for one document.
func (s *DocumentService) run(job *ingestJob, content []byte) {
	ctx := job.ctx
	doc := job.doc

	if err := s.sem.Acquire(ctx, 1); err != nil {
		return
	}
	defer s.sem.Release(1)

	logger.Section("Ingest " + doc.ID)

	// Step 1: Extract text
	result, err := s.normalisers.Normalise(ctx, &domain.RawFile{
		DocumentID: doc.ID,
		Filename:   doc.Filename,
		FileType:   doc.FileType,
		Content:    content,
	})
	if err != nil {
		if ctx.Err() == nil {
			s.failJob(job, err.Error())
		}
		return
	}
	logger.Debug("ingest: %s extracted %d segments", doc.ID, len(result.Segments))

	// Step 2: Chunk
	chunks, err := s.processor.Split(ctx, &doc, result.Segments)
	if err != nil {
		if ctx.Err() == nil {
			s.failJob(job, err.Error())
		}
		return
	}
	if len(chunks) == 0 {
		s.failJob(job, "document contains no extractable text")
		return
	}

	// Step 3: Persist chunks and enter processing
	err = job.commit(func() error {
		if err := s.chunks.SaveChunks(ctx, chunks); err != nil {
			return err
		}
		return s.documents.UpdateStatus(ctx, doc.ID, domain.StatusProcessing, len(chunks), "", nil)
	})
	if errors.Is(err, domain.ErrDocumentDeleted) {
		return
	}
	if err != nil {
		s.failJob(job, fmt.Sprintf("saving chunks: %v", err))
		return
	}
	logger.Debug("ingest: %s split into %d chunks", doc.ID, len(chunks))

	// Step 4: Embed and index, folding outcomes into the aggregate status
	s.track(job, chunks, domain.StateCounts{Pending: len(chunks)}, "")
}

// track consumes chunk outcomes and records the derived document status
// after each transition.
func (s *DocumentService) track(job *ingestJob, chunks []domain.Chunk, counts domain.StateCounts, firstErr string) {
	ctx := job.ctx
	id := job.doc.ID

	if len(chunks) == 0 {
		s.recordStatus(job, counts, firstErr)
		return
	}

	for outcome := range s.processor.Process(job, chunks) {
		counts.Move(outcome.From, outcome.To)
		if outcome.Err != nil && firstErr == "" {
			firstErr = outcome.Err.Error()
		}
		s.recordStatus(job, counts, firstErr)
	}

	switch {
	case job.revoked():
		logger.Debug("ingest: %s deleted during processing", id)
	case ctx.Err() != nil:
		logger.Info("ingest: %s interrupted with %d chunks unfinished", id, counts.Pending+counts.Processing)
	default:
		logger.Info("ingest: %s finished: %d completed, %d failed", id, counts.Completed, counts.Failed)
	}
}

// recordStatus persists the status derived from counts.
func (s *DocumentService) recordStatus(job *ingestJob, counts domain.StateCounts, firstErr string) {
	status := domain.DeriveStatus(counts)

	var msg string
	if status == domain.StatusFailed {
		msg = fmt.Sprintf("%d of %d chunks failed: %s", counts.Failed, counts.Total(), firstErr)
	}
	var processedAt *time.Time
	if status.IsTerminal() {
		now := time.Now().UTC()
		processedAt = &now
	}

	err := job.commit(func() error {
		return s.documents.UpdateStatus(job.ctx, job.doc.ID, status, counts.Total(), msg, processedAt)
	})
	if err != nil && !errors.Is(err, domain.ErrDocumentDeleted) && job.ctx.Err() == nil {
		logger.Warn("ingest: %s: recording status: %v", job.doc.ID, err)
	}
}

// failJob marks a document failed before any chunk was created.
func (s *DocumentService) failJob(job *ingestJob, msg string) {
	logger.Warn("ingest: %s failed: %s", job.doc.ID, msg)
	now := time.Now().UTC()
	err := job.commit(func() error {
		return s.documents.UpdateStatus(job.ctx, job.doc.ID, domain.StatusFailed, 0, msg, &now)
	})
	if err != nil && !errors.Is(err, domain.ErrDocumentDeleted) {
		logger.Warn("ingest: %s: recording failure: %v", job.doc.ID, err)
	}
}

// markFailed marks a document failed outside of any job.
func (s *DocumentService) markFailed(ctx context.Context, doc *domain.Document, msg string) {
	now := time.Now().UTC()
	if err := s.documents.UpdateStatus(ctx, doc.ID, domain.StatusFailed, doc.ChunkCount, msg, &now); err != nil {
		logger.Warn("recover: %s: %v", doc.ID, err)
	}
}

func (s *DocumentService) removeFile(ctx context.Context, doc *domain.Document) {
	if s.files == nil || doc.StoragePath == "" {
		return
	}
	if err := s.files.Delete(ctx, doc.StoragePath); err != nil {
		logger.Warn("delete: removing stored file for %s: %v", doc.ID, err)
	}
}

// discard removes a document that was recorded but never scheduled.
func (s *DocumentService) discard(ctx context.Context, doc *domain.Document) {
	if err := s.documents.DeleteDocument(ctx, doc.ID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		logger.Warn("upload: removing unscheduled document %s: %v", doc.ID, err)
	}
	s.removeFile(ctx, doc)
}
