package services

import (
	"context"
	"sync"

	"github.com/custodia-labs/sercha-server/internal/core/domain"
)

// ingestJob is the in-flight ingestion of one document. Its generation
// identifies this particular run; deleting the document flips cancelled,
// after which no worker may write on the job's behalf.
type ingestJob struct {
	doc        domain.Document
	generation uint64
	ctx        context.Context
	cancel     context.CancelFunc
	done       chan struct{}

	mu        sync.RWMutex
	cancelled bool
}

func newIngestJob(parent context.Context, doc domain.Document, generation uint64) *ingestJob {
	ctx, cancel := context.WithCancel(parent)
	return &ingestJob{
		doc:        doc,
		generation: generation,
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
}

// commit runs fn unless the document has been deleted. Writes performed
// through commit cannot interleave with revoke.
func (j *ingestJob) commit(fn func() error) error {
	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.cancelled {
		return domain.ErrDocumentDeleted
	}
	return fn()
}

// revoke marks the document deleted and cancels outstanding work. When it
// returns, every commit has either finished or will be refused.
func (j *ingestJob) revoke() {
	j.mu.Lock()
	j.cancelled = true
	j.mu.Unlock()
	j.cancel()
}

// revoked reports whether the document was deleted.
func (j *ingestJob) revoked() bool {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.cancelled
}
