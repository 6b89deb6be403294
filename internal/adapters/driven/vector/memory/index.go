// Package memory provides an exact, brute-force vector index held in memory.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/custodia-labs/sercha-server/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

type entry struct {
	record driven.VectorRecord
	seq    int64
}

// Index is an in-memory driven.VectorIndex computing exact L2 distances.
type Index struct {
	mu          sync.RWMutex
	seq         int64
	collections map[string]map[string]entry
}

// New creates an empty index.
func New() *Index {
	return &Index{collections: make(map[string]map[string]entry)}
}

// Add inserts records, replacing records with the same ID.
func (x *Index) Add(_ context.Context, collection string, records []driven.VectorRecord) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	c, ok := x.collections[collection]
	if !ok {
		c = make(map[string]entry)
		x.collections[collection] = c
	}
	for _, r := range records {
		if len(r.Vector) == 0 {
			return fmt.Errorf("vector index: record %s has no vector", r.ID)
		}
		x.seq++
		vec := make([]float32, len(r.Vector))
		copy(vec, r.Vector)
		r.Vector = vec
		c[r.ID] = entry{record: r, seq: x.seq}
	}
	return nil
}

// DeleteByDocument removes a document's records from a collection.
func (x *Index) DeleteByDocument(_ context.Context, collection, documentID string) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	for id, e := range x.collections[collection] {
		if e.record.Payload.DocumentID == documentID {
			delete(x.collections[collection], id)
		}
	}
	return nil
}

// DeleteCollection drops a collection.
func (x *Index) DeleteCollection(_ context.Context, collection string) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	delete(x.collections, collection)
	return nil
}

// Search returns the owner's k nearest records by L2 distance.
func (x *Index) Search(ctx context.Context, collection string, query []float32, k int, owner string) ([]driven.VectorHit, error) {
	if k <= 0 {
		return nil, nil
	}
	x.mu.RLock()
	defer x.mu.RUnlock()

	c := x.collections[collection]
	hits := make([]driven.VectorHit, 0, len(c))
	for id, e := range c {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if owner != "" && e.record.Payload.UserID != owner {
			continue
		}
		if len(e.record.Vector) != len(query) {
			return nil, fmt.Errorf("vector index: dimension mismatch: query %d, record %d", len(query), len(e.record.Vector))
		}
		hits = append(hits, driven.VectorHit{
			ID:       id,
			Distance: l2(query, e.record.Vector),
			Seq:      e.seq,
			Payload:  e.record.Payload,
		})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Distance != hits[j].Distance {
			return hits[i].Distance < hits[j].Distance
		}
		return hits[i].Seq < hits[j].Seq
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Count returns the number of records in a collection.
func (x *Index) Count(_ context.Context, collection string) (int, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.collections[collection]), nil
}

// Close is a no-op.
func (x *Index) Close() error {
	return nil
}

func l2(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}
