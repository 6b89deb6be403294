// Package chromem provides a persistent driven.VectorIndex on top of chromem-go.
//
// Each notebook maps to one chromem collection. Vectors are always supplied by
// the caller; chromem never computes embeddings here. chromem normalises stored
// vectors, so distances are L2 between unit vectors, derived from cosine
// similarity as sqrt(2 - 2*cos).
package chromem

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"sync/atomic"
	"time"

	chromemgo "github.com/philippgille/chromem-go"

	"github.com/custodia-labs/sercha-server/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

const (
	metaDocumentID = "document_id"
	metaNotebookID = "notebook_id"
	metaUserID     = "user_id"
	metaChunkIndex = "chunk_index"
	metaSeq        = "seq"
)

var errNoEmbedder = errors.New("chromem index: records must carry vectors")

// Index stores vectors in chromem collections.
type Index struct {
	db  *chromemgo.DB
	seq atomic.Int64
}

// New opens a persistent index under dir. An empty dir keeps everything in memory.
func New(dir string) (*Index, error) {
	if dir == "" {
		return newIndex(chromemgo.NewDB()), nil
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("creating vector directory: %w", err)
	}
	db, err := chromemgo.NewPersistentDB(filepath.Clean(dir), false)
	if err != nil {
		return nil, fmt.Errorf("opening vector database: %w", err)
	}
	return newIndex(db), nil
}

func newIndex(db *chromemgo.DB) *Index {
	x := &Index{db: db}
	// Sequence numbers must keep increasing across restarts.
	x.seq.Store(time.Now().UnixNano())
	return x
}

func refuseEmbedding(context.Context, string) ([]float32, error) {
	return nil, errNoEmbedder
}

// Add inserts records, replacing records with the same ID.
func (x *Index) Add(ctx context.Context, collection string, records []driven.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}
	c, err := x.db.GetOrCreateCollection(collection, nil, refuseEmbedding)
	if err != nil {
		return fmt.Errorf("chromem index: opening collection: %w", err)
	}

	docs := make([]chromemgo.Document, 0, len(records))
	for _, r := range records {
		if len(r.Vector) == 0 {
			return fmt.Errorf("chromem index: record %s has no vector", r.ID)
		}
		vec := make([]float32, len(r.Vector))
		copy(vec, r.Vector)
		docs = append(docs, chromemgo.Document{
			ID:        r.ID,
			Content:   r.Payload.Text,
			Embedding: vec,
			Metadata: map[string]string{
				metaDocumentID: r.Payload.DocumentID,
				metaNotebookID: r.Payload.NotebookID,
				metaUserID:     r.Payload.UserID,
				metaChunkIndex: strconv.Itoa(r.Payload.ChunkIndex),
				metaSeq:        strconv.FormatInt(x.seq.Add(1), 10),
			},
		})
	}

	if err := c.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("chromem index: adding documents: %w", err)
	}
	return nil
}

// DeleteByDocument removes a document's records from a collection.
func (x *Index) DeleteByDocument(ctx context.Context, collection, documentID string) error {
	c := x.db.GetCollection(collection, refuseEmbedding)
	if c == nil {
		return nil
	}
	if err := c.Delete(ctx, map[string]string{metaDocumentID: documentID}, nil); err != nil {
		return fmt.Errorf("chromem index: deleting document: %w", err)
	}
	return nil
}

// DeleteCollection drops a collection.
func (x *Index) DeleteCollection(_ context.Context, collection string) error {
	if x.db.GetCollection(collection, refuseEmbedding) == nil {
		return nil
	}
	if err := x.db.DeleteCollection(collection); err != nil {
		return fmt.Errorf("chromem index: deleting collection: %w", err)
	}
	return nil
}

// Search returns the owner's k nearest records.
func (x *Index) Search(ctx context.Context, collection string, query []float32, k int, owner string) ([]driven.VectorHit, error) {
	if k <= 0 {
		return nil, nil
	}
	c := x.db.GetCollection(collection, refuseEmbedding)
	if c == nil {
		return []driven.VectorHit{}, nil
	}
	n := min(k, c.Count())
	if n == 0 {
		return []driven.VectorHit{}, nil
	}

	var where map[string]string
	if owner != "" {
		where = map[string]string{metaUserID: owner}
	}
	results, err := c.QueryEmbedding(ctx, query, n, where, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem index: query: %w", err)
	}

	hits := make([]driven.VectorHit, 0, len(results))
	for _, r := range results {
		hits = append(hits, toHit(r))
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Distance != hits[j].Distance {
			return hits[i].Distance < hits[j].Distance
		}
		return hits[i].Seq < hits[j].Seq
	})
	return hits, nil
}

// Count returns the number of records in a collection.
func (x *Index) Count(_ context.Context, collection string) (int, error) {
	c := x.db.GetCollection(collection, refuseEmbedding)
	if c == nil {
		return 0, nil
	}
	return c.Count(), nil
}

// Close is a no-op; persistent collections are written on every change.
func (x *Index) Close() error {
	return nil
}

func toHit(r chromemgo.Result) driven.VectorHit {
	idx, _ := strconv.Atoi(r.Metadata[metaChunkIndex])
	seq, _ := strconv.ParseInt(r.Metadata[metaSeq], 10, 64)
	return driven.VectorHit{
		ID:       r.ID,
		Distance: cosineToL2(float64(r.Similarity)),
		Seq:      seq,
		Payload: driven.VectorPayload{
			DocumentID: r.Metadata[metaDocumentID],
			NotebookID: r.Metadata[metaNotebookID],
			UserID:     r.Metadata[metaUserID],
			Text:       r.Content,
			ChunkIndex: idx,
		},
	}
}

// cosineToL2 converts cosine similarity between unit vectors to Euclidean distance.
func cosineToL2(sim float64) float64 {
	return math.Sqrt(math.Max(0, 2-2*sim))
}
