package chromem

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-server/internal/core/ports/driven"
)

func rec(id, doc string, idx int, v ...float32) driven.VectorRecord {
	return driven.VectorRecord{
		ID:     id,
		Vector: v,
		Payload: driven.VectorPayload{
			DocumentID: doc,
			NotebookID: "nb",
			UserID:     "alice",
			Text:       "text " + id,
			ChunkIndex: idx,
		},
	}
}

func TestIndex_SearchOrdersByDistance(t *testing.T) {
	idx, err := New("")
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, idx.Add(ctx, "nb", []driven.VectorRecord{
		rec("same", "d1", 0, 1, 0),
		rec("orthogonal", "d1", 1, 0, 1),
		rec("opposite", "d2", 0, -1, 0),
	}))

	hits, err := idx.Search(ctx, "nb", []float32{1, 0}, 3, "")
	require.NoError(t, err)
	require.Len(t, hits, 3)

	assert.Equal(t, "same", hits[0].ID)
	assert.InDelta(t, 0, hits[0].Distance, 1e-3)
	assert.Equal(t, "orthogonal", hits[1].ID)
	assert.InDelta(t, math.Sqrt2, hits[1].Distance, 1e-3)
	assert.Equal(t, "opposite", hits[2].ID)
	assert.InDelta(t, 2, hits[2].Distance, 1e-3)

	assert.Equal(t, "d1", hits[1].Payload.DocumentID)
	assert.Equal(t, 1, hits[1].Payload.ChunkIndex)
	assert.Equal(t, "alice", hits[1].Payload.UserID)
	assert.Equal(t, "text orthogonal", hits[1].Payload.Text)
}

func TestIndex_KLargerThanCollection(t *testing.T) {
	idx, err := New("")
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, idx.Add(ctx, "nb", []driven.VectorRecord{rec("a", "d", 0, 1, 0)}))

	hits, err := idx.Search(ctx, "nb", []float32{1, 0}, 20, "")
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestIndex_SearchFiltersOwnerBeforeCut(t *testing.T) {
	idx, err := New("")
	require.NoError(t, err)
	ctx := context.Background()

	foreign := rec("foreign", "d1", 0, 1, 0)
	foreign.Payload.UserID = "mallory"
	require.NoError(t, idx.Add(ctx, "nb", []driven.VectorRecord{foreign, rec("own", "d2", 0, 0, 1)}))

	hits, err := idx.Search(ctx, "nb", []float32{1, 0}, 1, "alice")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "own", hits[0].ID)

	hits, err = idx.Search(ctx, "nb", []float32{1, 0}, 1, "bob")
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestIndex_SeqIncreases(t *testing.T) {
	idx, err := New("")
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, idx.Add(ctx, "nb", []driven.VectorRecord{rec("first", "d", 0, 1, 0)}))
	require.NoError(t, idx.Add(ctx, "nb", []driven.VectorRecord{rec("second", "d", 1, 0, 1)}))

	hits, err := idx.Search(ctx, "nb", []float32{1, 1}, 2, "")
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.InDelta(t, hits[0].Distance, hits[1].Distance, 1e-6)
	assert.Less(t, hits[0].Seq, hits[1].Seq)
}

func TestIndex_DeleteByDocument(t *testing.T) {
	idx, err := New("")
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, idx.Add(ctx, "nb", []driven.VectorRecord{
		rec("a", "d1", 0, 1, 0),
		rec("b", "d2", 0, 0, 1),
	}))
	require.NoError(t, idx.DeleteByDocument(ctx, "nb", "d1"))

	n, err := idx.Count(ctx, "nb")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, idx.DeleteByDocument(ctx, "missing", "d1"))
}

func TestIndex_DeleteCollection(t *testing.T) {
	idx, err := New("")
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, idx.Add(ctx, "nb", []driven.VectorRecord{rec("a", "d1", 0, 1, 0)}))
	require.NoError(t, idx.DeleteCollection(ctx, "nb"))
	require.NoError(t, idx.DeleteCollection(ctx, "nb"))

	hits, err := idx.Search(ctx, "nb", []float32{1, 0}, 3, "")
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestIndex_RejectsEmptyVector(t *testing.T) {
	idx, err := New("")
	require.NoError(t, err)

	err = idx.Add(context.Background(), "nb", []driven.VectorRecord{rec("a", "d", 0)})
	assert.Error(t, err)
}

func TestIndex_Persistent(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	idx, err := New(dir)
	require.NoError(t, err)
	require.NoError(t, idx.Add(ctx, "nb", []driven.VectorRecord{rec("a", "d", 0, 1, 0)}))
	require.NoError(t, idx.Close())

	reopened, err := New(dir)
	require.NoError(t, err)
	n, err := reopened.Count(ctx, "nb")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
