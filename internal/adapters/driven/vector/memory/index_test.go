package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-server/internal/core/ports/driven"
)

func rec(id, doc string, v ...float32) driven.VectorRecord {
	return driven.VectorRecord{ID: id, Vector: v, Payload: driven.VectorPayload{DocumentID: doc, Text: id}}
}

func TestIndex_SearchOrdersByDistance(t *testing.T) {
	idx := New()
	ctx := context.Background()

	require.NoError(t, idx.Add(ctx, "nb", []driven.VectorRecord{
		rec("far", "d1", 3, 0),
		rec("near", "d1", 1, 0),
		rec("mid", "d2", 0, 2),
	}))

	hits, err := idx.Search(ctx, "nb", []float32{0, 0}, 2, "")
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "near", hits[0].ID)
	assert.InDelta(t, 1.0, hits[0].Distance, 1e-9)
	assert.Equal(t, "mid", hits[1].ID)
	assert.InDelta(t, 2.0, hits[1].Distance, 1e-9)
}

func TestIndex_TiesBreakOnInsertionOrder(t *testing.T) {
	idx := New()
	ctx := context.Background()

	require.NoError(t, idx.Add(ctx, "nb", []driven.VectorRecord{rec("b", "d", 1, 0)}))
	require.NoError(t, idx.Add(ctx, "nb", []driven.VectorRecord{rec("a", "d", 0, 1)}))

	hits, err := idx.Search(ctx, "nb", []float32{0, 0}, 5, "")
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "b", hits[0].ID)
	assert.Less(t, hits[0].Seq, hits[1].Seq)
}

func TestIndex_SearchFiltersOwnerBeforeCut(t *testing.T) {
	idx := New()
	ctx := context.Background()

	foreign := rec("foreign", "d1", 1, 0)
	foreign.Payload.UserID = "mallory"
	own := rec("own", "d2", 2, 0)
	own.Payload.UserID = "alice"
	require.NoError(t, idx.Add(ctx, "nb", []driven.VectorRecord{foreign, own}))

	hits, err := idx.Search(ctx, "nb", []float32{0, 0}, 1, "alice")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "own", hits[0].ID)

	hits, err = idx.Search(ctx, "nb", []float32{0, 0}, 1, "")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "foreign", hits[0].ID)
}

func TestIndex_MissingCollectionIsEmpty(t *testing.T) {
	idx := New()
	hits, err := idx.Search(context.Background(), "nope", []float32{1}, 3, "")
	require.NoError(t, err)
	assert.Empty(t, hits)

	n, err := idx.Count(context.Background(), "nope")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestIndex_DeleteByDocumentAndCollection(t *testing.T) {
	idx := New()
	ctx := context.Background()
	require.NoError(t, idx.Add(ctx, "nb", []driven.VectorRecord{
		rec("d1_0", "d1", 1), rec("d1_1", "d1", 2), rec("d2_0", "d2", 3),
	}))

	require.NoError(t, idx.DeleteByDocument(ctx, "nb", "d1"))
	n, err := idx.Count(ctx, "nb")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, idx.DeleteCollection(ctx, "nb"))
	n, err = idx.Count(ctx, "nb")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestIndex_DimensionMismatch(t *testing.T) {
	idx := New()
	ctx := context.Background()
	require.NoError(t, idx.Add(ctx, "nb", []driven.VectorRecord{rec("x", "d", 1, 2, 3)}))

	_, err := idx.Search(ctx, "nb", []float32{1, 2}, 1, "")
	assert.Error(t, err)
	assert.Error(t, idx.Add(ctx, "nb", []driven.VectorRecord{rec("empty", "d")}))
}
