package vectorstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestChromem(t *testing.T) *ChromemStore {
	t.Helper()
	store, err := NewChromemStore(ChromemConfig{}, zap.NewNop())
	require.NoError(t, err)
	return store
}

func TestChromemCreateAndInfo(t *testing.T) {
	store := newTestChromem(t)
	ctx := context.Background()

	require.NoError(t, store.CreateIndex(ctx, "docs", 3))

	exists, err := store.IndexExists(ctx, "docs")
	require.NoError(t, err)
	assert.True(t, exists)

	info, err := store.IndexInfo(ctx, "docs")
	require.NoError(t, err)
	assert.Equal(t, 3, info.Dimension)
	assert.Equal(t, 0, info.PointCount)
}

func TestChromemIndexNotFound(t *testing.T) {
	store := newTestChromem(t)
	ctx := context.Background()

	exists, err := store.IndexExists(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = store.IndexInfo(ctx, "missing")
	require.ErrorIs(t, err, ErrIndexNotFound)

	err = store.Upsert(ctx, "missing", []Entry{{ID: "a", Vector: []float32{1}, Metadata: map[string]interface{}{"text": "x"}}})
	require.ErrorIs(t, err, ErrIndexNotFound)
}

func TestChromemUpsertAndQuery(t *testing.T) {
	store := newTestChromem(t)
	ctx := context.Background()

	require.NoError(t, store.CreateIndex(ctx, "docs", 3))

	entries := []Entry{
		{ID: "a", Vector: []float32{1, 0, 0}, Metadata: map[string]interface{}{"text": "alpha", "source": "s1"}},
		{ID: "b", Vector: []float32{0, 1, 0}, Metadata: map[string]interface{}{"text": "beta", "source": "s2"}},
		{ID: "c", Vector: []float32{0.9, 0.1, 0}, Metadata: map[string]interface{}{"text": "gamma", "source": "s1"}},
	}
	require.NoError(t, store.Upsert(ctx, "docs", entries))

	info, err := store.IndexInfo(ctx, "docs")
	require.NoError(t, err)
	assert.Equal(t, 3, info.PointCount)

	candidates, err := store.Query(ctx, "docs", []float32{1, 0, 0}, 2, nil)
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	assert.Equal(t, "a", candidates[0].ID, "nearest neighbor should be the identical vector")
	assert.Equal(t, "alpha", candidates[0].Text())
	assert.InDelta(t, 1.0, float64(candidates[0].Score), 0.001)
	assert.GreaterOrEqual(t, candidates[0].Score, candidates[1].Score)
}

func TestChromemQueryWithFilter(t *testing.T) {
	store := newTestChromem(t)
	ctx := context.Background()

	require.NoError(t, store.CreateIndex(ctx, "docs", 3))
	require.NoError(t, store.Upsert(ctx, "docs", []Entry{
		{ID: "a", Vector: []float32{1, 0, 0}, Metadata: map[string]interface{}{"text": "alpha", "source": "s1"}},
		{ID: "b", Vector: []float32{0.9, 0.1, 0}, Metadata: map[string]interface{}{"text": "beta", "source": "s2"}},
	}))

	candidates, err := store.Query(ctx, "docs", []float32{1, 0, 0}, 2, map[string]interface{}{"source": "s2"})
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "b", candidates[0].ID)
}

func TestChromemQueryCapsTopK(t *testing.T) {
	store := newTestChromem(t)
	ctx := context.Background()

	require.NoError(t, store.CreateIndex(ctx, "docs", 3))
	require.NoError(t, store.Upsert(ctx, "docs", []Entry{
		{ID: "a", Vector: []float32{1, 0, 0}, Metadata: map[string]interface{}{"text": "alpha"}},
	}))

	// topK larger than the index must not error.
	candidates, err := store.Query(ctx, "docs", []float32{1, 0, 0}, 10, nil)
	require.NoError(t, err)
	assert.Len(t, candidates, 1)
}

func TestChromemQueryEmptyIndex(t *testing.T) {
	store := newTestChromem(t)
	ctx := context.Background()

	require.NoError(t, store.CreateIndex(ctx, "docs", 3))
	candidates, err := store.Query(ctx, "docs", []float32{1, 0, 0}, 5, nil)
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestChromemUpsertOverwritesByID(t *testing.T) {
	store := newTestChromem(t)
	ctx := context.Background()

	require.NoError(t, store.CreateIndex(ctx, "docs", 3))
	require.NoError(t, store.Upsert(ctx, "docs", []Entry{
		{ID: "a", Vector: []float32{1, 0, 0}, Metadata: map[string]interface{}{"text": "first"}},
	}))
	require.NoError(t, store.Upsert(ctx, "docs", []Entry{
		{ID: "a", Vector: []float32{1, 0, 0}, Metadata: map[string]interface{}{"text": "second"}},
	}))

	info, err := store.IndexInfo(ctx, "docs")
	require.NoError(t, err)
	assert.Equal(t, 1, info.PointCount, "same-ID upsert must overwrite, not duplicate")

	candidates, err := store.Query(ctx, "docs", []float32{1, 0, 0}, 1, nil)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "second", candidates[0].Text())
}
