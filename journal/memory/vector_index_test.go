package memory

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, cosineSimilarity([]float64{1, 0}, []float64{2, 0}), 0.001)
	assert.InDelta(t, 0.0, cosineSimilarity([]float64{1, 0}, []float64{0, 1}), 0.001)
	assert.InDelta(t, -1.0, cosineSimilarity([]float64{1, 0}, []float64{-1, 0}), 0.001)

	// Mismatched or degenerate inputs score zero rather than panicking.
	assert.Equal(t, 0.0, cosineSimilarity([]float64{1, 0}, []float64{1}))
	assert.Equal(t, 0.0, cosineSimilarity([]float64{0, 0}, []float64{1, 0}))
	assert.Equal(t, 0.0, cosineSimilarity(nil, nil))
}

func TestFlatVectorIndex_NilEmbedderDegrades(t *testing.T) {
	idx := NewFlatVectorIndex(nil, newMemVectorStore(), 0.2, zerolog.Nop())

	require.NoError(t, idx.Upsert(context.Background(), "2024-06-15", "text"))
	assert.Empty(t, idx.Query(context.Background(), "text", 5))
	assert.Zero(t, idx.Size())
}

func TestFlatVectorIndex_QueryFloorsAndRanks(t *testing.T) {
	embedder := &stubEmbedder{
		dims: 2,
		vectors: map[string][]float64{
			"query": {1, 0},
			"close": {0.9, 0.1},
			"far":   {0.1, 0.9},
		},
	}
	idx := NewFlatVectorIndex(embedder, newMemVectorStore(), 0.2, zerolog.Nop())
	require.NoError(t, idx.Upsert(context.Background(), "2024-06-15", "close"))
	require.NoError(t, idx.Upsert(context.Background(), "2024-06-10", "far"))

	matches := idx.Query(context.Background(), "query", 5)
	require.Len(t, matches, 2)
	assert.Equal(t, Date("2024-06-15"), matches[0].Date)
	assert.Greater(t, matches[0].Similarity, matches[1].Similarity)
}

func TestFlatVectorIndex_QueryRejectsBelowFloor(t *testing.T) {
	embedder := &stubEmbedder{
		dims: 2,
		vectors: map[string][]float64{
			"query":      {1, 0},
			"orthogonal": {0, 1},
		},
	}
	idx := NewFlatVectorIndex(embedder, newMemVectorStore(), 0.2, zerolog.Nop())
	require.NoError(t, idx.Upsert(context.Background(), "2024-06-15", "orthogonal"))

	assert.Empty(t, idx.Query(context.Background(), "query", 5))
}

func TestFlatVectorIndex_UpsertPersistsBeforeServing(t *testing.T) {
	embedder := &stubEmbedder{dims: 2, vectors: map[string][]float64{"text": {1, 2}}}
	store := newMemVectorStore()
	idx := NewFlatVectorIndex(embedder, store, 0.2, zerolog.Nop())

	require.NoError(t, idx.Upsert(context.Background(), "2024-06-15", "text"))

	persisted, err := store.LoadAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, persisted["2024-06-15"])
}

func TestFlatVectorIndex_LoadRestoresPersistedVectors(t *testing.T) {
	store := newMemVectorStore()
	require.NoError(t, store.Save(context.Background(), "2024-06-15", []float64{1, 0}))

	embedder := &stubEmbedder{dims: 2, vectors: map[string][]float64{"query": {1, 0}}}
	idx := NewFlatVectorIndex(embedder, store, 0.2, zerolog.Nop())
	require.NoError(t, idx.Load(context.Background()))

	assert.Equal(t, 1, idx.Size())
	assert.Len(t, idx.Query(context.Background(), "query", 5), 1)
}

func TestFlatVectorIndex_RebuildDropsStaleDates(t *testing.T) {
	embedder := &stubEmbedder{
		dims: 2,
		vectors: map[string][]float64{
			"kept text": {1, 0},
		},
	}
	idx := NewFlatVectorIndex(embedder, newMemVectorStore(), 0.2, zerolog.Nop())
	require.NoError(t, idx.Upsert(context.Background(), "2024-06-15", "kept text"))
	require.NoError(t, idx.Upsert(context.Background(), "2024-06-10", "dropped text"))
	require.Equal(t, 2, idx.Size())

	err := idx.Rebuild(context.Background(), map[Date]string{"2024-06-15": "kept text"}, 2, false)
	require.NoError(t, err)
	assert.Equal(t, 1, idx.Size())
}

func TestFlatVectorIndex_IncrementalRebuildOnlyEmbedsMissing(t *testing.T) {
	calls := 0
	embedder := &countingEmbedder{dims: 2, calls: &calls}
	idx := NewFlatVectorIndex(embedder, newMemVectorStore(), 0.2, zerolog.Nop())

	require.NoError(t, idx.Upsert(context.Background(), "2024-06-15", "existing"))
	calls = 0

	err := idx.Rebuild(context.Background(), map[Date]string{
		"2024-06-15": "existing",
		"2024-06-16": "new entry",
	}, 2, false)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 2, idx.Size())
}

type countingEmbedder struct {
	dims  int
	calls *int
}

func (e *countingEmbedder) Embed(context.Context, string) ([]float64, error) {
	*e.calls++
	return make([]float64, e.dims), nil
}

func (e *countingEmbedder) Dimension() int { return e.dims }
