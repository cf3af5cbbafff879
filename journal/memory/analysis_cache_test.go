package memory

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalysisCache_ComputesOnceForSameContent(t *testing.T) {
	store := newMemAnalysisStore()
	cache := NewAnalysisCache(store, "2.0")

	calls := 0
	compute := func(context.Context, string) (json.RawMessage, error) {
		calls++
		return json.RawMessage(`{"mood":"calm"}`), nil
	}

	first, err := cache.GetOrCompute(context.Background(), "entry text", compute)
	require.NoError(t, err)
	second, err := cache.GetOrCompute(context.Background(), "entry text", compute)
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.JSONEq(t, string(first), string(second))
}

func TestAnalysisCache_DifferentContentRecomputes(t *testing.T) {
	cache := NewAnalysisCache(newMemAnalysisStore(), "2.0")

	calls := 0
	compute := func(context.Context, string) (json.RawMessage, error) {
		calls++
		return json.RawMessage(`{}`), nil
	}

	_, err := cache.GetOrCompute(context.Background(), "one", compute)
	require.NoError(t, err)
	_, err = cache.GetOrCompute(context.Background(), "two", compute)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestAnalysisCache_SchemaVersionGate(t *testing.T) {
	store := newMemAnalysisStore()
	hash := ContentHash("entry text")
	require.NoError(t, store.Put(context.Background(), CacheEntry{
		ContentHash:   hash,
		SchemaVersion: "1.0",
		Result:        json.RawMessage(`{"mood":"old"}`),
	}))

	cache := NewAnalysisCache(store, "2.0")
	calls := 0
	result, err := cache.GetOrCompute(context.Background(), "entry text",
		func(context.Context, string) (json.RawMessage, error) {
			calls++
			return json.RawMessage(`{"mood":"new"}`), nil
		})
	require.NoError(t, err)

	// The stale version is a miss even though the hash matches.
	assert.Equal(t, 1, calls)
	assert.JSONEq(t, `{"mood":"new"}`, string(result))

	// The entry was rewritten under the current version.
	entry, found, err := store.Get(context.Background(), hash)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "2.0", entry.SchemaVersion)
}

func TestAnalysisCache_ComputeErrorPropagates(t *testing.T) {
	cache := NewAnalysisCache(newMemAnalysisStore(), "2.0")

	_, err := cache.GetOrCompute(context.Background(), "entry text",
		func(context.Context, string) (json.RawMessage, error) {
			return nil, errors.New("provider down")
		})
	assert.Error(t, err)
}

func TestContentHash_StableAndDistinct(t *testing.T) {
	assert.Equal(t, ContentHash("abc"), ContentHash("abc"))
	assert.NotEqual(t, ContentHash("abc"), ContentHash("abd"))
	assert.Len(t, ContentHash("abc"), 16)
}
