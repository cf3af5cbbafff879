package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"
	"gonum.org/v1/gonum/floats"
)

// VectorMatch is a per-date cosine similarity against a query embedding.
type VectorMatch struct {
	Date       Date
	Similarity float64
}

// FlatVectorIndex ranks entries by brute-force cosine similarity over
// per-date embeddings. The embedder is an optional capability checked once
// at construction: without one the index silently returns empty results.
//
// Vectors live in memory for query speed and are written through the
// VectorStore before Upsert returns, so a crash cannot leave an entry
// without a retrievable vector after the next startup.
type FlatVectorIndex struct {
	embedder Embedder
	store    VectorStore
	floor    float64
	logger   zerolog.Logger

	mu      sync.RWMutex
	vectors map[Date][]float64
}

// NewFlatVectorIndex creates a flat vector index. embedder may be nil.
func NewFlatVectorIndex(embedder Embedder, store VectorStore, floor float64, logger zerolog.Logger) *FlatVectorIndex {
	return &FlatVectorIndex{
		embedder: embedder,
		store:    store,
		floor:    floor,
		logger:   logger,
		vectors:  make(map[Date][]float64),
	}
}

// Load restores persisted vectors into memory.
func (f *FlatVectorIndex) Load(ctx context.Context) error {
	vectors, err := f.store.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load vectors: %w", err)
	}

	f.mu.Lock()
	f.vectors = vectors
	f.mu.Unlock()
	return nil
}

// Upsert computes and durably stores the embedding for a date. A nil
// embedder degrades to a no-op.
func (f *FlatVectorIndex) Upsert(ctx context.Context, date Date, text string) error {
	if f.embedder == nil {
		return nil
	}

	vector, err := f.embedder.Embed(ctx, text)
	if err != nil {
		return fmt.Errorf("failed to embed entry for %s: %w", date, err)
	}

	// Persist before exposing the vector to queries.
	if err := f.store.Save(ctx, date, vector); err != nil {
		return fmt.Errorf("failed to persist vector for %s: %w", date, err)
	}

	f.mu.Lock()
	f.vectors[date] = vector
	f.mu.Unlock()
	return nil
}

// Query embeds the query text and returns the top-k dates by cosine
// similarity, rejecting near-orthogonal matches below the floor. An absent
// or failing embedder yields empty results, never an error.
func (f *FlatVectorIndex) Query(ctx context.Context, text string, k int) []VectorMatch {
	if f.embedder == nil {
		return nil
	}

	queryVec, err := f.embedder.Embed(ctx, text)
	if err != nil {
		f.logger.Warn().Err(err).Msg("query embedding failed, semantic strategy degraded")
		return nil
	}

	f.mu.RLock()
	matches := make([]VectorMatch, 0, len(f.vectors))
	for date, vector := range f.vectors {
		sim := cosineSimilarity(queryVec, vector)
		if sim > f.floor {
			matches = append(matches, VectorMatch{Date: date, Similarity: sim})
		}
	}
	f.mu.RUnlock()

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})
	if k < len(matches) {
		matches = matches[:k]
	}
	return matches
}

// Rebuild regenerates embeddings from the given entries and swaps the
// in-memory map whole, so concurrent queries see the old build or the new
// one but never a mix. With full unset only dates missing a vector are
// embedded.
func (f *FlatVectorIndex) Rebuild(ctx context.Context, entries map[Date]string, workers int, full bool) error {
	if f.embedder == nil {
		return nil
	}
	if workers < 1 {
		workers = 1
	}

	fresh := make(map[Date][]float64, len(entries))
	if !full {
		f.mu.RLock()
		for date, vector := range f.vectors {
			if _, ok := entries[date]; ok {
				fresh[date] = vector
			}
		}
		f.mu.RUnlock()
	}

	var freshMu sync.Mutex
	p := pool.New().WithMaxGoroutines(workers).WithErrors()
	for date, text := range entries {
		if _, ok := fresh[date]; ok {
			continue
		}
		date, text := date, text
		p.Go(func() error {
			vector, err := f.embedder.Embed(ctx, text)
			if err != nil {
				return fmt.Errorf("failed to embed entry for %s: %w", date, err)
			}
			if err := f.store.Save(ctx, date, vector); err != nil {
				return fmt.Errorf("failed to persist vector for %s: %w", date, err)
			}
			freshMu.Lock()
			fresh[date] = vector
			freshMu.Unlock()
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return err
	}

	f.mu.Lock()
	f.vectors = fresh
	f.mu.Unlock()
	return nil
}

// Size returns the number of indexed vectors.
func (f *FlatVectorIndex) Size() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.vectors)
}

func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	normA := floats.Norm(a, 2)
	normB := floats.Norm(b, 2)
	if normA == 0 || normB == 0 {
		return 0
	}
	return floats.Dot(a, b) / (normA * normB)
}
