package memory

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"sync"
)

// AnalysisStoreImpl persists memoized analysis results keyed by content
// hash.
type AnalysisStoreImpl struct {
	db *sql.DB
}

// NewAnalysisStoreImpl creates an analysis store backed by db.
func NewAnalysisStoreImpl(db *sql.DB) *AnalysisStoreImpl {
	return &AnalysisStoreImpl{db: db}
}

func (a *AnalysisStoreImpl) Get(ctx context.Context, hash string) (CacheEntry, bool, error) {
	var entry CacheEntry
	var result string
	err := a.db.QueryRowContext(ctx,
		"SELECT content_hash, schema_version, result_json FROM analysis_cache WHERE content_hash = ?",
		hash,
	).Scan(&entry.ContentHash, &entry.SchemaVersion, &result)
	if err == sql.ErrNoRows {
		return CacheEntry{}, false, nil
	}
	if err != nil {
		return CacheEntry{}, false, fmt.Errorf("failed to load cache entry %s: %w", hash, err)
	}
	entry.Result = json.RawMessage(result)
	return entry, true, nil
}

func (a *AnalysisStoreImpl) Put(ctx context.Context, entry CacheEntry) error {
	_, err := a.db.ExecContext(ctx, `
		INSERT INTO analysis_cache (content_hash, schema_version, result_json, created_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(content_hash) DO UPDATE SET
			schema_version = excluded.schema_version,
			result_json = excluded.result_json,
			created_at = CURRENT_TIMESTAMP
	`, entry.ContentHash, entry.SchemaVersion, string(entry.Result))
	if err != nil {
		return fmt.Errorf("failed to store cache entry %s: %w", entry.ContentHash, err)
	}
	return nil
}

const cacheStripes = 64

// AnalysisCache memoizes expensive external analyses by content hash.
// Entries written under a different schema version are treated as misses;
// bumping the version is the only way to invalidate the whole cache.
//
// Compute calls for the same content are serialized on a hash-striped lock
// so concurrent callers do not duplicate the expensive work, while distinct
// hashes proceed in parallel.
type AnalysisCache struct {
	store         AnalysisStore
	schemaVersion string
	stripes       [cacheStripes]sync.Mutex
}

// NewAnalysisCache creates a cache over store, gated on schemaVersion.
func NewAnalysisCache(store AnalysisStore, schemaVersion string) *AnalysisCache {
	return &AnalysisCache{store: store, schemaVersion: schemaVersion}
}

// ContentHash returns the stable hash used as cache key for text.
func ContentHash(text string) string {
	h := fnv.New64a()
	h.Write([]byte(text))
	return fmt.Sprintf("%016x", h.Sum64())
}

// GetOrCompute returns the cached result for text when present under the
// current schema version, otherwise invokes compute, stores its result,
// and returns it. A failed store does not discard a successful compute.
func (c *AnalysisCache) GetOrCompute(
	ctx context.Context,
	text string,
	compute func(ctx context.Context, text string) (json.RawMessage, error),
) (json.RawMessage, error) {
	hash := ContentHash(text)

	stripe := &c.stripes[stripeIndex(hash)]
	stripe.Lock()
	defer stripe.Unlock()

	entry, found, err := c.store.Get(ctx, hash)
	if err != nil {
		return nil, err
	}
	if found && entry.SchemaVersion == c.schemaVersion {
		return entry.Result, nil
	}

	result, err := compute(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("analysis compute failed: %w", err)
	}

	if err := c.store.Put(ctx, CacheEntry{
		ContentHash:   hash,
		SchemaVersion: c.schemaVersion,
		Result:        result,
	}); err != nil {
		return result, err
	}
	return result, nil
}

func stripeIndex(hash string) int {
	h := fnv.New32a()
	h.Write([]byte(hash))
	return int(h.Sum32() % cacheStripes)
}
