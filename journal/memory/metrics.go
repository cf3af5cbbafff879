package memory

import (
	"sync"
	"time"
)

// MetricsCollector collects performance metrics for engine operations.
type MetricsCollector struct {
	mu sync.RWMutex

	// Counters
	saveCount    int64
	searchCount  int64
	rebuildCount int64

	// Latency tracking
	saveLatency    []time.Duration
	searchLatency  []time.Duration
	rebuildLatency []time.Duration

	// Error tracking
	saveErrors   int64
	searchErrors int64

	// Cache effectiveness
	cacheHits   int64
	cacheMisses int64

	// Index sizes from the last rebuild
	vectorCount int64
	entityCount int64
}

// NewMetricsCollector creates a new metrics collector.
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		saveLatency:    make([]time.Duration, 0, 1000),
		searchLatency:  make([]time.Duration, 0, 1000),
		rebuildLatency: make([]time.Duration, 0, 16),
	}
}

// RecordSave records an entry save operation.
func (mc *MetricsCollector) RecordSave(duration time.Duration, err error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.saveCount++
	mc.saveLatency = append(mc.saveLatency, duration)
	if err != nil {
		mc.saveErrors++
	}
}

// RecordSearch records a search operation.
func (mc *MetricsCollector) RecordSearch(duration time.Duration, err error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.searchCount++
	mc.searchLatency = append(mc.searchLatency, duration)
	if err != nil {
		mc.searchErrors++
	}
}

// RecordRebuild records an index rebuild.
func (mc *MetricsCollector) RecordRebuild(duration time.Duration) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.rebuildCount++
	mc.rebuildLatency = append(mc.rebuildLatency, duration)
}

// RecordCacheHit records an analysis cache hit.
func (mc *MetricsCollector) RecordCacheHit() {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.cacheHits++
}

// RecordCacheMiss records an analysis cache miss.
func (mc *MetricsCollector) RecordCacheMiss() {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.cacheMisses++
}

// UpdateIndexSizes records the index sizes after a rebuild.
func (mc *MetricsCollector) UpdateIndexSizes(vectors, entities int64) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.vectorCount = vectors
	mc.entityCount = entities
}

// Summary returns a snapshot of collected metrics.
func (mc *MetricsCollector) Summary() MetricsSummary {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	return MetricsSummary{
		SaveCount:      mc.saveCount,
		SearchCount:    mc.searchCount,
		RebuildCount:   mc.rebuildCount,
		SaveErrors:     mc.saveErrors,
		SearchErrors:   mc.searchErrors,
		CacheHits:      mc.cacheHits,
		CacheMisses:    mc.cacheMisses,
		VectorCount:    mc.vectorCount,
		EntityCount:    mc.entityCount,
		SaveLatency:    calculatePercentiles(mc.saveLatency),
		SearchLatency:  calculatePercentiles(mc.searchLatency),
		RebuildLatency: calculatePercentiles(mc.rebuildLatency),
	}
}

// Reset clears all collected metrics.
func (mc *MetricsCollector) Reset() {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.saveCount = 0
	mc.searchCount = 0
	mc.rebuildCount = 0
	mc.saveErrors = 0
	mc.searchErrors = 0
	mc.cacheHits = 0
	mc.cacheMisses = 0
	mc.vectorCount = 0
	mc.entityCount = 0
	mc.saveLatency = mc.saveLatency[:0]
	mc.searchLatency = mc.searchLatency[:0]
	mc.rebuildLatency = mc.rebuildLatency[:0]
}

// calculatePercentiles calculates p50, p95, p99 latencies.
func calculatePercentiles(latencies []time.Duration) LatencyPercentiles {
	if len(latencies) == 0 {
		return LatencyPercentiles{}
	}

	sorted := make([]time.Duration, len(latencies))
	copy(sorted, latencies)
	for i := 0; i < len(sorted)-1; i++ {
		for j := 0; j < len(sorted)-i-1; j++ {
			if sorted[j] > sorted[j+1] {
				sorted[j], sorted[j+1] = sorted[j+1], sorted[j]
			}
		}
	}

	return LatencyPercentiles{
		P50: sorted[len(sorted)*50/100],
		P95: sorted[len(sorted)*95/100],
		P99: sorted[len(sorted)*99/100],
	}
}

// MetricsSummary represents a summary of collected metrics.
type MetricsSummary struct {
	SaveCount      int64              `json:"save_count"`
	SearchCount    int64              `json:"search_count"`
	RebuildCount   int64              `json:"rebuild_count"`
	SaveErrors     int64              `json:"save_errors"`
	SearchErrors   int64              `json:"search_errors"`
	CacheHits      int64              `json:"cache_hits"`
	CacheMisses    int64              `json:"cache_misses"`
	VectorCount    int64              `json:"vector_count"`
	EntityCount    int64              `json:"entity_count"`
	SaveLatency    LatencyPercentiles `json:"save_latency"`
	SearchLatency  LatencyPercentiles `json:"search_latency"`
	RebuildLatency LatencyPercentiles `json:"rebuild_latency"`
}

// LatencyPercentiles represents latency percentiles.
type LatencyPercentiles struct {
	P50 time.Duration `json:"p50"`
	P95 time.Duration `json:"p95"`
	P99 time.Duration `json:"p99"`
}
