package memory

import (
	"fmt"
	"sort"
)

// fuseHits merges hits from multiple strategies into a single ranked list.
// Hits are keyed by date; when two strategies surface the same date the
// higher-scoring hit wins, and on an exact tie the earlier arrival is kept,
// which gives earlier strategies precedence. The result is sorted by score
// descending with ties broken by insertion order, then truncated to limit.
func fuseHits(limit int, groups ...[]SearchHit) ([]SearchHit, error) {
	if limit < 0 {
		return nil, fmt.Errorf("fuse hits: negative limit %d", limit)
	}

	type rankedHit struct {
		SearchHit
		order int
	}

	best := make(map[Date]rankedHit)
	order := 0
	for _, group := range groups {
		for _, hit := range group {
			existing, seen := best[hit.Date]
			if seen && hit.Score <= existing.Score {
				continue
			}
			ranked := rankedHit{SearchHit: hit, order: order}
			if seen {
				// Overwrite in place keeps the original arrival
				// position for tie-breaking.
				ranked.order = existing.order
			}
			best[hit.Date] = ranked
			order++
		}
	}

	fused := make([]rankedHit, 0, len(best))
	for _, hit := range best {
		fused = append(fused, hit)
	}
	sort.SliceStable(fused, func(i, j int) bool {
		if fused[i].Score != fused[j].Score {
			return fused[i].Score > fused[j].Score
		}
		return fused[i].order < fused[j].order
	})

	if len(fused) > limit {
		fused = fused[:limit]
	}

	hits := make([]SearchHit, len(fused))
	for i, hit := range fused {
		hits[i] = hit.SearchHit
	}
	return hits, nil
}
