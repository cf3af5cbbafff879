package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// Retriever runs the hybrid search: an exact entity match short-circuits
// everything else; otherwise the semantic, lexical, and direct strategies
// each produce candidates and the fusion step ranks them together. Any
// strategy may be degraded or absent; the direct matcher always runs, so a
// query over a non-empty journal can always be answered.
type Retriever struct {
	entries  EntryStore
	vectors  *FlatVectorIndex
	entities *EntityIndex
	lexical  LexicalProvider
	direct   *DirectMatcher

	semanticScale float64
	logger        zerolog.Logger
}

// NewRetriever wires the search strategies together. lexical may be nil.
func NewRetriever(
	entries EntryStore,
	vectors *FlatVectorIndex,
	entities *EntityIndex,
	lexical LexicalProvider,
	direct *DirectMatcher,
	semanticScale float64,
	logger zerolog.Logger,
) *Retriever {
	return &Retriever{
		entries:       entries,
		vectors:       vectors,
		entities:      entities,
		lexical:       lexical,
		direct:        direct,
		semanticScale: semanticScale,
		logger:        logger,
	}
}

// Search returns the top hits for a free-text query, at most limit.
func (r *Retriever) Search(ctx context.Context, query string, limit int) ([]SearchHit, error) {
	if limit < 0 {
		return nil, fmt.Errorf("search: negative limit %d", limit)
	}
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}

	allEntries, err := r.entries.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load entries for search: %w", err)
	}
	if len(allEntries) == 0 {
		return nil, nil
	}

	keywords := r.direct.Keywords(query)

	// A name the index knows is a stronger signal than any similarity
	// score, so entity hits preempt the ranked strategies entirely.
	if entityHits := r.entityHits(query, allEntries, keywords); len(entityHits) > 0 {
		r.logger.Debug().Int("hits", len(entityHits)).Msg("entity index short-circuit")
		return fuseHits(limit, entityHits)
	}

	semantic := r.semanticHits(ctx, query, allEntries, keywords, limit)
	lexical := r.lexicalHits(ctx, query, limit)
	direct := r.direct.Search(query, allEntries, limit)

	return fuseHits(limit, semantic, lexical, direct)
}

func (r *Retriever) entityHits(query string, allEntries map[Date]string, keywords []string) []SearchHit {
	matches := r.entities.Lookup(strings.Fields(query))
	if len(matches) == 0 {
		return nil
	}

	hits := make([]SearchHit, 0, len(matches))
	for date, count := range matches {
		content, ok := allEntries[date]
		if !ok {
			continue
		}
		hits = append(hits, SearchHit{
			Date:    date,
			Snippet: r.direct.SnippetFor(content, keywords),
			Score:   float64(count),
			Source:  SourceEntity,
		})
	}
	return hits
}

func (r *Retriever) semanticHits(ctx context.Context, query string, allEntries map[Date]string, keywords []string, limit int) []SearchHit {
	matches := r.vectors.Query(ctx, query, limit)
	if len(matches) == 0 {
		return nil
	}

	hits := make([]SearchHit, 0, len(matches))
	for _, match := range matches {
		content, ok := allEntries[match.Date]
		if !ok {
			continue
		}
		hits = append(hits, SearchHit{
			Date:    match.Date,
			Snippet: r.direct.SnippetFor(content, keywords),
			Score:   match.Similarity * r.semanticScale,
			Source:  SourceSemantic,
		})
	}
	return hits
}

func (r *Retriever) lexicalHits(ctx context.Context, query string, limit int) []SearchHit {
	if r.lexical == nil {
		return nil
	}

	found, err := r.lexical.Find(ctx, query, limit)
	if err != nil {
		r.logger.Warn().Err(err).Msg("lexical search failed, strategy degraded")
		return nil
	}

	hits := make([]SearchHit, 0, len(found))
	for _, hit := range found {
		date, ok := DateFromTitle(hit.Title)
		if !ok {
			continue
		}
		hits = append(hits, SearchHit{
			Date:    date,
			Snippet: hit.Snippet,
			Score:   hit.Score,
			Source:  SourceLexical,
		})
	}
	return hits
}
