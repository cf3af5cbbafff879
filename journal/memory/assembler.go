package memory

import (
	"context"
	"fmt"
	"strings"
)

const relatedEntriesHeading = "=== Related entries ==="

// ContextAssembler produces the single text blob handed to a downstream
// consumer: entries for explicitly named dates verbatim, then ranked
// snippets. Explicit dates come first because a named date is a stronger
// intent signal than any similarity score.
type ContextAssembler struct {
	entries   EntryStore
	resolver  *TemporalResolver
	retriever *Retriever
}

// NewContextAssembler wires the assembler's collaborators.
func NewContextAssembler(entries EntryStore, resolver *TemporalResolver, retriever *Retriever) *ContextAssembler {
	return &ContextAssembler{entries: entries, resolver: resolver, retriever: retriever}
}

// Assemble resolves explicit dates in the query, includes their entries in
// full, then appends up to maxSnippets fused search results. When both
// kinds are present the similarity block gets its own heading so the two
// evidence classes stay visually separable. No matches yields an empty
// string, not an error.
func (a *ContextAssembler) Assemble(ctx context.Context, query string, maxSnippets int) (string, error) {
	var parts []string

	for _, date := range a.resolver.Resolve(query) {
		text, ok, err := a.entries.Get(ctx, date)
		if err != nil {
			return "", fmt.Errorf("failed to load entry for %s: %w", date, err)
		}
		if ok {
			parts = append(parts, fmt.Sprintf("=== %s ===\n%s\n", date, text))
		}
	}

	hits, err := a.retriever.Search(ctx, query, maxSnippets)
	if err != nil {
		return "", err
	}
	if len(hits) > 0 {
		block := formatHits(hits)
		if len(parts) > 0 {
			block = relatedEntriesHeading + "\n" + block
		}
		parts = append(parts, block)
	}

	return strings.Join(parts, "\n"), nil
}

// RecentContext formats the latest n entries newest-first, for when the
// consumer wants a timeline rather than an answer to a question.
func (a *ContextAssembler) RecentContext(ctx context.Context, n int) (string, error) {
	dates, err := a.entries.Dates(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to list entry dates: %w", err)
	}
	if n >= 0 && n < len(dates) {
		dates = dates[:n]
	}

	var parts []string
	for _, date := range dates {
		text, ok, err := a.entries.Get(ctx, date)
		if err != nil {
			return "", fmt.Errorf("failed to load entry for %s: %w", date, err)
		}
		if ok {
			parts = append(parts, fmt.Sprintf("[%s]\n%s", date, text))
		}
	}
	return strings.Join(parts, "\n\n---\n\n"), nil
}

func formatHits(hits []SearchHit) string {
	parts := make([]string, len(hits))
	for i, hit := range hits {
		parts[i] = fmt.Sprintf("[%s] (relevance: %.1f)\n%s", hit.Date, hit.Score, hit.Snippet)
	}
	return strings.Join(parts, "\n\n---\n\n")
}
