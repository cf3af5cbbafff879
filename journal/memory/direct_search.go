package memory

import (
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode/utf8"
)

// DirectMatcher is the guaranteed-available fallback strategy: stopword
// filtered keyword extraction plus brute-force substring scoring over every
// entry. It depends on nothing external and never errors, even on a single
// three-letter query.
type DirectMatcher struct {
	monthBonus    float64
	keywordBase   float64
	minTokenLen   int
	snippetBefore int
	snippetAfter  int
}

// NewDirectMatcher creates a direct-text matcher with the given tuning.
func NewDirectMatcher(monthBonus, keywordBase float64, minTokenLen, snippetBefore, snippetAfter int) *DirectMatcher {
	return &DirectMatcher{
		monthBonus:    monthBonus,
		keywordBase:   keywordBase,
		minTokenLen:   minTokenLen,
		snippetBefore: snippetBefore,
		snippetAfter:  snippetAfter,
	}
}

var wordPattern = regexp.MustCompile(`[a-zA-ZàèéìíòóùúÀÈÉÌÒÙ]+`)

// Keywords extracts the significant lowercase tokens of a query: stripped
// of punctuation, minus stopwords and tokens shorter than the minimum.
func (m *DirectMatcher) Keywords(query string) []string {
	var keywords []string
	for _, token := range wordPattern.FindAllString(strings.ToLower(query), -1) {
		if utf8.RuneCountInString(token) < m.minTokenLen || isStopword(token) {
			continue
		}
		keywords = append(keywords, token)
	}
	return keywords
}

// queryMonth reports the first month named by the query, if any.
func queryMonth(query string) (time.Month, bool) {
	for _, token := range wordPattern.FindAllString(strings.ToLower(query), -1) {
		if month, ok := monthNames[token]; ok {
			return month, true
		}
	}
	return 0, false
}

// Search scores every entry against the query keywords. Longer, rarer
// tokens weigh more than short common ones: each occurrence contributes
// base + token length. A query naming a month boosts entries whose date
// falls in that month.
func (m *DirectMatcher) Search(query string, entries map[Date]string, limit int) []SearchHit {
	keywords := m.Keywords(query)
	month, hasMonth := queryMonth(query)

	var hits []SearchHit
	for date, content := range entries {
		contentLower := strings.ToLower(content)

		var score float64
		matched := false

		if hasMonth && date.Month() == month {
			score += m.monthBonus
			matched = true
		}

		// Track the first occurrence of the highest-scoring keyword for
		// snippet centering.
		bestIdx := 0
		bestWordScore := 0.0
		for _, keyword := range keywords {
			count := strings.Count(contentLower, keyword)
			if count == 0 {
				continue
			}
			wordScore := float64(count) * (m.keywordBase + float64(utf8.RuneCountInString(keyword)))
			score += wordScore
			matched = true
			if wordScore > bestWordScore {
				bestWordScore = wordScore
				bestIdx = strings.Index(contentLower, keyword)
			}
		}

		if !matched {
			continue
		}

		hits = append(hits, SearchHit{
			Date:    date,
			Snippet: snippetAround(content, bestIdx, m.snippetBefore, m.snippetAfter),
			Score:   score,
			Source:  SourceDirect,
		})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})
	if limit >= 0 && limit < len(hits) {
		hits = hits[:limit]
	}
	return hits
}

// SnippetFor extracts a snippet of content centered on the first keyword
// that occurs in it, falling back to the start of the text.
func (m *DirectMatcher) SnippetFor(content string, keywords []string) string {
	contentLower := strings.ToLower(content)
	idx := 0
	for _, keyword := range keywords {
		if i := strings.Index(contentLower, keyword); i >= 0 {
			idx = i
			break
		}
	}
	return snippetAround(content, idx, m.snippetBefore, m.snippetAfter)
}

// snippetAround extracts a window of text centered on idx, with ellipsis
// markers when truncated.
func snippetAround(content string, idx, before, after int) string {
	start := idx - before
	if start < 0 {
		start = 0
	}
	end := idx + after
	if end > len(content) {
		end = len(content)
	}
	for start > 0 && !utf8.RuneStart(content[start]) {
		start--
	}
	for end < len(content) && !utf8.RuneStart(content[end]) {
		end++
	}

	snippet := content[start:end]
	if start > 0 {
		snippet = "..." + snippet
	}
	if end < len(content) {
		snippet = snippet + "..."
	}
	return snippet
}
