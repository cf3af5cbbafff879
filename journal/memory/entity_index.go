package memory

import (
	"regexp"
	"strings"
	"sync/atomic"
	"unicode/utf8"
)

// domainVocabulary is the small fixed set of common nouns worth indexing as
// entities even though they are not proper nouns: recurring topics a diary
// keeps coming back to.
var domainVocabulary = []string{
	// Italian
	"pizza", "mare", "moto", "cena", "pranzo", "lavoro", "casa", "sardegna",
	// English
	"lunch", "dinner", "beach", "lake", "work", "home",
}

// EntityIndex is a date-keyed inverted index of proper nouns and named
// entities. An exact name match is a stronger retrieval signal than
// approximate text similarity, so callers consult this index first and fall
// through to the other strategies only when it is empty for the query.
//
// The index is immutable between rebuilds: Build constructs a fresh map and
// swaps it in atomically, so a concurrent lookup sees one build wholly.
type EntityIndex struct {
	recognizer  EntityRecognizer
	minTokenLen int

	snapshot atomic.Pointer[entitySnapshot]
}

type entitySnapshot struct {
	// entity (case-normalized) -> date -> occurrence count. Sparse: an
	// entity with no mentions is absent.
	index map[string]map[Date]int
}

// NewEntityIndex creates an entity index. recognizer may be nil; the
// capitalized-token and fixed-vocabulary passes still run without it.
func NewEntityIndex(recognizer EntityRecognizer, minTokenLen int) *EntityIndex {
	idx := &EntityIndex{recognizer: recognizer, minTokenLen: minTokenLen}
	idx.snapshot.Store(&entitySnapshot{index: make(map[string]map[Date]int)})
	return idx
}

var properNounPattern = regexp.MustCompile(`[A-ZÀÈÉÌÒÙ][a-zàèéìíòóùú]{2,}`)

// Build scans every entry once and swaps in the resulting index.
func (e *EntityIndex) Build(entries map[Date]string) {
	index := make(map[string]map[Date]int)

	for date, content := range entries {
		contentLower := strings.ToLower(content)
		entities := make(map[string]struct{})

		// Provider-recognized named entities.
		if e.recognizer != nil {
			for _, name := range e.recognizer.Recognize(content) {
				entities[strings.ToLower(name)] = struct{}{}
			}
		}

		// Capitalized tokens that are not function words or month names.
		for _, token := range properNounPattern.FindAllString(content, -1) {
			lower := strings.ToLower(token)
			if isStopword(lower) || isMonthName(lower) {
				continue
			}
			entities[lower] = struct{}{}
		}

		// Domain-relevant common nouns.
		for _, word := range domainVocabulary {
			if strings.Contains(contentLower, word) {
				entities[word] = struct{}{}
			}
		}

		for entity := range entities {
			count := strings.Count(contentLower, entity)
			if count == 0 {
				count = 1
			}
			dates, ok := index[entity]
			if !ok {
				dates = make(map[Date]int)
				index[entity] = dates
			}
			dates[date] += count
		}
	}

	e.snapshot.Store(&entitySnapshot{index: index})
}

// Lookup sums occurrence counts per date for every query token present in
// the index. Tokens shorter than the minimum are skipped.
func (e *EntityIndex) Lookup(tokens []string) map[Date]int {
	snap := e.snapshot.Load()

	matches := make(map[Date]int)
	for _, token := range tokens {
		clean := strings.ToLower(strings.Trim(token, ".,!?():;\"'"))
		if utf8.RuneCountInString(clean) < e.minTokenLen {
			continue
		}
		for date, count := range snap.index[clean] {
			matches[date] += count
		}
	}
	return matches
}

// Entities lists the indexed entity tokens, for diagnostics.
func (e *EntityIndex) Entities() []string {
	snap := e.snapshot.Load()
	entities := make([]string, 0, len(snap.index))
	for entity := range snap.index {
		entities = append(entities, entity)
	}
	return entities
}
