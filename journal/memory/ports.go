// Package memory implements the retrieval and temporal-context engine of
// the journal: entry storage, the four search strategies and their fusion,
// natural-language date resolution, per-day annotations, and memoization of
// external analyses.
package memory

import (
	"context"
	"encoding/json"
	"time"
)

// Embedder maps text to a fixed-length dense vector. It is an optional
// capability: a nil Embedder makes the vector index contribute nothing.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
	Dimension() int
}

// EntityRecognizer extracts named entities of person/place/organization
// classes from text. Optional; the entity index builds without one using
// its capitalized-token and fixed-vocabulary passes.
type EntityRecognizer interface {
	Recognize(text string) []string
}

// LexicalDocument is the unit inserted into the lexical provider at build
// or rebuild time. Title encodes the entry date.
type LexicalDocument struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// LexicalHit is a term-ranked hit returned by the lexical provider.
type LexicalHit struct {
	Title   string  `json:"title"`
	Snippet string  `json:"snippet"`
	Score   float64 `json:"score"`
}

// LexicalProvider is the external term-ranking collaborator. Absent or
// failing providers degrade searches to the remaining strategies.
type LexicalProvider interface {
	Put(ctx context.Context, doc LexicalDocument) error
	PutMany(ctx context.Context, docs []LexicalDocument) error
	Find(ctx context.Context, query string, k int) ([]LexicalHit, error)
}

// EntryStore is the source of truth for journal text. All other stores are
// date-keyed derived caches that tolerate being empty, stale, or rebuilt
// from entries at any time.
type EntryStore interface {
	Save(ctx context.Context, date Date, text string) error
	Get(ctx context.Context, date Date) (string, bool, error)
	All(ctx context.Context) (map[Date]string, error)
	Dates(ctx context.Context) ([]Date, error)
}

// VectorStore persists per-date embedding vectors separately from entries.
type VectorStore interface {
	Save(ctx context.Context, date Date, vector []float64) error
	LoadAll(ctx context.Context) (map[Date][]float64, error)
	Delete(ctx context.Context, date Date) error
}

// AnnotationStore persists per-day structured records (emotion scores plus
// derived insights), versioned and defensively decoded.
type AnnotationStore interface {
	Save(ctx context.Context, rec AnnotationRecord) error
	Load(ctx context.Context, date Date) (AnnotationRecord, bool, error)
}

// AnalysisStore persists content-hash-keyed analysis results.
type AnalysisStore interface {
	Get(ctx context.Context, hash string) (CacheEntry, bool, error)
	Put(ctx context.Context, entry CacheEntry) error
}

// Supporting types

// Date is a calendar day in ISO form, "2006-01-02". One entry per date.
type Date string

const dateLayout = "2006-01-02"

// ParseDate validates s as an ISO calendar date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return "", err
	}
	return DateOf(t), nil
}

// DateOf truncates t to its calendar day.
func DateOf(t time.Time) Date {
	return Date(t.Format(dateLayout))
}

// Time returns the midnight instant of the date, or the zero time when the
// date is malformed.
func (d Date) Time() time.Time {
	t, err := time.Parse(dateLayout, string(d))
	if err != nil {
		return time.Time{}
	}
	return t
}

// Month returns the month component, 0 when malformed.
func (d Date) Month() time.Month {
	return d.Time().Month()
}

// Source identifies the strategy that produced a search hit.
type Source string

const (
	SourceEntity   Source = "entity"
	SourceSemantic Source = "semantic"
	SourceLexical  Source = "lexical"
	SourceDirect   Source = "direct"
)

// SearchHit is an ephemeral, per-query result. Never persisted.
type SearchHit struct {
	Date    Date    `json:"date"`
	Snippet string  `json:"snippet"`
	Score   float64 `json:"score"`
	Source  Source  `json:"source"`
}

// AnnotationRecord is the per-day structured annotation. Its lifecycle is
// independent from the entry: an entry may exist with no record yet.
type AnnotationRecord struct {
	Date     Date               `json:"date"`
	Version  string             `json:"version"`
	Emotions map[string]float64 `json:"emotions"`
	Insights json.RawMessage    `json:"insights,omitempty"`
}

// CacheEntry is a memoized analysis result. It is treated as absent when
// its schema version does not match the engine's current version.
type CacheEntry struct {
	ContentHash   string          `json:"content_hash"`
	SchemaVersion string          `json:"schema_version"`
	Result        json.RawMessage `json:"result"`
}
