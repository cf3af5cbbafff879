package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/stretchr/testify/mock"
)

// In-memory collaborator doubles shared across the package tests.

type memEntryStore struct {
	mu      sync.RWMutex
	entries map[Date]string
}

func newMemEntryStore() *memEntryStore {
	return &memEntryStore{entries: make(map[Date]string)}
}

func (s *memEntryStore) Save(_ context.Context, date Date, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[date] = text
	return nil
}

func (s *memEntryStore) Get(_ context.Context, date Date) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	text, ok := s.entries[date]
	return text, ok, nil
}

func (s *memEntryStore) All(_ context.Context) (map[Date]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[Date]string, len(s.entries))
	for date, text := range s.entries {
		out[date] = text
	}
	return out, nil
}

func (s *memEntryStore) Dates(_ context.Context) ([]Date, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	dates := make([]Date, 0, len(s.entries))
	for date := range s.entries {
		dates = append(dates, date)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i] > dates[j] })
	return dates, nil
}

type memVectorStore struct {
	mu      sync.Mutex
	vectors map[Date][]float64
}

func newMemVectorStore() *memVectorStore {
	return &memVectorStore{vectors: make(map[Date][]float64)}
}

func (s *memVectorStore) Save(_ context.Context, date Date, vector []float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vectors[date] = vector
	return nil
}

func (s *memVectorStore) LoadAll(_ context.Context) (map[Date][]float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[Date][]float64, len(s.vectors))
	for date, vector := range s.vectors {
		out[date] = vector
	}
	return out, nil
}

func (s *memVectorStore) Delete(_ context.Context, date Date) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.vectors, date)
	return nil
}

type memAnnotationStore struct {
	mu      sync.Mutex
	records map[Date]AnnotationRecord
}

func newMemAnnotationStore() *memAnnotationStore {
	return &memAnnotationStore{records: make(map[Date]AnnotationRecord)}
}

func (s *memAnnotationStore) Save(_ context.Context, rec AnnotationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.Date] = rec
	return nil
}

func (s *memAnnotationStore) Load(_ context.Context, date Date) (AnnotationRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[date]
	return rec, ok, nil
}

type memAnalysisStore struct {
	mu      sync.Mutex
	entries map[string]CacheEntry
}

func newMemAnalysisStore() *memAnalysisStore {
	return &memAnalysisStore{entries: make(map[string]CacheEntry)}
}

func (s *memAnalysisStore) Get(_ context.Context, hash string) (CacheEntry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[hash]
	return entry, ok, nil
}

func (s *memAnalysisStore) Put(_ context.Context, entry CacheEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.ContentHash] = entry
	return nil
}

// memLexical is a naive substring matcher standing in for the FTS backend.
type memLexical struct {
	mu   sync.Mutex
	docs map[string]LexicalDocument // title -> doc
}

func newMemLexical() *memLexical {
	return &memLexical{docs: make(map[string]LexicalDocument)}
}

func (l *memLexical) Put(_ context.Context, doc LexicalDocument) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.docs[doc.Title] = doc
	return nil
}

func (l *memLexical) PutMany(ctx context.Context, docs []LexicalDocument) error {
	for _, doc := range docs {
		if err := l.Put(ctx, doc); err != nil {
			return err
		}
	}
	return nil
}

func (l *memLexical) Find(_ context.Context, query string, k int) ([]LexicalHit, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var hits []LexicalHit
	for _, doc := range l.docs {
		if strings.Contains(strings.ToLower(doc.Content), strings.ToLower(query)) {
			hits = append(hits, LexicalHit{Title: doc.Title, Snippet: doc.Content, Score: 10})
		}
	}
	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

// stubEmbedder returns preconfigured vectors per exact text and a zero
// vector otherwise, so cosine similarity is fully controlled by the test.
type stubEmbedder struct {
	dims    int
	vectors map[string][]float64
}

func (e *stubEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	if vec, ok := e.vectors[text]; ok {
		return vec, nil
	}
	return make([]float64, e.dims), nil
}

func (e *stubEmbedder) Dimension() int { return e.dims }

// stubRecognizer returns a fixed entity list regardless of input.
type stubRecognizer struct {
	entities []string
}

func (r *stubRecognizer) Recognize(string) []string { return r.entities }

// MockLexical is a testify mock for failure-path tests.
type MockLexical struct {
	mock.Mock
}

func (m *MockLexical) Put(ctx context.Context, doc LexicalDocument) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *MockLexical) PutMany(ctx context.Context, docs []LexicalDocument) error {
	args := m.Called(ctx, docs)
	return args.Error(0)
}

func (m *MockLexical) Find(ctx context.Context, query string, k int) ([]LexicalHit, error) {
	args := m.Called(ctx, query, k)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]LexicalHit), args.Error(1)
}
