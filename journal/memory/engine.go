package memory

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/reminor/journal-engine/journal/config"
)

// Engine is the main entry point of the retrieval and temporal-context
// subsystem. It coordinates the stores, search strategies, resolver, and
// caches behind a unified interface.
type Engine struct {
	config *config.Config
	logger zerolog.Logger

	// Core components
	entries   EntryStore
	vectors   *FlatVectorIndex
	entities  *EntityIndex
	lexical   LexicalProvider
	retriever *Retriever
	resolver  *TemporalResolver
	assembler *ContextAssembler

	// Parallel date-keyed stores
	annotations AnnotationStore
	analysis    *AnalysisCache

	// Infrastructure
	metrics *MetricsCollector

	// Serializes rebuilds; searches run against whichever snapshot is
	// current.
	rebuildMu sync.Mutex

	db *sql.DB
}

// EngineConfig holds everything needed to construct an Engine. Embedder,
// Recognizer, and Lexical are optional capabilities; Now overrides the
// resolver clock for tests. Store overrides exist for the same reason.
type EngineConfig struct {
	Config *config.Config
	DB     *sql.DB
	Logger zerolog.Logger

	Embedder   Embedder
	Recognizer EntityRecognizer
	Lexical    LexicalProvider
	Now        func() time.Time

	// Optional overrides for testing
	EntryStore      EntryStore
	VectorStore     VectorStore
	AnnotationStore AnnotationStore
	AnalysisStore   AnalysisStore
}

// NewEngine creates a fully wired engine. It loads persisted vectors and
// builds the entity index, so construction touches every entry once.
func NewEngine(ctx context.Context, cfg EngineConfig) (*Engine, error) {
	if cfg.Config == nil {
		return nil, fmt.Errorf("engine config is required")
	}
	if cfg.DB == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	e := &Engine{
		config:  cfg.Config,
		logger:  cfg.Logger,
		metrics: NewMetricsCollector(),
		db:      cfg.DB,
	}

	if cfg.EntryStore != nil {
		e.entries = cfg.EntryStore
	} else {
		e.entries = NewEntryStoreImpl(cfg.DB)
	}

	vectorStore := cfg.VectorStore
	if vectorStore == nil {
		vectorStore = NewVectorStoreImpl(cfg.DB)
	}

	retrieval := cfg.Config.Retrieval
	e.vectors = NewFlatVectorIndex(cfg.Embedder, vectorStore, retrieval.SimilarityFloor, cfg.Logger)
	e.entities = NewEntityIndex(cfg.Recognizer, retrieval.MinTokenLen)

	e.lexical = cfg.Lexical
	if e.lexical == nil {
		e.lexical = NewLexicalProviderImpl(cfg.DB)
	}

	direct := NewDirectMatcher(
		retrieval.MonthBonus,
		retrieval.KeywordBase,
		retrieval.MinTokenLen,
		retrieval.SnippetBefore,
		retrieval.SnippetAfter,
	)

	e.retriever = NewRetriever(e.entries, e.vectors, e.entities, e.lexical, direct, retrieval.SemanticScale, cfg.Logger)
	e.resolver = NewTemporalResolver(cfg.Now)
	e.assembler = NewContextAssembler(e.entries, e.resolver, e.retriever)

	if cfg.AnnotationStore != nil {
		e.annotations = cfg.AnnotationStore
	} else {
		e.annotations = NewAnnotationStoreImpl(cfg.DB)
	}

	analysisStore := cfg.AnalysisStore
	if analysisStore == nil {
		analysisStore = NewAnalysisStoreImpl(cfg.DB)
	}
	e.analysis = NewAnalysisCache(analysisStore, cfg.Config.Cache.SchemaVersion)

	if err := e.vectors.Load(ctx); err != nil {
		return nil, err
	}

	entries, err := e.entries.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load entries: %w", err)
	}
	e.entities.Build(entries)
	e.metrics.UpdateIndexSizes(int64(e.vectors.Size()), int64(len(e.entities.Entities())))

	return e, nil
}

// SaveEntry creates or overwrites the entry for a date and refreshes the
// derived stores: the embedding is regenerated so it never goes stale, the
// lexical document is replaced, and the entity index is rebuilt.
func (e *Engine) SaveEntry(ctx context.Context, date Date, text string) error {
	start := time.Now()
	err := e.saveEntry(ctx, date, text)
	e.metrics.RecordSave(time.Since(start), err)
	return err
}

func (e *Engine) saveEntry(ctx context.Context, date Date, text string) error {
	if _, err := ParseDate(string(date)); err != nil {
		return fmt.Errorf("invalid entry date %q: %w", date, err)
	}

	if err := e.entries.Save(ctx, date, text); err != nil {
		return err
	}

	if err := e.vectors.Upsert(ctx, date, text); err != nil {
		// A stale or missing vector degrades one strategy; the entry
		// itself is saved.
		e.logger.Warn().Err(err).Str("date", string(date)).Msg("embedding refresh failed")
	}

	if err := e.lexical.Put(ctx, LexicalDocument{
		Title:   TitleForDate(date),
		Content: text,
	}); err != nil {
		e.logger.Warn().Err(err).Str("date", string(date)).Msg("lexical index refresh failed")
	}

	entries, err := e.entries.All(ctx)
	if err != nil {
		return fmt.Errorf("failed to reload entries after save: %w", err)
	}
	e.entities.Build(entries)
	return nil
}

// GetEntry returns the entry text for a date.
func (e *Engine) GetEntry(ctx context.Context, date Date) (string, bool, error) {
	return e.entries.Get(ctx, date)
}

// Search runs the hybrid retrieval pipeline for a free-text query.
func (e *Engine) Search(ctx context.Context, query string, limit int) ([]SearchHit, error) {
	start := time.Now()
	hits, err := e.retriever.Search(ctx, query, limit)
	e.metrics.RecordSearch(time.Since(start), err)
	return hits, err
}

// ResolveDates extracts the calendar dates a query names.
func (e *Engine) ResolveDates(query string) []Date {
	return e.resolver.Resolve(query)
}

// AssembleContext builds the context blob for a query: explicitly named
// dates verbatim, then up to the configured number of ranked snippets.
func (e *Engine) AssembleContext(ctx context.Context, query string) (string, error) {
	return e.assembler.Assemble(ctx, query, e.config.Retrieval.MaxSnippets)
}

// RecentContext formats the latest n entries newest-first.
func (e *Engine) RecentContext(ctx context.Context, n int) (string, error) {
	return e.assembler.RecentContext(ctx, n)
}

// SaveAnnotation stores the per-day analysis record for a date.
func (e *Engine) SaveAnnotation(ctx context.Context, rec AnnotationRecord) error {
	if rec.Version == "" {
		rec.Version = e.config.Cache.SchemaVersion
	}
	return e.annotations.Save(ctx, rec)
}

// LoadAnnotation returns the annotation record for a date, if present and
// decodable.
func (e *Engine) LoadAnnotation(ctx context.Context, date Date) (AnnotationRecord, bool, error) {
	return e.annotations.Load(ctx, date)
}

// AnnotationsForDates loads records for a list of dates. Dates with no
// decodable record map to an empty record, so the result always has one
// key per requested date.
func (e *Engine) AnnotationsForDates(ctx context.Context, dates []Date) (map[Date]AnnotationRecord, error) {
	out := make(map[Date]AnnotationRecord, len(dates))
	for _, date := range dates {
		rec, ok, err := e.annotations.Load(ctx, date)
		if err != nil {
			return nil, err
		}
		if !ok {
			rec = AnnotationRecord{Date: date, Emotions: map[string]float64{}}
		}
		out[date] = rec
	}
	return out, nil
}

// Analyze memoizes compute by content hash under the current schema
// version.
func (e *Engine) Analyze(
	ctx context.Context,
	text string,
	compute func(ctx context.Context, text string) (json.RawMessage, error),
) (json.RawMessage, error) {
	computed := false
	wrapped := func(ctx context.Context, text string) (json.RawMessage, error) {
		computed = true
		return compute(ctx, text)
	}

	result, err := e.analysis.GetOrCompute(ctx, text, wrapped)
	if err == nil {
		if computed {
			e.metrics.RecordCacheMiss()
		} else {
			e.metrics.RecordCacheHit()
		}
	}
	return result, err
}

// RebuildIndexes regenerates the derived stores from the entry store. With
// full unset only missing embeddings are computed. Rebuilds serialize;
// concurrent searches see the old snapshot or the new one, never a mix.
func (e *Engine) RebuildIndexes(ctx context.Context, full bool) error {
	e.rebuildMu.Lock()
	defer e.rebuildMu.Unlock()

	start := time.Now()

	entries, err := e.entries.All(ctx)
	if err != nil {
		return fmt.Errorf("failed to load entries for rebuild: %w", err)
	}

	if err := e.vectors.Rebuild(ctx, entries, e.config.Retrieval.RebuildWorkers, full); err != nil {
		return fmt.Errorf("vector rebuild failed: %w", err)
	}

	docs := make([]LexicalDocument, 0, len(entries))
	for date, text := range entries {
		docs = append(docs, LexicalDocument{Title: TitleForDate(date), Content: text})
	}
	if err := e.lexical.PutMany(ctx, docs); err != nil {
		e.logger.Warn().Err(err).Msg("lexical rebuild failed, strategy degraded")
	}

	e.entities.Build(entries)

	e.metrics.RecordRebuild(time.Since(start))
	e.metrics.UpdateIndexSizes(int64(e.vectors.Size()), int64(len(e.entities.Entities())))
	e.logger.Info().
		Int("entries", len(entries)).
		Int("vectors", e.vectors.Size()).
		Dur("elapsed", time.Since(start)).
		Msg("index rebuild complete")
	return nil
}

// Metrics returns a snapshot of engine metrics.
func (e *Engine) Metrics() MetricsSummary {
	return e.metrics.Summary()
}

// Close releases the underlying database connection.
func (e *Engine) Close() error {
	if e.db != nil {
		return e.db.Close()
	}
	return nil
}
