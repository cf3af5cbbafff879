package memory

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// LexicalProviderImpl implements LexicalProvider using SQLite FTS5, the
// term-ranking backend the engine ships with.
type LexicalProviderImpl struct {
	db *sql.DB
}

// NewLexicalProviderImpl creates a new FTS5-based lexical provider.
func NewLexicalProviderImpl(db *sql.DB) *LexicalProviderImpl {
	return &LexicalProviderImpl{db: db}
}

var titleDatePattern = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)

// TitleForDate encodes a date into the document title used by the lexical
// index.
func TitleForDate(date Date) string {
	return "Journal " + string(date)
}

// DateFromTitle recovers the date encoded in a document title.
func DateFromTitle(title string) (Date, bool) {
	m := titleDatePattern.FindString(title)
	if m == "" {
		return "", false
	}
	return Date(m), true
}

// Put inserts or replaces the document with the same title, so re-saving a
// date leaves a single indexed copy.
func (l *LexicalProviderImpl) Put(ctx context.Context, doc LexicalDocument) error {
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}

	if _, err := l.db.ExecContext(ctx, "DELETE FROM entries_fts WHERE title = ?", doc.Title); err != nil {
		return fmt.Errorf("failed to drop stale lexical document: %w", err)
	}
	if _, err := l.db.ExecContext(ctx,
		"INSERT INTO entries_fts (doc_id, title, content) VALUES (?, ?, ?)",
		doc.ID, doc.Title, doc.Content,
	); err != nil {
		return fmt.Errorf("failed to insert lexical document: %w", err)
	}
	return nil
}

// PutMany inserts a batch of documents.
func (l *LexicalProviderImpl) PutMany(ctx context.Context, docs []LexicalDocument) error {
	for _, doc := range docs {
		if err := l.Put(ctx, doc); err != nil {
			return err
		}
	}
	return nil
}

// Find performs BM25 search and returns up to k hits, best first.
func (l *LexicalProviderImpl) Find(ctx context.Context, query string, k int) ([]LexicalHit, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query cannot be empty")
	}

	sqlQuery := `
		SELECT
			title,
			snippet(entries_fts, 2, '', '', '...', 24),
			bm25(entries_fts)
		FROM entries_fts
		WHERE entries_fts MATCH ?
		ORDER BY bm25(entries_fts)
		LIMIT ?
	`

	rows, err := l.db.QueryContext(ctx, sqlQuery, escapeFTSQuery(query), k)
	if err != nil {
		return nil, fmt.Errorf("FTS5 search query failed: %w", err)
	}
	defer rows.Close()

	var hits []LexicalHit
	for rows.Next() {
		var hit LexicalHit
		var rank float64
		if err := rows.Scan(&hit.Title, &hit.Snippet, &rank); err != nil {
			return nil, fmt.Errorf("failed to scan FTS5 result: %w", err)
		}
		// bm25() ranks best-first with the most negative value.
		hit.Score = -rank
		hits = append(hits, hit)
	}
	return hits, rows.Err()
}

// escapeFTSQuery escapes special FTS5 query characters.
// FTS5 special characters: " ( ) : * - AND OR NOT NEAR
func escapeFTSQuery(query string) string {
	query = strings.ReplaceAll(query, "\"", "\"\"")
	query = strings.TrimSpace(query)

	if strings.Contains(query, " ") {
		return fmt.Sprintf("\"%s\"", query)
	}
	return query
}
