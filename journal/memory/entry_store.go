package memory

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// EntryStoreImpl implements EntryStore on the embedded database.
type EntryStoreImpl struct {
	db *sql.DB
}

// NewEntryStoreImpl creates a new entry store.
func NewEntryStoreImpl(db *sql.DB) *EntryStoreImpl {
	return &EntryStoreImpl{db: db}
}

// Save creates or overwrites the entry for a date. Entries are never
// implicitly deleted.
func (s *EntryStoreImpl) Save(ctx context.Context, date Date, text string) error {
	query := `
		INSERT INTO entries (date, text, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET text = excluded.text, updated_at = excluded.updated_at
	`
	if _, err := s.db.ExecContext(ctx, query, string(date), text, time.Now()); err != nil {
		return fmt.Errorf("failed to save entry for %s: %w", date, err)
	}
	return nil
}

// Get returns the entry text for a date, reporting whether it exists.
func (s *EntryStoreImpl) Get(ctx context.Context, date Date) (string, bool, error) {
	var text string
	err := s.db.QueryRowContext(ctx, "SELECT text FROM entries WHERE date = ?", string(date)).Scan(&text)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to load entry for %s: %w", date, err)
	}
	return text, true, nil
}

// All returns every entry keyed by date.
func (s *EntryStoreImpl) All(ctx context.Context) (map[Date]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT date, text FROM entries")
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	defer rows.Close()

	entries := make(map[Date]string)
	for rows.Next() {
		var date, text string
		if err := rows.Scan(&date, &text); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entries[Date(date)] = text
	}
	return entries, rows.Err()
}

// Dates returns all entry dates, newest first.
func (s *EntryStoreImpl) Dates(ctx context.Context) ([]Date, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT date FROM entries ORDER BY date DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to list entry dates: %w", err)
	}
	defer rows.Close()

	var dates []Date
	for rows.Next() {
		var date string
		if err := rows.Scan(&date); err != nil {
			return nil, fmt.Errorf("failed to scan date: %w", err)
		}
		dates = append(dates, Date(date))
	}
	return dates, rows.Err()
}
