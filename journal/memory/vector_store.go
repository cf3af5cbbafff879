package memory

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// VectorStoreImpl persists embedding vectors in the embedded database,
// separately from entry text.
type VectorStoreImpl struct {
	db *sql.DB
}

// NewVectorStoreImpl creates a new vector store.
func NewVectorStoreImpl(db *sql.DB) *VectorStoreImpl {
	return &VectorStoreImpl{db: db}
}

// Save durably upserts the vector for a date.
func (s *VectorStoreImpl) Save(ctx context.Context, date Date, vector []float64) error {
	blob, err := json.Marshal(vector)
	if err != nil {
		return fmt.Errorf("failed to encode vector: %w", err)
	}

	query := `
		INSERT INTO embeddings (date, vector, dims, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET vector = excluded.vector, dims = excluded.dims, updated_at = excluded.updated_at
	`
	if _, err := s.db.ExecContext(ctx, query, string(date), blob, len(vector), time.Now()); err != nil {
		return fmt.Errorf("failed to save vector for %s: %w", date, err)
	}
	return nil
}

// LoadAll returns every persisted vector keyed by date. Vectors that fail
// to decode are skipped; they will be regenerated on the next rebuild.
func (s *VectorStoreImpl) LoadAll(ctx context.Context) (map[Date][]float64, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT date, vector FROM embeddings")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch vectors: %w", err)
	}
	defer rows.Close()

	vectors := make(map[Date][]float64)
	for rows.Next() {
		var date string
		var blob []byte
		if err := rows.Scan(&date, &blob); err != nil {
			return nil, fmt.Errorf("failed to scan vector row: %w", err)
		}

		var vector []float64
		if err := json.Unmarshal(blob, &vector); err != nil {
			continue
		}
		vectors[Date(date)] = vector
	}
	return vectors, rows.Err()
}

// Delete removes the vector for a date.
func (s *VectorStoreImpl) Delete(ctx context.Context, date Date) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM embeddings WHERE date = ?", string(date)); err != nil {
		return fmt.Errorf("failed to delete vector for %s: %w", date, err)
	}
	return nil
}
