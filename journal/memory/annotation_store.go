package memory

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
)

// AnnotationStoreImpl persists per-day annotation records. The stored
// emotions payload has been observed wrapped in an extra layer of string
// quoting by earlier persistence layers, so loading runs a pipeline of
// decode strategies and only reports the record absent when all of them
// fail.
type AnnotationStoreImpl struct {
	db *sql.DB
}

// NewAnnotationStoreImpl creates an annotation store backed by db.
func NewAnnotationStoreImpl(db *sql.DB) *AnnotationStoreImpl {
	return &AnnotationStoreImpl{db: db}
}

// Save upserts the record for its date.
func (a *AnnotationStoreImpl) Save(ctx context.Context, rec AnnotationRecord) error {
	emotions, err := json.Marshal(rec.Emotions)
	if err != nil {
		return fmt.Errorf("failed to encode emotions for %s: %w", rec.Date, err)
	}

	var insights any
	if len(rec.Insights) > 0 {
		insights = string(rec.Insights)
	}

	_, err = a.db.ExecContext(ctx, `
		INSERT INTO annotations (date, version, emotions_json, insights_json, updated_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(date) DO UPDATE SET
			version = excluded.version,
			emotions_json = excluded.emotions_json,
			insights_json = excluded.insights_json,
			updated_at = CURRENT_TIMESTAMP
	`, string(rec.Date), rec.Version, string(emotions), insights)
	if err != nil {
		return fmt.Errorf("failed to save annotation for %s: %w", rec.Date, err)
	}
	return nil
}

// Load returns the record for a date, reporting absence rather than error
// both when no row exists and when the emotions payload cannot be decoded
// by any strategy.
func (a *AnnotationStoreImpl) Load(ctx context.Context, date Date) (AnnotationRecord, bool, error) {
	var (
		version  string
		emotions string
		insights sql.NullString
	)
	err := a.db.QueryRowContext(ctx,
		"SELECT version, emotions_json, insights_json FROM annotations WHERE date = ?",
		string(date),
	).Scan(&version, &emotions, &insights)
	if err == sql.ErrNoRows {
		return AnnotationRecord{}, false, nil
	}
	if err != nil {
		return AnnotationRecord{}, false, fmt.Errorf("failed to load annotation for %s: %w", date, err)
	}

	decoded, ok := decodeEmotions(emotions)
	if !ok {
		return AnnotationRecord{}, false, nil
	}

	rec := AnnotationRecord{Date: date, Version: version, Emotions: decoded}
	if insights.Valid && insights.String != "" {
		rec.Insights = json.RawMessage(insights.String)
	}
	return rec, true, nil
}

// emotionDecoders are tried in order; the first success wins. Strict decode
// first, then unwrap one layer of string quoting, then strip stray quotes
// and escapes.
var emotionDecoders = []func(string) (map[string]float64, error){
	decodeStrict,
	decodeUnwrapped,
	decodeSanitized,
}

func decodeEmotions(raw string) (map[string]float64, bool) {
	for _, decode := range emotionDecoders {
		if emotions, err := decode(raw); err == nil {
			return emotions, true
		}
	}
	return nil, false
}

func decodeStrict(raw string) (map[string]float64, error) {
	var emotions map[string]float64
	if err := json.Unmarshal([]byte(raw), &emotions); err != nil {
		return nil, err
	}
	return emotions, nil
}

// decodeUnwrapped handles the double-encoded case: the payload is a JSON
// string whose contents are themselves the JSON object.
func decodeUnwrapped(raw string) (map[string]float64, error) {
	var inner string
	if err := json.Unmarshal([]byte(raw), &inner); err != nil {
		return nil, err
	}
	return decodeStrict(inner)
}

func decodeSanitized(raw string) (map[string]float64, error) {
	clean := strings.Trim(raw, "\"")
	clean = strings.ReplaceAll(clean, "\\\"", "\"")
	return decodeStrict(clean)
}
