package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"crypto-feature-lab/internal/domain"
	"crypto-feature-lab/internal/storage"
)

// FeatureValueStore implements storage.FeatureValueStore using ClickHouse.
type FeatureValueStore struct {
	conn *Conn
}

// NewFeatureValueStore creates a new FeatureValueStore.
func NewFeatureValueStore(conn *Conn) *FeatureValueStore {
	return &FeatureValueStore{conn: conn}
}

// Compile-time interface check.
var _ storage.FeatureValueStore = (*FeatureValueStore)(nil)

// InsertBulk adds multiple values in one batch. Fails the entire batch on
// an intra-batch duplicate key. MergeTree does not enforce uniqueness at
// insert time, so duplicates against existing rows are the caller's
// responsibility (each pipeline run writes a fresh panel).
func (s *FeatureValueStore) InsertBulk(ctx context.Context, values []*domain.FeatureValue) error {
	if len(values) == 0 {
		return nil
	}

	// Check for intra-batch duplicates
	type key struct {
		name    string
		dateMs  int64
		feature string
	}
	seen := make(map[key]struct{}, len(values))
	for _, v := range values {
		if v == nil || v.Name == "" || v.Feature == "" {
			return storage.ErrInvalidInput
		}
		k := key{v.Name, v.Date.UnixMilli(), v.Feature}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO feature_values (name, date, feature, value)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, v := range values {
		if err := batch.Append(v.Name, v.Date, v.Feature, v.Value); err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByName retrieves all values for an asset, ordered by date then feature.
func (s *FeatureValueStore) GetByName(ctx context.Context, name string) ([]*domain.FeatureValue, error) {
	query := `
		SELECT name, date, feature, value
		FROM feature_values
		WHERE name = ?
		ORDER BY date ASC, feature ASC
	`

	rows, err := s.conn.Query(ctx, query, name)
	if err != nil {
		return nil, fmt.Errorf("query by name: %w", err)
	}
	defer rows.Close()

	return scanFeatureValues(rows)
}

// GetByTimeRange retrieves an asset's values within [start, end] (inclusive).
func (s *FeatureValueStore) GetByTimeRange(ctx context.Context, name string, start, end time.Time) ([]*domain.FeatureValue, error) {
	query := `
		SELECT name, date, feature, value
		FROM feature_values
		WHERE name = ? AND date >= ? AND date <= ?
		ORDER BY date ASC, feature ASC
	`

	rows, err := s.conn.Query(ctx, query, name, start, end)
	if err != nil {
		return nil, fmt.Errorf("query by time range: %w", err)
	}
	defer rows.Close()

	return scanFeatureValues(rows)
}

// scanFeatureValues scans multiple rows.
func scanFeatureValues(rows driver.Rows) ([]*domain.FeatureValue, error) {
	var values []*domain.FeatureValue

	for rows.Next() {
		var v domain.FeatureValue
		if err := rows.Scan(&v.Name, &v.Date, &v.Feature, &v.Value); err != nil {
			return nil, fmt.Errorf("scan feature value row: %w", err)
		}
		v.Date = v.Date.UTC()
		values = append(values, &v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate feature value rows: %w", err)
	}

	return values, nil
}
