package storage

import (
	"context"
	"time"

	"crypto-feature-lab/internal/domain"
)

// FeatureValueStore provides access to processed feature observations in
// long form (one row per asset, date, feature).
type FeatureValueStore interface {
	// InsertBulk adds multiple values. Fails the entire batch on a
	// duplicate (name, date, feature) key.
	InsertBulk(ctx context.Context, values []*domain.FeatureValue) error

	// GetByName retrieves all values for an asset, ordered by date ASC,
	// then feature name ASC.
	GetByName(ctx context.Context, name string) ([]*domain.FeatureValue, error)

	// GetByTimeRange retrieves an asset's values within [start, end] (inclusive).
	GetByTimeRange(ctx context.Context, name string, start, end time.Time) ([]*domain.FeatureValue, error)
}

// ScalerStateStore provides access to persisted scaler snapshots.
type ScalerStateStore interface {
	// Insert adds a new snapshot. Returns ErrDuplicateKey if state_id exists.
	Insert(ctx context.Context, s *domain.ScalerSnapshot) error

	// GetByID retrieves a snapshot by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, stateID string) (*domain.ScalerSnapshot, error)

	// GetLatest retrieves the most recently created snapshot.
	// Returns ErrNotFound when the store is empty.
	GetLatest(ctx context.Context) (*domain.ScalerSnapshot, error)
}

// SplitMetadataStore provides access to persisted train/test partitions.
type SplitMetadataStore interface {
	// Insert adds split metadata. Returns ErrDuplicateKey if split_id exists.
	Insert(ctx context.Context, m *domain.SplitMetadata) error

	// GetLatest retrieves the most recently created metadata.
	// Returns ErrNotFound when the store is empty.
	GetLatest(ctx context.Context) (*domain.SplitMetadata, error)
}
