package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"crypto-feature-lab/internal/domain"
	"crypto-feature-lab/internal/storage"
)

// SplitMetadataStore implements storage.SplitMetadataStore using PostgreSQL.
type SplitMetadataStore struct {
	pool *Pool
}

// NewSplitMetadataStore creates a new SplitMetadataStore.
func NewSplitMetadataStore(pool *Pool) *SplitMetadataStore {
	return &SplitMetadataStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SplitMetadataStore = (*SplitMetadataStore)(nil)

// Insert adds split metadata. Returns ErrDuplicateKey if split_id exists.
func (s *SplitMetadataStore) Insert(ctx context.Context, m *domain.SplitMetadata) error {
	if m == nil || m.SplitID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO split_metadata (split_id, train_size, test_size, split_index, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.pool.Exec(ctx, query, m.SplitID, m.TrainSize, m.TestSize, m.SplitIndex, m.CreatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert split metadata: %w", err)
	}
	return nil
}

// GetLatest retrieves the most recently created metadata.
func (s *SplitMetadataStore) GetLatest(ctx context.Context) (*domain.SplitMetadata, error) {
	query := `
		SELECT split_id, train_size, test_size, split_index, created_at
		FROM split_metadata
		ORDER BY created_at DESC
		LIMIT 1
	`

	var m domain.SplitMetadata
	err := s.pool.QueryRow(ctx, query).Scan(&m.SplitID, &m.TrainSize, &m.TestSize, &m.SplitIndex, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("scan split metadata row: %w", err)
	}
	m.CreatedAt = m.CreatedAt.UTC()
	return &m, nil
}
