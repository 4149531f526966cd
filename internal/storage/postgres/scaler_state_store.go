package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"crypto-feature-lab/internal/domain"
	"crypto-feature-lab/internal/storage"
)

// ScalerStateStore implements storage.ScalerStateStore using PostgreSQL.
// Fitted parameters are stored as a JSONB document.
type ScalerStateStore struct {
	pool *Pool
}

// NewScalerStateStore creates a new ScalerStateStore.
func NewScalerStateStore(pool *Pool) *ScalerStateStore {
	return &ScalerStateStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ScalerStateStore = (*ScalerStateStore)(nil)

// Insert adds a new snapshot. Returns ErrDuplicateKey if state_id exists.
func (s *ScalerStateStore) Insert(ctx context.Context, snap *domain.ScalerSnapshot) error {
	if snap == nil || snap.StateID == "" || snap.State == nil {
		return storage.ErrInvalidInput
	}

	params, err := json.Marshal(snap.State)
	if err != nil {
		return fmt.Errorf("marshal scaler state: %w", err)
	}

	query := `
		INSERT INTO scaler_states (state_id, created_at, params)
		VALUES ($1, $2, $3)
	`
	_, err = s.pool.Exec(ctx, query, snap.StateID, snap.CreatedAt, params)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert scaler state: %w", err)
	}
	return nil
}

// GetByID retrieves a snapshot by its ID. Returns ErrNotFound if not exists.
func (s *ScalerStateStore) GetByID(ctx context.Context, stateID string) (*domain.ScalerSnapshot, error) {
	query := `
		SELECT state_id, created_at, params
		FROM scaler_states
		WHERE state_id = $1
	`
	return s.scanOne(s.pool.QueryRow(ctx, query, stateID))
}

// GetLatest retrieves the most recently created snapshot.
func (s *ScalerStateStore) GetLatest(ctx context.Context) (*domain.ScalerSnapshot, error) {
	query := `
		SELECT state_id, created_at, params
		FROM scaler_states
		ORDER BY created_at DESC
		LIMIT 1
	`
	return s.scanOne(s.pool.QueryRow(ctx, query))
}

// scanOne scans a single snapshot row.
func (s *ScalerStateStore) scanOne(row pgx.Row) (*domain.ScalerSnapshot, error) {
	var snap domain.ScalerSnapshot
	var params []byte

	err := row.Scan(&snap.StateID, &snap.CreatedAt, &params)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("scan scaler state row: %w", err)
	}

	var state domain.ScalerState
	if err := json.Unmarshal(params, &state); err != nil {
		return nil, fmt.Errorf("unmarshal scaler state: %w", err)
	}
	snap.State = &state
	snap.CreatedAt = snap.CreatedAt.UTC()
	return &snap, nil
}
