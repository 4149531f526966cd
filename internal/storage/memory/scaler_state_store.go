package memory

import (
	"context"
	"sync"

	"crypto-feature-lab/internal/domain"
	"crypto-feature-lab/internal/storage"
)

// ScalerStateStore is an in-memory implementation of storage.ScalerStateStore.
type ScalerStateStore struct {
	mu   sync.RWMutex
	data map[string]*domain.ScalerSnapshot
}

// NewScalerStateStore creates a new in-memory scaler state store.
func NewScalerStateStore() *ScalerStateStore {
	return &ScalerStateStore{
		data: make(map[string]*domain.ScalerSnapshot),
	}
}

// Insert adds a new snapshot. Returns ErrDuplicateKey if state_id exists.
func (s *ScalerStateStore) Insert(_ context.Context, snap *domain.ScalerSnapshot) error {
	if snap == nil || snap.StateID == "" || snap.State == nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[snap.StateID]; exists {
		return storage.ErrDuplicateKey
	}
	s.data[snap.StateID] = copySnapshot(snap)
	return nil
}

// GetByID retrieves a snapshot by its ID. Returns ErrNotFound if not exists.
func (s *ScalerStateStore) GetByID(_ context.Context, stateID string) (*domain.ScalerSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.data[stateID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return copySnapshot(snap), nil
}

// GetLatest retrieves the most recently created snapshot.
func (s *ScalerStateStore) GetLatest(_ context.Context) (*domain.ScalerSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *domain.ScalerSnapshot
	for _, snap := range s.data {
		if latest == nil || snap.CreatedAt.After(latest.CreatedAt) {
			latest = snap
		}
	}
	if latest == nil {
		return nil, storage.ErrNotFound
	}
	return copySnapshot(latest), nil
}

// copySnapshot deep-copies a snapshot so callers cannot mutate stored state.
func copySnapshot(snap *domain.ScalerSnapshot) *domain.ScalerSnapshot {
	state := &domain.ScalerState{
		Columns: append([]string(nil), snap.State.Columns...),
		Params:  make(map[string]domain.ScalerParams, len(snap.State.Params)),
	}
	for k, v := range snap.State.Params {
		state.Params[k] = v
	}
	return &domain.ScalerSnapshot{
		StateID:   snap.StateID,
		CreatedAt: snap.CreatedAt,
		State:     state,
	}
}

var _ storage.ScalerStateStore = (*ScalerStateStore)(nil)
