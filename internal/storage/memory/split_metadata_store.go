package memory

import (
	"context"
	"sync"

	"crypto-feature-lab/internal/domain"
	"crypto-feature-lab/internal/storage"
)

// SplitMetadataStore is an in-memory implementation of storage.SplitMetadataStore.
type SplitMetadataStore struct {
	mu   sync.RWMutex
	data map[string]*domain.SplitMetadata
}

// NewSplitMetadataStore creates a new in-memory split metadata store.
func NewSplitMetadataStore() *SplitMetadataStore {
	return &SplitMetadataStore{
		data: make(map[string]*domain.SplitMetadata),
	}
}

// Insert adds split metadata. Returns ErrDuplicateKey if split_id exists.
func (s *SplitMetadataStore) Insert(_ context.Context, m *domain.SplitMetadata) error {
	if m == nil || m.SplitID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[m.SplitID]; exists {
		return storage.ErrDuplicateKey
	}
	metaCopy := *m
	s.data[m.SplitID] = &metaCopy
	return nil
}

// GetLatest retrieves the most recently created metadata.
func (s *SplitMetadataStore) GetLatest(_ context.Context) (*domain.SplitMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *domain.SplitMetadata
	for _, m := range s.data {
		if latest == nil || m.CreatedAt.After(latest.CreatedAt) {
			latest = m
		}
	}
	if latest == nil {
		return nil, storage.ErrNotFound
	}
	metaCopy := *latest
	return &metaCopy, nil
}

var _ storage.SplitMetadataStore = (*SplitMetadataStore)(nil)
