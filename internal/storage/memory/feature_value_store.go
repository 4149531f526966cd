// Package memory provides in-memory store implementations, used by the
// pipeline when no database is configured and by tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"crypto-feature-lab/internal/domain"
	"crypto-feature-lab/internal/storage"
)

// FeatureValueStore is an in-memory implementation of storage.FeatureValueStore.
type FeatureValueStore struct {
	mu   sync.RWMutex
	data map[string]*domain.FeatureValue // keyed by (name, date, feature)
}

// NewFeatureValueStore creates a new in-memory feature value store.
func NewFeatureValueStore() *FeatureValueStore {
	return &FeatureValueStore{
		data: make(map[string]*domain.FeatureValue),
	}
}

// featureValueKey generates a unique key for a feature observation.
func featureValueKey(name string, date time.Time, feature string) string {
	return fmt.Sprintf("%s|%d|%s", name, date.UnixMilli(), feature)
}

// InsertBulk adds multiple values. Fails entire batch on duplicate.
func (s *FeatureValueStore) InsertBulk(_ context.Context, values []*domain.FeatureValue) error {
	if len(values) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Track keys in this batch to detect intra-batch duplicates
	batchKeys := make(map[string]struct{}, len(values))

	// First pass: check for duplicates (existing + intra-batch)
	for _, v := range values {
		if v == nil || v.Name == "" || v.Feature == "" {
			return storage.ErrInvalidInput
		}
		key := featureValueKey(v.Name, v.Date, v.Feature)

		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	// Second pass: insert all
	for _, v := range values {
		key := featureValueKey(v.Name, v.Date, v.Feature)
		valueCopy := *v
		s.data[key] = &valueCopy
	}

	return nil
}

// GetByName retrieves all values for an asset, ordered by date then feature.
func (s *FeatureValueStore) GetByName(_ context.Context, name string) ([]*domain.FeatureValue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.FeatureValue
	for _, v := range s.data {
		if v.Name == name {
			valueCopy := *v
			result = append(result, &valueCopy)
		}
	}

	sortFeatureValues(result)
	return result, nil
}

// GetByTimeRange retrieves an asset's values within [start, end] (inclusive).
func (s *FeatureValueStore) GetByTimeRange(_ context.Context, name string, start, end time.Time) ([]*domain.FeatureValue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.FeatureValue
	for _, v := range s.data {
		if v.Name == name && !v.Date.Before(start) && !v.Date.After(end) {
			valueCopy := *v
			result = append(result, &valueCopy)
		}
	}

	sortFeatureValues(result)
	return result, nil
}

func sortFeatureValues(values []*domain.FeatureValue) {
	sort.Slice(values, func(i, j int) bool {
		if !values[i].Date.Equal(values[j].Date) {
			return values[i].Date.Before(values[j].Date)
		}
		return values[i].Feature < values[j].Feature
	})
}

var _ storage.FeatureValueStore = (*FeatureValueStore)(nil)
