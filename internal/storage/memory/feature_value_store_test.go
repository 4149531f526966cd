package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"crypto-feature-lab/internal/domain"
	"crypto-feature-lab/internal/storage"
)

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func TestFeatureValueStore_InsertBulkAndGet(t *testing.T) {
	store := NewFeatureValueStore()
	ctx := context.Background()

	values := []*domain.FeatureValue{
		{Name: "AAA", Date: day(2), Feature: "LogReturn", Value: 0.1},
		{Name: "AAA", Date: day(1), Feature: "LogReturn", Value: 0.2},
		{Name: "AAA", Date: day(1), Feature: "EMA_10", Value: 1.5},
		{Name: "BBB", Date: day(1), Feature: "LogReturn", Value: -0.3},
	}

	if err := store.InsertBulk(ctx, values); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	result, err := store.GetByName(ctx, "AAA")
	if err != nil {
		t.Fatalf("GetByName failed: %v", err)
	}
	if len(result) != 3 {
		t.Fatalf("Expected 3 values for AAA, got %d", len(result))
	}

	// Ordered by date ASC, then feature ASC.
	if result[0].Feature != "EMA_10" || result[1].Feature != "LogReturn" {
		t.Errorf("Day 1 ordering wrong: %s, %s", result[0].Feature, result[1].Feature)
	}
	if !result[2].Date.Equal(day(2)) {
		t.Errorf("Expected day 2 last, got %v", result[2].Date)
	}
}

func TestFeatureValueStore_DuplicateKey(t *testing.T) {
	store := NewFeatureValueStore()
	ctx := context.Background()

	values := []*domain.FeatureValue{
		{Name: "AAA", Date: day(1), Feature: "LogReturn", Value: 0.1},
	}

	if err := store.InsertBulk(ctx, values); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}

	err := store.InsertBulk(ctx, values)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestFeatureValueStore_IntraBatchDuplicate(t *testing.T) {
	store := NewFeatureValueStore()
	ctx := context.Background()

	values := []*domain.FeatureValue{
		{Name: "AAA", Date: day(1), Feature: "LogReturn", Value: 0.1},
		{Name: "AAA", Date: day(1), Feature: "LogReturn", Value: 0.2}, // duplicate key
	}

	err := store.InsertBulk(ctx, values)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey for intra-batch duplicate, got %v", err)
	}

	result, _ := store.GetByName(ctx, "AAA")
	if len(result) != 0 {
		t.Errorf("Expected 0 values (batch rejected whole), got %d", len(result))
	}
}

func TestFeatureValueStore_InvalidInput(t *testing.T) {
	store := NewFeatureValueStore()
	ctx := context.Background()

	err := store.InsertBulk(ctx, []*domain.FeatureValue{
		{Name: "", Date: day(1), Feature: "LogReturn", Value: 0.1},
	})
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for empty name, got %v", err)
	}
}

func TestFeatureValueStore_GetByTimeRange(t *testing.T) {
	store := NewFeatureValueStore()
	ctx := context.Background()

	values := []*domain.FeatureValue{
		{Name: "AAA", Date: day(1), Feature: "LogReturn", Value: 0.1},
		{Name: "AAA", Date: day(2), Feature: "LogReturn", Value: 0.2},
		{Name: "AAA", Date: day(3), Feature: "LogReturn", Value: 0.3},
		{Name: "BBB", Date: day(2), Feature: "LogReturn", Value: 0.9},
	}

	if err := store.InsertBulk(ctx, values); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	// Range is inclusive on both ends and entity-scoped.
	result, err := store.GetByTimeRange(ctx, "AAA", day(2), day(3))
	if err != nil {
		t.Fatalf("GetByTimeRange failed: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("Expected 2 values, got %d", len(result))
	}
	if result[0].Value != 0.2 || result[1].Value != 0.3 {
		t.Errorf("Expected values 0.2, 0.3, got %v, %v", result[0].Value, result[1].Value)
	}
}

func TestFeatureValueStore_CopySemantics(t *testing.T) {
	store := NewFeatureValueStore()
	ctx := context.Background()

	v := &domain.FeatureValue{Name: "AAA", Date: day(1), Feature: "LogReturn", Value: 0.1}
	if err := store.InsertBulk(ctx, []*domain.FeatureValue{v}); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	// Mutating the inserted value must not affect the stored copy.
	v.Value = 99

	result, _ := store.GetByName(ctx, "AAA")
	if result[0].Value != 0.1 {
		t.Errorf("Stored value mutated: got %v, want 0.1", result[0].Value)
	}
}
