package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crypto-feature-lab/internal/domain"
	"crypto-feature-lab/internal/storage"
	"crypto-feature-lab/internal/storage/postgres"
)

func testSnapshot(id string, createdAt time.Time) *domain.ScalerSnapshot {
	return &domain.ScalerSnapshot{
		StateID:   id,
		CreatedAt: createdAt,
		State: &domain.ScalerState{
			Columns: []string{"LogReturn", "RSI_14"},
			Params: map[string]domain.ScalerParams{
				"LogReturn": {Mean: 0.001, Std: 0.042},
				"RSI_14":    {Mean: 51.3, Std: 12.8},
			},
		},
	}
}

func TestScalerStateStore_InsertAndGetByID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewScalerStateStore(pool)
	ctx := context.Background()

	snap := testSnapshot("state-001", time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	require.NoError(t, store.Insert(ctx, snap))

	got, err := store.GetByID(ctx, "state-001")
	require.NoError(t, err)

	assert.Equal(t, snap.StateID, got.StateID)
	assert.True(t, snap.CreatedAt.Equal(got.CreatedAt))
	assert.Equal(t, snap.State.Columns, got.State.Columns)
	assert.Equal(t, snap.State.Params, got.State.Params)
}

func TestScalerStateStore_InsertDuplicate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewScalerStateStore(pool)
	ctx := context.Background()

	snap := testSnapshot("state-dup", time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	require.NoError(t, store.Insert(ctx, snap))

	err := store.Insert(ctx, snap)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestScalerStateStore_GetByIDNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewScalerStateStore(pool)

	_, err := store.GetByID(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestScalerStateStore_GetLatest(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewScalerStateStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, testSnapshot("state-old", time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))))
	require.NoError(t, store.Insert(ctx, testSnapshot("state-new", time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC))))

	got, err := store.GetLatest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "state-new", got.StateID)
}

func TestScalerStateStore_GetLatestEmpty(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewScalerStateStore(pool)

	_, err := store.GetLatest(context.Background())
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestScalerStateStore_InvalidInput(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewScalerStateStore(pool)
	ctx := context.Background()

	assert.ErrorIs(t, store.Insert(ctx, nil), storage.ErrInvalidInput)
	assert.ErrorIs(t, store.Insert(ctx, &domain.ScalerSnapshot{StateID: "x"}), storage.ErrInvalidInput)
}
