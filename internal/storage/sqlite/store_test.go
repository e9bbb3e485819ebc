package sqlite

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/bobmcallan/paperledger/internal/common"
	"github.com/bobmcallan/paperledger/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T) *SnapshotStore {
	t.Helper()
	store, err := NewSnapshotStore(common.NewSilentLogger(), filepath.Join(t.TempDir(), "nested", "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSnapshotStore_AppendAndList(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 2, 14, 30, 0, 0, time.UTC)

	// inserted out of order; List sorts by timestamp
	require.NoError(t, store.Append(ctx, "paper", models.Snapshot{Timestamp: base.Add(2 * time.Minute), Value: 99950}))
	require.NoError(t, store.Append(ctx, "paper", models.Snapshot{Timestamp: base, Value: 99500}))
	require.NoError(t, store.Append(ctx, "paper", models.Snapshot{Timestamp: base.Add(time.Minute), Value: 98900}))
	require.NoError(t, store.Append(ctx, "other", models.Snapshot{Timestamp: base, Value: 1}))

	got, err := store.List(ctx, "paper")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, 99500.0, got[0].Value)
	assert.Equal(t, 98900.0, got[1].Value)
	assert.Equal(t, 99950.0, got[2].Value)
	assert.True(t, got[0].Timestamp.Equal(base))
}

func TestSnapshotStore_ListEmpty(t *testing.T) {
	store := testStore(t)

	got, err := store.List(context.Background(), "nobody")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestSnapshotStore_ResetLeavesOneEntry(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Append(ctx, "paper", models.Snapshot{Timestamp: now.Add(time.Duration(i) * time.Second), Value: float64(i)}))
	}
	require.NoError(t, store.Append(ctx, "predictions", models.Snapshot{Timestamp: now, Value: 10000}))

	require.NoError(t, store.Reset(ctx, "paper", models.Snapshot{Timestamp: now, Value: 100000}))

	got, err := store.List(ctx, "paper")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 100000.0, got[0].Value)

	other, err := store.List(ctx, "predictions")
	require.NoError(t, err)
	assert.Len(t, other, 1, "reset must not touch other ledgers")
}

func TestSnapshotStore_ConcurrentAppends(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, store.Append(ctx, "paper", models.Snapshot{Timestamp: time.Now(), Value: float64(i)}))
		}(i)
	}
	wg.Wait()

	got, err := store.List(ctx, "paper")
	require.NoError(t, err)
	assert.Len(t, got, 20)
}

func TestSnapshotStore_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	ctx := context.Background()

	first, err := NewSnapshotStore(common.NewSilentLogger(), path)
	require.NoError(t, err)
	require.NoError(t, first.Append(ctx, "paper", models.Snapshot{Timestamp: time.Now(), Value: 42}))
	require.NoError(t, first.Close())

	second, err := NewSnapshotStore(common.NewSilentLogger(), path)
	require.NoError(t, err)
	defer second.Close()

	got, err := second.List(ctx, "paper")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 42.0, got[0].Value)
}
