package storage_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vitos/coinfolio/internal/infrastructure/storage"
)

func newTestStore(t *testing.T) *storage.SQLiteStore {
	t.Helper()
	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "kv.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_ReadYourWrites(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "cacheLimit", "1500"))

	value, ok, err := store.Get(ctx, "cacheLimit")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "1500", value)
}

func TestSQLiteStore_MissingKey(t *testing.T) {
	store := newTestStore(t)

	_, ok, err := store.Get(context.Background(), "never-written")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestSQLiteStore_SetOverwrites(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "preferredCurrency", "USD"))
	require.NoError(t, store.Set(ctx, "preferredCurrency", "EUR"))

	value, ok, err := store.Get(ctx, "preferredCurrency")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "EUR", value)
}

func TestSQLiteStore_Delete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "assetsLastFetched", "1700000000000"))
	require.NoError(t, store.Delete(ctx, "assetsLastFetched"))

	_, ok, err := store.Get(ctx, "assetsLastFetched")
	require.NoError(t, err)
	require.False(t, ok)

	// Deleting an absent key is not an error.
	require.NoError(t, store.Delete(ctx, "assetsLastFetched"))
}
