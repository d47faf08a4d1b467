package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/infradash/internal/client/storage"
)

func setupTestStorage(t *testing.T) *Storage {
	t.Helper()
	store, err := New(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

func TestStorage_PutGetDelete(t *testing.T) {
	ctx := context.Background()
	store := setupTestStorage(t)

	_, err := store.Get(ctx, storage.KeyUserSettings)
	assert.ErrorIs(t, err, storage.ErrKeyNotFound)

	require.NoError(t, store.Put(ctx, storage.KeyUserSettings, []byte(`{"theme":"dark"}`)))
	got, err := store.Get(ctx, storage.KeyUserSettings)
	require.NoError(t, err)
	assert.JSONEq(t, `{"theme":"dark"}`, string(got))

	// upsert
	require.NoError(t, store.Put(ctx, storage.KeyUserSettings, []byte(`{"theme":"light"}`)))
	got, err = store.Get(ctx, storage.KeyUserSettings)
	require.NoError(t, err)
	assert.JSONEq(t, `{"theme":"light"}`, string(got))

	require.NoError(t, store.Delete(ctx, storage.KeyUserSettings))
	_, err = store.Get(ctx, storage.KeyUserSettings)
	assert.ErrorIs(t, err, storage.ErrKeyNotFound)

	assert.NoError(t, store.Delete(ctx, "missing"))
}

func TestStorage_FileReopen(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "kv.db")

	store, err := New(ctx, dbPath)
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, storage.KeyAccessToken, []byte("a")))
	require.NoError(t, store.Close())

	// Повторное открытие: миграции идемпотентны, данные на месте
	store, err = New(ctx, dbPath)
	require.NoError(t, err)
	defer store.Close()

	got, err := store.Get(ctx, storage.KeyAccessToken)
	require.NoError(t, err)
	assert.Equal(t, "a", string(got))
}
