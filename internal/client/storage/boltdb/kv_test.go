package boltdb

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"

	"github.com/iudanet/infradash/internal/client/storage"
)

// создаём тестовое BoltDB хранилище
func createTestStorage(t *testing.T) *Storage {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "kv_test.db")

	store, err := New(context.Background(), dbPath)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, store.Close())
	})
	return store
}

func TestStorage_PutGetDelete(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)

	// До сохранения ключа нет
	_, err := store.Get(ctx, storage.KeyAccessToken)
	assert.ErrorIs(t, err, storage.ErrKeyNotFound)

	require.NoError(t, store.Put(ctx, storage.KeyAccessToken, []byte("access-1")))

	got, err := store.Get(ctx, storage.KeyAccessToken)
	require.NoError(t, err)
	assert.Equal(t, []byte("access-1"), got)

	// Перезапись
	require.NoError(t, store.Put(ctx, storage.KeyAccessToken, []byte("access-2")))
	got, err = store.Get(ctx, storage.KeyAccessToken)
	require.NoError(t, err)
	assert.Equal(t, []byte("access-2"), got)

	require.NoError(t, store.Delete(ctx, storage.KeyAccessToken))
	_, err = store.Get(ctx, storage.KeyAccessToken)
	assert.ErrorIs(t, err, storage.ErrKeyNotFound)

	// Удаление отсутствующего ключа не ошибка
	assert.NoError(t, store.Delete(ctx, storage.KeyAccessToken))
}

func TestStorage_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "reopen.db")

	store, err := New(ctx, dbPath)
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, storage.KeyRefreshToken, []byte("refresh")))
	require.NoError(t, store.Close())

	store, err = New(ctx, dbPath)
	require.NoError(t, err)
	defer store.Close()

	got, err := store.Get(ctx, storage.KeyRefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "refresh", string(got))
}

func TestStorage_BucketMissing(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)

	// Удаляем bucket напрямую
	err := store.db.Update(func(tx *bbolt.Tx) error {
		return tx.DeleteBucket(bucketSession)
	})
	require.NoError(t, err)

	_, err = store.Get(ctx, "k")
	assert.ErrorContains(t, err, "session bucket not found")

	err = store.Put(ctx, "k", []byte("v"))
	assert.ErrorContains(t, err, "session bucket not found")

	err = store.Delete(ctx, "k")
	assert.ErrorContains(t, err, "session bucket not found")
}
