package boltdb

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"

	"github.com/iudanet/infradash/internal/client/storage"
)

func TestNew_Success(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "testdb.db")

	ctx := context.Background()
	store, err := New(ctx, dbPath)
	require.NoError(t, err)
	require.NotNil(t, store)
	defer func() {
		require.NoError(t, store.Close())
	}()

	// Проверяем что файл БД действительно создан
	info, err := os.Stat(dbPath)
	require.NoError(t, err)
	assert.False(t, info.IsDir())

	err = store.db.View(func(tx *bbolt.Tx) error {
		if tx.Bucket(bucketSession) == nil {
			return os.ErrNotExist
		}
		return nil
	})
	require.NoError(t, err)
}

func TestNew_InvalidPath(t *testing.T) {
	ctx := context.Background()
	// Каталога не существует
	invalidPath := filepath.Join(t.TempDir(), "missing", "dir", "db")
	store, err := New(ctx, invalidPath)
	assert.Error(t, err)
	assert.Nil(t, store)
}

func TestClose(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "testdb.db")

	ctx := context.Background()
	store, err := New(ctx, dbPath)
	require.NoError(t, err)

	require.NoError(t, store.Close())
	assert.Nil(t, store.db)

	// Второй вызов Close ничего не делает
	assert.NoError(t, store.Close())

	// После Close операции возвращают ошибку, а не panic
	_, err = store.Get(ctx, "access_token")
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
	assert.ErrorIs(t, store.Put(ctx, "access_token", []byte("token")), storage.ErrStorageClosed)
	assert.ErrorIs(t, store.Delete(ctx, "access_token"), storage.ErrStorageClosed)
}

func TestInitBuckets_CreatesBuckets(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "testdb.db")

	// Открываем БД вручную без создания бакетов
	db, err := bbolt.Open(dbPath, 0600, nil)
	require.NoError(t, err)
	defer db.Close()

	store := &Storage{db: db}

	err = store.initBuckets()
	assert.NoError(t, err)

	err = db.View(func(tx *bbolt.Tx) error {
		if tx.Bucket(bucketSession) == nil {
			return os.ErrNotExist
		}
		return nil
	})
	assert.NoError(t, err)
}
