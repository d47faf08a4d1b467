package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/infradash/internal/client/storage"
)

func setupRedis(t *testing.T) (*Storage, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)

	store, err := New(context.Background(), "redis://"+mr.Addr()+"/0", "test:")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store, mr
}

func TestStorage_PutGetDelete(t *testing.T) {
	ctx := context.Background()
	store, mr := setupRedis(t)

	_, err := store.Get(ctx, storage.KeyRefreshToken)
	assert.ErrorIs(t, err, storage.ErrKeyNotFound)

	require.NoError(t, store.Put(ctx, storage.KeyRefreshToken, []byte("r-1")))

	// ключ хранится с префиксом
	raw, err := mr.Get("test:" + storage.KeyRefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "r-1", raw)

	got, err := store.Get(ctx, storage.KeyRefreshToken)
	require.NoError(t, err)
	assert.Equal(t, []byte("r-1"), got)

	require.NoError(t, store.Delete(ctx, storage.KeyRefreshToken))
	assert.False(t, mr.Exists("test:"+storage.KeyRefreshToken))

	assert.NoError(t, store.Delete(ctx, storage.KeyRefreshToken))
}

func TestNew_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := New(ctx, "not-a-url://", "")
	assert.Error(t, err)

	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err = New(ctx, "redis://"+addr, "")
	assert.ErrorContains(t, err, "failed to ping redis")
}

func TestNewWithClient_DefaultPrefix(t *testing.T) {
	s := NewWithClient(nil, "")
	assert.Equal(t, defaultPrefix+"k", s.key("k"))
}
