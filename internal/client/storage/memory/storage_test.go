package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/infradash/internal/client/storage"
)

func TestStorage(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, err := s.Get(ctx, "k")
	assert.ErrorIs(t, err, storage.ErrKeyNotFound)

	value := []byte("v")
	require.NoError(t, s.Put(ctx, "k", value))

	// Хранилище не разделяет память с вызывающим
	value[0] = 'x'
	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	require.NoError(t, s.Delete(ctx, "k"))
	_, err = s.Get(ctx, "k")
	assert.ErrorIs(t, err, storage.ErrKeyNotFound)

	require.NoError(t, s.Close())
	_, err = s.Get(ctx, "k")
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
	assert.ErrorIs(t, s.Put(ctx, "k", nil), storage.ErrStorageClosed)
	assert.ErrorIs(t, s.Delete(ctx, "k"), storage.ErrStorageClosed)
}
