package storage

import (
	"context"
)

// KVStorage defines the lowest persistence layer of the client.
// Values are opaque bytes; encryption and encoding happen in TokenStore.
// Each call is an independent write, there are no cross-key transactions.
type KVStorage interface {
	// Get returns the stored value or ErrKeyNotFound
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores value under key, overwriting an existing one
	Put(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the underlying resources
	Close() error
}

// Логические ключи хранилища
const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
	KeyLastActivity = "last_activity"
	KeyUserSettings = "user_settings"
)
