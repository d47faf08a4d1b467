// Package redis stores the client session in Redis, so several client
// processes on different hosts can share one login.
package redis

import (
	"context"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/iudanet/infradash/internal/client/storage"
)

const defaultPrefix = "infradash:session:"

// Storage is a Redis-backed KVStorage
type Storage struct {
	rdb    *goredis.Client
	prefix string
}

var _ storage.KVStorage = (*Storage)(nil)

// New создаёт клиент Redis из URL (например, redis://:pass@host:6379/0).
// Если prefix пустой, используется "infradash:session:".
func New(ctx context.Context, redisURL, prefix string) (*Storage, error) {
	opt, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	rdb := goredis.NewClient(opt)

	// Fail-fast на старте
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return NewWithClient(rdb, prefix), nil
}

// NewWithClient оборачивает уже настроенный клиент
func NewWithClient(rdb *goredis.Client, prefix string) *Storage {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Storage{rdb: rdb, prefix: prefix}
}

func (s *Storage) key(k string) string { return s.prefix + k }

func (s *Storage) Get(ctx context.Context, key string) ([]byte, error) {
	raw, err := s.rdb.Get(ctx, s.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, storage.ErrKeyNotFound
		}
		return nil, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return raw, nil
}

func (s *Storage) Put(ctx context.Context, key string, value []byte) error {
	// без TTL: срок сессии контролирует auth.Service по last_activity
	if err := s.rdb.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}

func (s *Storage) Delete(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

func (s *Storage) Close() error {
	return s.rdb.Close()
}
