package boltdb

import (
	"bytes"
	"context"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/iudanet/infradash/internal/client/storage"
)

// Get retrieves value stored under key
func (s *Storage) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte

	err := s.view(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketSession)
		if bucket == nil {
			return fmt.Errorf("session bucket not found")
		}

		data := bucket.Get([]byte(key))
		if data == nil {
			return storage.ErrKeyNotFound
		}

		// значение валидно только внутри транзакции, копируем
		value = bytes.Clone(data)
		return nil
	})

	if err != nil {
		return nil, err
	}

	return value, nil
}

// Put stores value under key
func (s *Storage) Put(ctx context.Context, key string, value []byte) error {
	return s.update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketSession)
		if bucket == nil {
			return fmt.Errorf("session bucket not found")
		}

		if err := bucket.Put([]byte(key), value); err != nil {
			return fmt.Errorf("failed to save %s: %w", key, err)
		}

		return nil
	})
}

// Delete removes key, missing key is not an error
func (s *Storage) Delete(ctx context.Context, key string) error {
	return s.update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketSession)
		if bucket == nil {
			return fmt.Errorf("session bucket not found")
		}

		if err := bucket.Delete([]byte(key)); err != nil {
			return fmt.Errorf("failed to delete %s: %w", key, err)
		}

		return nil
	})
}
