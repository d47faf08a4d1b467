package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iudanet/infradash/internal/client/storage"
)

// Get retrieves value stored under key
func (s *Storage) Get(ctx context.Context, key string) ([]byte, error) {
	query := `SELECT value FROM kv WHERE key = ?`

	var value []byte
	err := s.db.QueryRowContext(ctx, query, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrKeyNotFound
		}
		return nil, fmt.Errorf("failed to get %s: %w", key, err)
	}

	return value, nil
}

// Put stores value under key
func (s *Storage) Put(ctx context.Context, key string, value []byte) error {
	query := `
		INSERT INTO kv (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`

	if _, err := s.db.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}

	return nil
}

// Delete removes key, missing key is not an error
func (s *Storage) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}
