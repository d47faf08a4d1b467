// Package memory provides a process-local KVStorage, used by tests and by
// the "memory" driver when nothing must survive the process.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/iudanet/infradash/internal/client/storage"
)

// Storage is an in-memory KVStorage safe for concurrent use
type Storage struct {
	data   map[string][]byte
	mu     sync.RWMutex
	closed bool
}

var _ storage.KVStorage = (*Storage)(nil)

// New creates an empty in-memory storage
func New() *Storage {
	return &Storage{data: make(map[string][]byte)}
}

func (s *Storage) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, storage.ErrStorageClosed
	}
	v, ok := s.data[key]
	if !ok {
		return nil, storage.ErrKeyNotFound
	}
	return slices.Clone(v), nil
}

func (s *Storage) Put(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return storage.ErrStorageClosed
	}
	s.data[key] = slices.Clone(value)
	return nil
}

func (s *Storage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return storage.ErrStorageClosed
	}
	delete(s.data, key)
	return nil
}

func (s *Storage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
