// Package memkv keeps key-value pairs in memory.
package memkv

import (
	"context"
	"strings"
	"sync"

	"github.com/decl/decl/storage"
)

// Store stores key-value pairs in memory.
//
// Because data is not persisted anywhere, Store should only be used in
// tests.
type Store struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// Put creates or updates a value.
func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	if s.data == nil {
		s.data = make(map[string][]byte)
	}
	s.data[key] = value
	s.mu.Unlock()
	return nil
}

// Get returns a single value.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return v, nil
}

// Delete deletes a key.
func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[key]; !ok {
		return storage.ErrNotFound
	}
	delete(s.data, key)
	return nil
}

// Scan performs a prefix scan and populates the returned map with any values
// matching the prefix.
func (s *Store) Scan(ctx context.Context, prefix string) (map[string][]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string][]byte)
	for k, v := range s.data {
		if strings.HasPrefix(k, prefix) {
			out[k] = v
		}
	}
	return out, nil
}
