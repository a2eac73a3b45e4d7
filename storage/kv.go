// Package storage defines the interface snapshots are persisted behind.
//
// Backends live in subpackages: boltkv stores data in a local bolt database
// file, memkv keeps it in memory for tests. The storagetest package holds a
// conformance suite every backend must pass.
package storage

import "context"

// The KVBackend is used for persisting key-value data.
type KVBackend interface {
	// Put creates or updates a key.
	Put(ctx context.Context, key string, value []byte) error

	// Get returns the given key. Returns ErrNotFound if the given key does
	// not exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete deletes a key. Returns ErrNotFound if the given key does not
	// exist.
	Delete(ctx context.Context, key string) error

	// Scan returns a key-value map of all keys matching the given prefix.
	Scan(ctx context.Context, prefix string) (map[string][]byte, error)
}
