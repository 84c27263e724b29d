// Package kv defines the key-value repository that backs all durable and
// volatile state. Every value is stored together with a version counter so
// that read-modify-write sequences can be serialized with CompareAndSwap
// instead of silently losing updates.
package kv

import "errors"

var (
	ErrNotFound        = errors.New("key not found")
	ErrVersionMismatch = errors.New("version mismatch")
)

// Store is the repository contract shared by the durable backends (sqlite,
// bolt) and the volatile in-memory session store.
type Store interface {
	// Get returns the value and its current version. ErrNotFound if absent.
	Get(key string) ([]byte, uint64, error)

	// Put writes unconditionally, bumping the version.
	Put(key string, value []byte) error

	// CompareAndSwap writes only if the stored version still equals expect.
	// A missing key counts as version 0, so CompareAndSwap(k, v, 0) is an
	// atomic create. Returns ErrVersionMismatch on conflict.
	CompareAndSwap(key string, value []byte, expect uint64) error

	// Delete removes a key. Deleting an absent key is not an error.
	Delete(key string) error

	// Keys returns all keys with the given prefix.
	Keys(prefix string) ([]string, error)

	Close() error
}
