package kv

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStores(t *testing.T) map[string]Store {
	t.Helper()

	dir := t.TempDir()

	b, err := NewBolt(filepath.Join(dir, "test.bolt"))
	require.NoError(t, err)
	t.Cleanup(func() { b.Close() })

	g, err := NewGorm(filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { g.Close() })

	return map[string]Store{
		"mem":    NewMem(),
		"bolt":   b,
		"sqlite": g,
	}
}

func TestGetPut(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			_, _, err := s.Get("missing")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.Put("k", []byte("v1")))

			val, ver, err := s.Get("k")
			require.NoError(t, err)
			assert.Equal(t, []byte("v1"), val)
			assert.Equal(t, uint64(1), ver)

			require.NoError(t, s.Put("k", []byte("v2")))

			val, ver, err = s.Get("k")
			require.NoError(t, err)
			assert.Equal(t, []byte("v2"), val)
			assert.Equal(t, uint64(2), ver)
		})
	}
}

func TestCompareAndSwap(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			// Version 0 is an atomic create
			require.NoError(t, s.CompareAndSwap("k", []byte("v1"), 0))
			assert.ErrorIs(t, s.CompareAndSwap("k", []byte("other"), 0), ErrVersionMismatch)

			_, ver, err := s.Get("k")
			require.NoError(t, err)

			require.NoError(t, s.CompareAndSwap("k", []byte("v2"), ver))

			// The stale version must now lose
			assert.ErrorIs(t, s.CompareAndSwap("k", []byte("v3"), ver), ErrVersionMismatch)

			val, _, err := s.Get("k")
			require.NoError(t, err)
			assert.Equal(t, []byte("v2"), val)
		})
	}
}

func TestDeleteIdempotent(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Put("k", []byte("v")))
			require.NoError(t, s.Delete("k"))
			require.NoError(t, s.Delete("k"))

			_, _, err := s.Get("k")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestKeysPrefix(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Put("file_alice_a", []byte("1")))
			require.NoError(t, s.Put("file_alice_b", []byte("2")))
			require.NoError(t, s.Put("file_bob_a", []byte("3")))
			require.NoError(t, s.Put("storage_alice", []byte("4")))

			keys, err := s.Keys("file_alice_")
			require.NoError(t, err)
			assert.ElementsMatch(t, []string{"file_alice_a", "file_alice_b"}, keys)

			keys, err = s.Keys("nothing_")
			require.NoError(t, err)
			assert.Empty(t, keys)
		})
	}
}
