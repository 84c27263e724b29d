package kv

import (
	"strings"
	"sync"
)

type memEntry struct {
	value   []byte
	version uint64
}

// Mem is an in-memory Store. It backs the volatile session store and is the
// default backend in tests.
type Mem struct {
	mu      sync.RWMutex
	entries map[string]memEntry
}

func NewMem() *Mem {
	return &Mem{entries: make(map[string]memEntry)}
}

func (m *Mem) Get(key string) ([]byte, uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[key]
	if !ok {
		return nil, 0, ErrNotFound
	}

	out := make([]byte, len(e.value))
	copy(out, e.value)

	return out, e.version, nil
}

func (m *Mem) Put(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := m.entries[key]
	m.entries[key] = memEntry{value: clone(value), version: e.version + 1}

	return nil
}

func (m *Mem) CompareAndSwap(key string, value []byte, expect uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	current := uint64(0)
	if ok {
		current = e.version
	}

	if current != expect {
		return ErrVersionMismatch
	}

	m.entries[key] = memEntry{value: clone(value), version: current + 1}

	return nil
}

func (m *Mem) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, key)

	return nil
}

func (m *Mem) Keys(prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var keys []string
	for k := range m.entries {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}

	return keys, nil
}

func (m *Mem) Close() error {
	return nil
}

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
