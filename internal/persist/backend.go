// Package persist stores serialized state blobs under string keys.
package persist

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// ErrNoValue is returned by Backend.Get when nothing is stored under the key.
var ErrNoValue = errors.New("no value stored")

// Backend is a minimal key-value store. Implementations must treat Delete of
// an absent key as success.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Batcher is implemented by backends that can apply several writes
// atomically. A nil value in puts is not allowed; use deletes.
type Batcher interface {
	Batch(ctx context.Context, puts map[string][]byte, deletes []string) error
}

// MemoryBackend keeps values in a map. Used by tests and as a scratch store.
type MemoryBackend struct {
	mu     sync.RWMutex
	values map[string][]byte
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{values: map[string][]byte{}}
}

func (m *MemoryBackend) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	if !ok {
		return nil, ErrNoValue
	}
	return append([]byte(nil), v...), nil
}

func (m *MemoryBackend) Put(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryBackend) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

func (m *MemoryBackend) Batch(_ context.Context, puts map[string][]byte, deletes []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range puts {
		m.values[k] = append([]byte(nil), v...)
	}
	for _, k := range deletes {
		delete(m.values, k)
	}
	return nil
}

// Keys returns the stored keys in sorted order.
func (m *MemoryBackend) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.values))
	for k := range m.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (m *MemoryBackend) Close() error { return nil }

var (
	_ Backend = (*MemoryBackend)(nil)
	_ Batcher = (*MemoryBackend)(nil)
)
