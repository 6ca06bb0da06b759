// Package memory implements a KeyValueStore held entirely in process memory.
package memory

import (
	"context"
	"sync"
)

// Backend is an in-memory key-value store. Its contents do not survive the
// process.
type Backend struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// New creates an empty in-memory backend.
func New() *Backend {
	return &Backend{data: make(map[string][]byte)}
}

// Get returns a copy of the value stored under key.
func (b *Backend) Get(_ context.Context, key string) ([]byte, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	v, ok := b.data[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

// Set stores a copy of value under key.
func (b *Backend) Set(_ context.Context, key string, value []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	v := make([]byte, len(value))
	copy(v, value)
	b.data[key] = v
	return nil
}

// Close is a no-op.
func (b *Backend) Close() error {
	return nil
}
