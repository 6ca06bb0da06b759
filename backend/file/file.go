// Package file implements a KeyValueStore backend that keeps all keys in a
// single JSON document on disk.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// Config holds file backend configuration
type Config struct {
	FilePath string // Path to the storage file
}

// Backend implements backend.KeyValueStore for file-based storage.
// The file is a JSON object mapping each key to its value as a string.
// Every operation reads the file afresh, so writes made by another process
// are seen and kept.
type Backend struct {
	config   Config
	filePath string // Resolved absolute path
	mu       sync.Mutex
}

// New creates a new file backend
func New(cfg Config) (*Backend, error) {
	filePath := cfg.FilePath
	if filePath == "" {
		filePath = "todolist.json"
	}

	// Resolve relative paths
	if !filepath.IsAbs(filePath) {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		filePath = filepath.Join(wd, filePath)
	}

	return &Backend{
		config:   cfg,
		filePath: filePath,
	}, nil
}

// Path returns the resolved storage file path
func (b *Backend) Path() string {
	return b.filePath
}

// Close closes the backend
func (b *Backend) Close() error {
	return nil
}

// Get returns the value stored under key
func (b *Backend) Get(_ context.Context, key string) ([]byte, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	data, err := b.loadFile()
	if err != nil {
		return nil, false, err
	}
	v, ok := data[key]
	if !ok {
		return nil, false, nil
	}
	return []byte(v), true, nil
}

// Set stores value under key and rewrites the file. Other keys are taken
// from the file as it is now, not as it was when last read.
func (b *Backend) Set(_ context.Context, key string, value []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	data, err := b.loadFile()
	if err != nil {
		return err
	}
	data[key] = string(value)
	return b.saveFile(data)
}

// Keys returns the stored keys in sorted order
func (b *Backend) Keys() ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	data, err := b.loadFile()
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// =============================================================================
// File I/O
// =============================================================================

// loadFile reads and decodes the storage file. A missing or empty file is an
// empty store.
func (b *Backend) loadFile() (map[string]string, error) {
	decoded := make(map[string]string)

	raw, err := os.ReadFile(b.filePath)
	if os.IsNotExist(err) {
		return decoded, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read storage file: %w", err)
	}
	if len(raw) == 0 {
		return decoded, nil
	}

	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("invalid storage file %s: %w", b.filePath, err)
	}
	if decoded == nil {
		decoded = make(map[string]string)
	}
	return decoded, nil
}

// saveFile writes the store through a temp file and rename
func (b *Backend) saveFile(data map[string]string) error {
	dir := filepath.Dir(b.filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create storage directory: %w", err)
	}

	content, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".todolist-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(append(content, '\n')); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write storage file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write storage file: %w", err)
	}
	if err := os.Rename(tmpName, b.filePath); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to replace storage file: %w", err)
	}
	return nil
}
