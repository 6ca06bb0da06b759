// Package keyring implements a KeyValueStore on top of the operating system
// keyring. Each key is stored as one secret under a shared service name.
package keyring

import (
	"context"
	"errors"
	"sync"

	gokeyring "github.com/zalando/go-keyring"
)

// DefaultService is the keyring service name used when none is configured.
const DefaultService = "todolist"

// Keyring is the subset of keyring operations the backend needs.
type Keyring interface {
	Set(service, account, secret string) error
	Get(service, account string) (string, error)
}

// systemKeyring is the real keyring implementation using the OS keyring
type systemKeyring struct{}

func (systemKeyring) Set(service, account, secret string) error {
	return gokeyring.Set(service, account, secret)
}

func (systemKeyring) Get(service, account string) (string, error) {
	return gokeyring.Get(service, account)
}

// System returns the OS keyring.
func System() Keyring {
	return systemKeyring{}
}

// MockKeyring is an in-memory Keyring for tests
type MockKeyring struct {
	mu    sync.RWMutex
	store map[string]map[string]string // service -> account -> secret
}

// NewMockKeyring creates a new mock keyring for testing
func NewMockKeyring() *MockKeyring {
	return &MockKeyring{
		store: make(map[string]map[string]string),
	}
}

// Set stores a secret in the mock keyring
func (m *MockKeyring) Set(service, account, secret string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.store[service] == nil {
		m.store[service] = make(map[string]string)
	}
	m.store[service][account] = secret
	return nil
}

// Get retrieves a secret from the mock keyring
func (m *MockKeyring) Get(service, account string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if accounts, ok := m.store[service]; ok {
		if secret, ok := accounts[account]; ok {
			return secret, nil
		}
	}
	return "", gokeyring.ErrNotFound
}

// Backend implements backend.KeyValueStore using a Keyring
type Backend struct {
	ring    Keyring
	service string
}

// New creates a keyring backend. An empty service uses DefaultService and a
// nil ring uses the OS keyring.
func New(ring Keyring, service string) *Backend {
	if ring == nil {
		ring = System()
	}
	if service == "" {
		service = DefaultService
	}
	return &Backend{ring: ring, service: service}
}

// Service returns the keyring service name
func (b *Backend) Service() string {
	return b.service
}

// Get returns the secret stored under key
func (b *Backend) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, err := b.ring.Get(b.service, key)
	if errors.Is(err, gokeyring.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return []byte(v), true, nil
}

// Set stores value under key
func (b *Backend) Set(_ context.Context, key string, value []byte) error {
	return b.ring.Set(b.service, key, string(value))
}

// Close is a no-op
func (b *Backend) Close() error {
	return nil
}
