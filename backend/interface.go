package backend

import (
	"context"
	"fmt"
	"strings"
)

// KeyValueStore defines the interface for persistent byte storage backends.
// Values are opaque to the backend; the list store decides their encoding.
type KeyValueStore interface {
	// Get returns the value stored under key. found is false when the key
	// has never been set.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Connection management
	Close() error
}

// Backend type names accepted in configuration and on the command line.
const (
	TypeSQLite  = "sqlite"
	TypeFile    = "file"
	TypeKeyring = "keyring"
	TypeMemory  = "memory"
)

// Types returns the supported backend type names.
func Types() []string {
	return []string{TypeSQLite, TypeFile, TypeKeyring, TypeMemory}
}

// ValidateType checks that name is a supported backend type (case-insensitive)
// and returns its canonical form.
func ValidateType(name string) (string, error) {
	lower := strings.ToLower(strings.TrimSpace(name))
	for _, t := range Types() {
		if t == lower {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown backend: %q (valid: %s)", name, strings.Join(Types(), ", "))
}
