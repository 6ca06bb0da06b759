// Package shutdown runs registered cleanup functions when a command finishes
// or the process is interrupted.
package shutdown

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"

	"todolist/internal/utils"
)

// CleanupFunc is a function that performs cleanup on shutdown.
type CleanupFunc func(ctx context.Context) error

// cleanupEntry holds a registered cleanup function with its name.
type cleanupEntry struct {
	name string
	fn   CleanupFunc
}

// Manager handles graceful shutdown coordination.
type Manager struct {
	mu       sync.Mutex
	cleanups []cleanupEntry
	cleaned  bool
	shutdown bool
	ctx      context.Context
	cancel   context.CancelFunc
	once     sync.Once
}

// NewManager creates a new shutdown manager.
func NewManager() *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		ctx:    ctx,
		cancel: cancel,
	}
}

// RegisterCleanup registers a cleanup function to be called during shutdown.
// Cleanup functions are called in LIFO order (last registered, first called).
func (m *Manager) RegisterCleanup(name string, fn CleanupFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cleanups = append(m.cleanups, cleanupEntry{name: name, fn: fn})
}

// NotifyOnSignal calls Shutdown when one of sigs arrives. It stops listening
// once the manager's context is done.
func (m *Manager) NotifyOnSignal(sigs ...os.Signal) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, sigs...)
	go func() {
		defer signal.Stop(ch)
		select {
		case sig := <-ch:
			utils.GetLogger().Debug("received %s, shutting down", sig)
			m.Shutdown()
		case <-m.ctx.Done():
		}
	}()
}

// Shutdown cancels the manager's context.
// Safe to call multiple times; only the first call has effect.
func (m *Manager) Shutdown() {
	m.once.Do(func() {
		m.mu.Lock()
		m.shutdown = true
		m.mu.Unlock()
		m.cancel()
	})
}

// IsShutdown returns true if shutdown has been initiated.
func (m *Manager) IsShutdown() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.shutdown
}

// Context returns a context that is cancelled when shutdown is initiated.
func (m *Manager) Context() context.Context {
	return m.ctx
}

// Cleanup initiates shutdown and runs every cleanup function in LIFO order.
// A failing cleanup does not stop the rest; their errors are joined. Calls
// after the first do nothing.
func (m *Manager) Cleanup(ctx context.Context) error {
	m.Shutdown()

	m.mu.Lock()
	if m.cleaned {
		m.mu.Unlock()
		return nil
	}
	m.cleaned = true
	cleanups := make([]cleanupEntry, len(m.cleanups))
	copy(cleanups, m.cleanups)
	m.mu.Unlock()

	var errs []error
	for i := len(cleanups) - 1; i >= 0; i-- {
		c := cleanups[i]
		if err := c.fn(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", c.name, err))
		}
	}
	return errors.Join(errs...)
}
