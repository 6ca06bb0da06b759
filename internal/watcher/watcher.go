// Package watcher reports changes to the file a list is stored in, so an
// open interface can reload when another process saves the list.
// Rapid writes are batched with a debounce window.
package watcher

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"todolist/internal/utils"
)

// DefaultDebounceDuration is the default debounce window for batching rapid changes.
const DefaultDebounceDuration = 300 * time.Millisecond

// Config holds file watcher configuration.
type Config struct {
	Path             string        // Storage file to watch
	DebounceDuration time.Duration // Debounce window to batch rapid changes
	OnChange         func()        // Called once per batch of changes
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig(path string, onChange func()) *Config {
	return &Config{
		Path:             path,
		DebounceDuration: DefaultDebounceDuration,
		OnChange:         onChange,
	}
}

// Watcher monitors a storage file and calls OnChange after it changes.
type Watcher struct {
	cfg     *Config
	fsw     *fsnotify.Watcher
	stopCh  chan struct{}
	stopped bool
	mu      sync.Mutex
}

// New creates a new Watcher instance.
func New(cfg *Config) (*Watcher, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("watcher needs a path")
	}
	if cfg.DebounceDuration <= 0 {
		cfg.DebounceDuration = DefaultDebounceDuration
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		cfg:    cfg,
		fsw:    fsw,
		stopCh: make(chan struct{}),
	}, nil
}

// Start begins watching. The file's directory is watched rather than the
// file itself, because saves replace the file by rename.
func (w *Watcher) Start() error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return fmt.Errorf("watcher has been stopped and cannot be restarted")
	}
	w.mu.Unlock()

	dir := filepath.Dir(w.cfg.Path)
	if err := w.fsw.Add(dir); err != nil {
		return fmt.Errorf("failed to watch directory %q: %w", dir, err)
	}

	go w.eventLoop()

	return nil
}

// Stop stops the watcher and cleans up resources.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return
	}
	w.stopped = true
	close(w.stopCh)
	_ = w.fsw.Close()
}

// Matches reports whether name is the watched file or one of its SQLite
// companions (journal, WAL, shared memory).
func (w *Watcher) Matches(name string) bool {
	base := filepath.Base(w.cfg.Path)
	got := filepath.Base(name)
	return got == base || strings.HasPrefix(got, base+"-")
}

// eventLoop processes fsnotify events with debouncing.
func (w *Watcher) eventLoop() {
	var debounceTimer *time.Timer

	// debounceCh fires when the debounce window expires
	debounceCh := make(chan struct{}, 1)

	resetDebounce := func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
		debounceTimer = time.AfterFunc(w.cfg.DebounceDuration, func() {
			select {
			case debounceCh <- struct{}{}:
			default:
			}
		})
	}

	for {
		select {
		case <-w.stopCh:
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if !w.Matches(event.Name) {
				continue
			}
			resetDebounce()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			utils.GetLogger().Debug("watcher error: %v", err)

		case <-debounceCh:
			if w.cfg.OnChange != nil {
				w.cfg.OnChange()
			}
		}
	}
}
