package watcher

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func startWatcher(t *testing.T, path string, debounce time.Duration, onChange func()) *Watcher {
	t.Helper()

	w, err := New(&Config{
		Path:             path,
		DebounceDuration: debounce,
		OnChange:         onChange,
	})
	if err != nil {
		t.Fatalf("failed to create watcher: %v", err)
	}
	t.Cleanup(w.Stop)

	if err := w.Start(); err != nil {
		t.Fatalf("failed to start watcher: %v", err)
	}
	return w
}

// waitFor polls cond until it holds or the timeout expires
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}

// TestWatcherDetectsWrite verifies a write to the storage file is reported
func TestWatcherDetectsWrite(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "todolist.json")
	if err := os.WriteFile(path, []byte("{}"), 0600); err != nil {
		t.Fatalf("failed to create file: %v", err)
	}

	var changes atomic.Int32
	startWatcher(t, path, 50*time.Millisecond, func() { changes.Add(1) })

	if err := os.WriteFile(path, []byte(`{"myList":"[]"}`), 0600); err != nil {
		t.Fatalf("failed to modify file: %v", err)
	}

	if !waitFor(t, 2*time.Second, func() bool { return changes.Load() > 0 }) {
		t.Error("expected watcher to report the write")
	}
}

// TestWatcherDetectsReplaceByRename verifies atomic saves are reported
func TestWatcherDetectsReplaceByRename(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "todolist.json")

	var changes atomic.Int32
	startWatcher(t, path, 50*time.Millisecond, func() { changes.Add(1) })

	tmp := filepath.Join(tmpDir, ".todolist-123.json")
	if err := os.WriteFile(tmp, []byte("{}"), 0600); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		t.Fatalf("failed to rename: %v", err)
	}

	if !waitFor(t, 2*time.Second, func() bool { return changes.Load() > 0 }) {
		t.Error("expected watcher to report the replaced file")
	}
}

// TestWatcherIgnoresOtherFiles verifies unrelated files in the directory are ignored
func TestWatcherIgnoresOtherFiles(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "todolist.db")

	var changes atomic.Int32
	startWatcher(t, path, 30*time.Millisecond, func() { changes.Add(1) })

	if err := os.WriteFile(filepath.Join(tmpDir, "notes.txt"), []byte("x"), 0600); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	time.Sleep(200 * time.Millisecond)
	if changes.Load() != 0 {
		t.Errorf("expected no change for unrelated file, got %d", changes.Load())
	}
}

// TestWatcherDebounce verifies rapid writes are batched into one change
func TestWatcherDebounce(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "todolist.db")
	if err := os.WriteFile(path, []byte("0"), 0600); err != nil {
		t.Fatalf("failed to create file: %v", err)
	}

	var changes atomic.Int32
	startWatcher(t, path, 150*time.Millisecond, func() { changes.Add(1) })

	for i := 0; i < 5; i++ {
		if err := os.WriteFile(path, []byte{byte('a' + i)}, 0600); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	time.Sleep(500 * time.Millisecond)
	if got := changes.Load(); got != 1 {
		t.Errorf("expected 1 batched change, got %d", got)
	}
}

// TestWatcherMatches verifies the storage file and its SQLite companions match
func TestWatcherMatches(t *testing.T) {
	w, err := New(DefaultConfig("/data/todolist.db", nil))
	if err != nil {
		t.Fatalf("failed to create watcher: %v", err)
	}
	defer w.Stop()

	tests := []struct {
		name string
		want bool
	}{
		{"/data/todolist.db", true},
		{"/data/todolist.db-wal", true},
		{"/data/todolist.db-journal", true},
		{"/data/todolist.dbx", false},
		{"/data/.todolist-1.json", false},
		{"/data/other.db", false},
	}

	for _, tt := range tests {
		if got := w.Matches(tt.name); got != tt.want {
			t.Errorf("Matches(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

// TestWatcherStopCleanly verifies Stop is idempotent and Start fails afterwards
func TestWatcherStopCleanly(t *testing.T) {
	w, err := New(DefaultConfig(filepath.Join(t.TempDir(), "todolist.db"), nil))
	if err != nil {
		t.Fatalf("failed to create watcher: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("failed to start watcher: %v", err)
	}

	w.Stop()
	w.Stop()

	if err := w.Start(); err == nil {
		t.Error("expected error when starting a stopped watcher")
	}
}

// TestWatcherConfigDefaults verifies default and invalid configuration
func TestWatcherConfigDefaults(t *testing.T) {
	cfg := DefaultConfig("/tmp/todolist.db", nil)
	if cfg.DebounceDuration != DefaultDebounceDuration {
		t.Errorf("expected debounce %v, got %v", DefaultDebounceDuration, cfg.DebounceDuration)
	}

	if _, err := New(&Config{}); err == nil {
		t.Error("expected error for empty path")
	}

	w, err := New(&Config{Path: "/tmp/todolist.db"})
	if err != nil {
		t.Fatalf("failed to create watcher: %v", err)
	}
	defer w.Stop()
	if w.cfg.DebounceDuration != DefaultDebounceDuration {
		t.Errorf("expected zero debounce to fall back to default, got %v", w.cfg.DebounceDuration)
	}
}
