// Package testutil provides shared test utilities for CLI testing across packages.
// This enables co-located CLI tests while maintaining consistent test infrastructure.
package testutil

import (
	"bytes"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	_ "modernc.org/sqlite"
	"todolist/backend/keyring"
	"todolist/cmd/todolist/cmd"
)

// defaultTestConfig is the minimal config used by most test constructors to ensure isolation.
const defaultTestConfig = "# test config\nstorage:\n  backend: sqlite\n"

// CLITest provides a test helper for running CLI commands in isolation.
type CLITest struct {
	t          *testing.T
	cfg        *cmd.Config
	tmpDir     string
	configPath string
}

// NewCLITest creates a new CLI test helper with an isolated SQLite database.
func NewCLITest(t *testing.T) *CLITest {
	t.Helper()

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	// Write a minimal default config to ensure isolation
	if err := os.WriteFile(configPath, []byte(defaultTestConfig), 0644); err != nil {
		t.Fatalf("failed to create config file: %v", err)
	}

	cfg := &cmd.Config{
		NoPrompt:   true,
		DBPath:     filepath.Join(tmpDir, "test.db"),
		FilePath:   filepath.Join(tmpDir, "data", "todolist.json"),
		ConfigPath: configPath,
		Keyring:    keyring.NewMockKeyring(),
		Stdin:      strings.NewReader(""),
		IsTerminal: func() bool { return false },
	}

	return &CLITest{
		t:          t,
		cfg:        cfg,
		tmpDir:     tmpDir,
		configPath: configPath,
	}
}

// NewCLITestInteractive creates a CLI test helper with prompts enabled that
// reads answers from stdin.
func NewCLITestInteractive(t *testing.T, stdin string) *CLITest {
	t.Helper()

	c := NewCLITest(t)
	c.cfg.NoPrompt = false
	c.cfg.Stdin = strings.NewReader(stdin)
	return c
}

// Config returns the test configuration.
func (c *CLITest) Config() *cmd.Config {
	return c.cfg
}

// TmpDir returns the temporary directory for the test.
func (c *CLITest) TmpDir() string {
	return c.tmpDir
}

// ConfigPath returns the path to the config file.
func (c *CLITest) ConfigPath() string {
	return c.configPath
}

// SetStdin replaces the input the next commands read from.
func (c *CLITest) SetStdin(input string) {
	c.cfg.Stdin = strings.NewReader(input)
}

// SetFullConfig replaces the entire config file with the given YAML content.
func (c *CLITest) SetFullConfig(yamlContent string) {
	c.t.Helper()

	if err := os.WriteFile(c.configPath, []byte(yamlContent), 0644); err != nil {
		c.t.Fatalf("failed to write config file: %v", err)
	}
}

// Execute runs a CLI command with the given arguments and returns stdout, stderr, and exit code.
func (c *CLITest) Execute(args ...string) (stdout, stderr string, exitCode int) {
	c.t.Helper()

	var stdoutBuf, stderrBuf bytes.Buffer
	exitCode = cmd.Execute(args, &stdoutBuf, &stderrBuf, c.cfg)
	return stdoutBuf.String(), stderrBuf.String(), exitCode
}

// MustExecute runs a CLI command and fails the test if exit code is non-zero.
func (c *CLITest) MustExecute(args ...string) string {
	c.t.Helper()

	stdout, stderr, exitCode := c.Execute(args...)
	if exitCode != 0 {
		c.t.Fatalf("expected exit code 0, got %d: stdout=%s stderr=%s", exitCode, stdout, stderr)
	}
	return stdout
}

// ExecuteAndFail runs a CLI command and fails the test if exit code is zero.
func (c *CLITest) ExecuteAndFail(args ...string) (stdout, stderr string) {
	c.t.Helper()

	stdout, stderr, exitCode := c.Execute(args...)
	if exitCode == 0 {
		c.t.Fatalf("expected non-zero exit code, got 0: stdout=%s", stdout)
	}
	return stdout, stderr
}

// StoredValue returns the raw value saved under key in the test database,
// or "" when nothing is stored.
func (c *CLITest) StoredValue(key string) string {
	c.t.Helper()

	db, err := openTestDB(c.cfg.DBPath)
	if err != nil {
		c.t.Fatalf("failed to open database: %v", err)
	}
	defer func() { _ = db.Close() }()

	var value []byte
	err = db.QueryRow("SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return ""
	}
	if err != nil {
		c.t.Fatalf("failed to read key %s: %v", key, err)
	}
	return string(value)
}

// SetStoredValue writes a raw value under key in the test database, creating
// the table if no command has run yet.
func (c *CLITest) SetStoredValue(key, value string) {
	c.t.Helper()

	db, err := openTestDB(c.cfg.DBPath)
	if err != nil {
		c.t.Fatalf("failed to open database: %v", err)
	}
	defer func() { _ = db.Close() }()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS kv (
			key TEXT PRIMARY KEY,
			value BLOB NOT NULL,
			modified TEXT NOT NULL
		)`,
		`INSERT INTO kv (key, value, modified) VALUES (?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, modified = excluded.modified`,
	}
	if _, err := db.Exec(stmts[0]); err != nil {
		c.t.Fatalf("failed to create table: %v", err)
	}
	modified := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := db.Exec(stmts[1], key, []byte(value), modified); err != nil {
		c.t.Fatalf("failed to write key %s: %v", key, err)
	}
}

// AssertContains fails the test if output doesn't contain expected string.
func AssertContains(t *testing.T, output, expected string) {
	t.Helper()
	if !strings.Contains(output, expected) {
		t.Errorf("expected output to contain %q, got:\n%s", expected, output)
	}
}

// AssertNotContains fails the test if output contains unexpected string.
func AssertNotContains(t *testing.T, output, unexpected string) {
	t.Helper()
	if strings.Contains(output, unexpected) {
		t.Errorf("expected output NOT to contain %q, got:\n%s", unexpected, output)
	}
}

// AssertExitCode fails the test if exit code doesn't match expected.
func AssertExitCode(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("expected exit code %d, got %d", want, got)
	}
}

// AssertResultCode verifies that the output ends with the expected result code.
func AssertResultCode(t *testing.T, output, expectedCode string) {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(output), "\n")
	if len(lines) == 0 {
		t.Errorf("expected result code %q but output is empty", expectedCode)
		return
	}
	lastLine := strings.TrimSpace(lines[len(lines)-1])
	if lastLine != expectedCode {
		t.Errorf("expected result code %q, got %q\nFull output:\n%s", expectedCode, lastLine, output)
	}
}

// Result code constants for convenience.
const (
	ResultActionCompleted = cmd.ResultActionCompleted
	ResultInfoOnly        = cmd.ResultInfoOnly
	ResultError           = cmd.ResultError
)

// openTestDB opens the SQLite database for testing purposes.
func openTestDB(dbPath string) (*sql.DB, error) {
	return sql.Open("sqlite", dbPath)
}
