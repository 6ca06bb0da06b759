package sqlite

import (
	"context"
	"database/sql"
	"time"

	_ "modernc.org/sqlite"
)

// Backend implements backend.KeyValueStore using SQLite
type Backend struct {
	db *sql.DB
}

// New creates a new SQLite backend and initializes the database schema
func New(path string) (*Backend, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// :memory: databases are per-connection
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	b := &Backend{db: db}
	if err := b.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return b, nil
}

// initSchema creates the key-value table if it doesn't exist
func (b *Backend) initSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS kv (
			key TEXT PRIMARY KEY,
			value BLOB NOT NULL,
			modified TEXT NOT NULL
		);
	`

	_, err := b.db.Exec(schema)
	return err
}

// Get returns the value stored under key
func (b *Backend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := b.db.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if value == nil {
		value = []byte{}
	}
	return value, true, nil
}

// Set inserts or replaces the value stored under key
func (b *Backend) Set(ctx context.Context, key string, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := b.db.ExecContext(ctx,
		`INSERT INTO kv (key, value, modified) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, modified = excluded.modified`,
		key, value, now,
	)
	return err
}

// Modified returns when key was last written. ok is false if the key is absent.
func (b *Backend) Modified(ctx context.Context, key string) (time.Time, bool, error) {
	var modifiedStr string
	err := b.db.QueryRowContext(ctx, "SELECT modified FROM kv WHERE key = ?", key).Scan(&modifiedStr)
	if err == sql.ErrNoRows {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	t, _ := time.Parse(time.RFC3339Nano, modifiedStr)
	return t, true, nil
}

// Close closes the database connection
func (b *Backend) Close() error {
	return b.db.Close()
}
