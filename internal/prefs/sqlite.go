package prefs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"wearrelay/internal/common/fsutil"
)

const initSchemaSQL = `
CREATE TABLE IF NOT EXISTS preferences (
    key        TEXT PRIMARY KEY,
    value      TEXT NOT NULL,
    updated_at INTEGER NOT NULL
);`

// readTimeout bounds a single Get; reads are expected to be local and fast.
const readTimeout = 2 * time.Second

// SQLiteBackend persists preferences in a single-table SQLite file.
type SQLiteBackend struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and applies the schema.
func OpenSQLite(path string) (*SQLiteBackend, error) {
	p, err := fsutil.PrepareFile(path)
	if err != nil {
		return nil, fmt.Errorf("prefs: %w", err)
	}
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000", p))
	if err != nil {
		return nil, fmt.Errorf("prefs: open %s: %w", p, err)
	}
	// single writer; WAL keeps readers unblocked
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(initSchemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("prefs: init schema: %w", err)
	}
	return &SQLiteBackend{db: db}, nil
}

// Lookup returns the stored value for key.
func (s *SQLiteBackend) Lookup(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM preferences WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("prefs: lookup %s: %w", key, err)
	}
	return v, true, nil
}

// Get implements Backend; read errors are reported as a missing key so
// callers fall back to defaults.
func (s *SQLiteBackend) Get(key string) (string, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), readTimeout)
	defer cancel()
	v, ok, err := s.Lookup(ctx, key)
	if err != nil {
		return "", false
	}
	return v, ok
}

func (s *SQLiteBackend) Set(key, value string) error {
	_, err := s.db.Exec(`INSERT INTO preferences (key, value, updated_at) VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("prefs: set %s: %w", key, err)
	}
	return nil
}

// SetDefault stores value only when key is absent.
func (s *SQLiteBackend) SetDefault(key, value string) error {
	_, err := s.db.Exec(`INSERT OR IGNORE INTO preferences (key, value, updated_at) VALUES (?, ?, ?)`,
		key, value, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("prefs: seed %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteBackend) All() (map[string]string, error) {
	rows, err := s.db.Query(`SELECT key, value FROM preferences`)
	if err != nil {
		return nil, fmt.Errorf("prefs: list: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("prefs: scan: %w", err)
		}
		out[k] = v
	}
	return out, rows.Err()
}

func (s *SQLiteBackend) Close() error { return s.db.Close() }
