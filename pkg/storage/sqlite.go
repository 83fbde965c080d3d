package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-sqlite3"
)

// SQLiteBackend stores every key in a single kv table.
type SQLiteBackend struct {
	db    *sql.DB
	path  string
	quota int64
}

// SQLiteOption configures a SQLiteBackend.
type SQLiteOption func(*SQLiteBackend)

// WithQuota caps the total number of value bytes the backend will hold.
func WithQuota(bytes int64) SQLiteOption {
	return func(b *SQLiteBackend) {
		b.quota = bytes
	}
}

// NewSQLiteBackend opens (and creates if needed) the database at dbPath.
func NewSQLiteBackend(dbPath string, opts ...SQLiteOption) (*SQLiteBackend, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	b := &SQLiteBackend{db: db, path: dbPath}
	for _, opt := range opts {
		opt(b)
	}

	if err := b.init(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize storage: %w", err)
	}

	return b, nil
}

// init creates the database schema
func (b *SQLiteBackend) init() error {
	schema := `
	CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err := b.db.Exec(schema)
	return err
}

// Path returns the database file location.
func (b *SQLiteBackend) Path() string {
	return b.path
}

func (b *SQLiteBackend) Get(key string) (string, bool, error) {
	var value string
	err := b.db.QueryRow("SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read %s: %w", key, err)
	}
	return value, true, nil
}

func (b *SQLiteBackend) Set(key, value string) error {
	tx, err := b.db.Begin()
	if err != nil {
		return translate(err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if b.quota > 0 {
		var used int64
		err := tx.QueryRow(
			"SELECT COALESCE(SUM(LENGTH(CAST(value AS BLOB))), 0) FROM kv WHERE key != ?",
			key,
		).Scan(&used)
		if err != nil {
			return fmt.Errorf("measure usage: %w", err)
		}
		if used+int64(len(value)) > b.quota {
			return ErrQuotaExceeded
		}
	}

	_, err = tx.Exec(
		"INSERT OR REPLACE INTO kv (key, value, updated_at) VALUES (?, ?, ?)",
		key, value, time.Now(),
	)
	if err != nil {
		return translate(err)
	}

	return translate(tx.Commit())
}

func (b *SQLiteBackend) Delete(key string) error {
	_, err := b.db.Exec("DELETE FROM kv WHERE key = ?", key)
	return translate(err)
}

// Close closes the database
func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}

// translate maps SQLite's disk-full condition onto ErrQuotaExceeded.
func translate(err error) error {
	if err == nil {
		return nil
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrFull {
		return fmt.Errorf("%w: %v", ErrQuotaExceeded, err)
	}
	return err
}
