package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS collections (
	name       TEXT PRIMARY KEY,
	body       TEXT NOT NULL DEFAULT '[]',
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// SQLite implements Backend with one row per collection. Each save is a single
// upsert, so a crash never leaves a half-written array behind. Transactions
// start with BEGIN IMMEDIATE, which takes the write lock up front and makes
// Update safe across processes sharing the database file.
type SQLite struct {
	conn *sql.DB
}

// OpenSQLite opens (or creates) the database at dsn and applies the schema.
func OpenSQLite(dsn string) (*SQLite, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}
	return &SQLite{conn: conn}, nil
}

func (s *SQLite) Read(name string) ([]byte, error) {
	var body string
	err := s.conn.QueryRow(`SELECT body FROM collections WHERE name = ?`, name).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		_, err := s.conn.Exec(`INSERT OR IGNORE INTO collections (name, body, updated_at) VALUES (?, ?, ?)`,
			name, string(emptyArray), time.Now().UTC())
		if err != nil {
			return nil, fmt.Errorf("store: create %s: %w", name, err)
		}
		return s.Read(name)
	}
	if err != nil {
		return nil, fmt.Errorf("store: read %s: %w", name, err)
	}
	return []byte(body), nil
}

func (s *SQLite) Write(name string, data []byte) error {
	return upsert(s.conn, name, data)
}

func (s *SQLite) Update(name string, fn func([]byte) ([]byte, error)) error {
	tx, err := s.conn.Begin()
	if err != nil {
		return fmt.Errorf("store: begin %s: %w", name, err)
	}
	defer tx.Rollback()

	var body string
	err = tx.QueryRow(`SELECT body FROM collections WHERE name = ?`, name).Scan(&body)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		body = string(emptyArray)
	case err != nil:
		return fmt.Errorf("store: read %s: %w", name, err)
	}
	next, err := fn([]byte(body))
	if err != nil {
		return err
	}
	if err := upsert(tx, name, next); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit %s: %w", name, err)
	}
	return nil
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func upsert(db execer, name string, data []byte) error {
	_, err := db.Exec(`
		INSERT INTO collections (name, body, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			body       = excluded.body,
			updated_at = excluded.updated_at
	`, name, string(data), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("store: write %s: %w", name, err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.conn.Close()
}
