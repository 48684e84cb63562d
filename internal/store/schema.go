// Package store persists update history and the last fetched lists in
// SQLite.
package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS update_history (
	id               TEXT PRIMARY KEY,
	media_id         INTEGER NOT NULL,
	entry_id         INTEGER NOT NULL,
	category         TEXT NOT NULL DEFAULT '',
	title            TEXT NOT NULL DEFAULT '',
	status           TEXT NOT NULL DEFAULT '',
	progress         INTEGER,
	progress_volumes INTEGER,
	outcome          TEXT NOT NULL,
	error            TEXT NOT NULL DEFAULT '',
	created_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_update_history_created ON update_history(created_at);
CREATE INDEX IF NOT EXISTS idx_update_history_media ON update_history(media_id);

CREATE TABLE IF NOT EXISTS list_snapshots (
	category   TEXT PRIMARY KEY,
	checksum   TEXT NOT NULL,
	payload    TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// DB wraps a sql.DB with tracker persistence operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
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
	return &DB{conn: conn}, nil
}

// Ping checks the database connection.
func (db *DB) Ping() error {
	return db.conn.Ping()
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
