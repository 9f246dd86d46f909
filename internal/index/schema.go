// Package index provides the SQLite index of vault notes, timeline events and
// exported timeline canvases.
package index

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS notes (
	path       TEXT PRIMARY KEY,
	title      TEXT NOT NULL DEFAULT '',
	kind       TEXT NOT NULL DEFAULT 'note',
	checksum   TEXT NOT NULL DEFAULT '',
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_notes_kind ON notes(kind);

CREATE TABLE IF NOT EXISTS events (
	path         TEXT PRIMARY KEY REFERENCES notes(path) ON DELETE CASCADE,
	id           TEXT NOT NULL DEFAULT '',
	title        TEXT NOT NULL DEFAULT '',
	date         TEXT NOT NULL DEFAULT '',
	date_end     TEXT NOT NULL DEFAULT '',
	event_type   TEXT NOT NULL DEFAULT '',
	confidence   TEXT NOT NULL DEFAULT '',
	category     TEXT NOT NULL DEFAULT '',
	principal    TEXT NOT NULL DEFAULT '',
	participants TEXT NOT NULL DEFAULT '[]',
	place        TEXT NOT NULL DEFAULT '',
	before_refs  TEXT NOT NULL DEFAULT '[]',
	after_refs   TEXT NOT NULL DEFAULT '[]',
	sort_order   INTEGER,
	groups_json  TEXT NOT NULL DEFAULT '[]'
);

CREATE TABLE IF NOT EXISTS timelines (
	path         TEXT PRIMARY KEY REFERENCES notes(path) ON DELETE CASCADE,
	layout_style TEXT NOT NULL DEFAULT '',
	event_count  INTEGER NOT NULL DEFAULT 0,
	exported_at  INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS links (
	source TEXT NOT NULL REFERENCES notes(path) ON DELETE CASCADE,
	target TEXT NOT NULL,
	UNIQUE(source, target)
);

CREATE INDEX IF NOT EXISTS idx_links_target ON links(target);
`

// DB wraps a sql.DB with index-specific operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("index: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
