// Package index provides the SQLite-backed contact index with optional FTS5
// name search. It is a queryable projection of the vault; the .vcf files
// remain the source of truth.
package index

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const coreSchemaSQL = `
CREATE TABLE IF NOT EXISTS contacts (
	path       TEXT PRIMARY KEY,
	slug       TEXT NOT NULL DEFAULT '',
	uid        TEXT NOT NULL DEFAULT '',
	full_name  TEXT NOT NULL DEFAULT '',
	gender     TEXT NOT NULL DEFAULT '',
	org        TEXT NOT NULL DEFAULT '',
	nickname   TEXT NOT NULL DEFAULT '',
	categories TEXT NOT NULL DEFAULT '[]',
	checksum   TEXT NOT NULL DEFAULT '',
	rev        TEXT NOT NULL DEFAULT '',
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_contacts_uid ON contacts(uid);
CREATE INDEX IF NOT EXISTS idx_contacts_full_name ON contacts(full_name);

CREATE TABLE IF NOT EXISTS relations (
	source     TEXT NOT NULL,
	target     TEXT NOT NULL,
	kind       TEXT NOT NULL,
	genderless TEXT NOT NULL DEFAULT '',
	UNIQUE(source, target, kind)
);

CREATE INDEX IF NOT EXISTS idx_relations_source ON relations(source);
CREATE INDEX IF NOT EXISTS idx_relations_target ON relations(target);
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
	if _, err := conn.Exec(coreSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply core schema: %w", err)
	}
	if err := initFTS(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply fts schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
