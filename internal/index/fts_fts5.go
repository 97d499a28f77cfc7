//go:build sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
	"strings"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS contacts_fts USING fts5(
			path UNINDEXED,
			full_name,
			nickname,
			org,
			categories,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsUpsert(tx *sql.Tx, row ContactRow) error {
	_, _ = tx.Exec(`DELETE FROM contacts_fts WHERE path = ?`, row.Path)
	_, err := tx.Exec(`INSERT INTO contacts_fts (path, full_name, nickname, org, categories) VALUES (?, ?, ?, ?, ?)`,
		row.Path, row.FullName, row.Nickname, row.Org, strings.Join(row.Categories, " "))
	if err != nil {
		return fmt.Errorf("index: upsert fts: %w", err)
	}
	return nil
}

func ftsDelete(tx *sql.Tx, path string) {
	_, _ = tx.Exec(`DELETE FROM contacts_fts WHERE path = ?`, path)
}

// Search performs an FTS5 search over names, nicknames, orgs, and categories.
func (db *DB) Search(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT path,
		       full_name,
		       snippet(contacts_fts, 1, '<b>', '</b>', '...', 16)
		FROM contacts_fts
		WHERE contacts_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	defer rows.Close()

	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.Path, &r.FullName, &r.Snippet); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
