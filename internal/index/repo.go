package index

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/kithhq/kith/internal/models"
)

// ContactRow represents a row in the contacts table.
type ContactRow struct {
	Path       string
	Slug       string
	UID        string
	FullName   string
	Gender     string
	Org        string
	Nickname   string
	Categories []string
	Checksum   string
	Rev        string
	UpdatedAt  time.Time
}

// RelationRow is one outgoing relationship of a contact being upserted.
type RelationRow struct {
	Target     string
	Kind       string
	Genderless string
}

// SearchResult represents one search hit.
type SearchResult struct {
	Path     string
	FullName string
	Snippet  string
}

// UpsertContact inserts or replaces a contact, its FTS entry, and its
// outgoing relations within a transaction.
func (db *DB) UpsertContact(row ContactRow, relations []RelationRow) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	categoriesJSON, _ := json.Marshal(row.Categories)

	_, err = tx.Exec(`
		INSERT INTO contacts (path, slug, uid, full_name, gender, org, nickname, categories, checksum, rev, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			slug       = excluded.slug,
			uid        = excluded.uid,
			full_name  = excluded.full_name,
			gender     = excluded.gender,
			org        = excluded.org,
			nickname   = excluded.nickname,
			categories = excluded.categories,
			checksum   = excluded.checksum,
			rev        = excluded.rev,
			updated_at = excluded.updated_at
	`, row.Path, row.Slug, row.UID, row.FullName, row.Gender, row.Org, row.Nickname,
		string(categoriesJSON), row.Checksum, row.Rev, row.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert contact: %w", err)
	}

	// FTS upsert (no-op when FTS5 tag is absent).
	if err := ftsUpsert(tx, row); err != nil {
		return err
	}

	// Replace relations: delete old then bulk insert.
	_, _ = tx.Exec(`DELETE FROM relations WHERE source = ?`, row.Path)
	if len(relations) > 0 {
		stmt, err := tx.Prepare(`INSERT OR IGNORE INTO relations (source, target, kind, genderless) VALUES (?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("index: prepare relation insert: %w", err)
		}
		defer stmt.Close()
		for _, r := range relations {
			if _, err := stmt.Exec(row.Path, r.Target, r.Kind, r.Genderless); err != nil {
				return fmt.Errorf("index: insert relation: %w", err)
			}
		}
	}

	return tx.Commit()
}

// DeleteContact removes a contact, its FTS entry, and outgoing relations.
func (db *DB) DeleteContact(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, path)
	_, _ = tx.Exec(`DELETE FROM relations WHERE source = ?`, path)
	_, _ = tx.Exec(`DELETE FROM contacts WHERE path = ?`, path)

	return tx.Commit()
}

// GetContact returns a contact row, or nil when not indexed.
func (db *DB) GetContact(path string) (*ContactRow, error) {
	row := db.conn.QueryRow(`
		SELECT path, slug, uid, full_name, gender, org, nickname, categories, checksum, rev, updated_at
		FROM contacts WHERE path = ?
	`, path)
	c, err := scanContact(row)
	if err != nil {
		return nil, nil // not found is fine
	}
	return c, nil
}

// GetChecksum returns the stored checksum for a contact, or empty string if
// not found.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM contacts WHERE path = ?`, path).Scan(&cs)
	if err != nil {
		return "", nil // not found is fine
	}
	return cs, nil
}

var sortColumns = map[string]string{
	"":           "updated_at DESC",
	"updated_at": "updated_at DESC",
	"full_name":  "full_name ASC",
	"slug":       "slug ASC",
	"path":       "path ASC",
}

// ListContacts returns a page of contacts with an optional category filter.
func (db *DB) ListContacts(limit, offset int, category, sort string) ([]ContactRow, int, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	order, ok := sortColumns[sort]
	if !ok {
		order = sortColumns[""]
	}

	where := ""
	args := []any{}
	if category != "" {
		where = `WHERE categories LIKE ?`
		args = append(args, `%"`+category+`"%`)
	}

	var total int
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM contacts `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("index: count contacts: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT path, slug, uid, full_name, gender, org, nickname, categories, checksum, rev, updated_at
		FROM contacts %s ORDER BY %s LIMIT ? OFFSET ?
	`, where, order)
	rows, err := db.conn.Query(query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("index: list contacts: %w", err)
	}
	defer rows.Close()

	var out []ContactRow
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *c)
	}
	return out, total, rows.Err()
}

// Relations returns a contact's outgoing relationship edges.
func (db *DB) Relations(source string) ([]models.Relation, error) {
	return db.queryRelations(`SELECT source, target, kind, genderless FROM relations WHERE source = ?`, source)
}

// RelatedTo returns every relation whose target matches one of the given
// reference strings — the contacts that point at a given contact.
func (db *DB) RelatedTo(targets []string) ([]models.Relation, error) {
	if len(targets) == 0 {
		return nil, nil
	}
	placeholders := strings.Repeat("?,", len(targets)-1) + "?"
	args := make([]any, len(targets))
	for i, t := range targets {
		args[i] = t
	}
	return db.queryRelations(`SELECT source, target, kind, genderless FROM relations WHERE target IN (`+placeholders+`)`, args...)
}

// AllContacts returns every indexed contact row.
func (db *DB) AllContacts() ([]ContactRow, error) {
	rows, err := db.conn.Query(`
		SELECT path, slug, uid, full_name, gender, org, nickname, categories, checksum, rev, updated_at
		FROM contacts ORDER BY path
	`)
	if err != nil {
		return nil, fmt.Errorf("index: all contacts: %w", err)
	}
	defer rows.Close()

	var out []ContactRow
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// AllRelations returns every relationship edge in the index.
func (db *DB) AllRelations() ([]models.Relation, error) {
	return db.queryRelations(`SELECT source, target, kind, genderless FROM relations ORDER BY source`)
}

// PathByName resolves a display name to a contact file path. Empty string
// when no contact carries the name.
func (db *DB) PathByName(fullName string) (string, error) {
	var p string
	err := db.conn.QueryRow(`SELECT path FROM contacts WHERE full_name = ? OR slug = ? LIMIT 1`, fullName, fullName).Scan(&p)
	if err != nil {
		return "", nil
	}
	return p, nil
}

// PathByUID resolves a UID to a contact file path.
func (db *DB) PathByUID(uid string) (string, error) {
	var p string
	err := db.conn.QueryRow(`SELECT path FROM contacts WHERE uid = ? LIMIT 1`, uid).Scan(&p)
	if err != nil {
		return "", nil
	}
	return p, nil
}

// AllPaths returns every indexed contact path.
func (db *DB) AllPaths() (map[string]struct{}, error) {
	rows, err := db.conn.Query(`SELECT path FROM contacts`)
	if err != nil {
		return nil, fmt.Errorf("index: all paths: %w", err)
	}
	defer rows.Close()
	out := make(map[string]struct{})
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out[p] = struct{}{}
	}
	return out, rows.Err()
}

// AllChecksums returns path → checksum for every indexed contact.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM contacts`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

func (db *DB) queryRelations(query string, args ...any) ([]models.Relation, error) {
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("index: relations: %w", err)
	}
	defer rows.Close()

	var out []models.Relation
	for rows.Next() {
		var r models.Relation
		if err := rows.Scan(&r.Source, &r.Target, &r.Kind, &r.Genderless); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanContact(s scanner) (*ContactRow, error) {
	var c ContactRow
	var categoriesJSON string
	if err := s.Scan(&c.Path, &c.Slug, &c.UID, &c.FullName, &c.Gender, &c.Org, &c.Nickname,
		&categoriesJSON, &c.Checksum, &c.Rev, &c.UpdatedAt); err != nil {
		return nil, err
	}
	_ = json.Unmarshal([]byte(categoriesJSON), &c.Categories)
	return &c, nil
}
