package index

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kithhq/kith/internal/apperr"
	"github.com/kithhq/kith/internal/checksum"
	"github.com/kithhq/kith/internal/relation"
	"github.com/kithhq/kith/internal/storage"
	"github.com/kithhq/kith/internal/vcard"
)

// Sync walks the vault and brings the index up to date:
//   - new/changed files are decoded and upserted
//   - files removed from disk are deleted from the index
func Sync(db ContactIndex, store storage.Provider, logger *slog.Logger) error {
	metas, err := store.List("")
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.Path] = struct{}{}

		if checksums[m.Path] == m.Checksum {
			continue
		}

		data, err := store.Read(m.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		if err := IndexContact(db, m.Path, data); err != nil {
			logger.Warn("sync: index failed", slog.String("path", m.Path), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("path", m.Path))
		}
	}

	// Remove stale entries.
	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if err := db.DeleteContact(p); err != nil {
				logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("path", p))
			}
		}
	}

	return nil
}

// IndexContact decodes the first vCard section in data and upserts it.
// Files without a complete section are malformed input.
func IndexContact(db ContactIndex, path string, data []byte) error {
	slug, rec, ok := vcard.DecodeOne(string(data))
	if !ok {
		return fmt.Errorf("index %s: %w: no vcard section", path, apperr.ErrMalformedInput)
	}
	row := ContactRowFromRecord(path, slug, rec)
	row.Checksum = checksum.Sum(data)
	row.UpdatedAt = time.Now()
	return db.UpsertContact(row, RelationsFromRecord(rec))
}

// ContactRowFromRecord projects a decoded record onto an index row.
func ContactRowFromRecord(path, slug string, rec vcard.Record) ContactRow {
	fullName := rec.First("FN")
	if fullName == "" {
		fullName = slug
	}
	var categories []string
	for _, c := range strings.Split(rec.First("CATEGORIES"), ",") {
		if c = strings.TrimSpace(c); c != "" {
			categories = append(categories, c)
		}
	}
	return ContactRow{
		Path:       path,
		Slug:       slug,
		UID:        rec.First("UID"),
		FullName:   fullName,
		Gender:     rec.First("GENDER"),
		Org:        rec.First("ORG"),
		Nickname:   rec.First("NICKNAME"),
		Categories: categories,
		Rev:        rec.First("REV"),
	}
}

// RelationsFromRecord extracts every structured RELATED field as an edge
// row. Values are kept verbatim — decoding the reference namespace is the
// consumer's concern.
func RelationsFromRecord(rec vcard.Record) []RelationRow {
	var out []RelationRow
	for key, value := range rec {
		k := vcard.ParseKey(key)
		if k.Prop != "RELATED" || k.Subfield != "" {
			continue
		}
		out = append(out, RelationRow{
			Target:     value,
			Kind:       k.Type,
			Genderless: relation.Normalize(k.Type),
		})
	}
	return out
}
