// Package contactservice implements the application operations over the
// contact vault: CRUD, search, graph building, relationship sync, and
// vCard import/export. Handlers (HTTP and MCP) stay thin and call into
// this package.
package contactservice

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kithhq/kith/internal/apperr"
	"github.com/kithhq/kith/internal/checksum"
	"github.com/kithhq/kith/internal/graph"
	"github.com/kithhq/kith/internal/index"
	"github.com/kithhq/kith/internal/models"
	"github.com/kithhq/kith/internal/relsync"
	"github.com/kithhq/kith/internal/storage"
	"github.com/kithhq/kith/internal/vcard"
)

// NamePrompter supplies a contact name interactively when a create request
// carries neither content nor a name. The default implementation fails; a
// UI-backed caller can plug in a real prompt.
type NamePrompter interface {
	PromptName(ctx context.Context) (given, family string, err error)
}

type noPrompter struct{}

func (noPrompter) PromptName(context.Context) (string, string, error) {
	return "", "", fmt.Errorf("contactservice: no name given and no prompter configured")
}

// Service wires the vault storage and the sqlite index behind the
// application operations.
type Service struct {
	store    storage.Provider
	db       index.ContactIndex
	logger   *slog.Logger
	prompter NamePrompter
}

// NewService creates a contact service.
func NewService(store storage.Provider, db index.ContactIndex, logger *slog.Logger) *Service {
	return &Service{store: store, db: db, logger: logger, prompter: noPrompter{}}
}

// SetPrompter replaces the name prompter used by CreateContact.
func (s *Service) SetPrompter(p NamePrompter) {
	if p != nil {
		s.prompter = p
	}
}

// ContactDetail is the full read model for one contact.
type ContactDetail struct {
	Path      string            `json:"path"`
	Slug      string            `json:"slug"`
	UID       string            `json:"uid,omitempty"`
	FullName  string            `json:"full_name"`
	Gender    string            `json:"gender,omitempty"`
	Checksum  string            `json:"checksum"`
	Rev       string            `json:"rev,omitempty"`
	Fields    map[string]string `json:"fields"`
	Relations []models.Relation `json:"relations,omitempty"`
	// RelatedBy lists edges from other contacts that point at this one.
	RelatedBy []models.Relation `json:"related_by,omitempty"`
	Raw       string            `json:"raw,omitempty"`
}

// ContactListItem is the summary row returned by list and search.
type ContactListItem struct {
	Path       string    `json:"path"`
	Slug       string    `json:"slug"`
	UID        string    `json:"uid,omitempty"`
	FullName   string    `json:"full_name"`
	Org        string    `json:"org,omitempty"`
	Categories []string  `json:"categories,omitempty"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// GetContact reads and decodes one contact, attaching its outgoing
// relations and the backreferences other contacts hold to it.
func (s *Service) GetContact(path string) (*ContactDetail, error) {
	data, err := s.store.Read(path)
	if err != nil {
		return nil, fmt.Errorf("contactservice: %w: %s", apperr.ErrNotFound, path)
	}

	slug, rec, ok := vcard.DecodeOne(string(data))
	if !ok {
		return nil, fmt.Errorf("contactservice: %s: %w: no vcard section", path, apperr.ErrMalformedInput)
	}

	detail := &ContactDetail{
		Path:     path,
		Slug:     slug,
		UID:      rec.First("UID"),
		FullName: rec.First("FN"),
		Gender:   rec.First("GENDER"),
		Checksum: checksum.Sum(data),
		Rev:      rec.First("REV"),
		Fields:   map[string]string(rec),
		Raw:      string(data),
	}
	if detail.FullName == "" {
		detail.FullName = slug
	}

	if rels, err := s.db.Relations(path); err == nil {
		detail.Relations = rels
	}
	if back, err := s.db.RelatedTo(refForms(detail.UID, detail.FullName, slug)); err == nil {
		detail.RelatedBy = back
	}
	return detail, nil
}

// refForms lists every reference string under which other contacts may
// point at this one.
func refForms(uid, fullName, slug string) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(r string) {
		if _, ok := seen[r]; !ok {
			seen[r] = struct{}{}
			out = append(out, r)
		}
	}
	if uid != "" {
		add("urn:uuid:" + uid)
		add("uid:" + uid)
	}
	if fullName != "" {
		add("name:" + fullName)
	}
	if slug != "" {
		add("name:" + slug)
	}
	return out
}

// CreateContact creates a contact file. When content is non-empty it must
// hold a decodable vCard; otherwise a minimal record is built from the
// given name (prompting via NamePrompter when the name is empty too). The
// file path is derived from the contact slug. An existing file at that
// path is a conflict.
func (s *Service) CreateContact(ctx context.Context, name, content string) (*ContactDetail, error) {
	var rec vcard.Record
	var slug string

	if content != "" {
		var ok bool
		slug, rec, ok = vcard.DecodeOne(content)
		if !ok {
			return nil, fmt.Errorf("contactservice: create: %w: no vcard section", apperr.ErrMalformedInput)
		}
	} else {
		if name == "" {
			given, family, err := s.prompter.PromptName(ctx)
			if err != nil {
				return nil, err
			}
			name = strings.TrimSpace(given + " " + family)
		}
		if name == "" {
			return nil, fmt.Errorf("contactservice: create: %w: empty name", apperr.ErrMalformedInput)
		}
		rec = vcard.Record{"FN": name}
		slug = name
	}

	if rec.First("UID") == "" {
		rec["UID"] = uuid.NewString()
	}
	if slug == "" {
		slug = vcard.Slug(rec)
	}
	path := slug + storage.VCardExt

	if cs, err := s.db.GetChecksum(path); err == nil && cs != "" {
		return nil, fmt.Errorf("contactservice: create %s: %w", path, apperr.ErrAlreadyExists)
	}

	text, err := vcard.EncodeContact(rec, name)
	if err != nil {
		return nil, fmt.Errorf("contactservice: create: %w", err)
	}
	data := []byte(text + "\n")

	if err := s.store.Write(path, data); err != nil {
		return nil, fmt.Errorf("contactservice: create: %w", err)
	}
	if err := index.IndexContact(s.db, path, data); err != nil {
		s.logger.Warn("create: index failed", slog.String("path", path), slog.String("error", err.Error()))
	}
	s.logger.Info("contact created", slog.String("path", path))
	return s.GetContact(path)
}

// UpdateContact replaces a contact's content. A non-empty ifMatch checksum
// must equal the stored file's current checksum, otherwise the update is a
// conflict.
func (s *Service) UpdateContact(path, content, ifMatch string) (*ContactDetail, error) {
	current, err := s.store.Read(path)
	if err != nil {
		return nil, fmt.Errorf("contactservice: %w: %s", apperr.ErrNotFound, path)
	}
	if ifMatch != "" && checksum.Sum(current) != ifMatch {
		return nil, fmt.Errorf("contactservice: update %s: %w: checksum mismatch", path, apperr.ErrConflict)
	}

	if _, _, ok := vcard.DecodeOne(content); !ok {
		return nil, fmt.Errorf("contactservice: update %s: %w: no vcard section", path, apperr.ErrMalformedInput)
	}

	data := []byte(content)
	if err := s.store.Write(path, data); err != nil {
		return nil, fmt.Errorf("contactservice: update: %w", err)
	}
	if err := index.IndexContact(s.db, path, data); err != nil {
		s.logger.Warn("update: index failed", slog.String("path", path), slog.String("error", err.Error()))
	}
	s.logger.Info("contact updated", slog.String("path", path))
	return s.GetContact(path)
}

// DeleteContact removes a contact file and its index entries. Other
// contacts' references to it are left in place and surface as unresolved
// graph edges.
func (s *Service) DeleteContact(path string) error {
	if err := s.store.Delete(path); err != nil {
		return fmt.Errorf("contactservice: %w: %s", apperr.ErrNotFound, path)
	}
	if err := s.db.DeleteContact(path); err != nil {
		s.logger.Warn("delete: index cleanup failed", slog.String("path", path), slog.String("error", err.Error()))
	}
	s.logger.Info("contact deleted", slog.String("path", path))
	return nil
}

// ListContacts returns a paged contact summary list.
func (s *Service) ListContacts(limit, offset int, category, sort string) ([]ContactListItem, int, error) {
	rows, total, err := s.db.ListContacts(limit, offset, category, sort)
	if err != nil {
		return nil, 0, fmt.Errorf("contactservice: list: %w", err)
	}
	out := make([]ContactListItem, 0, len(rows))
	for _, r := range rows {
		out = append(out, ContactListItem{
			Path:       r.Path,
			Slug:       r.Slug,
			UID:        r.UID,
			FullName:   r.FullName,
			Org:        r.Org,
			Categories: r.Categories,
			UpdatedAt:  r.UpdatedAt,
		})
	}
	return out, total, nil
}

// Search runs a free-text search over the index.
func (s *Service) Search(query string, limit int) ([]index.SearchResult, error) {
	results, err := s.db.Search(query, limit)
	if err != nil {
		return nil, fmt.Errorf("contactservice: search: %w", err)
	}
	return results, nil
}

// GraphSummary is the full relationship graph plus aggregate counts.
type GraphSummary struct {
	Nodes []graph.Node `json:"nodes"`
	Edges []graph.Edge `json:"edges"`
	Stats graph.Stats  `json:"stats"`
}

// BuildGraph assembles the relationship graph from the index: every
// contact becomes a node, every structured RELATED value an edge. Edge
// targets are resolved through the uid and name lookup tables; targets
// that resolve to no contact stay pending and are counted as unresolved.
func (s *Service) BuildGraph() (*GraphSummary, error) {
	rows, err := s.db.AllContacts()
	if err != nil {
		return nil, fmt.Errorf("contactservice: graph: %w", err)
	}
	rels, err := s.db.AllRelations()
	if err != nil {
		return nil, fmt.Errorf("contactservice: graph: %w", err)
	}

	nodes := make([]graph.Node, 0, len(rows))
	idByPath := make(map[string]string, len(rows))
	idByUID := make(map[string]string, len(rows))
	idByName := make(map[string]string, len(rows))
	for _, r := range rows {
		n := graph.Node{
			ID:       graph.GenerateID(r.UID, r.FullName),
			FullName: r.FullName,
			UID:      r.UID,
			Gender:   r.Gender,
		}
		nodes = append(nodes, n)
		idByPath[r.Path] = n.ID
		if r.UID != "" {
			idByUID[r.UID] = n.ID
		}
		if r.FullName != "" {
			idByName[r.FullName] = n.ID
		}
		if r.Slug != "" {
			idByName[r.Slug] = n.ID
		}
	}

	specs := make([]graph.EdgeSpec, 0, len(rels))
	for _, rel := range rels {
		specs = append(specs, graph.EdgeSpec{
			Source: idByPath[rel.Source],
			Target: resolveTarget(rel.Target, idByUID, idByName),
			Kind:   rel.Kind,
		})
	}

	g := graph.Build(nodes, specs)

	var edges []graph.Edge
	for _, n := range g.Nodes() {
		edges = append(edges, g.Edges(n.ID)...)
	}
	return &GraphSummary{Nodes: g.Nodes(), Edges: edges, Stats: g.Stats()}, nil
}

// resolveTarget maps a stored reference value to a node id when a matching
// contact exists. Unresolvable references pass through verbatim so they
// count as unresolved edges.
func resolveTarget(ref string, byUID, byName map[string]string) string {
	if v, ok := strings.CutPrefix(ref, "urn:uuid:"); ok {
		if id, found := byUID[v]; found {
			return id
		}
		return ref
	}
	if v, ok := strings.CutPrefix(ref, "uid:"); ok {
		if id, found := byUID[v]; found {
			return id
		}
		return ref
	}
	if v, ok := strings.CutPrefix(ref, "name:"); ok {
		if id, found := byName[v]; found {
			return id
		}
	}
	return ref
}

// SyncResult reports one relationship sync over a contact file.
type SyncResult struct {
	State    relsync.State `json:"state"`
	Applied  int           `json:"applied"`
	Warnings []string      `json:"warnings,omitempty"`
	Checksum string        `json:"checksum,omitempty"`
}

// SyncRelationships parses a free-text relationship list, merges the
// missing entries into the contact's structured RELATED fields, and (when
// anything changed) writes the contact back and re-indexes it. Parse
// warnings never fail the sync; a merge that produced warnings is reported
// as merged-with-warnings.
func (s *Service) SyncRelationships(path, freeText string) (*SyncResult, error) {
	data, err := s.store.Read(path)
	if err != nil {
		return nil, fmt.Errorf("contactservice: %w: %s", apperr.ErrNotFound, path)
	}
	_, rec, ok := vcard.DecodeOne(string(data))
	if !ok {
		return nil, fmt.Errorf("contactservice: sync %s: %w: no vcard section", path, apperr.ErrMalformedInput)
	}

	entries := relsync.ParseList(freeText)
	res := relsync.Sync(rec, entries, nil)

	out := &SyncResult{State: res.State, Applied: res.Applied, Warnings: res.Warnings}
	if !res.Changed {
		return out, nil
	}

	text, err := vcard.EncodeContact(res.Record, vcard.Slug(res.Record))
	if err != nil {
		return nil, fmt.Errorf("contactservice: sync %s: encode: %w", path, err)
	}
	merged := []byte(text + "\n")
	if err := s.store.Write(path, merged); err != nil {
		return nil, fmt.Errorf("contactservice: sync %s: write: %w", path, err)
	}
	if err := index.IndexContact(s.db, path, merged); err != nil {
		s.logger.Warn("sync: index failed", slog.String("path", path), slog.String("error", err.Error()))
		out.Warnings = append(out.Warnings, "index update failed: "+err.Error())
	}
	if len(out.Warnings) > 0 {
		out.State = relsync.StateMergedWithWarnings
	}
	out.Checksum = checksum.Sum(merged)
	s.logger.Info("relationships synced",
		slog.String("path", path),
		slog.Int("applied", res.Applied))
	return out, nil
}

// ImportResult reports a batch vCard import.
type ImportResult struct {
	Imported []string `json:"imported"`
	Errors   []string `json:"errors,omitempty"`
}

// ImportVCF splits a multi-contact vCard stream into one file per contact.
// A failing section is recorded and never aborts the rest of the batch.
func (s *Service) ImportVCF(text string) (*ImportResult, error) {
	res := &ImportResult{}
	for slug, rec := range vcard.Decode(text) {
		if slug == "" {
			res.Errors = append(res.Errors, "section with no derivable name skipped")
			continue
		}
		encoded, err := vcard.EncodeContact(rec, slug)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("%s: %v", slug, err))
			continue
		}
		path := slug + storage.VCardExt
		data := []byte(encoded + "\n")
		if err := s.store.Write(path, data); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("%s: %v", slug, err))
			continue
		}
		if err := index.IndexContact(s.db, path, data); err != nil {
			s.logger.Warn("import: index failed", slog.String("path", path), slog.String("error", err.Error()))
		}
		res.Imported = append(res.Imported, path)
	}
	s.logger.Info("import finished",
		slog.Int("imported", len(res.Imported)),
		slog.Int("errors", len(res.Errors)))
	return res, nil
}

// ExportAll encodes every vault contact into a single vCard stream.
// Per-contact encode failures are collected, not fatal.
func (s *Service) ExportAll() (string, []string, error) {
	rows, err := s.db.AllContacts()
	if err != nil {
		return "", nil, fmt.Errorf("contactservice: export: %w", err)
	}

	var items []vcard.EncodeItem
	var problems []string
	for _, r := range rows {
		data, err := s.store.Read(r.Path)
		if err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", r.Path, err))
			continue
		}
		_, rec, ok := vcard.DecodeOne(string(data))
		if !ok {
			problems = append(problems, fmt.Sprintf("%s: no vcard section", r.Path))
			continue
		}
		items = append(items, vcard.EncodeItem{Record: rec, DisplayName: r.FullName})
	}

	out, encErrs := vcard.EncodeAll(items)
	for _, e := range encErrs {
		problems = append(problems, e.Error())
	}
	return out, problems, nil
}
