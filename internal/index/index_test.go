package index_test

import (
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/kithhq/kith/internal/index"
	"github.com/kithhq/kith/internal/testutil"
)

func row(path, slug, uid, fullName string) index.ContactRow {
	return index.ContactRow{
		Path:      path,
		Slug:      slug,
		UID:       uid,
		FullName:  fullName,
		UpdatedAt: time.Now(),
	}
}

func TestUpsertAndGetContact(t *testing.T) {
	db := testutil.TestDB(t)

	r := row("jane-smith.vcf", "Jane Smith", "uid-1", "Jane Smith")
	r.Gender = "F"
	r.Categories = []string{"family", "book-club"}
	r.Checksum = "abc123"
	if err := db.UpsertContact(r, nil); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := db.GetContact("jane-smith.vcf")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil {
		t.Fatal("expected contact, got nil")
	}
	if got.FullName != "Jane Smith" || got.Gender != "F" {
		t.Errorf("unexpected row: %+v", got)
	}
	if len(got.Categories) != 2 || got.Categories[0] != "family" {
		t.Errorf("categories = %v", got.Categories)
	}

	cs, err := db.GetChecksum("jane-smith.vcf")
	if err != nil {
		t.Fatalf("checksum: %v", err)
	}
	if cs != "abc123" {
		t.Errorf("checksum = %q", cs)
	}
}

func TestGetContactMissing(t *testing.T) {
	db := testutil.TestDB(t)

	got, err := db.GetContact("nope.vcf")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil, got %+v", got)
	}
	cs, err := db.GetChecksum("nope.vcf")
	if err != nil || cs != "" {
		t.Errorf("checksum = %q, %v", cs, err)
	}
}

func TestUpsertReplacesRelations(t *testing.T) {
	db := testutil.TestDB(t)

	r := row("a.vcf", "A", "uid-a", "A")
	rels := []index.RelationRow{
		{Target: "name:Bob", Kind: "friend", Genderless: "friend"},
		{Target: "name:Carol", Kind: "mother", Genderless: "parent"},
	}
	if err := db.UpsertContact(r, rels); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	out, err := db.Relations("a.vcf")
	if err != nil {
		t.Fatalf("relations: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("got %d relations, want 2", len(out))
	}

	// Re-upsert with a single relation: old ones must be gone.
	if err := db.UpsertContact(r, rels[:1]); err != nil {
		t.Fatalf("re-upsert: %v", err)
	}
	out, err = db.Relations("a.vcf")
	if err != nil {
		t.Fatalf("relations: %v", err)
	}
	if len(out) != 1 || out[0].Target != "name:Bob" {
		t.Fatalf("relations after replace = %+v", out)
	}
}

func TestRelatedTo(t *testing.T) {
	db := testutil.TestDB(t)

	if err := db.UpsertContact(row("a.vcf", "A", "", "A"), []index.RelationRow{
		{Target: "name:Jane Smith", Kind: "parent", Genderless: "parent"},
	}); err != nil {
		t.Fatalf("upsert a: %v", err)
	}
	if err := db.UpsertContact(row("b.vcf", "B", "", "B"), []index.RelationRow{
		{Target: "uid:jane-1", Kind: "friend", Genderless: "friend"},
	}); err != nil {
		t.Fatalf("upsert b: %v", err)
	}

	out, err := db.RelatedTo([]string{"name:Jane Smith", "uid:jane-1", "urn:uuid:whatever"})
	if err != nil {
		t.Fatalf("related to: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("got %d backrefs, want 2", len(out))
	}

	out, err = db.RelatedTo(nil)
	if err != nil || out != nil {
		t.Errorf("empty targets: %v, %v", out, err)
	}
}

func TestListContactsPaginationAndFilter(t *testing.T) {
	db := testutil.TestDB(t)

	for _, name := range []string{"Alpha", "Beta", "Gamma"} {
		r := row(strings.ToLower(name)+".vcf", name, "", name)
		if name == "Beta" {
			r.Categories = []string{"work"}
		}
		if err := db.UpsertContact(r, nil); err != nil {
			t.Fatalf("upsert %s: %v", name, err)
		}
	}

	rows, total, err := db.ListContacts(2, 0, "", "full_name")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 3 {
		t.Errorf("total = %d, want 3", total)
	}
	if len(rows) != 2 || rows[0].FullName != "Alpha" {
		t.Errorf("page = %+v", rows)
	}

	rows, total, err = db.ListContacts(10, 0, "work", "")
	if err != nil {
		t.Fatalf("list filtered: %v", err)
	}
	if total != 1 || len(rows) != 1 || rows[0].FullName != "Beta" {
		t.Errorf("filtered = %+v (total %d)", rows, total)
	}
}

func TestDeleteContact(t *testing.T) {
	db := testutil.TestDB(t)

	if err := db.UpsertContact(row("x.vcf", "X", "", "X"), []index.RelationRow{
		{Target: "name:Y", Kind: "friend", Genderless: "friend"},
	}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := db.DeleteContact("x.vcf"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	got, _ := db.GetContact("x.vcf")
	if got != nil {
		t.Errorf("contact still present: %+v", got)
	}
	rels, _ := db.Relations("x.vcf")
	if len(rels) != 0 {
		t.Errorf("relations still present: %+v", rels)
	}
}

func TestPathLookups(t *testing.T) {
	db := testutil.TestDB(t)

	r := row("people/jane.vcf", "Jane Smith", "03a0e51f-d1aa-4385-8a53-e29025acd8af", "Jane Smith")
	if err := db.UpsertContact(r, nil); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	p, err := db.PathByName("Jane Smith")
	if err != nil || p != "people/jane.vcf" {
		t.Errorf("by name = %q, %v", p, err)
	}
	p, err = db.PathByUID("03a0e51f-d1aa-4385-8a53-e29025acd8af")
	if err != nil || p != "people/jane.vcf" {
		t.Errorf("by uid = %q, %v", p, err)
	}
	p, err = db.PathByName("Nobody")
	if err != nil || p != "" {
		t.Errorf("missing name = %q, %v", p, err)
	}
}

func TestSyncIndexesVaultAndRemovesStale(t *testing.T) {
	db := testutil.TestDB(t)
	store, _ := testutil.TestVault(t)
	logger := slog.New(slog.DiscardHandler)

	card := "BEGIN:VCARD\nVERSION:4.0\nFN:Jane Smith\nUID:jane-1\nEND:VCARD\n"
	if err := store.Write("jane.vcf", []byte(card)); err != nil {
		t.Fatalf("write: %v", err)
	}

	if err := index.Sync(db, store, logger); err != nil {
		t.Fatalf("sync: %v", err)
	}
	got, _ := db.GetContact("jane.vcf")
	if got == nil || got.FullName != "Jane Smith" {
		t.Fatalf("contact not indexed: %+v", got)
	}

	// Remove the file: a second sync must drop the row.
	if err := store.Delete("jane.vcf"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := index.Sync(db, store, logger); err != nil {
		t.Fatalf("second sync: %v", err)
	}
	got, _ = db.GetContact("jane.vcf")
	if got != nil {
		t.Errorf("stale contact survived sync: %+v", got)
	}
}

func TestIndexContactExtractsRelations(t *testing.T) {
	db := testutil.TestDB(t)

	card := strings.Join([]string{
		"BEGIN:VCARD",
		"VERSION:4.0",
		"FN:Alex Smith",
		"UID:alex-1",
		"RELATED;TYPE=mother:name:Jane Smith",
		"RELATED;TYPE=friend:urn:uuid:03a0e51f-d1aa-4385-8a53-e29025acd8af",
		"END:VCARD",
	}, "\n")

	if err := index.IndexContact(db, "alex.vcf", []byte(card)); err != nil {
		t.Fatalf("index: %v", err)
	}

	rels, err := db.Relations("alex.vcf")
	if err != nil {
		t.Fatalf("relations: %v", err)
	}
	if len(rels) != 2 {
		t.Fatalf("got %d relations, want 2: %+v", len(rels), rels)
	}
	byKind := map[string]string{}
	for _, r := range rels {
		byKind[r.Kind] = r.Target
	}
	if byKind["mother"] != "name:Jane Smith" {
		t.Errorf("mother target = %q", byKind["mother"])
	}
	if byKind["friend"] != "urn:uuid:03a0e51f-d1aa-4385-8a53-e29025acd8af" {
		t.Errorf("friend target = %q", byKind["friend"])
	}
	for _, r := range rels {
		if r.Kind == "mother" && r.Genderless != "parent" {
			t.Errorf("mother genderless = %q, want parent", r.Genderless)
		}
	}
}

func TestIndexContactMalformed(t *testing.T) {
	db := testutil.TestDB(t)
	if err := index.IndexContact(db, "bad.vcf", []byte("not a vcard")); err == nil {
		t.Fatal("expected error for malformed input")
	}
}
