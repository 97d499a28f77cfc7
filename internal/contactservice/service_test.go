package contactservice_test

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/kithhq/kith/internal/apperr"
	"github.com/kithhq/kith/internal/contactservice"
	"github.com/kithhq/kith/internal/index"
	"github.com/kithhq/kith/internal/storage"
	"github.com/kithhq/kith/internal/testutil"
)

func newService(t *testing.T) (*contactservice.Service, *storage.FS, *index.DB) {
	t.Helper()
	db := testutil.TestDB(t)
	store, _ := testutil.TestVault(t)
	svc := contactservice.NewService(store, db, slog.New(slog.DiscardHandler))
	return svc, store, db
}

const janeCard = `BEGIN:VCARD
VERSION:4.0
FN:Jane Smith
N:Smith;Jane;;;
UID:03a0e51f-d1aa-4385-8a53-e29025acd8af
GENDER:F
EMAIL:jane@example.com
END:VCARD
`

func TestCreateFromContent(t *testing.T) {
	svc, store, _ := newService(t)

	detail, err := svc.CreateContact(context.Background(), "", janeCard)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if detail.Path != "Smith Jane.vcf" {
		t.Errorf("path = %q", detail.Path)
	}
	if detail.UID != "03a0e51f-d1aa-4385-8a53-e29025acd8af" {
		t.Errorf("uid = %q", detail.UID)
	}
	if _, err := store.Read(detail.Path); err != nil {
		t.Errorf("file not written: %v", err)
	}
}

func TestCreateFromNameGeneratesUID(t *testing.T) {
	svc, _, _ := newService(t)

	detail, err := svc.CreateContact(context.Background(), "Alex Smith", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if detail.FullName != "Alex Smith" {
		t.Errorf("full name = %q", detail.FullName)
	}
	if detail.UID == "" {
		t.Error("expected generated UID")
	}
	if !strings.Contains(detail.Raw, "VERSION:4.0") {
		t.Errorf("raw missing version: %q", detail.Raw)
	}
}

func TestCreateConflict(t *testing.T) {
	svc, _, _ := newService(t)

	if _, err := svc.CreateContact(context.Background(), "Alex Smith", ""); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := svc.CreateContact(context.Background(), "Alex Smith", "")
	if !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Errorf("err = %v, want ErrAlreadyExists", err)
	}
}

func TestCreateEmptyWithoutPrompter(t *testing.T) {
	svc, _, _ := newService(t)
	if _, err := svc.CreateContact(context.Background(), "", ""); err == nil {
		t.Fatal("expected error without name or prompter")
	}
}

type fixedPrompter struct{ given, family string }

func (p fixedPrompter) PromptName(context.Context) (string, string, error) {
	return p.given, p.family, nil
}

func TestCreatePromptsForName(t *testing.T) {
	svc, _, _ := newService(t)
	svc.SetPrompter(fixedPrompter{given: "Robin", family: "Doe"})

	detail, err := svc.CreateContact(context.Background(), "", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if detail.FullName != "Robin Doe" {
		t.Errorf("full name = %q", detail.FullName)
	}
}

func TestUpdateChecksumGuard(t *testing.T) {
	svc, _, _ := newService(t)

	detail, err := svc.CreateContact(context.Background(), "", janeCard)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated := strings.Replace(detail.Raw, "jane@example.com", "jane@work.example", 1)

	_, err = svc.UpdateContact(detail.Path, updated, "wrong-checksum")
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}

	after, err := svc.UpdateContact(detail.Path, updated, detail.Checksum)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !strings.Contains(after.Raw, "jane@work.example") {
		t.Errorf("update not applied: %q", after.Raw)
	}
}

func TestDeleteContact(t *testing.T) {
	svc, _, db := newService(t)

	detail, err := svc.CreateContact(context.Background(), "", janeCard)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.DeleteContact(detail.Path); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.GetContact(detail.Path); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("get after delete = %v, want ErrNotFound", err)
	}
	row, _ := db.GetContact(detail.Path)
	if row != nil {
		t.Errorf("index row survived delete: %+v", row)
	}
}

func TestGetContactBackrefs(t *testing.T) {
	svc, _, _ := newService(t)

	jane, err := svc.CreateContact(context.Background(), "", janeCard)
	if err != nil {
		t.Fatalf("create jane: %v", err)
	}

	alexCard := strings.Join([]string{
		"BEGIN:VCARD",
		"VERSION:4.0",
		"FN:Alex Smith",
		"UID:alex-1",
		"RELATED;TYPE=mother:name:Jane Smith",
		"END:VCARD",
	}, "\n")
	if _, err := svc.CreateContact(context.Background(), "", alexCard); err != nil {
		t.Fatalf("create alex: %v", err)
	}

	got, err := svc.GetContact(jane.Path)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.RelatedBy) != 1 {
		t.Fatalf("related_by = %+v, want one backref", got.RelatedBy)
	}
	if got.RelatedBy[0].Kind != "mother" || got.RelatedBy[0].Genderless != "parent" {
		t.Errorf("backref = %+v", got.RelatedBy[0])
	}
}

func TestBuildGraphResolvesAcrossNamespaces(t *testing.T) {
	svc, _, _ := newService(t)

	if _, err := svc.CreateContact(context.Background(), "", janeCard); err != nil {
		t.Fatalf("create jane: %v", err)
	}
	alexCard := strings.Join([]string{
		"BEGIN:VCARD",
		"VERSION:4.0",
		"FN:Alex Smith",
		"UID:alex-1",
		"RELATED;TYPE=mother:urn:uuid:03a0e51f-d1aa-4385-8a53-e29025acd8af",
		"RELATED;TYPE=friend:name:Nobody Known",
		"END:VCARD",
	}, "\n")
	if _, err := svc.CreateContact(context.Background(), "", alexCard); err != nil {
		t.Fatalf("create alex: %v", err)
	}

	summary, err := svc.BuildGraph()
	if err != nil {
		t.Fatalf("graph: %v", err)
	}
	if summary.Stats.Nodes != 2 {
		t.Errorf("nodes = %d, want 2", summary.Stats.Nodes)
	}
	if summary.Stats.Edges != 1 {
		t.Errorf("edges = %d, want 1 (mother)", summary.Stats.Edges)
	}
	if summary.Stats.Unresolved != 1 {
		t.Errorf("unresolved = %d, want 1 (friend)", summary.Stats.Unresolved)
	}
	if len(summary.Edges) == 1 && summary.Edges[0].Genderless != "parent" {
		t.Errorf("edge genderless = %q", summary.Edges[0].Genderless)
	}
}

func TestSyncRelationships(t *testing.T) {
	svc, _, db := newService(t)

	detail, err := svc.CreateContact(context.Background(), "", janeCard)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	res, err := svc.SyncRelationships(detail.Path, "- parent [[Alex Smith]]\n- friend: Robin Doe\n")
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if res.Applied != 2 {
		t.Errorf("applied = %d, want 2", res.Applied)
	}

	rels, err := db.Relations(detail.Path)
	if err != nil {
		t.Fatalf("relations: %v", err)
	}
	if len(rels) != 2 {
		t.Fatalf("indexed relations = %+v", rels)
	}

	// Second run over the same list must be a no-op.
	res, err = svc.SyncRelationships(detail.Path, "- parent [[Alex Smith]]\n- friend: Robin Doe\n")
	if err != nil {
		t.Fatalf("second sync: %v", err)
	}
	if res.Applied != 0 || res.State != "noop" {
		t.Errorf("second sync = %+v, want noop", res)
	}
}

func TestImportAndExport(t *testing.T) {
	svc, _, _ := newService(t)

	stream := strings.Join([]string{
		"BEGIN:VCARD",
		"VERSION:4.0",
		"FN:Jane Smith",
		"UID:jane-1",
		"END:VCARD",
		"BEGIN:VCARD",
		"VERSION:4.0",
		"FN:Alex Smith",
		"UID:alex-1",
		"END:VCARD",
	}, "\n")

	res, err := svc.ImportVCF(stream)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(res.Imported) != 2 || len(res.Errors) != 0 {
		t.Fatalf("import result = %+v", res)
	}

	out, problems, err := svc.ExportAll()
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if len(problems) != 0 {
		t.Errorf("export problems: %v", problems)
	}
	if strings.Count(out, "BEGIN:VCARD") != 2 {
		t.Errorf("export = %q", out)
	}
	if !strings.Contains(out, "FN:Jane Smith") || !strings.Contains(out, "FN:Alex Smith") {
		t.Errorf("export missing contacts: %q", out)
	}
}
