package mcpserver

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/kithhq/kith/internal/contactservice"
	"github.com/kithhq/kith/internal/index"
	"github.com/kithhq/kith/internal/storage"
)

const janeCard = "BEGIN:VCARD\nVERSION:4.0\nFN:Jane Smith\nUID:jane-1\nEND:VCARD"

func testServer(t *testing.T) (*Server, storage.Provider) {
	t.Helper()

	vaultDir := t.TempDir()
	store, err := storage.NewFS(vaultDir)
	if err != nil {
		t.Fatal(err)
	}

	dbFile, err := os.CreateTemp("", "kith-mcp-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	svc := contactservice.NewService(store, db, slog.New(slog.DiscardHandler))
	srv := New(svc, store, db)
	return srv, store
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go doesn't expose a direct "call tool" test helper, so we call the
	// handler functions directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "search_contacts":
		result, err = srv.searchContacts(ctx, req)
	case "read_contact":
		result, err = srv.readContact(ctx, req)
	case "create_contact":
		result, err = srv.createContact(ctx, req)
	case "list_contacts":
		result, err = srv.listContacts(ctx, req)
	case "list_relationships":
		result, err = srv.listRelationships(ctx, req)
	case "sync_relationships":
		result, err = srv.syncRelationships(ctx, req)
	case "get_vcard_contract":
		result, err = srv.getVCardContract(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestCreateAndReadContact(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "create_contact", map[string]interface{}{
		"content": janeCard,
	})
	text := resultText(r)
	if text != "created: Jane Smith.vcf" {
		t.Errorf("create result = %q", text)
	}

	r = callTool(t, srv, "read_contact", map[string]interface{}{
		"path": "Jane Smith.vcf",
	})
	text = resultText(r)
	if !strings.Contains(text, "FN:Jane Smith") {
		t.Errorf("read result = %q", text)
	}
}

func TestCreateContactFromName(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "create_contact", map[string]interface{}{
		"name": "Alex Smith",
	})
	if r.IsError {
		t.Fatalf("create errored: %s", resultText(r))
	}
	if resultText(r) != "created: Alex Smith.vcf" {
		t.Errorf("create result = %q", resultText(r))
	}
}

func TestListContacts(t *testing.T) {
	srv, store := testServer(t)
	_ = store.Write("a.vcf", []byte(janeCard))
	_ = store.Write("b.vcf", []byte(janeCard))

	r := callTool(t, srv, "list_contacts", map[string]interface{}{})
	text := resultText(r)
	if text == "" {
		t.Error("list returned empty")
	}
}

func TestReadContactMissing(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "read_contact", map[string]interface{}{"path": "nope.vcf"})
	if !r.IsError {
		t.Error("expected error for missing contact")
	}
}

func TestSyncAndListRelationships(t *testing.T) {
	srv, _ := testServer(t)

	_ = callTool(t, srv, "create_contact", map[string]interface{}{"content": janeCard})

	r := callTool(t, srv, "sync_relationships", map[string]interface{}{
		"path": "Jane Smith.vcf",
		"text": "- parent [[Alex Smith]]",
	})
	if r.IsError {
		t.Fatalf("sync errored: %s", resultText(r))
	}
	if !strings.Contains(resultText(r), `"applied": 1`) {
		t.Errorf("sync result = %q", resultText(r))
	}

	r = callTool(t, srv, "list_relationships", map[string]interface{}{
		"path": "Jane Smith.vcf",
	})
	text := resultText(r)
	if !strings.Contains(text, "parent: name:Alex Smith") {
		t.Errorf("relationships = %q", text)
	}
	if !strings.Contains(text, "reciprocal: child") {
		t.Errorf("missing reciprocal hint: %q", text)
	}
}

func TestGetVCardContract(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "get_vcard_contract", map[string]interface{}{})
	text := resultText(r)
	if !strings.Contains(text, "BEGIN:VCARD") || !strings.Contains(text, "urn:uuid:") {
		t.Errorf("contract missing expected sections: %q", text)
	}
}
