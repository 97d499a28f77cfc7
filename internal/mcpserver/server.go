// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Kith tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kithhq/kith/internal/contactservice"
	"github.com/kithhq/kith/internal/index"
	"github.com/kithhq/kith/internal/relation"
	"github.com/kithhq/kith/internal/storage"
)

// Server wraps the MCP server with Kith tools.
type Server struct {
	mcp   *server.MCPServer
	svc   *contactservice.Service
	store storage.Provider
	db    index.ContactIndex
}

// New creates a new MCP server with all Kith tools registered.
func New(svc *contactservice.Service, store storage.Provider, db index.ContactIndex) *Server {
	s := &Server{svc: svc, store: store, db: db}

	s.mcp = server.NewMCPServer(
		"Kith",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_contacts",
		mcp.WithDescription("Full-text search through contact names, nicknames, organizations, and categories."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchContacts)

	s.mcp.AddTool(mcp.NewTool("read_contact",
		mcp.WithDescription("Read the raw vCard content of a contact."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the contact (e.g. Jane Smith.vcf)")),
	), s.readContact)

	s.mcp.AddTool(mcp.NewTool("create_contact",
		mcp.WithDescription("Create a new contact. Content MUST be a vCard 4.0 section "+
			"(BEGIN:VCARD ... END:VCARD). Read the contract first via the "+
			"get_vcard_contract tool or the kith://vcard-format resource. "+
			"Alternatively give only a name and a minimal contact is created."),
		mcp.WithString("name", mcp.Description("Contact display name (used when content is empty)")),
		mcp.WithString("content", mcp.Description("vCard content following the Kith vCard format contract")),
	), s.createContact)

	s.mcp.AddTool(mcp.NewTool("get_vcard_contract",
		mcp.WithDescription("Returns the canonical Kith vCard format contract. "+
			"Call this before creating or updating contacts to ensure correct structure."),
	), s.getVCardContract)

	s.mcp.AddTool(mcp.NewTool("list_contacts",
		mcp.WithDescription("List all contacts or contacts in a specific folder."),
		mcp.WithString("folder", mcp.Description("Optional folder to list (empty for all)")),
	), s.listContacts)

	s.mcp.AddTool(mcp.NewTool("list_relationships",
		mcp.WithDescription("List a contact's relationships: outgoing edges plus the contacts that reference it."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path of the contact")),
	), s.listRelationships)

	s.mcp.AddTool(mcp.NewTool("sync_relationships",
		mcp.WithDescription("Merge a free-text relationship list (one '- kind [[Name]]' item per line) "+
			"into a contact's structured RELATED fields. The merge is additive and idempotent."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path of the contact")),
		mcp.WithString("text", mcp.Required(), mcp.Description("Free-text relationship list")),
	), s.syncRelationships)

	// Resource: vCard format contract.
	s.mcp.AddResource(
		mcp.NewResource("kith://vcard-format", "vCard Format Contract",
			mcp.WithResourceDescription("Canonical vCard 4.0 contact format that all contacts must follow."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readVCardFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) searchContacts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.db.Search(query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readContact(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, err := s.store.Read(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) createContact(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := ""
	if v, err := req.RequireString("name"); err == nil {
		name = v
	}
	content := ""
	if v, err := req.RequireString("content"); err == nil {
		content = v
	}
	if name == "" && content == "" {
		return mcp.NewToolResultError("either name or content is required"), nil
	}

	detail, err := s.svc.CreateContact(ctx, name, content)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s", detail.Path)), nil
}

func (s *Server) listContacts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	folder := ""
	if f, err := req.RequireString("folder"); err == nil {
		folder = f
	}

	metas, err := s.store.List(folder)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var paths []string
	for _, m := range metas {
		paths = append(paths, m.Path)
	}
	return mcp.NewToolResultText(strings.Join(paths, "\n")), nil
}

func (s *Server) listRelationships(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	detail, err := s.svc.GetContact(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	for _, r := range detail.Relations {
		line := fmt.Sprintf("-> %s: %s", r.Kind, r.Target)
		if rec, ok := relation.Reciprocal(r.Kind); ok {
			line += fmt.Sprintf(" (reciprocal: %s)", rec)
		}
		b.WriteString(line + "\n")
	}
	for _, r := range detail.RelatedBy {
		b.WriteString(fmt.Sprintf("<- %s from %s\n", r.Kind, r.Source))
	}
	if b.Len() == 0 {
		return mcp.NewToolResultText("no relationships found"), nil
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) syncRelationships(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.svc.SyncRelationships(path, text)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(res, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getVCardContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(VCardFormatContract), nil
}

func (s *Server) readVCardFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "kith://vcard-format",
			MIMEType: "text/markdown",
			Text:     VCardFormatContract,
		},
	}, nil
}
