package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/kithhq/kith/internal/apperr"
	"github.com/kithhq/kith/internal/contactservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc *contactservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *contactservice.Service) *Handler {
	return &Handler{svc: svc}
}

// contactPath extracts the contact path from the URL (everything after
// /api/contacts/). Supports encoded slashes from OpenAPI clients
// (e.g. people%2Fjane.vcf).
func contactPath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// ListContacts handles GET /api/contacts.
//
//	@Summary		List contacts with optional pagination and filtering
//	@Tags			contacts
//	@Produce		json
//	@Param			limit		query		int		false	"Page size"
//	@Param			offset		query		int		false	"Page offset"
//	@Param			category	query		string	false	"Filter by category"
//	@Param			sort		query		string	false	"Sort field"	Enums(updated_at, full_name, slug, path)
//	@Success		200			{object}	ContactListResponse
//	@Security		BearerAuth
//	@Router			/contacts [get]
func (h *Handler) ListContacts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	category := q.Get("category")
	sort := q.Get("sort")

	items, total, err := h.svc.ListContacts(limit, offset, category, sort)
	if err != nil {
		slog.Error("list contacts failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"contacts": items,
		"total":    total,
	})
}

// GetContact handles GET /api/contacts/*.
//
//	@Summary		Get a single contact by path
//	@Tags			contacts
//	@Produce		json
//	@Param			path	path		string	true	"Contact path"
//	@Success		200		{object}	ContactDetail
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/contacts/{path} [get]
func (h *Handler) GetContact(w http.ResponseWriter, r *http.Request) {
	path := contactPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	contact, err := h.svc.GetContact(path)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		case errors.Is(err, apperr.ErrMalformedInput):
			writeJSON(w, http.StatusUnprocessableEntity, errorBody("malformed contact file"))
		default:
			slog.Error("get contact failed", slog.String("path", path), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, contact)
}

// CreateContact handles POST /api/contacts.
//
//	@Summary		Create a new contact
//	@Tags			contacts
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateContactRequest	true	"Contact to create"
//	@Success		201		{object}	ContactDetail
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/contacts [post]
func (h *Handler) CreateContact(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	var req CreateContactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Name == "" && req.Content == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("name or content is required"))
		return
	}
	contact, err := h.svc.CreateContact(r.Context(), req.Name, req.Content)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrAlreadyExists):
			writeJSON(w, http.StatusConflict, errorBody("contact already exists"))
		case errors.Is(err, apperr.ErrMalformedInput):
			writeJSON(w, http.StatusBadRequest, errorBody("malformed vcard content"))
		default:
			slog.Error("create contact failed", slog.String("name", req.Name), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusCreated, contact)
}

// UpdateContact handles PUT /api/contacts/*.
//
//	@Summary		Update a contact with optimistic concurrency
//	@Tags			contacts
//	@Accept			json
//	@Produce		json
//	@Param			path		path	string					true	"Contact path"
//	@Param			If-Match	header	string					false	"SHA-256 checksum for optimistic concurrency"
//	@Param			body		body	UpdateContactRequest	true	"Updated content"
//	@Success		200			{object}	ContactDetail
//	@Failure		400			{object}	errResponse
//	@Failure		404			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/contacts/{path} [put]
func (h *Handler) UpdateContact(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	path := contactPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read body"))
		return
	}

	var req UpdateContactRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Content == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("content is required"))
		return
	}

	ifMatch := r.Header.Get("If-Match")
	// Strip surrounding quotes if present (standard ETag format).
	ifMatch = strings.Trim(ifMatch, `"`)

	contact, err := h.svc.UpdateContact(path, req.Content, ifMatch)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		case errors.Is(err, apperr.ErrConflict):
			writeJSON(w, http.StatusConflict, errorBody("checksum mismatch"))
		case errors.Is(err, apperr.ErrMalformedInput):
			writeJSON(w, http.StatusBadRequest, errorBody("malformed vcard content"))
		default:
			slog.Error("update contact failed", slog.String("path", path), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, contact)
}

// DeleteContact handles DELETE /api/contacts/*.
//
//	@Summary		Delete a contact
//	@Tags			contacts
//	@Param			path	path	string	true	"Contact path"
//	@Success		204		"Contact deleted"
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/contacts/{path} [delete]
func (h *Handler) DeleteContact(w http.ResponseWriter, r *http.Request) {
	path := contactPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	if err := h.svc.DeleteContact(path); err != nil {
		slog.Error("delete contact failed", slog.String("path", path), slog.String("error", err.Error()))
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search across contacts
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(q, limit)
	if err != nil {
		slog.Error("search failed", slog.String("query", q), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"results": results,
	})
}

// Graph handles GET /api/graph.
//
//	@Summary		Get the relationship graph
//	@Tags			graph
//	@Produce		json
//	@Success		200	{object}	GraphResponse
//	@Security		BearerAuth
//	@Router			/graph [get]
func (h *Handler) Graph(w http.ResponseWriter, r *http.Request) {
	summary, err := h.svc.BuildGraph()
	if err != nil {
		slog.Error("graph failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// SyncRelationships handles POST /api/relationships/sync/*.
//
//	@Summary		Merge a free-text relationship list into a contact
//	@Tags			relationships
//	@Accept			json
//	@Produce		json
//	@Param			path	path		string						true	"Contact path"
//	@Param			body	body		SyncRelationshipsRequest	true	"Relationship list"
//	@Success		200		{object}	contactservice.SyncResult
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/relationships/sync/{path} [post]
func (h *Handler) SyncRelationships(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	path := contactPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	var req SyncRelationshipsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	res, err := h.svc.SyncRelationships(path, req.Text)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		case errors.Is(err, apperr.ErrMalformedInput):
			writeJSON(w, http.StatusUnprocessableEntity, errorBody("malformed contact file"))
		default:
			slog.Error("sync relationships failed", slog.String("path", path), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Import handles POST /api/import.
//
//	@Summary		Import a multi-contact vCard stream
//	@Tags			contacts
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ImportRequest	true	"vCard stream"
//	@Success		200		{object}	contactservice.ImportResult
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/import [post]
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 50<<20)
	var req ImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Content == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("content is required"))
		return
	}
	res, err := h.svc.ImportVCF(req.Content)
	if err != nil {
		slog.Error("import failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Export handles GET /api/export.
//
//	@Summary		Export every contact as one vCard stream
//	@Tags			contacts
//	@Produce		plain
//	@Success		200	{string}	string
//	@Security		BearerAuth
//	@Router			/export [get]
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	out, problems, err := h.svc.ExportAll()
	if err != nil {
		slog.Error("export failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	for _, p := range problems {
		slog.Warn("export: contact skipped", slog.String("problem", p))
	}
	w.Header().Set("X-Export-Problems", strconv.Itoa(len(problems)))
	w.Header().Set("Content-Type", "text/vcard; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="contacts.vcf"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(out))
}
