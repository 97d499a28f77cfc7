package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/kithhq/kith/internal/contactservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
// vaultRoot is used to resolve the photos directory.
func NewRouter(svc *contactservice.Service, authEnabled bool, token string, sseHandler http.Handler, vaultRoot string) chi.Router {
	h := NewHandler(svc)
	ph := NewPhotoHandler(vaultRoot)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Contacts CRUD.
	r.Get("/contacts", h.ListContacts)
	r.Post("/contacts", h.CreateContact)
	r.Get("/contacts/*", h.GetContact)
	r.Put("/contacts/*", h.UpdateContact)
	r.Delete("/contacts/*", h.DeleteContact)

	// Relationship sync over the free-text list.
	r.Post("/relationships/sync/*", h.SyncRelationships)

	// Search.
	r.Get("/search", h.Search)

	// Graph.
	r.Get("/graph", h.Graph)

	// Batch import/export.
	r.Post("/import", h.Import)
	r.Get("/export", h.Export)

	// Photo upload (auth-protected).
	r.Post("/photos", ph.Upload)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
