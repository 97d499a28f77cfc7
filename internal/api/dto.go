package api

import (
	"github.com/kithhq/kith/internal/contactservice"
	"github.com/kithhq/kith/internal/index"
)

// CreateContactRequest is the request body for creating a contact. Either
// a raw vCard in content or a plain name must be given.
type CreateContactRequest struct {
	Name    string `json:"name,omitempty" example:"Jane Smith"`
	Content string `json:"content,omitempty" example:"BEGIN:VCARD\nVERSION:4.0\nFN:Jane Smith\nEND:VCARD"`
}

// UpdateContactRequest is the request body for updating a contact.
type UpdateContactRequest struct {
	Content string `json:"content" validate:"required"`
}

// SyncRelationshipsRequest carries the free-text relationship list to merge
// into a contact's structured fields.
type SyncRelationshipsRequest struct {
	Text string `json:"text" example:"- parent [[Alex Smith]]" validate:"required"`
}

// ContactDetail is the full contact response type (aliased from the domain layer).
type ContactDetail = contactservice.ContactDetail

// ContactListItem is a lightweight item in a list response (aliased from the domain layer).
type ContactListItem = contactservice.ContactListItem

// ContactListResponse wraps paginated contact listings.
type ContactListResponse struct {
	Contacts []ContactListItem `json:"contacts" validate:"required"`
	Total    int               `json:"total" example:"42" validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []index.SearchResult `json:"results" validate:"required"`
}

// GraphResponse wraps the relationship graph.
type GraphResponse = contactservice.GraphSummary

// ImportRequest carries a multi-contact vCard stream.
type ImportRequest struct {
	Content string `json:"content" validate:"required"`
}

// PhotoUploadResponse is returned after a successful photo upload.
type PhotoUploadResponse struct {
	Filename string `json:"filename" example:"jane.jpg" validate:"required"`
	Size     int64  `json:"size" example:"12345" validate:"required"`
	URL      string `json:"url" example:"/photos/jane.jpg" validate:"required"`
}
