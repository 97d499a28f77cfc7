// Package models defines the domain types for kith.
package models

import "time"

// Contact represents a parsed vCard file in the vault.
type Contact struct {
	Path      string            `json:"path"`
	Slug      string            `json:"slug,omitempty"`
	FullName  string            `json:"full_name,omitempty"`
	UID       string            `json:"uid,omitempty"`
	Gender    string            `json:"gender,omitempty"`
	Record    map[string]string `json:"record,omitempty"`
	Checksum  string            `json:"checksum"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// ContactMetadata is a lightweight representation returned by list operations.
type ContactMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Relation is a directed relationship edge between a contact file and a
// reference (urn:uuid:, uid:, or name: form).
type Relation struct {
	Source     string `json:"source"`
	Target     string `json:"target"`
	Kind       string `json:"kind"`
	Genderless string `json:"genderless"`
}
