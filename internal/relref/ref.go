// Package relref encodes and decodes contact references in the three
// namespaces used by RELATED values: urn:uuid:, uid:, and name:. This is a
// private convention layered on top of vCard's RELATED property and the
// literal prefixes must be preserved exactly for interoperability with
// stored data.
package relref

import (
	"strings"

	"github.com/google/uuid"
)

// Namespace identifies how a reference names its target.
type Namespace string

const (
	// NamespaceUUID targets a contact by a canonical UUID identifier.
	NamespaceUUID Namespace = "urn:uuid"
	// NamespaceUID targets a contact by a non-UUID identifier.
	NamespaceUID Namespace = "uid"
	// NamespaceName targets a contact by display name, when no identifier
	// exists.
	NamespaceName Namespace = "name"
)

// Ref is a decoded contact reference. Exactly one namespace applies.
type Ref struct {
	Namespace Namespace
	Value     string
}

// Make picks the namespace for a new reference: a structurally valid UUID
// identifier wins over any other identifier, which wins over the name.
func Make(identifier, name string) Ref {
	switch {
	case isCanonicalUUID(identifier):
		return Ref{Namespace: NamespaceUUID, Value: identifier}
	case identifier != "":
		return Ref{Namespace: NamespaceUID, Value: identifier}
	default:
		return Ref{Namespace: NamespaceName, Value: name}
	}
}

// Parse decodes a reference value. A value without a recognized namespace
// prefix yields (zero, false) — absence of a reference, not an error;
// callers decide whether that is malformed.
func Parse(s string) (Ref, bool) {
	for _, ns := range []Namespace{NamespaceUUID, NamespaceUID, NamespaceName} {
		if v, ok := strings.CutPrefix(s, string(ns)+":"); ok {
			return Ref{Namespace: ns, Value: v}, true
		}
	}
	return Ref{}, false
}

// String renders the reference with its literal namespace prefix.
func (r Ref) String() string {
	return string(r.Namespace) + ":" + r.Value
}

// isCanonicalUUID reports whether s matches the canonical 8-4-4-4-12 hex
// UUID grammar, case-insensitive. uuid.Validate also accepts braced, urn,
// and undashed forms; the length check pins it to the canonical one.
func isCanonicalUUID(s string) bool {
	return len(s) == 36 && uuid.Validate(s) == nil
}
