package vcard

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// EncodeItem pairs a record with the display name used to synthesize FN when
// the record carries none.
type EncodeItem struct {
	Record      Record
	DisplayName string
}

// EncodeError reports one failed item in a batch encode.
type EncodeError struct {
	DisplayName string
	Err         error
}

func (e EncodeError) Error() string {
	return fmt.Sprintf("encode %q: %v", e.DisplayName, e.Err)
}

// ErrEmptyRecord is returned when a record has no fields and no display name
// to synthesize from.
var ErrEmptyRecord = errors.New("vcard: empty record")

// EncodeAll encodes every item and joins the successful sections. A failing
// item never aborts the batch: its error is collected and the remaining
// items are still encoded.
func EncodeAll(items []EncodeItem) (string, []EncodeError) {
	var sections []string
	var errs []EncodeError
	for _, it := range items {
		s, err := EncodeContact(it.Record, it.DisplayName)
		if err != nil {
			errs = append(errs, EncodeError{DisplayName: it.DisplayName, Err: err})
			continue
		}
		sections = append(sections, s)
	}
	return strings.Join(sections, "\n"), errs
}

// EncodeContact serializes one record to vCard 4.0 text. Composite field
// groups are re-assembled into single lines in schema order, TYPE parameters
// are re-attached, and an FN line is synthesized from displayName (or the
// record slug) when the record has none. Output field order is VERSION
// first, then lines sorted by key, so equal logical content always encodes
// identically.
func EncodeContact(rec Record, displayName string) (string, error) {
	if len(rec) == 0 && displayName == "" {
		return "", ErrEmptyRecord
	}

	type entry struct {
		sortKey string
		line    string
	}
	var entries []entry

	// groupID → subfield → value, for composite re-assembly.
	groups := make(map[string]map[string]string)
	groupKey := make(map[string]Key)

	hasFN := false
	for key, value := range rec {
		k := ParseKey(key)
		if k.Prop == "VERSION" {
			continue // always re-emitted as 4.0
		}
		if k.Prop == "FN" {
			hasFN = true
		}
		if IsComposite(k.Prop) && k.Subfield != "" {
			base := k
			base.Subfield = ""
			id := base.String()
			if groups[id] == nil {
				groups[id] = make(map[string]string)
				groupKey[id] = base
			}
			groups[id][k.Subfield] = value
			continue
		}
		entries = append(entries, entry{sortKey: key, line: renderLine(k, value)})
	}

	for id, subs := range groups {
		k := groupKey[id]
		schema := compositeSchemas[k.Prop]
		parts := make([]string, len(schema))
		for i, sub := range schema {
			parts[i] = subs[sub]
		}
		entries = append(entries, entry{sortKey: id, line: renderLine(k, strings.Join(parts, ";"))})
	}

	if !hasFN {
		name := displayName
		if name == "" {
			name = Slug(rec)
		}
		if name == "" {
			return "", fmt.Errorf("vcard: no formatted name and no display name to synthesize one")
		}
		entries = append(entries, entry{sortKey: "FN", line: "FN:" + name})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].sortKey < entries[j].sortKey })

	var b strings.Builder
	b.WriteString(beginMarker)
	b.WriteString("\nVERSION:4.0\n")
	for _, e := range entries {
		b.WriteString(e.line)
		b.WriteByte('\n')
	}
	b.WriteString(endMarker)
	return b.String(), nil
}

// renderLine emits one content line, re-attaching the TYPE parameter when
// the key carries a type annotation. The collision index is a record-side
// disambiguator only and never appears on the wire.
func renderLine(k Key, value string) string {
	var b strings.Builder
	b.WriteString(k.Prop)
	if k.Type != "" {
		b.WriteString(";TYPE=")
		b.WriteString(k.Type)
	}
	b.WriteByte(':')
	b.WriteString(value)
	return b.String()
}
