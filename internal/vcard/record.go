// Package vcard implements the vCard 4.0 field codec: parsing raw vCard text
// into a flat, indexed key/value record and serializing it back.
//
// Record keys follow the PROP[INDEX:TYPE].SUBFIELD grammar (see Key). Repeated
// properties never overwrite each other: colliding keys get a 1-based index
// inserted when a parsed line is merged into the record.
package vcard

import "maps"

// Composite property schemas: the ordered subfield names each value splits
// into. The N component keys keep the record-format names — N.FN is the
// FAMILY name component, unrelated to the top-level FN (formatted name)
// property — and the order (family, given, middle, prefix, suffix) is the
// wire order and must not change.
var (
	nameSchema    = []string{"FN", "GN", "MN", "PREFIX", "SUFFIX"}
	addressSchema = []string{"PO", "EXT", "STREET", "LOCALITY", "REGION", "POSTAL", "COUNTRY"}

	compositeSchemas = map[string][]string{
		"N":   nameSchema,
		"ADR": addressSchema,
	}
)

// supportedProps is the set of vCard properties the codec keeps. Lines with
// any other property name are silently discarded during decode.
var supportedProps = map[string]struct{}{
	"VERSION": {}, "FN": {}, "N": {}, "NICKNAME": {}, "PHOTO": {},
	"BDAY": {}, "ANNIVERSARY": {}, "GENDER": {}, "ADR": {}, "TEL": {},
	"EMAIL": {}, "IMPP": {}, "LANG": {}, "TZ": {}, "GEO": {}, "TITLE": {},
	"ROLE": {}, "LOGO": {}, "ORG": {}, "MEMBER": {}, "RELATED": {},
	"CATEGORIES": {}, "NOTE": {}, "PRODID": {}, "REV": {}, "SOUND": {},
	"UID": {}, "URL": {}, "KIND": {}, "SOCIALPROFILE": {},
}

// IsSupported reports whether prop is a property the codec stores.
func IsSupported(prop string) bool {
	_, ok := supportedProps[prop]
	return ok
}

// IsComposite reports whether prop has a composite subfield schema.
func IsComposite(prop string) bool {
	_, ok := compositeSchemas[prop]
	return ok
}

// Record is a flat mapping from field key to value representing one contact.
// Records are treated as immutable value objects after decode; edits produce
// a fresh copy (see Clone).
type Record map[string]string

// Clone returns an independent copy of the record.
func (r Record) Clone() Record {
	return maps.Clone(r)
}

// field is one key/value produced by parsing a single physical line.
type field struct {
	key   Key
	value string
}

// merge adds a parsed line's fields to the record. When any of the line's
// keys already exists, the whole line is shifted to the first free index so
// that subfields of one composite occurrence always stay in the same logical
// group. The index is inserted inside the type brackets (TEL[CELL] →
// TEL[1:CELL]), before the subfield dot (ADR.STREET → ADR[1:].STREET), or as
// a bracketed suffix (EMAIL → EMAIL[1:]).
func (r Record) merge(fields []field) {
	idx := 0
	for {
		collision := false
		for _, f := range fields {
			k := f.key
			k.Index = idx
			if _, exists := r[k.String()]; exists {
				collision = true
				break
			}
		}
		if !collision {
			break
		}
		idx++
	}
	for _, f := range fields {
		k := f.key
		k.Index = idx
		r[k.String()] = f.value
	}
}

// Insert adds one key/value to the record, applying the same collision
// indexing as decode. It returns the key the value was stored under.
func (r Record) Insert(k Key, value string) string {
	idx := k.Index
	for {
		probe := k
		probe.Index = idx
		s := probe.String()
		if _, exists := r[s]; !exists {
			r[s] = value
			return s
		}
		idx++
	}
}

// First returns the value of the first occurrence of prop (no index, no
// type), or the empty string.
func (r Record) First(prop string) string {
	return r[prop]
}
