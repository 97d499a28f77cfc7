package vcard

import (
	"strconv"
	"strings"
)

// Key is the parsed form of a record field key. The string grammar is
//
//	PROP
//	PROP[TYPE]
//	PROP[INDEX:TYPE]
//	PROP[INDEX:]
//
// each optionally followed by ".SUBFIELD" for composite properties.
// Index is 1-based and zero when absent; it exists only to disambiguate
// repeated occurrences of the same property.
type Key struct {
	Prop     string
	Index    int
	Type     string
	Subfield string
}

// ParseKey splits a field key into its components. Any string is accepted;
// absent components are left zero.
func ParseKey(s string) Key {
	var k Key
	base := s
	if i := strings.IndexByte(s, '.'); i >= 0 {
		base, k.Subfield = s[:i], s[i+1:]
	}
	open := strings.IndexByte(base, '[')
	if open >= 0 && strings.HasSuffix(base, "]") {
		k.Prop = base[:open]
		seg := base[open+1 : len(base)-1]
		if j := strings.IndexByte(seg, ':'); j >= 0 {
			if n, err := strconv.Atoi(seg[:j]); err == nil {
				k.Index = n
			}
			k.Type = seg[j+1:]
		} else {
			k.Type = seg
		}
	} else {
		k.Prop = base
	}
	return k
}

// String renders the key back to its text form. The bracketed segment is
// emitted only when an index or type is present, so ParseKey(k.String()) == k.
func (k Key) String() string {
	var b strings.Builder
	b.WriteString(k.Prop)
	if k.Index > 0 || k.Type != "" {
		b.WriteByte('[')
		if k.Index > 0 {
			b.WriteString(strconv.Itoa(k.Index))
			b.WriteByte(':')
		}
		b.WriteString(k.Type)
		b.WriteByte(']')
	}
	if k.Subfield != "" {
		b.WriteByte('.')
		b.WriteString(k.Subfield)
	}
	return b.String()
}
