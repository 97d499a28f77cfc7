package vcard

import (
	"regexp"
	"strings"
)

var (
	hostileCharRe = regexp.MustCompile(`[\\#^|\[\]"<>:?*]`)
	multiDotRe    = regexp.MustCompile(`\.{2,}`)
)

// Slug derives a filesystem-safe display slug for a record: the non-empty N
// subfields joined in schema order, falling back to FN, NICKNAME, ORG, and
// finally a raw UID. Returns the empty string when nothing usable exists.
func Slug(r Record) string {
	var parts []string
	for _, sub := range nameSchema {
		if v := r[Key{Prop: "N", Subfield: sub}.String()]; v != "" {
			parts = append(parts, v)
		}
	}
	s := strings.Join(parts, " ")
	if s == "" {
		for _, prop := range []string{"FN", "NICKNAME", "ORG", "UID"} {
			if v := r.First(prop); v != "" {
				s = v
				break
			}
		}
	}
	return sanitizeSlug(s)
}

// sanitizeSlug strips filesystem-hostile characters, collapses slashes and
// whitespace runs to single spaces, strips leading dots, and collapses
// repeated dots.
func sanitizeSlug(s string) string {
	s = hostileCharRe.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "/", " ")
	s = strings.Join(strings.Fields(s), " ")
	s = strings.TrimLeft(s, ".")
	s = multiDotRe.ReplaceAllString(s, ".")
	return s
}
