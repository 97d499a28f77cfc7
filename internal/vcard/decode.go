package vcard

import (
	"iter"
	"regexp"
	"strings"
	"time"
)

const (
	beginMarker = "BEGIN:VCARD"
	endMarker   = "END:VCARD"
)

// Decode walks raw vCard text and yields one (slug, Record) pair per
// BEGIN:VCARD/END:VCARD section, in input order. Each section is yielded as
// soon as its END marker is seen, so callers can stop early. The sequence is
// finite and restartable: re-ranging walks the same text from the start.
func Decode(text string) iter.Seq2[string, Record] {
	return func(yield func(string, Record) bool) {
		var rec Record
		for _, line := range unfold(text) {
			switch {
			case strings.EqualFold(line, beginMarker):
				rec = Record{}
			case strings.EqualFold(line, endMarker):
				if rec != nil {
					if !yield(Slug(rec), rec) {
						return
					}
					rec = nil
				}
			default:
				if rec == nil {
					continue // content outside any section
				}
				if fields, ok := parseLine(line); ok {
					rec.merge(fields)
				}
			}
		}
	}
}

// DecodeOne returns the first section of text, for the common case of a
// vault file holding a single contact. ok is false when text contains no
// complete section.
func DecodeOne(text string) (slug string, rec Record, ok bool) {
	for s, r := range Decode(text) {
		return s, r, true
	}
	return "", nil, false
}

// unfold normalizes line terminators and joins folded continuation lines
// (a physical line starting with space or tab continues the previous logical
// line, with the single leading whitespace character stripped).
func unfold(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var out []string
	for _, line := range strings.Split(text, "\n") {
		if len(line) > 0 && (line[0] == ' ' || line[0] == '\t') && len(out) > 0 {
			out[len(out)-1] += line[1:]
			continue
		}
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}

// splitKeyValue splits a content line on the first unescaped colon.
func splitKeyValue(line string) (key, value string, ok bool) {
	for i := 0; i < len(line); i++ {
		if line[i] == '\\' {
			i++
			continue
		}
		if line[i] == ':' {
			return line[:i], line[i+1:], true
		}
	}
	return "", "", false
}

// parseLine converts one unfolded content line into record fields. ok is
// false when the line is unparseable or names an unsupported property; both
// are skipped silently, never an error.
func parseLine(line string) ([]field, bool) {
	rawKey, value, ok := splitKeyValue(line)
	if !ok {
		return nil, false
	}

	params := strings.Split(rawKey, ";")
	prop := strings.ToUpper(strings.TrimSpace(params[0]))
	if prop == "" {
		return nil, false
	}

	var typ, encoding string
	for _, p := range params[1:] {
		name, val, found := strings.Cut(p, "=")
		if !found {
			continue
		}
		switch strings.ToUpper(strings.TrimSpace(name)) {
		case "TYPE":
			if typ != "" {
				typ += ","
			}
			typ += val
		case "ENCODING":
			encoding = strings.ToUpper(val)
		}
	}

	switch {
	case prop == "PHOTO" && (encoding == "B" || encoding == "BASE64"):
		// Legacy base64 photo: transcode to the modern inline-data form.
		// The TYPE parameter carries the media subtype here, not a tag.
		mime := strings.ToLower(typ)
		if mime == "" {
			mime = "jpeg"
		}
		return []field{{key: Key{Prop: prop}, value: "data:image/" + mime + ";base64," + value}}, true

	case prop == "VERSION":
		return []field{{key: Key{Prop: prop}, value: "4.0"}}, true

	case IsComposite(prop):
		schema := compositeSchemas[prop]
		parts := strings.Split(value, ";")
		var fields []field
		for i, part := range parts {
			if i >= len(schema) {
				break // components beyond the schema are dropped
			}
			if part == "" {
				continue
			}
			fields = append(fields, field{
				key:   Key{Prop: prop, Type: typ, Subfield: schema[i]},
				value: part,
			})
		}
		return fields, len(fields) > 0

	case prop == "BDAY" || prop == "ANNIVERSARY":
		return []field{{key: Key{Prop: prop, Type: typ}, value: normalizeDate(value)}}, true

	case IsSupported(prop):
		return []field{{key: Key{Prop: prop, Type: typ}, value: value}}, true
	}

	return nil, false
}

var basicDateRe = regexp.MustCompile(`^(\d{4})(\d{2})(\d{2})(?:T.*)?$`)

// dateLayouts are tried in order for values that are not in the compact
// YYYYMMDD form. The first parseable layout wins.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006/01/02",
	"January 2, 2006",
	"Jan 2, 2006",
	"02 Jan 2006",
}

// normalizeDate reformats a date value to YYYY-MM-DD. The compact YYYYMMDD
// form (optionally with a T time part, which is discarded) is rewritten
// directly; other values are tried against a set of layouts. Unparseable
// input passes through unchanged.
func normalizeDate(v string) string {
	if m := basicDateRe.FindStringSubmatch(v); m != nil {
		return m[1] + "-" + m[2] + "-" + m[3]
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return v
}
