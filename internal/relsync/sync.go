// Package relsync reconciles a contact's two relationship representations:
// the free-text list a human edits and the structured RELATED fields stored
// in the record. The merge is strictly additive — existing structured
// entries are never deleted or reordered — and a second run over unchanged
// input always reports zero missing entries.
package relsync

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/kithhq/kith/internal/relref"
	"github.com/kithhq/kith/internal/vcard"
)

// Entry is one parsed free-text relationship: a relationship word plus the
// target contact's display name.
type Entry struct {
	Kind string
	Name string
}

// State labels where a sync invocation terminated.
type State string

const (
	// StateNoOp means both representations already agreed.
	StateNoOp State = "noop"
	// StateMerged means missing entries were merged into the structured form.
	StateMerged State = "merged"
	// StateMergedWithWarnings means the merge succeeded for some entries
	// while others failed to apply (used by the write-side caller).
	StateMergedWithWarnings State = "merged-with-warnings"
)

// Result reports one sync invocation over a single contact.
type Result struct {
	State          State
	Changed        bool
	Applied        int
	Record         vcard.Record
	RevisionBumped bool
	Warnings       []string
}

var (
	itemRe     = regexp.MustCompile(`^\s*[-*]\s+([A-Za-z][A-Za-z-]*)\s*:?\s*(.+?)\s*$`)
	wikilinkRe = regexp.MustCompile(`\[\[(.*?)\]\]`)
)

// ParseList extracts relationship entries from a human-edited list section.
// Both "- kind [[Name]]" and "- kind: Name" item forms are accepted;
// wikilink aliases ([[Name|alias]]) resolve to the target. Lines that do not
// look like items are ignored. Order is preserved.
func ParseList(text string) []Entry {
	var out []Entry
	for _, line := range strings.Split(text, "\n") {
		m := itemRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		kind := strings.ToLower(m[1])
		name := strings.TrimSpace(m[2])
		if wl := wikilinkRe.FindStringSubmatch(name); wl != nil {
			name = wl[1]
			if i := strings.Index(name, "|"); i >= 0 {
				name = name[:i]
			}
			name = strings.TrimSpace(name)
		}
		if name == "" {
			continue
		}
		out = append(out, Entry{Kind: kind, Name: name})
	}
	return out
}

// revLayout is the vCard REV timestamp form.
const revLayout = "20060102T150405Z"

// Sync diffs the free-text entries against the record's structured RELATED
// fields and produces a minimally merged record. Malformed structured values
// are skipped with a warning, never an error. When at least one entry is
// missing, each is written as a name-namespace reference and the REV marker
// advances exactly once for the whole batch. The input record is never
// mutated; the result carries a fresh copy when a merge happened.
func Sync(rec vcard.Record, entries []Entry, now func() time.Time) Result {
	if now == nil {
		now = time.Now
	}

	type structuredEntry struct {
		kind string
		ref  relref.Ref
	}
	var structured []structuredEntry
	var warnings []string
	for key, value := range rec {
		k := vcard.ParseKey(key)
		if k.Prop != "RELATED" || k.Subfield != "" {
			continue
		}
		ref, ok := relref.Parse(value)
		if !ok {
			warnings = append(warnings, fmt.Sprintf("skipping malformed related value %q under %s", value, key))
			continue
		}
		structured = append(structured, structuredEntry{kind: k.Type, ref: ref})
	}

	// Membership: same relationship type, compared literally (not in
	// genderless form), and a name-namespace reference equal to the
	// free-text contact name.
	var missing []Entry
	for _, e := range entries {
		found := false
		for _, s := range structured {
			if strings.EqualFold(s.kind, e.Kind) && s.ref.Namespace == relref.NamespaceName && s.ref.Value == e.Name {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, e)
		}
	}

	if len(missing) == 0 {
		return Result{State: StateNoOp, Record: rec, Warnings: warnings}
	}

	merged := rec.Clone()
	if merged == nil {
		merged = vcard.Record{}
	}
	for _, e := range missing {
		ref := relref.Ref{Namespace: relref.NamespaceName, Value: e.Name}
		merged.Insert(vcard.Key{Prop: "RELATED", Type: e.Kind}, ref.String())
	}
	merged["REV"] = now().UTC().Format(revLayout)

	return Result{
		State:          StateMerged,
		Changed:        true,
		Applied:        len(missing),
		Record:         merged,
		RevisionBumped: true,
		Warnings:       warnings,
	}
}
