// Package relation maps relationship kinds between gendered and genderless
// forms and resolves reciprocal kinds. The genderless form is the storage
// canonical representation; gendered words are a rendering concern.
package relation

import "strings"

// Gender is a normalized gender token: "M", "F", or empty for
// unknown/unspecified.
type Gender string

const (
	Male   Gender = "M"
	Female Gender = "F"
	None   Gender = ""
)

// ParseGender normalizes long and short gender tokens ("male"/"m"/"M",
// "female"/"f"/"F"). Anything else is None.
func ParseGender(s string) Gender {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "m", "male":
		return Male
	case "f", "female":
		return Female
	}
	return None
}

// genderedForms maps a genderless kind to its male and female words.
type genderedForms struct {
	male, female string
}

var pairs = map[string]genderedForms{
	"parent":      {"father", "mother"},
	"child":       {"son", "daughter"},
	"sibling":     {"brother", "sister"},
	"spouse":      {"husband", "wife"},
	"partner":     {"boyfriend", "girlfriend"},
	"auncle":      {"uncle", "aunt"},
	"nibling":     {"nephew", "niece"},
	"grandparent": {"grandfather", "grandmother"},
	"grandchild":  {"grandson", "granddaughter"},
}

// genderedToCanonical is the reverse index: gendered word → genderless kind.
var genderedToCanonical = func() map[string]string {
	m := make(map[string]string, len(pairs)*2)
	for canonical, f := range pairs {
		m[f.male] = canonical
		m[f.female] = canonical
	}
	return m
}()

// Normalize returns the genderless form of kind. Unmapped input is returned
// lowercased and otherwise unchanged.
func Normalize(kind string) string {
	k := strings.ToLower(strings.TrimSpace(kind))
	if canonical, ok := genderedToCanonical[k]; ok {
		return canonical
	}
	return k
}

// Render returns the gendered word for a genderless kind when the kind has a
// gendered pair and a gender is supplied; otherwise the genderless form is
// returned unchanged.
func Render(genderless string, gender Gender) string {
	k := strings.ToLower(strings.TrimSpace(genderless))
	f, ok := pairs[k]
	if !ok {
		return k
	}
	switch gender {
	case Male:
		return f.male
	case Female:
		return f.female
	}
	return k
}

// IsGendered reports whether kind is a member of some gendered pair (and not
// already a genderless form).
func IsGendered(kind string) bool {
	_, ok := genderedToCanonical[strings.ToLower(strings.TrimSpace(kind))]
	return ok
}

// InferGender returns the gender implied by a strictly gendered word
// (father → M, aunt → F). Genderless and unknown words yield None.
func InferGender(kind string) Gender {
	k := strings.ToLower(strings.TrimSpace(kind))
	canonical, ok := genderedToCanonical[k]
	if !ok {
		return None
	}
	if pairs[canonical].male == k {
		return Male
	}
	return Female
}

// reciprocals holds asymmetric pairs in both directions; symmetric kinds map
// to themselves. Kinds absent from the table have no defined reciprocal.
var reciprocals = map[string]string{
	"parent":      "child",
	"child":       "parent",
	"grandparent": "grandchild",
	"grandchild":  "grandparent",
	"auncle":      "nibling",
	"nibling":     "auncle",

	"sibling":   "sibling",
	"spouse":    "spouse",
	"partner":   "partner",
	"friend":    "friend",
	"colleague": "colleague",
	"relative":  "relative",
	"cousin":    "cousin",
}

// Reciprocal returns the relationship kind the target of an edge would use
// to describe the source, in genderless form. Input is normalized first, so
// gendered words resolve through their canonical kind. ok is false when no
// reciprocal is defined.
func Reciprocal(kind string) (string, bool) {
	r, ok := reciprocals[Normalize(kind)]
	return r, ok
}
