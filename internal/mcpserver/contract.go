package mcpserver

// VCardFormatContract describes the canonical vCard contact format that
// LLM consumers should follow when creating or updating contacts.
const VCardFormatContract = `# Kith vCard Format Contract

Every contact stored in Kith is a vCard 4.0 file with the ` + "`" + `.vcf` + "`" + ` extension.

## Structure

` + "```" + `
BEGIN:VCARD
VERSION:4.0
FN:Jane Smith
N:Smith;Jane;;;
UID:03a0e51f-d1aa-4385-8a53-e29025acd8af
GENDER:F
EMAIL:jane@example.com
TEL;TYPE=CELL:+1-555-0100
ADR;TYPE=HOME:;;123 Main St;Springfield;;;USA
RELATED;TYPE=mother:name:Mary Smith
END:VCARD
` + "```" + `

## Rules

1. **VERSION is always 4.0.** Other versions are rewritten to 4.0 on read.
2. **FN (formatted name) is required.** When missing it is synthesized from
   the structured N components.
3. **N components** are family;given;middle;prefix;suffix, separated by
   semicolons. Trailing empty components may be left empty but the
   semicolons stay.
4. **UID** should be a UUID. New contacts get one generated automatically.
5. **Dates** (BDAY, ANNIVERSARY) are written in basic form: ` + "`" + `19850415` + "`" + `.
6. **Repeated properties** (EMAIL, TEL, ...) are allowed; an optional
   ` + "`" + `TYPE=` + "`" + ` parameter distinguishes them (HOME, WORK, CELL).
7. **Encoding** is UTF-8 with a trailing newline. Long lines may be folded
   per RFC 6350; folds are transparent to consumers.

## Relationships (RELATED)

A ` + "`" + `RELATED;TYPE=<kind>:<reference>` + "`" + ` line records one directed
relationship. The kind is a lowercase word, optionally gendered
(mother, father, parent, sister, brother, sibling, ...).

The reference uses one of three namespaces, in priority order:

- ` + "`" + `urn:uuid:<uuid>` + "`" + ` — the target's UID when it is a canonical UUID.
- ` + "`" + `uid:<identifier>` + "`" + ` — the target's UID when it is not a UUID.
- ` + "`" + `name:<Full Name>` + "`" + ` — the target's display name when no UID is known.

Reciprocal edges are separate lines on the other contact; they are never
synthesized automatically.

## Photos

- Upload photos via the REST photos endpoint; they live in the shared
  ` + "`" + `photos/` + "`" + ` directory next to the contact files.
- Inline PHOTO values use data URIs: ` + "`" + `PHOTO:data:image/jpeg;base64,...` + "`" + `.
  Legacy ` + "`" + `PHOTO;ENCODING=b` + "`" + ` values are converted to this form on read.
`
