package vcard

import "testing"

func TestDecode_SingleContact(t *testing.T) {
	input := "BEGIN:VCARD\nVERSION:4.0\nFN:Jane Smith\nGENDER:F\nRELATED;TYPE=parent:urn:uuid:aaaa\nEND:VCARD"

	var rec Record
	n := 0
	for _, r := range Decode(input) {
		rec = r
		n++
	}
	if n != 1 {
		t.Fatalf("sections = %d, want 1", n)
	}
	if rec["GENDER"] != "F" {
		t.Errorf("GENDER = %q, want F", rec["GENDER"])
	}
	if rec["RELATED[parent]"] != "urn:uuid:aaaa" {
		t.Errorf("RELATED[parent] = %q, want urn:uuid:aaaa", rec["RELATED[parent]"])
	}
	if rec["VERSION"] != "4.0" {
		t.Errorf("VERSION = %q, want 4.0", rec["VERSION"])
	}
}

func TestDecode_DuplicateKeyIndexing(t *testing.T) {
	input := "BEGIN:VCARD\nEMAIL:a@example.com\nEMAIL:b@example.com\nTEL;TYPE=CELL:111\nTEL;TYPE=CELL:222\nEND:VCARD"
	_, rec, ok := DecodeOne(input)
	if !ok {
		t.Fatal("no section decoded")
	}
	if rec["EMAIL"] != "a@example.com" || rec["EMAIL[1:]"] != "b@example.com" {
		t.Errorf("emails = %q / %q, want a@ under EMAIL and b@ under EMAIL[1:]", rec["EMAIL"], rec["EMAIL[1:]"])
	}
	if rec["TEL[CELL]"] != "111" || rec["TEL[1:CELL]"] != "222" {
		t.Errorf("tels = %q / %q", rec["TEL[CELL]"], rec["TEL[1:CELL]"])
	}
}

func TestDecode_CompositeProperties(t *testing.T) {
	input := "BEGIN:VCARD\nN:Smith;Jane;Q;Dr.;PhD\nADR;TYPE=HOME:;;123 Main St;Springfield;;12345;USA\nEND:VCARD"
	_, rec, ok := DecodeOne(input)
	if !ok {
		t.Fatal("no section decoded")
	}
	if rec["N.FN"] != "Smith" || rec["N.GN"] != "Jane" || rec["N.MN"] != "Q" {
		t.Errorf("N components = %q %q %q", rec["N.FN"], rec["N.GN"], rec["N.MN"])
	}
	if rec["N.PREFIX"] != "Dr." || rec["N.SUFFIX"] != "PhD" {
		t.Errorf("prefix/suffix = %q %q", rec["N.PREFIX"], rec["N.SUFFIX"])
	}
	if rec["ADR[HOME].STREET"] != "123 Main St" {
		t.Errorf("street = %q", rec["ADR[HOME].STREET"])
	}
	if rec["ADR[HOME].POSTAL"] != "12345" || rec["ADR[HOME].COUNTRY"] != "USA" {
		t.Errorf("postal/country = %q %q", rec["ADR[HOME].POSTAL"], rec["ADR[HOME].COUNTRY"])
	}
	// Empty components are omitted entirely.
	if _, ok := rec["ADR[HOME].PO"]; ok {
		t.Error("empty PO component should be omitted")
	}
}

func TestDecode_RepeatedComposite(t *testing.T) {
	input := "BEGIN:VCARD\nADR:;;1 First St;Town;;;\nADR:;;2 Second St;City;;;\nEND:VCARD"
	_, rec, ok := DecodeOne(input)
	if !ok {
		t.Fatal("no section decoded")
	}
	if rec["ADR.STREET"] != "1 First St" {
		t.Errorf("first street = %q", rec["ADR.STREET"])
	}
	if rec["ADR[1:].STREET"] != "2 Second St" || rec["ADR[1:].LOCALITY"] != "City" {
		t.Errorf("second occurrence = %q / %q", rec["ADR[1:].STREET"], rec["ADR[1:].LOCALITY"])
	}
}

func TestDecode_FoldedLines(t *testing.T) {
	input := "BEGIN:VCARD\r\nNOTE:first part\r\n  and second part\r\nEND:VCARD\r\n"
	_, rec, ok := DecodeOne(input)
	if !ok {
		t.Fatal("no section decoded")
	}
	// Exactly one leading whitespace character is stripped from the
	// continuation line.
	if rec["NOTE"] != "first part and second part" {
		t.Errorf("NOTE = %q", rec["NOTE"])
	}
}

func TestDecode_VersionForced(t *testing.T) {
	input := "BEGIN:VCARD\nVERSION:3.0\nFN:X\nEND:VCARD"
	_, rec, _ := DecodeOne(input)
	if rec["VERSION"] != "4.0" {
		t.Errorf("VERSION = %q, want 4.0", rec["VERSION"])
	}
}

func TestDecode_LegacyPhotoTranscoded(t *testing.T) {
	input := "BEGIN:VCARD\nPHOTO;ENCODING=b;TYPE=JPEG:AAAA\nEND:VCARD"
	_, rec, _ := DecodeOne(input)
	if rec["PHOTO"] != "data:image/jpeg;base64,AAAA" {
		t.Errorf("PHOTO = %q", rec["PHOTO"])
	}
}

func TestDecode_UnsupportedPropertyDropped(t *testing.T) {
	input := "BEGIN:VCARD\nFN:X\nX-UNKNOWN-THING:whatever\nEND:VCARD"
	_, rec, _ := DecodeOne(input)
	for k := range rec {
		if ParseKey(k).Prop == "X-UNKNOWN-THING" {
			t.Errorf("unsupported property leaked into record: %q", k)
		}
	}
}

func TestDecode_MultipleSectionsLazy(t *testing.T) {
	input := "BEGIN:VCARD\nFN:One\nEND:VCARD\nBEGIN:VCARD\nFN:Two\nEND:VCARD"

	var slugs []string
	for slug := range Decode(input) {
		slugs = append(slugs, slug)
		if len(slugs) == 1 {
			break // early stop must be safe
		}
	}
	if len(slugs) != 1 || slugs[0] != "One" {
		t.Fatalf("slugs = %v", slugs)
	}

	// Restartable: a fresh range walks from the start again.
	slugs = nil
	for slug := range Decode(input) {
		slugs = append(slugs, slug)
	}
	if len(slugs) != 2 || slugs[0] != "One" || slugs[1] != "Two" {
		t.Fatalf("slugs after restart = %v", slugs)
	}
}

func TestNormalizeDate(t *testing.T) {
	cases := []struct{ in, want string }{
		{"19850412", "1985-04-12"},
		{"19850412T120000", "1985-04-12"},
		{"1985-04-12", "1985-04-12"},
		{"April 12, 1985", "1985-04-12"},
		{"not a date", "not a date"},
		{"--0412", "--0412"}, // partial dates pass through
	}
	for _, c := range cases {
		if got := normalizeDate(c.in); got != c.want {
			t.Errorf("normalizeDate(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
