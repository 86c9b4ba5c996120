package model

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

const sampleSAF = `
scope:
  scopetag: tev2
  scopedir: https://github.com/essif-lab/framework/tree/master/docs/tev2
  curatedir: terms
  glossarydir: glossaries
  mrgfile: mrg
  license: LICENSE.md
  statuses: [ proposed, approved, deprecated ]
  issues: https://github.com/essif-lab/framework/issues
  website: https://essif-lab.github.io/framework/docs/tev2/tev2-overview
  slack: https://trustoverip.slack.com/archives/C01BBNGRPUH
  curators:
    - name: RieksJ
      email:
        id: rieks.joosten
        at: tno.nl
scopes:
  - scopetags: [ essiflab, essif-lab ]
    scopedir: https://github.com/essif-lab/framework/tree/master/docs
  - scopetags: [ ctwg, toip-ctwg ]
    scopedir: https://github.com/trustoverip/ctwg
versions:
  - vsntag: mrgtest
    termselcrit: [ "*@tev2", "-terms[@, curated-text-body]" ]
  - vsntag: 0x921456
    altvsntags: [ latest, v0.9.4 ]
    terms:
      - tags[management]@essif-lab
      - terms[party]@essif-lab:0.9.4
      - tags[community]@essif-lab
    status: proposed
    from: 20220312
  - vsntag: v0.9.0
    status: deprecated
`

func TestParseSAF(t *testing.T) {
	saf, err := ParseSAF(sampleSAF)
	if err != nil {
		t.Fatalf("ParseSAF: %v", err)
	}

	if saf.Scope.ScopeTag != "tev2" {
		t.Fatalf("expected scopetag tev2, got %q", saf.Scope.ScopeTag)
	}
	if len(saf.Scopes) != 2 || len(saf.Versions) != 3 {
		t.Fatalf("expected 2 scopes and 3 versions, got %d and %d", len(saf.Scopes), len(saf.Versions))
	}
	if got := saf.Scope.Curators[0].String(); got != "RieksJ rieks.joosten@tno.nl" {
		t.Fatalf("unexpected curator %q", got)
	}

	wantRef := ScopeRef{ScopeTags: []string{"ctwg", "toip-ctwg"}, ScopeDir: "https://github.com/trustoverip/ctwg"}
	if !reflect.DeepEqual(saf.Scopes[1], wantRef) {
		t.Fatalf("unexpected scope ref.\nwant: %#v\ngot:  %#v", wantRef, saf.Scopes[1])
	}

	v, ok := saf.Version("0x921456")
	if !ok {
		t.Fatalf("version 0x921456 not found")
	}
	wantCrit := []string{"tags[management]@essif-lab", "terms[party]@essif-lab:0.9.4", "tags[community]@essif-lab"}
	if !reflect.DeepEqual(v.TermSelCrit, wantCrit) {
		t.Fatalf("legacy terms key not mapped.\nwant: %#v\ngot:  %#v", wantCrit, v.TermSelCrit)
	}
	if !reflect.DeepEqual(v.AltVersionTags, []string{"latest", "v0.9.4"}) {
		t.Fatalf("unexpected altvsntags %v", v.AltVersionTags)
	}
	if v.From != "20220312" {
		t.Fatalf("expected from to keep its literal form, got %q", v.From)
	}
}

func TestSAFVersionLookupIsExact(t *testing.T) {
	saf, err := ParseSAF(sampleSAF)
	if err != nil {
		t.Fatalf("ParseSAF: %v", err)
	}
	if _, ok := saf.Version("mrg"); ok {
		t.Fatalf("prefix of a version tag must not match")
	}
	if _, ok := saf.Version("latest"); ok {
		t.Fatalf("alternate version tag must not match an exact lookup")
	}
	v, ok := saf.VersionByAlias("latest")
	if !ok || v.VersionTag != "0x921456" {
		t.Fatalf("expected alias lookup to find 0x921456, got %q (%t)", v.VersionTag, ok)
	}
}

func TestParseSAFInvalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"whitespace", "   \n  "},
		{"not a mapping", "just a string"},
		{"broken yaml", "scope:\n  scopetag: [unclosed\n"},
		{"no scopetag", "scope:\n  curatedir: terms\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSAF(tt.input)
			if !errors.Is(err, ErrUnableToParseSAF) {
				t.Fatalf("expected ErrUnableToParseSAF, got %v", err)
			}
		})
	}
}

func TestSAFValidate(t *testing.T) {
	saf := SAF{
		Scope: Scope{ScopeTag: "tev2"},
		Scopes: []ScopeRef{
			{ScopeTags: []string{"a", "b"}, ScopeDir: "https://github.com/o/one"},
			{ScopeTags: []string{"b", "tev2"}, ScopeDir: "https://github.com/o/two"},
		},
		Versions: []Version{{VersionTag: "v1"}, {VersionTag: "v1"}},
	}
	problems := saf.Validate()
	if len(problems) != 3 {
		t.Fatalf("expected 3 problems, got %d: %v", len(problems), problems)
	}
	if got := saf.ExternalScopeTags(); !reflect.DeepEqual(got, []string{"a", "b", "b", "tev2"}) {
		t.Fatalf("unexpected external scope tags %v", got)
	}
}

func TestParseTerm(t *testing.T) {
	term, err := ParseTerm("id: term\nscope: tev2\ntermtype: concept\ntermid: term\ngrouptags: Management, community\ncreated: 2022-06-06\n")
	if err != nil {
		t.Fatalf("ParseTerm: %v", err)
	}
	if term.ScopeTag != "tev2" || term.LegacyScope != "" {
		t.Fatalf("legacy scope key not moved: %#v", term)
	}
	if term.Created != "2022-06-06" {
		t.Fatalf("expected date kept as text, got %q", term.Created)
	}
	if got := term.NormalizedGroupTags(); !reflect.DeepEqual(got, []string{"management", "community"}) {
		t.Fatalf("unexpected grouptags %v", got)
	}

	if _, err := ParseTerm("glossaryText: no identity here\n"); !errors.Is(err, ErrCannotParseTerm) {
		t.Fatalf("expected ErrCannotParseTerm for a term without identity, got %v", err)
	}
	if _, err := ParseTerm(""); !errors.Is(err, ErrCannotParseTerm) {
		t.Fatalf("expected ErrCannotParseTerm for empty input, got %v", err)
	}
}

func TestTermIdentity(t *testing.T) {
	term := Term{ID: "a", TermID: "b", Term: "c"}
	tests := map[string]string{
		IdentityID:     "a",
		IdentityTermID: "b",
		IdentityTerm:   "c",
		"":             "b",
		"bogus":        "b",
	}
	for field, want := range tests {
		if got := term.Identity(field); got != want {
			t.Errorf("Identity(%q) = %q, want %q", field, got, want)
		}
	}
}

func TestMRGRoundTrip(t *testing.T) {
	mrg := MRG{
		Terminology: Terminology{ScopeTag: "tev2", ScopeDir: "./tev2", CuratedDir: "terms", VersionTag: "v1", AltVersionTags: []string{"latest"}},
		Scopes:      []ScopeRef{{ScopeTags: []string{"ext"}, ScopeDir: "https://github.com/o/r"}},
		Entries: []Entry{
			NewEntry(Term{ID: "party", TermID: "party", ScopeTag: "tev2", GroupTags: "management", Filename: "party.md", Headings: []string{"Party"}}),
		},
	}

	out, err := MarshalMRG(mrg)
	if err != nil {
		t.Fatalf("MarshalMRG: %v", err)
	}
	text := string(out)
	for _, want := range []string{"scopetag: tev2", "locator: party.md", "headingids:", "- Party"} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected %q in output:\n%s", want, text)
		}
	}
	if strings.Contains(text, "filename") {
		t.Fatalf("provenance must not be serialized:\n%s", text)
	}

	back, err := ParseMRG(text)
	if err != nil {
		t.Fatalf("ParseMRG: %v", err)
	}
	if back.Entries[0].Locator != "party.md" || back.Entries[0].TermID != "party" {
		t.Fatalf("unexpected entry after round trip: %#v", back.Entries[0])
	}
	if back.Terminology.VersionTag != "v1" {
		t.Fatalf("unexpected terminology after round trip: %#v", back.Terminology)
	}
}

func TestParseMRGInvalid(t *testing.T) {
	if _, err := ParseMRG(""); !errors.Is(err, ErrUnableToParseMRG) {
		t.Fatalf("expected ErrUnableToParseMRG, got %v", err)
	}
	if _, err := ParseMRG("entries: just text"); !errors.Is(err, ErrUnableToParseMRG) {
		t.Fatalf("expected ErrUnableToParseMRG, got %v", err)
	}
}
