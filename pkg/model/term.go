package model

import (
	"sort"
	"strings"
)

// Identity fields a Term can be keyed on. The field used has changed between
// term-file schema revisions, so callers choose it from configuration.
const (
	IdentityTermID = "termid"
	IdentityID     = "id"
	IdentityTerm   = "term"

	DefaultIdentity = IdentityTermID
)

// Term is one curated term as found in a term file's front matter.
type Term struct {
	ID           string `yaml:"id,omitempty"`
	ScopeTag     string `yaml:"scopetag,omitempty"`
	LegacyScope  string `yaml:"scope,omitempty"`
	TermType     string `yaml:"termtype,omitempty"`
	TermID       string `yaml:"termid,omitempty"`
	Term         string `yaml:"term,omitempty"`
	FormPhrases  string `yaml:"formphrases,omitempty"`
	GroupTags    string `yaml:"grouptags,omitempty"`
	Status       string `yaml:"status,omitempty"`
	GlossaryText string `yaml:"glossaryText,omitempty"`
	Created      string `yaml:"created,omitempty"`
	Updated      string `yaml:"updated,omitempty"`
	VersionTag   string `yaml:"vsntag,omitempty"`
	Commit       string `yaml:"commit,omitempty"`
	Contributors string `yaml:"contributors,omitempty"`

	// Provenance, never serialized.
	Filename string   `yaml:"-"`
	Headings []string `yaml:"-"`
}

// Identity returns the value of the named identity field. Unknown names fall
// back to DefaultIdentity.
func (t Term) Identity(field string) string {
	switch field {
	case IdentityID:
		return t.ID
	case IdentityTerm:
		return t.Term
	default:
		return t.TermID
	}
}

// NormalizedGroupTags splits the comma separated grouptags field into trimmed,
// lower-cased, non-empty tags.
func (t Term) NormalizedGroupTags() []string {
	return SplitAndNormalize(t.GroupTags)
}

// SplitAndNormalize splits a comma separated list, trims and lower-cases each
// element and drops empty ones.
func SplitAndNormalize(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	var out []string
	for _, v := range strings.Split(csv, ",") {
		v = Normalize(v)
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// Normalize trims and case-folds a single value.
func Normalize(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

// SortTerms orders terms lexicographically on the given identity field.
func SortTerms(terms []Term, identity string) {
	sort.SliceStable(terms, func(i, j int) bool {
		return terms[i].Identity(identity) < terms[j].Identity(identity)
	})
}

// fixLegacy moves the pre-rename "scope" key into ScopeTag.
func (t *Term) fixLegacy() {
	if t.ScopeTag == "" {
		t.ScopeTag = t.LegacyScope
	}
	t.LegacyScope = ""
}
