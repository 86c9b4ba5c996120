package model

import "sort"

// DefaultMRGBasename is used when a SAF does not name its mrgfile.
const DefaultMRGBasename = "mrg"

// MRGFileExtension is the extension of every generated glossary file.
const MRGFileExtension = "yaml"

// MRG is a Machine Readable Glossary.
type MRG struct {
	Terminology Terminology `yaml:"terminology"`
	Scopes      []ScopeRef  `yaml:"scopes"`
	Entries     []Entry     `yaml:"entries"`
}

// Terminology is the header of an MRG.
type Terminology struct {
	ScopeTag       string   `yaml:"scopetag"`
	ScopeDir       string   `yaml:"scopedir"`
	CuratedDir     string   `yaml:"curatedir"`
	VersionTag     string   `yaml:"vsntag"`
	License        string   `yaml:"license,omitempty"`
	AltVersionTags []string `yaml:"altvsntags,omitempty"`
}

// Entry is a Term as it appears in an MRG.
type Entry struct {
	Term       `yaml:",inline"`
	Locator    string   `yaml:"locator,omitempty"`
	NavURL     string   `yaml:"navurl,omitempty"`
	HeadingIDs []string `yaml:"headingids,omitempty"`
}

// NewEntry projects a term into a glossary entry. The locator is the file the
// term was read from.
func NewEntry(t Term) Entry {
	return Entry{
		Term:       t,
		Locator:    t.Filename,
		HeadingIDs: append([]string(nil), t.Headings...),
	}
}

// SortEntries orders entries lexicographically on the given identity field.
func SortEntries(entries []Entry, identity string) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Identity(identity) < entries[j].Identity(identity)
	})
}
