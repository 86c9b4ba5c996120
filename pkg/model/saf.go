package model

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// DefaultSAFFilename is the administration file looked up in every scope directory.
const DefaultSAFFilename = "saf.yaml"

// SAF is the Scope Administration File of a terminology scope.
type SAF struct {
	Scope    Scope      `yaml:"scope"`
	Scopes   []ScopeRef `yaml:"scopes"`
	Versions []Version  `yaml:"versions"`
}

// Scope holds the metadata of the scope that owns the SAF.
type Scope struct {
	ScopeTag    string    `yaml:"scopetag"`
	ScopeDir    string    `yaml:"scopedir"`
	CuratedDir  string    `yaml:"curatedir"`
	GlossaryDir string    `yaml:"glossarydir"`
	MRGFile     string    `yaml:"mrgfile,omitempty"`
	HRGFile     string    `yaml:"hrgfile,omitempty"`
	License     string    `yaml:"license,omitempty"`
	Statuses    []string  `yaml:"statuses,omitempty"`
	Issues      string    `yaml:"issues,omitempty"`
	Website     string    `yaml:"website,omitempty"`
	Slack       string    `yaml:"slack,omitempty"`
	Curators    []Curator `yaml:"curators,omitempty"`
}

type Curator struct {
	Name  string `yaml:"name"`
	Email Email  `yaml:"email"`
}

func (c Curator) String() string {
	return c.Name + " " + c.Email.String()
}

type Email struct {
	ID string `yaml:"id"`
	At string `yaml:"at"`
}

func (e Email) String() string {
	return fmt.Sprintf("%s@%s", e.ID, e.At)
}

// ScopeRef points at an external scope. All of its scope tags share one directory.
type ScopeRef struct {
	ScopeTags []string `yaml:"scopetags"`
	ScopeDir  string   `yaml:"scopedir"`
}

// Version is a named selection of terms. TermSelCrit holds the raw
// selection-criteria expressions in the order they were written.
type Version struct {
	VersionTag     string   `yaml:"vsntag"`
	AltVersionTags []string `yaml:"altvsntags,omitempty"`
	TermSelCrit    []string `yaml:"termselcrit,omitempty"`
	Status         string   `yaml:"status,omitempty"`
	From           string   `yaml:"from,omitempty"`
	To             string   `yaml:"to,omitempty"`
}

// UnmarshalYAML accepts the older "terms" key as an alias of "termselcrit".
func (v *Version) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		VersionTag     string   `yaml:"vsntag"`
		AltVersionTags []string `yaml:"altvsntags"`
		TermSelCrit    []string `yaml:"termselcrit"`
		Terms          []string `yaml:"terms"`
		Status         string   `yaml:"status"`
		From           string   `yaml:"from"`
		To             string   `yaml:"to"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	*v = Version{
		VersionTag:     raw.VersionTag,
		AltVersionTags: raw.AltVersionTags,
		TermSelCrit:    raw.TermSelCrit,
		Status:         raw.Status,
		From:           raw.From,
		To:             raw.To,
	}
	if len(v.TermSelCrit) == 0 {
		v.TermSelCrit = raw.Terms
	}
	return nil
}

// Version returns the version entry whose vsntag equals tag exactly.
func (s SAF) Version(tag string) (Version, bool) {
	for _, v := range s.Versions {
		if v.VersionTag == tag {
			return v, true
		}
	}
	return Version{}, false
}

// VersionByAlias returns the version entry that lists tag as an alternate version tag.
func (s SAF) VersionByAlias(tag string) (Version, bool) {
	for _, v := range s.Versions {
		for _, alt := range v.AltVersionTags {
			if alt == tag {
				return v, true
			}
		}
	}
	return Version{}, false
}

// ExternalScopeTags returns every scope tag listed under scopes, in document order.
func (s SAF) ExternalScopeTags() []string {
	var tags []string
	for _, ref := range s.Scopes {
		tags = append(tags, ref.ScopeTags...)
	}
	return tags
}

// Validate reports problems that do not stop a SAF from being used:
// scope tags claimed by more than one ScopeRef and repeated version tags.
func (s SAF) Validate() []string {
	var problems []string

	owner := make(map[string]string)
	for _, ref := range s.Scopes {
		for _, tag := range ref.ScopeTags {
			if tag == s.Scope.ScopeTag {
				problems = append(problems, fmt.Sprintf("external scope tag %q shadows the local scope tag", tag))
				continue
			}
			if dir, ok := owner[tag]; ok && dir != ref.ScopeDir {
				problems = append(problems, fmt.Sprintf("scope tag %q is listed for both %s and %s", tag, dir, ref.ScopeDir))
				continue
			}
			owner[tag] = ref.ScopeDir
		}
	}

	seen := make(map[string]bool)
	for _, v := range s.Versions {
		if seen[v.VersionTag] {
			problems = append(problems, fmt.Sprintf("version tag %q is defined more than once", v.VersionTag))
		}
		seen[v.VersionTag] = true
	}

	return problems
}
