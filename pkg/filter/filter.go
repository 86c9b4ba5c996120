package filter

import (
	"sort"
	"strings"

	"github.com/tev2-toolkit/mrgen/internal/utils"
	"github.com/tev2-toolkit/mrgen/pkg/model"
)

// Kind selects what a TermFilter matches on.
type Kind int

const (
	All Kind = iota
	ByID
	ByTag
)

// String returns the selection-criteria token of the kind.
func (k Kind) String() string {
	switch k {
	case ByID:
		return "terms"
	case ByTag:
		return "tags"
	default:
		return "*"
	}
}

// ParseKind maps a selection-criteria token to a Kind.
func ParseKind(token string) (Kind, bool) {
	switch token {
	case "*":
		return All, true
	case "terms":
		return ByID, true
	case "tags":
		return ByTag, true
	}
	return All, false
}

// TermFilter matches terms on their identity or on their group tags. Two
// filters with the same kind and value set are equal.
type TermFilter struct {
	kind   Kind
	values []string
}

// Of builds a filter of the given kind from a comma separated value list.
// Values are trimmed, case-folded, de-duplicated and sorted.
func Of(kind Kind, csv string) TermFilter {
	if kind == All {
		return TermFilter{kind: All}
	}
	seen := make(map[string]bool)
	var values []string
	for _, v := range model.SplitAndNormalize(csv) {
		if !seen[v] {
			seen[v] = true
			values = append(values, v)
		}
	}
	sort.Strings(values)
	return TermFilter{kind: kind, values: values}
}

// AllTerms returns the filter that matches every term.
func AllTerms() TermFilter {
	return TermFilter{kind: All}
}

func (f TermFilter) Kind() Kind { return f.kind }

func (f TermFilter) Values() []string {
	return append([]string(nil), f.values...)
}

// Test matches t using the default identity field.
func (f TermFilter) Test(t model.Term) bool {
	return f.Match(t, model.DefaultIdentity)
}

// Match reports whether t passes the filter. identity names the term field
// compared by ByID filters.
func (f TermFilter) Match(t model.Term, identity string) bool {
	switch f.kind {
	case ByID:
		return f.contains(model.Normalize(t.Identity(identity)))
	case ByTag:
		for _, tag := range t.NormalizedGroupTags() {
			if f.contains(tag) {
				return true
			}
		}
		return false
	default:
		return true
	}
}

func (f TermFilter) contains(v string) bool {
	if v == "" {
		return false
	}
	i := sort.SearchStrings(f.values, v)
	return i < len(f.values) && f.values[i] == v
}

func (f TermFilter) Equal(other TermFilter) bool {
	return f.kind == other.kind && utils.AreSlicesEqual(f.values, other.values)
}

// String renders the filter in selection-criteria syntax, e.g. tags[a,b].
func (f TermFilter) String() string {
	if f.kind == All {
		return "*"
	}
	return f.kind.String() + "[" + strings.Join(f.values, ",") + "]"
}

// Predicate returns f as a composable predicate bound to an identity field.
func (f TermFilter) Predicate(identity string) Predicate {
	return func(t model.Term) bool { return f.Match(t, identity) }
}
