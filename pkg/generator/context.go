package generator

import (
	"fmt"
	"sort"

	"github.com/tev2-toolkit/mrgen/pkg/connectors"
	"github.com/tev2-toolkit/mrgen/pkg/criteria"
	"github.com/tev2-toolkit/mrgen/pkg/filter"
	"github.com/tev2-toolkit/mrgen/pkg/model"
)

// FetchContext is everything needed to fetch and select the terms of one
// scope tag. It is built once and not modified afterwards.
type FetchContext struct {
	ScopeTag string
	Location connectors.Location
	// CuratedDir is empty for external scopes; their own SAF names it.
	CuratedDir string
	// VersionTag is the version to request. Empty for an external scope
	// means no selection pinned one.
	VersionTag    string
	AddFilters    []filter.TermFilter
	RemoveFilters []filter.TermFilter
}

func (c FetchContext) OwnerRepo() string { return c.Location.OwnerRepo() }

func (c FetchContext) RootPath() string { return c.Location.Path }

// Selected reports whether any selection adds terms from this scope. Scopes
// that are referenced but never selected from are skipped during the merge.
func (c FetchContext) Selected() bool { return len(c.AddFilters) > 0 }

// Predicate is the consolidated add/remove selection of the scope.
func (c FetchContext) Predicate(identity string) filter.Predicate {
	return filter.Select(c.AddFilters, c.RemoveFilters, identity)
}

// ContextMap holds one FetchContext per scope tag.
type ContextMap map[string]FetchContext

// Tags returns the scope tags in lexicographic order.
func (m ContextMap) Tags() []string {
	tags := make([]string, 0, len(m))
	for tag := range m {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// selection accumulates the directives that target one scope tag.
type selection struct {
	adds, removes []filter.TermFilter
	version       string
}

func (s *selection) add(d criteria.Directive) {
	f := d.Filter()
	if d.Remove {
		s.removes = appendUnique(s.removes, f)
	} else {
		s.adds = appendUnique(s.adds, f)
	}
	if d.VersionTag != "" {
		s.version = d.VersionTag
	}
}

func appendUnique(filters []filter.TermFilter, f filter.TermFilter) []filter.TermFilter {
	for _, existing := range filters {
		if existing.Equal(f) {
			return filters
		}
	}
	return append(filters, f)
}

// BuildContextMap resolves the selection criteria of versionTag into one
// FetchContext per scope tag: the local scope at loc plus every scope tag in
// the SAF's scopes list. Rejected expressions and unusable external scope
// directories are returned as warnings. The only error is ErrNoSuchVersion.
func BuildContextMap(loc connectors.Location, saf model.SAF, versionTag string, log Logger) (ContextMap, []string, error) {
	if log == nil {
		log = nopLogger{}
	}
	localTag := saf.Scope.ScopeTag

	version, ok := saf.Version(versionTag)
	if !ok {
		return nil, nil, noSuchVersion(versionTag)
	}

	var warnings []string
	warn := func(format string, args ...interface{}) {
		msg := fmt.Sprintf(format, args...)
		log.Warnf("%s", msg)
		warnings = append(warnings, msg)
	}

	known := map[string]bool{localTag: true}
	for _, tag := range saf.ExternalScopeTags() {
		known[tag] = true
	}

	selections := make(map[string]*selection)
	for _, expr := range version.TermSelCrit {
		d, err := criteria.Parse(expr)
		if err != nil {
			warn("skipping selection of version %s: %v", versionTag, err)
			continue
		}
		target := d.Target(localTag)
		if !known[target] {
			warn("skipping %q: scope tag %q is not defined in the SAF", expr, target)
			continue
		}
		s, ok := selections[target]
		if !ok {
			s = &selection{}
			selections[target] = s
		}
		s.add(d)
		log.Debugf("Routed %s to scope %s", d, target)
	}

	cm := make(ContextMap)
	build := func(tag string, loc connectors.Location, curatedDir, defaultVersion string) {
		fc := FetchContext{ScopeTag: tag, Location: loc, CuratedDir: curatedDir, VersionTag: defaultVersion}
		if s, ok := selections[tag]; ok {
			fc.AddFilters = s.adds
			fc.RemoveFilters = s.removes
			if s.version != "" {
				fc.VersionTag = s.version
			}
		}
		cm[tag] = fc
	}

	build(localTag, loc, saf.Scope.CuratedDir, versionTag)

	for _, ref := range saf.Scopes {
		refLoc, err := connectors.ParseLocation(ref.ScopeDir, false)
		if err != nil {
			warn("scopes %v: %v", ref.ScopeTags, err)
			refLoc = connectors.Location{Kind: connectors.Unresolved}
		}
		for _, tag := range ref.ScopeTags {
			if tag == localTag {
				continue
			}
			if _, dup := cm[tag]; dup {
				continue
			}
			build(tag, refLoc, "", "")
		}
	}

	return cm, warnings, nil
}
