package generator

import (
	"context"
	"fmt"
	"path"

	"github.com/tev2-toolkit/mrgen/pkg/connectors"
	"github.com/tev2-toolkit/mrgen/pkg/filter"
	"github.com/tev2-toolkit/mrgen/pkg/model"
)

// localEntries reads every curated term file of the local scope and keeps the
// terms its selection admits. Term files that cannot be parsed are skipped
// with a warning; failing to list the curated directory is fatal.
func (g *Generator) localEntries(ctx context.Context, fc FetchContext) ([]model.Entry, []string, error) {
	c, err := g.connectorFor(fc.Location)
	if err != nil {
		return nil, nil, err
	}
	dir := fc.Location.Join(fc.CuratedDir)
	files, err := c.GetDirectoryContent(ctx, fc.Location.Repository(), dir)
	if err != nil {
		return nil, nil, fmt.Errorf("could not read curated terms from %s: %w", dir, err)
	}
	if len(files) == 0 {
		g.log.Warnf("No term files found in %s", dir)
	}

	var (
		terms    []model.Term
		warnings []string
	)
	for _, f := range files {
		t, err := ExtractTerm(f)
		if err != nil {
			msg := fmt.Sprintf("skipping term file: %v", err)
			g.log.Warnf("%s", msg)
			warnings = append(warnings, msg)
			continue
		}
		g.log.Debugf("Created term with %s %q from %s", g.identity, t.Identity(g.identity), f.Filename)
		terms = append(terms, t)
	}

	selected := filter.Apply(terms, fc.Predicate(g.identity))
	entries := make([]model.Entry, 0, len(selected))
	for _, t := range selected {
		e := model.NewEntry(t)
		e.NavURL = navURL(fc.Location, fc.CuratedDir, t.Filename)
		entries = append(entries, e)
		g.log.Infof("... Adding local term %s", t.Identity(g.identity))
	}
	return entries, warnings, nil
}

// navURL points at the source of a term file when it lives in a hosted repository.
func navURL(loc connectors.Location, curatedDir, filename string) string {
	if loc.Kind != connectors.Remote || loc.Branch == "" || filename == "" {
		return ""
	}
	return "https://" + path.Join(loc.Host, loc.Owner, loc.Repo, "blob", loc.Branch, loc.Path, curatedDir, filename)
}
