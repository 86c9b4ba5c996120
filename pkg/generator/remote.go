package generator

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/tev2-toolkit/mrgen/pkg/connectors"
	"github.com/tev2-toolkit/mrgen/pkg/model"
)

// LatestVersionTag is requested from external scopes when no selection pins a version.
const LatestVersionTag = "latest"

type remoteResult struct {
	entries  []model.Entry
	warnings []string
}

// remoteEntries fetches the selected external scopes concurrently using a
// worker pool. Results are merged in scope tag order so that the entry order
// does not depend on which fetch finished first.
func (g *Generator) remoteEntries(ctx context.Context, cm ContextMap, localTag string) ([]model.Entry, []string) {
	var tags []string
	for _, tag := range cm.Tags() {
		if tag != localTag && cm[tag].Selected() {
			tags = append(tags, tag)
		}
	}
	if len(tags) == 0 {
		return nil, nil
	}

	tagChan := make(chan string, len(tags))

	var mu sync.Mutex
	results := make(map[string]remoteResult, len(tags))

	var wg sync.WaitGroup
	for i := 0; i < g.concurrency && i < len(tags); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for tag := range tagChan {
				res := g.fetchRemote(ctx, cm[tag])
				mu.Lock()
				results[tag] = res
				mu.Unlock()
			}
		}()
	}

	for _, tag := range tags {
		tagChan <- tag
	}
	close(tagChan)
	wg.Wait()

	var (
		entries  []model.Entry
		warnings []string
	)
	for _, tag := range tags {
		entries = append(entries, results[tag].entries...)
		warnings = append(warnings, results[tag].warnings...)
	}
	return entries, warnings
}

// fetchRemote selects entries from the previously generated MRG of one
// external scope. Every failure degrades to a warning and zero entries.
func (g *Generator) fetchRemote(ctx context.Context, fc FetchContext) remoteResult {
	var res remoteResult
	warn := func(format string, args ...interface{}) remoteResult {
		msg := fmt.Sprintf(format, args...)
		g.log.Warnf("%s", msg)
		res.warnings = append(res.warnings, msg)
		return res
	}

	g.log.Infof("... Fetching terms for scopetag %s from scopedir %s with version %s", fc.ScopeTag, fc.Location, displayVersion(fc.VersionTag))
	if fc.Location.Kind == connectors.Unresolved {
		return warn("There was an error with remote scopetag %s. Its scopedir could not be resolved", fc.ScopeTag)
	}

	saf, err := g.LoadSAF(ctx, fc.Location, model.DefaultSAFFilename)
	if err != nil {
		return warn("There was an error with remote scopetag %s. Could not find the %s at %s: %v", fc.ScopeTag, model.DefaultSAFFilename, fc.Location, err)
	}

	version, ok := remoteVersion(saf, fc.VersionTag)
	if !ok {
		return warn("No version %s found in the SAF of remote scope (tag=%s, repo=%s) that matches the version specified in the local SAF", displayVersion(fc.VersionTag), fc.ScopeTag, fc.OwnerRepo())
	}
	if saf.Scope.GlossaryDir == "" {
		return warn("Remote scope %s (%s) has no glossarydir, so it has no MRG to read", fc.ScopeTag, fc.Location)
	}

	mrg, found, err := g.fetchRemoteMRG(ctx, fc.Location, saf.Scope, versionCandidates(fc.VersionTag, version))
	if err != nil {
		return warn("Could not read the MRG of remote scope %s: %v", fc.ScopeTag, err)
	}
	if !found {
		return warn("No MRG found in glossary directory %s of remote dir %s", saf.Scope.GlossaryDir, fc.Location)
	}

	keep := fc.Predicate(g.identity)
	for _, e := range mrg.Entries {
		if !keep(e.Term) {
			continue
		}
		e.ScopeTag = fc.ScopeTag
		res.entries = append(res.entries, e)
		g.log.Infof("... Copying remote term %s", e.Identity(g.identity))
	}
	if len(res.entries) == 0 {
		return warn("No terms of remote scope %s matched its selection", fc.ScopeTag)
	}
	return res
}

// fetchRemoteMRG tries each version tag in turn and returns the first MRG
// found. Not found moves on to the next tag; any other error stops the search.
func (g *Generator) fetchRemoteMRG(ctx context.Context, loc connectors.Location, scope model.Scope, tags []string) (model.MRG, bool, error) {
	c, err := g.connectorFor(loc)
	if err != nil {
		return model.MRG{}, false, err
	}
	for _, tag := range tags {
		p := loc.Join(scope.GlossaryDir, MRGFilename(scope.MRGFile, tag))
		text, err := c.GetContent(ctx, loc.Repository(), p)
		if errors.Is(err, connectors.ErrNotFound) {
			g.log.Debugf("No MRG at %s", p)
			continue
		}
		if err != nil {
			return model.MRG{}, false, err
		}
		mrg, err := model.ParseMRG(text)
		if err != nil {
			return model.MRG{}, false, fmt.Errorf("%s: %w", p, err)
		}
		return mrg, true, nil
	}
	return model.MRG{}, false, nil
}

// remoteVersion finds the version of an external SAF that a selection asked
// for: by exact tag first, then by alternate tag. An unpinned selection asks
// for the latest version.
func remoteVersion(saf model.SAF, tag string) (model.Version, bool) {
	if tag == "" {
		tag = LatestVersionTag
	}
	if v, ok := saf.Version(tag); ok {
		return v, true
	}
	return saf.VersionByAlias(tag)
}

// versionCandidates lists the tags an MRG may be stored under: the requested
// tag, the version's own tag, then its alternates.
func versionCandidates(requested string, v model.Version) []string {
	var out []string
	seen := make(map[string]bool)
	for _, tag := range append([]string{requested, v.VersionTag}, v.AltVersionTags...) {
		if tag != "" && !seen[tag] {
			seen[tag] = true
			out = append(out, tag)
		}
	}
	return out
}

func displayVersion(tag string) string {
	if tag == "" {
		return LatestVersionTag
	}
	return tag
}
