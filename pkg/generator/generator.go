package generator

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/tev2-toolkit/mrgen/pkg/connectors"
	"github.com/tev2-toolkit/mrgen/pkg/model"
)

// DedupClosest keeps a single entry per term identity, preferring local
// entries over remote ones and earlier scope tags over later ones.
const DedupClosest = "closest"

// Options configures a Generator.
type Options struct {
	// Local reads scopes that live on the filesystem.
	Local connectors.Connector
	// Remote reads scopes that live in a hosted repository.
	Remote connectors.Connector

	Identity    string // term identity field; defaults to termid
	Concurrency int    // parallel remote scope fetches; defaults to 4 if <= 0
	Dedup       string // "" keeps every entry, DedupClosest removes shadowed ones
	OutDir      string // base directory for the output file; optional
	Log         Logger // optional; nil = no logging
}

// Request names the glossary to generate.
type Request struct {
	ScopeDir    string
	SAFFilename string // defaults to saf.yaml
	VersionTag  string
	// Local forces ScopeDir to be read from the filesystem.
	Local bool
	// DryRun builds the MRG without writing it.
	DryRun bool
}

// Result holds the outcome of a generation run.
type Result struct {
	MRG        model.MRG
	ContextMap ContextMap
	Warnings   []string // non-fatal problems, in the order they occurred
	OutputPath string
	Written    bool
}

type Generator struct {
	local       connectors.Connector
	remote      connectors.Connector
	identity    string
	concurrency int
	dedup       string
	outDir      string
	log         Logger
}

func New(opts Options) *Generator {
	g := &Generator{
		local:       opts.Local,
		remote:      opts.Remote,
		identity:    opts.Identity,
		concurrency: opts.Concurrency,
		dedup:       opts.Dedup,
		outDir:      opts.OutDir,
		log:         opts.Log,
	}
	if g.identity == "" {
		g.identity = model.DefaultIdentity
	}
	if g.concurrency <= 0 {
		g.concurrency = 4
	}
	if g.log == nil {
		g.log = nopLogger{}
	}
	return g
}

func (g *Generator) connectorFor(loc connectors.Location) (connectors.Connector, error) {
	var c connectors.Connector
	switch loc.Kind {
	case connectors.Local:
		c = g.local
	case connectors.Remote:
		c = g.remote
	}
	if c == nil {
		return nil, fmt.Errorf("%w: %s (%s)", ErrNoConnector, loc, loc.Kind)
	}
	return c, nil
}

// LoadSAF fetches and parses the SAF named filename at loc.
func (g *Generator) LoadSAF(ctx context.Context, loc connectors.Location, filename string) (model.SAF, error) {
	c, err := g.connectorFor(loc)
	if err != nil {
		return model.SAF{}, err
	}
	text, err := c.GetContent(ctx, loc.Repository(), loc.Join(filename))
	if err != nil {
		return model.SAF{}, fmt.Errorf("%s/%s: there is no such resource or anonymous access to this repository is not allowed: %w", loc, filename, err)
	}
	return model.ParseSAF(text)
}

// Resolve loads the SAF of req and builds its context map without fetching
// any terms.
func (g *Generator) Resolve(ctx context.Context, req Request) (model.SAF, ContextMap, []string, error) {
	loc, err := connectors.ParseLocation(req.ScopeDir, req.Local)
	if err != nil {
		return model.SAF{}, nil, nil, err
	}
	safFilename := req.SAFFilename
	if safFilename == "" {
		safFilename = model.DefaultSAFFilename
	}

	saf, err := g.LoadSAF(ctx, loc, safFilename)
	if err != nil {
		return model.SAF{}, nil, nil, err
	}
	warnings := saf.Validate()
	for _, w := range warnings {
		g.log.Warnf("SAF: %s", w)
	}

	cm, more, err := BuildContextMap(loc, saf, req.VersionTag, g.log)
	if err != nil {
		return saf, nil, warnings, err
	}
	return saf, cm, append(warnings, more...), nil
}

// Generate builds the MRG for req and, unless req.DryRun is set, writes it to
// <glossarydir>/<mrgfile>.<vsntag>.yaml. Problems with external scopes are
// reported in Result.Warnings and never fail the run.
func (g *Generator) Generate(ctx context.Context, req Request) (*Result, error) {
	g.log.Infof("Step 1/6: Parsing Scope Administration File (SAF) from location %s", req.ScopeDir)
	g.log.Infof("Step 2/6: Resolving local and remote scopes defined in the SAF")
	saf, cm, warnings, err := g.Resolve(ctx, req)
	if err != nil {
		return nil, err
	}
	if saf.Scope.GlossaryDir == "" {
		return nil, ErrNoGlossaryDir
	}
	version, _ := saf.Version(req.VersionTag)
	localTag := saf.Scope.ScopeTag

	g.log.Infof("Step 3/6: Creating the terminology section of the MRG")
	result := &Result{ContextMap: cm, Warnings: warnings}

	g.log.Infof("Step 4/6: Parsing local terms (terms in this scopedir) to create MRG entries")
	entries, localWarnings, err := g.localEntries(ctx, cm[localTag])
	if err != nil {
		return nil, err
	}
	result.Warnings = append(result.Warnings, localWarnings...)

	g.log.Infof("Step 5/6: Parsing remote terms (terms from the scopedirs in the scopes section) to create MRG entries")
	remote, remoteWarnings := g.remoteEntries(ctx, cm, localTag)
	result.Warnings = append(result.Warnings, remoteWarnings...)
	entries = append(entries, remote...)

	if g.dedup == DedupClosest {
		entries = DedupEntries(entries, g.identity)
	}
	result.MRG = Assemble(saf, version, entries)
	result.OutputPath = g.outputPath(cm[localTag].Location, saf, req.VersionTag)

	if req.DryRun {
		g.log.Infof("Step 6/6: Dry run, MRG not written to %s", result.OutputPath)
		return result, nil
	}
	if err := WriteMRG(result.MRG, result.OutputPath); err != nil {
		return nil, err
	}
	result.Written = true
	g.log.Infof("Step 6/6: Written generated MRG to file: %s", result.OutputPath)
	return result, nil
}

func (g *Generator) outputPath(loc connectors.Location, saf model.SAF, versionTag string) string {
	base := g.outDir
	if base == "" {
		if loc.Kind == connectors.Local {
			base = loc.Path
		} else {
			base = "."
		}
	}
	return filepath.Join(base, saf.Scope.GlossaryDir, MRGFilename(saf.Scope.MRGFile, versionTag))
}

// Assemble combines the terminology header of saf, its scopes list and the
// merged entries into an MRG. It does no filtering.
func Assemble(saf model.SAF, version model.Version, entries []model.Entry) model.MRG {
	return model.MRG{
		Terminology: model.Terminology{
			ScopeTag:       saf.Scope.ScopeTag,
			ScopeDir:       saf.Scope.ScopeDir,
			CuratedDir:     saf.Scope.CuratedDir,
			VersionTag:     version.VersionTag,
			License:        saf.Scope.License,
			AltVersionTags: append([]string(nil), version.AltVersionTags...),
		},
		Scopes:  append([]model.ScopeRef(nil), saf.Scopes...),
		Entries: entries,
	}
}

// DedupEntries drops every entry whose identity already appeared earlier in
// entries. Entries without an identity are kept.
func DedupEntries(entries []model.Entry, identity string) []model.Entry {
	seen := make(map[string]bool)
	out := make([]model.Entry, 0, len(entries))
	for _, e := range entries {
		id := model.Normalize(e.Identity(identity))
		if id != "" {
			if seen[id] {
				continue
			}
			seen[id] = true
		}
		out = append(out, e)
	}
	return out
}
