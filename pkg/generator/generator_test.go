package generator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/tev2-toolkit/mrgen/pkg/connectors"
	"github.com/tev2-toolkit/mrgen/pkg/model"
)

const localSAFTemplate = `
scope:
  scopetag: tev2
  scopedir: %q
  curatedir: terms
  glossarydir: glossaries
  license: LICENSE.md
scopes:
  - scopetags: [ ext ]
    scopedir: https://github.com/ext-org/ext/tree/main/docs
  - scopetags: [ gone ]
    scopedir: https://github.com/gone-org/gone
versions:
  - vsntag: v1
    altvsntags: [ latest ]
    termselcrit: [ %s ]
`

const extSAF = `
scope:
  scopetag: ext
  scopedir: https://github.com/ext-org/ext/tree/main/docs
  curatedir: terms
  glossarydir: glossaries
versions:
  - vsntag: "1.0"
    altvsntags: [ v1.0.0 ]
  - vsntag: "2.0"
    altvsntags: [ latest ]
`

const extEntries = `
  - termid: e1
    scopetag: ext-native
    grouptags: management
    locator: e1.md
  - termid: e2
    grouptags: community
  - termid: e3
`

const partyRemoteEntry = `
  - termid: party
    grouptags: Management
    locator: remote-party.md
`

var localTerms = map[string]string{
	"party.md":  "---\nid: party\ntermid: party\nscopetag: tev2\ngrouptags: management\n---\n# Party\nText\n",
	"actor.md":  "---\nid: actor\ntermid: actor\nscopetag: tev2\n---\n# Actor\n",
	"broken.md": "---\nid: [broken\n---\n",
}

const (
	extSAFKey = "ext-org/ext@main:docs/saf.yaml"
	extMRGDir = "ext-org/ext@main:docs/glossaries/"
)

func remoteMRG(vsntag, entries string) string {
	return fmt.Sprintf("terminology:\n  scopetag: ext\n  vsntag: %q\nentries:%s", vsntag, entries)
}

func critList(crit ...string) string {
	quoted := make([]string, len(crit))
	for i, c := range crit {
		quoted[i] = fmt.Sprintf("%q", c)
	}
	return strings.Join(quoted, ", ")
}

// setupLocalScope writes a SAF and the local term files into a temp dir.
func setupLocalScope(t *testing.T, crit ...string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "saf.yaml"), []byte(fmt.Sprintf(localSAFTemplate, dir, critList(crit...))), 0o644); err != nil {
		t.Fatalf("write saf: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(dir, "terms"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	for name, content := range localTerms {
		if err := os.WriteFile(filepath.Join(dir, "terms", name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}

func newTestGenerator(t *testing.T, remote *fakeConnector, opts Options) *Generator {
	t.Helper()
	local, err := connectors.NewLocalFSConnector("")
	if err != nil {
		t.Fatalf("NewLocalFSConnector: %v", err)
	}
	opts.Local = local
	opts.Remote = remote
	return New(opts)
}

func entryIDs(entries []model.Entry) []string {
	var ids []string
	for _, e := range entries {
		ids = append(ids, e.TermID)
	}
	return ids
}

func TestGenerateEndToEnd(t *testing.T) {
	dir := setupLocalScope(t, "tags[management]", "tags[management]@ext:1.0")
	remote := newFakeConnector()
	remote.files[extSAFKey] = extSAF
	remote.files[extMRGDir+"mrg.1.0.yaml"] = remoteMRG("1.0", extEntries)

	g := newTestGenerator(t, remote, Options{})
	res, err := g.Generate(context.Background(), Request{ScopeDir: dir, VersionTag: "v1"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if got, want := entryIDs(res.MRG.Entries), []string{"party", "e1"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("want entries %v, got %v", want, got)
	}
	if res.MRG.Entries[0].Locator != "party.md" {
		t.Fatalf("local entry must be located at its term file, got %q", res.MRG.Entries[0].Locator)
	}
	if res.MRG.Entries[1].ScopeTag != "ext" {
		t.Fatalf("remote entry must be stamped with the requesting scope tag, got %q", res.MRG.Entries[1].ScopeTag)
	}
	if len(res.Warnings) != 1 || !strings.Contains(res.Warnings[0], "broken.md") {
		t.Fatalf("expected a single warning about broken.md, got %v", res.Warnings)
	}
	if remote.called("gone-org/gone@:saf.yaml") {
		t.Fatalf("a scope that is never selected from must not be fetched")
	}

	wantPath := filepath.Join(dir, "glossaries", "mrg.v1.yaml")
	if res.OutputPath != wantPath || !res.Written {
		t.Fatalf("expected MRG written to %s, got %s (written=%t)", wantPath, res.OutputPath, res.Written)
	}
	data, err := os.ReadFile(wantPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	back, err := model.ParseMRG(string(data))
	if err != nil {
		t.Fatalf("ParseMRG: %v", err)
	}
	term := back.Terminology
	if term.ScopeTag != "tev2" || term.VersionTag != "v1" || term.License != "LICENSE.md" || !reflect.DeepEqual(term.AltVersionTags, []string{"latest"}) {
		t.Fatalf("unexpected terminology %#v", term)
	}
	if len(back.Scopes) != 2 || len(back.Entries) != 2 {
		t.Fatalf("unexpected written MRG: %d scopes, %d entries", len(back.Scopes), len(back.Entries))
	}
}

func TestGenerateAltVersionFallback(t *testing.T) {
	dir := setupLocalScope(t, "tags[management]", "tags[management]@ext:1.0")
	remote := newFakeConnector()
	remote.files[extSAFKey] = extSAF
	remote.files[extMRGDir+"mrg.v1.0.0.yaml"] = remoteMRG("1.0", extEntries)

	g := newTestGenerator(t, remote, Options{})
	res, err := g.Generate(context.Background(), Request{ScopeDir: dir, VersionTag: "v1", DryRun: true})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got, want := entryIDs(res.MRG.Entries), []string{"party", "e1"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("want entries %v, got %v", want, got)
	}
	if !remote.called(extMRGDir + "mrg.1.0.yaml") {
		t.Fatalf("the primary version must be tried before its alternates")
	}
}

func TestGenerateUnpinnedRemoteUsesLatest(t *testing.T) {
	dir := setupLocalScope(t, "terms[party]", "*@ext")
	remote := newFakeConnector()
	remote.files[extSAFKey] = extSAF
	remote.files[extMRGDir+"mrg.2.0.yaml"] = remoteMRG("2.0", extEntries)

	g := newTestGenerator(t, remote, Options{})
	res, err := g.Generate(context.Background(), Request{ScopeDir: dir, VersionTag: "v1", DryRun: true})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got, want := entryIDs(res.MRG.Entries), []string{"party", "e1", "e2", "e3"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("want entries %v, got %v", want, got)
	}
}

func TestGenerateRemoteFailuresDegrade(t *testing.T) {
	dir := setupLocalScope(t, "*", "*@ext", "*@gone")
	remote := newFakeConnector()
	remote.errs["gone-org/gone@:saf.yaml"] = errors.New("connection reset by peer")

	g := newTestGenerator(t, remote, Options{Concurrency: 1})
	res, err := g.Generate(context.Background(), Request{ScopeDir: dir, VersionTag: "v1", DryRun: true})
	if err != nil {
		t.Fatalf("remote failures must not fail the run: %v", err)
	}
	if got, want := entryIDs(res.MRG.Entries), []string{"actor", "party"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("want entries %v, got %v", want, got)
	}
	if len(res.Warnings) != 3 {
		t.Fatalf("expected 3 warnings, got %v", res.Warnings)
	}
	// remote warnings follow scope tag order
	if !strings.Contains(res.Warnings[1], "scopetag ext") || !strings.Contains(res.Warnings[2], "scopetag gone") {
		t.Fatalf("unexpected remote warnings %v", res.Warnings[1:])
	}
}

func TestGenerateMissingRemoteVersion(t *testing.T) {
	dir := setupLocalScope(t, "terms[party]", "*@ext:9.9")
	remote := newFakeConnector()
	remote.files[extSAFKey] = extSAF

	g := newTestGenerator(t, remote, Options{})
	res, err := g.Generate(context.Background(), Request{ScopeDir: dir, VersionTag: "v1", DryRun: true})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(res.MRG.Entries) != 1 || len(res.Warnings) != 2 || !strings.Contains(res.Warnings[1], "9.9") {
		t.Fatalf("unexpected result: entries %v, warnings %v", entryIDs(res.MRG.Entries), res.Warnings)
	}
}

func TestGenerateDedupClosest(t *testing.T) {
	dir := setupLocalScope(t, "*", "tags[management]@ext:1.0")
	remote := newFakeConnector()
	remote.files[extSAFKey] = extSAF
	remote.files[extMRGDir+"mrg.1.0.yaml"] = remoteMRG("1.0", extEntries+partyRemoteEntry)

	res, err := newTestGenerator(t, remote, Options{}).Generate(context.Background(), Request{ScopeDir: dir, VersionTag: "v1", DryRun: true})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got, want := entryIDs(res.MRG.Entries), []string{"actor", "party", "e1", "party"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("without dedup want %v, got %v", want, got)
	}

	res, err = newTestGenerator(t, remote, Options{Dedup: DedupClosest}).Generate(context.Background(), Request{ScopeDir: dir, VersionTag: "v1", DryRun: true})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got, want := entryIDs(res.MRG.Entries), []string{"actor", "party", "e1"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("with dedup want %v, got %v", want, got)
	}
	if res.MRG.Entries[1].Locator != "party.md" {
		t.Fatalf("local entry must shadow the remote one, got locator %q", res.MRG.Entries[1].Locator)
	}
}

func TestGenerateNoSuchVersionWritesNothing(t *testing.T) {
	dir := setupLocalScope(t, "*")
	g := newTestGenerator(t, newFakeConnector(), Options{})

	_, err := g.Generate(context.Background(), Request{ScopeDir: dir, VersionTag: "moo"})
	if !errors.Is(err, ErrNoSuchVersion) || !strings.Contains(err.Error(), `"moo"`) {
		t.Fatalf("expected ErrNoSuchVersion naming moo, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "glossaries")); !os.IsNotExist(err) {
		t.Fatalf("no output may be written on a missing version, stat: %v", err)
	}
}

func TestGenerateDryRunWritesNothing(t *testing.T) {
	dir := setupLocalScope(t, "*")
	g := newTestGenerator(t, newFakeConnector(), Options{})

	res, err := g.Generate(context.Background(), Request{ScopeDir: dir, VersionTag: "v1", DryRun: true})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.Written {
		t.Fatalf("dry run must not write")
	}
	if _, err := os.Stat(res.OutputPath); !os.IsNotExist(err) {
		t.Fatalf("dry run wrote %s", res.OutputPath)
	}
}

func TestGenerateMissingSAFAndGlossaryDir(t *testing.T) {
	g := newTestGenerator(t, newFakeConnector(), Options{})
	_, err := g.Generate(context.Background(), Request{ScopeDir: t.TempDir(), VersionTag: "v1"})
	if !errors.Is(err, connectors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for a missing local SAF, got %v", err)
	}

	dir := t.TempDir()
	saf := "scope:\n  scopetag: tev2\n  curatedir: terms\nversions:\n  - vsntag: v1\n"
	if err := os.WriteFile(filepath.Join(dir, "custom.yaml"), []byte(saf), 0o644); err != nil {
		t.Fatalf("write saf: %v", err)
	}
	_, err = g.Generate(context.Background(), Request{ScopeDir: dir, SAFFilename: "custom.yaml", VersionTag: "v1"})
	if !errors.Is(err, ErrNoGlossaryDir) {
		t.Fatalf("expected ErrNoGlossaryDir, got %v", err)
	}
}

func TestGenerateRemoteLocalScope(t *testing.T) {
	remote := newFakeConnector()
	remote.files["me/tev2@main:docs/saf.yaml"] = fmt.Sprintf(localSAFTemplate, "https://github.com/me/tev2/tree/main/docs", critList("*"))
	remote.files["me/tev2@main:docs/terms/party.md"] = localTerms["party.md"]

	out := t.TempDir()
	g := New(Options{Remote: remote, OutDir: out})
	res, err := g.Generate(context.Background(), Request{ScopeDir: "https://github.com/me/tev2/tree/main/docs", VersionTag: "v1"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(res.MRG.Entries) != 1 {
		t.Fatalf("expected one entry, got %v", entryIDs(res.MRG.Entries))
	}
	if got, want := res.MRG.Entries[0].NavURL, "https://github.com/me/tev2/blob/main/docs/terms/party.md"; got != want {
		t.Fatalf("want navurl %s, got %s", want, got)
	}
	if res.OutputPath != filepath.Join(out, "glossaries", "mrg.v1.yaml") {
		t.Fatalf("unexpected output path %s", res.OutputPath)
	}
	if _, err := os.Stat(res.OutputPath); err != nil {
		t.Fatalf("output not written: %v", err)
	}

	if _, err := g.Generate(context.Background(), Request{ScopeDir: t.TempDir(), VersionTag: "v1"}); !errors.Is(err, ErrNoConnector) {
		t.Fatalf("expected ErrNoConnector without a filesystem connector, got %v", err)
	}
}

func TestAssembleDoesNotFilter(t *testing.T) {
	saf := model.SAF{
		Scope:  model.Scope{ScopeTag: "tev2", ScopeDir: "./tev2", CuratedDir: "terms", License: "MIT"},
		Scopes: []model.ScopeRef{{ScopeTags: []string{"ext"}, ScopeDir: "https://github.com/o/r"}},
	}
	version := model.Version{VersionTag: "v1", AltVersionTags: []string{"latest"}}
	entries := []model.Entry{{Term: model.Term{TermID: "a"}}, {Term: model.Term{TermID: "a"}}}

	mrg := Assemble(saf, version, entries)
	if len(mrg.Entries) != 2 || mrg.Terminology.VersionTag != "v1" || mrg.Terminology.License != "MIT" {
		t.Fatalf("unexpected MRG %#v", mrg)
	}
	if !reflect.DeepEqual(mrg.Scopes, saf.Scopes) || !reflect.DeepEqual(mrg.Terminology.AltVersionTags, []string{"latest"}) {
		t.Fatalf("scopes and alternate tags must be copied verbatim")
	}
}

func TestMRGFilename(t *testing.T) {
	tests := []struct{ mrgFile, vsntag, want string }{
		{"", "v1", "mrg.v1.yaml"},
		{"mrg", "mrgtest", "mrg.mrgtest.yaml"},
		{"glossary.yaml", "0x921456", "glossary.0x921456.yaml"},
		{"mrg.tev2", "v1", "mrg.tev2.v1.yaml"},
	}
	for _, tt := range tests {
		if got := MRGFilename(tt.mrgFile, tt.vsntag); got != tt.want {
			t.Errorf("MRGFilename(%q, %q) = %q, want %q", tt.mrgFile, tt.vsntag, got, tt.want)
		}
	}
}

func TestWriteMRGCreatesGlossaryDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "mrg.v1.yaml")
	if err := WriteMRG(model.MRG{Terminology: model.Terminology{ScopeTag: "tev2"}}, path); err != nil {
		t.Fatalf("WriteMRG: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected %s: %v", path, err)
	}

	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	err := WriteMRG(model.MRG{}, filepath.Join(blocker, "glossaries", "mrg.v1.yaml"))
	if !errors.Is(err, ErrCannotCreateGlossaryDir) {
		t.Fatalf("expected ErrCannotCreateGlossaryDir, got %v", err)
	}
}

const parallelSAFTemplate = `
scope:
  scopetag: local
  scopedir: %q
  curatedir: terms
  glossarydir: glossaries
scopes:
  - scopetags: [ alpha ]
    scopedir: https://github.com/org/alpha
  - scopetags: [ bravo ]
    scopedir: https://github.com/org/bravo
  - scopetags: [ charlie ]
    scopedir: https://github.com/org/charlie
  - scopetags: [ xray ]
    scopedir: https://github.com/org/xray
  - scopetags: [ yankee ]
    scopedir: https://github.com/org/yankee
  - scopetags: [ zulu ]
    scopedir: https://github.com/org/zulu
versions:
  - vsntag: v1
    termselcrit: [ "*@alpha:v1", "*@bravo:v1", "*@charlie:v1", "*@xray:v1", "*@yankee:v1", "*@zulu:v1" ]
`

func TestGenerateRemoteOrderIgnoresCompletionOrder(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "saf.yaml"), []byte(fmt.Sprintf(parallelSAFTemplate, dir)), 0o644); err != nil {
		t.Fatalf("write saf: %v", err)
	}

	remote := newFakeConnector()
	// earlier scope tags finish last
	for i, tag := range []string{"alpha", "bravo", "charlie"} {
		safKey := "org/" + tag + "@:saf.yaml"
		remote.files[safKey] = fmt.Sprintf("scope:\n  scopetag: %s\n  glossarydir: glossaries\nversions:\n  - vsntag: v1\n", tag)
		remote.files["org/"+tag+"@:glossaries/mrg.v1.yaml"] = fmt.Sprintf("entries:\n  - termid: %s-term\n", tag)
		remote.delays[safKey] = time.Duration(3-i) * 60 * time.Millisecond
	}
	for i, tag := range []string{"xray", "yankee", "zulu"} {
		safKey := "org/" + tag + "@:saf.yaml"
		remote.errs[safKey] = fmt.Errorf("%s unreachable", tag)
		remote.delays[safKey] = time.Duration(3-i) * 60 * time.Millisecond
	}

	g := newTestGenerator(t, remote, Options{Concurrency: 6})
	res, err := g.Generate(context.Background(), Request{ScopeDir: dir, VersionTag: "v1", DryRun: true})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if got, want := entryIDs(res.MRG.Entries), []string{"alpha-term", "bravo-term", "charlie-term"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("want entries %v, got %v", want, got)
	}
	var tags []string
	for _, e := range res.MRG.Entries {
		tags = append(tags, e.ScopeTag)
	}
	if want := []string{"alpha", "bravo", "charlie"}; !reflect.DeepEqual(tags, want) {
		t.Fatalf("want scope tags %v, got %v", want, tags)
	}

	if len(res.Warnings) != 3 {
		t.Fatalf("expected 3 warnings, got %v", res.Warnings)
	}
	for i, tag := range []string{"xray", "yankee", "zulu"} {
		if !strings.Contains(res.Warnings[i], "scopetag "+tag) {
			t.Fatalf("warning %d should be about %s, got %v", i, tag, res.Warnings)
		}
	}
}
