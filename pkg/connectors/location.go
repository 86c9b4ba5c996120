package connectors

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

type LocationKind int

const (
	Unresolved LocationKind = iota
	Local
	Remote
)

func (k LocationKind) String() string {
	switch k {
	case Local:
		return "local"
	case Remote:
		return "remote"
	default:
		return "unresolved"
	}
}

// Location is where a scope directory lives. For Local locations Path is a
// filesystem path; for Remote locations it is the path inside the repository,
// "" meaning the repository root.
type Location struct {
	Kind   LocationKind
	Host   string
	Owner  string
	Repo   string
	Branch string
	Path   string
}

// ParseLocation resolves a scopedir. URLs with an http(s) scheme, and
// scheme-less paths whose first segment looks like a host name, are remote.
// Remote directories have the form host/owner/repo[/tree/branch[/path...]].
// When local is set the scopedir is always taken as a filesystem path.
func ParseLocation(scopedir string, local bool) (Location, error) {
	dir := strings.TrimSpace(scopedir)
	if dir == "" {
		return Location{}, fmt.Errorf("empty scope directory")
	}
	if local || !isRemote(dir) {
		return Location{Kind: Local, Path: filepath.Clean(dir)}, nil
	}

	rest := dir
	if i := strings.Index(rest, "://"); i >= 0 {
		rest = rest[i+3:]
	}
	var segs []string
	for _, s := range strings.Split(rest, "/") {
		if s != "" {
			segs = append(segs, s)
		}
	}
	if len(segs) < 3 {
		return Location{}, fmt.Errorf("remote scope directory %q does not name an owner and repository", scopedir)
	}

	loc := Location{
		Kind:  Remote,
		Host:  segs[0],
		Owner: segs[1],
		Repo:  strings.TrimSuffix(segs[2], ".git"),
	}
	if len(segs) == 3 {
		return loc, nil
	}
	if segs[3] != "tree" {
		return Location{}, fmt.Errorf("remote scope directory %q must use the form host/owner/repo/tree/branch/path", scopedir)
	}
	if len(segs) < 5 {
		return Location{}, fmt.Errorf("remote scope directory %q has no branch after tree", scopedir)
	}
	loc.Branch = segs[4]
	loc.Path = strings.Join(segs[5:], "/")
	return loc, nil
}

func isRemote(dir string) bool {
	lower := strings.ToLower(dir)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return true
	}
	first := strings.SplitN(filepath.ToSlash(dir), "/", 2)[0]
	return strings.Contains(first, ".") && !strings.HasPrefix(first, ".")
}

// Repository returns the repository the location points into.
func (l Location) Repository() Repo {
	if l.Kind != Remote {
		return Repo{}
	}
	return Repo{Owner: l.Owner, Name: l.Repo, Ref: l.Branch}
}

// OwnerRepo returns "owner/repo" for remote locations and "" otherwise.
func (l Location) OwnerRepo() string {
	return l.Repository().String()
}

// Join appends elements to the location's path using the separator of its kind.
func (l Location) Join(elem ...string) string {
	if l.Kind == Local {
		return filepath.Join(append([]string{l.Path}, elem...)...)
	}
	p := path.Join(append([]string{l.Path}, elem...)...)
	if p == "." {
		return ""
	}
	return strings.TrimPrefix(p, "/")
}

func (l Location) String() string {
	switch l.Kind {
	case Local:
		return l.Path
	case Remote:
		s := l.Host + "/" + l.Owner + "/" + l.Repo
		if l.Branch != "" {
			s += "/tree/" + l.Branch
			if l.Path != "" {
				s += "/" + l.Path
			}
		}
		return s
	default:
		return "<unresolved>"
	}
}
