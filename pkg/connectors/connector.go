package connectors

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when a file or directory does not exist at the
	// requested location. Callers treat it as recoverable.
	ErrNotFound     = errors.New("content not found")
	ErrUnauthorized = errors.New("access to content was denied")
)

// Repo identifies a repository and the ref to read it at. Filesystem
// connectors ignore it.
type Repo struct {
	Owner string
	Name  string
	Ref   string
}

func (r Repo) String() string {
	if r.Owner == "" && r.Name == "" {
		return ""
	}
	return r.Owner + "/" + r.Name
}

// FileContent is a file returned by a directory listing. Filename is relative
// to the listed directory and uses forward slashes.
type FileContent struct {
	Filename string
	Content  string
}

// Connector reads scope content from some backing store, abstracting away
// where a scope lives.
type Connector interface {
	Name() string
	// GetContent returns the text of a single file, or ErrNotFound.
	GetContent(ctx context.Context, repo Repo, path string) (string, error)
	// GetDirectoryContent returns the files under dir that match the
	// connector's file pattern. A missing directory yields an empty result.
	GetDirectoryContent(ctx context.Context, repo Repo, dir string) ([]FileContent, error)
}
