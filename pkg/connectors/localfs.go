package connectors

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

// LocalFSConnector reads scope content from the local filesystem. Paths are
// filesystem paths and the repository argument is ignored.
type LocalFSConnector struct {
	pattern string
}

func NewLocalFSConnector(pattern string) (*LocalFSConnector, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid term file pattern %q", pattern)
	}
	return &LocalFSConnector{pattern: pattern}, nil
}

func (l *LocalFSConnector) Name() string { return "localfs" }

func (l *LocalFSConnector) GetContent(ctx context.Context, _ Repo, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		return "", err
	}
	return string(data), nil
}

func (l *LocalFSConnector) GetDirectoryContent(ctx context.Context, _ Repo, dir string) ([]FileContent, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}

	var files []FileContent
	err = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if ok, _ := doublestar.Match(l.pattern, rel); !ok {
			return nil
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		files = append(files, FileContent{Filename: rel, Content: string(data)})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
