package generator

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/tev2-toolkit/mrgen/pkg/connectors"
)

// fakeConnector serves files from memory, keyed by "owner/name@ref:path".
type fakeConnector struct {
	mu     sync.Mutex
	files  map[string]string
	errs   map[string]error
	delays map[string]time.Duration
	calls  []string
}

func newFakeConnector() *fakeConnector {
	return &fakeConnector{
		files:  make(map[string]string),
		errs:   make(map[string]error),
		delays: make(map[string]time.Duration),
	}
}

func fakeKey(repo connectors.Repo, path string) string {
	return repo.String() + "@" + repo.Ref + ":" + path
}

func (f *fakeConnector) Name() string { return "fake" }

func (f *fakeConnector) GetContent(ctx context.Context, repo connectors.Repo, path string) (string, error) {
	key := fakeKey(repo, path)
	f.mu.Lock()
	f.calls = append(f.calls, key)
	delay := f.delays[key]
	err, failed := f.errs[key]
	text, ok := f.files[key]
	f.mu.Unlock()

	// sleep unlocked so delayed fetches overlap
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if failed {
		return "", err
	}
	if !ok {
		return "", connectors.ErrNotFound
	}
	return text, nil
}

func (f *fakeConnector) GetDirectoryContent(ctx context.Context, repo connectors.Repo, dir string) ([]connectors.FileContent, error) {
	prefix := fakeKey(repo, dir) + "/"
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []connectors.FileContent
	for key, text := range f.files {
		if strings.HasPrefix(key, prefix) {
			out = append(out, connectors.FileContent{Filename: strings.TrimPrefix(key, prefix), Content: text})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Filename < out[j].Filename })
	return out, nil
}

func (f *fakeConnector) called(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if c == key {
			return true
		}
	}
	return false
}
