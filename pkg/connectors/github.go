package connectors

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"
)

const (
	DefaultGithubAPI = "https://api.github.com"
	DefaultPattern   = "**/*.md"
	USER_AGENT       = "mrgen"
)

// GithubConfig configures a GithubConnector. Zero values fall back to defaults.
type GithubConfig struct {
	BaseURL  string
	Token    string
	RetryMax int
	Timeout  time.Duration
	Proxy    string
	Pattern  string
}

// GithubConnector reads scope content through the GitHub contents API.
type GithubConnector struct {
	client  *retryablehttp.Client
	baseURL string
	token   string
	pattern string
}

func NewGithubConnector(cfg GithubConfig) (*GithubConnector, error) {
	retryClient := retryablehttp.NewClient()
	retryClient.Logger = log.New(io.Discard, "", 0)
	retryClient.RetryMax = cfg.RetryMax
	retryClient.RetryWaitMin = 200 * time.Millisecond
	retryClient.RetryWaitMax = 2 * time.Second
	// hand back the last response once retries are exhausted so the status can be mapped
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	if cfg.Timeout > 0 {
		retryClient.HTTPClient.Timeout = cfg.Timeout
	}
	if cfg.Proxy != "" {
		proxyURL, err := url.Parse(cfg.Proxy)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy URL: %v", err)
		}
		retryClient.HTTPClient.Transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
	}

	pattern := cfg.Pattern
	if pattern == "" {
		pattern = DefaultPattern
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid term file pattern %q", pattern)
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultGithubAPI
	}

	return &GithubConnector{
		client:  retryClient,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   cfg.Token,
		pattern: pattern,
	}, nil
}

func (g *GithubConnector) Name() string { return "github" }

func (g *GithubConnector) GetContent(ctx context.Context, repo Repo, filePath string) (string, error) {
	body, err := g.get(ctx, g.contentsURL(repo, filePath))
	if err != nil {
		return "", fmt.Errorf("%s in %s: %w", filePath, repo, err)
	}
	if gjson.Get(body, "type").Str != "file" {
		return "", fmt.Errorf("%s in %s is not a file: %w", filePath, repo, ErrNotFound)
	}
	return g.decodeFile(ctx, body)
}

func (g *GithubConnector) GetDirectoryContent(ctx context.Context, repo Repo, dir string) ([]FileContent, error) {
	var files []FileContent
	if err := g.walk(ctx, repo, dir, "", &files); err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return files, nil
}

func (g *GithubConnector) walk(ctx context.Context, repo Repo, root, rel string, files *[]FileContent) error {
	body, err := g.get(ctx, g.contentsURL(repo, path.Join(root, rel)))
	if err != nil {
		return fmt.Errorf("listing %s in %s: %w", path.Join(root, rel), repo, err)
	}
	listing := gjson.Parse(body)
	if !listing.IsArray() {
		return fmt.Errorf("%s in %s is not a directory: %w", path.Join(root, rel), repo, ErrNotFound)
	}

	for _, item := range listing.Array() {
		name := path.Join(rel, item.Get("name").Str)
		switch item.Get("type").Str {
		case "dir":
			// entries removed between listing and fetching are skipped
			if err := g.walk(ctx, repo, root, name, files); err != nil && !isNotFound(err) {
				return err
			}
		case "file":
			if ok, _ := doublestar.Match(g.pattern, name); !ok {
				continue
			}
			content, err := g.GetContent(ctx, repo, path.Join(root, name))
			if isNotFound(err) {
				continue
			}
			if err != nil {
				return err
			}
			*files = append(*files, FileContent{Filename: name, Content: content})
		}
	}
	return nil
}

// decodeFile returns the text of a contents API file object. Files too large
// for inline content are fetched from their download URL.
func (g *GithubConnector) decodeFile(ctx context.Context, body string) (string, error) {
	encoded := gjson.Get(body, "content").Str
	if encoded == "" {
		if dl := gjson.Get(body, "download_url").Str; dl != "" {
			return g.get(ctx, dl)
		}
		return "", nil
	}
	if enc := gjson.Get(body, "encoding").Str; enc != "" && enc != "base64" {
		return "", fmt.Errorf("unsupported content encoding %q", enc)
	}
	raw, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(encoded, "\n", ""))
	if err != nil {
		return "", fmt.Errorf("could not decode file content: %w", err)
	}
	return string(raw), nil
}

func (g *GithubConnector) contentsURL(repo Repo, filePath string) string {
	u := g.baseURL + "/repos/" + url.PathEscape(repo.Owner) + "/" + url.PathEscape(repo.Name) + "/contents"
	if p := strings.Trim(filePath, "/"); p != "" && p != "." {
		u += "/" + p
	}
	if repo.Ref != "" {
		u += "?ref=" + url.QueryEscape(repo.Ref)
	}
	return u
}

func (g *GithubConnector) get(ctx context.Context, target string) (string, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", USER_AGENT)
	req.Header.Set("Accept", "application/vnd.github+json")
	if g.token != "" {
		req.Header.Set("Authorization", "Bearer "+g.token)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return "", ErrNotFound
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", fmt.Errorf("%w (status %d): %s", ErrUnauthorized, resp.StatusCode, gjson.GetBytes(bodyBytes, "message").Str)
	case resp.StatusCode != http.StatusOK:
		return "", fmt.Errorf("fetching failed. Got status code: %d", resp.StatusCode)
	}
	return string(bodyBytes), nil
}
