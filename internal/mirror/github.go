package mirror

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/profullstack/marksyncr/internal/bookmarks"
)

const (
	githubAPIBase = "https://api.github.com"

	// mirrorHTTPTimeout bounds each mirror request; mirrors run after
	// the sync, so a slow destination must not hold the loop for long.
	mirrorHTTPTimeout = 30 * time.Second

	// maxMirrorResponseBytes caps response body reads from mirror APIs.
	maxMirrorResponseBytes = 1024 * 1024
)

// GitHub mirrors the bookmark document to a file in a repository via
// the contents API: read the current blob sha, then PUT the new content
// against it.
type GitHub struct {
	httpClient *http.Client
	baseURL    string
	token      string
	repo       string
	branch     string
	path       string
}

// NewGitHub builds a GitHub mirror from a config entry.
func NewGitHub(e entry) (*GitHub, error) {
	if e.Token == "" || e.Repo == "" || e.Path == "" {
		return nil, fmt.Errorf("github mirror requires token, repo, and path")
	}

	branch := e.Branch
	if branch == "" {
		branch = "main"
	}

	return &GitHub{
		httpClient: &http.Client{Timeout: mirrorHTTPTimeout},
		baseURL:    githubAPIBase,
		token:      e.Token,
		repo:       e.Repo,
		branch:     branch,
		path:       e.Path,
	}, nil
}

// Name identifies the mirror in logs.
func (g *GitHub) Name() string { return "github:" + g.repo }

// Push renders the snapshot to the portable JSON document and commits
// it to the configured file.
func (g *GitHub) Push(ctx context.Context, snap *bookmarks.Snapshot) (*Result, error) {
	content, err := bookmarks.FormatJSON(snap.Items)
	if err != nil {
		return nil, fmt.Errorf("rendering bookmark document: %w", err)
	}

	sha, err := g.currentSHA(ctx)
	if err != nil {
		return nil, err
	}

	body := map[string]string{
		"message": fmt.Sprintf("marksyncr: update bookmarks (v%d)", snap.Version),
		"content": base64.StdEncoding.EncodeToString(content),
		"branch":  g.branch,
	}
	if sha != "" {
		body["sha"] = sha
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encoding commit request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, g.contentsURL(), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating commit request: %w", err)
	}

	g.setHeaders(req)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("committing to github: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxMirrorResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("reading github response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("github commit returned status %d", resp.StatusCode)
	}

	var commit struct {
		Content struct {
			SHA string `json:"sha"`
		} `json:"content"`
	}
	if err := json.Unmarshal(respBody, &commit); err != nil {
		return nil, fmt.Errorf("decoding github response: %w", err)
	}

	return &Result{
		Created:       sha == "",
		BookmarkCount: countBookmarks(snap.Items),
		Rev:           commit.Content.SHA,
	}, nil
}

// currentSHA returns the blob sha of the destination file, or empty
// when the file does not exist yet.
func (g *GitHub) currentSHA(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.contentsURL()+"?ref="+g.branch, nil)
	if err != nil {
		return "", fmt.Errorf("creating contents request: %w", err)
	}

	g.setHeaders(req)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("reading github file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", nil
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("github contents returned status %d", resp.StatusCode)
	}

	var file struct {
		SHA string `json:"sha"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxMirrorResponseBytes)).Decode(&file); err != nil {
		return "", fmt.Errorf("decoding github contents: %w", err)
	}

	return file.SHA, nil
}

func (g *GitHub) contentsURL() string {
	return fmt.Sprintf("%s/repos/%s/contents/%s", g.baseURL, g.repo, g.path)
}

func (g *GitHub) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+g.token)
	req.Header.Set("Accept", "application/vnd.github+json")
}

func countBookmarks(items []bookmarks.Item) int {
	n := 0

	for _, it := range items {
		if !it.IsFolder() {
			n++
		}
	}

	return n
}
