package mirror

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/profullstack/marksyncr/internal/bookmarks"
)

const dropboxContentBase = "https://content.dropboxapi.com"

// Dropbox mirrors the bookmark document to a file via the content
// upload API in overwrite mode.
type Dropbox struct {
	httpClient *http.Client
	baseURL    string
	token      string
	path       string
}

// NewDropbox builds a Dropbox mirror from a config entry. The path must
// be absolute, Dropbox-style.
func NewDropbox(e entry) (*Dropbox, error) {
	if e.Token == "" || e.Path == "" {
		return nil, fmt.Errorf("dropbox mirror requires token and path")
	}

	if !strings.HasPrefix(e.Path, "/") {
		return nil, fmt.Errorf("dropbox path must start with /")
	}

	return &Dropbox{
		httpClient: &http.Client{Timeout: mirrorHTTPTimeout},
		baseURL:    dropboxContentBase,
		token:      e.Token,
		path:       e.Path,
	}, nil
}

// Name identifies the mirror in logs.
func (d *Dropbox) Name() string { return "dropbox:" + d.path }

// Push renders the snapshot to the portable JSON document and uploads
// it, overwriting the previous revision.
func (d *Dropbox) Push(ctx context.Context, snap *bookmarks.Snapshot) (*Result, error) {
	content, err := bookmarks.FormatJSON(snap.Items)
	if err != nil {
		return nil, fmt.Errorf("rendering bookmark document: %w", err)
	}

	arg, err := json.Marshal(map[string]interface{}{
		"path": d.path,
		"mode": "overwrite",
		"mute": true,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding upload arg: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+"/2/files/upload", bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("creating upload request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+d.token)
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("Dropbox-API-Arg", string(arg))

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("uploading to dropbox: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxMirrorResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("reading dropbox response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("dropbox upload returned status %d", resp.StatusCode)
	}

	var meta struct {
		Rev string `json:"rev"`
	}
	if err := json.Unmarshal(respBody, &meta); err != nil {
		return nil, fmt.Errorf("decoding dropbox response: %w", err)
	}

	return &Result{
		BookmarkCount: countBookmarks(snap.Items),
		Rev:           meta.Rev,
	}, nil
}
