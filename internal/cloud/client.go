// Package cloud implements the HTTP client for the bookmark sync API:
// fetching the account snapshot, pushing merged collections, and
// deleting single bookmarks.
package cloud

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/profullstack/marksyncr/internal/bookmarks"
	"github.com/profullstack/marksyncr/internal/errors"
)

// TransientError wraps an error that is likely temporary and safe to retry.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return e.Err.Error() }
func (e *TransientError) Unwrap() error { return e.Err }

// IsTransient reports whether err (or any error in its chain) is a
// TransientError, meaning the caller should retry after a backoff.
func IsTransient(err error) bool {
	var te *TransientError
	return stderrors.As(err, &te)
}

const (
	// maxRedirects is the maximum number of HTTP redirects to follow
	// before giving up, matching the default net/http limit.
	maxRedirects = 10

	// httpClientTimeout is the timeout for the default HTTP client used
	// by the API client when no custom client is provided.
	httpClientTimeout = 30 * time.Second

	// maxAPIResponseBytes caps response body reads to prevent a
	// misbehaving server from consuming unbounded memory.
	maxAPIResponseBytes = 1024 * 1024

	bookmarksEndpoint = "/api/bookmarks"
)

// Client talks to the bookmark sync REST API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// sameHostRedirectPolicy follows redirects only when the target host
// matches the original request host. This prevents the bearer token
// from leaking to third-party domains.
func sameHostRedirectPolicy(req *http.Request, via []*http.Request) error {
	if len(via) >= maxRedirects {
		return stderrors.New("stopped after 10 redirects")
	}

	if len(via) > 0 {
		origHost := via[0].URL.Host
		if req.URL.Host != origHost {
			return fmt.Errorf("redirect to different host blocked: %s -> %s", origHost, req.URL.Host)
		}
	}

	return nil
}

// NewClient creates an API client for the given base URL and session
// token. If httpClient is nil, a client with a 30-second timeout and
// same-host redirect policy is created.
func NewClient(baseURL, token string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:       httpClientTimeout,
			CheckRedirect: sameHostRedirectPolicy,
		}
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
	}
}

// sanitizeResponseBody truncates and sanitizes a response body for
// inclusion in error messages. Limits to 256 bytes and replaces
// non-printable characters to prevent log injection.
func sanitizeResponseBody(body []byte) string {
	const maxLen = 256
	if len(body) > maxLen {
		body = body[:maxLen]
	}
	// Ensure valid UTF-8 and replace control characters.
	var clean []byte

	for len(body) > 0 {
		r, size := utf8.DecodeRune(body)
		if r == utf8.RuneError && size <= 1 {
			clean = append(clean, '?')
			body = body[1:]

			continue
		}

		if r < 0x20 && r != '\n' && r != '\r' && r != '\t' {
			clean = append(clean, '?')
		} else {
			clean = append(clean, body[:size]...)
		}

		body = body[size:]
	}

	return string(clean)
}

type apiError struct {
	Error string `json:"error"`
}

// do sends a JSON request and decodes the response into result.
// A 401 maps to ErrSessionRevoked and a 404 to ErrNotFound; transient
// statuses and network failures come back wrapped in TransientError.
func (c *Client) do(ctx context.Context, method string, body, result interface{}) error {
	var payload io.Reader

	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshalling request body: %w", err)
		}

		payload = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+bookmarksEndpoint, payload)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		wrapped := fmt.Errorf("sending %s %s: %w", method, bookmarksEndpoint, err)
		// Network errors (timeouts, connection refused, DNS failures)
		// are transient by nature.
		return &TransientError{Err: wrapped}
	}
	defer resp.Body.Close()

	// Cap response reads at 1MB. API responses are small JSON payloads.
	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxAPIResponseBytes))
	if err != nil {
		return fmt.Errorf("reading response from %s: %w", bookmarksEndpoint, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%s %s: %w", method, bookmarksEndpoint, errors.ErrSessionRevoked)

	case resp.StatusCode == http.StatusNotFound:
		return errors.ErrNotFound

	case resp.StatusCode != http.StatusOK:
		var ae apiError
		if json.Unmarshal(respBody, &ae) == nil && ae.Error != "" {
			err := fmt.Errorf("%w: %s %s (%d): %s", errors.ErrAPIRequest, method, bookmarksEndpoint, resp.StatusCode, ae.Error)
			if isTransientStatus(resp.StatusCode) {
				return &TransientError{Err: err}
			}

			return err
		}

		err := fmt.Errorf("%w: %s %s returned status %d: %s",
			errors.ErrAPIRequest, method, bookmarksEndpoint, resp.StatusCode, sanitizeResponseBody(respBody))
		if isTransientStatus(resp.StatusCode) {
			return &TransientError{Err: err}
		}

		return err
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("%w: decoding response: %v", errors.ErrMalformedSnapshot, err)
		}
	}

	return nil
}

// isTransientStatus returns true for HTTP status codes that indicate a
// temporary server-side problem worth retrying.
func isTransientStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}

	return false
}

// Fetch retrieves the account's bookmark snapshot.
func (c *Client) Fetch(ctx context.Context) (*bookmarks.Snapshot, error) {
	var snap bookmarks.Snapshot
	if err := c.do(ctx, http.MethodGet, nil, &snap); err != nil {
		return nil, fmt.Errorf("fetching snapshot: %w", err)
	}

	snap.Items = bookmarks.Classify(snap.Items)

	return &snap, nil
}

type pushRequest struct {
	Bookmarks  []bookmarks.Item      `json:"bookmarks"`
	Tombstones []bookmarks.Tombstone `json:"tombstones,omitempty"`
	Source     string                `json:"source,omitempty"`
}

// Push uploads the local collection and any pending tombstones for a
// server-side merge, returning the merge receipt. A checksum no-op
// comes back with Skipped set and the version unchanged.
func (c *Client) Push(ctx context.Context, items []bookmarks.Item, tombstones []bookmarks.Tombstone, source string) (*bookmarks.PushReceipt, error) {
	req := pushRequest{
		Bookmarks:  items,
		Tombstones: tombstones,
		Source:     source,
	}

	var receipt bookmarks.PushReceipt
	if err := c.do(ctx, http.MethodPost, req, &receipt); err != nil {
		return nil, fmt.Errorf("pushing bookmarks: %w", err)
	}

	return &receipt, nil
}

type deleteRequest struct {
	URL string `json:"url,omitempty"`
	ID  string `json:"id,omitempty"`
}

// Delete removes a single bookmark by URL or by ID. When both are
// given the ID wins. A miss returns ErrNotFound.
func (c *Client) Delete(ctx context.Context, url, id string) error {
	if url == "" && id == "" {
		return fmt.Errorf("delete requires a url or an id")
	}

	req := deleteRequest{URL: url, ID: id}
	if id != "" {
		req.URL = ""
	}

	if err := c.do(ctx, http.MethodDelete, req, nil); err != nil {
		return fmt.Errorf("deleting bookmark: %w", err)
	}

	return nil
}
