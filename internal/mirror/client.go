package mirror

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/time/rate"
)

// maxErrorBody caps how much of an error response is kept for ListingError.
const maxErrorBody = 64 << 10

// Client talks to a contents listing API and the hosts its download URLs
// point at.
type Client struct {
	http      *http.Client
	limiter   *rate.Limiter
	baseURL   string
	token     string
	userAgent string
}

// ClientOpts configures a Client.
type ClientOpts struct {
	HTTPClient *http.Client
	Limiter    *rate.Limiter // nil disables download throttling
	BaseURL    string
	Token      string
	UserAgent  string
}

// NewClient creates a Client. Zero-valued options fall back to
// http.DefaultClient and DefaultAPIBaseURL.
func NewClient(opts ClientOpts) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = DefaultAPIBaseURL
	}
	ua := opts.UserAgent
	if ua == "" {
		ua = "lfskit"
	}
	return &Client{
		http:      hc,
		limiter:   opts.Limiter,
		baseURL:   base,
		token:     opts.Token,
		userAgent: ua,
	}
}

// ListingURL builds the contents API URL for folder of repo at ref.
func (c *Client) ListingURL(repo, folder, ref string) string {
	var b strings.Builder
	b.WriteString(c.baseURL)
	b.WriteString("/repos/")
	b.WriteString(escapeSegments(repo))
	b.WriteString("/contents/")
	b.WriteString(escapeSegments(strings.Trim(folder, "/")))
	if ref != "" {
		b.WriteString("?ref=")
		b.WriteString(url.QueryEscape(ref))
	}
	return b.String()
}

// List fetches the entries of folder in repo at ref. A response that is not
// 200 OK yields a *ListingError carrying the status code and body. When
// folder names a single file the API answers with one object, which is
// returned as a one-element listing.
func (c *Client) List(ctx context.Context, repo, folder, ref string) ([]Entry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.ListingURL(repo, folder, ref), nil)
	if err != nil {
		return nil, fmt.Errorf("build listing request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", c.userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list %q: %w", folder, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody)) //nolint:errcheck // body is best-effort context
		return nil, &ListingError{
			Path:       folder,
			StatusCode: resp.StatusCode,
			Body:       string(body),
		}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read listing %q: %w", folder, err)
	}
	return decodeListing(raw)
}

func decodeListing(raw []byte) ([]Entry, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var single Entry
		if err := json.Unmarshal(trimmed, &single); err != nil {
			return nil, fmt.Errorf("decode listing: %w", err)
		}
		return []Entry{single}, nil
	}

	var entries []Entry
	if err := json.Unmarshal(trimmed, &entries); err != nil {
		return nil, fmt.Errorf("decode listing: %w", err)
	}
	return entries, nil
}

// Download streams the body at rawURL into w and returns the number of bytes
// written. Non-2xx answers yield a *DownloadError.
func (c *Client) Download(ctx context.Context, rawURL string, w io.Writer) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, fmt.Errorf("build download request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("download %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, &DownloadError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	var body io.Reader = resp.Body
	if c.limiter != nil {
		body = newRateLimitedReader(ctx, body, c.limiter)
	}

	n, err := io.Copy(w, body)
	if err != nil {
		return n, fmt.Errorf("download %s: %w", rawURL, err)
	}
	return n, nil
}

func escapeSegments(p string) string {
	if p == "" {
		return ""
	}
	parts := strings.Split(p, "/")
	for i, s := range parts {
		parts[i] = url.PathEscape(s)
	}
	return strings.Join(parts, "/")
}
