package coverart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultBaseURL is the public Cover Art Archive root.
const DefaultBaseURL = "https://coverartarchive.org"

// ErrNoCover reports that a release carries no cover images.
var ErrNoCover = errors.New("no cover art available")

type image struct {
	Image string `json:"image"`
	Front bool   `json:"front"`
}

type coverResponse struct {
	Images []image `json:"images"`
}

// Client provides access to the Cover Art Archive.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// New creates a Cover Art Archive client.
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("cover art base url required")
	}
	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

func (c *Client) cover(ctx context.Context, path string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return "", fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("cover art %s returned %d (latency=%v)", path, resp.StatusCode, latency)
	}

	var payload coverResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode cover art response: %w", err)
	}
	if len(payload.Images) == 0 || payload.Images[0].Image == "" {
		return "", ErrNoCover
	}
	return payload.Images[0].Image, nil
}

// ReleaseCover fetches the first cover image URL for a specific release.
func (c *Client) ReleaseCover(ctx context.Context, releaseID string) (string, error) {
	releaseID = strings.TrimSpace(releaseID)
	if releaseID == "" {
		return "", errors.New("release id required")
	}
	return c.cover(ctx, "/release/"+url.PathEscape(releaseID))
}

// ReleaseGroupCover fetches the first cover image URL for a release group.
func (c *Client) ReleaseGroupCover(ctx context.Context, groupID string) (string, error) {
	groupID = strings.TrimSpace(groupID)
	if groupID == "" {
		return "", errors.New("release group id required")
	}
	return c.cover(ctx, "/release-group/"+url.PathEscape(groupID))
}
