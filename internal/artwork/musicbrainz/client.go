package musicbrainz

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

// DefaultBaseURL is the public MusicBrainz web service root.
const DefaultBaseURL = "https://musicbrainz.org/ws/2"

// defaultUserAgent identifies this project per the MusicBrainz API rules.
const defaultUserAgent = "marquee/0.1.0 (+https://github.com/five82/marquee)"

// ErrNoResults reports that a release-group search matched nothing.
var ErrNoResults = errors.New("no matching release groups")

type releaseGroup struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Score int    `json:"score"`
}

type searchResponse struct {
	ReleaseGroups []releaseGroup `json:"release-groups"`
}

// Client provides access to the MusicBrainz search API.
type Client struct {
	baseURL    string
	userAgent  string
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

// WithUserAgent overrides the User-Agent header sent with every request.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		if userAgent = strings.TrimSpace(userAgent); userAgent != "" {
			c.userAgent = userAgent
		}
	}
}

// New creates a MusicBrainz client.
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("musicbrainz base url required")
	}
	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  defaultUserAgent,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// quoteTerm wraps a Lucene query term in quotes, escaping embedded quotes so
// album titles cannot break the query.
func quoteTerm(term string) string {
	return `"` + strings.ReplaceAll(term, `"`, `\"`) + `"`
}

// SearchReleaseGroup returns the id of the best-scored release group for an
// artist and album pair.
func (c *Client) SearchReleaseGroup(ctx context.Context, artist, album string) (string, error) {
	artist = strings.TrimSpace(artist)
	album = strings.TrimSpace(album)
	if artist == "" || album == "" {
		return "", errors.New("artist and album must not be empty")
	}
	endpoint, err := url.Parse(c.baseURL + "/release-group")
	if err != nil {
		return "", fmt.Errorf("parse musicbrainz url: %w", err)
	}
	params := url.Values{}
	params.Set("query", fmt.Sprintf("artist:%s AND releasegroup:%s", quoteTerm(artist), quoteTerm(album)))
	params.Set("fmt", "json")
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return "", fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("musicbrainz search returned %d (latency=%v)", resp.StatusCode, latency)
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode musicbrainz response: %w", err)
	}
	if len(payload.ReleaseGroups) == 0 {
		return "", fmt.Errorf("search %q by %q: %w", album, artist, ErrNoResults)
	}
	return payload.ReleaseGroups[0].ID, nil
}
