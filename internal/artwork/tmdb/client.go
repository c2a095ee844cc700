package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"marquee/internal/language"
)

const (
	// DefaultBaseURL is the public TMDB API root.
	DefaultBaseURL = "https://api.themoviedb.org/3"

	// DefaultImageBaseURL serves poster files at a width suited to the
	// Discord activity card.
	DefaultImageBaseURL = "https://image.tmdb.org/t/p/w185"
)

// ErrNoResults reports that a title search matched nothing.
var ErrNoResults = errors.New("no matching results")

// ErrNoPoster reports that an images endpoint returned no posters.
var ErrNoPoster = errors.New("no poster available")

// Poster is a single poster entry from a TMDB images response.
type Poster struct {
	FilePath    string  `json:"file_path"`
	Language    string  `json:"iso_639_1"`
	VoteAverage float64 `json:"vote_average"`
}

type imagesResponse struct {
	Posters []Poster `json:"posters"`
}

type searchResult struct {
	ID int64 `json:"id"`
}

type searchResponse struct {
	Results []searchResult `json:"results"`
}

// Client provides access to the TMDB API for poster lookups.
type Client struct {
	apiKey       string
	baseURL      string
	imageBaseURL string
	httpClient   *http.Client
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

// WithImageBaseURL overrides the poster file host.
func WithImageBaseURL(base string) Option {
	return func(c *Client) {
		if base = strings.TrimSpace(base); base != "" {
			c.imageBaseURL = strings.TrimRight(base, "/")
		}
	}
}

// New creates a TMDB client.
func New(apiKey, baseURL string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("tmdb api key required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("tmdb base url required")
	}
	client := &Client{
		apiKey:       apiKey,
		baseURL:      strings.TrimRight(baseURL, "/"),
		imageBaseURL: DefaultImageBaseURL,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	endpoint, err := url.Parse(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("parse tmdb url: %w", err)
	}
	if params == nil {
		params = url.Values{}
	}
	params.Set("api_key", c.apiKey)
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("tmdb %s returned %d (latency=%v)", path, resp.StatusCode, latency)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode tmdb response: %w", err)
	}
	return nil
}

// Probe verifies the API key against the configuration endpoint.
func (c *Client) Probe(ctx context.Context) error {
	var payload struct {
		Images map[string]any `json:"images"`
	}
	return c.get(ctx, "/configuration", nil, &payload)
}

func (c *Client) search(ctx context.Context, path, query string) (int64, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return 0, errors.New("query must not be empty")
	}
	params := url.Values{}
	params.Set("query", query)

	var payload searchResponse
	if err := c.get(ctx, path, params, &payload); err != nil {
		return 0, err
	}
	if len(payload.Results) == 0 {
		return 0, fmt.Errorf("search %q: %w", query, ErrNoResults)
	}
	return payload.Results[0].ID, nil
}

// SearchSeries returns the TMDB id of the best-ranked TV series for the title.
func (c *Client) SearchSeries(ctx context.Context, title string) (int64, error) {
	return c.search(ctx, "/search/tv", title)
}

// SearchMovie returns the TMDB id of the best-ranked movie for the title.
func (c *Client) SearchMovie(ctx context.Context, title string) (int64, error) {
	return c.search(ctx, "/search/movie", title)
}

// pickPoster selects the first poster matching the language preferences in
// order, falling back to the top-ranked poster.
func (c *Client) pickPoster(posters []Poster, prefs language.Preferences) (string, error) {
	if len(posters) == 0 {
		return "", ErrNoPoster
	}
	codes := make([]string, len(posters))
	for i, poster := range posters {
		codes[i] = poster.Language
	}
	chosen := posters[0]
	if idx := prefs.Pick(codes); idx >= 0 {
		chosen = posters[idx]
	}
	return c.imageBaseURL + chosen.FilePath, nil
}

// SeriesPoster fetches the poster URL for a TV series.
func (c *Client) SeriesPoster(ctx context.Context, seriesID int64, prefs language.Preferences) (string, error) {
	if seriesID <= 0 {
		return "", errors.New("series id must be positive")
	}
	var payload imagesResponse
	if err := c.get(ctx, fmt.Sprintf("/tv/%d/images", seriesID), nil, &payload); err != nil {
		return "", err
	}
	return c.pickPoster(payload.Posters, prefs)
}

// SeasonPoster fetches the poster URL for one season of a TV series. When the
// season has no images of its own the series poster is used instead.
func (c *Client) SeasonPoster(ctx context.Context, seriesID int64, season int, prefs language.Preferences) (string, error) {
	if seriesID <= 0 {
		return "", errors.New("series id must be positive")
	}
	var payload imagesResponse
	if err := c.get(ctx, fmt.Sprintf("/tv/%d/season/%d/images", seriesID, season), nil, &payload); err != nil {
		return c.SeriesPoster(ctx, seriesID, prefs)
	}
	posterURL, err := c.pickPoster(payload.Posters, prefs)
	if err != nil {
		return c.SeriesPoster(ctx, seriesID, prefs)
	}
	return posterURL, nil
}

// MoviePoster fetches the poster URL for a movie.
func (c *Client) MoviePoster(ctx context.Context, movieID int64, prefs language.Preferences) (string, error) {
	if movieID <= 0 {
		return "", errors.New("movie id must be positive")
	}
	var payload imagesResponse
	if err := c.get(ctx, fmt.Sprintf("/movie/%d/images", movieID), nil, &payload); err != nil {
		return "", err
	}
	return c.pickPoster(payload.Posters, prefs)
}
