package jellyfin

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

// ErrUserNotFound reports that the configured username matched no account on
// the server. Callers treat this as a configuration problem, not a transient
// failure.
var ErrUserNotFound = errors.New("jellyfin user not found")

// User is a Jellyfin account as returned by /Users.
type User struct {
	ID   string `json:"Id"`
	Name string `json:"Name"`
}

// SystemInfo is the subset of /System/Info used for presence display.
type SystemInfo struct {
	ServerName string `json:"ServerName"`
	Version    string `json:"Version"`
}

// PlayState carries the playback position within a session.
type PlayState struct {
	IsPaused      bool  `json:"IsPaused"`
	PositionTicks int64 `json:"PositionTicks"`
}

// Item is the subset of a Jellyfin media item the presence mapper reads.
// Index numbers are pointers because season zero is a valid value for
// specials and absence must stay distinguishable.
type Item struct {
	ID                string            `json:"Id"`
	Name              string            `json:"Name"`
	Type              string            `json:"Type"`
	SeriesID          string            `json:"SeriesId"`
	SeriesName        string            `json:"SeriesName"`
	ParentIndexNumber *int              `json:"ParentIndexNumber"`
	IndexNumber       *int              `json:"IndexNumber"`
	Artists           []string          `json:"Artists"`
	AlbumArtist       string            `json:"AlbumArtist"`
	Album             string            `json:"Album"`
	RunTimeTicks      int64             `json:"RunTimeTicks"`
	ProviderIDs       map[string]string `json:"ProviderIds"`
}

// Session is a playback session as returned by /Sessions. NowPlayingItem is
// nil while the session is idle.
type Session struct {
	ID             string    `json:"Id"`
	UserID         string    `json:"UserId"`
	UserName       string    `json:"UserName"`
	Client         string    `json:"Client"`
	DeviceName     string    `json:"DeviceName"`
	NowPlayingItem *Item     `json:"NowPlayingItem"`
	PlayState      PlayState `json:"PlayState"`
}

// HTTPDoer describes the HTTP client used by the Jellyfin service.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client provides access to the Jellyfin REST API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient HTTPDoer
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client HTTPDoer) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// New creates a Jellyfin client for the given server.
func New(baseURL, apiKey string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("jellyfin base url required")
	}
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("jellyfin api key required")
	}
	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// BaseURL returns the normalized server address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	endpoint, err := url.Parse(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("parse jellyfin url: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Emby-Token", c.apiKey)

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("jellyfin %s returned %d (latency=%v)", path, resp.StatusCode, latency)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode jellyfin response: %w", err)
	}
	return nil
}

// Users lists all accounts on the server.
func (c *Client) Users(ctx context.Context) ([]User, error) {
	var users []User
	if err := c.get(ctx, "/Users", &users); err != nil {
		return nil, err
	}
	return users, nil
}

// ResolveUser finds the account for the configured username. An exact name
// match wins; otherwise the first account containing the username is used,
// mirroring how server admins abbreviate display names.
func (c *Client) ResolveUser(ctx context.Context, username string) (*User, error) {
	users, err := c.Users(ctx)
	if err != nil {
		return nil, err
	}
	var partial *User
	for i := range users {
		if users[i].Name == username {
			return &users[i], nil
		}
		if partial == nil && strings.Contains(users[i].Name, username) {
			partial = &users[i]
		}
	}
	if partial != nil {
		return partial, nil
	}
	return nil, fmt.Errorf("resolve user %q: %w", username, ErrUserNotFound)
}

// Sessions lists the active playback sessions on the server.
func (c *Client) Sessions(ctx context.Context) ([]Session, error) {
	var sessions []Session
	if err := c.get(ctx, "/Sessions", &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// SessionForUser returns the first session belonging to the user, preferring
// one with active playback so an idle web tab does not mask a playing client.
// The second return reports whether any session for the user exists.
func SessionForUser(sessions []Session, userID string) (*Session, bool) {
	var idle *Session
	for i := range sessions {
		if sessions[i].UserID != userID {
			continue
		}
		if sessions[i].NowPlayingItem != nil {
			return &sessions[i], true
		}
		if idle == nil {
			idle = &sessions[i]
		}
	}
	return idle, idle != nil
}

// SystemInfo fetches server identity details.
func (c *Client) SystemInfo(ctx context.Context) (*SystemInfo, error) {
	var info SystemInfo
	if err := c.get(ctx, "/System/Info", &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Item fetches a single library item for the user, used to read series-level
// provider ids when an episode is playing.
func (c *Client) Item(ctx context.Context, userID, itemID string) (*Item, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, errors.New("user id required")
	}
	if strings.TrimSpace(itemID) == "" {
		return nil, errors.New("item id required")
	}
	var item Item
	path := fmt.Sprintf("/Users/%s/Items/%s", url.PathEscape(userID), url.PathEscape(itemID))
	if err := c.get(ctx, path, &item); err != nil {
		return nil, err
	}
	return &item, nil
}
