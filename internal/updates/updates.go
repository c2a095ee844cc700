package updates

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"marquee/internal/logging"
)

const (
	// Version is the marquee release this build ships as.
	Version = "0.1.0"

	// ProjectURL points at the upstream repository.
	ProjectURL = "https://github.com/five82/marquee"

	latestReleaseURL = ProjectURL + "/releases/latest"

	defaultInterval = 24 * time.Hour
)

// Checker polls the project releases page for a newer tagged version.
// GitHub answers releases/latest with a redirect to the tag page, so a
// single HEAD request suffices; the tag is the final path segment of the
// resolved URL.
type Checker struct {
	// OnUpdateFound runs once per newly discovered tag. Optional.
	OnUpdateFound func(tag string)

	logger     *slog.Logger
	client     *http.Client
	releaseURL string
	current    string

	mu     sync.Mutex
	latest string
}

// Option configures a Checker.
type Option func(*Checker)

// WithReleaseURL overrides the releases/latest endpoint.
func WithReleaseURL(url string) Option {
	return func(c *Checker) {
		if strings.TrimSpace(url) != "" {
			c.releaseURL = url
		}
	}
}

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Checker) {
		if client != nil {
			c.client = client
		}
	}
}

// NewChecker builds a checker comparing against the given running version.
func NewChecker(currentVersion string, logger *slog.Logger, opts ...Option) *Checker {
	if logger == nil {
		logger = logging.NewNop()
	}
	checker := &Checker{
		logger:     logging.NewComponentLogger(logger, "updates"),
		client:     &http.Client{Timeout: 10 * time.Second},
		releaseURL: latestReleaseURL,
		current:    strings.TrimSpace(currentVersion),
	}
	for _, opt := range opts {
		opt(checker)
	}
	return checker
}

// Start checks once immediately, then on the given interval until the
// context is canceled. A non-positive interval selects the daily default.
func (c *Checker) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = defaultInterval
	}
	go func() {
		c.check(ctx)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.check(ctx)
			}
		}
	}()
}

// UpdateAvailable returns the newer release tag discovered by the latest
// check, or the empty string when the running build is current.
func (c *Checker) UpdateAvailable() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.latest
}

func (c *Checker) check(ctx context.Context) {
	tag, err := c.latestTag(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		c.logger.Debug("update check skipped", logging.Error(err))
		return
	}
	if !NewerVersion(c.current, tag) {
		return
	}

	c.mu.Lock()
	changed := tag != c.latest
	c.latest = tag
	c.mu.Unlock()

	if !changed {
		return
	}
	c.logger.Info("update available",
		logging.String(logging.FieldEventType, "update_available"),
		logging.String("current_version", c.current),
		logging.String("latest_version", tag),
	)
	if c.OnUpdateFound != nil {
		c.OnUpdateFound(tag)
	}
}

func (c *Checker) latestTag(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.releaseURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("execute request: %w", err)
	}
	resp.Body.Close()

	resolved := strings.TrimSuffix(resp.Request.URL.String(), "/")
	idx := strings.LastIndex(resolved, "/")
	if idx < 0 || idx == len(resolved)-1 {
		return "", fmt.Errorf("release tag missing from %s", resolved)
	}
	tag := resolved[idx+1:]
	if strings.EqualFold(tag, "latest") {
		return "", fmt.Errorf("release redirect not followed for %s", c.releaseURL)
	}
	return tag, nil
}

// NewerVersion reports whether candidate names a strictly newer release
// than current. Tags compare as dotted numeric tuples with a leading "v"
// stripped; a missing component counts as zero.
func NewerVersion(current, candidate string) bool {
	cur := parseVersion(current)
	cand := parseVersion(candidate)
	if len(cand) == 0 {
		return false
	}
	for i := 0; i < len(cur) || i < len(cand); i++ {
		a, b := 0, 0
		if i < len(cur) {
			a = cur[i]
		}
		if i < len(cand) {
			b = cand[i]
		}
		if a != b {
			return b > a
		}
	}
	return false
}

func parseVersion(tag string) []int {
	tag = strings.TrimPrefix(strings.TrimSpace(tag), "v")
	if tag == "" {
		return nil
	}
	parts := strings.Split(tag, ".")
	nums := make([]int, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			break
		}
		nums = append(nums, n)
	}
	return nums
}
