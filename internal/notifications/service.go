package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"marquee/internal/config"
)

const userAgent = "Marquee/0.1.0"

// Service defines the notification surface exposed to the mirror engine.
type Service interface {
	NotifyPlaybackStarted(ctx context.Context, label, mediaType string) error
	NotifyPlaybackStopped(ctx context.Context, label string) error
	NotifyMirrorError(ctx context.Context, err error, context string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := &http.Client{Timeout: timeout}
	return &ntfyService{
		endpoint: topic,
		client:   client,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyPlaybackStarted(ctx context.Context, label, mediaType string) error {
	label = strings.TrimSpace(label)
	mediaType = strings.TrimSpace(mediaType)
	if mediaType == "" {
		mediaType = "unknown"
	}
	data := payload{
		title:   "Marquee - Now Playing",
		message: fmt.Sprintf("▶️ Now playing: %s (%s)", label, mediaType),
		tags:    []string{"marquee", "playback", "started"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyPlaybackStopped(ctx context.Context, label string) error {
	label = strings.TrimSpace(label)
	data := payload{
		title:   "Marquee - Stopped",
		message: fmt.Sprintf("⏹️ Stopped: %s", label),
		tags:    []string{"marquee", "playback", "stopped"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyMirrorError(ctx context.Context, err error, contextLabel string) error {
	var builder strings.Builder
	builder.WriteString("❌ Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "Marquee - Error",
		message:  builder.String(),
		tags:     []string{"marquee", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Marquee - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"marquee", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyPlaybackStarted(context.Context, string, string) error { return nil }
func (noopService) NotifyPlaybackStopped(context.Context, string) error         { return nil }
func (noopService) NotifyMirrorError(context.Context, error, string) error      { return nil }
func (noopService) TestNotification(context.Context) error                      { return nil }
