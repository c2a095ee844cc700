package mirror

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"marquee/internal/artwork"
	"marquee/internal/config"
	"marquee/internal/discord"
	"marquee/internal/logging"
	"marquee/internal/notifications"
	"marquee/internal/presence"
	"marquee/internal/services/jellyfin"
)

var (
	errJellyfinLost = errors.New("jellyfin connection lost")
	errDiscordLost  = errors.New("discord connection lost")
)

// SessionSource is the slice of the Jellyfin client the engine polls.
type SessionSource interface {
	ResolveUser(ctx context.Context, username string) (*jellyfin.User, error)
	Sessions(ctx context.Context) ([]jellyfin.Session, error)
	SystemInfo(ctx context.Context) (*jellyfin.SystemInfo, error)
}

// ArtResolver looks up poster or cover art for a playing item.
type ArtResolver interface {
	Resolve(ctx context.Context, userID string, item *jellyfin.Item) artwork.Art
}

// PresenceConn is a live Discord rich-presence connection.
type PresenceConn interface {
	SetActivity(ctx context.Context, activity *discord.Activity) error
	ClearActivity(ctx context.Context) error
	Close() error
}

// DialDiscord opens a new presence connection. The engine dials through it
// again whenever the Discord client goes away and comes back.
type DialDiscord func(ctx context.Context) (PresenceConn, error)

// Deps bundles the engine's collaborators.
type Deps struct {
	Jellyfin SessionSource
	Discord  DialDiscord
	Artwork  ArtResolver
	Notifier notifications.Service
}

// Manager runs the polling loop that mirrors Jellyfin playback into Discord
// rich presence.
type Manager struct {
	cfg          *config.Config
	deps         Deps
	logger       *slog.Logger
	pollInterval time.Duration
	now          func() time.Time

	mu      sync.RWMutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	kick    chan struct{}

	conn PresenceConn

	user       *jellyfin.User
	serverName string

	jellyfinUp bool
	discordUp  bool

	lastErr        error
	lastSig        *presence.Signature
	lastUpdate     *presence.Update
	lastStartLabel string
	skipItemID     string

	startedAt   time.Time
	lastPollAt  time.Time
	lastPushAt  time.Time
	polls       int
	updatesSent int
	clearsSent  int
}

// NewManager constructs the mirror engine. A nil notifier falls back to the
// config-driven notification service.
func NewManager(cfg *config.Config, deps Deps, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	if deps.Notifier == nil {
		deps.Notifier = notifications.NewService(cfg)
	}
	return &Manager{
		cfg:          cfg,
		deps:         deps,
		logger:       logging.NewComponentLogger(logger, "mirror"),
		pollInterval: cfg.RefreshInterval(),
		now:          time.Now,
		kick:         make(chan struct{}, 1),
	}
}

func (m *Manager) presenceOptions() presence.Options {
	m.mu.RLock()
	name := m.serverName
	m.mu.RUnlock()
	return presence.Options{
		ServerName:       name,
		ShowJellyfinIcon: m.cfg.Display.ShowJellyfinIcon,
	}
}

func (m *Manager) currentUser() *jellyfin.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user
}

func (m *Manager) setUser(user *jellyfin.User) {
	m.mu.Lock()
	m.user = user
	m.mu.Unlock()
}

func (m *Manager) setServerName(name string) {
	m.mu.Lock()
	m.serverName = name
	m.mu.Unlock()
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}

func (m *Manager) swapJellyfinUp(up bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	was := m.jellyfinUp
	m.jellyfinUp = up
	return was
}

func (m *Manager) swapDiscordUp(up bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	was := m.discordUp
	m.discordUp = up
	return was
}

func (m *Manager) presenceConn() PresenceConn {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.conn
}

func (m *Manager) setConn(conn PresenceConn) {
	m.mu.Lock()
	m.conn = conn
	m.mu.Unlock()
}

func (m *Manager) takeConn() PresenceConn {
	m.mu.Lock()
	defer m.mu.Unlock()
	conn := m.conn
	m.conn = nil
	return conn
}

// resetPresenceState forgets the change-detection state. A fresh Discord
// connection starts with no activity, so the next poll re-sends.
func (m *Manager) resetPresenceState() {
	m.mu.Lock()
	m.lastSig = nil
	m.lastUpdate = nil
	m.mu.Unlock()
}

func (m *Manager) lastSignature() *presence.Signature {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastSig
}

func (m *Manager) notePoll() {
	m.mu.Lock()
	m.polls++
	m.lastPollAt = m.now()
	m.mu.Unlock()
}

// markSkipped records that an item was skipped and reports whether this is
// the first poll to see it, so the skip is logged once rather than every
// interval.
func (m *Manager) markSkipped(itemID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.skipItemID == itemID {
		return false
	}
	m.skipItemID = itemID
	return true
}
