package mirror

import (
	"context"
	"errors"
	"time"

	"marquee/internal/logging"
	"marquee/internal/services"
	"marquee/internal/services/jellyfin"
)

// Start begins the mirroring loop in the background.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("mirror already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.startedAt = m.now()
	m.lastErr = nil
	m.wg.Add(1)
	m.mu.Unlock()

	go m.run(runCtx)
	return nil
}

// Stop terminates the mirroring loop and waits for it to finish. The
// mirrored activity is cleared on the way out.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
}

func (m *Manager) run(ctx context.Context) {
	defer m.wg.Done()
	defer m.finish()

	if err := m.connectJellyfin(ctx); err != nil {
		return
	}
	m.loadServerName(ctx)
	if err := m.connectDiscord(ctx); err != nil {
		return
	}

	for {
		if err := m.poll(ctx); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return
			}
			if errors.Is(err, errDiscordLost) {
				if err := m.connectDiscord(ctx); err != nil {
					return
				}
				// Re-poll right away so the presence comes back without
				// waiting a full interval.
				continue
			}
			// A lost Jellyfin connection heals on a later poll.
		}
		if !m.wait(ctx) {
			return
		}
	}
}

// connectJellyfin resolves the configured username, retrying until the
// server is reachable. An unknown username is a configuration problem and
// stops the engine.
func (m *Manager) connectJellyfin(ctx context.Context) error {
	logged := false
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		user, err := m.deps.Jellyfin.ResolveUser(ctx, m.cfg.Jellyfin.Username)
		if err == nil {
			m.setUser(user)
			m.swapJellyfinUp(true)
			m.logger.Info("connected to jellyfin api",
				logging.String("server", m.cfg.Jellyfin.Host),
				logging.String("username", user.Name),
			)
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, jellyfin.ErrUserNotFound) {
			fatal := services.Wrap(services.ErrConfiguration, "mirror", "resolve user", "username not found on server", err)
			m.setLastError(fatal)
			logging.ErrorWithContext(m.logger, "username not found", "jellyfin_user_missing",
				logging.Error(err),
				logging.String("username", m.cfg.Jellyfin.Username),
				logging.String(logging.FieldErrorHint, "check JELLYFIN_USERNAME against the server's user list"),
				logging.String(logging.FieldImpact, "presence mirroring stopped"),
			)
			m.notifyError(ctx, fatal, "jellyfin user lookup")
			return fatal
		}
		m.setLastError(err)
		if !logged {
			logging.WarnWithContext(m.logger, "jellyfin api connection failed, retrying", "jellyfin_connect_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check JELLYFIN_HOST and JELLYFIN_API_KEY"),
				logging.String(logging.FieldImpact, "presence mirroring waits for the server"),
			)
			logged = true
		} else {
			m.logger.Debug("jellyfin api connection failed, retrying", logging.Error(err))
		}
		if !m.wait(ctx) {
			return ctx.Err()
		}
	}
}

// loadServerName fetches the server's display name for the activity header.
// Failure is not fatal; the activity falls back to the application name.
func (m *Manager) loadServerName(ctx context.Context) {
	if !m.cfg.Display.ShowServerName {
		return
	}
	info, err := m.deps.Jellyfin.SystemInfo(ctx)
	if err != nil {
		logging.WarnWithContext(m.logger, "server name lookup failed", "jellyfin_system_info_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "the api key may lack access to /System/Info"),
			logging.String(logging.FieldImpact, "activity shows the default application name"),
		)
		return
	}
	m.setServerName(info.ServerName)
	m.logger.Debug("server name resolved", logging.String("server_name", info.ServerName))
}

// connectDiscord dials the local Discord client, retrying until its ipc
// socket accepts the handshake.
func (m *Manager) connectDiscord(ctx context.Context) error {
	if old := m.takeConn(); old != nil {
		_ = old.Close()
	}
	m.resetPresenceState()

	logged := false
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		conn, err := m.deps.Discord(ctx)
		if err == nil {
			m.setConn(conn)
			m.swapDiscordUp(true)
			m.logger.Info("connected to discord client", logging.String("client_id", m.cfg.Discord.ClientID))
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		m.setLastError(err)
		if !logged {
			logging.WarnWithContext(m.logger, "discord client connection failed, retrying", "discord_connect_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "make sure the Discord desktop app is running"),
				logging.String(logging.FieldImpact, "presence updates wait for the client"),
			)
			logged = true
		} else {
			m.logger.Debug("discord client connection failed, retrying", logging.Error(err))
		}
		if !m.wait(ctx) {
			return ctx.Err()
		}
	}
}

// wait sleeps one poll interval, or less when a refresh has been requested.
// It reports false when the engine should shut down.
func (m *Manager) wait(ctx context.Context) bool {
	timer := time.NewTimer(m.pollInterval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	case <-m.kick:
		return true
	}
}

func (m *Manager) finish() {
	m.shutdownPresence()
	m.mu.Lock()
	m.running = false
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.jellyfinUp = false
	m.discordUp = false
	m.mu.Unlock()
}

// shutdownPresence clears the mirrored activity and closes the Discord
// connection. The run context is already gone by the time this is called,
// so the clear gets its own short deadline.
func (m *Manager) shutdownPresence() {
	conn := m.takeConn()
	m.mu.Lock()
	active := m.lastUpdate != nil
	m.lastSig = nil
	m.lastUpdate = nil
	m.lastStartLabel = ""
	m.mu.Unlock()
	if conn == nil {
		return
	}
	if active {
		clearCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := conn.ClearActivity(clearCtx); err == nil {
			m.logger.Info("activity cleared", logging.String("reason", "shutdown"))
		}
		cancel()
	}
	if err := conn.Close(); err != nil {
		m.logger.Debug("discord connection close failed", logging.Error(err))
	}
}
