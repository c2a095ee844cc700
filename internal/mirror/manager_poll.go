package mirror

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"marquee/internal/artwork"
	"marquee/internal/logging"
	"marquee/internal/presence"
	"marquee/internal/services"
	"marquee/internal/services/jellyfin"
)

// poll runs one mirroring cycle: fetch sessions, find the tracked user's
// playback, and reconcile the Discord activity against it.
func (m *Manager) poll(ctx context.Context) error {
	m.notePoll()

	sessions, err := m.deps.Jellyfin.Sessions(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		m.setLastError(err)
		if m.swapJellyfinUp(false) {
			logging.WarnWithContext(m.logger, "jellyfin api connection failed, retrying", "jellyfin_poll_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check that the Jellyfin server is reachable"),
				logging.String(logging.FieldImpact, "presence updates suspended until the server responds"),
			)
		} else {
			m.logger.Debug("jellyfin api connection failed, retrying", logging.Error(err))
		}
		return errJellyfinLost
	}
	if !m.swapJellyfinUp(true) {
		m.logger.Info("connected to jellyfin api", logging.String("server", m.cfg.Jellyfin.Host))
	}

	user := m.currentUser()
	if user == nil {
		return nil
	}

	session, ok := jellyfin.SessionForUser(sessions, user.ID)
	if !ok || session.NowPlayingItem == nil {
		return m.clearActive(ctx, "")
	}

	item := session.NowPlayingItem
	playState := session.PlayState

	if !m.cfg.MediaTypeEnabled(item.Type) {
		if m.markSkipped(item.ID) {
			switch item.Type {
			case "Episode", "Movie", "Audio":
				m.logger.Debug("media type disabled, skipping",
					logging.String(logging.FieldMediaType, item.Type),
					logging.String(logging.FieldItemID, item.ID),
				)
			default:
				logging.WarnWithContext(m.logger, "unsupported media type", "unsupported_media_type",
					logging.String(logging.FieldMediaType, item.Type),
					logging.String(logging.FieldItemID, item.ID),
					logging.String(logging.FieldErrorHint, "only episodes, movies, and audio are mirrored"),
					logging.String(logging.FieldImpact, "this playback is not shown on discord"),
				)
			}
		}
		return m.clearActive(ctx, "")
	}

	if playState.IsPaused && !m.cfg.Display.ShowWhenPaused {
		return m.clearActive(ctx, "paused playback hidden")
	}

	// Render without artwork first; the signature decides whether anything
	// needs to be sent before spending lookups on posters.
	update, err := presence.Build(item, playState, artwork.Art{}, m.presenceOptions(), m.now())
	if err != nil {
		switch {
		case errors.Is(err, presence.ErrIncompleteItem):
			logging.WarnWithContext(m.logger, "missing key in session data", "session_incomplete",
				logging.Error(err),
				logging.String(logging.FieldMediaType, item.Type),
				logging.String(logging.FieldItemID, item.ID),
				logging.String(logging.FieldErrorHint, "the server may still be loading item metadata"),
				logging.String(logging.FieldImpact, "presence unchanged this cycle"),
			)
			return nil
		case errors.Is(err, presence.ErrUnsupportedMediaType):
			if m.markSkipped(item.ID) {
				logging.WarnWithContext(m.logger, "unsupported media type", "unsupported_media_type",
					logging.String(logging.FieldMediaType, item.Type),
					logging.String(logging.FieldItemID, item.ID),
				)
			}
			return m.clearActive(ctx, "")
		default:
			m.setLastError(err)
			return nil
		}
	}

	prev := m.lastSignature()
	if prev != nil && *prev == update.Signature {
		return nil
	}

	if m.deps.Artwork != nil {
		artCtx := services.WithItemID(ctx, item.ID)
		artCtx = services.WithRequestID(artCtx, uuid.NewString())
		art := m.deps.Artwork.Resolve(artCtx, user.ID, item)
		if rebuilt, err := presence.Build(item, playState, art, m.presenceOptions(), m.now()); err == nil {
			update = rebuilt
		}
	}

	if err := m.sendActivity(ctx, update); err != nil {
		return err
	}
	m.recordUpdate(ctx, prev, update)
	return nil
}

func (m *Manager) sendActivity(ctx context.Context, update *presence.Update) error {
	conn := m.presenceConn()
	if conn == nil {
		return errDiscordLost
	}
	if err := conn.SetActivity(ctx, &update.Activity); err != nil {
		return m.handleDiscordError(ctx, err)
	}
	m.swapDiscordUp(true)
	return nil
}

// clearActive removes the activity when one is being shown. It is a no-op
// while nothing is mirrored.
func (m *Manager) clearActive(ctx context.Context, reason string) error {
	m.mu.RLock()
	prev := m.lastUpdate
	m.mu.RUnlock()
	if prev == nil {
		return nil
	}
	conn := m.presenceConn()
	if conn == nil {
		return errDiscordLost
	}
	if err := conn.ClearActivity(ctx); err != nil {
		return m.handleDiscordError(ctx, err)
	}

	m.mu.Lock()
	m.lastSig = nil
	m.lastUpdate = nil
	m.clearsSent++
	stoppedLabel := m.lastStartLabel
	m.lastStartLabel = ""
	m.mu.Unlock()

	attrs := []logging.Attr{logging.String(logging.FieldActivity, prev.Label)}
	if reason != "" {
		attrs = append(attrs, logging.String("reason", reason))
	}
	m.logger.Info("activity cleared", logging.Args(attrs...)...)
	if stoppedLabel != "" {
		m.notifyStopped(ctx, stoppedLabel)
	}
	return nil
}

func (m *Manager) recordUpdate(ctx context.Context, prev *presence.Signature, update *presence.Update) {
	m.mu.Lock()
	sig := update.Signature
	m.lastSig = &sig
	m.lastUpdate = update
	m.updatesSent++
	m.lastPushAt = m.now()
	m.skipItemID = ""
	newItem := m.lastStartLabel != update.Label
	if newItem {
		m.lastStartLabel = update.Label
	}
	m.mu.Unlock()

	if prev != nil && prev.Label == update.Label && prev.Paused != update.Paused {
		state := "resumed"
		if update.Paused {
			state = "paused"
		}
		m.logger.Info("playstate changed",
			logging.String("state", state),
			logging.String(logging.FieldActivity, update.Label),
		)
		return
	}

	m.logger.Info("activity updated",
		logging.String(logging.FieldActivity, update.Label),
		logging.String(logging.FieldMediaType, update.MediaType),
		logging.String(logging.FieldItemID, update.ItemID),
		logging.Bool("paused", update.Paused),
	)
	if newItem {
		m.notifyStarted(ctx, update)
	}
}

func (m *Manager) handleDiscordError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	m.setLastError(err)
	if m.swapDiscordUp(false) {
		logging.WarnWithContext(m.logger, "discord client connection failed, retrying", "discord_connection_lost",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "make sure the Discord desktop app is running"),
			logging.String(logging.FieldImpact, "presence updates suspended until the client returns"),
		)
	} else {
		m.logger.Debug("discord client connection failed, retrying", logging.Error(err))
	}
	return errDiscordLost
}

func (m *Manager) notifyStarted(ctx context.Context, update *presence.Update) {
	if m.deps.Notifier == nil {
		return
	}
	if err := m.deps.Notifier.NotifyPlaybackStarted(ctx, update.Label, update.MediaType); err != nil && !errors.Is(err, context.Canceled) {
		m.logger.Debug("playback start notification failed", logging.Error(err))
	}
}

func (m *Manager) notifyStopped(ctx context.Context, label string) {
	if m.deps.Notifier == nil {
		return
	}
	if err := m.deps.Notifier.NotifyPlaybackStopped(ctx, label); err != nil && !errors.Is(err, context.Canceled) {
		m.logger.Debug("playback stop notification failed", logging.Error(err))
	}
}

func (m *Manager) notifyError(ctx context.Context, err error, contextLabel string) {
	if m.deps.Notifier == nil {
		return
	}
	if nerr := m.deps.Notifier.NotifyMirrorError(ctx, err, contextLabel); nerr != nil && !errors.Is(nerr, context.Canceled) {
		m.logger.Debug("error notification failed", logging.Error(nerr))
	}
}
