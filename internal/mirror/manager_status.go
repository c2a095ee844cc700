package mirror

import (
	"context"
	"errors"
	"time"

	"marquee/internal/logging"
)

// NowPlaying describes the activity currently mirrored to Discord.
type NowPlaying struct {
	Label     string
	MediaType string
	ItemID    string
	Paused    bool
	Details   string
	State     string
}

// Snapshot is a point-in-time view of the engine for status reporting.
type Snapshot struct {
	Running           bool
	JellyfinConnected bool
	DiscordConnected  bool
	Username          string
	UserID            string
	ServerName        string
	LastError         string
	StartedAt         time.Time
	LastPollAt        time.Time
	LastPushAt        time.Time
	Polls             int
	UpdatesSent       int
	ClearsSent        int
	NowPlaying        *NowPlaying
}

// Status returns the engine's current state.
func (m *Manager) Status() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snapshot := Snapshot{
		Running:           m.running,
		JellyfinConnected: m.jellyfinUp,
		DiscordConnected:  m.discordUp,
		ServerName:        m.serverName,
		StartedAt:         m.startedAt,
		LastPollAt:        m.lastPollAt,
		LastPushAt:        m.lastPushAt,
		Polls:             m.polls,
		UpdatesSent:       m.updatesSent,
		ClearsSent:        m.clearsSent,
	}
	if m.user != nil {
		snapshot.Username = m.user.Name
		snapshot.UserID = m.user.ID
	}
	if m.lastErr != nil {
		snapshot.LastError = m.lastErr.Error()
	}
	if m.lastUpdate != nil {
		snapshot.NowPlaying = &NowPlaying{
			Label:     m.lastUpdate.Label,
			MediaType: m.lastUpdate.MediaType,
			ItemID:    m.lastUpdate.ItemID,
			Paused:    m.lastUpdate.Paused,
			Details:   m.lastUpdate.Activity.Details,
			State:     m.lastUpdate.Activity.State,
		}
	}
	return snapshot
}

// ForceRefresh drops the change-detection state so the next poll re-sends
// the activity, and schedules that poll immediately.
func (m *Manager) ForceRefresh() {
	m.mu.Lock()
	m.lastSig = nil
	m.mu.Unlock()

	select {
	case m.kick <- struct{}{}:
	default:
	}
	m.logger.Debug("refresh requested")
}

// ClearPresence removes the mirrored activity on demand. The next poll
// repopulates it while playback is still running, so callers that want the
// activity gone for good should stop the engine instead.
func (m *Manager) ClearPresence(ctx context.Context) error {
	conn := m.presenceConn()
	if conn == nil {
		return errors.New("discord not connected")
	}
	if err := conn.ClearActivity(ctx); err != nil {
		return err
	}

	m.mu.Lock()
	m.lastSig = nil
	m.lastUpdate = nil
	m.lastStartLabel = ""
	m.clearsSent++
	m.mu.Unlock()

	m.logger.Info("activity cleared", logging.String("reason", "requested"))
	return nil
}
