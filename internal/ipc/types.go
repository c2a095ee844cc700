package ipc

// PingRequest probes daemon liveness.
type PingRequest struct{}

// PingResponse reports the daemon process id.
type PingResponse struct {
	PID int `json:"pid"`
}

// StartRequest triggers mirror engine startup.
type StartRequest struct{}

// StartResponse indicates whether the engine was started.
type StartResponse struct {
	Started bool   `json:"started"`
	Message string `json:"message"`
}

// StopRequest stops the mirror engine.
type StopRequest struct{}

// StopResponse indicates stop result.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// NowPlaying describes the activity currently mirrored to Discord.
type NowPlaying struct {
	Label     string `json:"label"`
	MediaType string `json:"media_type"`
	ItemID    string `json:"item_id"`
	Paused    bool   `json:"paused"`
	Details   string `json:"details"`
	State     string `json:"state"`
}

// StatusResponse represents combined daemon and mirror engine status.
type StatusResponse struct {
	Running           bool        `json:"running"`
	MirrorActive      bool        `json:"mirror_active"`
	PID               int         `json:"pid"`
	LockPath          string      `json:"lock_path"`
	ConfigPath        string      `json:"config_path"`
	Version           string      `json:"version"`
	UpdateAvailable   string      `json:"update_available,omitempty"`
	JellyfinConnected bool        `json:"jellyfin_connected"`
	DiscordConnected  bool        `json:"discord_connected"`
	Username          string      `json:"username,omitempty"`
	ServerName        string      `json:"server_name,omitempty"`
	LastError         string      `json:"last_error,omitempty"`
	StartedAt         string      `json:"started_at,omitempty"`
	LastPollAt        string      `json:"last_poll_at,omitempty"`
	LastPushAt        string      `json:"last_push_at,omitempty"`
	Polls             int         `json:"polls"`
	UpdatesSent       int         `json:"updates_sent"`
	ClearsSent        int         `json:"clears_sent"`
	RefreshSeconds    int         `json:"refresh_seconds"`
	NowPlaying        *NowPlaying `json:"now_playing,omitempty"`
}

// RefreshRequest forces a presence re-send on the next poll.
type RefreshRequest struct{}

// RefreshResponse reports whether a refresh was scheduled.
type RefreshResponse struct {
	Scheduled bool   `json:"scheduled"`
	Message   string `json:"message,omitempty"`
}

// ClearPresenceRequest removes the mirrored activity.
type ClearPresenceRequest struct{}

// ClearPresenceResponse reports the clear outcome.
type ClearPresenceResponse struct {
	Cleared bool   `json:"cleared"`
	Message string `json:"message,omitempty"`
}

// LogTailRequest fetches log lines based on offset and follow semantics.
type LogTailRequest struct {
	Offset     int64 `json:"offset"`
	Limit      int   `json:"limit"`
	Follow     bool  `json:"follow"`
	WaitMillis int   `json:"wait_millis"`
}

// LogTailResponse returns log lines and the next offset.
type LogTailResponse struct {
	Lines  []string `json:"lines"`
	Offset int64    `json:"offset"`
}

// TestNotificationRequest triggers a notification test.
type TestNotificationRequest struct{}

// TestNotificationResponse reports notification test outcome.
type TestNotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}
