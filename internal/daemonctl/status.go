package daemonctl

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"marquee/internal/config"
	"marquee/internal/discord"
	"marquee/internal/ipc"
	"marquee/internal/updates"
)

// StatusLine is one rendered row of the status report.
type StatusLine struct {
	Label    string `json:"label"`
	Severity string `json:"severity"`
	Detail   string `json:"detail"`
}

// Snapshot is the full status view rendered by the CLI. Source is "daemon"
// when the response came over IPC and "offline" when built from config alone.
type Snapshot struct {
	Source string              `json:"source"`
	Status *ipc.StatusResponse `json:"status"`
	Checks []StatusLine        `json:"checks"`
}

// BuildStatusSnapshot collects daemon status over IPC, falling back to an
// offline placeholder when the daemon is unreachable.
func BuildStatusSnapshot(ctx context.Context, socketPath string, cfg *config.Config, configPath string, configExists bool) (*Snapshot, error) {
	if cfg == nil {
		return nil, errors.New("configuration not available")
	}
	snap := &Snapshot{
		Source: "offline",
		Status: &ipc.StatusResponse{
			ConfigPath:     configPath,
			RefreshSeconds: cfg.Runtime.RefreshRate,
			Version:        updates.Version,
		},
	}

	client, err := ipc.Dial(socketPath)
	if err == nil {
		defer client.Close()
		if resp, statusErr := client.Status(); statusErr == nil && resp != nil {
			snap.Status = resp
			snap.Source = "daemon"
		}
	}

	snap.Checks = BuildSystemChecks(ctx, cfg, configPath, configExists, snap.Status)
	return snap, nil
}

// BuildSystemChecks resolves status lines that combine runtime state and
// config checks.
func BuildSystemChecks(ctx context.Context, cfg *config.Config, configPath string, configExists bool, status *ipc.StatusResponse) []StatusLine {
	if status == nil {
		status = &ipc.StatusResponse{}
	}
	lines := make([]StatusLine, 0, 9)

	if status.Running {
		lines = append(lines, StatusLine{Label: "Marquee", Severity: "ok", Detail: fmt.Sprintf("Running (pid %d)", status.PID)})
		if status.MirrorActive {
			lines = append(lines, StatusLine{Label: "Mirror", Severity: "ok", Detail: "Active"})
		} else {
			lines = append(lines, StatusLine{Label: "Mirror", Severity: "warn", Detail: "Stopped (check daemon logs)"})
		}
	} else {
		lines = append(lines, StatusLine{Label: "Marquee", Severity: "warn", Detail: "Not running (run `marquee start`)"})
	}

	lines = append(lines, jellyfinCheck(cfg, status))
	lines = append(lines, discordCheck(ctx, status))

	if cfg.TMDBEnabled() {
		lines = append(lines, StatusLine{Label: "TMDB", Severity: "ok", Detail: "API key configured"})
	} else {
		lines = append(lines, StatusLine{Label: "TMDB", Severity: "info", Detail: "No API key (movie and show posters disabled)"})
	}

	if strings.TrimSpace(cfg.Notifications.NtfyTopic) != "" {
		lines = append(lines, StatusLine{Label: "Notifications", Severity: "ok", Detail: "Configured"})
	} else {
		lines = append(lines, StatusLine{Label: "Notifications", Severity: "info", Detail: "Not configured"})
	}

	if configExists {
		lines = append(lines, StatusLine{Label: "Config", Severity: "ok", Detail: configPath})
	} else {
		lines = append(lines, StatusLine{Label: "Config", Severity: "warn", Detail: "Not found (run `marquee config init`)"})
	}

	lines = append(lines, logDirCheck(cfg.Runtime.LogDir))

	if status.UpdateAvailable != "" {
		lines = append(lines, StatusLine{Label: "Update", Severity: "info", Detail: fmt.Sprintf("%s available (%s/releases/latest)", status.UpdateAvailable, updates.ProjectURL)})
	}

	return lines
}

func jellyfinCheck(cfg *config.Config, status *ipc.StatusResponse) StatusLine {
	if status.Running {
		if status.JellyfinConnected {
			detail := "Connected"
			if status.ServerName != "" {
				detail = fmt.Sprintf("Connected (%s)", status.ServerName)
			}
			return StatusLine{Label: "Jellyfin", Severity: "ok", Detail: detail}
		}
		detail := "Not connected"
		if status.LastError != "" {
			detail = fmt.Sprintf("Not connected (%s)", status.LastError)
		}
		return StatusLine{Label: "Jellyfin", Severity: "warn", Detail: detail}
	}
	host := strings.TrimSpace(cfg.Jellyfin.Host)
	if host == "" {
		return StatusLine{Label: "Jellyfin", Severity: "warn", Detail: "Host not configured"}
	}
	return StatusLine{Label: "Jellyfin", Severity: "info", Detail: host}
}

func discordCheck(ctx context.Context, status *ipc.StatusResponse) StatusLine {
	if status.Running {
		if status.DiscordConnected {
			return StatusLine{Label: "Discord", Severity: "ok", Detail: "Connected"}
		}
		return StatusLine{Label: "Discord", Severity: "warn", Detail: "Not connected (is the Discord client running?)"}
	}
	probeCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := discord.ProbeSocket(probeCtx, ""); err != nil {
		return StatusLine{Label: "Discord", Severity: "info", Detail: "No client socket found"}
	}
	return StatusLine{Label: "Discord", Severity: "ok", Detail: "Client socket found"}
}

func logDirCheck(dir string) StatusLine {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return StatusLine{Label: "Log Dir", Severity: "warn", Detail: "Not configured"}
	}
	info, err := os.Stat(dir)
	if err != nil {
		return StatusLine{Label: "Log Dir", Severity: "info", Detail: fmt.Sprintf("%s (created on start)", dir)}
	}
	if !info.IsDir() {
		return StatusLine{Label: "Log Dir", Severity: "error", Detail: fmt.Sprintf("%s is not a directory", dir)}
	}
	probe, err := os.CreateTemp(dir, ".marquee-*")
	if err != nil {
		return StatusLine{Label: "Log Dir", Severity: "error", Detail: fmt.Sprintf("%s is not writable", dir)}
	}
	probe.Close()
	os.Remove(probe.Name())

	if free, ok := diskFree(dir); ok {
		severity := "ok"
		if free < 512*1024*1024 {
			severity = "warn"
		}
		return StatusLine{Label: "Log Dir", Severity: severity, Detail: fmt.Sprintf("%s (%s free)", dir, humanBytes(free))}
	}
	return StatusLine{Label: "Log Dir", Severity: "ok", Detail: dir}
}

func humanBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
