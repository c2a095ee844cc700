package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"marquee/internal/daemonctl"
	"marquee/internal/ipc"
)

func newDaemonCommands(ctx *commandContext) []*cobra.Command {
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start the marquee daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			exe, exeErr := daemonctl.DaemonExecutable()

			result, err := daemonctl.EnsureStarted(
				ctx.socketPath(),
				exe,
				launchOptions(ctx),
				10*time.Second,
			)
			if err != nil {
				if exeErr != nil {
					return fmt.Errorf("daemon not reachable and %w", exeErr)
				}
				return err
			}

			if result.Launched {
				fmt.Fprintln(stdout, "Daemon not running, launching...")
			}

			switch result.State {
			case daemonctl.StartStateStarted:
				fmt.Fprintln(stdout, "Daemon started")
			case daemonctl.StartStateAlreadyRunning:
				fmt.Fprintln(stdout, "Daemon already running")
			case daemonctl.StartStateRequested:
				if strings.TrimSpace(result.Message) != "" {
					fmt.Fprintln(stdout, result.Message)
					return nil
				}
				fmt.Fprintln(stdout, "Start request sent")
			}
			return nil
		},
	}

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the marquee daemon (terminates the process)",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			result, err := daemonctl.StopAndTerminate(ctx.socketPath(), ctx.configValue(), 5*time.Second)
			if errors.Is(err, daemonctl.ErrDaemonNotRunning) {
				fmt.Fprintln(stdout, "Daemon is not running")
				return nil
			}
			if err != nil {
				return err
			}
			if !result.StopAcknowledged {
				fmt.Fprintln(stdout, "Stop request sent")
			}
			if result.ForcedKill && result.PID > 0 {
				fmt.Fprintf(stdout, "Stopping daemon process (pid %d)...\n", result.PID)
			}
			fmt.Fprintln(stdout, "Daemon stopped")
			return nil
		},
	}

	restartCmd := &cobra.Command{
		Use:   "restart",
		Short: "Restart the marquee daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			exe, err := daemonctl.DaemonExecutable()
			if err != nil {
				return err
			}

			result, err := daemonctl.Restart(
				ctx.socketPath(),
				ctx.configValue(),
				exe,
				launchOptions(ctx),
				5*time.Second,
				10*time.Second,
			)
			if err != nil {
				return err
			}

			if result.WasRunning {
				if result.Stop.ForcedKill && result.Stop.PID > 0 {
					fmt.Fprintf(stdout, "Stopping daemon process (pid %d)...\n", result.Stop.PID)
				}
				fmt.Fprintln(stdout, "Daemon stopped")
			}

			switch result.Start.State {
			case daemonctl.StartStateStarted, daemonctl.StartStateAlreadyRunning:
				fmt.Fprintln(stdout, "Daemon restarted")
			case daemonctl.StartStateRequested:
				if strings.TrimSpace(result.Start.Message) != "" {
					fmt.Fprintln(stdout, result.Start.Message)
					return nil
				}
				fmt.Fprintln(stdout, "Start request sent")
			}
			return nil
		},
	}

	var statusJSON bool
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon and presence status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			snap, err := daemonctl.BuildStatusSnapshot(cmd.Context(), ctx.socketPath(), cfg, ctx.configPath, ctx.configExists)
			if err != nil {
				return err
			}
			if statusJSON {
				return writeJSON(cmd, snap)
			}
			renderStatus(cmd, snap)
			return nil
		},
	}
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Emit status as JSON")

	return []*cobra.Command{startCmd, stopCmd, restartCmd, statusCmd}
}

func renderStatus(cmd *cobra.Command, snap *daemonctl.Snapshot) {
	stdout := cmd.OutOrStdout()
	colorize := shouldColorize(stdout)

	for _, line := range renderSectionHeader("System Status", colorize) {
		fmt.Fprintln(stdout, line)
	}
	for _, check := range snap.Checks {
		fmt.Fprintln(stdout, renderStatusLine(check.Label, statusKindFromSeverity(check.Severity), check.Detail, colorize))
	}

	status := snap.Status
	if status == nil || !status.Running {
		return
	}

	fmt.Fprintln(stdout)
	for _, line := range renderSectionHeader("Mirror", colorize) {
		fmt.Fprintln(stdout, line)
	}
	for _, line := range mirrorLines(status) {
		fmt.Fprintln(stdout, line)
	}

	fmt.Fprintln(stdout)
	for _, line := range renderSectionHeader("Now Playing", colorize) {
		fmt.Fprintln(stdout, line)
	}
	if np := status.NowPlaying; np != nil {
		for _, line := range nowPlayingLines(np) {
			fmt.Fprintln(stdout, line)
		}
	} else {
		fmt.Fprintln(stdout, statusIndent+"Nothing playing")
	}
}

func mirrorLines(status *ipc.StatusResponse) []string {
	lines := make([]string, 0, 8)
	if status.Username != "" {
		lines = append(lines, renderKeyValue("User", status.Username))
	}
	if status.ServerName != "" {
		lines = append(lines, renderKeyValue("Server", status.ServerName))
	}
	lines = append(lines, renderKeyValue("Refresh", fmt.Sprintf("every %ds", status.RefreshSeconds)))
	if status.StartedAt != "" {
		lines = append(lines, renderKeyValue("Started", status.StartedAt))
	}
	if status.LastPollAt != "" {
		lines = append(lines, renderKeyValue("Last poll", status.LastPollAt))
	}
	if status.LastPushAt != "" {
		lines = append(lines, renderKeyValue("Last push", status.LastPushAt))
	}
	lines = append(lines, renderKeyValue("Polls", fmt.Sprintf("%d (%d updates, %d clears)", status.Polls, status.UpdatesSent, status.ClearsSent)))
	version := status.Version
	if status.UpdateAvailable != "" {
		version = fmt.Sprintf("%s (update available: %s)", version, status.UpdateAvailable)
	}
	if version != "" {
		lines = append(lines, renderKeyValue("Version", version))
	}
	if status.LastError != "" {
		lines = append(lines, renderKeyValue("Last error", status.LastError))
	}
	return lines
}

func nowPlayingLines(np *ipc.NowPlaying) []string {
	lines := make([]string, 0, 5)
	lines = append(lines, renderKeyValue("Title", np.Label))
	if np.Details != "" && np.Details != np.Label {
		lines = append(lines, renderKeyValue("Details", np.Details))
	}
	if np.State != "" {
		lines = append(lines, renderKeyValue("State", np.State))
	}
	if np.MediaType != "" {
		lines = append(lines, renderKeyValue("Type", np.MediaType))
	}
	lines = append(lines, renderKeyValue("Paused", yesNo(np.Paused)))
	return lines
}

func launchOptions(ctx *commandContext) daemonctl.LaunchOptions {
	opts := daemonctl.LaunchOptions{}
	if ctx.configFlag != nil {
		if config := strings.TrimSpace(*ctx.configFlag); config != "" {
			opts.ConfigPath = config
		}
	}
	return opts
}

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
