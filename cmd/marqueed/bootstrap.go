package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"marquee/internal/config"
	"marquee/internal/daemonrun"
	"marquee/internal/updates"
)

func newDaemonCommand() *cobra.Command {
	var configPath string
	var logFile string
	var logLevel string
	var refreshRate int

	cmd := &cobra.Command{
		Use:           "marqueed",
		Short:         "Marquee daemon: mirrors Jellyfin playback into Discord rich presence",
		Version:       updates.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := strings.TrimSpace(configPath)
			if path != "" {
				expanded, err := config.ExpandPath(path)
				if err != nil {
					return fmt.Errorf("resolve config path: %w", err)
				}
				if _, err := os.Stat(expanded); errors.Is(err, fs.ErrNotExist) {
					return fmt.Errorf("config file not found at %s", expanded)
				}
			}

			cfg, resolvedPath, _, err := config.Load(path)
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("refresh-rate") {
				if refreshRate < 1 {
					return fmt.Errorf("refresh rate must be at least 1 second, got %d", refreshRate)
				}
				cfg.Runtime.RefreshRate = refreshRate
			}

			return daemonrun.Run(cmd.Context(), cfg, resolvedPath, daemonrun.Options{
				LogLevel:     logLevel,
				ExtraLogPath: logFile,
			})
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Configuration file path")
	cmd.Flags().StringVar(&logFile, "log-file", "", "Additional log file to write alongside the run log")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Override the configured log level")
	cmd.Flags().IntVar(&refreshRate, "refresh-rate", 0, "Override the poll interval in seconds")

	return cmd
}
