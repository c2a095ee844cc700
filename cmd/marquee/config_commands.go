package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"marquee/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigShowCommand(ctx))
	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigValidateCommand(ctx))

	return configCmd
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the resolved configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config path: %s\n", ctx.configPath)
			if !ctx.configExists {
				fmt.Fprintln(out, "Config file does not exist; showing defaults")
			}
			fmt.Fprintln(out, renderSettingsTable(cfg))
			return nil
		},
	}
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
				target = defaultPath
			} else {
				expanded, err := config.ExpandPath(target)
				if err != nil {
					return fmt.Errorf("resolve config path: %w", err)
				}
				target = expanded
			}

			dir := filepath.Dir(target)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create config directory %q: %w", dir, err)
			}

			if overwrite {
				if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
					return fmt.Errorf("remove existing config: %w", err)
				}
			} else if _, err := os.Stat(target); err == nil {
				return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
			} else if !os.IsNotExist(err) {
				return fmt.Errorf("check config path: %w", err)
			}

			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Edit the file to set JELLYFIN_HOST, JELLYFIN_API_KEY, and JELLYFIN_USERNAME before starting marquee.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:         "validate",
		Short:       "Validate the configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if ctx.configFlag != nil {
				path = strings.TrimSpace(*ctx.configFlag)
			}
			cfg, resolvedPath, exists, err := config.Load(path)
			out := cmd.OutOrStdout()
			if resolvedPath != "" {
				fmt.Fprintf(out, "Config path: %s\n", resolvedPath)
			}
			if err != nil {
				return err
			}
			if !exists {
				fmt.Fprintln(out, "Config file did not exist; defaults were used")
			}
			for _, warning := range cfg.Warnings() {
				fmt.Fprintf(out, "Warning: %s\n", warning)
			}
			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
}

func renderSettingsTable(cfg *config.Config) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Setting", "Value"})
	for _, row := range settingsRows(cfg) {
		tw.AppendRow(table.Row{row[0], row[1]})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
		{Number: 2, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}

func settingsRows(cfg *config.Config) [][2]string {
	return [][2]string{
		{"JELLYFIN_HOST", cfg.Jellyfin.Host},
		{"JELLYFIN_API_KEY", redactSecret(cfg.Jellyfin.APIKey)},
		{"JELLYFIN_USERNAME", cfg.Jellyfin.Username},
		{"DISCORD_CLIENT_ID", cfg.Discord.ClientID},
		{"TMDB_API_KEY", redactSecret(cfg.Artwork.TMDBAPIKey)},
		{"POSTER_LANGUAGES", cfg.Artwork.PosterLanguages},
		{"SEASON_OVER_SERIES", yesNo(cfg.Artwork.SeasonOverSeries)},
		{"RELEASE_OVER_GROUP", yesNo(cfg.Artwork.ReleaseOverGroup)},
		{"FIND_BEST_MATCH", yesNo(cfg.Artwork.FindBestMatch)},
		{"MEDIA_TYPES", cfg.Display.MediaTypes},
		{"SHOW_WHEN_PAUSED", yesNo(cfg.Display.ShowWhenPaused)},
		{"SHOW_SERVER_NAME", yesNo(cfg.Display.ShowServerName)},
		{"SHOW_JELLYFIN_ICON", yesNo(cfg.Display.ShowJellyfinIcon)},
		{"NTFY_TOPIC", cfg.Notifications.NtfyTopic},
		{"NTFY_REQUEST_TIMEOUT", strconv.Itoa(cfg.Notifications.RequestTimeout)},
		{"REFRESH_RATE", strconv.Itoa(cfg.Runtime.RefreshRate)},
		{"LOG_LEVEL", cfg.Runtime.LogLevel},
		{"LOG_FORMAT", cfg.Runtime.LogFormat},
		{"LOG_DIR", cfg.Runtime.LogDir},
		{"LOG_RETENTION_DAYS", strconv.Itoa(cfg.Runtime.LogRetentionDays)},
		{"CHECK_FOR_UPDATES", yesNo(cfg.Runtime.CheckForUpdates)},
	}
}

func redactSecret(value string) string {
	if strings.TrimSpace(value) == "" {
		return "(not set)"
	}
	return "(set)"
}
