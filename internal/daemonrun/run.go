package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"marquee/internal/artwork"
	"marquee/internal/artwork/coverart"
	"marquee/internal/artwork/musicbrainz"
	"marquee/internal/artwork/tmdb"
	"marquee/internal/config"
	"marquee/internal/daemon"
	"marquee/internal/daemonctl"
	"marquee/internal/discord"
	"marquee/internal/fileutil"
	"marquee/internal/ipc"
	"marquee/internal/logging"
	"marquee/internal/mirror"
	"marquee/internal/notifications"
	"marquee/internal/services/jellyfin"
	"marquee/internal/updates"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel     string
	ExtraLogPath string
}

// Run starts the marquee daemon runtime loop and blocks until SIGINT or
// SIGTERM arrives or cmdCtx is cancelled.
func Run(cmdCtx context.Context, cfg *config.Config, configPath string, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("prepare log directory: %w", err)
	}

	runID := time.Now().UTC().Format("20060102T150405.000Z") + "-" + uuid.NewString()[:8]
	logPath := filepath.Join(cfg.Runtime.LogDir, fmt.Sprintf("marqueed-%s.log", runID))

	level := cfg.Runtime.LogLevel
	if strings.TrimSpace(opts.LogLevel) != "" {
		level = opts.LogLevel
	}
	outputs := []string{"stdout", logPath}
	errOutputs := []string{"stderr", logPath}
	if extra := strings.TrimSpace(opts.ExtraLogPath); extra != "" {
		outputs = append(outputs, extra)
		errOutputs = append(errOutputs, extra)
	}
	logger, err := logging.New(logging.Options{
		Level:            level,
		Format:           cfg.Runtime.LogFormat,
		OutputPaths:      outputs,
		ErrorOutputPaths: errOutputs,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	for _, warning := range cfg.Warnings() {
		logging.WarnWithContext(logger, warning, "config_warning",
			logging.String(logging.FieldErrorHint, "review "+configPath),
			logging.String(logging.FieldImpact, "daemon continues with adjusted settings"),
		)
	}
	logStartupSnapshot(logger, cfg, configPath)

	if err := ensureCurrentLogPointer(cfg.Runtime.LogDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update marqueed.log link: %v\n", err)
	}
	logging.CleanupOldLogs(logger, logging.RetentionTarget{
		Dir:          cfg.Runtime.LogDir,
		Pattern:      "marqueed-*.log",
		Exclude:      []string{logPath},
		MaxAgeDays:   cfg.Runtime.LogRetentionDays,
		MinKeepFiles: 3,
	})

	pidPath := daemonctl.PIDFilePath(cfg)
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	engine, err := buildEngine(signalCtx, cfg, logger)
	if err != nil {
		logger.Error("build mirror engine", logging.Error(err))
		return err
	}

	var checker *updates.Checker
	if cfg.Runtime.CheckForUpdates {
		checker = updates.NewChecker(updates.Version, logger)
		checker.Start(signalCtx, 0)
	}

	d, err := daemon.New(cfg, engine, logger, configPath, logPath, checker)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	ipcServer, err := ipc.NewServer(signalCtx, daemonctl.SocketPath(cfg), d, logger)
	if err != nil {
		return fmt.Errorf("start IPC server: %w", err)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	if err := d.Start(signalCtx); err != nil {
		logger.Warn("daemon start failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "daemon_start_failed"),
			logging.String(logging.FieldErrorHint, "check configuration and connectivity, then run marquee start"),
			logging.String(logging.FieldImpact, "presence mirroring is not active"),
		)
	}

	<-signalCtx.Done()
	logger.Info("marquee daemon shutting down")
	return nil
}

func buildEngine(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*mirror.Manager, error) {
	jf, err := jellyfin.New(cfg.Jellyfin.Host, cfg.Jellyfin.APIKey)
	if err != nil {
		return nil, fmt.Errorf("jellyfin client: %w", err)
	}

	var tmdbClient artwork.TMDBClient
	if cfg.TMDBEnabled() {
		client, err := tmdb.New(cfg.Artwork.TMDBAPIKey, tmdb.DefaultBaseURL)
		if err != nil {
			return nil, fmt.Errorf("tmdb client: %w", err)
		}
		if err := client.Probe(ctx); err != nil {
			logging.WarnWithContext(logger, "tmdb api connection failed", "tmdb_probe_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "verify TMDB_API_KEY"),
				logging.String(logging.FieldImpact, "movie and show posters will be unavailable"),
			)
		}
		tmdbClient = client
	}

	music, err := musicbrainz.New(musicbrainz.DefaultBaseURL)
	if err != nil {
		return nil, fmt.Errorf("musicbrainz client: %w", err)
	}
	covers, err := coverart.New(coverart.DefaultBaseURL)
	if err != nil {
		return nil, fmt.Errorf("cover art client: %w", err)
	}

	resolver := artwork.NewResolver(artwork.Deps{
		TMDB:   tmdbClient,
		Music:  music,
		Covers: covers,
		Items:  jf,
		Cache:  artwork.NewCache(filepath.Join(cfg.Runtime.LogDir, "artwork.json"), logger),
		Logger: logger,
	}, artwork.Options{
		SeasonOverSeries: cfg.Artwork.SeasonOverSeries,
		ReleaseOverGroup: cfg.Artwork.ReleaseOverGroup,
		FindBestMatch:    cfg.Artwork.FindBestMatch,
		Languages:        cfg.Artwork.Languages,
	})

	dial := func(dialCtx context.Context) (mirror.PresenceConn, error) {
		return discord.Dial(dialCtx, cfg.Discord.ClientID, discord.WithLogger(logger))
	}

	return mirror.NewManager(cfg, mirror.Deps{
		Jellyfin: jf,
		Discord:  dial,
		Artwork:  resolver,
		Notifier: notifications.NewService(cfg),
	}, logger), nil
}

func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, "marqueed.log")
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err == nil {
		return nil
	}
	if err := fileutil.CopyFile(target, current); err != nil {
		return fmt.Errorf("copy log pointer: %w", err)
	}
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logStartupSnapshot(logger *slog.Logger, cfg *config.Config, configPath string) {
	if logger == nil || cfg == nil {
		return
	}
	logger.Info("starting marquee daemon",
		logging.String(logging.FieldEventType, "daemon_boot"),
		logging.String("version", updates.Version),
		logging.String("config_path", configPath),
		logging.String("jellyfin_host", cfg.Jellyfin.Host),
		logging.String("jellyfin_username", cfg.Jellyfin.Username),
		logging.String("discord_client_id", cfg.Discord.ClientID),
		logging.Bool("tmdb_key_present", cfg.TMDBEnabled()),
		logging.String("media_types", cfg.Display.MediaTypes),
		logging.Int("refresh_seconds", cfg.Runtime.RefreshRate),
		logging.Bool("notifications_configured", strings.TrimSpace(cfg.Notifications.NtfyTopic) != ""),
		logging.Bool("check_for_updates", cfg.Runtime.CheckForUpdates),
	)
}
