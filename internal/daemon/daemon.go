package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/gofrs/flock"

	"marquee/internal/config"
	"marquee/internal/logging"
	"marquee/internal/mirror"
	"marquee/internal/notifications"
	"marquee/internal/updates"
)

// Daemon coordinates the mirror engine and enforces single-instance execution.
type Daemon struct {
	cfg        *config.Config
	logger     *slog.Logger
	engine     *mirror.Manager
	updates    *updates.Checker
	configPath string
	logPath    string

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running         bool
	PID             int
	Mirror          mirror.Snapshot
	LockFilePath    string
	ConfigPath      string
	RefreshSeconds  int
	Version         string
	UpdateAvailable string
}

// New constructs a daemon around an initialized mirror engine. The checker
// is optional; everything else is required. logPath names the per-run log
// file that LogTail reads.
func New(cfg *config.Config, engine *mirror.Manager, logger *slog.Logger, configPath, logPath string, checker *updates.Checker) (*Daemon, error) {
	if cfg == nil || engine == nil || logger == nil {
		return nil, errors.New("daemon requires config, mirror engine, and logger")
	}

	if strings.TrimSpace(logPath) == "" {
		logPath = filepath.Join(cfg.Runtime.LogDir, "marqueed.log")
	}
	lockPath := filepath.Join(cfg.Runtime.LogDir, "marqueed.lock")
	return &Daemon{
		cfg:        cfg,
		logger:     logger,
		engine:     engine,
		updates:    checker,
		configPath: configPath,
		logPath:    logPath,
		lockPath:   lockPath,
		lock:       flock.New(lockPath),
	}, nil
}

// Start launches the mirror engine and acquires the daemon lock.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another marquee daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.engine.Start(d.ctx); err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return fmt.Errorf("start mirror engine: %w", err)
	}

	d.running.Store(true)
	d.logger.Info("marquee daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop stops the mirror engine and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.engine.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("marquee daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	return nil
}

// ForceRefresh schedules an immediate re-send of the mirrored activity.
func (d *Daemon) ForceRefresh() error {
	if !d.running.Load() {
		return errors.New("mirror engine not running")
	}
	d.engine.ForceRefresh()
	return nil
}

// ClearPresence removes the mirrored activity without stopping the engine.
func (d *Daemon) ClearPresence(ctx context.Context) error {
	return d.engine.ClearPresence(ctx)
}

// TestNotification triggers a test notification using the current configuration.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if d.cfg == nil {
		return false, "configuration unavailable", errors.New("configuration unavailable")
	}
	if strings.TrimSpace(d.cfg.Notifications.NtfyTopic) == "" {
		return false, "ntfy topic not configured", nil
	}
	notifier := notifications.NewService(d.cfg)
	if err := notifier.TestNotification(ctx); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}

// LogPath returns the path to the daemon log file.
func (d *Daemon) LogPath() string {
	return d.logPath
}

// Status returns the current daemon status.
func (d *Daemon) Status() Status {
	status := Status{
		Running:        d.running.Load(),
		PID:            os.Getpid(),
		Mirror:         d.engine.Status(),
		LockFilePath:   d.lockPath,
		ConfigPath:     d.configPath,
		RefreshSeconds: d.cfg.Runtime.RefreshRate,
		Version:        updates.Version,
	}
	if d.updates != nil {
		status.UpdateAvailable = d.updates.UpdateAvailable()
	}
	return status
}
