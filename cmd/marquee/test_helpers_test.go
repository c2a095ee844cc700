package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"marquee/internal/config"
	"marquee/internal/daemon"
	"marquee/internal/discord"
	"marquee/internal/ipc"
	"marquee/internal/logging"
	"marquee/internal/mirror"
	"marquee/internal/services/jellyfin"
	"marquee/internal/testsupport"
)

type idleJellyfin struct{}

func (idleJellyfin) ResolveUser(context.Context, string) (*jellyfin.User, error) {
	return &jellyfin.User{ID: "user-1", Name: "alice"}, nil
}

func (idleJellyfin) Sessions(context.Context) ([]jellyfin.Session, error) {
	return nil, nil
}

func (idleJellyfin) SystemInfo(context.Context) (*jellyfin.SystemInfo, error) {
	return &jellyfin.SystemInfo{ServerName: "Den"}, nil
}

type idleConn struct{}

func (idleConn) SetActivity(context.Context, *discord.Activity) error { return nil }
func (idleConn) ClearActivity(context.Context) error                  { return nil }
func (idleConn) Close() error                                         { return nil }

type cliTestEnv struct {
	cfg        *config.Config
	daemon     *daemon.Daemon
	server     *ipc.Server
	socketPath string
	configPath string
	baseDir    string
	logPath    string
	cancel     context.CancelFunc
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	cfg := testsupport.NewConfig(t)
	logPath := filepath.Join(cfg.Runtime.LogDir, "marqueed-test.log")
	if _, err := os.Stat(logPath); errors.Is(err, os.ErrNotExist) {
		if err := os.WriteFile(logPath, nil, 0o644); err != nil {
			t.Fatalf("create log file: %v", err)
		}
	}

	configPath := filepath.Join(homeDir, ".config", "marquee", "config.ini")
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	writeTestConfig(t, configPath, cfg)

	logger := logging.NewNop()
	engine := mirror.NewManager(cfg, mirror.Deps{
		Jellyfin: idleJellyfin{},
		Discord: func(context.Context) (mirror.PresenceConn, error) {
			return idleConn{}, nil
		},
	}, logger)

	d, err := daemon.New(cfg, engine, logger, configPath, logPath, nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	socketPath := filepath.Join(cfg.Runtime.LogDir, "cli.sock")
	srv, err := ipc.NewServer(ctx, socketPath, d, logger)
	if err != nil {
		cancel()
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("unix sockets unavailable: %v", err)
		}
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()

	env := &cliTestEnv{
		cfg:        cfg,
		daemon:     d,
		server:     srv,
		socketPath: socketPath,
		configPath: configPath,
		baseDir:    base,
		logPath:    logPath,
		cancel:     cancel,
	}

	t.Cleanup(func() {
		cancel()
		srv.Close()
		d.Close()
	})

	return env
}

func runCLI(t *testing.T, args []string, socket, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := []string{"--socket", socket}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func appendLine(path, line string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(line + "\n")
	return err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(
		"JELLYFIN_HOST = %s\nJELLYFIN_API_KEY = %s\nJELLYFIN_USERNAME = %s\nLOG_DIR = %s\n",
		cfg.Jellyfin.Host,
		cfg.Jellyfin.APIKey,
		cfg.Jellyfin.Username,
		cfg.Runtime.LogDir,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func waitFor(t *testing.T, duration time.Duration, fn func() bool) {
	t.Helper()
	deadline := time.Now().Add(duration)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition not met within %s", duration)
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
