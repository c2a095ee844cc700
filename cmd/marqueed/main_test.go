package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"marquee/internal/updates"
)

func writeDaemonConfig(t *testing.T) (string, string) {
	t.Helper()

	t.Setenv("JELLYFIN_API_KEY", "")
	t.Setenv("TMDB_API_KEY", "")

	base := t.TempDir()
	logDir := filepath.Join(base, "logs")
	path := filepath.Join(base, "config.ini")
	content := fmt.Sprintf(
		"JELLYFIN_HOST = http://127.0.0.1:8096\nJELLYFIN_API_KEY = test-key\nJELLYFIN_USERNAME = alice\nLOG_DIR = %s\nCHECK_FOR_UPDATES = false\n",
		logDir,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path, logDir
}

func TestDaemonCommandMissingConfig(t *testing.T) {
	cmd := newDaemonCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "absent.ini")})

	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "config file not found") {
		t.Fatalf("expected missing-config error, got %v", err)
	}
}

func TestDaemonCommandRefreshRateValidation(t *testing.T) {
	configPath, _ := writeDaemonConfig(t)

	cmd := newDaemonCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config", configPath, "--refresh-rate", "0"})

	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "refresh rate must be at least 1 second") {
		t.Fatalf("expected refresh-rate error, got %v", err)
	}
}

func TestDaemonCommandRunsUntilCancelled(t *testing.T) {
	configPath, logDir := writeDaemonConfig(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cmd := newDaemonCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetContext(ctx)
	cmd.SetArgs([]string{"--config", configPath})

	if err := cmd.Execute(); err != nil {
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("unix sockets unavailable: %v", err)
		}
		t.Fatalf("execute: %v", err)
	}

	matches, err := filepath.Glob(filepath.Join(logDir, "marqueed-*.log"))
	if err != nil {
		t.Fatalf("glob run logs: %v", err)
	}
	if len(matches) == 0 {
		t.Fatal("expected a per-run log file to be created")
	}
}

func TestDaemonCommandVersion(t *testing.T) {
	var out bytes.Buffer
	cmd := newDaemonCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--version"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out.String(), updates.Version) {
		t.Fatalf("expected version output to contain %q, got %q", updates.Version, out.String())
	}
}
