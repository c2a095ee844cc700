package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"marquee/internal/updates"
)

func TestConfigShowRedactsSecrets(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "show"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "Config path: "+env.configPath)
	requireContains(t, out, "JELLYFIN_HOST")
	requireContains(t, out, "http://127.0.0.1:8096")
	if strings.Contains(out, "test-key") {
		t.Fatalf("expected API key to be redacted, got:\n%s", out)
	}
	requireContains(t, out, "(set)")
	requireContains(t, out, "(not set)")
}

func TestConfigInit(t *testing.T) {
	env := setupCLITestEnv(t)

	target := filepath.Join(env.baseDir, "fresh", "config.ini")
	out, _, err := runCLI(t, []string{"config", "init", "--path", target}, env.socketPath, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration to "+target)

	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	_, _, err = runCLI(t, []string{"config", "init", "--path", target}, env.socketPath, "")
	if err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("expected already-exists error, got %v", err)
	}

	out, _, err = runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, env.socketPath, "")
	if err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
}

func TestConfigValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Config path: "+env.configPath)
	requireContains(t, out, "Configuration valid")
}

func TestConfigValidateRejectsMissingHost(t *testing.T) {
	env := setupCLITestEnv(t)

	path := filepath.Join(env.baseDir, "broken.ini")
	content := "JELLYFIN_API_KEY = key\nJELLYFIN_USERNAME = alice\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	_, _, err := runCLI(t, []string{"config", "validate"}, env.socketPath, path)
	if err == nil || !strings.Contains(err.Error(), "JELLYFIN_HOST") {
		t.Fatalf("expected JELLYFIN_HOST error, got %v", err)
	}
}

func TestVersionCommand(t *testing.T) {
	out, _, err := runCLI(t, []string{"version"}, "unused.sock", "")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	requireContains(t, out, "marquee "+updates.Version)
	requireContains(t, out, updates.ProjectURL)
}
