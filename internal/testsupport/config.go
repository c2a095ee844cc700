package testsupport

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"marquee/internal/config"
)

// ConfigOption customizes the generated test configuration file.
type ConfigOption func(map[string]string)

// WithSetting overrides a single key in the generated file. An empty value
// removes the key so the loader falls back to its default.
func WithSetting(key, value string) ConfigOption {
	return func(settings map[string]string) {
		if value == "" {
			delete(settings, key)
			return
		}
		settings[key] = value
	}
}

// NewConfig writes a minimal configuration file under the test temp dir and
// loads it, so derived fields are populated exactly as they are for real
// configs. Environment fallbacks are pinned to keep host variables out.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	t.Setenv("JELLYFIN_API_KEY", "")
	t.Setenv("TMDB_API_KEY", "")
	t.Setenv("MARQUEE_CONFIG", "")

	base := t.TempDir()
	settings := map[string]string{
		"JELLYFIN_HOST":     "http://127.0.0.1:8096",
		"JELLYFIN_API_KEY":  "test-key",
		"JELLYFIN_USERNAME": "alice",
		"LOG_DIR":           filepath.Join(base, "logs"),
	}
	for _, opt := range opts {
		opt(settings)
	}

	keys := make([]string, 0, len(settings))
	for key := range settings {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var builder strings.Builder
	for _, key := range keys {
		fmt.Fprintf(&builder, "%s = %s\n", key, settings[key])
	}

	path := filepath.Join(base, "config.ini")
	if err := os.WriteFile(path, []byte(builder.String()), 0o644); err != nil {
		t.Fatalf("write config %s: %v", path, err)
	}

	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return cfg
}
