package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/ini.v1"

	"marquee/internal/language"
)

//go:embed sample_config.ini
var sampleConfig string

// Jellyfin holds the media-server connection settings.
type Jellyfin struct {
	Host     string `ini:"JELLYFIN_HOST"`
	APIKey   string `ini:"JELLYFIN_API_KEY"`
	Username string `ini:"JELLYFIN_USERNAME"`
}

// Discord holds the rich-presence application settings.
type Discord struct {
	ClientID string `ini:"DISCORD_CLIENT_ID"`
}

// Artwork holds the poster/cover lookup settings.
type Artwork struct {
	TMDBAPIKey       string `ini:"TMDB_API_KEY"`
	PosterLanguages  string `ini:"POSTER_LANGUAGES"`
	SeasonOverSeries bool   `ini:"SEASON_OVER_SERIES"`
	ReleaseOverGroup bool   `ini:"RELEASE_OVER_GROUP"`
	FindBestMatch    bool   `ini:"FIND_BEST_MATCH"`

	// Languages is PosterLanguages parsed and canonicalized by normalize.
	Languages language.Preferences `ini:"-"`
}

// Display holds the presence display toggles.
type Display struct {
	MediaTypes       string `ini:"MEDIA_TYPES"`
	ShowWhenPaused   bool   `ini:"SHOW_WHEN_PAUSED"`
	ShowServerName   bool   `ini:"SHOW_SERVER_NAME"`
	ShowJellyfinIcon bool   `ini:"SHOW_JELLYFIN_ICON"`
}

// Notifications holds optional ntfy publishing settings.
type Notifications struct {
	NtfyTopic      string `ini:"NTFY_TOPIC"`
	RequestTimeout int    `ini:"NTFY_REQUEST_TIMEOUT"`
}

// Runtime holds daemon runtime settings.
type Runtime struct {
	RefreshRate      int    `ini:"REFRESH_RATE"`
	LogLevel         string `ini:"LOG_LEVEL"`
	LogFormat        string `ini:"LOG_FORMAT"`
	LogDir           string `ini:"LOG_DIR"`
	LogRetentionDays int    `ini:"LOG_RETENTION_DAYS"`
	CheckForUpdates  bool   `ini:"CHECK_FOR_UPDATES"`
}

// Config is the full Marquee configuration. The file format is a single
// DEFAULT-section INI; the groups below partition the flat key space.
type Config struct {
	Jellyfin      Jellyfin
	Discord       Discord
	Artwork       Artwork
	Display       Display
	Notifications Notifications
	Runtime       Runtime

	mediaTypes        map[string]bool
	unknownMediaTypes []string
	warnings          []string
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned
// config has paths expanded and derived fields populated.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		if err := cfg.decode(resolvedPath); err != nil {
			return nil, "", false, err
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func (c *Config) decode(path string) error {
	file, err := ini.Load(path)
	if err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	section := file.Section(ini.DefaultSection)

	// Legacy aliases accepted by the original option names; the canonical
	// key wins when both are present.
	if !section.HasKey("JELLYFIN_API_KEY") && section.HasKey("API_TOKEN") {
		section.Key("JELLYFIN_API_KEY").SetValue(section.Key("API_TOKEN").String())
	}
	if !section.HasKey("JELLYFIN_USERNAME") && section.HasKey("USERNAME") {
		section.Key("JELLYFIN_USERNAME").SetValue(section.Key("USERNAME").String())
	}

	for _, group := range []any{
		&c.Jellyfin,
		&c.Discord,
		&c.Artwork,
		&c.Display,
		&c.Notifications,
		&c.Runtime,
	} {
		if err := section.MapTo(group); err != nil {
			return fmt.Errorf("parse config: %w", err)
		}
	}
	return nil
}

// resolveConfigPath picks the config file location: explicit path, then the
// MARQUEE_CONFIG environment variable, then the default location.
func resolveConfigPath(path string) (string, bool, error) {
	if path == "" {
		path = strings.TrimSpace(os.Getenv("MARQUEE_CONFIG"))
	}
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("marquee.ini")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	if strings.TrimSpace(c.Runtime.LogDir) == "" {
		return nil
	}
	if err := os.MkdirAll(c.Runtime.LogDir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", c.Runtime.LogDir, err)
	}
	return nil
}

// RefreshInterval returns the polling period.
func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.Runtime.RefreshRate) * time.Second
}

// MediaTypeEnabled reports whether the given Jellyfin item type should be
// mirrored, per the MEDIA_TYPES setting.
func (c *Config) MediaTypeEnabled(itemType string) bool {
	return c.mediaTypes[strings.ToLower(strings.TrimSpace(itemType))]
}

// TMDBEnabled reports whether movie/show artwork lookups are configured.
func (c *Config) TMDBEnabled() bool {
	return strings.TrimSpace(c.Artwork.TMDBAPIKey) != ""
}

// Warnings returns non-fatal notes collected while normalizing, for the
// caller to log once a logger exists.
func (c *Config) Warnings() []string {
	return c.warnings
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
// It refuses to overwrite an existing file.
func CreateSample(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat config: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
