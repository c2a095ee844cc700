package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateJellyfin(); err != nil {
		return err
	}
	if err := c.validateDiscord(); err != nil {
		return err
	}
	if err := c.validateDisplay(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return c.validateRuntime()
}

func (c *Config) validateJellyfin() error {
	hint := configHint()
	if c.Jellyfin.Host == "" {
		return fmt.Errorf("JELLYFIN_HOST is required. %s", hint)
	}
	parsed, err := url.Parse(c.Jellyfin.Host)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return fmt.Errorf("JELLYFIN_HOST must be an http(s) URL like https://jellyfin.example.com, got %q", c.Jellyfin.Host)
	}
	if c.Jellyfin.APIKey == "" {
		return fmt.Errorf("JELLYFIN_API_KEY is required (generate one under Dashboard > API Keys). %s", hint)
	}
	if c.Jellyfin.Username == "" {
		return fmt.Errorf("JELLYFIN_USERNAME is required. %s", hint)
	}
	return nil
}

func (c *Config) validateDiscord() error {
	if c.Discord.ClientID == "" {
		return errors.New("DISCORD_CLIENT_ID must not be empty")
	}
	for _, r := range c.Discord.ClientID {
		if r < '0' || r > '9' {
			return fmt.Errorf("DISCORD_CLIENT_ID must be a numeric application id, got %q", c.Discord.ClientID)
		}
	}
	return nil
}

func (c *Config) validateDisplay() error {
	if len(c.unknownMediaTypes) > 0 {
		return fmt.Errorf("MEDIA_TYPES contains unknown entries %s (valid: Movies, Shows, Music)",
			strings.Join(c.unknownMediaTypes, ", "))
	}
	if len(c.mediaTypes) == 0 {
		return errors.New("MEDIA_TYPES must enable at least one of Movies, Shows, Music")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("NTFY_REQUEST_TIMEOUT must be a positive number of seconds")
	}
	return nil
}

func (c *Config) validateRuntime() error {
	switch c.Runtime.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error; got %q", c.Runtime.LogLevel)
	}
	switch c.Runtime.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be console or json, got %q", c.Runtime.LogFormat)
	}
	if strings.TrimSpace(c.Runtime.LogDir) == "" {
		return errors.New("LOG_DIR must not be empty")
	}
	if c.Runtime.LogRetentionDays < 0 {
		return errors.New("LOG_RETENTION_DAYS must be >= 0 (0 disables pruning)")
	}
	return nil
}

func configHint() string {
	path, err := DefaultConfigPath()
	if err != nil {
		path = defaultConfigPath
	}
	return fmt.Sprintf("Edit %s (create with 'marquee config init')", path)
}
