package config

import (
	"fmt"
	"os"
	"strings"

	"marquee/internal/language"
)

// mediaTypeAliases maps MEDIA_TYPES words to the Jellyfin item types the
// engine compares against.
var mediaTypeAliases = map[string]string{
	"movies": "movie",
	"movie":  "movie",
	"shows":  "episode",
	"show":   "episode",
	"music":  "audio",
}

func (c *Config) normalize() error {
	c.warnings = nil

	c.normalizeJellyfin()
	c.normalizeArtwork()
	c.normalizeDisplay()
	c.normalizeRuntime()
	c.Discord.ClientID = strings.TrimSpace(c.Discord.ClientID)
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)

	return nil
}

func (c *Config) normalizeJellyfin() {
	if c.Jellyfin.APIKey == "" {
		if value, ok := os.LookupEnv("JELLYFIN_API_KEY"); ok {
			c.Jellyfin.APIKey = value
		}
	}
	c.Jellyfin.Host = strings.TrimRight(strings.TrimSpace(c.Jellyfin.Host), "/")
	c.Jellyfin.APIKey = strings.TrimSpace(c.Jellyfin.APIKey)
	c.Jellyfin.Username = strings.TrimSpace(c.Jellyfin.Username)
}

func (c *Config) normalizeArtwork() {
	if c.Artwork.TMDBAPIKey == "" {
		if value, ok := os.LookupEnv("TMDB_API_KEY"); ok {
			c.Artwork.TMDBAPIKey = value
		}
	}
	c.Artwork.TMDBAPIKey = strings.TrimSpace(c.Artwork.TMDBAPIKey)

	prefs, dropped := language.ParsePreferences(c.Artwork.PosterLanguages)
	c.Artwork.Languages = prefs
	for _, token := range dropped {
		c.warnings = append(c.warnings,
			fmt.Sprintf("POSTER_LANGUAGES entry %q is not a language code; ignoring it", token))
	}
}

func (c *Config) normalizeDisplay() {
	c.mediaTypes = make(map[string]bool, 3)
	c.unknownMediaTypes = nil

	for _, token := range strings.Split(c.Display.MediaTypes, ",") {
		word := strings.ToLower(strings.TrimSpace(token))
		if word == "" {
			continue
		}
		itemType, ok := mediaTypeAliases[word]
		if !ok {
			c.unknownMediaTypes = append(c.unknownMediaTypes, strings.TrimSpace(token))
			continue
		}
		c.mediaTypes[itemType] = true
	}
}

func (c *Config) normalizeRuntime() {
	if c.Runtime.RefreshRate < 1 {
		c.Runtime.RefreshRate = 1
	}
	c.Runtime.LogLevel = strings.ToLower(strings.TrimSpace(c.Runtime.LogLevel))
	c.Runtime.LogFormat = strings.ToLower(strings.TrimSpace(c.Runtime.LogFormat))
	if c.Runtime.LogLevel == "" {
		c.Runtime.LogLevel = defaultLogLevel
	}
	if c.Runtime.LogFormat == "" {
		c.Runtime.LogFormat = defaultLogFormat
	}

	if expanded, err := expandPath(c.Runtime.LogDir); err == nil {
		c.Runtime.LogDir = expanded
	}
}
