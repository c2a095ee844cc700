package config

const (
	defaultConfigPath       = "~/.config/marquee/config.ini"
	defaultLogDir           = "~/.local/share/marquee/logs"
	defaultLogLevel         = "info"
	defaultLogFormat        = "console"
	defaultLogRetentionDays = 30
	defaultRefreshRate      = 5
	defaultMediaTypes       = "Movies, Shows, Music"
	defaultNtfyTimeout      = 10

	// Published application id for the Discord developer-portal entry whose
	// assets back the presence; override to use a self-registered app.
	defaultDiscordClientID = "1238889120672120853"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Discord: Discord{
			ClientID: defaultDiscordClientID,
		},
		Artwork: Artwork{
			SeasonOverSeries: true,
			ReleaseOverGroup: true,
			FindBestMatch:    true,
		},
		Display: Display{
			MediaTypes:     defaultMediaTypes,
			ShowWhenPaused: true,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNtfyTimeout,
		},
		Runtime: Runtime{
			RefreshRate:      defaultRefreshRate,
			LogLevel:         defaultLogLevel,
			LogFormat:        defaultLogFormat,
			LogDir:           defaultLogDir,
			LogRetentionDays: defaultLogRetentionDays,
			CheckForUpdates:  true,
		},
	}
}
