package config

const (
	defaultLanguage         = "E"
	defaultQuality          = 720
	defaultBaseURL          = "https://data.jw-api.org/mediator/v1"
	defaultUserAgent        = "jwb-index/dev"
	defaultTimeoutSeconds   = 30
	defaultCacheTTLSeconds  = 300
	defaultDownloadDir      = "~/.local/share/jwb-index/media"
	defaultOutputDir        = "~/.local/share/jwb-index/index"
	defaultHistoryDB        = "~/.local/share/jwb-index/history.db"
	defaultLogDir           = "~/.local/share/jwb-index/logs"
	defaultKeepFreeMiB      = 1024
	defaultOutputMode       = "m3u"
	defaultServerBind       = "127.0.0.1:7488"
	defaultRefreshMinutes   = 60
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultRetentionDays    = 14
	minDateLayout           = "2006-01-02"
	defaultSeedCategory     = "VideoOnDemand"
	defaultExcludedCategory = "VODSJJMeetings"
)

// OutputModes lists the index writer modes accepted by output.mode.
var OutputModes = []string{"txt", "m3u", "html", "filesystem", "json"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Crawl: Crawl{
			Categories: []string{defaultSeedCategory},
			Exclude:    []string{defaultExcludedCategory},
			Language:   defaultLanguage,
			Quality:    defaultQuality,
		},
		API: API{
			BaseURL:         defaultBaseURL,
			UserAgent:       defaultUserAgent,
			TimeoutSeconds:  defaultTimeoutSeconds,
			CacheTTLSeconds: defaultCacheTTLSeconds,
		},
		Paths: Paths{
			DownloadDir: defaultDownloadDir,
			OutputDir:   defaultOutputDir,
			HistoryDB:   defaultHistoryDB,
			LogDir:      defaultLogDir,
		},
		Download: Download{
			Subtitles:   false,
			Checksums:   true,
			KeepFreeMiB: defaultKeepFreeMiB,
		},
		Output: Output{
			Mode: defaultOutputMode,
		},
		Server: Server{
			Bind:           defaultServerBind,
			RefreshMinutes: defaultRefreshMinutes,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultRetentionDays,
		},
	}
}
