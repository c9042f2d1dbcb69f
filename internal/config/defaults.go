package config

const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

const (
	defaultConfigPath        = "~/.config/tubepulse/config.toml"
	defaultDataDir           = "~/.local/share/tubepulse"
	defaultLogDir            = "~/.local/share/tubepulse/logs"
	defaultChannelsPath      = "~/.config/tubepulse/channels.json"
	defaultKeywordsPath      = "~/.config/tubepulse/keywords.json"
	defaultChannelsCSV       = "channels.csv"
	defaultKeywordsCSV       = "keywords.csv"
	defaultSnapshotFile      = "youtube_metrics.json"
	defaultSQLiteFile        = "tubepulse.db"
	defaultGuardFile         = "last_refresh.json"
	defaultLockFile          = "refresh.lock"
	defaultYouTubeBaseURL    = "https://youtube.googleapis.com/"
	defaultRequestsPerSecond = 5
	defaultTimeoutSeconds    = 30
	defaultMaxPerChannel     = 5
	defaultMaxPerKeyword     = 3
	defaultInteractiveGuard  = "1m"
	defaultScheduledGuard    = "24h"
	defaultMinViews          = 25000
	defaultTopN              = 16
	defaultMetric            = "views_delta_pct"
	defaultBind              = "127.0.0.1:8080"
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
)

// Default returns a Config populated with repository defaults. Storage paths
// left blank are derived from Paths.DataDir during normalization.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		YouTube: YouTube{
			BaseURL:           defaultYouTubeBaseURL,
			RequestsPerSecond: defaultRequestsPerSecond,
			TimeoutSeconds:    defaultTimeoutSeconds,
			MaxPerChannel:     defaultMaxPerChannel,
			MaxPerKeyword:     defaultMaxPerKeyword,
		},
		Storage: Storage{
			Backend: BackendJSON,
		},
		Sources: Sources{
			ChannelsPath: defaultChannelsPath,
			KeywordsPath: defaultKeywordsPath,
			ChannelsCSV:  defaultChannelsCSV,
			KeywordsCSV:  defaultKeywordsCSV,
		},
		Guard: Guard{
			Interactive: defaultInteractiveGuard,
			Scheduled:   defaultScheduledGuard,
		},
		Ranking: Ranking{
			MinViews:      defaultMinViews,
			TopN:          defaultTopN,
			DefaultMetric: defaultMetric,
		},
		Web: Web{
			Bind: defaultBind,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
