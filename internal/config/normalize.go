package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeYouTube()
	if err := c.normalizeStorage(); err != nil {
		return err
	}
	if err := c.normalizeSources(); err != nil {
		return err
	}
	c.normalizeTracked()
	c.normalizeRanking()
	c.normalizeWeb()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(strings.TrimSpace(c.Paths.DataDir)); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeYouTube() {
	c.YouTube.APIKey = strings.TrimSpace(c.YouTube.APIKey)
	c.YouTube.BaseURL = strings.TrimSpace(c.YouTube.BaseURL)
	if c.YouTube.BaseURL == "" {
		c.YouTube.BaseURL = defaultYouTubeBaseURL
	}
	if !strings.HasSuffix(c.YouTube.BaseURL, "/") {
		c.YouTube.BaseURL += "/"
	}
	if c.YouTube.RequestsPerSecond <= 0 {
		c.YouTube.RequestsPerSecond = defaultRequestsPerSecond
	}
	if c.YouTube.TimeoutSeconds <= 0 {
		c.YouTube.TimeoutSeconds = defaultTimeoutSeconds
	}
	if c.YouTube.MaxPerChannel <= 0 {
		c.YouTube.MaxPerChannel = defaultMaxPerChannel
	}
	if c.YouTube.MaxPerKeyword <= 0 {
		c.YouTube.MaxPerKeyword = defaultMaxPerKeyword
	}
}

func (c *Config) normalizeStorage() error {
	c.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	if c.Storage.Backend == "" {
		c.Storage.Backend = BackendJSON
	}

	fields := []struct {
		name     string
		value    *string
		fallback string
	}{
		{"storage.snapshot_path", &c.Storage.SnapshotPath, defaultSnapshotFile},
		{"storage.sqlite_path", &c.Storage.SQLitePath, defaultSQLiteFile},
		{"storage.guard_path", &c.Storage.GuardPath, defaultGuardFile},
		{"storage.lock_path", &c.Storage.LockPath, defaultLockFile},
	}
	for _, field := range fields {
		value := strings.TrimSpace(*field.value)
		if value == "" {
			value = filepath.Join(c.Paths.DataDir, field.fallback)
		}
		expanded, err := expandPath(value)
		if err != nil {
			return fmt.Errorf("%s: %w", field.name, err)
		}
		*field.value = expanded
	}
	return nil
}

func (c *Config) normalizeSources() error {
	var err error
	if c.Sources.ChannelsPath, err = expandPath(strings.TrimSpace(c.Sources.ChannelsPath)); err != nil {
		return fmt.Errorf("sources.channels_path: %w", err)
	}
	if c.Sources.KeywordsPath, err = expandPath(strings.TrimSpace(c.Sources.KeywordsPath)); err != nil {
		return fmt.Errorf("sources.keywords_path: %w", err)
	}
	if c.Sources.TrackedPath, err = expandPath(strings.TrimSpace(c.Sources.TrackedPath)); err != nil {
		return fmt.Errorf("sources.tracked_path: %w", err)
	}
	if c.Sources.ChannelsCSV, err = expandPath(strings.TrimSpace(c.Sources.ChannelsCSV)); err != nil {
		return fmt.Errorf("sources.channels_csv: %w", err)
	}
	if c.Sources.KeywordsCSV, err = expandPath(strings.TrimSpace(c.Sources.KeywordsCSV)); err != nil {
		return fmt.Errorf("sources.keywords_csv: %w", err)
	}
	return nil
}

func (c *Config) normalizeTracked() {
	for i := range c.Tracked {
		c.Tracked[i].Key = strings.TrimSpace(c.Tracked[i].Key)
		c.Tracked[i].VideoID = strings.TrimSpace(c.Tracked[i].VideoID)
		c.Tracked[i].ChannelName = strings.TrimSpace(c.Tracked[i].ChannelName)
		c.Tracked[i].Label = strings.TrimSpace(c.Tracked[i].Label)
		if c.Tracked[i].Key == "" {
			c.Tracked[i].Key = c.Tracked[i].VideoID
		}
	}
}

func (c *Config) normalizeRanking() {
	if c.Ranking.TopN == 0 {
		c.Ranking.TopN = defaultTopN
	}
	c.Ranking.DefaultMetric = strings.ToLower(strings.TrimSpace(c.Ranking.DefaultMetric))
	if c.Ranking.DefaultMetric == "" {
		c.Ranking.DefaultMetric = defaultMetric
	}
}

func (c *Config) normalizeWeb() {
	c.Web.Bind = strings.TrimSpace(c.Web.Bind)
	if c.Web.Bind == "" {
		c.Web.Bind = defaultBind
	}
	c.Web.RefreshToken = strings.TrimSpace(c.Web.RefreshToken)
	c.Web.DashboardURL = strings.TrimRight(strings.TrimSpace(c.Web.DashboardURL), "/")
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
