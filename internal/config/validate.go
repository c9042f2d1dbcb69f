package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable. The YouTube API key is checked
// by the commands that call the API, not here.
func (c *Config) Validate() error {
	if err := c.validateYouTube(); err != nil {
		return err
	}
	if err := c.validateStorage(); err != nil {
		return err
	}
	if err := c.validateTracked(); err != nil {
		return err
	}
	if err := c.validateGuard(); err != nil {
		return err
	}
	if err := c.validateRanking(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateYouTube() error {
	if c.YouTube.RequestsPerSecond <= 0 {
		return errors.New("youtube.requests_per_second must be positive")
	}
	return ensurePositiveMap(map[string]int{
		"youtube.timeout_seconds": c.YouTube.TimeoutSeconds,
		"youtube.max_per_channel": c.YouTube.MaxPerChannel,
		"youtube.max_per_keyword": c.YouTube.MaxPerKeyword,
	})
}

func (c *Config) validateStorage() error {
	switch c.Storage.Backend {
	case BackendJSON, BackendSQLite:
		return nil
	default:
		return fmt.Errorf("storage.backend must be %q or %q, got %q", BackendJSON, BackendSQLite, c.Storage.Backend)
	}
}

func (c *Config) validateTracked() error {
	seen := make(map[string]struct{}, len(c.Tracked))
	for i, tracked := range c.Tracked {
		if tracked.VideoID == "" {
			return fmt.Errorf("tracked[%d].video_id must be set", i)
		}
		if _, dup := seen[tracked.Key]; dup {
			return fmt.Errorf("tracked[%d].key %q is duplicated", i, tracked.Key)
		}
		seen[tracked.Key] = struct{}{}
	}
	return nil
}

func (c *Config) validateGuard() error {
	for name, value := range map[string]string{
		"guard.interactive": c.Guard.Interactive,
		"guard.scheduled":   c.Guard.Scheduled,
	} {
		d, err := parseInterval(value)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		if d < 0 {
			return fmt.Errorf("%s must not be negative", name)
		}
	}
	return nil
}

func (c *Config) validateRanking() error {
	if c.Ranking.MinViews < 0 {
		return errors.New("ranking.min_views must not be negative")
	}
	if c.Ranking.TopN <= 0 {
		return errors.New("ranking.top_n must be positive")
	}
	switch c.Ranking.DefaultMetric {
	case "views", "views_delta", "views_delta_pct":
	default:
		return fmt.Errorf("ranking.default_metric must be views, views_delta, or views_delta_pct, got %q", c.Ranking.DefaultMetric)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
