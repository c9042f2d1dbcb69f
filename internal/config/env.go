package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// environment lists the variables that may supply or override file settings.
// Secrets only fill blanks; operational knobs override the file.
type environment struct {
	YouTubeAPIKey string `env:"YOUTUBE_API_KEY"`
	RefreshToken  string `env:"REFRESH_TOKEN"`
	DashboardURL  string `env:"TUBEPULSE_DASHBOARD_URL"`
	BaseURL       string `env:"BASE_URL"`
	LogLevel      string `env:"TUBEPULSE_LOG_LEVEL"`
	Bind          string `env:"TUBEPULSE_BIND"`
	DataDir       string `env:"TUBEPULSE_DATA_DIR"`
}

func (c *Config) applyEnv() error {
	var raw environment
	if err := env.Parse(&raw); err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}

	if strings.TrimSpace(c.YouTube.APIKey) == "" {
		c.YouTube.APIKey = raw.YouTubeAPIKey
	}
	if strings.TrimSpace(c.Web.RefreshToken) == "" {
		c.Web.RefreshToken = raw.RefreshToken
	}
	if value := strings.TrimSpace(raw.DashboardURL); value != "" {
		c.Web.DashboardURL = value
	} else if strings.TrimSpace(c.Web.DashboardURL) == "" {
		c.Web.DashboardURL = raw.BaseURL
	}
	if value := strings.TrimSpace(raw.LogLevel); value != "" {
		c.Logging.Level = value
	}
	if value := strings.TrimSpace(raw.Bind); value != "" {
		c.Web.Bind = value
	}
	if value := strings.TrimSpace(raw.DataDir); value != "" {
		c.Paths.DataDir = value
	}
	return nil
}
