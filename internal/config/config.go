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

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains base directories.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
}

// YouTube contains configuration for the YouTube Data API client.
type YouTube struct {
	APIKey            string  `toml:"api_key"`
	BaseURL           string  `toml:"base_url"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	TimeoutSeconds    int     `toml:"timeout_seconds"`
	MaxPerChannel     int     `toml:"max_per_channel"`
	MaxPerKeyword     int     `toml:"max_per_keyword"`
}

// Storage contains snapshot persistence settings.
type Storage struct {
	Backend      string `toml:"backend"` // json or sqlite
	SnapshotPath string `toml:"snapshot_path"`
	SQLitePath   string `toml:"sqlite_path"`
	GuardPath    string `toml:"guard_path"`
	LockPath     string `toml:"lock_path"`
}

// Sources points at the discovery source lists and their CSV inputs.
type Sources struct {
	ChannelsPath string `toml:"channels_path"`
	KeywordsPath string `toml:"keywords_path"`
	TrackedPath  string `toml:"tracked_path"`
	ChannelsCSV  string `toml:"channels_csv"`
	KeywordsCSV  string `toml:"keywords_csv"`
}

// TrackedVideo is one entry of the fixed tracking list.
type TrackedVideo struct {
	Key         string `toml:"key" json:"key" yaml:"key"`
	VideoID     string `toml:"video_id" json:"video_id" yaml:"video_id"`
	ChannelName string `toml:"channel_name" json:"channel_name" yaml:"channel_name"`
	Label       string `toml:"label" json:"label,omitempty" yaml:"label,omitempty"`
}

// Guard contains the minimum intervals between refresh runs, as Go durations.
type Guard struct {
	Interactive string `toml:"interactive"`
	Scheduled   string `toml:"scheduled"`
}

// Ranking contains display filtering defaults.
type Ranking struct {
	MinViews      int64  `toml:"min_views"`
	TopN          int    `toml:"top_n"`
	DefaultMetric string `toml:"default_metric"`
}

// Web contains dashboard server and remote trigger settings.
type Web struct {
	Bind         string `toml:"bind"`
	RefreshToken string `toml:"refresh_token"`
	DashboardURL string `toml:"dashboard_url"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for tubepulse.
//
// Configuration sections by subsystem:
//   - Paths: data and log directories
//   - YouTube: API credentials, rate limit, discovery fan-out
//   - Storage: snapshot backend and file locations
//   - Sources: channel/keyword/tracked lists and CSV inputs
//   - Tracked: inline fixed tracking list
//   - Guard: refresh rate-limit intervals
//   - Ranking: display threshold and list size
//   - Web: dashboard bind address and refresh secret
//   - Logging: log format and level
type Config struct {
	Paths   Paths          `toml:"paths"`
	YouTube YouTube        `toml:"youtube"`
	Storage Storage        `toml:"storage"`
	Sources Sources        `toml:"sources"`
	Tracked []TrackedVideo `toml:"tracked"`
	Guard   Guard          `toml:"guard"`
	Ranking Ranking        `toml:"ranking"`
	Web     Web            `toml:"web"`
	Logging Logging        `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
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

	projectPath, err := filepath.Abs("tubepulse.toml")
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

// EnsureDirectories creates the directories that hold snapshots, guard state, and logs.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Paths.DataDir,
		c.Paths.LogDir,
		filepath.Dir(c.Storage.SnapshotPath),
		filepath.Dir(c.Storage.GuardPath),
		filepath.Dir(c.Storage.LockPath),
	}
	if c.Storage.Backend == BackendSQLite {
		dirs = append(dirs, filepath.Dir(c.Storage.SQLitePath))
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// InteractiveInterval is the guard interval applied to CLI discovery runs.
func (c *Config) InteractiveInterval() time.Duration {
	d, _ := parseInterval(c.Guard.Interactive)
	return d
}

// ScheduledInterval is the guard interval applied to remote refresh triggers.
func (c *Config) ScheduledInterval() time.Duration {
	d, _ := parseInterval(c.Guard.Scheduled)
	return d
}

// RequestTimeout returns the per-request YouTube API timeout.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.YouTube.TimeoutSeconds) * time.Second
}

func parseInterval(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" || value == "0" {
		return 0, nil
	}
	return time.ParseDuration(value)
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
func CreateSample(path string) error {
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
