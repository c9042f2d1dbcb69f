// Package sources loads the discovery source lists (channels, keyword
// groups, tracked videos) from JSON or YAML files and converts the CSV
// inputs operators maintain by hand into those lists.
package sources

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"tubepulse/internal/config"
	"tubepulse/internal/fileutil"
	"tubepulse/internal/logging"
	"tubepulse/internal/textutil"
)

// Keys used for list entries that do not name one.
const (
	defaultChannelKey = "channel"
	defaultKeywordKey = "keyword"
)

// Channel is a discovery source that contributes its most recent uploads.
type Channel struct {
	Key       string `json:"key" yaml:"key"`
	ChannelID string `json:"channel_id" yaml:"channel_id"`
	Label     string `json:"label" yaml:"label"`
	Group     string `json:"group" yaml:"group"`
}

// Keyword is a discovery source that contributes recent search hits for
// each of its queries.
type Keyword struct {
	Key     string   `json:"key" yaml:"key"`
	Label   string   `json:"label" yaml:"label"`
	Group   string   `json:"group" yaml:"group"`
	Queries []string `json:"queries" yaml:"queries"`
}

// DisplayLabel returns the label, falling back to a humanized key.
func (c Channel) DisplayLabel() string {
	if strings.TrimSpace(c.Label) != "" {
		return c.Label
	}
	return textutil.HumanizeKey(c.Key)
}

// DisplayLabel returns the label, falling back to a humanized key.
func (k Keyword) DisplayLabel() string {
	if strings.TrimSpace(k.Label) != "" {
		return k.Label
	}
	return textutil.HumanizeKey(k.Key)
}

// LoadChannels reads the channel list. A missing or malformed file yields
// an empty list. Entries without a key use "channel"; entries without a
// channel ID are logged and dropped.
func LoadChannels(path string, logger *slog.Logger) []Channel {
	var channels []Channel
	if !loadList(path, &channels, logger) {
		return nil
	}
	out := channels[:0]
	for _, ch := range channels {
		ch.Key = strings.TrimSpace(ch.Key)
		ch.ChannelID = strings.TrimSpace(ch.ChannelID)
		if ch.Key == "" {
			ch.Key = defaultChannelKey
		}
		if ch.ChannelID == "" {
			warnDropped(logger, path, ch.Key, "channel_id is empty")
			continue
		}
		out = append(out, ch)
	}
	return out
}

// LoadKeywords reads the keyword group list. A missing or malformed file
// yields an empty list. Groups without a key use "keyword"; groups without
// queries are logged and dropped.
func LoadKeywords(path string, logger *slog.Logger) []Keyword {
	var keywords []Keyword
	if !loadList(path, &keywords, logger) {
		return nil
	}
	out := keywords[:0]
	for _, kw := range keywords {
		kw.Key = strings.TrimSpace(kw.Key)
		kw.Queries = cleanQueries(kw.Queries)
		if kw.Key == "" {
			kw.Key = defaultKeywordKey
		}
		if len(kw.Queries) == 0 {
			warnDropped(logger, path, kw.Key, "no queries")
			continue
		}
		out = append(out, kw)
	}
	return out
}

// Tracked merges the inline [[tracked]] entries with the optional tracked
// list file. Inline entries win on key collisions.
func Tracked(cfg *config.Config, logger *slog.Logger) []config.TrackedVideo {
	out := make([]config.TrackedVideo, 0, len(cfg.Tracked))
	seen := make(map[string]struct{}, len(cfg.Tracked))
	for _, tv := range cfg.Tracked {
		seen[tv.Key] = struct{}{}
		out = append(out, tv)
	}
	if strings.TrimSpace(cfg.Sources.TrackedPath) == "" {
		return out
	}
	var fromFile []config.TrackedVideo
	if !loadList(cfg.Sources.TrackedPath, &fromFile, logger) {
		return out
	}
	for _, tv := range fromFile {
		tv.VideoID = strings.TrimSpace(tv.VideoID)
		tv.Key = strings.TrimSpace(tv.Key)
		if tv.VideoID == "" {
			continue
		}
		if tv.Key == "" {
			tv.Key = tv.VideoID
		}
		if _, dup := seen[tv.Key]; dup {
			continue
		}
		seen[tv.Key] = struct{}{}
		out = append(out, tv)
	}
	return out
}

// WriteJSON persists a source list atomically as indented JSON.
func WriteJSON(path string, v any) error {
	if err := fileutil.WriteJSONAtomic(path, v); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func loadList(path string, target any, logger *slog.Logger) bool {
	logger = logging.NewComponentLogger(logger, "sources")
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Debug("source list not found", logging.String("path", path))
			return false
		}
		warnUnreadable(logger, path, err)
		return false
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, target)
	default:
		err = json.Unmarshal(data, target)
	}
	if err != nil {
		warnUnreadable(logger, path, err)
		return false
	}
	return true
}

func warnDropped(logger *slog.Logger, path, key, reason string) {
	logging.WarnWithContext(logging.NewComponentLogger(logger, "sources"), "source entry dropped", "source_entry_dropped",
		logging.String("path", path),
		logging.String("key", key),
		logging.String("reason", reason),
		logging.String(logging.FieldErrorHint, "fix or remove the entry in the source list"),
		logging.String(logging.FieldImpact, "the entry contributes no videos"))
}

func warnUnreadable(logger *slog.Logger, path string, err error) {
	logging.WarnWithContext(logger, "source list unreadable; using empty list", "sources_load_failed",
		logging.String("path", path),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "fix the file or regenerate it with 'tubepulse sources import'"),
		logging.String(logging.FieldImpact, "no videos are discovered from this list"))
}

func cleanQueries(queries []string) []string {
	out := make([]string, 0, len(queries))
	for _, q := range queries {
		if q = strings.TrimSpace(q); q != "" {
			out = append(out, q)
		}
	}
	return out
}
