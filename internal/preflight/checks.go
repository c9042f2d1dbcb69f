package preflight

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"tubepulse/internal/config"
	"tubepulse/internal/services"
	"tubepulse/internal/sources"
	"tubepulse/internal/store"
	"tubepulse/internal/youtube"
)

// probeVideoID is a long-lived public video used to validate the API key.
// A videos.list call costs one quota unit.
const probeVideoID = "dQw4w9WgXcQ"

// CheckYouTube verifies that the API key is set and accepted.
func CheckYouTube(ctx context.Context, cfg *config.Config, logger *slog.Logger) Result {
	const name = "YouTube API"

	if strings.TrimSpace(cfg.YouTube.APIKey) == "" {
		return Result{Name: name, Detail: "API key missing (set youtube.api_key or YOUTUBE_API_KEY)"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	client, err := youtube.New(checkCtx, youtube.Options{
		APIKey:            cfg.YouTube.APIKey,
		BaseURL:           cfg.YouTube.BaseURL,
		RequestsPerSecond: cfg.YouTube.RequestsPerSecond,
		Timeout:           cfg.RequestTimeout(),
	}, logger)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("client init failed (%v)", err)}
	}
	if _, err := client.VideoStats(checkCtx, []string{probeVideoID}); err != nil {
		switch {
		case errors.Is(err, services.ErrConfiguration):
			return Result{Name: name, Detail: "auth failed (invalid or restricted api key)"}
		case errors.Is(err, services.ErrTransient):
			return Result{Name: name, Detail: fmt.Sprintf("request failed (%v)", err)}
		default:
			return Result{Name: name, Detail: fmt.Sprintf("check failed (%v)", err)}
		}
	}
	return Result{Name: name, Passed: true, Detail: "API reachable"}
}

// CheckRefreshToken reports whether the remote refresh endpoint is armed.
func CheckRefreshToken(token string) Result {
	const name = "Refresh token"
	if strings.TrimSpace(token) == "" {
		return Result{Name: name, Detail: "not set (remote refresh returns 500)"}
	}
	return Result{Name: name, Passed: true, Detail: "configured"}
}

// CheckSources verifies that at least one builder has something to fetch.
func CheckSources(cfg *config.Config, logger *slog.Logger) Result {
	const name = "Sources"

	channels := sources.LoadChannels(cfg.Sources.ChannelsPath, logger)
	keywords := sources.LoadKeywords(cfg.Sources.KeywordsPath, logger)
	tracked := sources.Tracked(cfg, logger)
	detail := fmt.Sprintf("%d channels, %d keyword groups, %d tracked videos", len(channels), len(keywords), len(tracked))
	if len(channels)+len(keywords)+len(tracked) == 0 {
		return Result{Name: name, Detail: detail + " (nothing to refresh)"}
	}
	return Result{Name: name, Passed: true, Detail: detail}
}

// CheckSnapshot opens the configured store and reports the persisted
// snapshot. A missing snapshot passes; a store that cannot be opened fails.
func CheckSnapshot(ctx context.Context, cfg *config.Config, logger *slog.Logger) Result {
	const name = "Snapshot store"

	st, err := store.Open(cfg, logger)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("open failed (%v)", err)}
	}
	defer st.Close()

	snap, err := st.Load(ctx)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", st.Location(), err)}
	}
	if snap == nil {
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (no snapshot yet)", st.Location())}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d entities, %s)", st.Location(), snap.Len(), snap.Timestamp)}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}
