// Package builder assembles a fresh snapshot from an external statistics
// source. Three builders exist: a fixed tracking list, manual console entry,
// and channel/keyword discovery.
package builder

import (
	"context"
	"errors"
	"log/slog"

	"tubepulse/internal/logging"
	"tubepulse/internal/services"
	"tubepulse/internal/snapshot"
	"tubepulse/internal/youtube"
)

// StatsSource is the statistics collaborator builders depend on.
// *youtube.Client satisfies it.
type StatsSource interface {
	VideoStats(ctx context.Context, ids []string) (map[string]youtube.VideoStats, error)
	ChannelUploads(ctx context.Context, channelID string, limit int) ([]string, error)
	SearchVideos(ctx context.Context, query string, limit int) ([]string, error)
}

// Builder produces a raw current snapshot with no delta annotations.
type Builder interface {
	Name() string
	Build(ctx context.Context) (*snapshot.Snapshot, error)
}

var _ StatsSource = (*youtube.Client)(nil)

func requireSource(source StatsSource, name string) error {
	if source == nil {
		return services.Wrap(services.ErrConfiguration, "builder", name,
			"youtube.api_key is not set (configure it or export YOUTUBE_API_KEY)", nil)
	}
	return nil
}

// fatal reports whether err must abort the build instead of skipping the
// failing sub-source.
func fatal(ctx context.Context, err error) bool {
	return ctx.Err() != nil || errors.Is(err, services.ErrConfiguration)
}

// fetchStats fetches statistics for ids, logging and tolerating failures
// other than configuration errors and cancellation.
func fetchStats(ctx context.Context, source StatsSource, ids []string, logger *slog.Logger) (map[string]youtube.VideoStats, error) {
	if len(ids) == 0 {
		return map[string]youtube.VideoStats{}, nil
	}
	stats, err := source.VideoStats(ctx, ids)
	if err != nil {
		if fatal(ctx, err) {
			return nil, abortErr(ctx, err)
		}
		logging.WarnWithContext(logger, "video statistics unavailable", "stats_fetch_failed",
			logging.Int("video_count", len(ids)),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check API quota and network connectivity"),
			logging.String(logging.FieldImpact, "affected videos are missing from this snapshot"))
	}
	if stats == nil {
		stats = map[string]youtube.VideoStats{}
	}
	return stats, nil
}
