package builder

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"tubepulse/internal/config"
	"tubepulse/internal/logging"
	"tubepulse/internal/snapshot"
	"tubepulse/internal/textutil"
)

// Fixed builds a snapshot from the configured tracking list.
type Fixed struct {
	source  StatsSource
	tracked []config.TrackedVideo
	logger  *slog.Logger
}

// NewFixed returns a builder for the tracked videos.
func NewFixed(source StatsSource, tracked []config.TrackedVideo, logger *slog.Logger) *Fixed {
	return &Fixed{
		source:  source,
		tracked: tracked,
		logger:  logging.NewComponentLogger(logger, "builder"),
	}
}

// Name identifies the builder in logs and menus.
func (f *Fixed) Name() string { return "fixed" }

// Build fetches statistics for every tracked video. Videos the source has
// no statistics for are left out.
func (f *Fixed) Build(ctx context.Context) (*snapshot.Snapshot, error) {
	if err := requireSource(f.source, f.Name()); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(f.tracked))
	for _, tv := range f.tracked {
		ids = append(ids, tv.VideoID)
	}
	stats, err := fetchStats(ctx, f.source, ids, f.logger)
	if err != nil {
		return nil, err
	}

	snap := snapshot.New(time.Now())
	for _, tv := range f.tracked {
		s, ok := stats[tv.VideoID]
		if !ok {
			f.logger.Debug("no statistics for tracked video",
				logging.String("key", tv.Key),
				logging.String("video_id", tv.VideoID))
			continue
		}
		label := strings.TrimSpace(tv.Label)
		if label == "" {
			label = textutil.Label(s.ChannelTitle, s.Title)
		}
		channel := s.ChannelTitle
		if strings.TrimSpace(channel) == "" {
			channel = tv.ChannelName
		}
		snap.Put(tv.Key, &snapshot.Entity{
			ChannelName: channel,
			VideoID:     tv.VideoID,
			Views:       s.Views,
			Likes:       s.Likes,
			Comments:    s.Comments,
			Label:       label,
		})
	}

	f.logger.Info("fixed list snapshot built",
		logging.Int("tracked", len(f.tracked)),
		logging.Int("entities", snap.Len()))
	return snap, nil
}
