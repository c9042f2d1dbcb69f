package builder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"tubepulse/internal/logging"
	"tubepulse/internal/snapshot"
	"tubepulse/internal/sources"
	"tubepulse/internal/textutil"
)

// Source types used as entity key prefixes.
const (
	SourceChannel = "channel"
	SourceKeyword = "keyword"
)

// DiscoveryOptions lists the discovery sources and per-source fan-out.
type DiscoveryOptions struct {
	Channels      []sources.Channel
	Keywords      []sources.Keyword
	MaxPerChannel int
	MaxPerKeyword int
}

// Discovery builds a snapshot from recent channel uploads and keyword
// search hits.
type Discovery struct {
	source StatsSource
	opts   DiscoveryOptions
	logger *slog.Logger
}

type discovered struct {
	videoID     string
	sourceType  string
	sourceKey   string
	sourceLabel string
}

// NewDiscovery returns a discovery builder. Non-positive fan-out limits fall
// back to 5 uploads per channel and 3 hits per query.
func NewDiscovery(source StatsSource, opts DiscoveryOptions, logger *slog.Logger) *Discovery {
	if opts.MaxPerChannel <= 0 {
		opts.MaxPerChannel = 5
	}
	if opts.MaxPerKeyword <= 0 {
		opts.MaxPerKeyword = 3
	}
	return &Discovery{
		source: source,
		opts:   opts,
		logger: logging.NewComponentLogger(logger, "builder"),
	}
}

// Name identifies the builder in logs and menus.
func (d *Discovery) Name() string { return "discovery" }

// Build walks every channel then every keyword query, keeping the first
// source each video was discovered through, and fetches statistics for all
// unique videos in one batched call. A failing channel or query is logged
// and skipped.
func (d *Discovery) Build(ctx context.Context) (*snapshot.Snapshot, error) {
	if err := requireSource(d.source, d.Name()); err != nil {
		return nil, err
	}

	var (
		found []discovered
		seen  = make(map[string]struct{})
	)
	add := func(ids []string, sourceType, key, label string) {
		for _, id := range ids {
			if _, dup := seen[id]; dup || id == "" {
				continue
			}
			seen[id] = struct{}{}
			found = append(found, discovered{videoID: id, sourceType: sourceType, sourceKey: key, sourceLabel: label})
		}
	}

	for _, ch := range d.opts.Channels {
		ids, err := d.source.ChannelUploads(ctx, ch.ChannelID, d.opts.MaxPerChannel)
		if err != nil {
			if fatal(ctx, err) {
				return nil, abortErr(ctx, err)
			}
			logging.WarnWithContext(d.logger, "channel uploads unavailable", "channel_fetch_failed",
				logging.String("channel_key", ch.Key),
				logging.String("channel_id", ch.ChannelID),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "verify the channel_id in the channels list"),
				logging.String(logging.FieldImpact, "channel skipped for this run"))
			continue
		}
		add(ids, SourceChannel, ch.Key, ch.DisplayLabel())
	}

	for _, kw := range d.opts.Keywords {
		for _, query := range kw.Queries {
			ids, err := d.source.SearchVideos(ctx, query, d.opts.MaxPerKeyword)
			if err != nil {
				if fatal(ctx, err) {
					return nil, abortErr(ctx, err)
				}
				logging.WarnWithContext(d.logger, "keyword search failed", "keyword_fetch_failed",
					logging.String("keyword_key", kw.Key),
					logging.String("query", query),
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "check API quota"),
					logging.String(logging.FieldImpact, "query skipped for this run"))
				continue
			}
			add(ids, SourceKeyword, kw.Key, kw.DisplayLabel())
		}
	}

	snap := snapshot.New(time.Now())
	if len(found) == 0 {
		d.logger.Info("discovery found no videos")
		return snap, nil
	}

	ids := make([]string, 0, len(found))
	for _, f := range found {
		ids = append(ids, f.videoID)
	}
	stats, err := fetchStats(ctx, d.source, ids, d.logger)
	if err != nil {
		return nil, err
	}

	for _, f := range found {
		s, ok := stats[f.videoID]
		if !ok {
			continue
		}
		snap.Put(EntityKey(f.sourceType, f.sourceKey, f.videoID), &snapshot.Entity{
			ChannelName: s.ChannelTitle,
			VideoID:     f.videoID,
			Views:       s.Views,
			Likes:       s.Likes,
			Comments:    s.Comments,
			Label:       textutil.Label(f.sourceLabel, s.Title),
		})
	}

	d.logger.Info("discovery snapshot built",
		logging.Int("channels", len(d.opts.Channels)),
		logging.Int("keywords", len(d.opts.Keywords)),
		logging.Int("discovered", len(found)),
		logging.Int("entities", snap.Len()))
	return snap, nil
}

// EntityKey renders the discovery entity key "<type>_<key>_<video_id>".
func EntityKey(sourceType, sourceKey, videoID string) string {
	return fmt.Sprintf("%s_%s_%s", sourceType, sourceKey, videoID)
}

func abortErr(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}
