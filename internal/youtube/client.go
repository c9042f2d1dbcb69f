// Package youtube wraps the YouTube Data API v3 calls tubepulse needs:
// batched video statistics, recent channel uploads, keyword search, and
// channel URL resolution. Every request waits on a shared rate limiter.
package youtube

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"tubepulse/internal/logging"
	"tubepulse/internal/services"
)

// BatchSize is the maximum number of IDs videos.list accepts per call.
const BatchSize = 50

// ErrChannelNotFound is returned when a channel ID or handle matches nothing.
var ErrChannelNotFound = errors.New("channel not found")

// VideoStats is the per-video data a snapshot entity is built from.
type VideoStats struct {
	VideoID      string
	Title        string
	ChannelTitle string
	Views        int64
	Likes        int64
	Comments     int64
}

// Options configures a Client.
type Options struct {
	APIKey            string
	BaseURL           string // empty uses the public endpoint
	RequestsPerSecond float64
	Timeout           time.Duration
}

// Client issues rate-limited YouTube Data API requests.
type Client struct {
	service *youtube.Service
	limiter *rate.Limiter
	timeout time.Duration
	logger  *slog.Logger
}

// New builds a client. A blank API key is a configuration error.
func New(ctx context.Context, opts Options, logger *slog.Logger) (*Client, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, services.Wrap(services.ErrConfiguration, "youtube", "init",
			"youtube.api_key is not set (configure it or export YOUTUBE_API_KEY)", nil)
	}

	clientOpts := []option.ClientOption{option.WithAPIKey(apiKey)}
	if base := strings.TrimSpace(opts.BaseURL); base != "" {
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		clientOpts = append(clientOpts, option.WithEndpoint(base))
	}
	service, err := youtube.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "youtube", "init", "create youtube service", err)
	}

	rps := opts.RequestsPerSecond
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		service: service,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		timeout: opts.Timeout,
		logger:  logging.NewComponentLogger(logger, "youtube"),
	}, nil
}

// VideoStats fetches snippet and statistics for ids in batches of BatchSize.
// A failing batch is logged and skipped; an error is returned only when no
// batch succeeded.
func (c *Client) VideoStats(ctx context.Context, ids []string) (map[string]VideoStats, error) {
	unique := dedupe(ids)
	out := make(map[string]VideoStats, len(unique))
	var lastErr error

	for start := 0; start < len(unique); start += BatchSize {
		end := min(start+BatchSize, len(unique))
		batch := unique[start:end]

		resp, err := call(ctx, c, func(ctx context.Context) (*youtube.VideoListResponse, error) {
			return c.service.Videos.List([]string{"snippet", "statistics"}).
				Id(batch...).
				Context(ctx).
				Do()
		})
		if err != nil {
			if ctx.Err() != nil {
				return out, ctx.Err()
			}
			lastErr = classify("videos.list", err)
			logging.WarnWithContext(c.logger, "video stats batch failed; continuing with partial results", "youtube_batch_failed",
				logging.Int("batch_start", start),
				logging.Int("batch_size", len(batch)),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check API quota and key restrictions"),
				logging.String(logging.FieldImpact, "videos in this batch are missing from the snapshot"))
			continue
		}

		for _, item := range resp.Items {
			if item == nil || item.Id == "" {
				continue
			}
			stats := VideoStats{VideoID: item.Id}
			if item.Snippet != nil {
				stats.Title = item.Snippet.Title
				stats.ChannelTitle = item.Snippet.ChannelTitle
			}
			if item.Statistics != nil {
				stats.Views = clampCount(item.Statistics.ViewCount)
				stats.Likes = clampCount(item.Statistics.LikeCount)
				stats.Comments = clampCount(item.Statistics.CommentCount)
			}
			out[item.Id] = stats
		}
	}

	if len(out) == 0 && lastErr != nil {
		return out, lastErr
	}
	c.logger.Debug("fetched video stats",
		logging.Int("requested", len(unique)),
		logging.Int("returned", len(out)))
	return out, nil
}

// ChannelUploads returns up to limit recent video IDs from the channel's
// uploads playlist.
func (c *Client) ChannelUploads(ctx context.Context, channelID string, limit int) ([]string, error) {
	channelID = strings.TrimSpace(channelID)
	if channelID == "" {
		return nil, services.Wrap(services.ErrValidation, "youtube", "channels.list", "empty channel id", nil)
	}

	channels, err := call(ctx, c, func(ctx context.Context) (*youtube.ChannelListResponse, error) {
		return c.service.Channels.List([]string{"contentDetails"}).Id(channelID).Context(ctx).Do()
	})
	if err != nil {
		return nil, classify("channels.list", err)
	}
	if len(channels.Items) == 0 || channels.Items[0].ContentDetails == nil ||
		channels.Items[0].ContentDetails.RelatedPlaylists == nil ||
		channels.Items[0].ContentDetails.RelatedPlaylists.Uploads == "" {
		return nil, services.Wrap(services.ErrNotFound, "youtube", "channels.list", channelID, ErrChannelNotFound)
	}
	uploads := channels.Items[0].ContentDetails.RelatedPlaylists.Uploads

	items, err := call(ctx, c, func(ctx context.Context) (*youtube.PlaylistItemListResponse, error) {
		return c.service.PlaylistItems.List([]string{"contentDetails"}).
			PlaylistId(uploads).
			MaxResults(int64(limit)).
			Context(ctx).
			Do()
	})
	if err != nil {
		return nil, classify("playlistItems.list", err)
	}

	ids := make([]string, 0, len(items.Items))
	for _, item := range items.Items {
		if item == nil || item.ContentDetails == nil || item.ContentDetails.VideoId == "" {
			continue
		}
		ids = append(ids, item.ContentDetails.VideoId)
	}
	return ids, nil
}

// SearchVideos returns up to limit of the most recent videos matching query.
func (c *Client) SearchVideos(ctx context.Context, query string, limit int) ([]string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, services.Wrap(services.ErrValidation, "youtube", "search.list", "empty query", nil)
	}
	resp, err := call(ctx, c, func(ctx context.Context) (*youtube.SearchListResponse, error) {
		return c.service.Search.List([]string{"id"}).
			Q(query).
			Order("date").
			Type("video").
			MaxResults(int64(limit)).
			Context(ctx).
			Do()
	})
	if err != nil {
		return nil, classify("search.list", err)
	}
	ids := make([]string, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item == nil || item.Id == nil || item.Id.VideoId == "" {
			continue
		}
		ids = append(ids, item.Id.VideoId)
	}
	return ids, nil
}

// call waits on the limiter and runs fn under the per-request timeout.
func call[T any](ctx context.Context, c *Client, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if err := c.limiter.Wait(ctx); err != nil {
		return zero, err
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	return fn(ctx)
}

// keyReasons are the API error reasons that mean the key itself is
// unusable. Every request made with it will fail the same way.
var keyReasons = []string{"keyInvalid", "keyExpired", "accessNotConfigured", "ipRefererBlocked"}

// classify tags API failures so callers can tell key problems, which abort
// a build, from per-request rejections and transient errors, which only
// drop the failing lookup.
func classify(operation string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return services.Wrap(services.ErrTimeout, "youtube", operation, "request timed out", err)
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusUnauthorized || keyRejected(apiErr):
			return services.Wrap(services.ErrConfiguration, "youtube", operation, "api key rejected", err)
		case apiErr.Code == http.StatusForbidden && quotaExceeded(apiErr):
			return services.Wrap(services.ErrTransient, "youtube", operation, "quota exceeded", err)
		case apiErr.Code == http.StatusBadRequest || apiErr.Code == http.StatusForbidden:
			return services.Wrap(services.ErrValidation, "youtube", operation, "request rejected", err)
		case apiErr.Code == http.StatusNotFound:
			return services.Wrap(services.ErrNotFound, "youtube", operation, "resource not found", err)
		}
	}
	return services.Wrap(services.ErrTransient, "youtube", operation, "request failed", err)
}

// keyRejected matches the key-level reasons, and the "API key not valid"
// message the API sends with a generic badRequest reason.
func keyRejected(apiErr *googleapi.Error) bool {
	for _, item := range apiErr.Errors {
		if slices.Contains(keyReasons, item.Reason) {
			return true
		}
	}
	return strings.Contains(strings.ToLower(apiErr.Message), "api key")
}

func quotaExceeded(apiErr *googleapi.Error) bool {
	for _, item := range apiErr.Errors {
		if item.Reason == "quotaExceeded" || item.Reason == "dailyLimitExceeded" || item.Reason == "rateLimitExceeded" {
			return true
		}
	}
	return strings.Contains(apiErr.Message, "quota")
}

func clampCount(v uint64) int64 {
	const maxInt64 = 1<<63 - 1
	if v > maxInt64 {
		return maxInt64
	}
	return int64(v)
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
