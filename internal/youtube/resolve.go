package youtube

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"google.golang.org/api/youtube/v3"

	"tubepulse/internal/logging"
	"tubepulse/internal/services"
)

var channelIDPattern = regexp.MustCompile(`^UC[\w-]{22}$`)

// ResolveChannelID turns a channel URL into a channel ID. It recognizes
// /channel/UC… paths directly, resolves /@handle paths with channels.list
// forHandle, and falls back to a channel search on the raw input.
func (c *Client) ResolveChannelID(ctx context.Context, rawURL string) (string, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return "", services.Wrap(services.ErrValidation, "youtube", "resolve channel", "empty url", nil)
	}
	if channelIDPattern.MatchString(rawURL) {
		return rawURL, nil
	}

	path := rawURL
	if parsed, err := url.Parse(rawURL); err == nil && parsed.Path != "" {
		path = parsed.Path
	}

	if id := channelIDFromPath(path); id != "" {
		return id, nil
	}

	if handle := handleFromPath(path); handle != "" {
		id, err := c.lookupHandle(ctx, handle)
		if err != nil {
			c.logger.Debug("handle lookup failed; falling back to search",
				logging.String("handle", handle),
				logging.Error(err))
		} else if id != "" {
			return id, nil
		}
	}

	return c.searchChannel(ctx, rawURL)
}

func channelIDFromPath(path string) string {
	_, after, found := strings.Cut(path, "/channel/")
	if !found {
		return ""
	}
	candidate := strings.Trim(after, "/")
	candidate, _, _ = strings.Cut(candidate, "/")
	if strings.HasPrefix(candidate, "UC") {
		return candidate
	}
	return ""
}

func handleFromPath(path string) string {
	var after string
	switch {
	case strings.Contains(path, "/@"):
		after = path[strings.LastIndex(path, "/@")+2:]
	case strings.HasPrefix(path, "@"):
		after = path[1:]
	default:
		return ""
	}
	name, _, _ := strings.Cut(after, "/")
	if name == "" {
		return ""
	}
	return "@" + name
}

func (c *Client) lookupHandle(ctx context.Context, handle string) (string, error) {
	resp, err := call(ctx, c, func(ctx context.Context) (*youtube.ChannelListResponse, error) {
		return c.service.Channels.List([]string{"id"}).ForHandle(handle).Context(ctx).Do()
	})
	if err != nil {
		return "", classify("channels.list", err)
	}
	if len(resp.Items) == 0 {
		return "", nil
	}
	return resp.Items[0].Id, nil
}

func (c *Client) searchChannel(ctx context.Context, query string) (string, error) {
	resp, err := call(ctx, c, func(ctx context.Context) (*youtube.SearchListResponse, error) {
		return c.service.Search.List([]string{"id"}).
			Q(query).
			Type("channel").
			MaxResults(1).
			Context(ctx).
			Do()
	})
	if err != nil {
		return "", classify("search.list", err)
	}
	for _, item := range resp.Items {
		if item != nil && item.Id != nil && item.Id.ChannelId != "" {
			return item.Id.ChannelId, nil
		}
	}
	return "", services.Wrap(services.ErrNotFound, "youtube", "resolve channel", query, ErrChannelNotFound)
}
