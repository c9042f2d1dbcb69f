package builder

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"tubepulse/internal/config"
	"tubepulse/internal/logging"
	"tubepulse/internal/snapshot"
)

// Manual builds a snapshot from statistics typed in by the operator.
type Manual struct {
	tracked []config.TrackedVideo
	in      *bufio.Reader
	out     io.Writer
	logger  *slog.Logger
}

// NewManual returns a builder that prompts on out and reads answers from in.
func NewManual(tracked []config.TrackedVideo, in io.Reader, out io.Writer, logger *slog.Logger) *Manual {
	br, ok := in.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(in)
	}
	return &Manual{
		tracked: tracked,
		in:      br,
		out:     out,
		logger:  logging.NewComponentLogger(logger, "builder"),
	}
}

// Name identifies the builder in logs and menus.
func (m *Manual) Name() string { return "manual" }

// Build prompts views, likes, comments and subscribers for each tracked
// video. Answers that are not non-negative integers are asked again.
func (m *Manual) Build(ctx context.Context) (*snapshot.Snapshot, error) {
	snap := snapshot.New(time.Now())
	fmt.Fprintln(m.out, "Enter current YouTube stats for tracked videos:")
	fmt.Fprintln(m.out, "------------------------------------------------")
	fmt.Fprintln(m.out)

	for _, tv := range m.tracked {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		label := strings.TrimSpace(tv.Label)
		if label == "" {
			label = tv.Key
		}
		fmt.Fprintf(m.out, "Channel:  %s\n", tv.ChannelName)
		fmt.Fprintf(m.out, "Video ID: %s\n", tv.VideoID)
		fmt.Fprintf(m.out, "Label:    %s\n", label)

		var counts [4]int64
		for i, field := range []string{"Views", "Likes", "Comments", "Subscribers"} {
			n, err := m.promptCount(field)
			if err != nil {
				return nil, err
			}
			counts[i] = n
		}
		fmt.Fprintln(m.out)

		snap.Put(tv.Key, &snapshot.Entity{
			ChannelName: tv.ChannelName,
			VideoID:     tv.VideoID,
			Views:       counts[0],
			Likes:       counts[1],
			Comments:    counts[2],
			Subscribers: counts[3],
			Label:       label,
		})
	}

	m.logger.Info("manual snapshot captured", logging.Int("entities", snap.Len()))
	return snap, nil
}

func (m *Manual) promptCount(field string) (int64, error) {
	for {
		fmt.Fprintf(m.out, "  %s: ", field)
		line, err := m.in.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			if errors.Is(err, io.EOF) {
				return 0, fmt.Errorf("manual entry: input closed while reading %s", strings.ToLower(field))
			}
			return 0, fmt.Errorf("manual entry: %w", err)
		}
		n, perr := strconv.ParseInt(strings.TrimSpace(line), 10, 64)
		if perr == nil && n >= 0 {
			return n, nil
		}
		fmt.Fprintln(m.out, "  Please enter a whole number of zero or more.")
	}
}
