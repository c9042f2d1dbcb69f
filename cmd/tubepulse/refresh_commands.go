package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"tubepulse/internal/builder"
	"tubepulse/internal/config"
	"tubepulse/internal/ranking"
	"tubepulse/internal/refresh"
	"tubepulse/internal/snapshot"
)

// refreshMode binds a builder to the guard policy and heading it runs with.
type refreshMode struct {
	heading  string
	build    func(cmd *cobra.Command) (builder.Builder, error)
	interval func(cfg *config.Config) time.Duration
	record   bool
}

func (c *commandContext) manualMode() refreshMode {
	return refreshMode{
		heading: "TOP MOVERS (Manual)",
		build:   c.manualBuilder,
	}
}

func (c *commandContext) fixedMode() refreshMode {
	return refreshMode{
		heading: "TOP MOVERS (Fixed list)",
		build: func(cmd *cobra.Command) (builder.Builder, error) {
			return c.fixedBuilder(cmd.Context())
		},
	}
}

func (c *commandContext) discoveryMode(force bool) refreshMode {
	mode := refreshMode{
		heading: "TOP MOVERS (Channels + Keywords)",
		build: func(cmd *cobra.Command) (builder.Builder, error) {
			return c.discoveryBuilder(cmd.Context())
		},
		record: true,
	}
	if !force {
		mode.interval = func(cfg *config.Config) time.Duration { return cfg.InteractiveInterval() }
	}
	return mode
}

func newRefreshCommands(ctx *commandContext) []*cobra.Command {
	capture := &cobra.Command{
		Use:   "capture",
		Short: "Enter tracked video stats by hand and show the top movers",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := ctx.runRefresh(cmd, ctx.manualMode())
			return err
		},
	}

	track := &cobra.Command{
		Use:   "track",
		Short: "Fetch the fixed tracking list from the YouTube API and show the top movers",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := ctx.runRefresh(cmd, ctx.fixedMode())
			return err
		},
	}

	var force bool
	discover := &cobra.Command{
		Use:   "discover",
		Short: "Build a snapshot from the channel and keyword lists and show the top movers",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := ctx.runRefresh(cmd, ctx.discoveryMode(force))
			return err
		},
	}
	discover.Flags().BoolVar(&force, "force", false, "Ignore the interactive refresh interval")

	return []*cobra.Command{capture, track, discover}
}

// runRefresh executes one refresh and prints its outcome.
func (c *commandContext) runRefresh(cmd *cobra.Command, mode refreshMode) (refresh.Outcome, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return refresh.Outcome{}, err
	}
	runner, err := c.newRunner()
	if err != nil {
		return refresh.Outcome{}, err
	}
	b, err := mode.build(cmd)
	if err != nil {
		return refresh.Outcome{}, err
	}

	req := refresh.Request{Builder: b, Record: mode.record}
	if mode.interval != nil {
		req.Interval = mode.interval(cfg)
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	outcome, err := runner.Run(ctx, req)
	if err != nil {
		return outcome, err
	}
	printOutcome(cmd.OutOrStdout(), cfg, mode.heading, outcome)
	return outcome, nil
}

func printOutcome(out io.Writer, cfg *config.Config, heading string, outcome refresh.Outcome) {
	switch outcome.Status {
	case refresh.StatusSkippedRecent:
		fmt.Fprintf(out, "\n[INFO] %s\n", outcome.Message)
		fmt.Fprintln(out, "       Skipping to avoid burning YouTube API quota.")
		if !outcome.NextRun.IsZero() {
			fmt.Fprintf(out, "       Next run allowed after %s.\n", outcome.NextRun.Local().Format(time.DateTime))
		}
	case refresh.StatusNoVideos:
		fmt.Fprintln(out, "\n[INFO] No videos were fetched this run (likely quota or config issue).")
		fmt.Fprintln(out, "       Keeping previous snapshot on disk, not overwriting.")
	case refresh.StatusBusy:
		fmt.Fprintln(out, "\n[INFO] Another refresh is in progress; try again shortly.")
	default:
		fmt.Fprintf(out, "Saved %d videos at %s\n", outcome.Count, outcome.Timestamp)
		printMovers(out, cfg, heading, outcome.Snapshot, ranking.MetricViewsDeltaPct)
	}
}

func printMovers(out io.Writer, cfg *config.Config, heading string, snap *snapshot.Snapshot, metric ranking.Metric) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, headingBanner(heading))
	fmt.Fprintln(out)
	rows := ranking.TopN(snap, metric, cfg.Ranking.TopN, cfg.Ranking.MinViews)
	if len(rows) == 0 {
		fmt.Fprintln(out, "No data to display.")
		return
	}
	fmt.Fprintln(out, renderMoversGrid(rows, metric, colorEnabled(out)))
}
