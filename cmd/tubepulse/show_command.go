package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tubepulse/internal/ranking"
	"tubepulse/internal/snapshot"
)

type showPayload struct {
	Timestamp string               `json:"timestamp,omitempty"`
	Metric    ranking.Metric       `json:"metric"`
	Rows      []snapshot.RankedRow `json:"rows"`
}

func newShowCommand(ctx *commandContext) *cobra.Command {
	var metricFlag string
	var limit int
	var asJSON bool
	var grid bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Rank the last saved snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			snap, err := st.Load(cmd.Context())
			if err != nil {
				return err
			}

			metric := ranking.PreferredMetric(snap)
			if metricFlag != "" {
				if metric, err = ranking.ParseMetric(metricFlag); err != nil {
					return err
				}
			}
			if limit <= 0 {
				limit = cfg.Ranking.TopN
			}
			rows := ranking.TopN(snap, metric, limit, cfg.Ranking.MinViews)

			if asJSON {
				payload := showPayload{Metric: metric, Rows: rows}
				if snap != nil {
					payload.Timestamp = snap.Timestamp
				}
				return writeJSON(cmd, payload)
			}

			out := cmd.OutOrStdout()
			if snap == nil {
				fmt.Fprintln(out, "No saved data found.")
				return nil
			}
			if grid {
				printMovers(out, cfg, "LAST SNAPSHOT", snap, metric)
				return nil
			}
			fmt.Fprintf(out, "Snapshot %s (%d videos, ranked by %s)\n", snap.Timestamp, snap.Len(), metric)
			if len(rows) == 0 {
				fmt.Fprintln(out, "No data to display.")
				return nil
			}
			fmt.Fprintln(out, renderMoversTable(rows, metric, colorEnabled(out)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&metricFlag, "metric", "m", "", "Ranking metric: views, views_delta (delta) or views_delta_pct (pct)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Number of rows (default ranking.top_n)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&grid, "grid", false, "Render the four-column movers grid")
	return cmd
}
