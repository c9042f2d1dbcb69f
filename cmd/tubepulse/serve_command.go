package main

import (
	"context"

	"github.com/spf13/cobra"

	"tubepulse/internal/builder"
	"tubepulse/internal/logging"
	"tubepulse/internal/preflight"
	"tubepulse/internal/ranking"
	"tubepulse/internal/web"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard and the remote refresh endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger := ctx.ensureLogger()
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			runner, err := ctx.newRunner()
			if err != nil {
				return err
			}

			for _, failed := range preflight.Failed(preflight.RunAll(cmd.Context(), cfg, logger)) {
				logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
					logging.String("check", failed.Name),
					logging.String("detail", failed.Detail),
					logging.String(logging.FieldImpact, "remote refreshes may fail until this is fixed"))
			}

			metric, err := ranking.ParseMetric(cfg.Ranking.DefaultMetric)
			if err != nil {
				return err
			}
			if bind == "" {
				bind = cfg.Web.Bind
			}
			srv := web.New(web.Options{
				Bind:         bind,
				RefreshToken: cfg.Web.RefreshToken,
				Store:        st,
				Runner:       runner,
				NewBuilder: func(reqCtx context.Context) (builder.Builder, error) {
					return ctx.discoveryBuilder(reqCtx)
				},
				Interval: cfg.ScheduledInterval(),
				Metric:   metric,
				TopN:     cfg.Ranking.TopN,
				MinViews: cfg.Ranking.MinViews,
				Logger:   logger,
			})
			return srv.Serve(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&bind, "bind", "", "Listen address (default web.bind)")
	return cmd
}
