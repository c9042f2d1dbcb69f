package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"tubepulse/internal/sources"
)

func newSourcesCommand(ctx *commandContext) *cobra.Command {
	sourcesCmd := &cobra.Command{
		Use:   "sources",
		Short: "Manage the channel and keyword discovery lists",
	}
	sourcesCmd.AddCommand(newSourcesImportCommand(ctx))
	sourcesCmd.AddCommand(newSourcesListCommand(ctx))
	return sourcesCmd
}

func newSourcesImportCommand(ctx *commandContext) *cobra.Command {
	var channelsCSV string
	var keywordsCSV string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Build channels/keywords lists from CSV files",
		Long: "Reads key,url,label,group rows from the channels CSV (resolving each URL to a channel ID)\n" +
			"and key,label,group,queries rows from the keywords CSV (queries separated by ';').",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if channelsCSV == "" {
				channelsCSV = cfg.Sources.ChannelsCSV
			}
			if keywordsCSV == "" {
				keywordsCSV = cfg.Sources.KeywordsCSV
			}
			out := cmd.OutOrStdout()
			logger := ctx.ensureLogger()

			channelsFile, err := os.Open(channelsCSV)
			switch {
			case errors.Is(err, fs.ErrNotExist):
				fmt.Fprintf(out, "No %s file found. Skipping channels.\n", channelsCSV)
			case err != nil:
				return fmt.Errorf("open channels csv: %w", err)
			default:
				defer channelsFile.Close()
				client, err := ctx.newClient(cmd.Context())
				if err != nil {
					return err
				}
				channels, report, err := sources.ImportChannelsCSV(cmd.Context(), channelsFile, client, logger)
				if err != nil {
					return err
				}
				if err := sources.WriteJSON(cfg.Sources.ChannelsPath, channels); err != nil {
					return err
				}
				fmt.Fprintf(out, "Wrote %d channels to %s (%d skipped)\n", report.Imported, cfg.Sources.ChannelsPath, report.Skipped)
			}

			keywordsFile, err := os.Open(keywordsCSV)
			switch {
			case errors.Is(err, fs.ErrNotExist):
				fmt.Fprintf(out, "No %s file found. Skipping keywords.\n", keywordsCSV)
			case err != nil:
				return fmt.Errorf("open keywords csv: %w", err)
			default:
				defer keywordsFile.Close()
				keywords, report, err := sources.ImportKeywordsCSV(keywordsFile, logger)
				if err != nil {
					return err
				}
				if err := sources.WriteJSON(cfg.Sources.KeywordsPath, keywords); err != nil {
					return err
				}
				fmt.Fprintf(out, "Wrote %d keyword groups to %s (%d skipped)\n", report.Imported, cfg.Sources.KeywordsPath, report.Skipped)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&channelsCSV, "channels-csv", "", "Channels CSV (default sources.channels_csv)")
	cmd.Flags().StringVar(&keywordsCSV, "keywords-csv", "", "Keywords CSV (default sources.keywords_csv)")
	return cmd
}

func newSourcesListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show the configured discovery sources",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger := ctx.ensureLogger()
			channels := sources.LoadChannels(cfg.Sources.ChannelsPath, logger)
			keywords := sources.LoadKeywords(cfg.Sources.KeywordsPath, logger)
			tracked := sources.Tracked(cfg, logger)

			if asJSON {
				return writeJSON(cmd, map[string]any{
					"channels": channels,
					"keywords": keywords,
					"tracked":  tracked,
				})
			}

			rows := make([][]string, 0, len(channels)+len(keywords)+len(tracked))
			for _, ch := range channels {
				rows = append(rows, []string{"channel", ch.Key, ch.DisplayLabel(), ch.Group, ch.ChannelID})
			}
			for _, kw := range keywords {
				rows = append(rows, []string{"keyword", kw.Key, kw.DisplayLabel(), kw.Group, strings.Join(kw.Queries, "; ")})
			}
			for _, tv := range tracked {
				rows = append(rows, []string{"tracked", tv.Key, tv.Label, tv.ChannelName, tv.VideoID})
			}

			out := cmd.OutOrStdout()
			if len(rows) == 0 {
				fmt.Fprintln(out, "No sources configured.")
				return nil
			}
			fmt.Fprintln(out, renderTable([]string{"Type", "Key", "Label", "Group", "Source"}, rows, nil))
			fmt.Fprintf(out, "%d sources\n", len(rows))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}
