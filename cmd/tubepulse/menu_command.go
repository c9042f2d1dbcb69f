package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"tubepulse/internal/ranking"
	"tubepulse/internal/services"
)

func newMenuCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "menu",
		Short: "Interactive dashboard menu",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.runMenu(cmd)
		},
	}
}

func (c *commandContext) runMenu(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	in := c.input(cmd)

	for {
		fmt.Fprintln(out, "\n===== YOUTUBE DASHBOARD (CLI) =====")
		fmt.Fprintln(out, "1. Capture ALL tracked videos manually + show top movers")
		fmt.Fprintln(out, "2. View last snapshot only")
		fmt.Fprintln(out, "3. Exit")
		fmt.Fprintln(out, "4. Fetch ALL tracked videos from YouTube API (fixed list) + show top movers")
		fmt.Fprintln(out, "5. Build snapshot from channels + keywords config + show top movers")
		fmt.Fprint(out, "Select an option: ")

		line, err := in.ReadString('\n')
		if err != nil && line == "" {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(out)
				return nil
			}
			return err
		}
		if cmd.Context() != nil && cmd.Context().Err() != nil {
			return cmd.Context().Err()
		}

		switch strings.TrimSpace(line) {
		case "1":
			c.menuRefresh(cmd, c.manualMode())
		case "2":
			if err := c.menuShowLast(cmd); err != nil {
				return err
			}
		case "3":
			return nil
		case "4":
			fmt.Fprintln(out, "Fetching stats from YouTube API for the fixed tracking list...")
			c.menuRefresh(cmd, c.fixedMode())
		case "5":
			c.menuRefresh(cmd, c.discoveryMode(false))
		default:
			fmt.Fprintln(out, "Invalid option. Please try again.")
		}
	}
}

// menuRefresh runs a refresh and reports failures without leaving the menu.
func (c *commandContext) menuRefresh(cmd *cobra.Command, mode refreshMode) {
	out := cmd.OutOrStdout()
	if _, err := c.runRefresh(cmd, mode); err != nil {
		if errors.Is(err, services.ErrConfiguration) {
			fmt.Fprintf(out, "\n[ERROR] Configuration problem: %v\n", err)
		} else {
			fmt.Fprintf(out, "\n[ERROR] %v\n", err)
		}
	}
	c.pause(cmd)
}

func (c *commandContext) menuShowLast(cmd *cobra.Command) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	st, err := c.openStore()
	if err != nil {
		return err
	}
	snap, err := st.Load(cmd.Context())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if snap == nil {
		fmt.Fprintln(out, "No saved data found.")
	} else {
		printMovers(out, cfg, "LAST SNAPSHOT", snap, ranking.PreferredMetric(snap))
	}
	c.pause(cmd)
	return nil
}

func (c *commandContext) pause(cmd *cobra.Command) {
	fmt.Fprint(cmd.OutOrStdout(), "\nPress ENTER to return to menu...")
	_, _ = c.input(cmd).ReadString('\n')
}
