package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// triggerTimeout covers a full discovery refresh on the server side.
const triggerTimeout = 10 * time.Minute

type triggerResponse struct {
	Status     string `json:"status"`
	Message    string `json:"message"`
	Timestamp  string `json:"timestamp"`
	VideoCount int    `json:"video_count"`
	LastRun    string `json:"last_run"`
	Error      string `json:"error"`
}

func newTriggerCommand(ctx *commandContext) *cobra.Command {
	var baseURL string
	var token string

	cmd := &cobra.Command{
		Use:   "trigger",
		Short: "Ask a running dashboard to refresh (for cron jobs)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if baseURL == "" {
				baseURL = cfg.Web.DashboardURL
			}
			if token == "" {
				token = cfg.Web.RefreshToken
			}
			baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
			if baseURL == "" {
				return errors.New("dashboard URL not set (use --url, web.dashboard_url or TUBEPULSE_DASHBOARD_URL)")
			}
			if strings.TrimSpace(token) == "" {
				return errors.New("refresh token not set (use --token, web.refresh_token or REFRESH_TOKEN)")
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Calling refresh URL: %s/refresh/<token>\n", baseURL)
			resp, status, err := callRefresh(cmd.Context(), baseURL, token)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Status: %d\n", status)
			switch {
			case resp.Error != "":
				fmt.Fprintf(out, "Error: %s\n", resp.Error)
			case resp.Status == "ok":
				fmt.Fprintf(out, "Refreshed %d videos at %s\n", resp.VideoCount, resp.Timestamp)
			default:
				fmt.Fprintf(out, "Result: %s", resp.Status)
				if resp.Message != "" {
					fmt.Fprintf(out, " (%s)", resp.Message)
				}
				if resp.LastRun != "" {
					fmt.Fprintf(out, " last run %s", resp.LastRun)
				}
				fmt.Fprintln(out)
			}
			if status >= http.StatusBadRequest {
				return fmt.Errorf("refresh failed with HTTP %d", status)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&baseURL, "url", "", "Dashboard base URL (default web.dashboard_url)")
	cmd.Flags().StringVar(&token, "token", "", "Refresh token (default web.refresh_token)")
	return cmd
}

func callRefresh(ctx context.Context, baseURL, token string) (triggerResponse, int, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	target := baseURL + "/refresh/" + url.PathEscape(token)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return triggerResponse{}, 0, fmt.Errorf("build refresh request: %w", err)
	}
	client := &http.Client{Timeout: triggerTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return triggerResponse{}, 0, fmt.Errorf("call refresh: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return triggerResponse{}, resp.StatusCode, fmt.Errorf("read refresh response: %w", err)
	}
	var payload triggerResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		payload.Error = strings.TrimSpace(string(body))
	}
	return payload, resp.StatusCode, nil
}
