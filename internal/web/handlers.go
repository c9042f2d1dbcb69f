package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"tubepulse/internal/logging"
	"tubepulse/internal/ranking"
	"tubepulse/internal/refresh"
	"tubepulse/internal/services"
	"tubepulse/internal/snapshot"
)

type refreshResponse struct {
	Status     refresh.Status `json:"status"`
	Message    string         `json:"message,omitempty"`
	Timestamp  string         `json:"timestamp,omitempty"`
	VideoCount int            `json:"video_count,omitempty"`
	LastRun    string         `json:"last_run,omitempty"`
}

type topResponse struct {
	Timestamp string               `json:"timestamp,omitempty"`
	Metric    ranking.Metric       `json:"metric"`
	Rows      []snapshot.RankedRow `json:"rows"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleTop(w http.ResponseWriter, r *http.Request) {
	metric := s.opts.Metric
	if raw := r.URL.Query().Get("metric"); raw != "" {
		parsed, err := ranking.ParseMetric(raw)
		if err != nil {
			s.writeError(w, services.HTTPStatus(err), err.Error())
			return
		}
		metric = parsed
	}
	limit := s.opts.TopN
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			s.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	snap, err := s.opts.Store.Load(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := topResponse{
		Metric: metric,
		Rows:   ranking.TopN(snap, metric, limit, s.opts.MinViews),
	}
	if snap != nil {
		resp.Timestamp = snap.Timestamp
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// handleTokenRefresh serves the scheduler-facing /refresh/{token} route.
func (s *Server) handleTokenRefresh(w http.ResponseWriter, r *http.Request) {
	if s.opts.RefreshToken == "" {
		s.writeError(w, http.StatusInternalServerError, "REFRESH_TOKEN not configured on server.")
		return
	}
	if !tokenMatches(s.opts.RefreshToken, chi.URLParam(r, "token")) {
		s.writeError(w, http.StatusForbidden, "Invalid refresh token.")
		return
	}
	s.handleRefresh(w, r)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if s.opts.Runner == nil || s.opts.NewBuilder == nil {
		s.writeError(w, http.StatusInternalServerError, "refresh is not configured on this server")
		return
	}
	b, err := s.opts.NewBuilder(r.Context())
	if err != nil {
		s.refreshFailed(w, err)
		return
	}
	outcome, err := s.opts.Runner.Run(r.Context(), refresh.Request{
		Builder:  b,
		Interval: s.opts.Interval,
		Record:   true,
	})
	if err != nil {
		s.refreshFailed(w, err)
		return
	}

	resp := refreshResponse{Status: outcome.Status, Message: outcome.Message}
	switch outcome.Status {
	case refresh.StatusOK:
		resp.Message = ""
		resp.Timestamp = outcome.Timestamp
		resp.VideoCount = outcome.Count
	case refresh.StatusSkippedRecent:
		if !outcome.LastRun.IsZero() {
			resp.LastRun = snapshot.FormatTime(outcome.LastRun)
		}
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) refreshFailed(w http.ResponseWriter, err error) {
	status := services.HTTPStatus(err)
	logging.ErrorWithContext(s.logger, "remote refresh failed", "remote_refresh_failed",
		logging.Error(err),
		logging.Int("status", status),
		logging.String(logging.FieldErrorHint, "check the API key and the source lists"))
	message := err.Error()
	if errors.Is(err, services.ErrConfiguration) {
		message = "refresh is misconfigured on the server; see the server log"
	}
	s.writeError(w, status, message)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Warn("encode response failed", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": strings.TrimSpace(message)})
}
