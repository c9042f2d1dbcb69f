package web

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"time"

	"tubepulse/internal/logging"
	"tubepulse/internal/ranking"
	"tubepulse/internal/snapshot"
	"tubepulse/internal/textutil"
)

//go:embed templates/*.html
var templateFS embed.FS

var dashboardTemplate = template.Must(template.ParseFS(templateFS, "templates/dashboard.html"))

type dashboardRow struct {
	Rank    int
	Label   string
	Channel string
	URL     string
	Views   string
	Delta   string
}

type dashboardMode struct {
	Name   string
	Title  string
	Active bool
}

type dashboardData struct {
	Mode        string
	Modes       []dashboardMode
	Rows        []dashboardRow
	LastUpdated string
}

var modeTitles = []struct{ name, title string }{
	{"pct", "% growth"},
	{"delta", "View growth"},
	{"views", "Total views"},
}

// dashboardMetric maps the mode query value; an empty mode uses the
// configured default and anything unknown shows percentage growth.
func dashboardMetric(mode string, fallback ranking.Metric) ranking.Metric {
	if mode == "" {
		return fallback
	}
	metric, err := ranking.ParseMetric(mode)
	if err != nil {
		return ranking.MetricViewsDeltaPct
	}
	return metric
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	metric := dashboardMetric(r.URL.Query().Get("mode"), s.opts.Metric)
	snap, err := s.opts.Store.Load(r.Context())
	if err != nil {
		http.Error(w, "snapshot unavailable", http.StatusInternalServerError)
		return
	}

	data := dashboardData{Mode: metric.Mode()}
	for _, m := range modeTitles {
		data.Modes = append(data.Modes, dashboardMode{Name: m.name, Title: m.title, Active: m.name == data.Mode})
	}
	if snap.Len() > 0 {
		if ts, ok := snap.Time(); ok {
			data.LastUpdated = ts.Local().Format(time.DateTime)
		} else {
			data.LastUpdated = snap.Timestamp
		}
		for i, row := range ranking.TopN(snap, metric, s.opts.TopN, s.opts.MinViews) {
			data.Rows = append(data.Rows, dashboardRowFor(i+1, row, metric))
		}
	}

	var buf bytes.Buffer
	if err := dashboardTemplate.Execute(&buf, data); err != nil {
		s.logger.Error("render dashboard failed", logging.Error(err))
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func dashboardRowFor(rank int, row snapshot.RankedRow, metric ranking.Metric) dashboardRow {
	out := dashboardRow{
		Rank:    rank,
		Label:   row.Label,
		Channel: row.ChannelName,
		Views:   textutil.FormatCount(row.CurrentValue),
		Delta:   metric.Format(row.Delta),
	}
	if row.VideoID != "" {
		out.URL = "https://www.youtube.com/watch?v=" + row.VideoID
	}
	return out
}
