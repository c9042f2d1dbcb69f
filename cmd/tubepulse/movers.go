package main

import (
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"tubepulse/internal/ranking"
	"tubepulse/internal/snapshot"
	"tubepulse/internal/textutil"
)

const (
	gridColumns    = 4
	gridLabelWidth = 22
)

// colorEnabled reports whether w is a terminal that should get ANSI colour.
func colorEnabled(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func colorDelta(value float64, rendered string, color bool) string {
	if !color {
		return rendered
	}
	switch {
	case value > 0:
		return text.FgGreen.Sprint(rendered)
	case value < 0:
		return text.FgRed.Sprint(rendered)
	default:
		return rendered
	}
}

// renderMoversTable lists ranked rows one per line.
func renderMoversTable(rows []snapshot.RankedRow, metric ranking.Metric, color bool) string {
	headers := []string{"#", "Label", "Channel", "Views", metricHeader(metric)}
	body := make([][]string, 0, len(rows))
	for i, row := range rows {
		body = append(body, []string{
			strconv.Itoa(i + 1),
			row.Label,
			row.ChannelName,
			textutil.FormatCount(row.CurrentValue),
			colorDelta(row.Delta, metric.Format(row.Delta), color && metric != ranking.MetricViews),
		})
	}
	return renderTable(headers, body, []columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight})
}

// renderMoversGrid lays rows out gridColumns per line: a label row followed
// by a delta row.
func renderMoversGrid(rows []snapshot.RankedRow, metric ranking.Metric, color bool) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleLight)
	tw.Style().Options.SeparateRows = false

	for start := 0; start < len(rows); start += gridColumns {
		end := min(start+gridColumns, len(rows))
		labels := make(table.Row, gridColumns)
		deltas := make(table.Row, gridColumns)
		for i := range labels {
			labels[i], deltas[i] = "", ""
		}
		for i, row := range rows[start:end] {
			labels[i] = textutil.Truncate(row.Label, gridLabelWidth)
			rendered := "Δ " + metric.Format(row.Delta)
			deltas[i] = colorDelta(row.Delta, rendered, color && metric != ranking.MetricViews)
		}
		if start > 0 {
			tw.AppendSeparator()
		}
		tw.AppendRow(labels)
		tw.AppendRow(deltas)
	}
	return tw.Render()
}

func metricHeader(metric ranking.Metric) string {
	switch metric {
	case ranking.MetricViewsDeltaPct:
		return "Growth %"
	case ranking.MetricViewsDelta:
		return "Growth"
	default:
		return "Total"
	}
}

func headingBanner(heading string) string {
	rule := strings.Repeat("=", 43)
	return rule + "\n        " + heading + "\n" + rule
}
