// Package ranking filters snapshot entities by a minimum view threshold and
// orders them by a chosen growth metric.
package ranking

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strings"

	"tubepulse/internal/services"
	"tubepulse/internal/snapshot"
	"tubepulse/internal/textutil"
)

const (
	// MinViewsForDisplay keeps low-traffic videos out of every ranking.
	MinViewsForDisplay int64 = 25000
	// DefaultTopN is the dashboard list size.
	DefaultTopN = 16
)

// Metric selects the sort value of a ranking query.
type Metric string

const (
	MetricViews         Metric = "views"
	MetricViewsDelta    Metric = "views_delta"
	MetricViewsDeltaPct Metric = "views_delta_pct"
)

// ParseMetric accepts canonical metric names and the dashboard's short
// mode names (delta, pct).
func ParseMetric(value string) (Metric, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "views":
		return MetricViews, nil
	case "views_delta", "delta":
		return MetricViewsDelta, nil
	case "views_delta_pct", "pct":
		return MetricViewsDeltaPct, nil
	default:
		return "", services.Wrap(services.ErrValidation, "ranking", "parse metric", fmt.Sprintf("unknown metric %q", value), nil)
	}
}

// Mode returns the short dashboard name of the metric.
func (m Metric) Mode() string {
	switch m {
	case MetricViewsDelta:
		return "delta"
	case MetricViewsDeltaPct:
		return "pct"
	default:
		return "views"
	}
}

// PreferredMetric ranks by percentage growth once any entity has been
// annotated with it, and by raw views before that.
func PreferredMetric(snap *snapshot.Snapshot) Metric {
	if snap.HasPercentDeltas() {
		return MetricViewsDeltaPct
	}
	return MetricViews
}

// TopN returns at most n rows sorted by metric, descending. Entities with
// fewer than minViews views are excluded, and so are entities whose delta
// metric is unavailable. Equal values are ordered by entity key.
func TopN(snap *snapshot.Snapshot, metric Metric, n int, minViews int64) []snapshot.RankedRow {
	rows := []snapshot.RankedRow{}
	if n <= 0 || snap.Len() == 0 {
		return rows
	}

	for key, e := range snap.Entities {
		if e == nil || e.Views < 0 || e.Views < minViews {
			continue
		}
		value, ok := sortValue(e, metric)
		if !ok {
			continue
		}
		rows = append(rows, snapshot.RankedRow{
			EntityKey:    key,
			ChannelName:  e.ChannelName,
			VideoID:      e.VideoID,
			Label:        e.Label,
			CurrentValue: e.Views,
			Delta:        value,
		})
	}

	slices.SortFunc(rows, func(a, b snapshot.RankedRow) int {
		if c := cmp.Compare(b.Delta, a.Delta); c != 0 {
			return c
		}
		return strings.Compare(a.EntityKey, b.EntityKey)
	})

	if len(rows) > n {
		rows = rows[:n]
	}
	return rows
}

func sortValue(e *snapshot.Entity, metric Metric) (float64, bool) {
	switch metric {
	case MetricViews:
		return float64(e.Views), true
	case MetricViewsDelta:
		return e.ViewsDelta.Float()
	case MetricViewsDeltaPct:
		return e.ViewsDeltaPct.Float()
	default:
		return 0, false
	}
}

// Format renders a RankedRow delta for display: a signed percentage for
// views_delta_pct, a signed count for views_delta, and a plain count for
// views.
func (m Metric) Format(value float64) string {
	switch m {
	case MetricViewsDeltaPct:
		return fmt.Sprintf("%+.2f%%", value)
	case MetricViewsDelta:
		return textutil.FormatSignedCount(int64(math.Round(value)))
	default:
		return textutil.FormatCount(int64(math.Round(value)))
	}
}
