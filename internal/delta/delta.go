// Package delta compares a fresh snapshot against the previously persisted one
// and annotates every current entity with raw and percentage deltas.
package delta

import (
	"strconv"

	"tubepulse/internal/snapshot"
)

// Deltas holds the raw per-metric changes for one entity.
type Deltas struct {
	Views       snapshot.Value[int64]
	Likes       snapshot.Value[int64]
	Comments    snapshot.Value[int64]
	Subscribers snapshot.Value[int64]
}

func unavailable() Deltas {
	na := snapshot.NotAvailable[int64]()
	return Deltas{Views: na, Likes: na, Comments: na, Subscribers: na}
}

// Compute returns the deltas for every entity in current. Entities with no
// counterpart in previous, or every entity when previous is nil or empty, get
// NotAvailable deltas. Entities only present in previous are ignored.
func Compute(previous, current *snapshot.Snapshot) map[string]Deltas {
	if current == nil {
		return map[string]Deltas{}
	}
	out := make(map[string]Deltas, len(current.Entities))
	for key, cur := range current.Entities {
		if cur == nil {
			continue
		}
		var prev *snapshot.Entity
		if previous.Len() > 0 {
			prev = previous.Entities[key]
		}
		if prev == nil {
			out[key] = unavailable()
			continue
		}
		out[key] = Deltas{
			Views:       snapshot.Of(cur.Views - prev.Views),
			Likes:       snapshot.Of(cur.Likes - prev.Likes),
			Comments:    snapshot.Of(cur.Comments - prev.Comments),
			Subscribers: snapshot.Of(cur.Subscribers - prev.Subscribers),
		}
	}
	return out
}

// Apply copies the computed deltas into current and derives views_delta_pct.
// It mutates and returns current. Pass the result only as the next cycle's
// previous snapshot; re-applying to an annotated snapshot recomputes against
// whatever previous is given.
func Apply(previous, current *snapshot.Snapshot) *snapshot.Snapshot {
	if current == nil {
		return nil
	}
	for key, d := range Compute(previous, current) {
		e := current.Entities[key]
		e.ViewsDelta = d.Views
		e.LikesDelta = d.Likes
		e.CommentsDelta = d.Comments
		e.SubscribersDelta = d.Subscribers
		e.ViewsDeltaPct = Percent(e.Views, d.Views)
	}
	return current
}

// Percent derives the views growth percentage from the current views and
// the raw views delta. The baseline is current minus delta; a non-positive
// baseline or an unavailable delta yields NotAvailable.
func Percent(views int64, viewsDelta snapshot.Value[int64]) snapshot.Value[float64] {
	d, ok := viewsDelta.Get()
	if !ok {
		return snapshot.NotAvailable[float64]()
	}
	base := views - d
	if base <= 0 {
		return snapshot.NotAvailable[float64]()
	}
	return snapshot.Of(round2(float64(d) / float64(base) * 100))
}

// round2 rounds to two decimal places from the exact binary value, so
// exact halves go to the even digit (0.125 becomes 0.12).
func round2(f float64) float64 {
	r, err := strconv.ParseFloat(strconv.FormatFloat(f, 'f', 2, 64), 64)
	if err != nil {
		return f
	}
	return r
}
