// Package guard persists the time of the last full refresh and decides
// whether a new refresh may run under a minimum-interval policy.
package guard

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"tubepulse/internal/fileutil"
	"tubepulse/internal/logging"
	"tubepulse/internal/snapshot"
)

// Decision is the result of a guard check.
type Decision struct {
	Allowed bool
	LastRun time.Time // zero when no run was recorded
	NextRun time.Time // earliest permitted run; zero when allowed
}

type state struct {
	LastRun string `json:"last_run"`
}

// Guard reads and writes the last-run document at a fixed path.
type Guard struct {
	path   string
	logger *slog.Logger
}

// New returns a guard backed by the JSON document at path.
func New(path string, logger *slog.Logger) *Guard {
	return &Guard{path: path, logger: logging.NewComponentLogger(logger, "guard")}
}

// Path returns the location of the guard document.
func (g *Guard) Path() string { return g.path }

// Last returns the recorded last run. A missing or corrupt document yields
// the zero time.
func (g *Guard) Last() time.Time {
	data, err := os.ReadFile(g.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			g.warn(err)
		}
		return time.Time{}
	}
	var st state
	if err := json.Unmarshal(data, &st); err != nil {
		g.warn(fmt.Errorf("decode guard state: %w", err))
		return time.Time{}
	}
	if st.LastRun == "" {
		return time.Time{}
	}
	t, err := snapshot.ParseTime(st.LastRun)
	if err != nil {
		g.warn(err)
		return time.Time{}
	}
	return t
}

// Check allows a run when none was recorded or at least interval has passed
// since the last one. A non-positive interval always allows.
func (g *Guard) Check(now time.Time, interval time.Duration) Decision {
	last := g.Last()
	if last.IsZero() || interval <= 0 {
		return Decision{Allowed: true, LastRun: last}
	}
	if now.Sub(last) >= interval {
		return Decision{Allowed: true, LastRun: last}
	}
	return Decision{Allowed: false, LastRun: last, NextRun: last.Add(interval)}
}

// Record stores now as the last run.
func (g *Guard) Record(now time.Time) error {
	if err := fileutil.WriteJSONAtomic(g.path, state{LastRun: snapshot.FormatTime(now)}); err != nil {
		return fmt.Errorf("record guard: %w", err)
	}
	return nil
}

func (g *Guard) warn(err error) {
	logging.WarnWithContext(g.logger, "guard state unreadable; treating as never run", "guard_load_failed",
		logging.String("path", g.path),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "the next recorded refresh rewrites the file"),
		logging.String(logging.FieldImpact, "the refresh interval is not enforced for this run"))
}
