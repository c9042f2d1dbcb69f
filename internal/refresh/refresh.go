// Package refresh runs one refresh cycle: take the cross-process lock,
// consult the interval guard, build a snapshot, merge it with the
// persisted one, save, and record the run.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"tubepulse/internal/builder"
	"tubepulse/internal/delta"
	"tubepulse/internal/guard"
	"tubepulse/internal/logging"
	"tubepulse/internal/snapshot"
	"tubepulse/internal/store"
)

// Status is the outcome class of a refresh run.
type Status string

const (
	StatusOK            Status = "ok"
	StatusSkippedRecent Status = "skipped_recent"
	StatusNoVideos      Status = "error_no_videos"
	StatusBusy          Status = "busy"
)

// Request describes one refresh.
type Request struct {
	Builder builder.Builder
	// Interval is the minimum time since the last recorded run. Zero
	// disables the guard check.
	Interval time.Duration
	// Record stores the run time in the guard after a successful save.
	Record bool
}

// Outcome reports what a refresh did.
type Outcome struct {
	Status    Status
	RunID     string
	Message   string
	Timestamp string
	Count     int
	LastRun   time.Time
	NextRun   time.Time
	Snapshot  *snapshot.Snapshot
}

// Runner executes refresh cycles against one store and guard.
type Runner struct {
	store    store.Store
	guard    *guard.Guard
	lockPath string
	logger   *slog.Logger
	now      func() time.Time
}

// Option customizes a Runner.
type Option func(*Runner)

// WithClock overrides the time source used for guard checks.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		if now != nil {
			r.now = now
		}
	}
}

// NewRunner returns a runner. The lock file is created on first use.
func NewRunner(st store.Store, g *guard.Guard, lockPath string, logger *slog.Logger, opts ...Option) *Runner {
	r := &Runner{
		store:    st,
		guard:    g,
		lockPath: lockPath,
		logger:   logging.NewComponentLogger(logger, "refresh"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes one refresh. Errors are returned only for failures that
// leave the persisted snapshot untouched and need operator attention:
// configuration problems, cancellation, and storage failures.
func (r *Runner) Run(ctx context.Context, req Request) (Outcome, error) {
	if req.Builder == nil {
		return Outcome{}, errors.New("refresh: nil builder")
	}
	runID := uuid.NewString()
	ctx = logging.WithRunID(ctx, runID)
	ctx = logging.WithMode(ctx, req.Builder.Name())
	logger := logging.WithContext(ctx, r.logger)
	out := Outcome{RunID: runID}

	lock, err := r.acquire()
	if err != nil {
		return out, err
	}
	if lock == nil {
		logger.Info("refresh already in progress", logging.String(logging.FieldEventType, "refresh_busy"))
		out.Status = StatusBusy
		out.Message = "A refresh is already in progress."
		return out, nil
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("failed to release refresh lock", logging.Error(err))
		}
	}()

	if req.Interval > 0 && r.guard != nil {
		decision := r.guard.Check(r.now(), req.Interval)
		if !decision.Allowed {
			logger.Info("refresh skipped by guard",
				logging.String(logging.FieldEventType, "refresh_skipped"),
				logging.Time("last_run", decision.LastRun),
				logging.Time("next_run", decision.NextRun))
			out.Status = StatusSkippedRecent
			out.Message = fmt.Sprintf("Already refreshed within last %s.", HumanInterval(req.Interval))
			out.LastRun = decision.LastRun
			out.NextRun = decision.NextRun
			return out, nil
		}
	}

	started := time.Now()
	current, err := req.Builder.Build(ctx)
	if err != nil {
		return out, fmt.Errorf("build snapshot: %w", err)
	}
	if current.Len() == 0 {
		logging.WarnWithContext(logger, "refresh fetched no videos; keeping previous snapshot", "refresh_no_videos",
			logging.String(logging.FieldErrorHint, "check the API key, quota and source lists"),
			logging.String(logging.FieldImpact, "persisted snapshot left unchanged"))
		out.Status = StatusNoVideos
		out.Message = "No videos fetched (likely quota or config issue)."
		return out, nil
	}

	previous, err := r.store.Load(ctx)
	if err != nil {
		return out, fmt.Errorf("load previous snapshot: %w", err)
	}
	current = delta.Apply(previous, current)
	if err := r.store.Save(ctx, current); err != nil {
		return out, fmt.Errorf("save snapshot: %w", err)
	}

	if req.Record && r.guard != nil {
		if err := r.guard.Record(r.now()); err != nil {
			logging.WarnWithContext(logger, "failed to record refresh time", "guard_record_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "the next refresh is not rate limited"))
		}
	}

	out.Status = StatusOK
	out.Timestamp = current.Timestamp
	out.Count = current.Len()
	out.Snapshot = current
	logger.Info("refresh completed",
		logging.String(logging.FieldEventType, "refresh_completed"),
		logging.Int("entity_count", out.Count),
		logging.Bool("had_previous", previous != nil),
		logging.String("location", r.store.Location()),
		logging.Duration("elapsed", time.Since(started)))
	return out, nil
}

// acquire try-locks the refresh lock. A nil lock with a nil error means
// another refresh holds it.
func (r *Runner) acquire() (*flock.Flock, error) {
	if r.lockPath == "" {
		return nil, errors.New("refresh: lock path not configured")
	}
	if err := os.MkdirAll(filepath.Dir(r.lockPath), 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	lock := flock.New(r.lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire refresh lock: %w", err)
	}
	if !ok {
		return nil, nil
	}
	return lock, nil
}

// HumanInterval renders d as "24 hours", "1 minute" or the Go duration
// string when it is not a whole number of hours or minutes.
func HumanInterval(d time.Duration) string {
	unit := func(n int64, name string) string {
		if n == 1 {
			return "1 " + name
		}
		return fmt.Sprintf("%d %ss", n, name)
	}
	switch {
	case d >= time.Hour && d%time.Hour == 0:
		return unit(int64(d/time.Hour), "hour")
	case d >= time.Minute && d%time.Minute == 0:
		return unit(int64(d/time.Minute), "minute")
	default:
		return d.String()
	}
}
