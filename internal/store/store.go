// Package store persists the single current snapshot document.
//
// Load fails soft: a missing, unreadable, or malformed document is reported
// as a nil snapshot and logged, so callers treat it as a first run. Save
// replaces the whole document in one step; no reader observes a partial write.
package store

import (
	"context"
	"fmt"
	"log/slog"

	"tubepulse/internal/config"
	"tubepulse/internal/logging"
	"tubepulse/internal/snapshot"
)

// Store loads and saves the persisted snapshot.
type Store interface {
	Load(ctx context.Context) (*snapshot.Snapshot, error)
	Save(ctx context.Context, snap *snapshot.Snapshot) error
	Location() string
	Close() error
}

// Open returns the backend selected by storage.backend.
func Open(cfg *config.Config, logger *slog.Logger) (Store, error) {
	if cfg == nil {
		return nil, fmt.Errorf("open store: nil config")
	}
	switch cfg.Storage.Backend {
	case config.BackendSQLite:
		return OpenSQLite(cfg.Storage.SQLitePath, logger)
	case config.BackendJSON, "":
		return NewJSONFile(cfg.Storage.SnapshotPath, logger), nil
	default:
		return nil, fmt.Errorf("open store: unsupported backend %q", cfg.Storage.Backend)
	}
}

func warnUnreadable(logger *slog.Logger, location string, err error) {
	logging.WarnWithContext(logger, "persisted snapshot unreadable; treating as absent", "snapshot_load_failed",
		logging.String("location", location),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "the next successful refresh overwrites the document"),
		logging.String(logging.FieldImpact, "deltas for this cycle are not available"))
}
