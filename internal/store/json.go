package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"tubepulse/internal/fileutil"
	"tubepulse/internal/logging"
	"tubepulse/internal/snapshot"
)

// JSONFile keeps the snapshot as an indented JSON document on disk.
type JSONFile struct {
	path   string
	logger *slog.Logger
}

// NewJSONFile returns a store backed by the file at path.
func NewJSONFile(path string, logger *slog.Logger) *JSONFile {
	return &JSONFile{path: path, logger: logging.NewComponentLogger(logger, "store")}
}

func (s *JSONFile) Location() string { return s.path }

func (s *JSONFile) Close() error { return nil }

// Load reads the document. Any failure is logged and yields nil, nil.
func (s *JSONFile) Load(ctx context.Context) (*snapshot.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.Debug("no persisted snapshot", logging.String("path", s.path))
			return nil, nil
		}
		warnUnreadable(s.logger, s.path, err)
		return nil, nil
	}

	var snap snapshot.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		warnUnreadable(s.logger, s.path, fmt.Errorf("decode snapshot: %w", err))
		return nil, nil
	}

	s.logger.Debug("loaded snapshot",
		logging.String("path", s.path),
		logging.Int("entities", snap.Len()),
		logging.String("timestamp", snap.Timestamp))
	return &snap, nil
}

// Save replaces the document atomically.
func (s *JSONFile) Save(ctx context.Context, snap *snapshot.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if snap == nil {
		return fmt.Errorf("save snapshot: nil snapshot")
	}
	if err := fileutil.WriteJSONAtomic(s.path, snap); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	s.logger.Debug("saved snapshot",
		logging.String("path", s.path),
		logging.Int("entities", snap.Len()))
	return nil
}
