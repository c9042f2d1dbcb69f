package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"tubepulse/internal/logging"
	"tubepulse/internal/snapshot"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS snapshot (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    taken_at TEXT NOT NULL,
    document TEXT NOT NULL,
    updated_at TEXT NOT NULL
)`

// SQLite keeps the snapshot document in a single-row table.
type SQLite struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// OpenSQLite opens or creates the database at path and applies the schema.
func OpenSQLite(path string, logger *slog.Logger) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &SQLite{db: db, path: path, logger: logging.NewComponentLogger(logger, "store")}, nil
}

func (s *SQLite) Location() string { return s.path }

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Load reads the stored document. Missing rows and undecodable documents
// yield nil, nil.
func (s *SQLite) Load(ctx context.Context) (*snapshot.Snapshot, error) {
	var document string
	err := s.db.QueryRowContext(ctx, `SELECT document FROM snapshot WHERE id = 1`).Scan(&document)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Debug("no persisted snapshot", logging.String("path", s.path))
			return nil, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		warnUnreadable(s.logger, s.path, err)
		return nil, nil
	}

	var snap snapshot.Snapshot
	if err := json.Unmarshal([]byte(document), &snap); err != nil {
		warnUnreadable(s.logger, s.path, fmt.Errorf("decode snapshot: %w", err))
		return nil, nil
	}
	return &snap, nil
}

// Save upserts the single row inside a transaction.
func (s *SQLite) Save(ctx context.Context, snap *snapshot.Snapshot) error {
	if snap == nil {
		return fmt.Errorf("save snapshot: nil snapshot")
	}
	document, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO snapshot (id, taken_at, document, updated_at) VALUES (1, ?, ?, ?)
         ON CONFLICT(id) DO UPDATE SET taken_at = excluded.taken_at, document = excluded.document, updated_at = excluded.updated_at`,
		snap.Timestamp,
		string(document),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("upsert snapshot: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	s.logger.Debug("saved snapshot",
		logging.String("path", s.path),
		logging.Int("entities", snap.Len()))
	return nil
}
