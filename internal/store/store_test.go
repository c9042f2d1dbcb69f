package store_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"tubepulse/internal/config"
	"tubepulse/internal/delta"
	"tubepulse/internal/logging"
	"tubepulse/internal/snapshot"
	"tubepulse/internal/store"
)

func sample() *snapshot.Snapshot {
	snap := snapshot.New(time.Date(2025, 2, 3, 4, 5, 6, 0, time.UTC))
	snap.Put("channel_demo_v1", &snapshot.Entity{
		ChannelName: "Demo",
		VideoID:     "v1",
		Views:       44000,
		Likes:       100,
		Label:       "Demo – First",
	})
	prev := snapshot.New(time.Date(2025, 2, 2, 4, 5, 6, 0, time.UTC))
	prev.Put("channel_demo_v1", &snapshot.Entity{Views: 40000, Likes: 90})
	return delta.Apply(prev, snap)
}

func backends(t *testing.T) map[string]store.Store {
	t.Helper()
	dir := t.TempDir()
	sqlite, err := store.OpenSQLite(filepath.Join(dir, "db", "tubepulse.db"), logging.NewNop())
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { _ = sqlite.Close() })
	return map[string]store.Store{
		"json":   store.NewJSONFile(filepath.Join(dir, "snap", "youtube_metrics.json"), logging.NewNop()),
		"sqlite": sqlite,
	}
}

func TestLoadMissingReturnsNil(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			snap, err := s.Load(context.Background())
			if err != nil || snap != nil {
				t.Fatalf("Load() = %v, %v; want nil, nil", snap, err)
			}
		})
	}
}

func TestSaveThenLoadRoundTripsDeltas(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if err := s.Save(ctx, sample()); err != nil {
				t.Fatalf("Save: %v", err)
			}
			got, err := s.Load(ctx)
			if err != nil || got == nil {
				t.Fatalf("Load() = %v, %v", got, err)
			}
			if got.Timestamp != "2025-02-03T04:05:06Z" {
				t.Fatalf("timestamp = %q", got.Timestamp)
			}
			e := got.Entities["channel_demo_v1"]
			if e == nil || e.Views != 44000 || e.Label != "Demo – First" {
				t.Fatalf("unexpected entity %+v", e)
			}
			if d, ok := e.ViewsDelta.Get(); !ok || d != 4000 {
				t.Fatalf("views delta = %v", e.ViewsDelta)
			}
			if p, ok := e.ViewsDeltaPct.Get(); !ok || p != 10.0 {
				t.Fatalf("pct = %v", e.ViewsDeltaPct)
			}
			if d, ok := e.SubscribersDelta.Get(); !ok || d != 0 {
				t.Fatalf("subscribers delta = %v, want 0", e.SubscribersDelta)
			}

			// A second save overwrites the single document.
			next := snapshot.New(time.Date(2025, 2, 4, 0, 0, 0, 0, time.UTC))
			next.Put("other", &snapshot.Entity{Views: 1})
			if err := s.Save(ctx, next); err != nil {
				t.Fatalf("second Save: %v", err)
			}
			got, _ = s.Load(ctx)
			if got.Len() != 1 || got.Entities["other"] == nil {
				t.Fatalf("expected overwritten document, got %v", got.Keys())
			}
		})
	}
}

func TestJSONLoadMalformedFailsSoft(t *testing.T) {
	cases := map[string]string{
		"garbage":     "{not json",
		"no entities": `{"timestamp":"2025-01-01T00:00:00Z"}`,
		"wrong types": `{"timestamp":"x","entities":{"a":{"views":"many"}}}`,
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "youtube_metrics.json")
			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				t.Fatal(err)
			}
			snap, err := store.NewJSONFile(path, logging.NewNop()).Load(context.Background())
			if err != nil || snap != nil {
				t.Fatalf("Load() = %v, %v; want nil, nil", snap, err)
			}
		})
	}
}

func TestJSONLoadLegacyDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "youtube_metrics.json")
	legacy := `{"timestamp":"2024-05-01T10:00:00.5","videos":{"video1":{"channel_name":"A","video_id":"x","views":30000,"likes":1,"comments":2,"subscribers":0,"label":"A","views_delta":"N/A","likes_delta":"N/A","comments_delta":"N/A","subscribers_delta":"N/A","views_delta_pct":"N/A"}}}`
	if err := os.WriteFile(path, []byte(legacy), 0o644); err != nil {
		t.Fatal(err)
	}
	snap, err := store.NewJSONFile(path, logging.NewNop()).Load(context.Background())
	if err != nil || snap == nil {
		t.Fatalf("Load() = %v, %v", snap, err)
	}
	e := snap.Entities["video1"]
	if e == nil || e.ViewsDelta.Available() || !e.ViewsDelta.Annotated() {
		t.Fatalf("unexpected legacy entity %+v", e)
	}
}

func TestOpenSelectsBackend(t *testing.T) {
	cfg := config.Default()
	dir := t.TempDir()
	cfg.Storage.SnapshotPath = filepath.Join(dir, "s.json")
	cfg.Storage.SQLitePath = filepath.Join(dir, "s.db")

	s, err := store.Open(&cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("Open json: %v", err)
	}
	if s.Location() != cfg.Storage.SnapshotPath {
		t.Fatalf("json location = %q", s.Location())
	}
	_ = s.Close()

	cfg.Storage.Backend = config.BackendSQLite
	s, err = store.Open(&cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("Open sqlite: %v", err)
	}
	defer s.Close()
	if s.Location() != cfg.Storage.SQLitePath {
		t.Fatalf("sqlite location = %q", s.Location())
	}

	cfg.Storage.Backend = "redis"
	if _, err := store.Open(&cfg, logging.NewNop()); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}
