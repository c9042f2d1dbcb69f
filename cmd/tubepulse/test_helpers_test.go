package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"tubepulse/internal/logging"
	"tubepulse/internal/snapshot"
	"tubepulse/internal/store"
)

// fakeYouTube serves the videos.list endpoint from an in-memory view table.
type fakeYouTube struct {
	mu     sync.Mutex
	views  map[string]int64
	titles map[string]string
	calls  int
}

func (f *fakeYouTube) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++

	if r.URL.Query().Get("key") != "test-key" {
		http.Error(w, `{"error":{"code":400,"message":"API key not valid"}}`, http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if !strings.HasSuffix(r.URL.Path, "/videos") {
		_ = json.NewEncoder(w).Encode(map[string]any{"items": []any{}})
		return
	}
	items := []map[string]any{}
	for _, id := range strings.Split(strings.Join(r.URL.Query()["id"], ","), ",") {
		views, ok := f.views[id]
		if !ok {
			continue
		}
		items = append(items, map[string]any{
			"id":         id,
			"snippet":    map[string]any{"title": f.titles[id], "channelTitle": "Test Channel"},
			"statistics": map[string]any{"viewCount": fmt.Sprint(views), "likeCount": "10", "commentCount": "2"},
		})
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"items": items})
}

func (f *fakeYouTube) setViews(id string, views int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.views[id] = views
}

func (f *fakeYouTube) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type cliTestEnv struct {
	configPath string
	dataDir    string
	baseDir    string
	youtube    *fakeYouTube
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	for _, name := range []string{"YOUTUBE_API_KEY", "REFRESH_TOKEN", "TUBEPULSE_DASHBOARD_URL", "BASE_URL", "TUBEPULSE_LOG_LEVEL", "TUBEPULSE_BIND", "TUBEPULSE_DATA_DIR"} {
		t.Setenv(name, "")
	}
	t.Setenv("NO_COLOR", "1")

	yt := &fakeYouTube{
		views:  map[string]int64{"vid1": 100000, "vid2": 40000},
		titles: map[string]string{"vid1": "First upload", "vid2": "Second upload"},
	}
	srv := httptest.NewServer(yt)
	t.Cleanup(srv.Close)

	env := &cliTestEnv{
		configPath: filepath.Join(homeDir, ".config", "tubepulse", "config.toml"),
		dataDir:    filepath.Join(base, "data"),
		baseDir:    base,
		youtube:    yt,
	}
	if err := os.MkdirAll(filepath.Dir(env.configPath), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}

	content := fmt.Sprintf(`[paths]
data_dir = %q
log_dir = %q

[youtube]
api_key = "test-key"
base_url = %q
requests_per_second = 1000

[sources]
channels_path = %q
keywords_path = %q
channels_csv = %q
keywords_csv = %q

[[tracked]]
key = "video1"
video_id = "vid1"
channel_name = "Test Channel"

[[tracked]]
key = "video2"
video_id = "vid2"
channel_name = "Test Channel"
label = "Second"

[ranking]
min_views = 0
top_n = 16

[web]
refresh_token = "s3cret"

[logging]
level = "error"
`,
		env.dataDir,
		filepath.Join(base, "logs"),
		srv.URL,
		filepath.Join(base, "channels.json"),
		filepath.Join(base, "keywords.json"),
		filepath.Join(base, "channels.csv"),
		filepath.Join(base, "keywords.csv"),
	)
	if err := os.WriteFile(env.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return env
}

func (e *cliTestEnv) snapshotPath() string {
	return filepath.Join(e.dataDir, "youtube_metrics.json")
}

func (e *cliTestEnv) seedSnapshot(t *testing.T, snap *snapshot.Snapshot) {
	t.Helper()
	st := store.NewJSONFile(e.snapshotPath(), logging.NewNop())
	if err := st.Save(context.Background(), snap); err != nil {
		t.Fatalf("seed snapshot: %v", err)
	}
}

func (e *cliTestEnv) loadSnapshot(t *testing.T) *snapshot.Snapshot {
	t.Helper()
	st := store.NewJSONFile(e.snapshotPath(), logging.NewNop())
	snap, err := st.Load(context.Background())
	if err != nil {
		t.Fatalf("load snapshot: %v", err)
	}
	return snap
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	return runCLIWithInput(t, args, configPath, "")
}

func runCLIWithInput(t *testing.T, args []string, configPath, input string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(input))
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
