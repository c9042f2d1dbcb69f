package web_test

import (
	"context"
	"encoding/json"
	"html"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"tubepulse/internal/builder"
	"tubepulse/internal/delta"
	"tubepulse/internal/guard"
	"tubepulse/internal/logging"
	"tubepulse/internal/refresh"
	"tubepulse/internal/services"
	"tubepulse/internal/snapshot"
	"tubepulse/internal/store"
	"tubepulse/internal/web"
)

type stubBuilder struct {
	entities map[string]*snapshot.Entity
}

func (b stubBuilder) Name() string { return "stub" }

func (b stubBuilder) Build(context.Context) (*snapshot.Snapshot, error) {
	snap := snapshot.New(time.Now())
	for key, e := range b.entities {
		copied := *e
		snap.Put(key, &copied)
	}
	return snap, nil
}

type env struct {
	store   *store.JSONFile
	server  *httptest.Server
	factory func(context.Context) (builder.Builder, error)
}

func newEnv(t *testing.T, token string, tweaks ...func(*web.Options)) *env {
	t.Helper()
	dir := t.TempDir()
	e := &env{store: store.NewJSONFile(filepath.Join(dir, "youtube_metrics.json"), logging.NewNop())}
	e.factory = func(context.Context) (builder.Builder, error) {
		return stubBuilder{entities: map[string]*snapshot.Entity{
			"channel_a_v1": {VideoID: "v1", Views: 50000, Label: "A – One"},
		}}, nil
	}
	runner := refresh.NewRunner(e.store, guard.New(filepath.Join(dir, "last_refresh.json"), logging.NewNop()),
		filepath.Join(dir, "refresh.lock"), logging.NewNop())
	opts := web.Options{
		RefreshToken: token,
		Store:        e.store,
		Runner:       runner,
		NewBuilder:   func(ctx context.Context) (builder.Builder, error) { return e.factory(ctx) },
		Interval:     24 * time.Hour,
		MinViews:     25000,
		Logger:       logging.NewNop(),
	}
	for _, tweak := range tweaks {
		tweak(&opts)
	}
	srv := web.New(opts)
	e.server = httptest.NewServer(srv.Handler())
	t.Cleanup(e.server.Close)
	return e
}

func (e *env) seed(t *testing.T) {
	t.Helper()
	prev := snapshot.New(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	prev.Put("big", &snapshot.Entity{Views: 100000})
	prev.Put("fast", &snapshot.Entity{Views: 30000})
	prev.Put("small", &snapshot.Entity{Views: 1000})
	cur := snapshot.New(time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC))
	cur.Put("big", &snapshot.Entity{VideoID: "vb", ChannelName: "Big", Views: 110000, Label: "Big – Steady"})
	cur.Put("fast", &snapshot.Entity{VideoID: "vf", ChannelName: "Fast", Views: 45000, Label: "Fast – Climber"})
	cur.Put("small", &snapshot.Entity{VideoID: "vs", ChannelName: "Small", Views: 5000, Label: "Small – Hidden"})
	cur.Put("fresh", &snapshot.Entity{VideoID: "vn", ChannelName: "New", Views: 90000, Label: "New – Arrival"})
	if err := e.store.Save(context.Background(), delta.Apply(prev, cur)); err != nil {
		t.Fatalf("Save: %v", err)
	}
}

func do(t *testing.T, method, url string, header http.Header) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(method, url, nil)
	if err != nil {
		t.Fatal(err)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp, string(body)
}

func decode(t *testing.T, body string) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal([]byte(body), &out); err != nil {
		t.Fatalf("decode %q: %v", body, err)
	}
	return out
}

func TestDashboardModes(t *testing.T) {
	e := newEnv(t, "secret")
	e.seed(t)

	resp, body := do(t, http.MethodGet, e.server.URL+"/", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	if !strings.Contains(body, "&#43;50.00%") {
		t.Fatalf("expected the template to escape the sign:\n%s", body)
	}
	body = html.UnescapeString(body)
	if !strings.Contains(body, "Fast – Climber") || !strings.Contains(body, "+50.00%") {
		t.Fatalf("pct dashboard missing fast mover:\n%s", body)
	}
	if strings.Contains(body, "Small – Hidden") || strings.Contains(body, "New – Arrival") {
		t.Fatalf("pct dashboard should hide small and new videos:\n%s", body)
	}

	_, body = do(t, http.MethodGet, e.server.URL+"/?mode=views", nil)
	body = html.UnescapeString(body)
	if !strings.Contains(body, "New – Arrival") || !strings.Contains(body, "110,000") {
		t.Fatalf("views dashboard missing entries:\n%s", body)
	}
}

func TestDashboardZeroMinViewsShowsEveryVideo(t *testing.T) {
	for _, minViews := range []int64{0, -5} {
		e := newEnv(t, "secret", func(o *web.Options) { o.MinViews = minViews })
		e.seed(t)

		_, body := do(t, http.MethodGet, e.server.URL+"/?mode=views", nil)
		body = html.UnescapeString(body)
		if !strings.Contains(body, "Small – Hidden") || !strings.Contains(body, "5,000") {
			t.Fatalf("MinViews=%d should not hide small videos:\n%s", minViews, body)
		}
	}
}

func TestDashboardWithoutSnapshot(t *testing.T) {
	e := newEnv(t, "secret")
	_, body := do(t, http.MethodGet, e.server.URL+"/?mode=delta", nil)
	if !strings.Contains(body, "No data to display.") {
		t.Fatalf("expected empty dashboard:\n%s", body)
	}
}

func TestTopAPI(t *testing.T) {
	e := newEnv(t, "secret")
	e.seed(t)

	resp, body := do(t, http.MethodGet, e.server.URL+"/api/top?metric=views_delta&limit=1", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d: %s", resp.StatusCode, body)
	}
	var top struct {
		Metric string               `json:"metric"`
		Rows   []snapshot.RankedRow `json:"rows"`
	}
	if err := json.Unmarshal([]byte(body), &top); err != nil {
		t.Fatal(err)
	}
	if top.Metric != "views_delta" || len(top.Rows) != 1 || top.Rows[0].EntityKey != "fast" || top.Rows[0].Delta != 15000 {
		t.Fatalf("unexpected response %+v", top)
	}

	if resp, _ := do(t, http.MethodGet, e.server.URL+"/api/top?metric=likes", nil); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("unknown metric status = %d", resp.StatusCode)
	}
	if resp, _ := do(t, http.MethodGet, e.server.URL+"/api/top?limit=-1", nil); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad limit status = %d", resp.StatusCode)
	}
}

func TestTokenRefreshAuthorization(t *testing.T) {
	unset := newEnv(t, "")
	if resp, _ := do(t, http.MethodGet, unset.server.URL+"/refresh/anything", nil); resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("unset token status = %d", resp.StatusCode)
	}

	e := newEnv(t, "secret")
	if resp, _ := do(t, http.MethodGet, e.server.URL+"/refresh/wrong", nil); resp.StatusCode != http.StatusForbidden {
		t.Fatalf("wrong token status = %d", resp.StatusCode)
	}
}

func TestTokenRefreshRunsThenSkips(t *testing.T) {
	e := newEnv(t, "secret")

	resp, body := do(t, http.MethodGet, e.server.URL+"/refresh/secret", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d: %s", resp.StatusCode, body)
	}
	first := decode(t, body)
	if first["status"] != "ok" || first["video_count"] != float64(1) || first["timestamp"] == "" {
		t.Fatalf("unexpected first payload %v", first)
	}

	resp, body = do(t, http.MethodPost, e.server.URL+"/refresh/secret", nil)
	second := decode(t, body)
	if resp.StatusCode != http.StatusOK || second["status"] != "skipped_recent" {
		t.Fatalf("unexpected second payload %d %v", resp.StatusCode, second)
	}
	if second["message"] != "Already refreshed within last 24 hours." || second["last_run"] == nil {
		t.Fatalf("unexpected skip payload %v", second)
	}

	stored, err := e.store.Load(context.Background())
	if err != nil || stored.Len() != 1 {
		t.Fatalf("stored snapshot = %v, %v", stored, err)
	}
}

func TestTokenRefreshNoVideos(t *testing.T) {
	e := newEnv(t, "secret")
	e.factory = func(context.Context) (builder.Builder, error) { return stubBuilder{}, nil }

	_, body := do(t, http.MethodGet, e.server.URL+"/refresh/secret", nil)
	payload := decode(t, body)
	if payload["status"] != "error_no_videos" || payload["message"] == "" {
		t.Fatalf("unexpected payload %v", payload)
	}
}

func TestTokenRefreshConfigurationError(t *testing.T) {
	e := newEnv(t, "secret")
	e.factory = func(context.Context) (builder.Builder, error) {
		return nil, services.Wrap(services.ErrConfiguration, "youtube", "init", "api key missing", nil)
	}
	if resp, _ := do(t, http.MethodGet, e.server.URL+"/refresh/secret", nil); resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestBearerRefresh(t *testing.T) {
	e := newEnv(t, "secret")
	if resp, _ := do(t, http.MethodPost, e.server.URL+"/api/refresh", nil); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("missing header status = %d", resp.StatusCode)
	}
	bad := http.Header{"Authorization": {"Bearer nope"}}
	if resp, _ := do(t, http.MethodPost, e.server.URL+"/api/refresh", bad); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad token status = %d", resp.StatusCode)
	}
	good := http.Header{"Authorization": {"Bearer secret"}}
	resp, body := do(t, http.MethodPost, e.server.URL+"/api/refresh", good)
	if resp.StatusCode != http.StatusOK || decode(t, body)["status"] != "ok" {
		t.Fatalf("unexpected response %d %s", resp.StatusCode, body)
	}
}

func TestHealthz(t *testing.T) {
	e := newEnv(t, "")
	resp, body := do(t, http.MethodGet, e.server.URL+"/healthz", nil)
	if resp.StatusCode != http.StatusOK || decode(t, body)["status"] != "ok" {
		t.Fatalf("unexpected health %d %s", resp.StatusCode, body)
	}
}
