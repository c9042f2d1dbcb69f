package sources_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tubepulse/internal/config"
	"tubepulse/internal/logging"
	"tubepulse/internal/services"
	"tubepulse/internal/sources"
)

type fakeResolver struct {
	ids map[string]string
	err error
}

func (f fakeResolver) ResolveChannelID(_ context.Context, url string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if id, ok := f.ids[url]; ok {
		return id, nil
	}
	return "", errors.New("not found")
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadChannelsJSONAndYAML(t *testing.T) {
	jsonPath := writeFile(t, "channels.json", `[
  {"key": "tech", "channel_id": "UC1", "label": "Tech", "group": "g"},
  {"key": "", "channel_id": "UC2"},
  {"key": "no_id"}
]`)
	channels := sources.LoadChannels(jsonPath, logging.NewNop())
	if len(channels) != 2 || channels[0].ChannelID != "UC1" {
		t.Fatalf("unexpected channels %+v", channels)
	}
	if channels[1].Key != "channel" || channels[1].ChannelID != "UC2" {
		t.Fatalf("keyless entry should default its key, got %+v", channels[1])
	}

	yamlPath := writeFile(t, "channels.yaml", `
- key: news_daily
  channel_id: UC9
  group: news
`)
	channels = sources.LoadChannels(yamlPath, logging.NewNop())
	if len(channels) != 1 || channels[0].Key != "news_daily" {
		t.Fatalf("unexpected yaml channels %+v", channels)
	}
	if got := channels[0].DisplayLabel(); got != "News Daily" {
		t.Fatalf("DisplayLabel = %q", got)
	}
}

func TestLoadKeywordsDropsEmptyGroups(t *testing.T) {
	path := writeFile(t, "keywords.json", `[
  {"key": "ai", "label": "AI", "queries": [" llm ", "", "agents"]},
  {"key": "empty", "queries": ["  "]},
  {"label": "Unkeyed", "queries": ["rust"]}
]`)
	keywords := sources.LoadKeywords(path, logging.NewNop())
	if len(keywords) != 2 {
		t.Fatalf("expected 2 keyword groups, got %+v", keywords)
	}
	if keywords[1].Key != "keyword" || keywords[1].DisplayLabel() != "Unkeyed" {
		t.Fatalf("keyless group should default its key, got %+v", keywords[1])
	}
	if strings.Join(keywords[0].Queries, "|") != "llm|agents" {
		t.Fatalf("unexpected queries %v", keywords[0].Queries)
	}
}

func TestLoadMissingOrMalformedYieldsEmpty(t *testing.T) {
	if got := sources.LoadChannels(filepath.Join(t.TempDir(), "absent.json"), logging.NewNop()); len(got) != 0 {
		t.Fatalf("expected empty list, got %v", got)
	}
	bad := writeFile(t, "keywords.json", "{broken")
	if got := sources.LoadKeywords(bad, logging.NewNop()); len(got) != 0 {
		t.Fatalf("expected empty list, got %v", got)
	}
}

func TestTrackedMergesInlineAndFile(t *testing.T) {
	path := writeFile(t, "tracked.yaml", `
- key: video1
  video_id: shadowed
- video_id: fromfile
  channel_name: File Channel
- key: blank
`)
	cfg := config.Default()
	cfg.Tracked = []config.TrackedVideo{{Key: "video1", VideoID: "inline", ChannelName: "Inline"}}
	cfg.Sources.TrackedPath = path

	tracked := sources.Tracked(&cfg, logging.NewNop())
	if len(tracked) != 2 {
		t.Fatalf("expected 2 tracked videos, got %+v", tracked)
	}
	if tracked[0].VideoID != "inline" {
		t.Fatalf("inline entry should win, got %+v", tracked[0])
	}
	if tracked[1].Key != "fromfile" || tracked[1].ChannelName != "File Channel" {
		t.Fatalf("unexpected file entry %+v", tracked[1])
	}
}

func TestImportChannelsCSV(t *testing.T) {
	csv := "\ufeffkey,url,label,group\n" +
		"tech,https://www.youtube.com/@tech,,science\n" +
		"missing,,Missing,\n" +
		"broken,https://example.com/x,Broken,\n" +
		"news, https://www.youtube.com/channel/UCnews ,News Desk,news\n"
	resolver := fakeResolver{ids: map[string]string{
		"https://www.youtube.com/@tech":         "UCtech",
		"https://www.youtube.com/channel/UCnews": "UCnews",
	}}

	channels, report, err := sources.ImportChannelsCSV(context.Background(), strings.NewReader(csv), resolver, logging.NewNop())
	if err != nil {
		t.Fatalf("ImportChannelsCSV: %v", err)
	}
	if report.Imported != 2 || report.Skipped != 2 {
		t.Fatalf("unexpected report %+v", report)
	}
	if channels[0] != (sources.Channel{Key: "tech", ChannelID: "UCtech", Label: "tech", Group: "science"}) {
		t.Fatalf("unexpected first channel %+v", channels[0])
	}
	if channels[1].Label != "News Desk" || channels[1].ChannelID != "UCnews" {
		t.Fatalf("unexpected second channel %+v", channels[1])
	}
}

func TestImportChannelsCSVStopsOnConfigurationError(t *testing.T) {
	csv := "key,url,label,group\ntech,https://www.youtube.com/@tech,,\n"
	resolver := fakeResolver{err: services.Wrap(services.ErrConfiguration, "youtube", "init", "no key", nil)}
	if _, _, err := sources.ImportChannelsCSV(context.Background(), strings.NewReader(csv), resolver, logging.NewNop()); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestImportKeywordsCSVAndWriteJSON(t *testing.T) {
	csv := "key,label,group,queries\n" +
		"ai,AI News,tech,large language models; ai agents ;\n" +
		"blank,Blank,,\n" +
		",NoKey,,query\n"
	keywords, report, err := sources.ImportKeywordsCSV(strings.NewReader(csv), logging.NewNop())
	if err != nil {
		t.Fatalf("ImportKeywordsCSV: %v", err)
	}
	if report.Imported != 1 || report.Skipped != 2 {
		t.Fatalf("unexpected report %+v", report)
	}
	if strings.Join(keywords[0].Queries, "|") != "large language models|ai agents" {
		t.Fatalf("unexpected queries %v", keywords[0].Queries)
	}

	out := filepath.Join(t.TempDir(), "out", "keywords.json")
	if err := sources.WriteJSON(out, keywords); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	reloaded := sources.LoadKeywords(out, logging.NewNop())
	if len(reloaded) != 1 || reloaded[0].Label != "AI News" {
		t.Fatalf("unexpected reloaded keywords %+v", reloaded)
	}
}
