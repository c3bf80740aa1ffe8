package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"NewsFeedRanker/internal/config"
	"NewsFeedRanker/internal/domain"
	"NewsFeedRanker/internal/infrastructure/llm"
	"NewsFeedRanker/internal/infrastructure/ml"
	"NewsFeedRanker/internal/logging"
	"NewsFeedRanker/internal/usecase"
)

func rssServer(t *testing.T) *httptest.Server {
	t.Helper()

	now := time.Now().UTC()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprintf(w, `<?xml version="1.0"?>
<rss version="2.0"><channel><title>Test</title>
<item><title>First story</title><link>https://news.example/1</link><description>One</description><pubDate>%s</pubDate></item>
<item><title>Second story</title><link>https://news.example/2</link><description>Two</description><pubDate>%s</pubDate></item>
<item><title>Third story</title><link>https://news.example/3</link><description>Three</description><pubDate>%s</pubDate></item>
</channel></rss>`,
			now.Add(-1*time.Hour).Format(time.RFC1123Z),
			now.Add(-2*time.Hour).Format(time.RFC1123Z),
			now.Add(-3*time.Hour).Format(time.RFC1123Z))
	}))
	t.Cleanup(server.Close)
	return server
}

func enrichServer(t *testing.T) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"keyword":    "world",
			"importance": "high",
			"summary":    "Something happened",
		})
	}))
	t.Cleanup(server.Close)
	return server
}

func testConfig(t *testing.T, feedURL, enrichURL string) config.Config {
	t.Helper()

	cfg := config.Default()
	cfg.Database = config.DatabaseConfig{Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "app.db")}
	cfg.Fetch.Attempts = 1
	cfg.Fetch.Timeout = 5 * time.Second
	cfg.Enrich.Provider = config.ProviderML
	cfg.Enrich.RatePerSecond = 100
	cfg.ML.InferenceURL = enrichURL
	cfg.Seeds = []config.SourceSeed{{URL: feedURL, Name: "Test Feed", Category: "News", FeedType: "rss"}}
	return cfg
}

func TestApplicationRefreshAndRank(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cfg := testConfig(t, rssServer(t).URL, enrichServer(t).URL)

	application, err := New(ctx, cfg, logging.Discard())
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	defer application.Close()

	added, err := application.Seed(ctx)
	if err != nil || added != 1 {
		t.Fatalf("Seed = %d, %v", added, err)
	}
	if added, err := application.Seed(ctx); err != nil || added != 0 {
		t.Fatalf("second Seed = %d, %v; want 0, nil", added, err)
	}

	out := application.Refresh(ctx)
	if out.Status != usecase.StatusRefreshed || out.Stored != 2 {
		t.Fatalf("unexpected first outcome: %+v", out)
	}

	ranked := application.Ranked(ctx, 7)
	if len(ranked) != 2 {
		t.Fatalf("expected 2 ranked articles, got %d", len(ranked))
	}
	if ranked[0].Title != "First story" || ranked[0].SourceName != "Test Feed" || ranked[0].Importance != domain.ImportanceHigh {
		t.Fatalf("unexpected top article: %+v", ranked[0])
	}

	out = application.Refresh(ctx)
	if out.Stored != 1 {
		t.Fatalf("second refresh should admit the remaining entry, got %+v", out)
	}

	out = application.Refresh(ctx)
	if out.Status != usecase.StatusNoEntries || out.Message != usecase.MsgNoNewEntries {
		t.Fatalf("third refresh should find nothing new, got %+v", out)
	}

	sources, err := application.Sources().ListSources(ctx)
	if err != nil || len(sources) != 1 || sources[0].LastFetchedAt == nil {
		t.Fatalf("expected fetched source, got %+v, %v", sources, err)
	}

	n, err := application.Clear(ctx)
	if err != nil || n != 3 {
		t.Fatalf("Clear = %d, %v", n, err)
	}
	if got := application.Ranked(ctx, 7); len(got) != 0 {
		t.Fatalf("expected no articles after clear, got %d", len(got))
	}
}

func TestApplicationNoSources(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cfg := testConfig(t, "http://unused.invalid/rss", "")
	cfg.Enrich.Provider = config.ProviderNone

	application, err := New(ctx, cfg, logging.Discard())
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	defer application.Close()

	if out := application.Refresh(ctx); out.Message != usecase.MsgNoActiveSources {
		t.Fatalf("unexpected outcome: %+v", out)
	}
}

func TestNewRejectsUnknownDriver(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Database.Driver = "oracle"

	if _, err := New(context.Background(), cfg, logging.Discard()); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestNewEnricher(t *testing.T) {
	t.Parallel()

	logger := logging.Discard()

	cfg := config.Default()
	cfg.Enrich.Provider = config.ProviderAnthropic
	if got := NewEnricher(cfg, logger); got != nil {
		t.Fatalf("anthropic without key should disable enrichment, got %T", got)
	}
	cfg.Anthropic.APIKey = "key"
	if _, ok := NewEnricher(cfg, logger).(*llm.AnthropicEnricher); !ok {
		t.Fatal("expected anthropic enricher")
	}

	cfg.Enrich.Provider = "ChatGPT"
	if got := NewEnricher(cfg, logger); got != nil {
		t.Fatalf("chatgpt without key should disable enrichment, got %T", got)
	}
	cfg.ChatGPT.APIKey = "key"
	if _, ok := NewEnricher(cfg, logger).(*llm.ChatGPTClient); !ok {
		t.Fatal("expected chatgpt client")
	}

	cfg.Enrich.Provider = config.ProviderML
	cfg.ML.InferenceURL = "http://ml.local"
	if _, ok := NewEnricher(cfg, logger).(*ml.Client); !ok {
		t.Fatal("expected ml client")
	}

	for _, provider := range []string{config.ProviderNone, "", "mystery"} {
		cfg.Enrich.Provider = provider
		if got := NewEnricher(cfg, logger); got != nil {
			t.Fatalf("provider %q should disable enrichment, got %T", provider, got)
		}
	}
}

func TestRouterRegistersRoutesInReleaseMode(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t, "http://unused.invalid/rss", "")
	cfg.Enrich.Provider = config.ProviderNone

	application, err := New(ctx, cfg, logging.Discard())
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	defer application.Close()

	previousMode, previousPrint := gin.Mode(), gin.DebugPrintRouteFunc
	defer func() {
		gin.SetMode(previousMode)
		gin.DebugPrintRouteFunc = previousPrint
	}()

	gin.SetMode(gin.DebugMode)
	var printed []string
	gin.DebugPrintRouteFunc = func(httpMethod, absolutePath, _ string, _ int) {
		printed = append(printed, httpMethod+" "+absolutePath)
	}

	engine := application.router()

	if gin.Mode() != gin.ReleaseMode {
		t.Fatalf("expected release mode, got %s", gin.Mode())
	}
	if len(printed) != 0 {
		t.Fatalf("routes were registered in debug mode: %v", printed)
	}
	if len(engine.Routes()) == 0 {
		t.Fatal("expected routes to be registered")
	}
}
