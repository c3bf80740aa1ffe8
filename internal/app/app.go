package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"NewsFeedRanker/internal/config"
	"NewsFeedRanker/internal/domain"
	"NewsFeedRanker/internal/infrastructure/feed"
	"NewsFeedRanker/internal/infrastructure/httpapi"
	"NewsFeedRanker/internal/infrastructure/llm"
	"NewsFeedRanker/internal/infrastructure/ml"
	"NewsFeedRanker/internal/infrastructure/scheduler"
	"NewsFeedRanker/internal/infrastructure/storage"
	"NewsFeedRanker/internal/infrastructure/telegram"
	"NewsFeedRanker/internal/logging"
	"NewsFeedRanker/internal/metrics"
	"NewsFeedRanker/internal/ports"
	"NewsFeedRanker/internal/scanner"
	"NewsFeedRanker/internal/usecase"
	"NewsFeedRanker/pkg/retry"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	db        *sql.DB
	repo      *storage.Repository
	metrics   *metrics.Pipeline
	pipeline  *usecase.Pipeline
	feed      *usecase.RankedFeed
	scheduler *usecase.Scheduler
}

// New migrates and opens the database and builds every adapter.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	if err := storage.Migrate(cfg.Database, baseLogger.With("component", "migrate")); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	db, err := storage.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	repo := storage.NewRepository(db, cfg.Database.Driver)

	registry := scanner.NewRegistry(feed.NewRSSDecoder(), feed.NewHTMLDecoder())
	fetcher := feed.NewHTTPFetcher(registry, feed.Options{
		Client: &http.Client{Timeout: cfg.Fetch.Timeout},
		Policy: retry.Policy{
			Attempts:     cfg.Fetch.Attempts,
			InitialDelay: cfg.Fetch.InitialDelay,
			MaxDelay:     cfg.Fetch.MaxDelay,
			Multiplier:   cfg.Fetch.Multiplier,
		},
		UserAgent: cfg.Fetch.UserAgent,
		Logger:    baseLogger.With("component", "fetcher"),
	})

	enricher := NewEnricher(cfg, baseLogger)

	var notifier ports.Notifier
	if cfg.Notifications.Telegram.Enabled() {
		notifier = telegram.NewNotifier(cfg.Notifications.Telegram)
	}

	m := metrics.New()
	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Registry:   repo,
		Sources:    repo,
		Repository: repo,
		Fetcher:    fetcher,
		Enricher:   enricher,
		Notifier:   notifier,
		Metrics:    m,
		Logger:     baseLogger,
		Options: usecase.PipelineOptions{
			PerSourceLimit:   cfg.Ingest.PerSourceLimit,
			FetchConcurrency: cfg.Fetch.Concurrency,
			Enrich: usecase.EnrichOptions{
				MaxWords:       cfg.Enrich.MaxWords,
				Timeout:        cfg.Enrich.Timeout,
				Concurrency:    cfg.Enrich.Concurrency,
				RatePerSecond:  cfg.Enrich.RatePerSecond,
				Burst:          cfg.Enrich.Burst,
				FallbackLength: cfg.Enrich.FallbackLength,
			},
			DigestSize: cfg.Ranking.DigestSize,
			MaxAgeDays: cfg.Ranking.MaxAgeDays,
		},
	})

	driver := scheduler.NewCronScheduler(cfg.Scheduler.CronExpression, cfg.Scheduler.Location(), cfg.Scheduler.RunOnStart, baseLogger)

	return &Application{
		cfg:       cfg,
		logger:    baseLogger,
		db:        db,
		repo:      repo,
		metrics:   m,
		pipeline:  pipeline,
		feed:      usecase.NewRankedFeed(repo, cfg.Ranking.MaxAgeDays, nil, baseLogger),
		scheduler: usecase.NewScheduler(driver, pipeline, baseLogger),
	}, nil
}

// NewEnricher picks the configured provider. A provider without credentials
// is disabled with a warning and articles get the uncategorized defaults.
func NewEnricher(cfg config.Config, logger *slog.Logger) ports.Enricher {
	provider := strings.ToLower(strings.TrimSpace(cfg.Enrich.Provider))
	missing := func(what string) ports.Enricher {
		logger.Warn("enrichment disabled", "provider", provider, "missing", what)
		return nil
	}

	switch provider {
	case config.ProviderAnthropic:
		if cfg.Anthropic.APIKey == "" {
			return missing("anthropic api key")
		}
		return llm.NewAnthropicEnricher(cfg.Anthropic)
	case config.ProviderChatGPT:
		if cfg.ChatGPT.APIKey == "" {
			return missing("chatgpt api key")
		}
		return llm.NewChatGPTClient(cfg.ChatGPT)
	case config.ProviderML:
		if cfg.ML.InferenceURL == "" {
			return missing("ml inference url")
		}
		return ml.NewClient(cfg.ML.InferenceURL, cfg.ML.APIKey)
	case config.ProviderNone, "":
		return nil
	default:
		logger.Warn("unknown enrichment provider, enrichment disabled", "provider", provider)
		return nil
	}
}

// Refresh runs a single cycle, skipping if a scheduled one is in flight.
func (a *Application) Refresh(ctx context.Context) usecase.Outcome {
	out, ok := a.scheduler.RunNow(ctx)
	if !ok {
		return usecase.Outcome{Status: usecase.StatusSkipped, Message: usecase.MsgAlreadyRunning}
	}
	return out
}

// Ranked returns the stored articles ranked against the current time.
func (a *Application) Ranked(ctx context.Context, maxAgeDays int) []domain.RankedArticle {
	return a.feed.Ranked(ctx, maxAgeDays)
}

// Sources exposes source administration.
func (a *Application) Sources() ports.SourceAdmin {
	return a.repo
}

// Seed adds the configured default sources, skipping ones already present.
func (a *Application) Seed(ctx context.Context) (int, error) {
	added := 0
	for _, seed := range a.cfg.Seeds {
		_, err := a.repo.AddSource(ctx, domain.Source{
			URL:         seed.URL,
			DisplayName: seed.Name,
			Category:    seed.Category,
			FeedType:    seed.FeedType,
			Status:      domain.SourceActive,
		})
		if errors.Is(err, domain.ErrSourceExists) {
			continue
		}
		if err != nil {
			return added, fmt.Errorf("seed %s: %w", seed.URL, err)
		}
		added++
	}
	return added, nil
}

// Clear deletes every stored article.
func (a *Application) Clear(ctx context.Context) (int64, error) {
	return a.repo.DeleteArticles(ctx)
}

// Serve runs the HTTP surface and the scheduled refresh until ctx ends.
func (a *Application) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.cfg.HTTP.Addr,
		Handler:           a.router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if err := a.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Warn("http shutdown", "error", err)
	}
	if err := a.scheduler.Stop(shutdownCtx); err != nil {
		a.logger.Warn("scheduler shutdown", "error", err)
	}

	if serveErr != nil {
		return fmt.Errorf("http server: %w", serveErr)
	}
	return nil
}

// router builds the gin engine in release mode; the mode must be set before
// routes are registered or gin prints its debug route table.
func (a *Application) router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	return httpapi.NewRouter(httpapi.Deps{
		Feed:    a.feed,
		Sources: a.repo,
		Runner:  a.scheduler,
		Metrics: a.metrics.Handler(),
		HTTP:    a.cfg.HTTP,
		Logger:  a.logger,
	})
}

// Close releases the database.
func (a *Application) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}
