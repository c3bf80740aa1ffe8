package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"NewsFeedRanker/internal/domain"
	"NewsFeedRanker/internal/metrics"
	"NewsFeedRanker/internal/ports"
)

const (
	defaultMaxWords          = 5
	defaultEnrichTimeout     = 20 * time.Second
	defaultEnrichConcurrency = 2
	defaultFallbackLength    = 100
	ellipsis                 = "..."
)

// EnrichOptions bounds the cost of provider calls.
type EnrichOptions struct {
	MaxWords       int
	Timeout        time.Duration
	Concurrency    int
	RatePerSecond  float64
	Burst          int
	FallbackLength int
}

// EnrichStage attaches keyword, importance and summary to each candidate.
// A nil enricher means enrichment is disabled.
type EnrichStage struct {
	enricher ports.Enricher
	opts     EnrichOptions
	limiter  *rate.Limiter
	logger   *slog.Logger
	metrics  *metrics.Pipeline
}

// NewEnrichStage builds the stage; zero options take defaults and a zero
// rate disables throttling.
func NewEnrichStage(enricher ports.Enricher, opts EnrichOptions, logger *slog.Logger, m *metrics.Pipeline) *EnrichStage {
	if opts.MaxWords <= 0 {
		opts.MaxWords = defaultMaxWords
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultEnrichTimeout
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultEnrichConcurrency
	}
	if opts.FallbackLength <= 0 {
		opts.FallbackLength = defaultFallbackLength
	}
	if logger == nil {
		logger = slog.Default()
	}

	var limiter *rate.Limiter
	if opts.RatePerSecond > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RatePerSecond), burst)
	}

	return &EnrichStage{
		enricher: enricher,
		opts:     opts,
		limiter:  limiter,
		logger:   logger.With("component", "enrich"),
		metrics:  m,
	}
}

// Run returns the articles in input order, each with enrichment fields set.
func (s *EnrichStage) Run(ctx context.Context, articles []domain.Article) []domain.Article {
	out := make([]domain.Article, len(articles))
	copy(out, articles)

	if s.enricher == nil {
		for i := range out {
			out[i] = s.skipped(out[i])
		}
		return out
	}

	var g errgroup.Group
	g.SetLimit(s.opts.Concurrency)
	for i := range out {
		g.Go(func() error {
			out[i] = s.enrichOne(ctx, out[i])
			return nil
		})
	}
	_ = g.Wait()

	return out
}

func (s *EnrichStage) enrichOne(ctx context.Context, article domain.Article) domain.Article {
	res, err := s.call(ctx, article)
	if err != nil {
		s.logger.Warn("enrichment failed, using defaults", "title", article.Title, "source", article.Source, "error", err)
		s.metrics.EnrichFallback("error")
		return s.degraded(article)
	}

	article.Keywords = strings.ToLower(strings.TrimSpace(res.Keyword))
	if article.Keywords == "" {
		article.Keywords = domain.Uncategorized
	}
	article.Importance = domain.ParseImportance(res.Importance)
	article.DerivedSummary = strings.TrimSpace(res.Summary)
	if article.DerivedSummary == "" {
		article.DerivedSummary = Truncate(article.Description, s.opts.FallbackLength)
	}
	return article
}

func (s *EnrichStage) call(ctx context.Context, article domain.Article) (res ports.Enrichment, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: provider panic: %v", domain.ErrEnrichment, r)
		}
	}()

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return ports.Enrichment{}, fmt.Errorf("%w: rate limit: %w", domain.ErrEnrichment, err)
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	return s.enricher.Enrich(callCtx, article.Title, article.Description, s.opts.MaxWords)
}

// degraded applies the failure defaults.
func (s *EnrichStage) degraded(article domain.Article) domain.Article {
	article.Keywords = domain.Uncategorized
	article.Importance = domain.ImportanceLow
	article.DerivedSummary = Truncate(article.Description, s.opts.FallbackLength)
	return article
}

// skipped applies the defaults used when no provider is configured.
func (s *EnrichStage) skipped(article domain.Article) domain.Article {
	s.metrics.EnrichFallback("disabled")
	article.Keywords = domain.Uncategorized
	article.Importance = domain.ImportanceUncategorized
	article.DerivedSummary = Truncate(article.Description, s.opts.FallbackLength)
	return article
}

// Truncate cuts s to at most n runes and appends an ellipsis.
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) > n {
		runes = runes[:n]
	}
	return strings.TrimSpace(string(runes)) + ellipsis
}
