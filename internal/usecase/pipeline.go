package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"NewsFeedRanker/internal/domain"
	"NewsFeedRanker/internal/metrics"
	"NewsFeedRanker/internal/ports"
	"NewsFeedRanker/internal/ranking"
)

// Outcome messages.
const (
	MsgNoActiveSources = "no active sources"
	MsgNoNewEntries    = "no new entries"
	MsgRefreshed       = "refreshed successfully"
	MsgAlreadyRunning  = "refresh already running"
)

// Status classifies a finished cycle.
type Status string

const (
	StatusRefreshed Status = "refreshed"
	StatusPartial   Status = "partial"
	StatusNoSources Status = "no_sources"
	StatusNoEntries Status = "no_entries"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

// Outcome summarizes one refresh cycle.
type Outcome struct {
	RunID         string
	Status        Status
	Message       string
	Sources       int
	FailedSources int
	Fetched       int
	Admitted      int
	Stored        int
	Duration      time.Duration
	Err           error
}

// Failed reports whether the cycle ended on a fatal error.
func (o Outcome) Failed() bool {
	return o.Status == StatusFailed
}

func (o Outcome) String() string {
	return o.Message
}

// PipelineOptions carries the tunables of one cycle.
type PipelineOptions struct {
	PerSourceLimit   int
	FetchConcurrency int
	Enrich           EnrichOptions
	DigestSize       int
	MaxAgeDays       int
}

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Registry   ports.SourceRegistry
	Sources    ports.SourceAdmin
	Repository ports.ArticleRepository
	Fetcher    ports.FeedFetcher
	Enricher   ports.Enricher
	Notifier   ports.Notifier
	Metrics    *metrics.Pipeline
	Logger     *slog.Logger
	Clock      func() time.Time
	Options    PipelineOptions
}

// Pipeline runs registry, fetch, parse, enrich and store for one cycle.
type Pipeline struct {
	registry   ports.SourceRegistry
	sources    ports.SourceAdmin
	repository ports.ArticleRepository
	notifier   ports.Notifier
	fetch      *FetchStage
	parse      *ParseStage
	enrich     *EnrichStage
	store      *StoreStage
	metrics    *metrics.Pipeline
	logger     *slog.Logger
	clock      func() time.Time
	digestSize int
	maxAgeDays int
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	return &Pipeline{
		registry:   deps.Registry,
		sources:    deps.Sources,
		repository: deps.Repository,
		notifier:   deps.Notifier,
		fetch:      NewFetchStage(deps.Fetcher, deps.Options.FetchConcurrency, logger, deps.Metrics),
		parse:      NewParseStage(deps.Options.PerSourceLimit, clock, logger, deps.Metrics),
		enrich:     NewEnrichStage(deps.Enricher, deps.Options.Enrich, logger, deps.Metrics),
		store:      NewStoreStage(deps.Repository, logger, deps.Metrics),
		metrics:    deps.Metrics,
		logger:     logger.With("component", "pipeline"),
		clock:      clock,
		digestSize: deps.Options.DigestSize,
		maxAgeDays: deps.Options.MaxAgeDays,
	}
}

// Refresh runs one cycle. It never panics; fatal problems are reported in
// the returned Outcome.
func (p *Pipeline) Refresh(ctx context.Context) (out Outcome) {
	started := p.clock()
	out.RunID = uuid.NewString()
	logger := p.logger.With("run_id", out.RunID)

	defer func() {
		if r := recover(); r != nil {
			out = p.fail(out, fmt.Errorf("panic during refresh: %v", r))
		}
		out.Duration = p.clock().Sub(started)
		p.metrics.CycleFinished(string(out.Status), out.Duration)
		if out.Failed() {
			logger.Error("refresh failed", "error", out.Err, "duration", out.Duration)
			return
		}
		logger.Info("refresh finished", "status", out.Status, "message", out.Message,
			"stored", out.Stored, "failed_sources", out.FailedSources, "duration", out.Duration)
	}()

	if p.registry == nil || p.repository == nil || p.fetch.fetcher == nil {
		return p.fail(out, fmt.Errorf("%w: pipeline is missing a registry, repository or fetcher", domain.ErrConfiguration))
	}

	sources, err := p.registry.ListActiveSources(ctx)
	if err != nil {
		return p.fail(out, asConfiguration(err))
	}
	out.Sources = len(sources)
	if len(sources) == 0 {
		out.Status, out.Message = StatusNoSources, MsgNoActiveSources
		return out
	}

	entries, report := p.fetch.Run(ctx, sources)
	out.Fetched = len(entries)
	out.FailedSources = len(report.Failed)
	p.markFetched(ctx, logger, report.Succeeded)

	if len(entries) == 0 {
		return p.noEntries(out)
	}

	urls := make([]string, len(sources))
	for i, src := range sources {
		urls[i] = src.URL
	}
	existing, err := p.repository.ExistingKeys(ctx, urls)
	if err != nil {
		return p.fail(out, asConfiguration(err))
	}

	candidates := p.parse.Run(entries, existing)
	out.Admitted = len(candidates)
	if len(candidates) == 0 {
		return p.noEntries(out)
	}

	enriched := p.enrich.Run(ctx, candidates)

	stored, err := p.store.Run(ctx, enriched)
	if err != nil {
		return p.fail(out, err)
	}
	out.Stored = stored

	out.Status, out.Message = StatusRefreshed, MsgRefreshed
	if out.FailedSources > 0 {
		out.Status = StatusPartial
		out.Message = fmt.Sprintf("%s (%d of %d sources failed)", MsgRefreshed, out.FailedSources, out.Sources)
	}

	if stored > 0 {
		p.publishDigest(ctx, logger, enriched, out)
	}

	return out
}

func (p *Pipeline) noEntries(out Outcome) Outcome {
	out.Status, out.Message = StatusNoEntries, MsgNoNewEntries
	if out.FailedSources > 0 {
		out.Message = fmt.Sprintf("%s (%d of %d sources failed)", MsgNoNewEntries, out.FailedSources, out.Sources)
	}
	return out
}

func (p *Pipeline) fail(out Outcome, err error) Outcome {
	out.Status = StatusFailed
	out.Err = err
	out.Message = "refresh failed: " + err.Error()
	return out
}

func (p *Pipeline) markFetched(ctx context.Context, logger *slog.Logger, sources []domain.Source) {
	if p.sources == nil {
		return
	}
	at := p.clock()
	for _, src := range sources {
		if err := p.sources.MarkFetched(ctx, src.URL, at); err != nil {
			logger.Warn("mark fetched failed", "source", src.URL, "error", err)
		}
	}
}

func (p *Pipeline) publishDigest(ctx context.Context, logger *slog.Logger, articles []domain.Article, out Outcome) {
	if p.notifier == nil || p.digestSize <= 0 {
		return
	}

	ranked := ranking.RankArticles(articles, p.maxAgeDays, p.clock())
	if len(ranked) > p.digestSize {
		ranked = ranked[:p.digestSize]
	}

	if err := p.notifier.PublishDigest(ctx, BuildDigest(ranked, out)); err != nil {
		logger.Warn("publish digest failed", "error", err)
	}
}

// BuildDigest renders the headline list sent after a cycle.
func BuildDigest(ranked []domain.RankedArticle, out Outcome) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d new articles\n\n", out.Message, out.Stored)
	for _, a := range ranked {
		fmt.Fprintf(&b, "- %s [%s, %.3f]\n%s\n%s\n\n", a.Title, a.Importance, a.Rank, a.DerivedSummary, a.Link)
	}
	return strings.TrimRight(b.String(), "\n")
}

func asConfiguration(err error) error {
	if errors.Is(err, domain.ErrConfiguration) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
}
