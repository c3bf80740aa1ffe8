package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"NewsFeedRanker/internal/domain"
	"NewsFeedRanker/internal/metrics"
	"NewsFeedRanker/internal/ports"
)

const defaultFetchConcurrency = 8

// FetchReport lists which sources answered and which did not.
type FetchReport struct {
	Succeeded []domain.Source
	Failed    []domain.Source
}

// FetchStage downloads every source concurrently and flattens the entries
// back into source order.
type FetchStage struct {
	fetcher     ports.FeedFetcher
	concurrency int
	logger      *slog.Logger
	metrics     *metrics.Pipeline
}

// NewFetchStage builds the fan-out stage. concurrency <= 0 uses a default.
func NewFetchStage(fetcher ports.FeedFetcher, concurrency int, logger *slog.Logger, m *metrics.Pipeline) *FetchStage {
	if concurrency <= 0 {
		concurrency = defaultFetchConcurrency
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FetchStage{
		fetcher:     fetcher,
		concurrency: concurrency,
		logger:      logger.With("component", "fetch"),
		metrics:     m,
	}
}

// Run fetches all sources and joins before returning. A failing source
// contributes no entries and is listed in the report.
func (s *FetchStage) Run(ctx context.Context, sources []domain.Source) ([]domain.RawEntry, FetchReport) {
	if len(sources) == 0 {
		return nil, FetchReport{}
	}

	results := make([][]domain.RawEntry, len(sources))
	errs := make([]error, len(sources))

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, src := range sources {
		g.Go(func() error {
			results[i], errs[i] = s.fetchOne(ctx, src)
			return nil
		})
	}
	_ = g.Wait()

	var (
		entries []domain.RawEntry
		report  FetchReport
	)
	for i, src := range sources {
		if errs[i] != nil {
			s.logger.Warn("source fetch failed", "source", src.URL, "error", errs[i])
			s.metrics.FetchFailed(src.URL)
			report.Failed = append(report.Failed, src)
			continue
		}
		report.Succeeded = append(report.Succeeded, src)
		s.logger.Debug("source fetched", "source", src.URL, "entries", len(results[i]))
		entries = append(entries, results[i]...)
	}

	s.metrics.Fetched(len(entries))
	s.logger.Info("fetch finished", "sources", len(sources), "failed", len(report.Failed), "entries", len(entries))

	return entries, report
}

func (s *FetchStage) fetchOne(ctx context.Context, src domain.Source) (entries []domain.RawEntry, err error) {
	defer func() {
		if r := recover(); r != nil {
			entries, err = nil, fmt.Errorf("%w: panic fetching %s: %v", domain.ErrFetch, src.URL, r)
		}
	}()

	entries, err = s.fetcher.Fetch(ctx, src)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		if entries[i].SourceURL == "" {
			entries[i].SourceURL = src.URL
		}
	}
	return entries, nil
}
