package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"NewsFeedRanker/internal/domain"
	"NewsFeedRanker/internal/metrics"
	"NewsFeedRanker/internal/ports"
)

// StoreStage upserts enriched articles one by one.
type StoreStage struct {
	repo    ports.ArticleRepository
	logger  *slog.Logger
	metrics *metrics.Pipeline
}

// NewStoreStage wires the repository.
func NewStoreStage(repo ports.ArticleRepository, logger *slog.Logger, m *metrics.Pipeline) *StoreStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &StoreStage{repo: repo, logger: logger.With("component", "store"), metrics: m}
}

// Run returns how many articles were written. Only an unreachable store is
// reported as an error; single-row failures are logged and skipped.
func (s *StoreStage) Run(ctx context.Context, articles []domain.Article) (int, error) {
	if len(articles) == 0 {
		return 0, nil
	}

	if err := s.repo.Ping(ctx); err != nil {
		if !errors.Is(err, domain.ErrConfiguration) {
			err = fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
		}
		return 0, err
	}

	stored := 0
	for _, article := range articles {
		if err := s.repo.UpsertArticle(ctx, article); err != nil {
			s.logger.Warn("store article failed", "title", article.Title, "source", article.Source, "error", err)
			s.metrics.StorageFailed()
			continue
		}
		stored++
	}

	s.metrics.Stored(stored)
	s.logger.Info("store finished", "articles", len(articles), "stored", stored)

	return stored, nil
}
