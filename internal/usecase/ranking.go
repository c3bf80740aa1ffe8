package usecase

import (
	"context"
	"log/slog"
	"time"

	"NewsFeedRanker/internal/domain"
	"NewsFeedRanker/internal/ports"
	"NewsFeedRanker/internal/ranking"
)

// RankedFeed is the display read path over stored articles.
type RankedFeed struct {
	repo       ports.ArticleRepository
	clock      func() time.Time
	maxAgeDays int
	logger     *slog.Logger
}

// NewRankedFeed builds the read path. maxAgeDays is used when callers pass 0.
func NewRankedFeed(repo ports.ArticleRepository, maxAgeDays int, clock func() time.Time, logger *slog.Logger) *RankedFeed {
	if maxAgeDays <= 0 {
		maxAgeDays = ranking.DefaultMaxAgeDays
	}
	if clock == nil {
		clock = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RankedFeed{repo: repo, clock: clock, maxAgeDays: maxAgeDays, logger: logger.With("component", "ranking")}
}

// Ranked scores every stored article against the current time. A storage
// failure yields an empty list, never an error.
func (f *RankedFeed) Ranked(ctx context.Context, maxAgeDays int) []domain.RankedArticle {
	if maxAgeDays <= 0 {
		maxAgeDays = f.maxAgeDays
	}

	articles, err := f.repo.ListArticles(ctx)
	if err != nil {
		f.logger.Error("list articles failed", "error", err)
		return []domain.RankedArticle{}
	}

	return ranking.RankArticles(articles, maxAgeDays, f.clock().UTC())
}
