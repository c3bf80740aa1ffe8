package ports

import (
	"context"
	"time"

	"NewsFeedRanker/internal/domain"
)

// SourceRegistry lists the sources a refresh cycle should fetch.
type SourceRegistry interface {
	ListActiveSources(ctx context.Context) ([]domain.Source, error)
}

// SourceAdmin covers the administrative side of the source table.
type SourceAdmin interface {
	ListSources(ctx context.Context) ([]domain.Source, error)
	AddSource(ctx context.Context, src domain.Source) (domain.Source, error)
	SetSourceStatus(ctx context.Context, url string, status domain.SourceStatus) error
	MarkFetched(ctx context.Context, url string, at time.Time) error
}

// ArticleRepository persists articles and serves the dedup and ranking reads.
type ArticleRepository interface {
	Ping(ctx context.Context) error
	ExistingKeys(ctx context.Context, sources []string) (map[domain.ArticleKey]struct{}, error)
	UpsertArticle(ctx context.Context, article domain.Article) error
	ListArticles(ctx context.Context) ([]domain.Article, error)
	DeleteArticles(ctx context.Context) (int64, error)
}

// FeedFetcher downloads and decodes one source into raw entries.
type FeedFetcher interface {
	Fetch(ctx context.Context, src domain.Source) ([]domain.RawEntry, error)
}

// Enrichment is the derived triple returned by a provider.
type Enrichment struct {
	Keyword    string
	Importance string
	Summary    string
}

// Enricher derives keyword, importance and summary from a title and description.
// Implementations may fail; callers substitute degraded defaults.
type Enricher interface {
	Enrich(ctx context.Context, title, description string, maxWords int) (Enrichment, error)
}

// Notifier streams digests to Telegram or other channels.
type Notifier interface {
	PublishDigest(ctx context.Context, digest string) error
}

// Scheduler controls when pipelines execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
