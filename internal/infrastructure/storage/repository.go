package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"NewsFeedRanker/internal/domain"
	"NewsFeedRanker/internal/ports"
)

const (
	sourcesTable  = "rss_sources"
	articlesTable = "parsed_articles"
	timeLayout    = time.RFC3339Nano
)

var sourceColumns = []string{"id", "feed_url", "source_name", "category", "feed_type", "status", "last_fetched"}

// Repository persists sources and articles in sqlite or Postgres.
type Repository struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var (
	_ ports.SourceRegistry    = (*Repository)(nil)
	_ ports.SourceAdmin       = (*Repository)(nil)
	_ ports.ArticleRepository = (*Repository)(nil)
)

// NewRepository wires a sql.DB; driver picks the placeholder style.
func NewRepository(db *sql.DB, driver string) *Repository {
	var format sq.PlaceholderFormat = sq.Question
	if driver == DriverPostgres {
		format = sq.Dollar
	}
	return &Repository{db: db, builder: sq.StatementBuilder.PlaceholderFormat(format)}
}

// Ping reports whether the database is reachable.
func (r *Repository) Ping(ctx context.Context) error {
	if r.db == nil {
		return fmt.Errorf("%w: database not configured", domain.ErrConfiguration)
	}
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: ping: %w", domain.ErrConfiguration, err)
	}
	return nil
}

// ListActiveSources returns active sources ordered by id.
func (r *Repository) ListActiveSources(ctx context.Context) ([]domain.Source, error) {
	sources, err := r.querySources(ctx, sq.Eq{"status": string(domain.SourceActive)})
	if err != nil {
		return nil, fmt.Errorf("%w: list active sources: %w", domain.ErrConfiguration, err)
	}
	return sources, nil
}

// ListSources returns every source regardless of status.
func (r *Repository) ListSources(ctx context.Context) ([]domain.Source, error) {
	sources, err := r.querySources(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: list sources: %w", domain.ErrStorage, err)
	}
	return sources, nil
}

func (r *Repository) querySources(ctx context.Context, where sq.Sqlizer) ([]domain.Source, error) {
	q := r.builder.Select(sourceColumns...).From(sourcesTable).OrderBy("id")
	if where != nil {
		q = q.Where(where)
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query sources: %w", err)
	}
	defer rows.Close()

	var sources []domain.Source
	for rows.Next() {
		var (
			src         domain.Source
			status      string
			lastFetched sql.NullString
		)
		if err := rows.Scan(&src.ID, &src.URL, &src.DisplayName, &src.Category, &src.FeedType, &status, &lastFetched); err != nil {
			return nil, fmt.Errorf("scan source: %w", err)
		}
		src.Status = domain.SourceStatus(status)
		if lastFetched.Valid && lastFetched.String != "" {
			if at, err := time.Parse(timeLayout, lastFetched.String); err == nil {
				src.LastFetchedAt = &at
			}
		}
		sources = append(sources, src)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return sources, nil
}

// AddSource inserts a new source. Feed type defaults to rss and status to active.
func (r *Repository) AddSource(ctx context.Context, src domain.Source) (domain.Source, error) {
	src.URL = strings.TrimSpace(src.URL)
	src.DisplayName = strings.TrimSpace(src.DisplayName)
	if src.URL == "" || src.DisplayName == "" {
		return domain.Source{}, fmt.Errorf("%w: url and name are required", domain.ErrInvalidSource)
	}
	src.FeedType = strings.ToLower(strings.TrimSpace(src.FeedType))
	if src.FeedType == "" {
		src.FeedType = domain.FeedTypeRSS
	}
	if src.Status == "" {
		src.Status = domain.SourceActive
	}
	if !src.Status.Valid() {
		return domain.Source{}, fmt.Errorf("%w: status %q", domain.ErrInvalidSource, src.Status)
	}

	query, args, err := r.builder.Insert(sourcesTable).
		Columns("feed_url", "source_name", "category", "feed_type", "status").
		Values(src.URL, src.DisplayName, src.Category, src.FeedType, string(src.Status)).
		Suffix("ON CONFLICT (feed_url) DO NOTHING RETURNING id").
		ToSql()
	if err != nil {
		return domain.Source{}, fmt.Errorf("build insert: %w", err)
	}

	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&src.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Source{}, fmt.Errorf("%w: %s", domain.ErrSourceExists, src.URL)
		}
		return domain.Source{}, fmt.Errorf("%w: insert source: %w", domain.ErrStorage, err)
	}

	return src, nil
}

// SetSourceStatus flips a source between active and inactive.
func (r *Repository) SetSourceStatus(ctx context.Context, url string, status domain.SourceStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: status %q", domain.ErrInvalidSource, status)
	}

	query, args, err := r.builder.Update(sourcesTable).
		Set("status", string(status)).
		Where(sq.Eq{"feed_url": url}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	return r.execOne(ctx, query, args, url)
}

// MarkFetched records the time of the last successful fetch.
func (r *Repository) MarkFetched(ctx context.Context, url string, at time.Time) error {
	query, args, err := r.builder.Update(sourcesTable).
		Set("last_fetched", at.UTC().Format(timeLayout)).
		Where(sq.Eq{"feed_url": url}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	return r.execOne(ctx, query, args, url)
}

func (r *Repository) execOne(ctx context.Context, query string, args []any, url string) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: update source: %w", domain.ErrStorage, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: rows affected: %w", domain.ErrStorage, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", domain.ErrSourceNotFound, url)
	}
	return nil
}

// ExistingKeys returns the (title, source) pairs already stored for the given sources.
func (r *Repository) ExistingKeys(ctx context.Context, sources []string) (map[domain.ArticleKey]struct{}, error) {
	keys := make(map[domain.ArticleKey]struct{})
	if len(sources) == 0 {
		return keys, nil
	}

	query, args, err := r.builder.Select("title", "source").
		From(articlesTable).
		Where(sq.Eq{"source": sources}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: query existing keys: %w", domain.ErrStorage, err)
	}
	defer rows.Close()

	for rows.Next() {
		var key domain.ArticleKey
		if err := rows.Scan(&key.Title, &key.Source); err != nil {
			return nil, fmt.Errorf("%w: scan key: %w", domain.ErrStorage, err)
		}
		keys[key] = struct{}{}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: rows iteration: %w", domain.ErrStorage, err)
	}

	return keys, nil
}

// UpsertArticle inserts the article or replaces the row with the same (title, source).
func (r *Repository) UpsertArticle(ctx context.Context, article domain.Article) error {
	parsedAt := article.ParsedAt
	if parsedAt.IsZero() {
		parsedAt = time.Now()
	}

	query, args, err := r.builder.Insert(articlesTable).
		Columns("title", "description", "source", "link", "published_date", "parsed_at", "keywords", "importance", "derived_summary").
		Values(
			article.Title,
			article.Description,
			article.Source,
			article.Link,
			article.PublishedDate,
			parsedAt.UTC().Format(timeLayout),
			article.Keywords,
			string(article.Importance),
			article.DerivedSummary,
		).
		Suffix(`ON CONFLICT (title, source) DO UPDATE
              SET description = excluded.description,
                  link = excluded.link,
                  published_date = excluded.published_date,
                  parsed_at = excluded.parsed_at,
                  keywords = excluded.keywords,
                  importance = excluded.importance,
                  derived_summary = excluded.derived_summary`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: upsert article %q: %w", domain.ErrStorage, article.Title, err)
	}

	return nil
}

// ListArticles returns every stored article with its source display name.
func (r *Repository) ListArticles(ctx context.Context) ([]domain.Article, error) {
	query, args, err := r.builder.Select(
		"a.id", "a.title", "a.description", "a.source", "COALESCE(s.source_name, '')",
		"a.link", "a.published_date", "a.parsed_at", "a.keywords", "a.importance", "a.derived_summary",
	).
		From(articlesTable + " a").
		LeftJoin(sourcesTable + " s ON s.feed_url = a.source").
		OrderBy("a.id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: query articles: %w", domain.ErrStorage, err)
	}
	defer rows.Close()

	var articles []domain.Article
	for rows.Next() {
		var (
			a          domain.Article
			parsedAt   string
			importance string
		)
		if err := rows.Scan(&a.ID, &a.Title, &a.Description, &a.Source, &a.SourceName,
			&a.Link, &a.PublishedDate, &parsedAt, &a.Keywords, &importance, &a.DerivedSummary); err != nil {
			return nil, fmt.Errorf("%w: scan article: %w", domain.ErrStorage, err)
		}
		a.Importance = domain.Importance(importance)
		if t, err := time.Parse(timeLayout, parsedAt); err == nil {
			a.ParsedAt = t
		}
		articles = append(articles, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: rows iteration: %w", domain.ErrStorage, err)
	}

	return articles, nil
}

// DeleteArticles removes every stored article and returns how many went.
func (r *Repository) DeleteArticles(ctx context.Context) (int64, error) {
	query, args, err := r.builder.Delete(articlesTable).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%w: delete articles: %w", domain.ErrStorage, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: rows affected: %w", domain.ErrStorage, err)
	}
	return n, nil
}
