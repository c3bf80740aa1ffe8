package storage

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"NewsFeedRanker/internal/domain"
)

func newMockRepository(t *testing.T, driver string) (*Repository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return NewRepository(db, driver), mock
}

func TestListActiveSourcesFiltersByStatus(t *testing.T) {
	t.Parallel()

	repo, mock := newMockRepository(t, DriverSQLite)
	fetched := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows(sourceColumns).
		AddRow(1, "https://a.example/rss", "A", "News", "rss", "active", fetched.Format(timeLayout)).
		AddRow(2, "https://b.example/", "B", "Tech", "html", "active", nil)
	mock.ExpectQuery(regexp.QuoteMeta("FROM rss_sources WHERE status = ? ORDER BY id")).
		WithArgs("active").
		WillReturnRows(rows)

	sources, err := repo.ListActiveSources(context.Background())
	if err != nil {
		t.Fatalf("ListActiveSources error: %v", err)
	}
	if len(sources) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(sources))
	}
	if sources[0].LastFetchedAt == nil || !sources[0].LastFetchedAt.Equal(fetched) {
		t.Fatalf("unexpected last fetched: %v", sources[0].LastFetchedAt)
	}
	if sources[1].LastFetchedAt != nil || sources[1].FeedType != "html" {
		t.Fatalf("unexpected second source: %+v", sources[1])
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListActiveSourcesUnreachableIsConfigurationError(t *testing.T) {
	t.Parallel()

	repo, mock := newMockRepository(t, DriverSQLite)
	mock.ExpectQuery("FROM rss_sources").WillReturnError(errors.New("connection refused"))

	if _, err := repo.ListActiveSources(context.Background()); !errors.Is(err, domain.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestExistingKeysUsesDollarPlaceholdersForPostgres(t *testing.T) {
	t.Parallel()

	repo, mock := newMockRepository(t, DriverPostgres)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT title, source FROM parsed_articles WHERE source IN ($1,$2)")).
		WithArgs("s1", "s2").
		WillReturnRows(sqlmock.NewRows([]string{"title", "source"}).AddRow("Hello", "s1"))

	keys, err := repo.ExistingKeys(context.Background(), []string{"s1", "s2"})
	if err != nil {
		t.Fatalf("ExistingKeys error: %v", err)
	}
	if _, ok := keys[domain.ArticleKey{Title: "Hello", Source: "s1"}]; !ok || len(keys) != 1 {
		t.Fatalf("unexpected keys: %v", keys)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestExistingKeysWithoutSourcesSkipsQuery(t *testing.T) {
	t.Parallel()

	repo, mock := newMockRepository(t, DriverSQLite)

	keys, err := repo.ExistingKeys(context.Background(), nil)
	if err != nil || len(keys) != 0 {
		t.Fatalf("expected empty set, got %v, %v", keys, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unexpected queries: %v", err)
	}
}

func TestUpsertArticle(t *testing.T) {
	t.Parallel()

	repo, mock := newMockRepository(t, DriverSQLite)
	parsedAt := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	article := domain.Article{
		Title:          "Hello",
		Description:    "World",
		Source:         "https://a.example/rss",
		Link:           "https://a.example/hello",
		PublishedDate:  "01 Jan 2024 10:00",
		ParsedAt:       parsedAt,
		Keywords:       "tech",
		Importance:     domain.ImportanceHigh,
		DerivedSummary: "Hello world",
	}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO parsed_articles")+".*ON CONFLICT \\(title, source\\) DO UPDATE").
		WithArgs("Hello", "World", "https://a.example/rss", "https://a.example/hello", "01 Jan 2024 10:00",
			parsedAt.Format(timeLayout), "tech", "high", "Hello world").
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.UpsertArticle(context.Background(), article); err != nil {
		t.Fatalf("UpsertArticle error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpsertArticleWrapsStorageError(t *testing.T) {
	t.Parallel()

	repo, mock := newMockRepository(t, DriverSQLite)
	mock.ExpectExec("INSERT INTO parsed_articles").WillReturnError(errors.New("disk full"))

	err := repo.UpsertArticle(context.Background(), domain.Article{Title: "x", Source: "y"})
	if !errors.Is(err, domain.ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
}

func TestSetSourceStatus(t *testing.T) {
	t.Parallel()

	repo, mock := newMockRepository(t, DriverSQLite)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE rss_sources SET status = ? WHERE feed_url = ?")).
		WithArgs("inactive", "https://a.example/rss").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE rss_sources").
		WithArgs("active", "https://missing.example").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.SetSourceStatus(context.Background(), "https://a.example/rss", domain.SourceInactive); err != nil {
		t.Fatalf("SetSourceStatus error: %v", err)
	}
	err := repo.SetSourceStatus(context.Background(), "https://missing.example", domain.SourceActive)
	if !errors.Is(err, domain.ErrSourceNotFound) {
		t.Fatalf("expected ErrSourceNotFound, got %v", err)
	}
	if err := repo.SetSourceStatus(context.Background(), "x", "paused"); !errors.Is(err, domain.ErrInvalidSource) {
		t.Fatalf("expected ErrInvalidSource, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPingFailureIsConfigurationError(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectPing().WillReturnError(errors.New("gone"))

	if err := NewRepository(db, DriverSQLite).Ping(context.Background()); !errors.Is(err, domain.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}
