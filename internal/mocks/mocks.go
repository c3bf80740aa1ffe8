// Package mocks holds in-memory fakes of the ports used in tests.
package mocks

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"NewsFeedRanker/internal/domain"
	"NewsFeedRanker/internal/ports"
)

// Store is an in-memory source registry and article repository.
type Store struct {
	mu       sync.Mutex
	sources  []domain.Source
	articles map[domain.ArticleKey]domain.Article
	nextID   int64

	// Injected failures.
	ListErr   error
	PingErr   error
	KeysErr   error
	UpsertErr func(domain.Article) error

	Upserts []domain.Article
	Fetched map[string]time.Time
}

var (
	_ ports.SourceRegistry    = (*Store)(nil)
	_ ports.SourceAdmin       = (*Store)(nil)
	_ ports.ArticleRepository = (*Store)(nil)
)

// NewStore returns a store preloaded with sources.
func NewStore(sources ...domain.Source) *Store {
	s := &Store{articles: make(map[domain.ArticleKey]domain.Article), Fetched: make(map[string]time.Time)}
	for _, src := range sources {
		if src.Status == "" {
			src.Status = domain.SourceActive
		}
		s.nextID++
		src.ID = s.nextID
		s.sources = append(s.sources, src)
	}
	return s
}

// Seed inserts articles directly, bypassing Upserts bookkeeping.
func (s *Store) Seed(articles ...domain.Article) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range articles {
		s.nextID++
		a.ID = s.nextID
		s.articles[a.Key()] = a
	}
}

// Article returns the stored row for key.
func (s *Store) Article(key domain.ArticleKey) (domain.Article, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.articles[key]
	return a, ok
}

// Len reports the number of stored articles.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.articles)
}

func (s *Store) ListActiveSources(context.Context) ([]domain.Source, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ListErr != nil {
		return nil, s.ListErr
	}
	var out []domain.Source
	for _, src := range s.sources {
		if src.Status == domain.SourceActive {
			out = append(out, src)
		}
	}
	return out, nil
}

func (s *Store) ListSources(context.Context) ([]domain.Source, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ListErr != nil {
		return nil, s.ListErr
	}
	return append([]domain.Source(nil), s.sources...), nil
}

func (s *Store) AddSource(_ context.Context, src domain.Source) (domain.Source, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if src.URL == "" || src.DisplayName == "" {
		return domain.Source{}, domain.ErrInvalidSource
	}
	for _, existing := range s.sources {
		if existing.URL == src.URL {
			return domain.Source{}, fmt.Errorf("%w: %s", domain.ErrSourceExists, src.URL)
		}
	}
	if src.FeedType == "" {
		src.FeedType = domain.FeedTypeRSS
	}
	if src.Status == "" {
		src.Status = domain.SourceActive
	}
	s.nextID++
	src.ID = s.nextID
	s.sources = append(s.sources, src)
	return src, nil
}

func (s *Store) SetSourceStatus(_ context.Context, url string, status domain.SourceStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !status.Valid() {
		return domain.ErrInvalidSource
	}
	for i := range s.sources {
		if s.sources[i].URL == url {
			s.sources[i].Status = status
			return nil
		}
	}
	return fmt.Errorf("%w: %s", domain.ErrSourceNotFound, url)
}

func (s *Store) MarkFetched(_ context.Context, url string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Fetched[url] = at
	for i := range s.sources {
		if s.sources[i].URL == url {
			t := at
			s.sources[i].LastFetchedAt = &t
		}
	}
	return nil
}

func (s *Store) Ping(context.Context) error {
	return s.PingErr
}

func (s *Store) ExistingKeys(_ context.Context, sources []string) (map[domain.ArticleKey]struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.KeysErr != nil {
		return nil, s.KeysErr
	}
	wanted := make(map[string]struct{}, len(sources))
	for _, src := range sources {
		wanted[src] = struct{}{}
	}
	out := make(map[domain.ArticleKey]struct{})
	for key := range s.articles {
		if _, ok := wanted[key.Source]; ok {
			out[key] = struct{}{}
		}
	}
	return out, nil
}

func (s *Store) UpsertArticle(_ context.Context, article domain.Article) error {
	if s.UpsertErr != nil {
		if err := s.UpsertErr(article); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.articles[article.Key()]; ok {
		article.ID = prev.ID
	} else {
		s.nextID++
		article.ID = s.nextID
	}
	s.articles[article.Key()] = article
	s.Upserts = append(s.Upserts, article)
	return nil
}

func (s *Store) ListArticles(context.Context) ([]domain.Article, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ListErr != nil {
		return nil, s.ListErr
	}
	out := make([]domain.Article, 0, len(s.articles))
	for _, a := range s.articles {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) DeleteArticles(context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := int64(len(s.articles))
	s.articles = make(map[domain.ArticleKey]domain.Article)
	return n, nil
}

// Fetcher returns canned entries or errors per source URL.
type Fetcher struct {
	mu      sync.Mutex
	Entries map[string][]domain.RawEntry
	Errors  map[string]error
	Calls   map[string]int
}

var _ ports.FeedFetcher = (*Fetcher)(nil)

// NewFetcher builds an empty fetcher.
func NewFetcher() *Fetcher {
	return &Fetcher{
		Entries: make(map[string][]domain.RawEntry),
		Errors:  make(map[string]error),
		Calls:   make(map[string]int),
	}
}

func (f *Fetcher) Fetch(_ context.Context, src domain.Source) ([]domain.RawEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls[src.URL]++
	if err := f.Errors[src.URL]; err != nil {
		return nil, err
	}
	return append([]domain.RawEntry(nil), f.Entries[src.URL]...), nil
}

// ErrEnrichFailed is returned by FailingEnricher.
var ErrEnrichFailed = errors.New("provider unavailable")

// Enricher answers with Fn, or a canned triple when Fn is nil.
type Enricher struct {
	mu     sync.Mutex
	Fn     func(title, description string) (ports.Enrichment, error)
	Titles []string
}

var _ ports.Enricher = (*Enricher)(nil)

// FailingEnricher always fails.
func FailingEnricher() *Enricher {
	return &Enricher{Fn: func(string, string) (ports.Enrichment, error) {
		return ports.Enrichment{}, fmt.Errorf("%w: %w", domain.ErrEnrichment, ErrEnrichFailed)
	}}
}

func (e *Enricher) Enrich(_ context.Context, title, description string, _ int) (ports.Enrichment, error) {
	e.mu.Lock()
	e.Titles = append(e.Titles, title)
	e.mu.Unlock()
	if e.Fn != nil {
		return e.Fn(title, description)
	}
	return ports.Enrichment{Keyword: "Technology", Importance: "High", Summary: "canned summary"}, nil
}

// Calls reports how many titles were enriched.
func (e *Enricher) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.Titles)
}

// Notifier records published digests.
type Notifier struct {
	mu      sync.Mutex
	Err     error
	Digests []string
}

var _ ports.Notifier = (*Notifier)(nil)

func (n *Notifier) PublishDigest(_ context.Context, digest string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Digests = append(n.Digests, digest)
	return n.Err
}
