package usecase

import (
	"html"
	"log/slog"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"NewsFeedRanker/internal/domain"
	"NewsFeedRanker/internal/metrics"
	"NewsFeedRanker/internal/pubdate"
)

// NoDescription replaces entries that carry neither summary nor description.
const NoDescription = "No description available."

const defaultPerSourceLimit = 2

// ParseStage turns raw entries into candidate articles, at most limit per source.
type ParseStage struct {
	limit   int
	policy  *bluemonday.Policy
	clock   func() time.Time
	logger  *slog.Logger
	metrics *metrics.Pipeline
}

// NewParseStage builds the stage. limit <= 0 uses the default of 2.
func NewParseStage(limit int, clock func() time.Time, logger *slog.Logger, m *metrics.Pipeline) *ParseStage {
	if limit <= 0 {
		limit = defaultPerSourceLimit
	}
	if clock == nil {
		clock = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ParseStage{
		limit:   limit,
		policy:  bluemonday.StrictPolicy(),
		clock:   clock,
		logger:  logger.With("component", "parse"),
		metrics: m,
	}
}

// GroupBySource splits entries per source URL, keeping feed order inside
// each group and first-seen order across groups.
func GroupBySource(entries []domain.RawEntry) ([]string, map[string][]domain.RawEntry) {
	var order []string
	groups := make(map[string][]domain.RawEntry)
	for _, e := range entries {
		if _, ok := groups[e.SourceURL]; !ok {
			order = append(order, e.SourceURL)
		}
		groups[e.SourceURL] = append(groups[e.SourceURL], e)
	}
	return order, groups
}

// Run admits new entries per source in feed order. existing holds the keys
// already in storage; it is not modified.
func (s *ParseStage) Run(entries []domain.RawEntry, existing map[domain.ArticleKey]struct{}) []domain.Article {
	order, groups := GroupBySource(entries)
	parsedAt := s.clock().UTC()

	var out []domain.Article
	for _, source := range order {
		seen := make(map[domain.ArticleKey]struct{})
		admitted := 0

		for _, entry := range groups[source] {
			if admitted >= s.limit {
				break
			}

			title := strings.TrimSpace(entry.Title)
			link := strings.TrimSpace(entry.Link)
			if title == "" || link == "" {
				s.logger.Debug("entry skipped: missing title or link", "source", source, "title", title)
				continue
			}

			key := domain.ArticleKey{Title: title, Source: source}
			if _, ok := existing[key]; ok {
				s.logger.Debug("entry skipped: already stored", "source", source, "title", title)
				continue
			}
			if _, ok := seen[key]; ok {
				s.logger.Debug("entry skipped: duplicate in feed", "source", source, "title", title)
				continue
			}

			date := pubdate.Normalize(entry.Published)
			if !date.OK() {
				s.logger.Debug("unrecognized publish date", "source", source, "title", title, "raw", entry.Published)
			}

			out = append(out, domain.Article{
				Title:         title,
				Description:   s.description(entry),
				Source:        source,
				Link:          link,
				PublishedDate: date.Display,
				ParsedAt:      parsedAt,
			})
			seen[key] = struct{}{}
			admitted++
		}
	}

	s.metrics.Admitted(len(out))
	s.logger.Info("parse finished", "entries", len(entries), "admitted", len(out))

	return out
}

func (s *ParseStage) description(entry domain.RawEntry) string {
	for _, candidate := range []string{entry.Summary, entry.Description} {
		if text := s.plainText(candidate); text != "" {
			return text
		}
	}
	return NoDescription
}

func (s *ParseStage) plainText(value string) string {
	if strings.TrimSpace(value) == "" {
		return ""
	}
	stripped := html.UnescapeString(s.policy.Sanitize(value))
	return strings.Join(strings.Fields(stripped), " ")
}
