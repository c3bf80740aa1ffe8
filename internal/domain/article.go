package domain

import (
	"strings"
	"time"
)

// UnknownDate is stored when no supported layout matches the feed-provided date.
const UnknownDate = "Unknown Date"

// Uncategorized marks keywords/importance that were never derived.
const Uncategorized = "uncategorized"

// SourceStatus toggles whether a source takes part in refresh cycles.
type SourceStatus string

const (
	SourceActive   SourceStatus = "active"
	SourceInactive SourceStatus = "inactive"
)

// Valid reports whether the status is one of the known values.
func (s SourceStatus) Valid() bool {
	return s == SourceActive || s == SourceInactive
}

// Feed types understood by the scanner registry.
const (
	FeedTypeRSS  = "rss"
	FeedTypeHTML = "html"
)

// Source is a configured feed endpoint. URL is the unique key.
type Source struct {
	ID            int64
	URL           string
	DisplayName   string
	Category      string
	FeedType      string
	Status        SourceStatus
	LastFetchedAt *time.Time
}

// RawEntry is one item of a fetched feed document, tagged with its source.
// It lives only between fetch and parse.
type RawEntry struct {
	Title       string
	Summary     string
	Description string
	Link        string
	Published   string
	SourceURL   string
}

// Importance is the categorical weight assigned by enrichment.
type Importance string

const (
	ImportanceHigh          Importance = "high"
	ImportanceMedium        Importance = "medium"
	ImportanceLow           Importance = "low"
	ImportanceUncategorized Importance = Uncategorized
)

// ParseImportance lower-cases and trims the value; anything unknown becomes uncategorized.
func ParseImportance(value string) Importance {
	switch imp := Importance(strings.ToLower(strings.TrimSpace(value))); imp {
	case ImportanceHigh, ImportanceMedium, ImportanceLow:
		return imp
	default:
		return ImportanceUncategorized
	}
}

// ArticleKey is the storage uniqueness key.
type ArticleKey struct {
	Title  string
	Source string
}

// Article is a normalized, enriched, persisted news item.
type Article struct {
	ID             int64
	Title          string
	Description    string
	Source         string
	SourceName     string
	Link           string
	PublishedDate  string
	ParsedAt       time.Time
	Keywords       string
	Importance     Importance
	DerivedSummary string
}

// Key returns the (title, source) pair the store is unique on.
func (a Article) Key() ArticleKey {
	return ArticleKey{Title: a.Title, Source: a.Source}
}

// RankedArticle is an Article with scores computed at read time. Never persisted.
type RankedArticle struct {
	Article
	Rank            float64
	TimeScore       float64
	ImportanceScore float64
}
