// Package ranking scores stored articles by recency and importance. Every
// function here is pure: identical inputs and "now" give identical output.
package ranking

import (
	"math"
	"sort"
	"strings"
	"time"

	"NewsFeedRanker/internal/domain"
	"NewsFeedRanker/internal/pubdate"
)

// DefaultMaxAgeDays is the decay window used when callers pass a non-positive value.
const DefaultMaxAgeDays = 7

const defaultImportanceWeight = 0.1

var importanceWeights = map[string]float64{
	"high":          1.0,
	"medium":        0.6,
	"low":           0.3,
	"uncategorized": 0.1,
}

// TimeScore decays linearly from 1 at publication to 0 at maxAgeDays.
// Unparsable dates score 0 and future dates score 1.
func TimeScore(publishedDate string, maxAgeDays int, now time.Time) float64 {
	published, err := pubdate.ParseDisplay(publishedDate)
	if err != nil {
		return 0
	}
	if maxAgeDays <= 0 {
		maxAgeDays = DefaultMaxAgeDays
	}

	ageDays := now.Sub(published).Hours() / 24
	if ageDays < 0 {
		return 1
	}

	return math.Max(0, math.Min(1, 1-ageDays/float64(maxAgeDays)))
}

// ImportanceScore looks the level up case-insensitively; unknown levels weigh 0.1.
func ImportanceScore(importance string) float64 {
	if w, ok := importanceWeights[strings.ToLower(strings.TrimSpace(importance))]; ok {
		return w
	}
	return defaultImportanceWeight
}

// Rank is the equal-weighted mean of both scores rounded to three decimals.
func Rank(timeScore, importanceScore float64) float64 {
	return math.Round((timeScore+importanceScore)/2*1000) / 1000
}

// Score computes all three values for a single article.
func Score(article domain.Article, maxAgeDays int, now time.Time) domain.RankedArticle {
	ts := TimeScore(article.PublishedDate, maxAgeDays, now)
	is := ImportanceScore(string(article.Importance))
	return domain.RankedArticle{
		Article:         article,
		Rank:            Rank(ts, is),
		TimeScore:       ts,
		ImportanceScore: is,
	}
}

// RankArticles scores the snapshot and sorts it by rank, highest first.
// Ties keep their input order.
func RankArticles(articles []domain.Article, maxAgeDays int, now time.Time) []domain.RankedArticle {
	ranked := make([]domain.RankedArticle, 0, len(articles))
	for _, a := range articles {
		ranked = append(ranked, Score(a, maxAgeDays, now))
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Rank > ranked[j].Rank
	})

	return ranked
}
