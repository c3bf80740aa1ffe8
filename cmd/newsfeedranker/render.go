package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"NewsFeedRanker/internal/domain"
)

const titleWidth = 60

type rankedJSON struct {
	Title          string  `json:"title"`
	Source         string  `json:"source"`
	SourceName     string  `json:"source_name"`
	Link           string  `json:"link"`
	PublishedDate  string  `json:"published_date"`
	Keywords       string  `json:"keywords"`
	Importance     string  `json:"importance"`
	DerivedSummary string  `json:"derived_summary"`
	Rank           float64 `json:"rank"`
}

func writeRankedJSON(w io.Writer, ranked []domain.RankedArticle) error {
	out := make([]rankedJSON, 0, len(ranked))
	for _, a := range ranked {
		out = append(out, rankedJSON{
			Title:          a.Title,
			Source:         a.Source,
			SourceName:     a.SourceName,
			Link:           a.Link,
			PublishedDate:  a.PublishedDate,
			Keywords:       a.Keywords,
			Importance:     string(a.Importance),
			DerivedSummary: a.DerivedSummary,
			Rank:           a.Rank,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode ranked articles: %w", err)
	}
	return nil
}

func writeRankedTable(w io.Writer, ranked []domain.RankedArticle) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "Rank", "Importance", "Published", "Source", "Title"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 6, WidthMax: titleWidth},
	})

	for i, a := range ranked {
		source := a.SourceName
		if source == "" {
			source = a.Source
		}
		t.AppendRow(table.Row{i + 1, fmt.Sprintf("%.3f", a.Rank), a.Importance, a.PublishedDate, source, a.Title})
	}
	t.AppendFooter(table.Row{"", "", "", "", "total", len(ranked)})
	t.Render()
}

func writeSourcesTable(w io.Writer, sources []domain.Source) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "Name", "URL", "Category", "Type", "Status", "Last fetched"})

	for _, src := range sources {
		lastFetched := "never"
		if src.LastFetchedAt != nil {
			lastFetched = src.LastFetchedAt.Format(time.RFC3339)
		}
		t.AppendRow(table.Row{src.ID, src.DisplayName, src.URL, src.Category, src.FeedType, src.Status, lastFetched})
	}
	t.Render()
}
