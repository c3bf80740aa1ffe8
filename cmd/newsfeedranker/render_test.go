package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"NewsFeedRanker/internal/domain"
)

func sampleRanked() []domain.RankedArticle {
	return []domain.RankedArticle{
		{Article: domain.Article{Title: "Rates held", Source: "https://a.example/rss", SourceName: "Alpha", Importance: domain.ImportanceHigh, PublishedDate: "2024-03-10 08:00:00"}, Rank: 0.929},
		{Article: domain.Article{Title: "Local fair", Source: "https://b.example/rss", Importance: domain.ImportanceLow}, Rank: 0.125},
	}
}

func TestWriteRankedJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := writeRankedJSON(&buf, sampleRanked()); err != nil {
		t.Fatalf("writeRankedJSON error: %v", err)
	}

	var got []rankedJSON
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}
	if len(got) != 2 || got[0].Title != "Rates held" || got[0].Importance != "high" || got[0].Rank != 0.929 {
		t.Fatalf("unexpected output: %+v", got)
	}
}

func TestWriteRankedJSONEmpty(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := writeRankedJSON(&buf, nil); err != nil {
		t.Fatalf("writeRankedJSON error: %v", err)
	}
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Fatalf("expected empty array, got %q", buf.String())
	}
}

func TestWriteRankedTable(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	writeRankedTable(&buf, sampleRanked())

	out := buf.String()
	for _, want := range []string{"Rates held", "0.929", "Alpha", "https://b.example/rss"} {
		if !strings.Contains(out, want) {
			t.Fatalf("table missing %q:\n%s", want, out)
		}
	}
}

func TestWriteSourcesTable(t *testing.T) {
	t.Parallel()

	at := time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)
	var buf bytes.Buffer
	writeSourcesTable(&buf, []domain.Source{
		{ID: 1, URL: "https://a.example/rss", DisplayName: "Alpha", FeedType: "rss", Status: domain.SourceActive, LastFetchedAt: &at},
		{ID: 2, URL: "https://b.example/", DisplayName: "Beta", FeedType: "html", Status: domain.SourceInactive},
	})

	out := buf.String()
	for _, want := range []string{"Alpha", "2024-03-10T08:00:00Z", "inactive", "never"} {
		if !strings.Contains(out, want) {
			t.Fatalf("table missing %q:\n%s", want, out)
		}
	}
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	t.Parallel()

	root := newRootCommand()
	for _, name := range []string{"refresh", "rank", "serve", "sources", "seed", "clear", "migrate"} {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Fatalf("subcommand %q not registered: %v", name, err)
		}
	}
}
