package feed

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"NewsFeedRanker/internal/domain"
	"NewsFeedRanker/internal/scanner"
)

const httpPrefix = "http"

// RSSDecoder parses RSS, Atom and JSON feeds.
type RSSDecoder struct{}

var _ scanner.Decoder = RSSDecoder{}

// NewRSSDecoder returns the default feed decoder.
func NewRSSDecoder() RSSDecoder {
	return RSSDecoder{}
}

// FeedType identifies the decoder inside the registry.
func (RSSDecoder) FeedType() string {
	return domain.FeedTypeRSS
}

// Decode keeps feed order. Dates gofeed could parse are handed on as RFC 3339;
// otherwise the raw text is passed through for the parse stage to try.
func (RSSDecoder) Decode(ctx context.Context, doc scanner.Document) ([]domain.RawEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("decode feed: %w", err)
	}

	parsed, err := gofeed.NewParser().Parse(bytes.NewReader(doc.Body))
	if err != nil {
		return nil, fmt.Errorf("decode feed: %w", err)
	}

	entries := make([]domain.RawEntry, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item == nil {
			continue
		}
		entries = append(entries, domain.RawEntry{
			Title:       strings.TrimSpace(item.Title),
			Summary:     strings.TrimSpace(item.Description),
			Description: strings.TrimSpace(item.Content),
			Link:        extractLink(item),
			Published:   publishedText(item),
			SourceURL:   doc.SourceURL,
		})
	}

	return entries, nil
}

func publishedText(item *gofeed.Item) string {
	switch {
	case item.PublishedParsed != nil:
		return item.PublishedParsed.UTC().Format(time.RFC3339)
	case item.UpdatedParsed != nil:
		return item.UpdatedParsed.UTC().Format(time.RFC3339)
	case strings.TrimSpace(item.Published) != "":
		return strings.TrimSpace(item.Published)
	default:
		return strings.TrimSpace(item.Updated)
	}
}

// extractLink prefers the explicit link, falling back to a URL-shaped GUID.
func extractLink(item *gofeed.Item) string {
	if link := strings.TrimSpace(item.Link); link != "" {
		return link
	}
	if guid := strings.TrimSpace(item.GUID); strings.HasPrefix(guid, httpPrefix) {
		return guid
	}
	return ""
}
