package feed

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"NewsFeedRanker/internal/domain"
	"NewsFeedRanker/internal/scanner"
)

// HTMLDecoder extracts entries from listing pages that mark each story up as
// an <article> element: a heading, a link, an optional <p> teaser and an
// optional <time>.
type HTMLDecoder struct{}

var _ scanner.Decoder = HTMLDecoder{}

// NewHTMLDecoder returns the listing-page decoder.
func NewHTMLDecoder() HTMLDecoder {
	return HTMLDecoder{}
}

// FeedType identifies the decoder inside the registry.
func (HTMLDecoder) FeedType() string {
	return domain.FeedTypeHTML
}

// Decode walks every <article> in document order.
func (HTMLDecoder) Decode(ctx context.Context, doc scanner.Document) ([]domain.RawEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("decode listing: %w", err)
	}

	page, err := goquery.NewDocumentFromReader(bytes.NewReader(doc.Body))
	if err != nil {
		return nil, fmt.Errorf("decode listing: %w", err)
	}

	base, _ := url.Parse(doc.SourceURL)

	var entries []domain.RawEntry
	page.Find("article").Each(func(_ int, node *goquery.Selection) {
		entries = append(entries, parseArticle(node, base, doc.SourceURL))
	})

	return entries, nil
}

func parseArticle(node *goquery.Selection, base *url.URL, sourceURL string) domain.RawEntry {
	heading := node.Find("h1, h2, h3, h4").First()
	title := collapseSpace(heading.Text())

	anchor := heading.Find("a[href]").First()
	if anchor.Length() == 0 {
		anchor = node.Find("a[href]").First()
	}
	href, _ := anchor.Attr("href")
	if title == "" {
		title = collapseSpace(anchor.Text())
	}

	published := ""
	if tm := node.Find("time").First(); tm.Length() > 0 {
		if dt, ok := tm.Attr("datetime"); ok {
			published = strings.TrimSpace(dt)
		} else {
			published = strings.TrimSpace(tm.Text())
		}
	}

	return domain.RawEntry{
		Title:     title,
		Summary:   collapseSpace(node.Find("p").First().Text()),
		Link:      resolveLink(base, href),
		Published: published,
		SourceURL: sourceURL,
	}
}

func resolveLink(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if base == nil || ref.IsAbs() {
		return ref.String()
	}
	return base.ResolveReference(ref).String()
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
