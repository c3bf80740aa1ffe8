package scanner

import (
	"context"
	"fmt"
	"strings"

	"NewsFeedRanker/internal/domain"
)

// Document is a fetched feed body together with the URL it came from.
type Document struct {
	SourceURL string
	Body      []byte
}

// Decoder turns one fetched document into raw entries (RSS, HTML listing, etc.).
type Decoder interface {
	FeedType() string
	Decode(ctx context.Context, doc Document) ([]domain.RawEntry, error)
}

// Registry keeps a mapping from feed types to their decoders.
type Registry struct {
	decoders map[string]Decoder
}

// NewRegistry builds a registry with the given decoders.
func NewRegistry(decoders ...Decoder) *Registry {
	r := &Registry{decoders: map[string]Decoder{}}
	for _, d := range decoders {
		r.Register(d)
	}
	return r
}

// Register adds or replaces a decoder implementation.
func (r *Registry) Register(decoder Decoder) {
	if r.decoders == nil {
		r.decoders = map[string]Decoder{}
	}
	r.decoders[normalize(decoder.FeedType())] = decoder
}

// Resolve returns a decoder by feed type; an empty type means rss.
func (r *Registry) Resolve(feedType string) (Decoder, error) {
	if decoder, ok := r.decoders[normalize(feedType)]; ok {
		return decoder, nil
	}
	return nil, fmt.Errorf("feed type %q is not registered", feedType)
}

func normalize(feedType string) string {
	feedType = strings.ToLower(strings.TrimSpace(feedType))
	if feedType == "" {
		return domain.FeedTypeRSS
	}
	return feedType
}
