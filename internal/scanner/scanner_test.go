package scanner

import (
	"context"
	"testing"

	"NewsFeedRanker/internal/domain"
)

type stubDecoder struct{ feedType string }

func (s stubDecoder) FeedType() string { return s.feedType }

func (s stubDecoder) Decode(context.Context, Document) ([]domain.RawEntry, error) {
	return nil, nil
}

func TestRegistryResolve(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(stubDecoder{feedType: "RSS"}, stubDecoder{feedType: "html"})

	for _, ft := range []string{"rss", "Rss", "", " html "} {
		if _, err := reg.Resolve(ft); err != nil {
			t.Fatalf("Resolve(%q) error: %v", ft, err)
		}
	}

	if _, err := reg.Resolve("podcast"); err == nil {
		t.Fatal("expected error for unknown feed type")
	}
}

func TestRegistryRegisterReplaces(t *testing.T) {
	t.Parallel()

	var reg Registry
	reg.Register(stubDecoder{feedType: "rss"})
	replacement := stubDecoder{feedType: "rss"}
	reg.Register(replacement)

	got, err := reg.Resolve("rss")
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if got != replacement {
		t.Fatalf("expected replacement decoder")
	}
}
