package ml

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"NewsFeedRanker/internal/domain"
)

func TestClientEnrich(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/enrich" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("unexpected auth header %q", got)
		}

		var req enrichRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Title != "Rates rise" || req.MaxWords != 5 {
			t.Errorf("unexpected payload: %+v", req)
		}

		_ = json.NewEncoder(w).Encode(enrichResponse{Keyword: " Economy ", Importance: "HIGH", Summary: "Central bank raises rates"})
	}))
	defer server.Close()

	client := NewClient(server.URL+"/", "secret")
	got, err := client.Enrich(context.Background(), "Rates rise", "The bank moved.", 5)
	if err != nil {
		t.Fatalf("Enrich error: %v", err)
	}
	if got.Keyword != "economy" || got.Importance != "high" || got.Summary != "Central bank raises rates" {
		t.Fatalf("unexpected enrichment: %+v", got)
	}
}

func TestClientEnrichFailures(t *testing.T) {
	t.Parallel()

	cases := map[string]http.HandlerFunc{
		"status": func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", http.StatusInternalServerError)
		},
		"garbage": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("{"))
		},
		"incomplete": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"keyword":"tech"}`))
		},
	}

	for name, handler := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(handler)
			defer server.Close()

			_, err := NewClient(server.URL, "").Enrich(context.Background(), "t", "d", 5)
			if !errors.Is(err, domain.ErrEnrichment) {
				t.Fatalf("expected ErrEnrichment, got %v", err)
			}
		})
	}
}

func TestClientRequiresEndpoint(t *testing.T) {
	t.Parallel()

	if _, err := NewClient("", "").Enrich(context.Background(), "t", "d", 5); !errors.Is(err, domain.ErrEnrichment) {
		t.Fatalf("expected ErrEnrichment, got %v", err)
	}
}
