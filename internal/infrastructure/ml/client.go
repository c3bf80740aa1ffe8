package ml

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"NewsFeedRanker/internal/domain"
	"NewsFeedRanker/internal/ports"
)

// Client talks to an external inference service that classifies and
// summarizes articles.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

var _ ports.Enricher = (*Client)(nil)

// NewClient creates a reusable HTTP client.
func NewClient(endpoint, apiKey string) *Client {
	return &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		apiKey:   apiKey,
		http:     &http.Client{Timeout: 15 * time.Second},
	}
}

type enrichRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	MaxWords    int    `json:"max_words"`
}

type enrichResponse struct {
	Keyword    string `json:"keyword"`
	Importance string `json:"importance"`
	Summary    string `json:"summary"`
}

// Enrich posts the article to /enrich and maps the JSON answer.
func (c *Client) Enrich(ctx context.Context, title, description string, maxWords int) (ports.Enrichment, error) {
	if c.endpoint == "" {
		return ports.Enrichment{}, fmt.Errorf("%w: ml inference url is empty", domain.ErrEnrichment)
	}

	var resp enrichResponse
	payload := enrichRequest{Title: title, Description: description, MaxWords: maxWords}
	if err := c.post(ctx, "/enrich", payload, &resp); err != nil {
		return ports.Enrichment{}, fmt.Errorf("%w: %w", domain.ErrEnrichment, err)
	}

	if strings.TrimSpace(resp.Keyword) == "" || strings.TrimSpace(resp.Importance) == "" {
		return ports.Enrichment{}, fmt.Errorf("%w: incomplete ml response", domain.ErrEnrichment)
	}

	return ports.Enrichment{
		Keyword:    strings.ToLower(strings.TrimSpace(resp.Keyword)),
		Importance: strings.ToLower(strings.TrimSpace(resp.Importance)),
		Summary:    strings.TrimSpace(resp.Summary),
	}, nil
}

func (c *Client) post(ctx context.Context, path string, payload any, v any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		closeErr := resp.Body.Close()
		if closeErr != nil {
			return fmt.Errorf("unexpected status %s, close body: %v", resp.Status, closeErr)
		}
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		_ = resp.Body.Close()
		return fmt.Errorf("decode response: %w", err)
	}

	if err := resp.Body.Close(); err != nil {
		return fmt.Errorf("close response body: %w", err)
	}

	return nil
}
