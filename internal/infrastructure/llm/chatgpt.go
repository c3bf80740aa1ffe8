package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"NewsFeedRanker/internal/config"
	"NewsFeedRanker/internal/domain"
	"NewsFeedRanker/internal/ports"
)

// ChatGPTClient implements ports.Enricher backed by OpenAI-compatible APIs.
type ChatGPTClient struct {
	endpoint     string
	model        string
	apiKey       string
	systemPrompt string
	httpClient   *http.Client
}

var _ ports.Enricher = (*ChatGPTClient)(nil)

// NewChatGPTClient builds a client from configuration.
func NewChatGPTClient(cfg config.ChatGPTConfig) *ChatGPTClient {
	return &ChatGPTClient{
		endpoint:     cfg.Endpoint,
		model:        cfg.Model,
		apiKey:       cfg.APIKey,
		systemPrompt: cfg.SystemPrompt,
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
		},
	}
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Enrich sends the three-line prompt as a user message and parses the reply.
func (c *ChatGPTClient) Enrich(ctx context.Context, title, description string, maxWords int) (ports.Enrichment, error) {
	if c == nil {
		return ports.Enrichment{}, fmt.Errorf("%w: chatgpt client is nil", domain.ErrEnrichment)
	}
	if c.apiKey == "" || c.endpoint == "" || c.model == "" {
		return ports.Enrichment{}, fmt.Errorf("%w: chatgpt client misconfigured", domain.ErrEnrichment)
	}

	body, err := json.Marshal(map[string]any{
		"model":       c.model,
		"temperature": 0,
		"max_tokens":  250,
		"messages": []map[string]string{
			{"role": "system", "content": safePrompt(c.systemPrompt)},
			{"role": "user", "content": buildPrompt(title, description, maxWords)},
		},
	})
	if err != nil {
		return ports.Enrichment{}, fmt.Errorf("marshal chatgpt payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return ports.Enrichment{}, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ports.Enrichment{}, fmt.Errorf("%w: chatgpt request: %w", domain.ErrEnrichment, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return ports.Enrichment{}, fmt.Errorf("%w: chatgpt error %s: %s", domain.ErrEnrichment, resp.Status, strings.TrimSpace(string(payload)))
	}

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return ports.Enrichment{}, fmt.Errorf("%w: decode chatgpt response: %w", domain.ErrEnrichment, err)
	}
	if len(decoded.Choices) == 0 {
		return ports.Enrichment{}, fmt.Errorf("%w: chatgpt returned no choices", domain.ErrEnrichment)
	}

	return parseResponse(decoded.Choices[0].Message.Content)
}

func safePrompt(prompt string) string {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "You are a helpful assistant that classifies news articles."
	}
	return prompt
}
