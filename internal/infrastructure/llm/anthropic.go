package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"NewsFeedRanker/internal/config"
	"NewsFeedRanker/internal/domain"
	"NewsFeedRanker/internal/ports"
)

// AnthropicEnricher implements ports.Enricher on the Messages API.
type AnthropicEnricher struct {
	client    anthropic.Client
	model     anthropic.Model
	maxTokens int64
}

var _ ports.Enricher = (*AnthropicEnricher)(nil)

// NewAnthropicEnricher builds a provider from configuration. Extra request
// options (base URL, retries) are appended after the API key.
func NewAnthropicEnricher(cfg config.AnthropicConfig, opts ...option.RequestOption) *AnthropicEnricher {
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 250
	}
	model := cfg.Model
	if model == "" {
		model = "claude-3-haiku-20240307"
	}

	reqOpts := append([]option.RequestOption{option.WithAPIKey(cfg.APIKey)}, opts...)
	return &AnthropicEnricher{
		client:    anthropic.NewClient(reqOpts...),
		model:     anthropic.Model(model),
		maxTokens: maxTokens,
	}
}

// Enrich asks the model for keyword, importance and a short summary.
func (a *AnthropicEnricher) Enrich(ctx context.Context, title, description string, maxWords int) (ports.Enrichment, error) {
	msg, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       a.model,
		MaxTokens:   a.maxTokens,
		Temperature: anthropic.Float(0),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(buildPrompt(title, description, maxWords))),
		},
	})
	if err != nil {
		return ports.Enrichment{}, fmt.Errorf("%w: anthropic: %w", domain.ErrEnrichment, err)
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	return parseResponse(text.String())
}
