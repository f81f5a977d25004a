package ai

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// DefaultAnthropicModel is used when no model is configured.
const DefaultAnthropicModel = "claude-haiku-4-5-20251001"

// AnthropicGenerator produces summaries via the Anthropic Messages API.
type AnthropicGenerator struct {
	api   *anthropic.Client
	model anthropic.Model
}

// NewAnthropicGenerator builds an Anthropic-backed generator.
func NewAnthropicGenerator(apiKey, model string) (*AnthropicGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("ai: anthropic api key is required")
	}
	if model == "" {
		model = DefaultAnthropicModel
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &AnthropicGenerator{
		api:   &client,
		model: anthropic.Model(model),
	}, nil
}

// Generate sends the prompts to the Messages API and returns the first text
// block of the response.
func (g *AnthropicGenerator) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	msg, err := g.api.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     g.model,
		MaxTokens: 4096,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("ai: anthropic API call: %w", err)
	}

	for _, block := range msg.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("ai: no text content in API response")
}
