// Package ai generates narrative summaries of sprint and backlog analyses.
// A Generator produces the text; every summary also has a deterministic
// fallback, so reports render with or without an API key.
package ai

import "context"

// Generator produces free text from a system and user prompt.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}
