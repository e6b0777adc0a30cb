// Package clients builds the completion models the research engine talks to.
package clients

import (
	"context"
	"errors"

	"github.com/tmc/langchaingo/llms"

	"github.com/mikeboe/deep-research/pkg/config"
)

// ErrNoCompletionKey reports that no completion provider is configured.
var ErrNoCompletionKey = errors.New("no completion API key configured (set OPENAI_KEY or GEMINI_API_KEY)")

// Completion picks the completion provider from the configured keys. OpenAI
// wins when both keys are set.
func Completion(ctx context.Context, cfg *config.Config) (llms.Model, error) {
	switch {
	case cfg.OpenAIKey != "":
		return OpenAI(cfg)
	case cfg.GeminiKey != "":
		return GoogleAI(ctx, cfg)
	default:
		return nil, ErrNoCompletionKey
	}
}
