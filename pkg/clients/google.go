package clients

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"

	"github.com/mikeboe/deep-research/pkg/config"
)

// GoogleAI builds the Gemini-backed completion model.
// See https://ai.google.dev/gemini-api/docs/models/gemini for possible models.
func GoogleAI(ctx context.Context, cfg *config.Config) (llms.Model, error) {
	llm, err := googleai.New(ctx,
		googleai.WithAPIKey(cfg.GeminiKey),
		googleai.WithDefaultModel(cfg.GeminiModel),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create GoogleAI client: %w", err)
	}
	return llm, nil
}
