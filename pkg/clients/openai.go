package clients

import (
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/mikeboe/deep-research/pkg/config"
)

// OpenAI builds the OpenAI-backed completion model.
func OpenAI(cfg *config.Config) (llms.Model, error) {
	llm, err := openai.New(
		openai.WithToken(cfg.OpenAIKey),
		openai.WithModel(cfg.OpenAIModel),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenAI client: %w", err)
	}
	return llm, nil
}
