package research

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
)

// WriteFinalReport synthesizes a detailed markdown report from the merged
// findings and appends a Sources section listing every visited URL, in
// order, regardless of what the model cited in the body.
func (e *Engine) WriteFinalReport(ctx context.Context, topic string, result *Result) (string, error) {
	bullets := make([]string, 0, len(result.Learnings))
	for _, l := range result.Learnings {
		bullets = append(bullets, "- "+l)
	}

	prompt := fmt.Sprintf("Write a detailed report on: %s\nLearnings:\n%s", topic, strings.Join(bullets, "\n"))
	report, err := llms.GenerateFromSinglePrompt(ctx, e.LLM, prompt, llms.WithTemperature(promptTemperature))
	if err != nil {
		return "", fmt.Errorf("report generation failed: %w", err)
	}

	sources := make([]string, 0, len(result.VisitedURLs))
	for _, u := range result.VisitedURLs {
		sources = append(sources, "- "+u)
	}

	e.Logger.Info("Final report generated", "learnings", len(result.Learnings), "sources", len(result.VisitedURLs))
	return report + "\n\n## Sources\n" + strings.Join(sources, "\n"), nil
}

// WriteFinalAnswer synthesizes a short, direct answer from the merged
// findings. No sources section is appended.
func (e *Engine) WriteFinalAnswer(ctx context.Context, topic string, result *Result) (string, error) {
	prompt := fmt.Sprintf("%s\nUse these learnings:\n%s", topic, strings.Join(result.Learnings, "\n"))
	answer, err := llms.GenerateFromSinglePrompt(ctx, e.LLM, prompt, llms.WithTemperature(promptTemperature))
	if err != nil {
		return "", fmt.Errorf("answer generation failed: %w", err)
	}

	e.Logger.Info("Final answer generated", "learnings", len(result.Learnings))
	return strings.TrimSpace(answer), nil
}
