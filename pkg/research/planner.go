package research

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
)

// generateSerpQueries asks the completion model for up to numQueries search
// queries for the topic, folding prior learnings into the prompt when there
// are any. Zero parsed queries is a valid outcome, not an error.
func (e *Engine) generateSerpQueries(ctx context.Context, topic string, numQueries int, learnings []string) ([]SerpQuery, error) {
	var prompt strings.Builder
	fmt.Fprintf(&prompt, "Generate up to %d distinct web search queries to research the topic below. Return one query per line, no numbering, no commentary.", numQueries)
	if len(learnings) > 0 {
		prompt.WriteString("\nUse these learnings from earlier research to make the queries more specific:\n")
		prompt.WriteString(strings.Join(learnings, "\n"))
	}
	fmt.Fprintf(&prompt, "\nTopic: %s", topic)

	content, err := llms.GenerateFromSinglePrompt(ctx, e.LLM, prompt.String(), llms.WithTemperature(promptTemperature))
	if err != nil {
		return nil, fmt.Errorf("query generation failed: %w", err)
	}

	queries := parseQueries(content, numQueries)
	e.Logger.Info("Generated search queries", "count", len(queries), "requested", numQueries)
	return queries, nil
}

// parseQueries reads one query per non-blank line, trimmed, truncated to
// limit. In this line-oriented format the research goal mirrors the query.
func parseQueries(content string, limit int) []SerpQuery {
	var queries []SerpQuery
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		queries = append(queries, SerpQuery{Query: line, ResearchGoal: line})
		if len(queries) == limit {
			break
		}
	}
	return queries
}
