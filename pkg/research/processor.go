package research

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/tmc/langchaingo/llms"

	"github.com/mikeboe/deep-research/pkg/splitter"
)

// processSERPResult turns one query's search results into learnings and
// follow-up questions. Results with empty content are dropped and each
// remaining document is trimmed so the prompt stays within bounds. An
// answer that yields neither learnings nor follow-ups is valid.
func (e *Engine) processSERPResult(ctx context.Context, query string, results []SearchResult, numLearnings, numFollowUps int) ([]string, []string, error) {
	contents := make([]string, 0, len(results))
	for _, r := range results {
		if r.Markdown == "" {
			continue
		}
		contents = append(contents, trimToSize(r.Markdown, e.Config.ContentLimit))
	}

	var prompt strings.Builder
	fmt.Fprintf(&prompt, "Using the following search results for %q, generate up to %d learnings and up to %d follow-up questions.\n", query, numLearnings, numFollowUps)
	prompt.WriteString("Write each learning as a markdown bullet starting with \"- \" and each follow-up question as a plain line.\n")
	prompt.WriteString(strings.Join(contents, "\n"))

	content, err := llms.GenerateFromSinglePrompt(ctx, e.LLM, prompt.String(), llms.WithTemperature(promptTemperature))
	if err != nil {
		return nil, nil, fmt.Errorf("result processing failed: %w", err)
	}

	learnings, followUps := parseLearnings(content, numLearnings, numFollowUps)
	e.Logger.Info("Processed search results", "query", query, "learnings", len(learnings), "follow_ups", len(followUps))
	return learnings, followUps, nil
}

// parseLearnings splits a completion into learnings (lines starting with a
// "-" bullet, marker stripped) and follow-up questions (any other non-blank
// line, trimmed). Both lists are truncated to their bounds.
func parseLearnings(content string, maxLearnings, maxFollowUps int) (learnings, followUps []string) {
	for _, line := range strings.Split(content, "\n") {
		switch {
		case strings.HasPrefix(line, "-"):
			learnings = append(learnings, strings.TrimLeft(line, "- "))
		case strings.TrimSpace(line) != "":
			followUps = append(followUps, strings.TrimSpace(line))
		}
	}
	if len(learnings) > maxLearnings {
		learnings = learnings[:maxLearnings]
	}
	if len(followUps) > maxFollowUps {
		followUps = followUps[:maxFollowUps]
	}
	return learnings, followUps
}

// trimToSize bounds text to limit characters, cutting on natural boundaries
// where the splitter finds them and falling back to a hard slice when the
// text cannot shrink any other way.
func trimToSize(text string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return text
	}

	s, err := splitter.NewRecursiveCharacter(splitter.WithChunkSize(limit), splitter.WithChunkOverlap(0))
	if err != nil {
		return string([]rune(text)[:limit])
	}

	chunks := s.SplitText(text)
	if len(chunks) == 0 {
		return ""
	}
	trimmed := chunks[0]
	if utf8.RuneCountInString(trimmed) >= utf8.RuneCountInString(text) {
		return string([]rune(text)[:limit])
	}
	return trimToSize(trimmed, limit)
}
