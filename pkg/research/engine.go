package research

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tmc/langchaingo/llms"
)

const promptTemperature = 0.2

const (
	DefaultSearchLimit  = 5
	DefaultMaxLearnings = 3
	DefaultContentLimit = 25000
)

// Config bounds a research traversal. Zero values fall back to the package
// defaults.
type Config struct {
	SearchLimit  int // results requested per search query
	MaxLearnings int // learnings extracted per query
	ContentLimit int // characters of one document fed to the model
}

func (c Config) withDefaults() Config {
	if c.SearchLimit <= 0 {
		c.SearchLimit = DefaultSearchLimit
	}
	if c.MaxLearnings <= 0 {
		c.MaxLearnings = DefaultMaxLearnings
	}
	if c.ContentLimit <= 0 {
		c.ContentLimit = DefaultContentLimit
	}
	return c
}

// Engine drives the recursive research traversal: plan search queries,
// fetch results, extract learnings, follow up with halved breadth and
// decremented depth, and merge every branch into one deduplicated result.
// Collaborators are exported so callers can swap loggers, observers or the
// optional archiver after construction.
type Engine struct {
	Config     Config
	LLM        llms.Model
	Searcher   Searcher
	Archiver   Archiver
	Logger     *slog.Logger
	OnProgress func(Progress)
}

func NewEngine(cfg Config, llm llms.Model, searcher Searcher) *Engine {
	return &Engine{
		Config:   cfg.withDefaults(),
		LLM:      llm,
		Searcher: searcher,
		Logger:   slog.Default(),
	}
}

// Research runs a full traversal for the topic. Search failures skip their
// query; completion failures abort the whole traversal.
func (e *Engine) Research(ctx context.Context, topic string, breadth, depth int) (*Result, error) {
	e.Logger.Info("Starting research", "topic", topic, "breadth", breadth, "depth", depth)
	tracker := newProgressTracker(breadth, depth, e.OnProgress)
	return e.research(ctx, topic, breadth, depth, nil, nil, tracker)
}

func (e *Engine) research(ctx context.Context, topic string, breadth, depth int, learnings, visited []string, tracker *progressTracker) (*Result, error) {
	queries, err := e.generateSerpQueries(ctx, topic, breadth, learnings)
	if err != nil {
		return nil, fmt.Errorf("planning failed: %w", err)
	}
	tracker.planned(depth, breadth, queries)

	var branches []*Result
	for _, q := range queries {
		results, err := e.Searcher.Search(ctx, q.Query, e.Config.SearchLimit)
		if err != nil {
			e.Logger.Error("Search failed, skipping query", "query", q.Query, "error", err)
			tracker.completed()
			continue
		}

		if e.Archiver != nil {
			if err := e.Archiver.Archive(ctx, q.Query, results); err != nil {
				e.Logger.Warn("Failed to archive search results", "query", q.Query, "error", err)
			}
		}

		urls := make([]string, 0, len(results))
		for _, r := range results {
			if r.URL != "" {
				urls = append(urls, r.URL)
			}
		}

		newBreadth := max(1, breadth/2)
		newDepth := depth - 1

		newLearnings, followUps, err := e.processSERPResult(ctx, q.Query, results, e.Config.MaxLearnings, newBreadth)
		if err != nil {
			return nil, fmt.Errorf("processing results for %q failed: %w", q.Query, err)
		}

		// Branch-local copies: sibling branches must not observe each
		// other's findings mid-traversal.
		allLearnings := concat(learnings, newLearnings)
		allURLs := concat(visited, urls)

		if newDepth > 0 {
			next := q.ResearchGoal + "\nFollow ups: " + strings.Join(followUps, " ")
			branch, err := e.research(ctx, next, newBreadth, newDepth, allLearnings, allURLs, tracker)
			if err != nil {
				return nil, err
			}
			branches = append(branches, branch)
		} else {
			branches = append(branches, &Result{Learnings: allLearnings, VisitedURLs: allURLs})
		}
		tracker.completed()
	}

	merged := &Result{}
	for _, b := range branches {
		merged.Learnings = append(merged.Learnings, b.Learnings...)
		merged.VisitedURLs = append(merged.VisitedURLs, b.VisitedURLs...)
	}
	merged.Learnings = dedupe(merged.Learnings)
	merged.VisitedURLs = dedupe(merged.VisitedURLs)
	return merged, nil
}
