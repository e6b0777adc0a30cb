package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/briandowns/spinner"
	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/mikeboe/deep-research/pkg/clients"
	"github.com/mikeboe/deep-research/pkg/config"
	"github.com/mikeboe/deep-research/pkg/corpus"
	"github.com/mikeboe/deep-research/pkg/research"
	"github.com/mikeboe/deep-research/pkg/search"
)

var (
	query    string
	breadth  int
	depth    int
	answer   bool
	provider string
)

func main() {
	// Setup structured logging; stdout stays clean for the report
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	// It's okay if .env doesn't exist, as long as env vars are set
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "deep-research",
		Short: "A terminal-based recursive research agent",
		Long:  `deep-research explores a topic by planning search queries, extracting learnings from the results and recursing into follow-up questions with shrinking breadth and depth.`,
		RunE:  run,
	}
	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true

	rootCmd.Flags().StringVarP(&query, "query", "q", "", "The research topic")
	rootCmd.Flags().IntVar(&breadth, "breadth", 4, "Search queries per recursion level")
	rootCmd.Flags().IntVar(&depth, "depth", 2, "How many levels to recurse")
	rootCmd.Flags().BoolVar(&answer, "answer", false, "Write a concise answer instead of a detailed report")
	rootCmd.Flags().StringVar(&provider, "provider", "", "Search provider (firecrawl or arxiv)")

	if err := rootCmd.Execute(); err != nil {
		slog.Error("Command execution failed", "error", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg := config.Load()
	if provider != "" {
		cfg.SearchProvider = provider
	}

	if !cmd.Flags().Changed("query") {
		if !isatty.IsTerminal(os.Stdin.Fd()) {
			return fmt.Errorf("--query is required when stdin is not a terminal")
		}
		if err := promptForRun(cmd); err != nil {
			if err == terminal.InterruptErr {
				return fmt.Errorf("cancelled")
			}
			return err
		}
	}
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("query must not be empty")
	}

	llm, err := clients.Completion(ctx, cfg)
	if err != nil {
		return err
	}
	searcher, err := search.FromConfig(cfg)
	if err != nil {
		return err
	}

	engine := research.NewEngine(research.Config{
		SearchLimit:  cfg.SearchLimit,
		MaxLearnings: cfg.MaxLearnings,
		ContentLimit: cfg.ContentLimit,
	}, llm, searcher)

	archiveCfg := config.LoadArchive()
	if archiveCfg.Enabled() {
		archive, err := corpus.OpenArchive(ctx, archiveCfg, cfg.GeminiKey)
		if err != nil {
			return fmt.Errorf("failed to open archive: %w", err)
		}
		defer archive.Close()
		engine.Archiver = archive.Indexer
		slog.Info("Archive enabled", "collection", archiveCfg.Collection)
	}

	stopProgress := attachProgress(engine)
	defer stopProgress()

	result, err := engine.Research(ctx, query, breadth, depth)
	if err != nil {
		return err
	}

	var output, filename string
	if answer {
		output, err = engine.WriteFinalAnswer(ctx, query, result)
		filename = "answer.md"
	} else {
		output, err = engine.WriteFinalReport(ctx, query, result)
		filename = "report.md"
	}
	if err != nil {
		return err
	}
	stopProgress()

	if err := os.WriteFile(filename, []byte(output), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filename, err)
	}

	fmt.Println(output)
	slog.Info("Research finished", "learnings", len(result.Learnings), "sources", len(result.VisitedURLs), "output", filename)
	return nil
}

// promptForRun collects the run parameters interactively. Flags that were
// set explicitly are not asked again.
func promptForRun(cmd *cobra.Command) error {
	if err := survey.AskOne(&survey.Input{Message: "What would you like to research?"}, &query, survey.WithValidator(survey.Required)); err != nil {
		return err
	}

	if !cmd.Flags().Changed("breadth") {
		if err := askInt("Research breadth:", &breadth); err != nil {
			return err
		}
	}
	if !cmd.Flags().Changed("depth") {
		if err := askInt("Research depth:", &depth); err != nil {
			return err
		}
	}

	if !cmd.Flags().Changed("answer") {
		mode := "report"
		prompt := &survey.Select{
			Message: "What kind of output do you want?",
			Options: []string{"report", "answer"},
			Default: "report",
		}
		if err := survey.AskOne(prompt, &mode); err != nil {
			return err
		}
		answer = mode == "answer"
	}

	return nil
}

// askInt prompts for a positive integer, offering the current value as the
// default.
func askInt(message string, value *int) error {
	var raw string
	prompt := &survey.Input{Message: message, Default: strconv.Itoa(*value)}
	if err := survey.AskOne(prompt, &raw); err != nil {
		return err
	}

	parsed, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || parsed <= 0 {
		return fmt.Errorf("%q is not a positive number", raw)
	}
	*value = parsed
	return nil
}

// attachProgress renders traversal progress: a spinner on a terminal, log
// lines otherwise. The returned stop function is safe to call twice.
func attachProgress(engine *research.Engine) func() {
	if !isatty.IsTerminal(os.Stderr.Fd()) {
		engine.OnProgress = func(p research.Progress) {
			slog.Info("Research progress",
				"depth", fmt.Sprintf("%d/%d", p.CurrentDepth, p.TotalDepth),
				"queries", fmt.Sprintf("%d/%d", p.CompletedQueries, p.TotalQueries),
				"current", p.CurrentQuery)
		}
		return func() {}
	}

	spin := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	spin.Suffix = " planning queries..."
	spin.Start()
	engine.OnProgress = func(p research.Progress) {
		spin.Suffix = fmt.Sprintf(" depth %d/%d  queries %d/%d  %s",
			p.CurrentDepth, p.TotalDepth, p.CompletedQueries, p.TotalQueries, truncate(p.CurrentQuery, 48))
	}
	return spin.Stop
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit-3]) + "..."
}
