package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/adk/agent"
	"google.golang.org/adk/tool"
	"google.golang.org/adk/tool/functiontool"

	"github.com/mikeboe/deep-research/pkg/corpus"
)

// CorpusToolset exposes the research corpus to the chat agent.
type CorpusToolset struct {
	Retriever *corpus.Retriever
	Store     *corpus.Store
}

func NewCorpusToolset(retriever *corpus.Retriever, store *corpus.Store) *CorpusToolset {
	return &CorpusToolset{
		Retriever: retriever,
		Store:     store,
	}
}

func (t *CorpusToolset) Name() string {
	return "corpus_tools"
}

func (t *CorpusToolset) Tools(ctx agent.ReadonlyContext) ([]tool.Tool, error) {
	searchTool, err := functiontool.New[SearchCorpusArgs, SearchCorpusResp](
		functiontool.Config{
			Name:        "search_corpus",
			Description: "Search content fetched by earlier research runs using semantic search.",
		},
		t.searchCorpusTool,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create search tool: %w", err)
	}

	getSourceTool, err := functiontool.New[GetSourceArgs, GetSourceResp](
		functiontool.Config{
			Name:        "get_source",
			Description: "Retrieve the full stored content of a specific source URL.",
		},
		t.getSourceTool,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create get_source tool: %w", err)
	}

	return []tool.Tool{searchTool, getSourceTool}, nil
}

// --- Tool Implementations ---

type SearchCorpusArgs struct {
	Query string `json:"query" description:"The search query"`
	TopK  int    `json:"topK,omitempty" description:"Number of results to return (default 5)"`
}

type SearchCorpusResp struct {
	Results string `json:"results"`
}

// Wrapper for ADK tool interface
func (t *CorpusToolset) searchCorpusTool(ctx tool.Context, args SearchCorpusArgs) (SearchCorpusResp, error) {
	return t.SearchCorpus(ctx, args)
}

// SearchCorpus is the context-based implementation behind the tool.
func (t *CorpusToolset) SearchCorpus(ctx context.Context, args SearchCorpusArgs) (SearchCorpusResp, error) {
	slog.Info("Search corpus", "query", args.Query, "topK", args.TopK)

	matches, err := t.Retriever.Retrieve(ctx, args.Query, args.TopK)
	if err != nil {
		return SearchCorpusResp{}, fmt.Errorf("failed to search corpus: %w", err)
	}
	if len(matches) == 0 {
		return SearchCorpusResp{Results: "No matching content in the corpus."}, nil
	}

	return SearchCorpusResp{Results: corpus.FormatMatches(matches)}, nil
}

type GetSourceArgs struct {
	Source string `json:"source" description:"The source URL to retrieve content for"`
}

type GetSourceResp struct {
	Content string `json:"content"`
}

// Wrapper for ADK tool interface
func (t *CorpusToolset) getSourceTool(ctx tool.Context, args GetSourceArgs) (GetSourceResp, error) {
	return t.GetSource(ctx, args)
}

// GetSource reassembles every chunk stored for one source.
func (t *CorpusToolset) GetSource(ctx context.Context, args GetSourceArgs) (GetSourceResp, error) {
	entries, err := t.Store.BySource(ctx, args.Source)
	if err != nil {
		return GetSourceResp{}, fmt.Errorf("failed to find content: %w", err)
	}

	var chunks []string
	for _, entry := range entries {
		chunks = append(chunks, entry.Content)
	}

	return GetSourceResp{Content: strings.Join(chunks, "\n\n")}, nil
}
