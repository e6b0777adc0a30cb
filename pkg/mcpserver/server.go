// Package mcpserver exposes research as MCP tools over stdio or streamable
// HTTP.
package mcpserver

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mikeboe/deep-research/pkg/corpus"
	"github.com/mikeboe/deep-research/pkg/research"
)

const (
	serverName    = "deep-research"
	serverVersion = "1.0.0"
)

// Defaults applied when a tool call leaves breadth or depth unset.
const (
	defaultBreadth = 4
	defaultDepth   = 2
)

// New assembles the MCP server. The search_corpus tool registers only when a
// retriever is supplied, mirroring the optional archive.
func New(engine *research.Engine, retriever *corpus.Retriever) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    serverName,
		Version: serverVersion,
	}, nil)

	tools := &toolHandler{engine: engine, retriever: retriever}

	mcp.AddTool(server, &mcp.Tool{
		Name:        "deep_research",
		Description: "Research a topic by recursively searching the web and following up on findings. Returns a detailed report or a concise answer with sources.",
	}, tools.deepResearch)

	if retriever != nil {
		mcp.AddTool(server, &mcp.Tool{
			Name:        "search_corpus",
			Description: "Search content fetched by earlier research runs using semantic search.",
		}, tools.searchCorpus)
	}

	return server
}

// Handler mounts the server over streamable HTTP.
func Handler(server *mcp.Server) http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return server
	}, nil)
}

// ServeStdio runs the server on stdin/stdout until the context ends.
func ServeStdio(ctx context.Context, server *mcp.Server) error {
	return server.Run(ctx, &mcp.StdioTransport{})
}

type toolHandler struct {
	engine    *research.Engine
	retriever *corpus.Retriever
}

type DeepResearchArgs struct {
	Query   string `json:"query" jsonschema:"the topic to research"`
	Breadth int    `json:"breadth,omitempty" jsonschema:"search queries per recursion level (default 4)"`
	Depth   int    `json:"depth,omitempty" jsonschema:"how many levels to recurse (default 2)"`
	Mode    string `json:"mode,omitempty" jsonschema:"report for a detailed report (default), answer for a concise answer"`
}

func (t *toolHandler) deepResearch(ctx context.Context, req *mcp.CallToolRequest, args DeepResearchArgs) (*mcp.CallToolResult, any, error) {
	if strings.TrimSpace(args.Query) == "" {
		return nil, nil, errors.New("query must not be empty")
	}
	if args.Breadth <= 0 {
		args.Breadth = defaultBreadth
	}
	if args.Depth <= 0 {
		args.Depth = defaultDepth
	}

	result, err := t.engine.Research(ctx, args.Query, args.Breadth, args.Depth)
	if err != nil {
		return nil, nil, err
	}

	var output string
	if args.Mode == "answer" {
		output, err = t.engine.WriteFinalAnswer(ctx, args.Query, result)
	} else {
		output, err = t.engine.WriteFinalReport(ctx, args.Query, result)
	}
	if err != nil {
		return nil, nil, err
	}

	return textResult(output), nil, nil
}

type SearchCorpusArgs struct {
	Query string `json:"query" jsonschema:"the search query"`
	TopK  int    `json:"topK,omitempty" jsonschema:"number of results to return (default 5)"`
}

func (t *toolHandler) searchCorpus(ctx context.Context, req *mcp.CallToolRequest, args SearchCorpusArgs) (*mcp.CallToolResult, any, error) {
	if strings.TrimSpace(args.Query) == "" {
		return nil, nil, errors.New("query must not be empty")
	}

	matches, err := t.retriever.Retrieve(ctx, args.Query, args.TopK)
	if err != nil {
		return nil, nil, err
	}
	if len(matches) == 0 {
		return textResult("No matching content in the corpus."), nil, nil
	}

	return textResult(corpus.FormatMatches(matches)), nil, nil
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}
