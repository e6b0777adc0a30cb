package mcpserver

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/tmc/langchaingo/llms"

	"github.com/mikeboe/deep-research/pkg/research"
)

// scriptedLLM answers by prompt shape so a full traversal can run offline.
type scriptedLLM struct{}

func (s *scriptedLLM) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	var prompt strings.Builder
	for _, m := range messages {
		for _, p := range m.Parts {
			if t, ok := p.(llms.TextContent); ok {
				prompt.WriteString(t.Text)
			}
		}
	}

	var out string
	switch {
	case strings.Contains(prompt.String(), "Generate up to"):
		out = "etcd raft implementation"
	case strings.Contains(prompt.String(), "Using the following search results"):
		out = "- etcd uses the raft protocol"
	case strings.Contains(prompt.String(), "Write a detailed report on:"):
		out = "# Raft in etcd\n\nDetails."
	default:
		out = "A concise answer."
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: out}}}, nil
}

func (s *scriptedLLM) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return "", errors.New("not used")
}

type stubSearcher struct{}

func (stubSearcher) Search(ctx context.Context, query string, limit int) ([]research.SearchResult, error) {
	return []research.SearchResult{{URL: "https://example.com/raft", Markdown: "raft content"}}, nil
}

func TestDeepResearchToolRoundTrip(t *testing.T) {
	engine := research.NewEngine(research.Config{}, &scriptedLLM{}, stubSearcher{})
	server := New(engine, nil)

	clientTransport, serverTransport := mcp.NewInMemoryTransports()

	serverSession, err := server.Connect(t.Context(), serverTransport, nil)
	if err != nil {
		t.Fatalf("server connect failed: %v", err)
	}
	defer serverSession.Close()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "0.0.1"}, nil)
	clientSession, err := client.Connect(t.Context(), clientTransport, nil)
	if err != nil {
		t.Fatalf("client connect failed: %v", err)
	}
	defer clientSession.Close()

	// Without an archive only the research tool registers.
	toolList, err := clientSession.ListTools(t.Context(), nil)
	if err != nil {
		t.Fatalf("ListTools failed: %v", err)
	}
	if len(toolList.Tools) != 1 || toolList.Tools[0].Name != "deep_research" {
		t.Fatalf("unexpected tool list: %+v", toolList.Tools)
	}

	res, err := clientSession.CallTool(t.Context(), &mcp.CallToolParams{
		Name:      "deep_research",
		Arguments: map[string]any{"query": "how does etcd use raft", "breadth": 1, "depth": 1},
	})
	if err != nil {
		t.Fatalf("CallTool failed: %v", err)
	}
	if res.IsError {
		t.Fatalf("tool reported an error: %+v", res.Content)
	}

	text, ok := res.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("got %T, want *mcp.TextContent", res.Content[0])
	}
	if !strings.Contains(text.Text, "# Raft in etcd") {
		t.Errorf("report body missing: %q", text.Text)
	}
	if !strings.Contains(text.Text, "## Sources") || !strings.Contains(text.Text, "https://example.com/raft") {
		t.Errorf("sources section missing: %q", text.Text)
	}
}

func TestDeepResearchRejectsEmptyQuery(t *testing.T) {
	tools := &toolHandler{}
	if _, _, err := tools.deepResearch(t.Context(), nil, DeepResearchArgs{Query: "   "}); err == nil {
		t.Fatal("expected error for empty query")
	}
}

func TestSearchCorpusRejectsEmptyQuery(t *testing.T) {
	tools := &toolHandler{}
	if _, _, err := tools.searchCorpus(t.Context(), nil, SearchCorpusArgs{}); err == nil {
		t.Fatal("expected error for empty query")
	}
}
