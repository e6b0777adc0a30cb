package corpus

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mikeboe/deep-research/pkg/research"
)

type fakeEmbedder struct {
	calls [][]string
	fail  bool
}

func (f *fakeEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls = append(f.calls, texts)
	if f.fail {
		return nil, errors.New("embedder down")
	}
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{float32(i), 1}
	}
	return vectors, nil
}

type fakeSink struct {
	added [][]Entry
	fail  bool
}

func (f *fakeSink) Add(ctx context.Context, entries []Entry) error {
	if f.fail {
		return errors.New("sink down")
	}
	f.added = append(f.added, entries)
	return nil
}

func newTestIndexer(t *testing.T, sink entrySink, embedder Embedder, chunkSize, overlap int) *Indexer {
	t.Helper()
	indexer, err := NewIndexer(nil, nil, chunkSize, overlap)
	if err != nil {
		t.Fatalf("NewIndexer returned error: %v", err)
	}
	indexer.sink = sink
	indexer.embedder = embedder
	return indexer
}

func TestIndexerArchive(t *testing.T) {
	sink := &fakeSink{}
	embedder := &fakeEmbedder{}
	indexer := newTestIndexer(t, sink, embedder, 50, 0)

	results := []research.SearchResult{
		{URL: "https://example.com/a", Markdown: "First paragraph about caching.\n\nSecond paragraph about eviction."},
		{URL: "https://example.com/b", Markdown: ""},
		{URL: "https://example.com/c", Markdown: "Short note."},
	}

	if err := indexer.Archive(t.Context(), "cache design", results); err != nil {
		t.Fatalf("Archive returned error: %v", err)
	}

	if len(sink.added) != 1 {
		t.Fatalf("got %d Add calls, want 1", len(sink.added))
	}
	entries := sink.added[0]
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}

	for _, entry := range entries {
		if entry.Topic != "cache design" {
			t.Errorf("got topic %q, want %q", entry.Topic, "cache design")
		}
		if len(entry.Embedding) == 0 {
			t.Error("entry is missing its embedding")
		}
		if entry.Source == "https://example.com/b" {
			t.Error("empty document should not be indexed")
		}
	}
	if entries[0].Source != "https://example.com/a" || entries[2].Source != "https://example.com/c" {
		t.Errorf("unexpected sources: %q, %q", entries[0].Source, entries[2].Source)
	}

	if len(embedder.calls) != 1 {
		t.Fatalf("got %d embedder calls, want 1", len(embedder.calls))
	}
	if len(embedder.calls[0]) != 3 {
		t.Errorf("got %d texts embedded, want 3", len(embedder.calls[0]))
	}
}

func TestIndexerArchiveChunksLongDocuments(t *testing.T) {
	sink := &fakeSink{}
	indexer := newTestIndexer(t, sink, &fakeEmbedder{}, 20, 0)

	long := strings.Repeat("alpha beta gamma. ", 10)
	err := indexer.Archive(t.Context(), "chunks", []research.SearchResult{{URL: "https://example.com", Markdown: long}})
	if err != nil {
		t.Fatalf("Archive returned error: %v", err)
	}

	if len(sink.added) != 1 || len(sink.added[0]) < 2 {
		t.Fatalf("long document should produce multiple chunks, got %d", len(sink.added[0]))
	}
	for _, entry := range sink.added[0] {
		if entry.Source != "https://example.com" {
			t.Errorf("chunk lost its source: %q", entry.Source)
		}
	}
}

func TestIndexerArchiveNothingToIndex(t *testing.T) {
	sink := &fakeSink{}
	embedder := &fakeEmbedder{}
	indexer := newTestIndexer(t, sink, embedder, 50, 0)

	if err := indexer.Archive(t.Context(), "empty", []research.SearchResult{{URL: "https://example.com", Markdown: ""}}); err != nil {
		t.Fatalf("Archive returned error: %v", err)
	}
	if len(sink.added) != 0 {
		t.Error("nothing should be stored for empty documents")
	}
	if len(embedder.calls) != 0 {
		t.Error("nothing should be embedded for empty documents")
	}
}

func TestIndexerArchiveEmbedderFailure(t *testing.T) {
	sink := &fakeSink{}
	indexer := newTestIndexer(t, sink, &fakeEmbedder{fail: true}, 50, 0)

	err := indexer.Archive(t.Context(), "fail", []research.SearchResult{{URL: "https://example.com", Markdown: "content"}})
	if err == nil {
		t.Fatal("expected embedder error to propagate")
	}
	if len(sink.added) != 0 {
		t.Error("nothing should be stored when embedding fails")
	}
}

func TestNewIndexerValidatesChunking(t *testing.T) {
	if _, err := NewIndexer(nil, nil, 100, 100); err == nil {
		t.Fatal("expected error when overlap is not smaller than chunk size")
	}
}
