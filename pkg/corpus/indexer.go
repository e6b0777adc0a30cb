package corpus

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mikeboe/deep-research/pkg/research"
	"github.com/mikeboe/deep-research/pkg/splitter"
)

// Embedder turns texts into vectors. Satisfied by embeddings.GoogleEmbedder.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// entrySink receives the finished entries. Narrowed from Store for tests.
type entrySink interface {
	Add(ctx context.Context, entries []Entry) error
}

// Indexer archives the documents a research run fetches: each document is
// chunked, embedded and stored under the branch topic. It implements
// research.Archiver.
type Indexer struct {
	sink     entrySink
	embedder Embedder
	splitter *splitter.RecursiveCharacter

	Logger *slog.Logger
}

// NewIndexer builds an indexer writing to store. The chunking parameters
// follow the same validation as the splitter.
func NewIndexer(store *Store, embedder Embedder, chunkSize, chunkOverlap int) (*Indexer, error) {
	split, err := splitter.NewRecursiveCharacter(
		splitter.WithChunkSize(chunkSize),
		splitter.WithChunkOverlap(chunkOverlap),
	)
	if err != nil {
		return nil, err
	}
	return &Indexer{
		sink:     store,
		embedder: embedder,
		splitter: split,
		Logger:   slog.Default(),
	}, nil
}

// Archive chunks, embeds and stores every non-empty document.
func (ix *Indexer) Archive(ctx context.Context, topic string, results []research.SearchResult) error {
	var entries []Entry
	for _, result := range results {
		if result.Markdown == "" {
			continue
		}
		for _, chunk := range ix.splitter.SplitText(result.Markdown) {
			entries = append(entries, Entry{
				Content: chunk,
				Source:  result.URL,
				Topic:   topic,
			})
		}
	}
	if len(entries) == 0 {
		return nil
	}

	texts := make([]string, len(entries))
	for i, entry := range entries {
		texts[i] = entry.Content
	}

	vectors, err := ix.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed chunks: %w", err)
	}
	if len(vectors) != len(entries) {
		return fmt.Errorf("expected %d embeddings, got %d", len(entries), len(vectors))
	}
	for i := range entries {
		entries[i].Embedding = vectors[i]
	}

	if err := ix.sink.Add(ctx, entries); err != nil {
		return fmt.Errorf("failed to store chunks: %w", err)
	}

	ix.Logger.Debug("Archived search results", "topic", topic, "documents", len(results), "chunks", len(entries))
	return nil
}
