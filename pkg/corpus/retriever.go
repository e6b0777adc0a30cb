package corpus

import (
	"context"
	"fmt"
)

// defaultTopK bounds retrieval when the caller passes no limit.
const defaultTopK = 5

// Retriever pairs the store with an embedder so callers can search the
// corpus with plain text queries.
type Retriever struct {
	Store    *Store
	Embedder Embedder
}

// Retrieve embeds the query and returns its topK nearest entries.
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int) ([]Match, error) {
	if topK <= 0 {
		topK = defaultTopK
	}

	vectors, err := r.Embedder.EmbedTexts(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	return r.Store.Search(ctx, vectors[0], topK)
}
