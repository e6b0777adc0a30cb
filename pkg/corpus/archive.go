package corpus

import (
	"context"
	"fmt"

	"github.com/mikeboe/deep-research/pkg/config"
	"github.com/mikeboe/deep-research/pkg/database"
	"github.com/mikeboe/deep-research/pkg/embeddings"
)

// Archive bundles the corpus subsystem: the store, the indexer feeding it
// during research runs, and the retriever the query surfaces use.
type Archive struct {
	DB        *database.PostgresDB
	Store     *Store
	Indexer   *Indexer
	Retriever *Retriever
}

// OpenArchive connects to Postgres, prepares the collection table and wires
// the Gemini embedder. Callers must Close the archive when done.
func OpenArchive(ctx context.Context, cfg *config.ArchiveConfig, geminiKey string) (*Archive, error) {
	db, err := database.NewPostgresDB(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// NewStore validates the collection name before it reaches any DDL.
	store, err := NewStore(db.Pool, cfg.Collection)
	if err != nil {
		db.Close()
		return nil, err
	}

	if err := db.EnsureVectorExtension(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure pgvector extension: %w", err)
	}
	if err := db.CreateCorpusTable(ctx, cfg.Collection, cfg.EmbeddingDimensions); err != nil {
		db.Close()
		return nil, err
	}

	embedder, err := embeddings.NewGoogleEmbedder(ctx, cfg.EmbeddingModel, geminiKey, cfg.EmbeddingDimensions)
	if err != nil {
		db.Close()
		return nil, err
	}

	indexer, err := NewIndexer(store, embedder, cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Archive{
		DB:        db,
		Store:     store,
		Indexer:   indexer,
		Retriever: &Retriever{Store: store, Embedder: embedder},
	}, nil
}

// Close releases the database pool.
func (a *Archive) Close() {
	a.DB.Close()
}
