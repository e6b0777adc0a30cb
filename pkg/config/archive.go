package config

// ArchiveConfig configures the optional content archive. When a database is
// configured, every document the engine fetches is chunked, embedded and
// indexed into a pgvector collection for later retrieval.
type ArchiveConfig struct {
	DatabaseURL string
	Collection  string

	EmbeddingModel      string
	EmbeddingDimensions int

	ChunkSize    int
	ChunkOverlap int
}

func LoadArchive() *ArchiveConfig {
	return &ArchiveConfig{
		DatabaseURL: getEnv("DATABASE_URL", ""),
		Collection:  getEnv("ARCHIVE_COLLECTION", "research_corpus"),

		EmbeddingModel:      getEnv("EMBEDDING_MODEL", "gemini-embedding-001"),
		EmbeddingDimensions: getEnvAsInt("EMBEDDING_DIMENSIONS", 1536),

		ChunkSize:    getEnvAsInt("CHUNK_SIZE", 1000),
		ChunkOverlap: getEnvAsInt("CHUNK_OVERLAP", 200),
	}
}

// Enabled reports whether the archive should be wired at all.
func (c *ArchiveConfig) Enabled() bool {
	return c.DatabaseURL != ""
}
