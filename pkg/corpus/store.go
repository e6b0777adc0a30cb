// Package corpus persists chunks of fetched documents in pgvector so later
// research runs, the chat agent and the MCP tools can search them.
package corpus

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// Entry is one indexed chunk of a fetched document.
type Entry struct {
	Content   string    `json:"content"`
	Source    string    `json:"source"`
	Topic     string    `json:"topic"`
	Embedding []float32 `json:"-"`
}

// Match is one similarity search hit.
type Match struct {
	Entry Entry
	Score float64
}

// Store handles pgvector operations on one corpus collection.
type Store struct {
	pool      *pgxpool.Pool
	tableName string
}

// isValidTableName validates that a table name contains only safe characters
// to prevent SQL injection attacks
func isValidTableName(name string) bool {
	// Only allow alphanumeric characters and underscores
	// Table names must start with a letter or underscore and be between 1-63 chars (PostgreSQL limit)
	matched, _ := regexp.MatchString(`^[a-z_][a-zA-Z0-9_]{0,62}$`, name)
	return matched
}

// NewStore creates a store over the named collection table.
func NewStore(pool *pgxpool.Pool, tableName string) (*Store, error) {
	if !isValidTableName(tableName) {
		return nil, fmt.Errorf("invalid collection name: must contain only alphanumeric characters and underscores, start with a letter or underscore, and be 1-63 characters long")
	}
	return &Store{
		pool:      pool,
		tableName: tableName,
	}, nil
}

// Add inserts entries into the collection in one batch.
func (s *Store) Add(ctx context.Context, entries []Entry) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (content, source, topic, embedding)
		VALUES ($1, $2, $3, $4)
	`, pgx.Identifier{s.tableName}.Sanitize())

	batch := &pgx.Batch{}
	for _, entry := range entries {
		batch.Queue(query, entry.Content, entry.Source, entry.Topic, pgvector.NewVector(entry.Embedding))
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range entries {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("failed to insert entry: %w", err)
		}
	}

	return nil
}

// Search returns the topK entries nearest to the query embedding by cosine
// similarity, best match first.
func (s *Store) Search(ctx context.Context, queryEmbedding []float32, topK int) ([]Match, error) {
	query := fmt.Sprintf(`
		SELECT content, source, topic, 1 - (embedding <=> $1) as similarity
		FROM %s
		ORDER BY embedding <=> $1
		LIMIT $2
	`, pgx.Identifier{s.tableName}.Sanitize())

	rows, err := s.pool.Query(ctx, query, pgvector.NewVector(queryEmbedding), topK)
	if err != nil {
		return nil, fmt.Errorf("failed to execute similarity search: %w", err)
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var match Match
		if err := rows.Scan(&match.Entry.Content, &match.Entry.Source, &match.Entry.Topic, &match.Score); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		matches = append(matches, match)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return matches, nil
}

// BySource retrieves every chunk stored for one source, in insertion order.
func (s *Store) BySource(ctx context.Context, source string) ([]Entry, error) {
	query := fmt.Sprintf(`
		SELECT content, source, topic
		FROM %s
		WHERE source = $1
		ORDER BY created_at
	`, pgx.Identifier{s.tableName}.Sanitize())

	rows, err := s.pool.Query(ctx, query, source)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var entry Entry
		if err := rows.Scan(&entry.Content, &entry.Source, &entry.Topic); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return entries, nil
}

// FormatMatches renders matches as a readable text block for tool output.
func FormatMatches(matches []Match) string {
	var sb strings.Builder
	for i, match := range matches {
		if i > 0 {
			sb.WriteString("\n---\n\n")
		}
		fmt.Fprintf(&sb, "[Source: %s]\n", match.Entry.Source)
		fmt.Fprintf(&sb, "[Topic: %s]\n", match.Entry.Topic)
		fmt.Fprintf(&sb, "[Similarity: %.3f]\n\n", match.Score)
		sb.WriteString(match.Entry.Content)
		sb.WriteString("\n")
	}
	return strings.TrimSpace(sb.String())
}
