package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/mikeboe/deep-research/pkg/clients"
	"github.com/mikeboe/deep-research/pkg/config"
	"github.com/mikeboe/deep-research/pkg/corpus"
	"github.com/mikeboe/deep-research/pkg/mcpserver"
	"github.com/mikeboe/deep-research/pkg/research"
	"github.com/mikeboe/deep-research/pkg/search"
)

func main() {
	// Stdout carries the MCP transport; logs must go to stderr.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	// It's okay if .env doesn't exist, as long as env vars are set
	_ = godotenv.Load()

	ctx := context.Background()
	cfg := config.Load()

	llm, err := clients.Completion(ctx, cfg)
	if err != nil {
		slog.Error("Failed to init completion model", "error", err)
		os.Exit(1)
	}

	searcher, err := search.FromConfig(cfg)
	if err != nil {
		slog.Error("Failed to init search provider", "error", err)
		os.Exit(1)
	}

	engine := research.NewEngine(research.Config{
		SearchLimit:  cfg.SearchLimit,
		MaxLearnings: cfg.MaxLearnings,
		ContentLimit: cfg.ContentLimit,
	}, llm, searcher)

	var retriever *corpus.Retriever
	archiveCfg := config.LoadArchive()
	if archiveCfg.Enabled() {
		archive, err := corpus.OpenArchive(ctx, archiveCfg, cfg.GeminiKey)
		if err != nil {
			slog.Error("Failed to open archive", "error", err)
			os.Exit(1)
		}
		defer archive.Close()
		engine.Archiver = archive.Indexer
		retriever = archive.Retriever
		slog.Info("Archive enabled", "collection", archiveCfg.Collection)
	}

	srv := mcpserver.New(engine, retriever)
	slog.Info("MCP server listening on stdio")
	if err := mcpserver.ServeStdio(ctx, srv); err != nil {
		slog.Error("MCP server failed", "error", err)
		os.Exit(1)
	}
}
