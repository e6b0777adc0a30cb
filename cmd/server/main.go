package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/mikeboe/deep-research/pkg/chat"
	"github.com/mikeboe/deep-research/pkg/clients"
	"github.com/mikeboe/deep-research/pkg/config"
	"github.com/mikeboe/deep-research/pkg/corpus"
	"github.com/mikeboe/deep-research/pkg/mcpserver"
	"github.com/mikeboe/deep-research/pkg/research"
	"github.com/mikeboe/deep-research/pkg/search"
	"github.com/mikeboe/deep-research/pkg/server"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, nil)))

	ctx := context.Background()
	cfg := config.Load()

	llm, err := clients.Completion(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to init completion model: %v", err)
	}

	searcher, err := search.FromConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to init search provider: %v", err)
	}

	svc := server.NewService(cfg, llm, searcher)
	handler := server.NewHandler(svc)

	// The MCP surface shares one engine across tool calls.
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
			log.Fatalf("Failed to open archive: %v", err)
		}
		defer archive.Close()

		svc.Archiver = archive.Indexer
		engine.Archiver = archive.Indexer
		retriever = archive.Retriever
		slog.Info("Archive enabled", "collection", archiveCfg.Collection)

		// Chat needs Gemini for the agent loop, not just for embeddings.
		if cfg.GeminiKey != "" {
			chatSvc, err := chat.NewService(ctx, archive.Retriever, archive.Store, cfg)
			if err != nil {
				log.Fatalf("Failed to init chat service: %v", err)
			}
			handler.Chat = chatSvc
		}
	}

	handler.MCP = mcpserver.Handler(mcpserver.New(engine, retriever))

	// Web Server Setup
	r := gin.Default()

	// CORS Setup
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"}, // Allow all for dev
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	handler.RegisterRoutes(r)

	slog.Info("Server starting", "port", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
