// Package main provides the sage-search server: the HTTP search API and the
// MCP tool surface over one listener.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/bull/sage-search/internal/api"
	"github.com/bull/sage-search/internal/chunker"
	"github.com/bull/sage-search/internal/config"
	"github.com/bull/sage-search/internal/embedding"
	"github.com/bull/sage-search/internal/extract"
	"github.com/bull/sage-search/internal/indexer"
	"github.com/bull/sage-search/internal/ledger"
	mcpserver "github.com/bull/sage-search/internal/mcp"
	"github.com/bull/sage-search/internal/retry"
	"github.com/bull/sage-search/internal/scan"
	"github.com/bull/sage-search/internal/search"
	"github.com/bull/sage-search/internal/storage"
)

func main() {
	// Load .env if present (local development), ignore if missing.
	_ = godotenv.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	cfg, cfgPath, err := config.LoadDefault()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if cfgPath != "" {
		logger.Info("loaded config", "path", cfgPath)
	}

	led, err := ledger.Open(cfg.Ledger.Path, false)
	if err != nil {
		logger.Error("failed to open ledger", "path", cfg.Ledger.Path, "error", err)
		os.Exit(1)
	}
	defer led.Close()

	policy := retry.DefaultPolicy()

	embedder, err := buildEmbedder(cfg, policy)
	if err != nil {
		logger.Error("failed to create embedder", "error", err)
		os.Exit(1)
	}

	store, err := storage.NewQdrant(cfg.Qdrant.Host, cfg.Qdrant.Port, cfg.Qdrant.Collection, embedder.Dimension(), policy)
	if err != nil {
		logger.Error("failed to connect to qdrant", "host", cfg.Qdrant.Host, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	if err := store.EnsureCollection(ctx); err != nil {
		logger.Error("failed to ensure collection", "error", err)
		os.Exit(1)
	}

	ch, err := chunker.New(cfg.Indexer.ChunkSize, cfg.Indexer.ChunkOverlap, cfg.Indexer.MinChunkLength)
	if err != nil {
		logger.Error("invalid chunker configuration", "error", err)
		os.Exit(1)
	}

	scanner := scan.NewScanner(cfg.Indexer.AllowedExtensions, logger)
	pipeline := indexer.NewPipeline(scanner, extract.NewRegistry(), ch, embedder, store, led, cfg.Indexer.FilterSensitive, logger)

	searcher := search.NewSearcher(store, embedder, cfg.Search, logger)
	trigger, err := indexer.NewTrigger(pipeline, searcher.InvalidateVocabulary, logger)
	if err != nil {
		logger.Error("failed to create indexing trigger", "error", err)
		os.Exit(1)
	}
	defer trigger.Close()

	server := mcpserver.NewServer(&mcpserver.Config{
		Searcher: searcher,
		Trigger:  trigger,
		Ledger:   led,
		Store:    store,
	})

	mux := http.NewServeMux()
	api.NewServer(searcher, trigger, led, store, logger).Register(mux)
	mux.Handle("/mcp", mcpserver.NewHTTPHandler(server, nil))

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{Addr: addr, Handler: mux}

	if os.Getenv("MCP_STDIO") == "true" {
		// Stdio mode for local MCP clients; HTTP stays up for /health and
		// the REST API.
		go func() {
			logger.Info("starting http server", "addr", addr)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
			}
		}()

		logger.Info("starting mcp server (stdio)")
		if err := server.Run(ctx); err != nil {
			logger.Error("mcp server error", "error", err)
			os.Exit(1)
		}
		return
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	logger.Info("starting http server", "addr", addr, "mcp", "/mcp")
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server error", "error", err)
		os.Exit(1)
	}
}

func buildEmbedder(cfg *config.Config, policy retry.Policy) (embedding.Embedder, error) {
	switch cfg.Embedder.Type {
	case "local":
		return embedding.NewLocal(
			cfg.Embedder.Local.BaseURL,
			cfg.Embedder.Local.Dimension,
			time.Duration(cfg.Embedder.Local.TimeoutSecs)*time.Second,
			policy,
		), nil
	case "openai":
		return embedding.NewOpenAI(cfg.Embedder.OpenAI.Model, cfg.Embedder.OpenAI.BatchSize, policy)
	default:
		return nil, fmt.Errorf("unknown embedder type %q", cfg.Embedder.Type)
	}
}
