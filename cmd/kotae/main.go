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

	"github.com/kotae-ai/kotae/internal/agent"
	"github.com/kotae-ai/kotae/internal/audit"
	"github.com/kotae-ai/kotae/internal/auth"
	"github.com/kotae-ai/kotae/internal/config"
	"github.com/kotae-ai/kotae/internal/faq"
	"github.com/kotae-ai/kotae/internal/ingest"
	"github.com/kotae-ai/kotae/internal/mcp"
	"github.com/kotae-ai/kotae/internal/search"
	"github.com/kotae-ai/kotae/internal/server"
	"github.com/kotae-ai/kotae/internal/service/embedding"
	"github.com/kotae-ai/kotae/internal/service/resolve"
	"github.com/kotae-ai/kotae/internal/telemetry"
	"github.com/kotae-ai/kotae/internal/ticket"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	os.Exit(run0())
}

func run0() int {
	level := slog.LevelInfo
	if os.Getenv("KOTAE_LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, logger); err != nil {
		slog.Error("fatal error", "error", err)
		return 1
	}
	return 0
}

func run(ctx context.Context, logger *slog.Logger) error {
	// Load .env file if present (non-fatal; production won't have one).
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	slog.Info("kotae starting", "version", version, "port", cfg.Port, "env", cfg.Environment)

	// Initialize OpenTelemetry tracing.
	otelShutdown, err := telemetry.Init(ctx, cfg.OTELEndpoint, cfg.ServiceName, version, cfg.OTELInsecure)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() { _ = otelShutdown(context.Background()) }()

	// Embedding provider, wrapped in the in-process cache.
	embedder := embedding.NewCachedProvider(newEmbeddingProvider(cfg, logger), cfg.EmbedCacheSize)

	// Local FAQ index. A dimension mismatch or unreadable CSV is fatal:
	// serving with a broken local tier would silently route everything to
	// the agent.
	entries, err := faq.LoadCSV(cfg.FAQPath)
	if err != nil {
		return fmt.Errorf("faq: %w", err)
	}
	index, err := faq.BuildIndex(ctx, entries, embedder)
	if err != nil {
		return fmt.Errorf("faq index: %w", err)
	}
	logger.Info("faq index ready", "entries", len(entries))

	// Candidate store and agent path (optional — disabled if QDRANT_URL is empty).
	var (
		adapter   agent.Adapter
		retriever agent.CandidateRetriever
		health    server.HealthChecker
		ingestor  *ingest.Service
	)
	if cfg.QdrantURL != "" {
		qdrantIndex, err := search.NewQdrantIndex(search.Config{
			URL:        cfg.QdrantURL,
			APIKey:     cfg.QdrantAPIKey,
			Collection: cfg.QdrantCollection,
			Dims:       uint64(cfg.EmbeddingDimensions), //nolint:gosec // validated positive in config.Validate
		}, logger)
		if err != nil {
			return fmt.Errorf("qdrant: %w", err)
		}
		defer func() { _ = qdrantIndex.Close() }()

		if err := qdrantIndex.EnsureCollection(ctx); err != nil {
			return fmt.Errorf("qdrant ensure collection: %w", err)
		}

		adapter = agent.NewRetrievalAgent(embedder, qdrantIndex, cfg.CandidateTopK)
		retriever = qdrantIndex
		health = qdrantIndex
		ingestor = ingest.New(embedder, qdrantIndex, logger)
		logger.Info("qdrant: enabled", "collection", cfg.QdrantCollection)
	} else {
		logger.Info("qdrant: disabled (no QDRANT_URL), agent path unavailable")
	}

	// Decision engine.
	resolver := resolve.New(index, embedder, adapter, resolve.Config{
		Threshold:    cfg.ConfidenceThreshold,
		EmbedTimeout: cfg.EmbedTimeout,
		AgentTimeout: cfg.AgentTimeout,
	}, logger)

	// Audit log and ticket store.
	auditor, err := audit.NewWriter(cfg.AuditLogPath, logger)
	if err != nil {
		return fmt.Errorf("audit: %w", err)
	}
	defer func() { _ = auditor.Close() }()

	tickets, err := ticket.Open(ctx, cfg.TicketDBPath)
	if err != nil {
		return fmt.Errorf("ticket store: %w", err)
	}
	defer func() { _ = tickets.Close() }()

	// JWT manager.
	jwtMgr, err := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration)
	if err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	if !cfg.Production() && os.Getenv("KOTAE_JWT_SECRET") == "" {
		logger.Warn("using built-in development JWT secret; set KOTAE_JWT_SECRET")
	}

	// MCP server, mounted at /mcp.
	mcpSrv := mcp.New(resolver, auditor, embedder, retriever, logger)

	handlers := server.NewHandlers(server.HandlersDeps{
		Resolver:            resolver,
		Auditor:             auditor,
		Tickets:             tickets,
		Ingestor:            ingestor,
		JWTMgr:              jwtMgr,
		Health:              health,
		Logger:              logger,
		Version:             version,
		FAQPath:             cfg.FAQPath,
		MaxRequestBodyBytes: cfg.MaxRequestBodyBytes,
	})

	srv := server.New(server.Config{
		Handlers:        handlers,
		JWTMgr:          jwtMgr,
		MCPServer:       mcpSrv.MCPServer(),
		Logger:          logger,
		Port:            cfg.Port,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		MTLSRequired:    cfg.MTLSRequired,
		DevTokenEnabled: !cfg.Production(),
	})

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}

	slog.Info("kotae shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown error", "error", err)
	}
	return nil
}

func newEmbeddingProvider(cfg config.Config, logger *slog.Logger) embedding.Provider {
	dims := cfg.EmbeddingDimensions

	switch cfg.EmbeddingProvider {
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			logger.Error("OPENAI_API_KEY required when KOTAE_EMBEDDING_PROVIDER=openai")
			return embedding.NewNoopProvider(dims)
		}
		logger.Info("embedding provider: openai", "model", cfg.EmbeddingModel, "dimensions", dims)
		return embedding.NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.EmbeddingModel, dims)

	case "ollama":
		logger.Info("embedding provider: ollama", "url", cfg.OllamaURL, "model", cfg.OllamaModel, "dimensions", dims)
		return embedding.NewOllamaProvider(cfg.OllamaURL, cfg.OllamaModel, dims)

	case "noop":
		logger.Info("embedding provider: noop (similarity matching disabled)")
		return embedding.NewNoopProvider(dims)

	case "auto":
		fallthrough
	default:
		// Prefer Ollama (local, free), then OpenAI, else noop.
		if ollamaReachable(cfg.OllamaURL) {
			logger.Info("embedding provider: ollama (auto-detected)", "url", cfg.OllamaURL, "model", cfg.OllamaModel, "dimensions", dims)
			return embedding.NewOllamaProvider(cfg.OllamaURL, cfg.OllamaModel, dims)
		}
		if cfg.OpenAIAPIKey != "" {
			logger.Info("embedding provider: openai (auto-detected)", "model", cfg.EmbeddingModel, "dimensions", dims)
			return embedding.NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.EmbeddingModel, dims)
		}
		logger.Warn("embedding provider: noop (no ollama, no OPENAI_API_KEY) — all local matches score zero")
		return embedding.NewNoopProvider(dims)
	}
}

func ollamaReachable(baseURL string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	_ = resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
