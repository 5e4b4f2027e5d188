package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kotae-ai/kotae/internal/auth"
	"github.com/kotae-ai/kotae/internal/model"
)

// Server is the Kotae HTTP server.
type Server struct {
	httpServer *http.Server
	handler    http.Handler
	logger     *slog.Logger
}

// Config holds the dependencies and settings for New.
// Optional fields (nil-safe): MCPServer, and the Handlers' Ingestor/Health.
type Config struct {
	Handlers  *Handlers
	JWTMgr    *auth.JWTManager
	MCPServer *mcpserver.MCPServer
	Logger    *slog.Logger

	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// MTLSRequired enforces the upstream terminator's X-Client-Verify
	// assertion on authenticated routes.
	MTLSRequired bool

	// DevTokenEnabled registers POST /auth/dev-token. Never set in
	// production.
	DevTokenEnabled bool
}

// New creates an HTTP server with all routes configured.
func New(cfg Config) *Server {
	h := cfg.Handlers
	mux := http.NewServeMux()

	// No auth, no role: probes and scrapes.
	mux.HandleFunc("GET /healthz", h.HandleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	// Core pipeline (any authenticated user).
	userRole := requireRole(model.RoleUser)
	mux.Handle("POST /ask", userRole(http.HandlerFunc(h.HandleAsk)))
	mux.Handle("POST /tickets", userRole(http.HandlerFunc(h.HandleCreateTicket)))
	mux.Handle("GET /tickets/{id}", userRole(http.HandlerFunc(h.HandleGetTicket)))

	// Ingest (admin only).
	adminOnly := requireRole(model.RoleAdmin)
	mux.Handle("POST /ingest", adminOnly(http.HandlerFunc(h.HandleIngest)))

	// Dev token minting, outside production only.
	if cfg.DevTokenEnabled {
		mux.HandleFunc("POST /auth/dev-token", h.HandleDevToken)
	}

	// MCP StreamableHTTP transport (auth required).
	if cfg.MCPServer != nil {
		mcpHTTP := mcpserver.NewStreamableHTTPServer(cfg.MCPServer)
		mux.Handle("/mcp", userRole(mcpHTTP))
	}

	// Middleware chain (outermost executes first):
	// request ID → security headers → tracing → logging → auth → recovery → handler.
	var handler http.Handler = mux
	handler = recoveryMiddleware(cfg.Logger, handler)
	handler = authMiddleware(cfg.JWTMgr, cfg.MTLSRequired, handler)
	handler = loggingMiddleware(cfg.Logger, handler)
	handler = tracingMiddleware(handler)
	handler = securityHeadersMiddleware(handler)
	handler = requestIDMiddleware(handler)

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      handler,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		handler: handler,
		logger:  cfg.Logger,
	}
}

// Handler returns the root HTTP handler for use in tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http server shutting down")
	return s.httpServer.Shutdown(ctx)
}
