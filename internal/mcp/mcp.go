// Package mcp exposes the query-resolution pipeline over the Model Context
// Protocol, so MCP-compatible agents can ask questions and inspect FAQ
// candidates through the same engine the HTTP API uses.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/kotae-ai/kotae/internal/agent"
	"github.com/kotae-ai/kotae/internal/audit"
	"github.com/kotae-ai/kotae/internal/model"
	"github.com/kotae-ai/kotae/internal/redact"
	"github.com/kotae-ai/kotae/internal/service/embedding"
	"github.com/kotae-ai/kotae/internal/service/resolve"
)

// Server wraps the MCP server around the resolution engine.
type Server struct {
	mcpServer *mcpserver.MCPServer
	resolver  *resolve.Service
	auditor   *audit.Writer
	embedder  embedding.Provider
	retriever agent.CandidateRetriever // nil when no candidate store is configured.
	logger    *slog.Logger
}

// New creates and configures the MCP server with its tools registered.
func New(resolver *resolve.Service, auditor *audit.Writer, embedder embedding.Provider, retriever agent.CandidateRetriever, logger *slog.Logger) *Server {
	s := &Server{
		resolver:  resolver,
		auditor:   auditor,
		embedder:  embedder,
		retriever: retriever,
		logger:    logger,
	}

	s.mcpServer = mcpserver.NewMCPServer(
		"kotae",
		"0.1.0",
		mcpserver.WithToolCapabilities(true),
	)
	s.registerTools()
	return s
}

// MCPServer returns the underlying mcp-go server for transport setup.
func (s *Server) MCPServer() *mcpserver.MCPServer {
	return s.mcpServer
}

func (s *Server) registerTools() {
	// kotae_ask — resolve a support question through the full pipeline.
	s.mcpServer.AddTool(
		mcplib.NewTool("kotae_ask",
			mcplib.WithDescription(`Answer a customer support question.

The question runs through the same two-tier pipeline as the HTTP API:
a local FAQ similarity match first, then the retrieval agent when the
local match is not confident. The response reports which path produced
the answer and the confidence score.`),
			mcplib.WithReadOnlyHintAnnotation(true),
			mcplib.WithIdempotentHintAnnotation(true),
			mcplib.WithOpenWorldHintAnnotation(false),
			mcplib.WithString("query",
				mcplib.Description("The support question to answer"),
				mcplib.Required(),
			),
			mcplib.WithString("user_id",
				mcplib.Description("Identifier of the user asking, recorded in the decision trace"),
			),
		),
		s.handleAsk,
	)

	// kotae_candidates — raw top-k retrieval from the candidate store.
	s.mcpServer.AddTool(
		mcplib.NewTool("kotae_candidates",
			mcplib.WithDescription(`Retrieve the most similar FAQ entries for a query.

Returns raw candidates with similarity scores, without answer synthesis.
Useful for inspecting what the retrieval tier would work with.`),
			mcplib.WithReadOnlyHintAnnotation(true),
			mcplib.WithIdempotentHintAnnotation(true),
			mcplib.WithOpenWorldHintAnnotation(false),
			mcplib.WithString("query",
				mcplib.Description("Natural language query to match against FAQ questions"),
				mcplib.Required(),
			),
			mcplib.WithNumber("top_k",
				mcplib.Description("Maximum candidates to return"),
				mcplib.Min(1),
				mcplib.Max(50),
				mcplib.DefaultNumber(5),
			),
		),
		s.handleCandidates,
	)
}

func (s *Server) handleAsk(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	query := request.GetString("query", "")
	if query == "" {
		return errorResult("query is required"), nil
	}
	userID := request.GetString("user_id", "mcp")

	// Same redact → resolve → audit order as the HTTP /ask handler: every
	// resolved query lands in the audit trail regardless of transport.
	redacted := redact.Redact(query)
	decision := s.resolver.Resolve(ctx, model.Query{UserID: userID, Message: redacted})

	s.auditor.WriteBestEffort(model.AuditRecord{
		Timestamp:       decision.CreatedAt,
		UserID:          userID,
		RedactedMessage: redacted,
		Answer:          decision.Answer,
		Path:            decision.Path,
		Confidence:      decision.Confidence,
		MatchedFAQID:    decision.MatchedFAQID,
		ToolCalls:       decision.ToolCalls,
	})

	resultData, _ := json.MarshalIndent(model.AskResponse{
		Answer:       decision.Answer,
		Confidence:   decision.Confidence,
		Path:         decision.Path,
		ToolCalls:    decision.ToolCalls,
		MatchedFAQID: decision.MatchedFAQID,
	}, "", "  ")

	return &mcplib.CallToolResult{
		Content: []mcplib.Content{
			mcplib.TextContent{Type: "text", Text: string(resultData)},
		},
	}, nil
}

func (s *Server) handleCandidates(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	if s.retriever == nil {
		return errorResult("candidate store is not configured"), nil
	}

	query := request.GetString("query", "")
	if query == "" {
		return errorResult("query is required"), nil
	}
	topK := request.GetInt("top_k", 5)

	vec, err := s.embedder.Embed(ctx, redact.Redact(query))
	if err != nil {
		return errorResult(fmt.Sprintf("failed to embed query: %v", err)), nil
	}

	candidates, err := s.retriever.TopK(ctx, vec.Slice(), topK)
	if err != nil {
		return errorResult(fmt.Sprintf("retrieval failed: %v", err)), nil
	}

	resultData, _ := json.MarshalIndent(map[string]any{
		"candidates": candidates,
		"total":      len(candidates),
	}, "", "  ")

	return &mcplib.CallToolResult{
		Content: []mcplib.Content{
			mcplib.TextContent{Type: "text", Text: string(resultData)},
		},
	}, nil
}

func errorResult(msg string) *mcplib.CallToolResult {
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{
			mcplib.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
