package server

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/kotae-ai/kotae/internal/audit"
	"github.com/kotae-ai/kotae/internal/auth"
	"github.com/kotae-ai/kotae/internal/ingest"
	"github.com/kotae-ai/kotae/internal/model"
	"github.com/kotae-ai/kotae/internal/redact"
	"github.com/kotae-ai/kotae/internal/service/resolve"
	"github.com/kotae-ai/kotae/internal/ticket"
)

// HealthChecker reports candidate store reachability.
// Satisfied by *search.QdrantIndex.
type HealthChecker interface {
	Healthy(ctx context.Context) error
}

// Handlers holds dependencies for the HTTP handlers.
type Handlers struct {
	resolver *resolve.Service
	auditor  *audit.Writer
	tickets  *ticket.Store
	ingestor *ingest.Service // nil when no candidate store is configured.
	jwtMgr   *auth.JWTManager
	health   HealthChecker // nil when no candidate store is configured.
	logger   *slog.Logger

	version             string
	faqPath             string
	maxRequestBodyBytes int64
}

// HandlersDeps bundles the dependencies for NewHandlers.
type HandlersDeps struct {
	Resolver *resolve.Service
	Auditor  *audit.Writer
	Tickets  *ticket.Store
	Ingestor *ingest.Service
	JWTMgr   *auth.JWTManager
	Health   HealthChecker
	Logger   *slog.Logger

	Version             string
	FAQPath             string
	MaxRequestBodyBytes int64
}

// NewHandlers creates the handler set.
func NewHandlers(deps HandlersDeps) *Handlers {
	return &Handlers{
		resolver:            deps.Resolver,
		auditor:             deps.Auditor,
		tickets:             deps.Tickets,
		ingestor:            deps.Ingestor,
		jwtMgr:              deps.JWTMgr,
		health:              deps.Health,
		logger:              deps.Logger,
		version:             deps.Version,
		faqPath:             deps.FAQPath,
		maxRequestBodyBytes: deps.MaxRequestBodyBytes,
	}
}

// HandleHealth serves GET /healthz.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	store := "disabled"
	if h.health != nil {
		store = "ok"
		if err := h.health.Healthy(r.Context()); err != nil {
			store = "degraded"
		}
	}
	writeJSON(w, r, http.StatusOK, model.HealthResponse{
		Status:         "ok",
		Version:        h.version,
		AgentEnabled:   h.resolver.AgentConfigured(),
		CandidateStore: store,
	})
}

// HandleAsk serves POST /ask: redact, resolve, audit, respond. An
// unavailable resolution is still a 200 — the decision is the answer.
func (h *Handlers) HandleAsk(w http.ResponseWriter, r *http.Request) {
	var req model.AskRequest
	if err := decodeJSON(r, w, h.maxRequestBodyBytes, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "invalid request body")
		return
	}

	message := strings.TrimSpace(req.Message)
	if message == "" {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "message is required")
		return
	}
	if len(message) > model.MaxMessageLen {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "message too long")
		return
	}

	userID := req.UserID
	if userID == "" {
		if claims := ClaimsFromContext(r.Context()); claims != nil {
			userID = claims.UserID
		}
	}

	// PII is stripped before the message reaches the embedder, the agent,
	// or the audit log.
	redacted := redact.Redact(message)

	decision := h.resolver.Resolve(r.Context(), model.Query{UserID: userID, Message: redacted})

	h.auditor.WriteBestEffort(model.AuditRecord{
		Timestamp:       decision.CreatedAt,
		RequestID:       RequestIDFromContext(r.Context()),
		UserID:          userID,
		RedactedMessage: redacted,
		Answer:          decision.Answer,
		Path:            decision.Path,
		Confidence:      decision.Confidence,
		MatchedFAQID:    decision.MatchedFAQID,
		ToolCalls:       decision.ToolCalls,
	})

	writeJSON(w, r, http.StatusOK, model.AskResponse{
		Answer:       decision.Answer,
		Confidence:   decision.Confidence,
		Path:         decision.Path,
		ToolCalls:    decision.ToolCalls,
		MatchedFAQID: decision.MatchedFAQID,
	})
}

// HandleCreateTicket serves POST /tickets. The ticket row is the primary
// deliverable: insert failure is a 500, the audit mirror is best-effort.
func (h *Handlers) HandleCreateTicket(w http.ResponseWriter, r *http.Request) {
	var req model.TicketRequest
	if err := decodeJSON(r, w, h.maxRequestBodyBytes, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "invalid request body")
		return
	}

	message := strings.TrimSpace(req.Message)
	if message == "" {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "message is required")
		return
	}
	if len(message) > model.MaxMessageLen {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "message too long")
		return
	}

	userID := req.UserID
	if userID == "" {
		if claims := ClaimsFromContext(r.Context()); claims != nil {
			userID = claims.UserID
		}
	}

	t, err := h.tickets.Create(r.Context(), userID, message)
	if err != nil {
		h.logger.Error("ticket insert failed", "error", err, "user_id", userID)
		writeError(w, r, http.StatusInternalServerError, model.ErrCodeInternalError, "failed to create ticket")
		return
	}

	h.auditor.WriteBestEffort(model.AuditRecord{
		Timestamp:       t.CreatedAt,
		RequestID:       RequestIDFromContext(r.Context()),
		UserID:          userID,
		RedactedMessage: redact.Redact(message),
		Path:            model.PathEscalated,
		TicketID:        t.ID,
	})

	writeJSON(w, r, http.StatusCreated, model.TicketResponse{
		TicketID:  t.ID,
		Status:    t.Status,
		CreatedAt: t.CreatedAt,
	})
}

// HandleGetTicket serves GET /tickets/{id}. Users can only read their own
// tickets; support and admin can read any.
func (h *Handlers) HandleGetTicket(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	t, err := h.tickets.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, r, http.StatusNotFound, model.ErrCodeNotFound, "ticket not found")
			return
		}
		h.logger.Error("ticket lookup failed", "error", err, "ticket_id", id)
		writeError(w, r, http.StatusInternalServerError, model.ErrCodeInternalError, "failed to load ticket")
		return
	}

	claims := ClaimsFromContext(r.Context())
	if claims == nil || (t.UserID != claims.UserID && !model.RoleAtLeast(claims.Role, model.RoleSupport)) {
		// Same response as a missing ticket so callers cannot enumerate
		// other users' ticket IDs.
		writeError(w, r, http.StatusNotFound, model.ErrCodeNotFound, "ticket not found")
		return
	}

	writeJSON(w, r, http.StatusOK, t)
}

// HandleIngest serves POST /ingest (admin only). A CSV request body is
// ingested directly; an empty body re-ingests the configured FAQ file.
func (h *Handlers) HandleIngest(w http.ResponseWriter, r *http.Request) {
	if h.ingestor == nil {
		writeError(w, r, http.StatusInternalServerError, model.ErrCodeIngestFailed, "candidate store is not configured")
		return
	}

	var count int
	var err error
	if r.ContentLength != 0 {
		count, err = h.ingestor.IngestCSV(r.Context(), http.MaxBytesReader(w, r.Body, h.maxRequestBodyBytes))
	} else {
		var f *os.File
		f, err = os.Open(h.faqPath)
		if err == nil {
			defer f.Close()
			count, err = h.ingestor.IngestCSV(r.Context(), f)
		}
	}
	if err != nil {
		h.logger.Error("ingest failed", "error", err)
		writeError(w, r, http.StatusInternalServerError, model.ErrCodeIngestFailed, "ingest failed: "+err.Error())
		return
	}

	writeJSON(w, r, http.StatusOK, model.IngestResponse{Ingested: count})
}

// HandleDevToken serves POST /auth/dev-token. The route is only registered
// outside production.
func (h *Handlers) HandleDevToken(w http.ResponseWriter, r *http.Request) {
	var req model.DevTokenRequest
	if err := decodeJSON(r, w, h.maxRequestBodyBytes, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "invalid request body")
		return
	}

	if req.UserID == "" {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "user_id is required")
		return
	}
	if req.Role == "" {
		req.Role = model.RoleUser
	}
	if !model.ValidRole(req.Role) {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, "unknown role")
		return
	}

	token, exp, err := h.jwtMgr.IssueToken(req.UserID, req.Role)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, model.ErrCodeInternalError, "failed to issue token")
		return
	}

	writeJSON(w, r, http.StatusOK, model.DevTokenResponse{
		Token:     token,
		ExpiresAt: exp.UTC().Truncate(time.Second),
	})
}
