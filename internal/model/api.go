package model

import "time"

// APIResponse is the standard response envelope for all HTTP API responses.
type APIResponse struct {
	Data any          `json:"data,omitempty"`
	Meta ResponseMeta `json:"meta"`
}

// APIError is the standard error response envelope.
type APIError struct {
	Error ErrorDetail  `json:"error"`
	Meta  ResponseMeta `json:"meta"`
}

// ResponseMeta contains request metadata included in every response.
type ResponseMeta struct {
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrorDetail describes an API error.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorCode constants for standard API error codes.
const (
	ErrCodeInvalidInput  = "INVALID_INPUT"
	ErrCodeUnauthorized  = "UNAUTHORIZED"
	ErrCodeForbidden     = "FORBIDDEN"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeIngestFailed  = "INGEST_FAILED"
	ErrCodeInternalError = "INTERNAL_ERROR"
)

// MaxMessageLen bounds the user message accepted on /ask and /tickets.
// Oversized messages would blow up the embedding call and the audit line.
const MaxMessageLen = 8 * 1024

// AskRequest is the request body for POST /ask.
type AskRequest struct {
	UserID  string `json:"user_id"`
	Message string `json:"message"`
}

// AskResponse is the Decision-derived response body for POST /ask.
type AskResponse struct {
	Answer       string       `json:"answer"`
	Confidence   float64      `json:"confidence"`
	Path         DecisionPath `json:"path"`
	ToolCalls    []ToolCall   `json:"tool_calls"`
	MatchedFAQID string       `json:"matched_faq_id,omitempty"`
}

// TicketRequest is the request body for POST /tickets.
type TicketRequest struct {
	UserID  string `json:"user_id"`
	Message string `json:"message"`
}

// TicketResponse is the response body for POST /tickets.
type TicketResponse struct {
	TicketID  string    `json:"ticket_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// IngestResponse is the response body for POST /ingest.
type IngestResponse struct {
	Ingested int `json:"ingested"`
}

// DevTokenRequest is the request body for POST /auth/dev-token.
// The route only exists outside production.
type DevTokenRequest struct {
	UserID string `json:"user_id"`
	Role   Role   `json:"role"`
}

// DevTokenResponse carries a freshly minted development token.
type DevTokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// HealthResponse is the body for GET /healthz.
type HealthResponse struct {
	Status         string `json:"status"`
	Version        string `json:"version"`
	AgentEnabled   bool   `json:"agent_enabled"`
	CandidateStore string `json:"candidate_store"` // "ok", "degraded", or "disabled".
}
