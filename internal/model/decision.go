// Package model defines the domain types shared across Kotae services.
package model

import "time"

// DecisionPath identifies which resolution strategy produced an answer.
type DecisionPath string

const (
	// PathLocal means the local FAQ index answered with sufficient confidence.
	PathLocal DecisionPath = "local"
	// PathAgent means the agent adapter synthesized the answer from
	// candidate retrieval.
	PathAgent DecisionPath = "agent"
	// PathUnavailable means the local match was below threshold and no
	// agent adapter could be invoked. A valid outcome, not an error.
	PathUnavailable DecisionPath = "unavailable"
	// PathEscalated marks the audit mirror of an explicit ticket creation.
	PathEscalated DecisionPath = "escalated"
)

// ToolCall records one tool invocation made while resolving a query,
// in invocation order.
type ToolCall struct {
	Tool          string         `json:"tool"`
	Arguments     map[string]any `json:"arguments,omitempty"`
	ResultSummary string         `json:"result_summary"`
}

// Decision is the traced outcome of resolving a single query.
// Produced exactly once per resolution and never mutated afterwards.
type Decision struct {
	Answer       string       `json:"answer"`
	Confidence   float64      `json:"confidence"` // Always in [0,1].
	Path         DecisionPath `json:"path"`
	ToolCalls    []ToolCall   `json:"tool_calls"`
	MatchedFAQID string       `json:"matched_faq_id,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
}

// Query is a single user request to resolve. Transient, one per request.
type Query struct {
	UserID  string `json:"user_id"`
	Message string `json:"message"`
}
