package model

import "time"

// AuditRecord is one append-only line in the audit trail. The message is
// always stored redacted; once written a record is never edited or deleted
// by the running process (rotation/retention is an external concern).
type AuditRecord struct {
	Timestamp       time.Time    `json:"timestamp"`
	RequestID       string       `json:"request_id,omitempty"`
	UserID          string       `json:"user_id"`
	RedactedMessage string       `json:"redacted_message"`
	Answer          string       `json:"answer"`
	Path            DecisionPath `json:"path"`
	Confidence      float64      `json:"confidence"`
	MatchedFAQID    string       `json:"matched_faq_id,omitempty"`
	ToolCalls       []ToolCall   `json:"tool_calls,omitempty"`
	TicketID        string       `json:"ticket_id,omitempty"`
}
