package model

import "time"

// TicketStatusOpen is the status every newly created ticket starts in.
// The running process never transitions tickets; resolution happens in
// external support tooling.
const TicketStatusOpen = "open"

// Ticket is an explicit escalation to human support. Append-only.
type Ticket struct {
	ID        string    `json:"ticket_id"`
	UserID    string    `json:"user_id"`
	Message   string    `json:"message"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}
