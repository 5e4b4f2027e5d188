// Package ticket stores escalation tickets in a local SQLite database.
package ticket

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/kotae-ai/kotae/internal/metrics"
	"github.com/kotae-ai/kotae/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS tickets (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL,
	message    TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'open',
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_tickets_user_id ON tickets(user_id);
`

// Store persists tickets. Safe for concurrent use; database/sql pools
// connections underneath.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the ticket database at path and ensures the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("ticket: open database: %w", err)
	}
	// modernc sqlite allows one writer; serialize through a single conn.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ticket: ensure schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Create inserts a new open ticket and returns it.
func (s *Store) Create(ctx context.Context, userID, message string) (model.Ticket, error) {
	t := model.Ticket{
		ID:        uuid.NewString(),
		UserID:    userID,
		Message:   message,
		Status:    model.TicketStatusOpen,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tickets (id, user_id, message, status, created_at) VALUES (?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.Message, t.Status, t.CreatedAt,
	)
	if err != nil {
		return model.Ticket{}, fmt.Errorf("ticket: insert: %w", err)
	}
	metrics.TicketsCreatedTotal.Inc()
	return t, nil
}

// Get returns a ticket by ID, or sql.ErrNoRows wrapped when absent.
func (s *Store) Get(ctx context.Context, id string) (model.Ticket, error) {
	var t model.Ticket
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, message, status, created_at FROM tickets WHERE id = ?`, id,
	).Scan(&t.ID, &t.UserID, &t.Message, &t.Status, &t.CreatedAt)
	if err != nil {
		return model.Ticket{}, fmt.Errorf("ticket: get %s: %w", id, err)
	}
	return t, nil
}

// ListByUser returns the user's tickets, newest first.
func (s *Store) ListByUser(ctx context.Context, userID string) ([]model.Ticket, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, message, status, created_at FROM tickets WHERE user_id = ? ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("ticket: list for %s: %w", userID, err)
	}
	defer rows.Close()

	var tickets []model.Ticket
	for rows.Next() {
		var t model.Ticket
		if err := rows.Scan(&t.ID, &t.UserID, &t.Message, &t.Status, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("ticket: scan row: %w", err)
		}
		tickets = append(tickets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ticket: iterate rows: %w", err)
	}
	return tickets, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
