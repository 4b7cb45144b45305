package audit

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresStore persists audit events in the audit_events table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_events (id, action, subject, reason, device, request_id, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, event.ID, string(event.Action), event.Subject, event.Reason, event.Device, event.RequestID, event.Timestamp)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}
