package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// Open connects to PostgreSQL and verifies the connection. Pool sizing is
// conservative; every request runs a handful of short queries.
func Open(ctx context.Context, databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// schema is applied at startup. Uniqueness of username, face-template key,
// and certificate identifier is enforced here; upserts rely on these
// constraints for their conflict targets.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS students (
		id SERIAL PRIMARY KEY,
		person_id TEXT NOT NULL,
		org_code TEXT NOT NULL,
		username TEXT UNIQUE NOT NULL,
		email TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		face_key TEXT UNIQUE NOT NULL,
		advisor_id TEXT NOT NULL,
		public_key BYTEA,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS staff (
		id SERIAL PRIMARY KEY,
		person_id TEXT UNIQUE NOT NULL,
		org_code TEXT NOT NULL,
		username TEXT UNIQUE NOT NULL,
		email TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		public_key BYTEA,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS face_templates (
		id SERIAL PRIMARY KEY,
		key TEXT UNIQUE NOT NULL,
		org_code TEXT NOT NULL,
		person_id TEXT NOT NULL,
		vector JSONB NOT NULL,
		image_ref TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS certificates (
		id SERIAL PRIMARY KEY,
		identifier TEXT UNIQUE NOT NULL,
		org_code TEXT NOT NULL,
		person_id TEXT NOT NULL,
		certificate_text TEXT NOT NULL,
		cleaned_text TEXT NOT NULL,
		message BYTEA NOT NULL,
		signature BYTEA NOT NULL,
		public_key BYTEA NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS audit_events (
		id UUID PRIMARY KEY,
		action TEXT NOT NULL,
		subject TEXT NOT NULL,
		reason TEXT NOT NULL DEFAULT '',
		device TEXT NOT NULL DEFAULT '',
		request_id TEXT NOT NULL DEFAULT '',
		occurred_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_face_templates_key ON face_templates(key)`,
	`CREATE INDEX IF NOT EXISTS idx_students_face_key ON students(face_key)`,
	`CREATE INDEX IF NOT EXISTS idx_certificates_identifier ON certificates(identifier)`,
	`CREATE INDEX IF NOT EXISTS idx_certificates_created_at ON certificates(created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_events_subject ON audit_events(subject)`,
}

// InitSchema creates the tables and indexes if they do not exist.
func InitSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}
