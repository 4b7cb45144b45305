package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"veridoc/internal/certificate/models"
	"veridoc/pkg/platform/sentinel"
)

// PostgresStore persists certificates in the certificates table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Upsert(ctx context.Context, cert models.Certificate) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO certificates (identifier, org_code, person_id, certificate_text, cleaned_text, message, signature, public_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (identifier) DO UPDATE SET
			org_code = EXCLUDED.org_code,
			person_id = EXCLUDED.person_id,
			certificate_text = EXCLUDED.certificate_text,
			cleaned_text = EXCLUDED.cleaned_text,
			message = EXCLUDED.message,
			signature = EXCLUDED.signature,
			public_key = EXCLUDED.public_key,
			created_at = CURRENT_TIMESTAMP`,
		cert.Identifier, cert.OrgCode, cert.PersonID, cert.Text, cert.CleanedText,
		cert.Message, cert.Signature, cert.PublicKey)
	if err != nil {
		return fmt.Errorf("upsert certificate: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByIdentifier(ctx context.Context, identifier string) (models.Certificate, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, identifier, org_code, person_id, certificate_text, cleaned_text, message, signature, public_key, created_at
		FROM certificates WHERE identifier = $1`, identifier)

	cert, err := scanCertificate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Certificate{}, sentinel.ErrNotFound
	}
	if err != nil {
		return models.Certificate{}, fmt.Errorf("find certificate: %w", err)
	}
	return cert, nil
}

func (s *PostgresStore) Delete(ctx context.Context, identifier string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM certificates WHERE identifier = $1`, identifier); err != nil {
		return fmt.Errorf("delete certificate: %w", err)
	}
	return nil
}

func (s *PostgresStore) Search(ctx context.Context, keyword, orgScope string) ([]models.Certificate, error) {
	pattern := "%" + keyword + "%"
	query := `
		SELECT id, identifier, org_code, person_id, certificate_text, cleaned_text, message, signature, public_key, created_at
		FROM certificates
		WHERE (identifier ILIKE $1 OR person_id ILIKE $1 OR org_code ILIKE $1 OR certificate_text ILIKE $1)`
	args := []any{pattern}
	if orgScope != "" {
		query += ` AND org_code = $2`
		args = append(args, orgScope)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT %d`, searchLimit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search certificates: %w", err)
	}
	defer rows.Close()

	var out []models.Certificate
	for rows.Next() {
		cert, err := scanCertificate(rows)
		if err != nil {
			return nil, fmt.Errorf("search certificates: %w", err)
		}
		out = append(out, cert)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("search certificates: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCertificate(row rowScanner) (models.Certificate, error) {
	var cert models.Certificate
	err := row.Scan(&cert.ID, &cert.Identifier, &cert.OrgCode, &cert.PersonID,
		&cert.Text, &cert.CleanedText, &cert.Message, &cert.Signature,
		&cert.PublicKey, &cert.CreatedAt)
	return cert, err
}
