package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"veridoc/internal/biometric/models"
	"veridoc/pkg/domain"
	"veridoc/pkg/platform/sentinel"
)

// PostgresStore persists face templates in PostgreSQL. Vectors are stored as
// JSON-encoded float arrays; the store never interprets them.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Upsert(ctx context.Context, template models.Template) error {
	vector, err := json.Marshal(template.Vector)
	if err != nil {
		return fmt.Errorf("marshal template vector: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO face_templates (key, org_code, person_id, vector, image_ref)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (key) DO UPDATE SET
			vector = EXCLUDED.vector,
			image_ref = EXCLUDED.image_ref,
			created_at = CURRENT_TIMESTAMP
	`, template.Key.String(), template.OrgCode, template.PersonID, vector, template.ImageRef)
	if err != nil {
		return fmt.Errorf("upsert face template: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByKey(ctx context.Context, key domain.Key) (models.Template, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT key, org_code, person_id, vector, image_ref, created_at
		FROM face_templates
		WHERE key = $1
	`, key.String())
	template, err := scanTemplate(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Template{}, sentinel.ErrNotFound
		}
		return models.Template{}, fmt.Errorf("find face template: %w", err)
	}
	return template, nil
}

func (s *PostgresStore) Exists(ctx context.Context, key domain.Key) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM face_templates WHERE key = $1`, key.String()).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check face template: %w", err)
	}
	return true, nil
}

// All returns every template ordered by insertion (serial id), which is the
// ordering the matcher's tie-break contract depends on.
func (s *PostgresStore) All(ctx context.Context) ([]models.Template, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT key, org_code, person_id, vector, image_ref, created_at
		FROM face_templates
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("list face templates: %w", err)
	}
	defer rows.Close()

	var templates []models.Template
	for rows.Next() {
		template, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan face template: %w", err)
		}
		templates = append(templates, template)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list face templates: %w", err)
	}
	return templates, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTemplate(row rowScanner) (models.Template, error) {
	var (
		template models.Template
		key      string
		vector   []byte
	)
	if err := row.Scan(&key, &template.OrgCode, &template.PersonID, &vector, &template.ImageRef, &template.CreatedAt); err != nil {
		return models.Template{}, err
	}
	template.Key = domain.Key(key)
	if err := json.Unmarshal(vector, &template.Vector); err != nil {
		return models.Template{}, fmt.Errorf("unmarshal template vector: %w", err)
	}
	return template, nil
}
