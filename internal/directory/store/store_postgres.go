package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"veridoc/internal/directory/models"
	"veridoc/pkg/domain"
	"veridoc/pkg/platform/sentinel"
)

// PostgresStore persists accounts in the students and staff tables.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) CreateAccount(ctx context.Context, account models.Account) (bool, error) {
	var (
		query string
		args  []any
	)
	switch account.Role {
	case domain.RoleStudent:
		if account.Student == nil {
			return false, fmt.Errorf("create account: student profile missing for %q", account.Username)
		}
		query = `
			INSERT INTO students (person_id, org_code, username, email, password_hash, face_key, advisor_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (username) DO NOTHING
			RETURNING id`
		args = []any{
			account.PersonID, account.OrgCode, account.Username, account.Email,
			account.PasswordHash, account.Student.FaceKey.String(), account.Student.AdvisorID,
		}
	case domain.RoleStaff:
		query = `
			INSERT INTO staff (person_id, org_code, username, email, password_hash)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (username) DO NOTHING
			RETURNING id`
		args = []any{
			account.PersonID, account.OrgCode, account.Username, account.Email,
			account.PasswordHash,
		}
	default:
		return false, fmt.Errorf("create account: unknown role %q", account.Role)
	}

	var id int64
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("create account: %w", err)
	}
	return true, nil
}

func (s *PostgresStore) FindAccount(ctx context.Context, username string) (models.Account, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, person_id, org_code, username, email, password_hash, face_key, advisor_id, public_key, created_at
		FROM students WHERE username = $1`, username)

	var (
		account   models.Account
		faceKey   string
		advisorID string
		publicKey []byte
	)
	err := row.Scan(&account.ID, &account.PersonID, &account.OrgCode, &account.Username,
		&account.Email, &account.PasswordHash, &faceKey, &advisorID, &publicKey, &account.CreatedAt)
	switch {
	case err == nil:
		account.Role = domain.RoleStudent
		account.Student = &models.StudentProfile{AdvisorID: advisorID, FaceKey: domain.Key(faceKey)}
		account.PublicKey = publicKey
		return account, nil
	case !errors.Is(err, sql.ErrNoRows):
		return models.Account{}, fmt.Errorf("find student account: %w", err)
	}

	row = s.db.QueryRowContext(ctx, `
		SELECT id, person_id, org_code, username, email, password_hash, public_key, created_at
		FROM staff WHERE username = $1`, username)
	err = row.Scan(&account.ID, &account.PersonID, &account.OrgCode, &account.Username,
		&account.Email, &account.PasswordHash, &publicKey, &account.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Account{}, sentinel.ErrNotFound
	}
	if err != nil {
		return models.Account{}, fmt.Errorf("find staff account: %w", err)
	}
	account.Role = domain.RoleStaff
	account.PublicKey = publicKey
	return account, nil
}

func (s *PostgresStore) UpdatePasswordHash(ctx context.Context, username, passwordHash string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE students SET password_hash = $2 WHERE username = $1`, username, passwordHash)
	if err != nil {
		return fmt.Errorf("update student password: %w", err)
	}
	if n, _ := result.RowsAffected(); n > 0 {
		return nil
	}

	result, err = s.db.ExecContext(ctx,
		`UPDATE staff SET password_hash = $2 WHERE username = $1`, username, passwordHash)
	if err != nil {
		return fmt.Errorf("update staff password: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) UpdatePublicKey(ctx context.Context, key domain.Key, publicKey []byte) error {
	orgCode, personID := key.Split()
	_, err := s.db.ExecContext(ctx,
		`UPDATE students SET public_key = $3 WHERE org_code = $1 AND person_id = $2`,
		orgCode, personID, publicKey)
	if err != nil {
		return fmt.Errorf("update student public key: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE staff SET public_key = $3 WHERE org_code = $1 AND person_id = $2`,
		orgCode, personID, publicKey)
	if err != nil {
		return fmt.Errorf("update staff public key: %w", err)
	}
	return nil
}

func (s *PostgresStore) StaffExists(ctx context.Context, personID string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM staff WHERE person_id = $1)`, personID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("staff exists: %w", err)
	}
	return exists, nil
}
