package service

import (
	"context"
	"errors"
	"log/slog"
	"regexp"

	"golang.org/x/crypto/bcrypt"

	"veridoc/internal/directory/models"
	"veridoc/internal/directory/store"
	"veridoc/internal/platform/metrics"
	"veridoc/pkg/domain"
	dErrors "veridoc/pkg/domain-errors"
	"veridoc/pkg/platform/audit"
	"veridoc/pkg/platform/sentinel"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

const minPasswordLength = 8

// TemplateDirectory answers whether a face template is enrolled under a key.
// Student registration requires an enrolled template.
type TemplateDirectory interface {
	Exists(ctx context.Context, key domain.Key) (bool, error)
}

// CreateAccountRequest carries the registration input. AdvisorID is required
// for students and ignored for staff.
type CreateAccountRequest struct {
	Username  string
	Email     string
	Password  string
	OrgCode   string
	PersonID  string
	Role      domain.Role
	AdvisorID string
}

// Service implements account registration and password management.
type Service struct {
	accounts  store.Store
	templates TemplateDirectory
	metrics   *metrics.Metrics
	auditor   *audit.Publisher
	logger    *slog.Logger
}

func New(accounts store.Store, templates TemplateDirectory, m *metrics.Metrics, auditor *audit.Publisher, logger *slog.Logger) *Service {
	return &Service{
		accounts:  accounts,
		templates: templates,
		metrics:   m,
		auditor:   auditor,
		logger:    logger,
	}
}

// CreateAccount registers a new student or staff account. Students must name
// an existing advisor and have a face template enrolled before registering;
// both preconditions are checked before any row is written.
func (s *Service) CreateAccount(ctx context.Context, req CreateAccountRequest) (models.Account, error) {
	if err := validateRequest(req); err != nil {
		return models.Account{}, err
	}

	account := models.Account{
		Username: req.Username,
		Email:    req.Email,
		OrgCode:  req.OrgCode,
		PersonID: req.PersonID,
		Role:     req.Role,
	}

	if req.Role == domain.RoleStudent {
		advisorExists, err := s.accounts.StaffExists(ctx, req.AdvisorID)
		if err != nil {
			return models.Account{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check advisor")
		}
		if !advisorExists {
			return models.Account{}, dErrors.New(dErrors.CodeInvalidInput, "advisor does not exist")
		}

		faceKey := domain.NewKey(req.OrgCode, req.PersonID)
		enrolled, err := s.templates.Exists(ctx, faceKey)
		if err != nil {
			return models.Account{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check face template")
		}
		if !enrolled {
			return models.Account{}, dErrors.New(dErrors.CodeInvalidInput, "no face template enrolled for this person")
		}
		account.Student = &models.StudentProfile{AdvisorID: req.AdvisorID, FaceKey: faceKey}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.Account{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}
	account.PasswordHash = string(hash)

	created, err := s.accounts.CreateAccount(ctx, account)
	if err != nil {
		return models.Account{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create account")
	}
	if !created {
		return models.Account{}, dErrors.New(dErrors.CodeConflict, "username already taken")
	}

	s.metrics.AccountsCreated.Inc()
	s.auditor.Emit(ctx, audit.Event{
		Action:  audit.ActionAccountCreated,
		Subject: req.Username,
	})
	s.logger.InfoContext(ctx, "account created", "username", req.Username, "role", string(req.Role))
	account.PasswordHash = ""
	return account, nil
}

// ChangePassword verifies the current password before storing a new hash.
func (s *Service) ChangePassword(ctx context.Context, username, currentPassword, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return dErrors.New(dErrors.CodeInvalidInput, "new password is too short")
	}

	account, err := s.accounts.FindAccount(ctx, username)
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load account")
	}

	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(currentPassword)) != nil {
		return dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}
	if err := s.accounts.UpdatePasswordHash(ctx, username, string(hash)); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update password")
	}

	s.auditor.Emit(ctx, audit.Event{
		Action:  audit.ActionPasswordChanged,
		Subject: username,
	})
	return nil
}

func validateRequest(req CreateAccountRequest) error {
	switch {
	case req.Username == "":
		return dErrors.New(dErrors.CodeInvalidInput, "username is required")
	case !emailPattern.MatchString(req.Email):
		return dErrors.New(dErrors.CodeInvalidInput, "email is malformed")
	case len(req.Password) < minPasswordLength:
		return dErrors.New(dErrors.CodeInvalidInput, "password is too short")
	case req.OrgCode == "" || req.PersonID == "":
		return dErrors.New(dErrors.CodeInvalidInput, "org code and person id are required")
	case !req.Role.Valid():
		return dErrors.New(dErrors.CodeInvalidInput, "unknown role")
	case req.Role == domain.RoleStudent && req.AdvisorID == "":
		return dErrors.New(dErrors.CodeInvalidInput, "advisor id is required for students")
	}
	return nil
}
