package service

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	bmodels "veridoc/internal/biometric/models"
	bstore "veridoc/internal/biometric/store"
	"veridoc/internal/directory/store"
	"veridoc/internal/platform/metrics"
	"veridoc/pkg/domain"
	dErrors "veridoc/pkg/domain-errors"
	"veridoc/pkg/platform/audit"
	"veridoc/pkg/platform/sentinel"
)

type AccountServiceSuite struct {
	suite.Suite
	ctx       context.Context
	accounts  *store.InMemoryStore
	templates *bstore.InMemoryStore
	service   *Service
}

func TestAccountServiceSuite(t *testing.T) {
	suite.Run(t, new(AccountServiceSuite))
}

func (s *AccountServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.accounts = store.NewInMemoryStore()
	s.templates = bstore.NewInMemoryStore()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.service = New(
		s.accounts,
		s.templates,
		metrics.New(prometheus.NewRegistry()),
		audit.NewPublisher(16, logger),
		logger,
	)
}

func (s *AccountServiceSuite) registerAdvisor(personID string) {
	_, err := s.service.CreateAccount(s.ctx, CreateAccountRequest{
		Username: "staff-" + personID,
		Email:    personID + "@example.edu",
		Password: "correcthorse",
		OrgCode:  "SCH_001",
		PersonID: personID,
		Role:     domain.RoleStaff,
	})
	s.Require().NoError(err)
}

func (s *AccountServiceSuite) enrollFace(personID string) {
	err := s.templates.Upsert(s.ctx, bmodels.Template{
		Key:      domain.NewKey("SCH_001", personID),
		OrgCode:  "SCH_001",
		PersonID: personID,
		Vector:   []float64{1, 2, 3},
	})
	s.Require().NoError(err)
}

func (s *AccountServiceSuite) studentRequest(username, personID string) CreateAccountRequest {
	return CreateAccountRequest{
		Username:  username,
		Email:     username + "@example.edu",
		Password:  "correcthorse",
		OrgCode:   "SCH_001",
		PersonID:  personID,
		Role:      domain.RoleStudent,
		AdvisorID: "TC_01",
	}
}

func (s *AccountServiceSuite) TestCreateStudent() {
	s.registerAdvisor("TC_01")

	s.Run("succeeds with advisor and enrolled face", func() {
		s.enrollFace("ST_001")
		account, err := s.service.CreateAccount(s.ctx, s.studentRequest("alice", "ST_001"))
		s.Require().NoError(err)
		s.Equal(domain.RoleStudent, account.Role)
		s.Require().NotNil(account.Student)
		s.Equal(domain.NewKey("SCH_001", "ST_001"), account.Student.FaceKey)
		s.Empty(account.PasswordHash)

		stored, err := s.accounts.FindAccount(s.ctx, "alice")
		s.Require().NoError(err)
		s.NoError(bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("correcthorse")))
	})

	s.Run("nonexistent advisor creates no row", func() {
		s.enrollFace("ST_002")
		req := s.studentRequest("bob", "ST_002")
		req.AdvisorID = "TC_99"
		_, err := s.service.CreateAccount(s.ctx, req)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))

		_, err = s.accounts.FindAccount(s.ctx, "bob")
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("missing face template creates no row", func() {
		_, err := s.service.CreateAccount(s.ctx, s.studentRequest("carol", "ST_003"))
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))

		_, err = s.accounts.FindAccount(s.ctx, "carol")
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *AccountServiceSuite) TestCreateStaff() {
	account, err := s.service.CreateAccount(s.ctx, CreateAccountRequest{
		Username: "prof",
		Email:    "prof@example.edu",
		Password: "correcthorse",
		OrgCode:  "SCH_001",
		PersonID: "TC_07",
		Role:     domain.RoleStaff,
	})
	s.Require().NoError(err)
	s.Equal(domain.RoleStaff, account.Role)
	s.Nil(account.Student)
}

func (s *AccountServiceSuite) TestDuplicateUsername() {
	s.registerAdvisor("TC_01")
	s.enrollFace("ST_001")
	s.enrollFace("ST_002")

	_, err := s.service.CreateAccount(s.ctx, s.studentRequest("alice", "ST_001"))
	s.Require().NoError(err)

	_, err = s.service.CreateAccount(s.ctx, s.studentRequest("alice", "ST_002"))
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *AccountServiceSuite) TestValidation() {
	cases := []struct {
		name   string
		mutate func(*CreateAccountRequest)
	}{
		{"empty username", func(r *CreateAccountRequest) { r.Username = "" }},
		{"malformed email", func(r *CreateAccountRequest) { r.Email = "not-an-email" }},
		{"short password", func(r *CreateAccountRequest) { r.Password = "short" }},
		{"missing org code", func(r *CreateAccountRequest) { r.OrgCode = "" }},
		{"unknown role", func(r *CreateAccountRequest) { r.Role = "superuser" }},
		{"student without advisor", func(r *CreateAccountRequest) { r.AdvisorID = "" }},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			req := s.studentRequest("victim", "ST_010")
			tc.mutate(&req)
			_, err := s.service.CreateAccount(s.ctx, req)
			s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
		})
	}
}

func (s *AccountServiceSuite) TestChangePassword() {
	s.registerAdvisor("TC_01")
	s.enrollFace("ST_001")
	_, err := s.service.CreateAccount(s.ctx, s.studentRequest("alice", "ST_001"))
	s.Require().NoError(err)

	s.Run("wrong current password", func() {
		err := s.service.ChangePassword(s.ctx, "alice", "wrongpass", "newpassword1")
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("unknown user reads as invalid credentials", func() {
		err := s.service.ChangePassword(s.ctx, "nobody", "whatever1", "newpassword1")
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("success", func() {
		s.Require().NoError(s.service.ChangePassword(s.ctx, "alice", "correcthorse", "newpassword1"))
		stored, err := s.accounts.FindAccount(s.ctx, "alice")
		s.Require().NoError(err)
		s.NoError(bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("newpassword1")))
	})
}
