package login

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"veridoc/internal/biometric/extractor"
	"veridoc/internal/biometric/matcher"
	bstore "veridoc/internal/biometric/store"
	dirstore "veridoc/internal/directory/store"
	"veridoc/internal/platform/metrics"
	"veridoc/internal/platform/middleware"
	"veridoc/pkg/domain"
	dErrors "veridoc/pkg/domain-errors"
	"veridoc/pkg/platform/audit"
	"veridoc/pkg/platform/sentinel"
)

// StepResult is what a login step hands back to the transport layer. Token is
// set only when State is StateAuthenticated.
type StepResult struct {
	ChallengeID string
	State       State
	Token       string
}

// Options are the login flow knobs.
type Options struct {
	MatchThreshold float64
	ChallengeTTL   time.Duration
	OTPTTL         time.Duration
	OTPLength      int
}

// Service drives the multi-factor login flow: password first, then an
// optional biometric factor, then a one-time code as fallback. The state
// machine decides transitions; this service does the I/O around it.
type Service struct {
	accounts   dirstore.Store
	templates  bstore.Store
	match      matcher.Matcher
	extract    extractor.Extractor
	challenges ChallengeStore
	otps       OTPStore
	sender     OTPSender
	tokens     *TokenIssuer
	opts       Options
	metrics    *metrics.Metrics
	auditor    *audit.Publisher
	logger     *slog.Logger
}

func NewService(
	accounts dirstore.Store,
	templates bstore.Store,
	match matcher.Matcher,
	extract extractor.Extractor,
	challenges ChallengeStore,
	otps OTPStore,
	sender OTPSender,
	tokens *TokenIssuer,
	opts Options,
	m *metrics.Metrics,
	auditor *audit.Publisher,
	logger *slog.Logger,
) *Service {
	return &Service{
		accounts:   accounts,
		templates:  templates,
		match:      match,
		extract:    extract,
		challenges: challenges,
		otps:       otps,
		sender:     sender,
		tokens:     tokens,
		opts:       opts,
		metrics:    m,
		auditor:    auditor,
		logger:     logger,
	}
}

// PasswordStep checks the first factor and opens a challenge. Unknown
// usernames and wrong passwords produce the same error.
func (s *Service) PasswordStep(ctx context.Context, username, password string) (StepResult, error) {
	account, err := s.accounts.FindAccount(ctx, username)
	if errors.Is(err, sentinel.ErrNotFound) {
		return s.rejectPassword(ctx, username)
	}
	if err != nil {
		return StepResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load account")
	}
	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) != nil {
		return s.rejectPassword(ctx, username)
	}

	m, err := NewMachine().Apply(EventPasswordOK)
	if err != nil {
		return StepResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "login flow error")
	}

	challenge := Challenge{
		ID:        uuid.NewString(),
		Username:  account.Username,
		Email:     account.Email,
		Role:      account.Role,
		OrgCode:   account.OrgCode,
		PersonID:  account.PersonID,
		State:     m.State,
		CreatedAt: time.Now().UTC(),
	}
	if account.Student != nil {
		challenge.FaceKey = account.Student.FaceKey
	}
	if err := s.challenges.Save(ctx, challenge, s.opts.ChallengeTTL); err != nil {
		return StepResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save challenge")
	}

	s.metrics.ObserveLogin(FactorPassword, "ok")
	s.emit(ctx, audit.ActionLoginPasswordOK, username, "")
	return StepResult{ChallengeID: challenge.ID, State: m.State}, nil
}

func (s *Service) rejectPassword(ctx context.Context, username string) (StepResult, error) {
	s.metrics.ObserveLogin(FactorPassword, "fail")
	s.emit(ctx, audit.ActionLoginFailed, username, ReasonInvalidCredentials)
	return StepResult{}, dErrors.New(dErrors.CodeUnauthorized, ReasonInvalidCredentials)
}

// BiometricStep runs the face factor. A match authenticates immediately; a
// miss or an unreadable image moves the challenge to the OTP fallback, it
// never rejects the login outright. Students must match their own enrolled
// template; matching someone else's counts as a miss.
func (s *Service) BiometricStep(ctx context.Context, challengeID string, image []byte) (StepResult, error) {
	challenge, err := s.findChallenge(ctx, challengeID)
	if err != nil {
		return StepResult{}, err
	}

	matched := false
	vector, err := s.extract.Extract(ctx, image)
	switch {
	case err == nil:
		templates, listErr := s.templates.All(ctx)
		if listErr != nil {
			return StepResult{}, dErrors.Wrap(listErr, dErrors.CodeInternal, "failed to load templates")
		}
		if match, ok := s.match.Match(vector, templates, s.opts.MatchThreshold); ok {
			matched = challenge.Role == domain.RoleStaff || match.Key == challenge.FaceKey
		}
	case errors.Is(err, extractor.ErrExtractionFailed):
		// No face in the image: counts as a miss, the flow continues.
	default:
		return StepResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "feature extraction failed")
	}

	if matched {
		m, err := challenge.Machine().Apply(EventBiometricMatched)
		if err != nil {
			return StepResult{}, dErrors.Wrap(err, dErrors.CodeBadRequest, "biometric step not available")
		}
		s.metrics.ObserveLogin(FactorBiometric, "ok")
		s.emit(ctx, audit.ActionBiometricMatched, challenge.Username, "")
		return s.authenticate(ctx, challenge, m)
	}

	m, err := challenge.Machine().Apply(EventBiometricFailed)
	if err != nil {
		return StepResult{}, dErrors.Wrap(err, dErrors.CodeBadRequest, "biometric step not available")
	}
	challenge.State = m.State
	if err := s.challenges.Save(ctx, challenge, s.opts.ChallengeTTL); err != nil {
		return StepResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save challenge")
	}
	s.metrics.ObserveLogin(FactorBiometric, "fail")
	s.emit(ctx, audit.ActionBiometricFailed, challenge.Username, "")
	return StepResult{ChallengeID: challenge.ID, State: m.State}, nil
}

// SkipBiometric moves the challenge straight to the OTP fallback.
func (s *Service) SkipBiometric(ctx context.Context, challengeID string) (StepResult, error) {
	challenge, err := s.findChallenge(ctx, challengeID)
	if err != nil {
		return StepResult{}, err
	}
	m, err := challenge.Machine().Apply(EventBiometricSkipped)
	if err != nil {
		return StepResult{}, dErrors.Wrap(err, dErrors.CodeBadRequest, "biometric step not available")
	}
	challenge.State = m.State
	if err := s.challenges.Save(ctx, challenge, s.opts.ChallengeTTL); err != nil {
		return StepResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save challenge")
	}
	return StepResult{ChallengeID: challenge.ID, State: m.State}, nil
}

// RequestOTP generates a one-time code, stores its hash under the code TTL,
// and sends it to the account's email. Requesting a code directly after the
// password step implicitly skips the biometric factor.
func (s *Service) RequestOTP(ctx context.Context, challengeID string) (StepResult, error) {
	challenge, err := s.findChallenge(ctx, challengeID)
	if err != nil {
		return StepResult{}, err
	}

	m := challenge.Machine()
	if m.State == StatePasswordChecked {
		if m, err = m.Apply(EventBiometricSkipped); err != nil {
			return StepResult{}, dErrors.Wrap(err, dErrors.CodeBadRequest, "otp step not available")
		}
	}
	m, err = m.Apply(EventOTPSent)
	if err != nil {
		return StepResult{}, dErrors.Wrap(err, dErrors.CodeBadRequest, "otp step not available")
	}

	code, err := GenerateOTP(s.opts.OTPLength)
	if err != nil {
		return StepResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate code")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return StepResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash code")
	}
	if err := s.otps.Save(ctx, challenge.ID, string(hash), s.opts.OTPTTL); err != nil {
		return StepResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store code")
	}
	if err := s.sender.Send(ctx, challenge.Email, code); err != nil {
		return StepResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to send code")
	}

	challenge.State = m.State
	if err := s.challenges.Save(ctx, challenge, s.opts.ChallengeTTL); err != nil {
		return StepResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save challenge")
	}
	s.emit(ctx, audit.ActionOTPRequested, challenge.Username, "")
	return StepResult{ChallengeID: challenge.ID, State: m.State}, nil
}

// SubmitOTP checks the code. Codes are single use: pass or fail, the stored
// hash is gone afterwards, and a failure ends the challenge.
func (s *Service) SubmitOTP(ctx context.Context, challengeID, code string) (StepResult, error) {
	challenge, err := s.findChallenge(ctx, challengeID)
	if err != nil {
		return StepResult{}, err
	}
	if challenge.State != StateOTPPending {
		return StepResult{}, dErrors.New(dErrors.CodeBadRequest, "no code was requested")
	}

	hash, err := s.otps.Consume(ctx, challenge.ID)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return StepResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load code")
	}
	ok := err == nil && bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)) == nil

	if !ok {
		m, applyErr := challenge.Machine().Apply(EventOTPFailed)
		if applyErr != nil {
			return StepResult{}, dErrors.Wrap(applyErr, dErrors.CodeBadRequest, "otp step not available")
		}
		if err := s.challenges.Delete(ctx, challenge.ID); err != nil {
			s.logger.WarnContext(ctx, "failed to delete challenge", "error", err)
		}
		s.metrics.ObserveLogin(FactorOTP, "fail")
		s.emit(ctx, audit.ActionOTPFailed, challenge.Username, m.Reason)
		return StepResult{}, dErrors.New(dErrors.CodeUnauthorized, m.Reason)
	}

	m, err := challenge.Machine().Apply(EventOTPMatched)
	if err != nil {
		return StepResult{}, dErrors.Wrap(err, dErrors.CodeBadRequest, "otp step not available")
	}
	s.metrics.ObserveLogin(FactorOTP, "ok")
	s.emit(ctx, audit.ActionOTPMatched, challenge.Username, "")
	return s.authenticate(ctx, challenge, m)
}

// Abandon cancels an in-flight challenge. Abandoning an unknown or expired
// challenge succeeds.
func (s *Service) Abandon(ctx context.Context, challengeID string) error {
	challenge, err := s.challenges.Find(ctx, challengeID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil
	}
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load challenge")
	}
	if err := s.challenges.Delete(ctx, challenge.ID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete challenge")
	}
	s.emit(ctx, audit.ActionLoginAbandoned, challenge.Username, ReasonCancelled)
	return nil
}

func (s *Service) authenticate(ctx context.Context, challenge Challenge, m Machine) (StepResult, error) {
	token, err := s.tokens.Issue(challenge.Username, challenge.Role, challenge.OrgCode, m.Factor)
	if err != nil {
		return StepResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token")
	}
	if err := s.challenges.Delete(ctx, challenge.ID); err != nil {
		s.logger.WarnContext(ctx, "failed to delete challenge", "error", err)
	}
	s.logger.InfoContext(ctx, "login complete",
		"username", challenge.Username,
		"factor", m.Factor,
	)
	return StepResult{State: m.State, Token: token}, nil
}

func (s *Service) findChallenge(ctx context.Context, challengeID string) (Challenge, error) {
	challenge, err := s.challenges.Find(ctx, challengeID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return Challenge{}, dErrors.New(dErrors.CodeUnauthorized, "challenge not found or expired")
	}
	if err != nil {
		return Challenge{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load challenge")
	}
	return challenge, nil
}

func (s *Service) emit(ctx context.Context, action audit.Action, subject, reason string) {
	s.auditor.Emit(ctx, audit.Event{
		Action:    action,
		Subject:   subject,
		Reason:    reason,
		Device:    middleware.GetDevice(ctx),
		RequestID: middleware.GetRequestID(ctx),
	})
}
