// Package audit captures security-relevant actions: login factor outcomes,
// account creation, certificate issuance and deletion, key generation.
// Events flow through a buffered channel to a background worker that appends
// them to a store, keeping emission off the request path.
package audit

import (
	"time"

	"github.com/google/uuid"
)

// Action identifies what happened.
type Action string

const (
	ActionAccountCreated     Action = "account_created"
	ActionPasswordChanged    Action = "password_changed"
	ActionTemplateEnrolled   Action = "face_template_enrolled"
	ActionLoginPasswordOK    Action = "login_password_ok"
	ActionLoginFailed        Action = "login_failed"
	ActionBiometricMatched   Action = "login_biometric_matched"
	ActionBiometricFailed    Action = "login_biometric_failed"
	ActionOTPRequested       Action = "login_otp_requested"
	ActionOTPMatched         Action = "login_otp_matched"
	ActionOTPFailed          Action = "login_otp_failed"
	ActionLoginAbandoned     Action = "login_abandoned"
	ActionCertificateIssued  Action = "certificate_issued"
	ActionCertificateDeleted Action = "certificate_deleted"
	ActionKeyGenerated       Action = "signing_key_generated"
)

// Event is emitted from domain logic. Keep it transport-agnostic so stores
// and sinks can fan out.
type Event struct {
	ID        uuid.UUID
	Action    Action
	Subject   string // username or identifier the action concerns
	Reason    string // why, for failures ("bad otp", "below threshold", ...)
	Device    string // display name parsed from the User-Agent, if any
	RequestID string
	Timestamp time.Time
}
