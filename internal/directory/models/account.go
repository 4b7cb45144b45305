package models

import (
	"time"

	"veridoc/pkg/domain"
)

// StudentProfile carries the fields only students have. AdvisorID references
// a staff person_id in the same org; FaceKey is the enrolled template key the
// student must match at login.
type StudentProfile struct {
	AdvisorID string
	FaceKey   domain.Key
}

// Account is a directory entry for either population. Student is non-nil
// exactly when Role is RoleStudent; staff accounts carry no profile.
type Account struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	OrgCode      string
	PersonID     string
	Role         domain.Role
	Student      *StudentProfile
	PublicKey    []byte
	CreatedAt    time.Time
}

// Key returns the org/person key for the account.
func (a Account) Key() domain.Key {
	return domain.NewKey(a.OrgCode, a.PersonID)
}
