// Package domain holds the identity primitives shared by every component:
// roles and the org/person key that addresses face templates, certificates,
// and signing keys alike.
package domain

import "strings"

// Role partitions accounts into the two supported populations.
type Role string

const (
	RoleStudent Role = "student"
	RoleStaff   Role = "staff"
)

// Valid reports whether the role is one of the known variants.
func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleStaff
}

// Key addresses a person across the system: face template, certificate, and
// private signing key all share it. Construction rule: orgCode + "_" + personID.
type Key string

// NewKey builds the canonical key for an org/person pair.
func NewKey(orgCode, personID string) Key {
	return Key(orgCode + "_" + personID)
}

func (k Key) String() string { return string(k) }

// Split returns the org and person components of a key. The person component
// may itself contain underscores; only the first one separates the org code.
func (k Key) Split() (orgCode, personID string) {
	parts := strings.SplitN(string(k), "_", 2)
	if len(parts) != 2 {
		return string(k), ""
	}
	return parts[0], parts[1]
}
