package store

import (
	"context"

	"veridoc/internal/directory/models"
	"veridoc/pkg/domain"
)

// Store persists directory accounts. Students and staff live in separate
// tables; username is unique across each population.
type Store interface {
	// CreateAccount inserts the account. It reports false with a nil error
	// when the username is already taken; the existing row is left untouched.
	CreateAccount(ctx context.Context, account models.Account) (bool, error)
	// FindAccount looks a username up in both populations, students first.
	// Returns sentinel.ErrNotFound when neither table has the row.
	FindAccount(ctx context.Context, username string) (models.Account, error)
	UpdatePasswordHash(ctx context.Context, username, passwordHash string) error
	// UpdatePublicKey records the current public key PEM on the account row
	// addressed by the org/person key. Missing accounts are ignored; a key
	// pair can exist for a person who never registered.
	UpdatePublicKey(ctx context.Context, key domain.Key, publicKey []byte) error
	// StaffExists reports whether a staff member with the person id exists.
	StaffExists(ctx context.Context, personID string) (bool, error)
}
