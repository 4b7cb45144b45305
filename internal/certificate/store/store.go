package store

import (
	"context"

	"veridoc/internal/certificate/models"
)

// searchLimit caps keyword search result sets.
const searchLimit = 200

// Store persists certificates keyed by identifier.
type Store interface {
	// Upsert inserts the certificate or fully replaces the existing row with
	// the same identifier, refreshing created_at.
	Upsert(ctx context.Context, cert models.Certificate) error
	// FindByIdentifier returns sentinel.ErrNotFound for unknown identifiers.
	FindByIdentifier(ctx context.Context, identifier string) (models.Certificate, error)
	// Delete removes the certificate. Deleting an absent identifier is a no-op.
	Delete(ctx context.Context, identifier string) error
	// Search matches the keyword case-insensitively against identifier,
	// person id, org code, and certificate text, newest first, capped at
	// searchLimit rows. A non-empty orgScope restricts results to that org.
	Search(ctx context.Context, keyword, orgScope string) ([]models.Certificate, error)
}
