package store

import (
	"context"

	"veridoc/internal/biometric/models"
	"veridoc/pkg/domain"
)

// Store persists face templates. All returns templates in enrollment order
// so matcher tie-breaks stay reproducible across calls. The full scan is
// deliberate: the matching pass assumes the template set fits in memory.
type Store interface {
	Upsert(ctx context.Context, template models.Template) error
	FindByKey(ctx context.Context, key domain.Key) (models.Template, error)
	Exists(ctx context.Context, key domain.Key) (bool, error)
	All(ctx context.Context) ([]models.Template, error)
}
