package models

import (
	"time"

	"veridoc/pkg/domain"
)

// Template is an enrolled face: a fixed-length feature vector bound to the
// org/person key. At most one live template exists per key; enrollment
// replaces the prior vector.
type Template struct {
	Key       domain.Key
	OrgCode   string
	PersonID  string
	Vector    []float64
	ImageRef  string
	CreatedAt time.Time
}
