// Package matcher resolves a query feature vector to the closest enrolled
// identity. The interface exists so a linear scan can later be swapped for an
// approximate nearest-neighbor index without touching callers.
package matcher

import (
	"math"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"veridoc/internal/biometric/models"
	"veridoc/pkg/domain"
)

var matchDurationMs = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "veridoc_face_match_duration_ms",
	Help:    "Latency of a full-template-set face match in milliseconds.",
	Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50},
})

// Match is a successful resolution: the closest enrolled key and its
// distance from the query.
type Match struct {
	Key      domain.Key
	Distance float64
}

// Matcher decides whether a query vector matches any enrolled template.
type Matcher interface {
	Match(query []float64, templates []models.Template, threshold float64) (Match, bool)
}

// Euclidean is the O(n) linear-scan matcher over Euclidean distance.
type Euclidean struct{}

func NewEuclidean() *Euclidean {
	return &Euclidean{}
}

// Match scans every template, takes the minimum distance, and declares a
// match only when it is strictly below threshold. Ties keep the
// first-encountered template, so scan order (enrollment order, fixed by the
// store) makes repeated calls deterministic. An empty template set never
// matches. Templates whose vector length differs from the query are skipped:
// they cannot be compared.
func (e *Euclidean) Match(query []float64, templates []models.Template, threshold float64) (Match, bool) {
	start := time.Now()
	defer func() {
		matchDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	best := Match{Distance: math.Inf(1)}
	for _, t := range templates {
		if len(t.Vector) != len(query) {
			continue
		}
		if d := distance(query, t.Vector); d < best.Distance {
			best = Match{Key: t.Key, Distance: d}
		}
	}
	if best.Key == "" || best.Distance >= threshold {
		return Match{}, false
	}
	return best, true
}

func distance(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}
