// Package http assembles the API router: platform middleware, operational
// endpoints, and the per-area route groups.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"veridoc/internal/platform/middleware"
	"veridoc/internal/transport/http/shared"
)

// Area is a route group contributed by one service area.
type Area interface {
	RegisterRoutes(chi.Router)
}

// HealthCheck probes one dependency for /healthz.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// NewRouter builds the complete API handler.
func NewRouter(logger *slog.Logger, checks []HealthCheck, areas ...Area) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.ContentTypeJSON)
	r.Use(middleware.Device)

	r.Get("/healthz", healthz(checks))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	for _, area := range areas {
		area.RegisterRoutes(r)
	}
	return r
}

func healthz(checks []HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := map[string]string{}
		healthy := true
		for _, check := range checks {
			if err := check.Check(r.Context()); err != nil {
				status[check.Name] = err.Error()
				healthy = false
				continue
			}
			status[check.Name] = "ok"
		}
		code := http.StatusOK
		if !healthy {
			code = http.StatusServiceUnavailable
		}
		shared.WriteJSON(w, code, status)
	}
}
