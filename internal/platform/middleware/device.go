package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/mssola/useragent"
)

type contextKeyDevice struct{}

var ContextKeyDevice = contextKeyDevice{}

// GetDevice retrieves the human-readable device name from the context.
func GetDevice(ctx context.Context) string {
	if device, ok := ctx.Value(ContextKeyDevice).(string); ok {
		return device
	}
	return ""
}

// WithDevice injects a device name into a context. Useful for service unit
// tests that don't run the HTTP middleware chain.
func WithDevice(ctx context.Context, device string) context.Context {
	return context.WithValue(ctx, ContextKeyDevice, device)
}

// Device parses the User-Agent into a display name ("Chrome on Linux") used
// on audit events for login attempts.
func Device(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(WithDevice(r.Context(), ParseUserAgent(r.UserAgent()))))
	})
}

// ParseUserAgent derives a short device display name from a raw User-Agent.
func ParseUserAgent(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return "Unknown Device"
	}
	ua := useragent.New(raw)
	browser, _ := ua.Browser()
	os := ua.OSInfo().Name
	switch {
	case browser != "" && os != "":
		return browser + " on " + os
	case browser != "":
		return browser
	case os != "":
		return os
	default:
		return "Unknown Device"
	}
}
