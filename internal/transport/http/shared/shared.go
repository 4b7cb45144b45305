// Package shared holds the response helpers every handler uses.
package shared

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"veridoc/internal/platform/middleware"
	dErrors "veridoc/pkg/domain-errors"
)

type errorResponse struct {
	Error string `json:"error"`
}

// WriteJSON writes payload with the given status. A nil payload writes only
// the status.
func WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

// WriteError maps a coded error to its HTTP status and writes the message.
// Internal errors are logged with the request id and masked in the body.
func WriteError(r *http.Request, w http.ResponseWriter, logger *slog.Logger, err error) {
	code := dErrors.CodeOf(err)
	status := dErrors.ToHTTPStatus(code)
	message := dErrors.MessageOf(err)
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "request failed",
			"error", err,
			"request_id", middleware.GetRequestID(r.Context()),
		)
		message = "internal error"
	}
	WriteJSON(w, status, errorResponse{Error: message})
}

// Decode parses the JSON request body into dst.
func Decode(r *http.Request, dst any) error {
	defer func() { _ = r.Body.Close() }()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return dErrors.Wrap(err, dErrors.CodeBadRequest, "malformed request body")
	}
	if dec.More() {
		return dErrors.New(dErrors.CodeBadRequest, "trailing data in request body")
	}
	return nil
}

// PathValue reads a chi URL parameter, failing on empty values.
func PathValue(r *http.Request, name string) (string, error) {
	value := chi.URLParam(r, name)
	if value == "" {
		return "", dErrors.New(dErrors.CodeBadRequest, "missing "+name)
	}
	return value, nil
}
