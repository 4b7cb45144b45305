package handler

import (
	"context"
	"encoding/base64"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"veridoc/internal/login"
	"veridoc/internal/transport/http/shared"
	dErrors "veridoc/pkg/domain-errors"
)

// Handler exposes the multi-step login flow. Each step past the password
// references the challenge id from the previous response.
type Handler struct {
	service *login.Service
	logger  *slog.Logger
}

func New(service *login.Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.password)
		r.Route("/login/{challengeID}", func(r chi.Router) {
			r.Post("/biometric", h.biometric)
			r.Post("/biometric/skip", h.skipBiometric)
			r.Post("/otp/request", h.requestOTP)
			r.Post("/otp", h.submitOTP)
			r.Post("/abandon", h.abandon)
		})
	})
}

type stepResponse struct {
	ChallengeID string `json:"challenge_id,omitempty"`
	State       string `json:"state"`
	Token       string `json:"token,omitempty"`
}

func writeStep(w http.ResponseWriter, result login.StepResult) {
	shared.WriteJSON(w, http.StatusOK, stepResponse{
		ChallengeID: result.ChallengeID,
		State:       string(result.State),
		Token:       result.Token,
	})
}

type passwordRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) password(w http.ResponseWriter, r *http.Request) {
	var req passwordRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.WriteError(r, w, h.logger, err)
		return
	}
	result, err := h.service.PasswordStep(r.Context(), req.Username, req.Password)
	if err != nil {
		shared.WriteError(r, w, h.logger, err)
		return
	}
	writeStep(w, result)
}

type biometricRequest struct {
	Image string `json:"image"`
}

func (h *Handler) biometric(w http.ResponseWriter, r *http.Request) {
	challengeID, err := shared.PathValue(r, "challengeID")
	if err != nil {
		shared.WriteError(r, w, h.logger, err)
		return
	}
	var req biometricRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.WriteError(r, w, h.logger, err)
		return
	}
	image, err := base64.StdEncoding.DecodeString(req.Image)
	if err != nil {
		shared.WriteError(r, w, h.logger, dErrors.New(dErrors.CodeBadRequest, "image is not valid base64"))
		return
	}
	result, err := h.service.BiometricStep(r.Context(), challengeID, image)
	if err != nil {
		shared.WriteError(r, w, h.logger, err)
		return
	}
	writeStep(w, result)
}

func (h *Handler) skipBiometric(w http.ResponseWriter, r *http.Request) {
	h.challengeStep(w, r, h.service.SkipBiometric)
}

func (h *Handler) requestOTP(w http.ResponseWriter, r *http.Request) {
	h.challengeStep(w, r, h.service.RequestOTP)
}

type submitOTPRequest struct {
	Code string `json:"code"`
}

func (h *Handler) submitOTP(w http.ResponseWriter, r *http.Request) {
	challengeID, err := shared.PathValue(r, "challengeID")
	if err != nil {
		shared.WriteError(r, w, h.logger, err)
		return
	}
	var req submitOTPRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.WriteError(r, w, h.logger, err)
		return
	}
	result, err := h.service.SubmitOTP(r.Context(), challengeID, req.Code)
	if err != nil {
		shared.WriteError(r, w, h.logger, err)
		return
	}
	writeStep(w, result)
}

func (h *Handler) abandon(w http.ResponseWriter, r *http.Request) {
	challengeID, err := shared.PathValue(r, "challengeID")
	if err != nil {
		shared.WriteError(r, w, h.logger, err)
		return
	}
	if err := h.service.Abandon(r.Context(), challengeID); err != nil {
		shared.WriteError(r, w, h.logger, err)
		return
	}
	shared.WriteJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) challengeStep(w http.ResponseWriter, r *http.Request, step func(context.Context, string) (login.StepResult, error)) {
	challengeID, err := shared.PathValue(r, "challengeID")
	if err != nil {
		shared.WriteError(r, w, h.logger, err)
		return
	}
	result, err := step(r.Context(), challengeID)
	if err != nil {
		shared.WriteError(r, w, h.logger, err)
		return
	}
	writeStep(w, result)
}
