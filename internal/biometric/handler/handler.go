package handler

import (
	"encoding/base64"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"veridoc/internal/biometric/service"
	"veridoc/internal/transport/http/shared"
	dErrors "veridoc/pkg/domain-errors"
)

// Handler exposes face enrollment.
type Handler struct {
	service *service.Service
	logger  *slog.Logger
}

func New(service *service.Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/enroll", h.enroll)
}

type enrollRequest struct {
	OrgCode  string `json:"org_code"`
	PersonID string `json:"person_id"`
	Image    string `json:"image"`
	ImageRef string `json:"image_ref"`
}

type enrollResponse struct {
	Key string `json:"key"`
}

func (h *Handler) enroll(w http.ResponseWriter, r *http.Request) {
	var req enrollRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.WriteError(r, w, h.logger, err)
		return
	}

	image, err := base64.StdEncoding.DecodeString(req.Image)
	if err != nil {
		shared.WriteError(r, w, h.logger, dErrors.New(dErrors.CodeBadRequest, "image is not valid base64"))
		return
	}

	key, err := h.service.Enroll(r.Context(), req.OrgCode, req.PersonID, image, req.ImageRef)
	if err != nil {
		shared.WriteError(r, w, h.logger, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, enrollResponse{Key: key.String()})
}
