package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"veridoc/internal/directory/service"
	"veridoc/internal/platform/middleware"
	"veridoc/internal/transport/http/shared"
	"veridoc/pkg/domain"
	dErrors "veridoc/pkg/domain-errors"
)

// Handler exposes account registration and password changes.
type Handler struct {
	service *service.Service
	tokens  middleware.JWTValidator
	logger  *slog.Logger
}

func New(service *service.Service, tokens middleware.JWTValidator, logger *slog.Logger) *Handler {
	return &Handler{service: service, tokens: tokens, logger: logger}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/accounts", h.createAccount)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.tokens, h.logger))
		r.Put("/accounts/password", h.changePassword)
	})
}

type createAccountRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	OrgCode   string `json:"org_code"`
	PersonID  string `json:"person_id"`
	Role      string `json:"role"`
	AdvisorID string `json:"advisor_id,omitempty"`
}

type accountResponse struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	OrgCode  string `json:"org_code"`
	PersonID string `json:"person_id"`
	Role     string `json:"role"`
}

func (h *Handler) createAccount(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.WriteError(r, w, h.logger, err)
		return
	}

	account, err := h.service.CreateAccount(r.Context(), service.CreateAccountRequest{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		OrgCode:   req.OrgCode,
		PersonID:  req.PersonID,
		Role:      domain.Role(req.Role),
		AdvisorID: req.AdvisorID,
	})
	if err != nil {
		shared.WriteError(r, w, h.logger, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, accountResponse{
		Username: account.Username,
		Email:    account.Email,
		OrgCode:  account.OrgCode,
		PersonID: account.PersonID,
		Role:     string(account.Role),
	})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (h *Handler) changePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.WriteError(r, w, h.logger, err)
		return
	}

	username := middleware.GetUsername(r.Context())
	if username == "" {
		shared.WriteError(r, w, h.logger, dErrors.New(dErrors.CodeUnauthorized, "unauthorized"))
		return
	}
	if err := h.service.ChangePassword(r.Context(), username, req.CurrentPassword, req.NewPassword); err != nil {
		shared.WriteError(r, w, h.logger, err)
		return
	}
	shared.WriteJSON(w, http.StatusNoContent, nil)
}
