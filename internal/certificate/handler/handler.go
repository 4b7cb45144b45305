package handler

import (
	"encoding/base64"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"veridoc/internal/certificate/models"
	"veridoc/internal/certificate/service"
	"veridoc/internal/platform/middleware"
	"veridoc/internal/transport/http/shared"
	"veridoc/pkg/domain"
	dErrors "veridoc/pkg/domain-errors"
)

// Handler exposes certificate issuance, lookup, verification, and search.
// Lookup and verification are public; issuance, deletion, and search require
// a staff token.
type Handler struct {
	service *service.Service
	tokens  middleware.JWTValidator
	logger  *slog.Logger
}

func New(service *service.Service, tokens middleware.JWTValidator, logger *slog.Logger) *Handler {
	return &Handler{service: service, tokens: tokens, logger: logger}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/certificates", func(r chi.Router) {
		r.Get("/{identifier}", h.lookup)
		r.Post("/{identifier}/verify", h.verify)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(h.tokens, h.logger))
			r.Use(middleware.RequireRole(string(domain.RoleStaff)))
			r.Post("/", h.issue)
			r.Get("/", h.search)
			r.Delete("/{identifier}", h.remove)
		})
	})
}

type issueRequest struct {
	OrgCode  string `json:"org_code"`
	PersonID string `json:"person_id"`
	Document string `json:"document"`
}

type certificateResponse struct {
	Identifier string    `json:"identifier"`
	OrgCode    string    `json:"org_code"`
	PersonID   string    `json:"person_id"`
	Text       string    `json:"text"`
	Signature  string    `json:"signature"`
	PublicKey  string    `json:"public_key"`
	CreatedAt  time.Time `json:"created_at"`
}

func toResponse(cert models.Certificate) certificateResponse {
	return certificateResponse{
		Identifier: cert.Identifier,
		OrgCode:    cert.OrgCode,
		PersonID:   cert.PersonID,
		Text:       cert.Text,
		Signature:  base64.StdEncoding.EncodeToString(cert.Signature),
		PublicKey:  string(cert.PublicKey),
		CreatedAt:  cert.CreatedAt,
	}
}

func (h *Handler) issue(w http.ResponseWriter, r *http.Request) {
	var req issueRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.WriteError(r, w, h.logger, err)
		return
	}
	document, err := base64.StdEncoding.DecodeString(req.Document)
	if err != nil {
		shared.WriteError(r, w, h.logger, dErrors.New(dErrors.CodeBadRequest, "document is not valid base64"))
		return
	}

	cert, err := h.service.Issue(r.Context(), service.IssueRequest{
		OrgCode:  req.OrgCode,
		PersonID: req.PersonID,
		Document: document,
	})
	if err != nil {
		shared.WriteError(r, w, h.logger, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, toResponse(cert))
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) {
	identifier, err := shared.PathValue(r, "identifier")
	if err != nil {
		shared.WriteError(r, w, h.logger, err)
		return
	}
	cert, err := h.service.Lookup(r.Context(), identifier)
	if err != nil {
		shared.WriteError(r, w, h.logger, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toResponse(cert))
}

type verifyRequest struct {
	Document string `json:"document"`
}

type verifyResponse struct {
	Outcome string `json:"outcome"`
}

func (h *Handler) verify(w http.ResponseWriter, r *http.Request) {
	identifier, err := shared.PathValue(r, "identifier")
	if err != nil {
		shared.WriteError(r, w, h.logger, err)
		return
	}
	var req verifyRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.WriteError(r, w, h.logger, err)
		return
	}
	document, err := base64.StdEncoding.DecodeString(req.Document)
	if err != nil {
		shared.WriteError(r, w, h.logger, dErrors.New(dErrors.CodeBadRequest, "document is not valid base64"))
		return
	}

	outcome, err := h.service.Verify(r.Context(), identifier, document)
	if err != nil {
		shared.WriteError(r, w, h.logger, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, verifyResponse{Outcome: string(outcome)})
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	identifier, err := shared.PathValue(r, "identifier")
	if err != nil {
		shared.WriteError(r, w, h.logger, err)
		return
	}
	if err := h.service.Delete(r.Context(), identifier); err != nil {
		shared.WriteError(r, w, h.logger, err)
		return
	}
	shared.WriteJSON(w, http.StatusNoContent, nil)
}

type searchResponse struct {
	Results []certificateResponse `json:"results"`
}

// search is scoped to the caller's org.
func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	keyword := r.URL.Query().Get("q")
	certs, err := h.service.Search(r.Context(), keyword, middleware.GetOrgCode(r.Context()))
	if err != nil {
		shared.WriteError(r, w, h.logger, err)
		return
	}
	results := make([]certificateResponse, 0, len(certs))
	for _, cert := range certs {
		results = append(results, toResponse(cert))
	}
	shared.WriteJSON(w, http.StatusOK, searchResponse{Results: results})
}
