// Package handler wires the compliance engine to HTTP. It delegates to the
// service without embedding business logic so transport concerns stay isolated.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"adviserd/internal/compliance"
	"adviserd/internal/compliance/service"
	dErrors "adviserd/pkg/domain-errors"
	"adviserd/pkg/platform/httputil"
)

type Handler struct {
	svc    *service.Service
	logger *slog.Logger
}

func New(svc *service.Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Register mounts the compliance routes on the router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/compliance", func(r chi.Router) {
		r.Post("/validate", h.validate)
		r.Get("/checks", h.list)
		r.Get("/checks/{id}", h.get)
		r.Post("/checks/{id}/review", h.review)
		r.Post("/checks/{id}/escalate", h.escalate)
		r.Get("/stats", h.stats)
	})
}

func (h *Handler) validate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid JSON body"))
		return
	}
	sanitize(&req)

	check, err := h.svc.ValidateContent(r.Context(), service.ValidateRequest{
		RuleType:   compliance.RuleType(req.RuleType),
		TargetType: compliance.TargetType(req.TargetType),
		TargetID:   req.TargetID,
		Content:    req.Content,
		ActorID:    req.RequestedBy,
		ActorRole:  req.RequestedByRole,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, check)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	var status *compliance.Status
	if raw := r.URL.Query().Get("status"); raw != "" {
		parsed := compliance.Status(raw)
		status = &parsed
	}

	checks, err := h.svc.ListChecks(r.Context(), status)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, checks)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.checkID(w, r)
	if !ok {
		return
	}
	check, err := h.svc.GetCheck(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, check)
}

func (h *Handler) review(w http.ResponseWriter, r *http.Request) {
	id, ok := h.checkID(w, r)
	if !ok {
		return
	}

	var req reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid JSON body"))
		return
	}
	sanitize(&req)

	check, err := h.svc.ReviewCheck(r.Context(), id, service.ReviewRequest{
		Status:     compliance.Status(req.Status),
		ReviewerID: req.ReviewerID,
		Notes:      req.Notes,
		ActorRole:  req.ReviewerRole,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, check)
}

func (h *Handler) escalate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.checkID(w, r)
	if !ok {
		return
	}

	var req escalateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid JSON body"))
		return
	}
	sanitize(&req)

	check, err := h.svc.EscalateCheck(r.Context(), id, req.EscalatedTo, req.RequestedBy, req.RequestedByRole)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, check)
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.GetStats(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stats)
}

func (h *Handler) checkID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid check id"))
		return uuid.Nil, false
	}
	return id, true
}
