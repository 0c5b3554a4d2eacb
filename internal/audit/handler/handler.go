// Package handler exposes the platform audit log over HTTP: append for any
// back-office service, filtered read for compliance officers.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"adviserd/internal/audit"
	dErrors "adviserd/pkg/domain-errors"
	"adviserd/pkg/platform/httputil"
	"adviserd/pkg/platform/middleware/metadata"
)

type Handler struct {
	recorder *audit.Recorder
	// inbox receives read-path access entries for the background worker;
	// nil disables access auditing.
	inbox  chan<- audit.Entry
	logger *slog.Logger
}

func New(recorder *audit.Recorder, inbox chan<- audit.Entry, logger *slog.Logger) *Handler {
	return &Handler{recorder: recorder, inbox: inbox, logger: logger}
}

// Register mounts the audit routes on the router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/audit", func(r chi.Router) {
		r.Post("/entries", h.record)
		r.Get("/entries", h.query)
	})
}

type recordRequest struct {
	Action     string         `json:"action"`
	EntityType string         `json:"entity_type"`
	EntityID   string         `json:"entity_id"`
	UserID     string         `json:"user_id"`
	UserRole   string         `json:"user_role"`
	Details    map[string]any `json:"details"`
}

func (h *Handler) record(w http.ResponseWriter, r *http.Request) {
	var req recordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid JSON body"))
		return
	}

	entry, err := h.recorder.Record(r.Context(), audit.Entry{
		Action:     req.Action,
		EntityType: req.EntityType,
		EntityID:   req.EntityID,
		UserID:     req.UserID,
		UserRole:   req.UserRole,
		Details:    req.Details,
		IPAddress:  metadata.GetClientIP(r.Context()),
		UserAgent:  metadata.GetUserAgent(r.Context()),
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, entry)
}

func (h *Handler) query(w http.ResponseWriter, r *http.Request) {
	q := audit.Query{
		EntityType: r.URL.Query().Get("entity_type"),
		EntityID:   r.URL.Query().Get("entity_id"),
	}
	var ok bool
	if q.Start, ok = h.parseTime(w, r.URL.Query().Get("start")); !ok {
		return
	}
	if q.End, ok = h.parseTime(w, r.URL.Query().Get("end")); !ok {
		return
	}

	entries, err := h.recorder.Query(r.Context(), q)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.emitAccess(r, q, len(entries))
	httputil.WriteJSON(w, http.StatusOK, entries)
}

func (h *Handler) parseTime(w http.ResponseWriter, raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, true
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "time filters must be RFC 3339"))
		return time.Time{}, false
	}
	return parsed, true
}

// emitAccess queues a read-access entry without blocking the response. A full
// inbox drops the access entry, never the request.
func (h *Handler) emitAccess(r *http.Request, q audit.Query, results int) {
	if h.inbox == nil {
		return
	}
	entry := audit.Entry{
		Action:     string(audit.ActionAuditQueried),
		EntityType: "audit_log",
		EntityID:   q.EntityID,
		Details: map[string]any{
			"entity_type_filter": q.EntityType,
			"results":            results,
		},
		IPAddress: metadata.GetClientIP(r.Context()),
		UserAgent: metadata.GetUserAgent(r.Context()),
	}
	select {
	case h.inbox <- entry:
	default:
		if h.logger != nil {
			h.logger.Warn("audit access inbox full, dropping access entry")
		}
	}
}
