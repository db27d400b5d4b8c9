// Package api exposes the help request HTTP surface.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	roles "github.com/siren-bd/platform/internal/auth"
	"github.com/siren-bd/platform/internal/request/domain"
	"github.com/siren-bd/platform/internal/shared/auth"
	"github.com/siren-bd/platform/internal/shared/errors"
	"github.com/siren-bd/platform/internal/shared/events"
	"github.com/siren-bd/platform/internal/shared/metrics"
	"github.com/siren-bd/platform/internal/shared/types"
)

// Handler provides HTTP handlers for the request module
type Handler struct {
	repo domain.Repository
	bus  events.EventBus
}

// NewHandler creates a new request handler
func NewHandler(repo domain.Repository, bus events.EventBus) *Handler {
	return &Handler{repo: repo, bus: bus}
}

// Routes registers the request routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ListRequests)
	r.With(roles.RequirePermission(roles.PermRequestCreate)).Post("/", h.SubmitRequest)
	r.Get("/mine", h.ListMyRequests)
	r.With(auth.RequireRoles(string(roles.RoleOfficial))).Get("/victim/{victimID}", h.ListByVictim)

	r.Route("/{requestID}", func(r chi.Router) {
		r.Get("/", h.GetRequest)
		r.Post("/cancel", h.CancelRequest)
	})

	return r
}

// --- Handlers ---

func (h *Handler) ListRequests(w http.ResponseWriter, r *http.Request) {
	filter := domain.ListFilter{
		Search: r.URL.Query().Get("search"),
	}

	if s := r.URL.Query().Get("status"); s != "" {
		status := domain.Status(s)
		filter.Status = &status
	}
	if s := r.URL.Query().Get("severity"); s != "" {
		severity := domain.Severity(s)
		filter.Severity = &severity
	}
	if t := r.URL.Query().Get("emergencyType"); t != "" {
		emergencyType := domain.EmergencyType(t)
		filter.EmergencyType = &emergencyType
	}

	requests, total, err := h.repo.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  requests,
		"total": total,
	})
}

func (h *Handler) SubmitRequest(w http.ResponseWriter, r *http.Request) {
	actor := auth.GetActor(r.Context())
	if actor == nil {
		writeError(w, errors.Unauthorized("authentication required"))
		return
	}

	var sub domain.Submission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	req, err := domain.NewRequest(actor.ID, sub)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.repo.Save(r.Context(), req); err != nil {
		writeError(w, err)
		return
	}

	metrics.RecordHelpRequestCreated(string(req.EmergencyType), string(req.Severity))
	h.publishEvents(r.Context(), req, actor)

	writeJSON(w, http.StatusCreated, req)
}

func (h *Handler) GetRequest(w http.ResponseWriter, r *http.Request) {
	id, err := types.ParseID(chi.URLParam(r, "requestID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid request ID"))
		return
	}

	req, err := h.repo.FindByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, req)
}

func (h *Handler) ListMyRequests(w http.ResponseWriter, r *http.Request) {
	actor := auth.GetActor(r.Context())
	if actor == nil {
		writeError(w, errors.Unauthorized("authentication required"))
		return
	}

	requests, err := h.repo.FindByVictim(r.Context(), actor.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  requests,
		"total": len(requests),
	})
}

func (h *Handler) ListByVictim(w http.ResponseWriter, r *http.Request) {
	id, err := types.ParseID(chi.URLParam(r, "victimID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid victim ID"))
		return
	}

	requests, err := h.repo.FindByVictim(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  requests,
		"total": len(requests),
	})
}

func (h *Handler) CancelRequest(w http.ResponseWriter, r *http.Request) {
	actor := auth.GetActor(r.Context())
	if actor == nil {
		writeError(w, errors.Unauthorized("authentication required"))
		return
	}

	id, err := types.ParseID(chi.URLParam(r, "requestID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid request ID"))
		return
	}

	req, err := h.repo.FindByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	if !req.CanBeCancelledBy(actor.ID, actor.Role) {
		writeError(w, errors.Forbidden("only the requester or an official may cancel"))
		return
	}

	from := req.Status
	if err := req.Cancel(actor.ID); err != nil {
		writeError(w, err)
		return
	}

	if err := h.repo.Update(r.Context(), req); err != nil {
		writeError(w, err)
		return
	}

	metrics.RecordHelpRequestStatusChange(string(from), string(req.Status))
	h.publishEvents(r.Context(), req, actor)

	writeJSON(w, http.StatusOK, req)
}

// --- Helpers ---

func (h *Handler) publishEvents(ctx context.Context, req *domain.Request, actor *auth.Actor) {
	if h.bus == nil {
		return
	}

	for _, e := range req.GetDomainEvents() {
		event := events.NewEvent("request."+e.Type, "request", map[string]any{
			"requestId":     req.ID.String(),
			"emergencyType": string(req.EmergencyType),
			"severity":      string(req.Severity),
			"event":         e,
		}).WithActor(actor.ID, actor.Role)

		h.bus.Publish(ctx, event)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")

	if appErr, ok := err.(*errors.AppError); ok {
		w.WriteHeader(appErr.HTTPStatus)
		json.NewEncoder(w).Encode(map[string]any{
			"error":   appErr.Message,
			"code":    appErr.Code,
			"details": appErr.Details,
		})
		return
	}

	w.WriteHeader(http.StatusInternalServerError)
	json.NewEncoder(w).Encode(map[string]string{"error": "internal server error"})
}
