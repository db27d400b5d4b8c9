package task

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	roles "github.com/siren-bd/platform/internal/auth"
	"github.com/siren-bd/platform/internal/shared/auth"
	"github.com/siren-bd/platform/internal/shared/errors"
	"github.com/siren-bd/platform/internal/shared/types"
)

// Handler provides HTTP handlers for the task module
type Handler struct {
	service *Service
}

// NewHandler creates a new task handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes registers the task routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.With(roles.RequirePermission(roles.PermRequestAssign)).Post("/assign", h.AssignVolunteer)
	r.With(auth.RequireRoles(string(roles.RoleVolunteer))).Get("/mine", h.ListMyTasks)
	r.With(auth.RequireRoles(string(roles.RoleOfficial))).Get("/volunteer/{volunteerID}", h.ListForVolunteer)

	r.Route("/{taskID}", func(r chi.Router) {
		r.Get("/", h.GetTask)
		r.With(roles.RequirePermission(roles.PermTaskAccept)).Post("/accept", h.AcceptTask)
		r.With(roles.RequirePermission(roles.PermTaskProgress)).Put("/status", h.UpdateStatus)
	})

	return r
}

// --- Request types ---

type AssignRequest struct {
	RequestID   types.ID `json:"requestId"`
	VolunteerID types.ID `json:"volunteerId"`
}

type StatusUpdateRequest struct {
	Status Status `json:"status"`
	Notes  string `json:"notes"`
}

// --- Handlers ---

func (h *Handler) AssignVolunteer(w http.ResponseWriter, r *http.Request) {
	actor := auth.GetActor(r.Context())
	if actor == nil {
		writeError(w, errors.Unauthorized("authentication required"))
		return
	}

	var req AssignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}
	if req.RequestID.IsZero() || req.VolunteerID.IsZero() {
		writeError(w, errors.BadRequest("requestId and volunteerId are required"))
		return
	}

	t, err := h.service.AssignVolunteer(r.Context(), actor.ID, req.RequestID, req.VolunteerID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, t)
}

func (h *Handler) ListMyTasks(w http.ResponseWriter, r *http.Request) {
	actor := auth.GetActor(r.Context())
	if actor == nil {
		writeError(w, errors.Unauthorized("authentication required"))
		return
	}

	tasks, err := h.service.ListForVolunteer(r.Context(), actor.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  tasks,
		"total": len(tasks),
	})
}

func (h *Handler) ListForVolunteer(w http.ResponseWriter, r *http.Request) {
	volunteerID, err := types.ParseID(chi.URLParam(r, "volunteerID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid volunteer ID"))
		return
	}

	tasks, err := h.service.ListForVolunteer(r.Context(), volunteerID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  tasks,
		"total": len(tasks),
	})
}

func (h *Handler) GetTask(w http.ResponseWriter, r *http.Request) {
	id, err := types.ParseID(chi.URLParam(r, "taskID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid task ID"))
		return
	}

	t, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, t)
}

func (h *Handler) AcceptTask(w http.ResponseWriter, r *http.Request) {
	actor := auth.GetActor(r.Context())
	if actor == nil {
		writeError(w, errors.Unauthorized("authentication required"))
		return
	}

	id, err := types.ParseID(chi.URLParam(r, "taskID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid task ID"))
		return
	}

	t, err := h.service.AcceptTask(r.Context(), actor.ID, id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, t)
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	actor := auth.GetActor(r.Context())
	if actor == nil {
		writeError(w, errors.Unauthorized("authentication required"))
		return
	}

	id, err := types.ParseID(chi.URLParam(r, "taskID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid task ID"))
		return
	}

	var req StatusUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	t, err := h.service.UpdateStatus(r.Context(), actor.ID, id, req.Status, req.Notes)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, t)
}

// --- Helpers ---

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
