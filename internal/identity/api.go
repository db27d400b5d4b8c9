package identity

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/siren-bd/platform/internal/auth"
	sharedauth "github.com/siren-bd/platform/internal/shared/auth"
	"github.com/siren-bd/platform/internal/shared/config"
	"github.com/siren-bd/platform/internal/shared/errors"
)

// Handler provides HTTP handlers for registration and sessions
type Handler struct {
	service *Service
	authCfg config.AuthConfig
}

// NewHandler creates a new identity handler
func NewHandler(service *Service, authCfg config.AuthConfig) *Handler {
	return &Handler{service: service, authCfg: authCfg}
}

// PublicRoutes registers the unauthenticated routes
func (h *Handler) PublicRoutes() chi.Router {
	r := chi.NewRouter()

	r.Post("/register", h.Register)
	r.Post("/register/donor", h.RegisterDonor)
	r.Post("/login", h.Login)

	return r
}

// Routes registers the authenticated routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/logout", h.Logout)
	r.Get("/me", h.Me)

	r.Route("/volunteers", func(r chi.Router) {
		r.With(sharedauth.RequireRoles(string(auth.RoleOfficial))).Get("/", h.ListVolunteers)
		r.With(sharedauth.RequireRoles(string(auth.RoleVolunteer))).Put("/availability", h.SetAvailability)
	})

	return r
}

// --- Request/Response types ---

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type AvailabilityRequest struct {
	Available bool `json:"available"`
}

// --- Handlers ---

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var reg Registration
	if err := json.NewDecoder(r.Body).Decode(&reg); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	actor, err := h.service.Register(r.Context(), reg)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, actor)
}

func (h *Handler) RegisterDonor(w http.ResponseWriter, r *http.Request) {
	var reg Registration
	if err := json.NewDecoder(r.Body).Decode(&reg); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	actor, err := h.service.RegisterDonor(r.Context(), reg)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, actor)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	session, err := h.service.Authenticate(r.Context(), req.Email, req.Password, req.Role)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	actor := sharedauth.GetActor(r.Context())
	if actor == nil {
		writeError(w, errors.Unauthorized("authentication required"))
		return
	}

	if err := h.service.EndSession(r.Context(), actor.ID, actor.Role); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	actor := sharedauth.GetActor(r.Context())
	if actor == nil {
		writeError(w, errors.Unauthorized("authentication required"))
		return
	}

	full, err := h.service.Get(r.Context(), actor.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, full)
}

func (h *Handler) ListVolunteers(w http.ResponseWriter, r *http.Request) {
	availableOnly := r.URL.Query().Get("available") == "true"

	volunteers, err := h.service.ListVolunteers(r.Context(), availableOnly)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  volunteers,
		"total": len(volunteers),
	})
}

func (h *Handler) SetAvailability(w http.ResponseWriter, r *http.Request) {
	actor := sharedauth.GetActor(r.Context())
	if actor == nil {
		writeError(w, errors.Unauthorized("authentication required"))
		return
	}

	var req AvailabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	updated, err := h.service.SetAvailability(r.Context(), actor.ID, req.Available)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, updated)
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
