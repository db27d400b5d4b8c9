package zone

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/siren-bd/platform/internal/shared/errors"
)

// Handler provides HTTP handlers for the zone module
type Handler struct {
	predictor Predictor
}

// NewHandler creates a new zone handler
func NewHandler(predictor Predictor) *Handler {
	return &Handler{predictor: predictor}
}

// Routes registers the zone routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/predictions", h.GetPredictions)
	r.Get("/health", h.HealthCheck)

	return r
}

func (h *Handler) GetPredictions(w http.ResponseWriter, r *http.Request) {
	prediction, err := h.predictor.Predict(r.Context())
	if err != nil {
		writeError(w, errors.Wrap(err, "zone prediction failed"))
		return
	}

	writeJSON(w, http.StatusOK, prediction)
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if err := h.predictor.Health(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
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
