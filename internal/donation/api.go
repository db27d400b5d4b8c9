package donation

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/siren-bd/platform/internal/auth"
	sharedauth "github.com/siren-bd/platform/internal/shared/auth"
	"github.com/siren-bd/platform/internal/shared/errors"
	"github.com/siren-bd/platform/internal/shared/events"
	"github.com/siren-bd/platform/internal/shared/metrics"
)

// Handler provides HTTP handlers for the donation module
type Handler struct {
	repo Repository
	bus  events.EventBus
}

// NewHandler creates a new donation handler
func NewHandler(repo Repository, bus events.EventBus) *Handler {
	return &Handler{repo: repo, bus: bus}
}

// Routes registers the donation routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.With(auth.RequirePermission(auth.PermDonate)).Post("/", h.Contribute)
	r.With(sharedauth.RequireRoles("donor")).Get("/mine", h.ListMine)
	r.With(sharedauth.RequireRoles("official")).Get("/", h.ListRecent)
	r.With(sharedauth.RequireRoles("official")).Get("/summary", h.GetSummary)

	return r
}

func (h *Handler) Contribute(w http.ResponseWriter, r *http.Request) {
	actor := sharedauth.GetActor(r.Context())
	if actor == nil {
		writeError(w, errors.Unauthorized("authentication required"))
		return
	}

	var contribution Contribution
	if err := json.NewDecoder(r.Body).Decode(&contribution); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}
	if contribution.DonorName == "" {
		contribution.DonorName = actor.Name
	}

	if err := contribution.Validate(); err != nil {
		writeError(w, err)
		return
	}

	donorID := actor.ID
	d := NewDonation(&donorID, contribution)
	if err := h.repo.Save(r.Context(), d); err != nil {
		writeError(w, err)
		return
	}

	metrics.RecordDonation(string(d.Purpose), d.Amount)
	if h.bus != nil {
		event := events.NewEvent("donation.received", "donation", map[string]any{
			"donationId": d.ID.String(),
			"purpose":    string(d.Purpose),
			"amount":     d.Amount,
			"currency":   d.Currency,
		}).WithActor(actor.ID, actor.Role)
		h.bus.Publish(r.Context(), event)
	}

	writeJSON(w, http.StatusCreated, d)
}

func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	actor := sharedauth.GetActor(r.Context())
	if actor == nil {
		writeError(w, errors.Unauthorized("authentication required"))
		return
	}

	donations, err := h.repo.ListByDonor(r.Context(), actor.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	if donations == nil {
		donations = []*Donation{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"donations": donations})
}

func (h *Handler) ListRecent(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	donations, err := h.repo.ListRecent(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if donations == nil {
		donations = []*Donation{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"donations": donations})
}

func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.repo.Summarize(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
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
