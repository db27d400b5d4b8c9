package audit

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/siren-bd/platform/internal/shared/errors"
	"github.com/siren-bd/platform/internal/shared/types"
)

// Handler provides HTTP handlers for the audit module
type Handler struct {
	repo Repository
}

// NewHandler creates a new audit handler
func NewHandler(repo Repository) *Handler {
	return &Handler{repo: repo}
}

// Routes registers the audit routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ListEntries)
	r.Get("/verify", h.VerifyChain)

	return r
}

func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{
		EventType:   r.URL.Query().Get("eventType"),
		SubjectType: r.URL.Query().Get("subjectType"),
		SubjectID:   r.URL.Query().Get("subjectId"),
		Limit:       50,
	}

	if a := r.URL.Query().Get("actorId"); a != "" {
		id, err := types.ParseID(a)
		if err != nil {
			writeError(w, errors.BadRequest("invalid actor ID"))
			return
		}
		filter.ActorID = &id
	}
	if s := r.URL.Query().Get("since"); s != "" {
		ts, err := time.Parse(time.RFC3339, s)
		if err != nil {
			writeError(w, errors.BadRequest("invalid since timestamp"))
			return
		}
		filter.Since = &ts
	}
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 500 {
			filter.Limit = n
		}
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		if n, err := strconv.Atoi(o); err == nil && n >= 0 {
			filter.Offset = n
		}
	}

	entries, total, err := h.repo.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  entries,
		"total": total,
	})
}

// VerifyChain walks the full log and reports integrity
func (h *Handler) VerifyChain(w http.ResponseWriter, r *http.Request) {
	chain, err := h.repo.ListChain(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	broken := VerifyChain(chain)
	if broken >= 0 {
		writeJSON(w, http.StatusOK, map[string]any{
			"intact":         false,
			"entries":        len(chain),
			"brokenSequence": chain[broken].Sequence,
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"intact":  true,
		"entries": len(chain),
	})
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
