package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"orgtrust/internal/domain"
	"orgtrust/internal/store"
)

// Handler is the thin read-only ops surface: health, metrics, and resolved
// profiles. Invalid profiles stay visible here so broken entries can be
// triaged instead of silently vanishing.
type Handler struct {
	profiles store.ProfileStore
}

func NewHandler(profiles store.ProfileStore) *Handler {
	return &Handler{profiles: profiles}
}

// NewRouter wires the ops endpoints.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", h.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/profiles", h.handleListProfiles)
	r.Get("/profiles/{orgid}", h.handleGetProfile)
	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	filter := store.FilterAll
	if r.URL.Query().Get("filter") == "invalid" {
		filter = store.FilterInvalid
	}
	ids, err := h.profiles.ListIdentifiers(r.Context(), filter)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	writeJSON(w, http.StatusOK, map[string]any{"orgids": out})
}

func (h *Handler) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseOrgID(chi.URLParam(r, "orgid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	profile, err := h.profiles.Get(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "profile not found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
