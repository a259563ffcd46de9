package sheets

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/willozwi/AppCaccia/internal/repository"
)

// Handler exposes status toggles and statistics over HTTP.
type Handler struct {
	service *Service
}

// NewHTTPHandler serves the sheet routes on their own router.
func NewHTTPHandler(service *Service) http.Handler {
	r := chi.NewRouter()
	RegisterRoutes(r, service)
	return r
}

// RegisterRoutes mounts POST /sheets/{number}/{action} and GET /stats/{year} on r.
func RegisterRoutes(r chi.Router, service *Service) {
	h := &Handler{service: service}
	r.Post("/sheets/{number}/{action}", h.apply)
	r.Get("/stats/{year}", h.stats)
}

func (h *Handler) apply(w http.ResponseWriter, r *http.Request) {
	actor := strings.TrimSpace(r.URL.Query().Get("actor"))
	if actor == "" {
		http.Error(w, "actor is required", http.StatusBadRequest)
		return
	}

	sheet, err := h.service.Apply(r.Context(), chi.URLParam(r, "number"), Action(chi.URLParam(r, "action")), actor)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, sheet)
	case errors.Is(err, ErrUnknownAction):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, repository.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case repository.IsContention(err):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil || year <= 0 {
		http.Error(w, "invalid year", http.StatusBadRequest)
		return
	}

	stats, err := h.service.Stats(r.Context(), year)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
