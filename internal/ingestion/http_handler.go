package ingestion

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/willozwi/AppCaccia/internal/spreadsheet"
)

const maxUploadBytes = 32 << 20

// Handler exposes imports as HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHTTPHandler serves the import routes on their own router.
func NewHTTPHandler(service *Service) http.Handler {
	r := chi.NewRouter()
	RegisterRoutes(r, service)
	return r
}

// RegisterRoutes mounts POST /imports and POST /imports/preview on r.
func RegisterRoutes(r chi.Router, service *Service) {
	h := &Handler{service: service}
	r.Post("/imports", h.runImport)
	r.Post("/imports/preview", h.preview)
}

func (h *Handler) runImport(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	req.Folder = strings.TrimSpace(req.Folder)

	outcome, err := h.service.Run(r.Context(), req)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrFolderRequired) || errors.Is(err, ErrInvalidYear) {
			status = http.StatusBadRequest
		}
		http.Error(w, err.Error(), status)
		return
	}

	writeJSON(w, http.StatusOK, outcome)
}

func (h *Handler) preview(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, fmt.Sprintf("invalid form data: %v", err), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, fmt.Sprintf("file required: %v", err), http.StatusBadRequest)
		return
	}
	defer file.Close()

	year, err := strconv.Atoi(strings.TrimSpace(r.FormValue("year")))
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid year: %v", err), http.StatusBadRequest)
		return
	}

	preview, err := h.service.Preview(r.Context(), header.Filename, file, year)
	if err != nil {
		var unreadable *spreadsheet.UnreadableFileError
		if errors.As(err, &unreadable) || errors.Is(err, ErrInvalidYear) {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, preview)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}
