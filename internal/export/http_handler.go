package export

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
)

// Handler serves audit exports.
type Handler struct {
	service *Service
}

func NewHTTPHandler(service *Service) http.Handler {
	r := chi.NewRouter()
	RegisterRoutes(r, service)
	return r
}

// RegisterRoutes mounts GET /audit.csv on r.
func RegisterRoutes(r chi.Router, service *Service) {
	h := &Handler{service: service}
	r.Get("/audit.csv", h.handleDownload)
}

func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	limit := DefaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	filename := fmt.Sprintf("audit-%s.csv", time.Now().UTC().Format("20060102"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))

	summary, err := h.service.WriteAuditCSV(r.Context(), w, limit)
	if err != nil {
		// Headers may already be on the wire; the log is all that is left.
		slog.Error("audit export failed", "error", err, "rows", summary.Rows)
		return
	}
	slog.Debug("audit export written", "rows", summary.Rows, "bytes", summary.Bytes)
}
