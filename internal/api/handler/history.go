package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iconidentify/mediakit/internal/domain"
	"github.com/iconidentify/mediakit/internal/service"
)

// HistoryHandler serves recorded lookups.
type HistoryHandler struct {
	mediaSvc *service.MediaService
	logger   *slog.Logger
}

// NewHistoryHandler creates a new history handler.
func NewHistoryHandler(mediaSvc *service.MediaService, logger *slog.Logger) *HistoryHandler {
	return &HistoryHandler{
		mediaSvc: mediaSvc,
		logger:   logger,
	}
}

// HistoryResponse lists recent lookups.
type HistoryResponse struct {
	Lookups []*domain.Lookup `json:"lookups"`
	Limit   int              `json:"limit"`
}

// List handles GET /api/v1/history
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r)

	lookups, err := h.mediaSvc.History(r.Context(), limit)
	if err != nil {
		h.logger.Error("list history failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list history")
		return
	}

	writeJSON(w, http.StatusOK, HistoryResponse{
		Lookups: lookups,
		Limit:   limit,
	})
}

// Get handles GET /api/v1/history/{lookupID}
func (h *HistoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := domain.LookupID(chi.URLParam(r, "lookupID"))

	lookup, err := h.mediaSvc.GetLookup(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrLookupNotFound) {
			writeError(w, http.StatusNotFound, "lookup not found")
			return
		}
		h.logger.Error("get lookup failed", "lookup_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get lookup")
		return
	}

	writeJSON(w, http.StatusOK, lookup)
}
