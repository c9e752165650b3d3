package handler

import (
	"log/slog"
	"net/http"

	"github.com/iconidentify/mediakit/internal/classify"
	"github.com/iconidentify/mediakit/internal/domain"
	"github.com/iconidentify/mediakit/internal/formats"
)

const (
	maxClassifyBody = 16 << 10
	maxFormatsBody  = 8 << 20
)

// ToolsHandler exposes the classifier and format selector directly.
type ToolsHandler struct {
	maxResults int
	logger     *slog.Logger
}

// NewToolsHandler creates a new tools handler. maxResults is the format cap
// used when a request does not set one.
func NewToolsHandler(maxResults int, logger *slog.Logger) *ToolsHandler {
	if maxResults <= 0 {
		maxResults = formats.DefaultMaxResults
	}
	return &ToolsHandler{
		maxResults: maxResults,
		logger:     logger,
	}
}

// ClassifyRequest is the JSON request body for POST /api/classify.
type ClassifyRequest struct {
	URL string `json:"url"`
}

// ClassifyResponse describes a recognized link.
type ClassifyResponse struct {
	Platform    domain.Platform `json:"platform"`
	DisplayName string          `json:"displayName"`
	ExternalID  string          `json:"externalId"`
}

// SelectRequest is the JSON request body for POST /api/formats/select.
type SelectRequest struct {
	Formats    []domain.RawFormat `json:"formats"`
	MaxResults *int               `json:"maxResults,omitempty"`
}

// SelectResponse holds the selected formats.
type SelectResponse struct {
	Formats []domain.SelectedFormat `json:"formats"`
}

// Classify handles POST /api/classify
func (h *ToolsHandler) Classify(w http.ResponseWriter, r *http.Request) {
	var req ClassifyRequest
	if err := decodeJSON(w, r, maxClassifyBody, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}

	c, ok := classify.Classify(req.URL)
	if !ok {
		h.logger.Debug("unrecognized link", "host", classify.Host(req.URL))
		writeError(w, http.StatusBadRequest, "unsupported URL")
		return
	}

	writeJSON(w, http.StatusOK, ClassifyResponse{
		Platform:    c.Platform,
		DisplayName: c.Platform.DisplayName(),
		ExternalID:  c.ExternalID,
	})
}

// SelectFormats handles POST /api/formats/select
func (h *ToolsHandler) SelectFormats(w http.ResponseWriter, r *http.Request) {
	var req SelectRequest
	if err := decodeJSON(w, r, maxFormatsBody, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	maxResults := h.maxResults
	if req.MaxResults != nil {
		maxResults = *req.MaxResults
	}

	writeJSON(w, http.StatusOK, SelectResponse{
		Formats: formats.Select(req.Formats, maxResults),
	})
}
