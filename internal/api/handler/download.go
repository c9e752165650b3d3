package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/iconidentify/mediakit/internal/domain"
	"github.com/iconidentify/mediakit/internal/service"
)

const maxLookupBody = 64 << 10

// DownloadHandler handles per-platform lookup and stream endpoints.
type DownloadHandler struct {
	mediaSvc *service.MediaService
	logger   *slog.Logger
}

// NewDownloadHandler creates a new download handler.
func NewDownloadHandler(mediaSvc *service.MediaService, logger *slog.Logger) *DownloadHandler {
	return &DownloadHandler{
		mediaSvc: mediaSvc,
		logger:   logger,
	}
}

// LookupRequest is the JSON request body for a format lookup.
type LookupRequest struct {
	URL string `json:"url"`
}

// LookupResponse is returned after a successful format lookup.
type LookupResponse struct {
	Success     bool                    `json:"success"`
	LookupID    string                  `json:"lookupId"`
	Platform    domain.Platform         `json:"platform"`
	VideoID     string                  `json:"videoId"`
	Title       string                  `json:"title"`
	Thumbnail   string                  `json:"thumbnail"`
	Formats     []domain.SelectedFormat `json:"formats"`
	DownloadURL string                  `json:"downloadUrl"`
	Message     string                  `json:"message"`
}

// UnavailableResponse is returned when downloads for a platform are disabled.
type UnavailableResponse struct {
	Success     bool            `json:"success"`
	Error       string          `json:"error"`
	Platform    domain.Platform `json:"platform"`
	Unavailable bool            `json:"unavailable"`
}

// Lookup returns the handler for POST /api/download-{platform}.
func (h *DownloadHandler) Lookup(platform domain.Platform) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LookupRequest
		if err := decodeJSON(w, r, maxLookupBody, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.URL == "" {
			writeError(w, http.StatusBadRequest, "url is required")
			return
		}

		result, err := h.mediaSvc.Lookup(r.Context(), req.URL, platform)
		if err != nil {
			h.writeLookupError(w, r, platform, err)
			return
		}

		writeJSON(w, http.StatusOK, LookupResponse{
			Success:     true,
			LookupID:    result.LookupID.String(),
			Platform:    result.Platform,
			VideoID:     result.VideoID,
			Title:       result.Title,
			Thumbnail:   result.Thumbnail,
			Formats:     result.Formats,
			DownloadURL: result.DownloadURL,
			Message:     "Click the download button to save the video",
		})
	}
}

// Stream returns the handler for GET /api/download-{platform}-stream.
func (h *DownloadHandler) Stream(platform domain.Platform) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rawURL := r.URL.Query().Get("url")
		if rawURL == "" {
			writeError(w, http.StatusBadRequest, "url is required")
			return
		}
		formatID := r.URL.Query().Get("formatId")

		target := &attachmentWriter{w: w, rc: http.NewResponseController(w)}
		err := h.mediaSvc.Download(r.Context(), rawURL, platform, formatID, target)
		if err == nil {
			return
		}

		if target.started {
			// Headers are gone; the client sees a truncated file.
			h.logger.Warn("stream interrupted",
				"platform", platform,
				"bytes", target.written,
				"error", err,
			)
			return
		}

		target.reset()
		h.writeLookupError(w, r, platform, err)
	}
}

func (h *DownloadHandler) writeLookupError(w http.ResponseWriter, r *http.Request, platform domain.Platform, err error) {
	status := statusFor(err)

	switch {
	case errors.Is(err, domain.ErrPlatformUnavailable):
		writeJSON(w, status, UnavailableResponse{
			Success:     false,
			Error:       platform.DisplayName() + " downloads are temporarily unavailable",
			Platform:    platform,
			Unavailable: true,
		})
		return
	case errors.Is(err, domain.ErrUnsupportedURL), errors.Is(err, domain.ErrPlatformMismatch):
		writeError(w, status, "invalid "+platform.DisplayName()+" URL")
		return
	}

	if r.Context().Err() != nil {
		h.logger.Info("client went away", "platform", platform, "error", err)
		return
	}

	var message string
	switch status {
	case http.StatusBadRequest:
		message = "invalid format ID"
	case http.StatusNotFound:
		message = "media is private, removed or unavailable in this region"
	case http.StatusGatewayTimeout:
		message = "timed out fetching media information, try again later"
	case http.StatusBadGateway:
		message = "failed to fetch media information"
	default:
		message = "internal error"
	}

	h.logger.Warn("lookup failed", "platform", platform, "status", status, "error", err)
	writeError(w, status, message)
}

// attachmentWriter adapts an http.ResponseWriter to service.DownloadTarget.
type attachmentWriter struct {
	w       http.ResponseWriter
	rc      *http.ResponseController
	started bool
	written int64
}

func (a *attachmentWriter) Begin(filename string) {
	a.w.Header().Set("Content-Type", "video/mp4")
	a.w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
}

func (a *attachmentWriter) Write(p []byte) (int, error) {
	a.started = true
	n, err := a.w.Write(p)
	a.written += int64(n)
	if err != nil {
		return n, err
	}
	a.rc.Flush()
	return n, nil
}

// reset drops the attachment headers so an error body can be written.
func (a *attachmentWriter) reset() {
	a.w.Header().Del("Content-Type")
	a.w.Header().Del("Content-Disposition")
}
