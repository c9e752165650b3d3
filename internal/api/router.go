package api

import (
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/iconidentify/mediakit/internal/api/handler"
	mw "github.com/iconidentify/mediakit/internal/api/middleware"
	"github.com/iconidentify/mediakit/internal/config"
	"github.com/iconidentify/mediakit/internal/domain"
)

// requestTimeout bounds non-streaming requests. Streams are bounded by the
// server write timeout instead.
const requestTimeout = 2 * time.Minute

// NewRouter creates the HTTP router with all routes configured.
func NewRouter(
	downloadHandler *handler.DownloadHandler,
	toolsHandler *handler.ToolsHandler,
	healthHandler *handler.HealthHandler,
	historyHandler *handler.HistoryHandler,
	cfg *config.Config,
	logger *slog.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CleanPath) // Normalize paths (e.g., //ready -> /ready)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mw.Logger(logger))
	r.Use(mw.Recovery(logger))
	r.Use(mw.CORS(cfg.CORS.Origins(), cfg.CORS.AllowedSuffixes))

	// Health endpoints (no auth)
	r.Get("/health", healthHandler.Live)
	r.Get("/ready", healthHandler.Ready)

	// Media streams run as long as the download does.
	for _, p := range domain.Platforms {
		r.Get("/api/download-"+p.String()+"-stream", downloadHandler.Stream(p))
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout))

		r.Post("/api/classify", toolsHandler.Classify)
		r.Post("/api/formats/select", toolsHandler.SelectFormats)

		for _, p := range domain.Platforms {
			r.Post("/api/download-"+p.String(), downloadHandler.Lookup(p))
		}
	})

	// API v1 (authenticated); only mounted when a key is configured.
	if cfg.Server.APIKey != "" {
		r.Route("/api/v1", func(r chi.Router) {
			r.Use(mw.APIKeyAuth(cfg.Server.APIKey))
			r.Use(middleware.Timeout(requestTimeout))

			r.Get("/stats", healthHandler.Stats)
			r.Get("/history", historyHandler.List)
			r.Get("/history/{lookupID}", historyHandler.Get)
		})
	}

	return r
}
