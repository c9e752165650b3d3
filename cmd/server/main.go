package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/iconidentify/mediakit/internal/api"
	"github.com/iconidentify/mediakit/internal/api/handler"
	"github.com/iconidentify/mediakit/internal/config"
	"github.com/iconidentify/mediakit/internal/extractor"
	"github.com/iconidentify/mediakit/internal/repository"
	"github.com/iconidentify/mediakit/internal/service"
	"github.com/iconidentify/mediakit/internal/worker"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "", "Path to config file")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("mediakit %s (built %s)\n", Version, BuildTime)
		os.Exit(0)
	}

	// Setup logger; the level is adjusted once config is loaded.
	var level slog.LevelVar
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: &level,
	}))
	slog.SetDefault(logger)

	logger.Info("starting mediakit",
		"version", Version,
		"build_time", BuildTime,
	)

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	lvl, err := config.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		logger.Warn("invalid log level, using info", "error", err)
	}
	level.Set(lvl)

	// Initialize dependencies
	history, err := newHistory(cfg.History, logger)
	if err != nil {
		logger.Error("failed to open lookup history", "error", err)
		os.Exit(1)
	}

	recorder := worker.NewRecorder(worker.Config{
		Workers:   cfg.History.Workers,
		QueueSize: cfg.History.QueueSize,
	}, history, logger)
	recorder.Start()

	ytdlp := extractor.NewYTDLP(cfg.Extractor, logger)
	if err := ytdlp.Available(); err != nil {
		logger.Warn("extraction tool unavailable, lookups will fail until installed", "error", err)
	}

	mediaSvc := service.NewMediaService(ytdlp, recorder, cfg, logger)

	// Initialize handlers
	downloadHandler := handler.NewDownloadHandler(mediaSvc, logger)
	toolsHandler := handler.NewToolsHandler(cfg.Formats.MaxResults, logger)
	healthHandler := handler.NewHealthHandler(mediaSvc, ytdlp.Available, dataDir(cfg.History))
	historyHandler := handler.NewHistoryHandler(mediaSvc, logger)

	router := api.NewRouter(
		downloadHandler,
		toolsHandler,
		healthHandler,
		historyHandler,
		cfg,
		logger,
	)

	// Setup HTTP server
	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Info("starting HTTP server",
			"addr", srv.Addr,
			"public_url", cfg.Server.PublicBaseURL(),
			"disabled_platforms", cfg.Platforms.Disabled,
			"admin_api", cfg.Server.APIKey != "",
		)
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Stop accepting new requests
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	// Flush pending history writes
	if err := recorder.Close(); err != nil {
		logger.Error("history shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}

// dataDir is the directory holding the history database, if any.
func dataDir(cfg config.HistoryConfig) string {
	if cfg.SQLitePath == "" {
		return ""
	}
	return filepath.Dir(cfg.SQLitePath)
}

// newHistory opens the SQLite history when a path is configured and falls
// back to an in-memory ring otherwise.
func newHistory(cfg config.HistoryConfig, logger *slog.Logger) (repository.LookupRepository, error) {
	if cfg.SQLitePath == "" {
		logger.Info("lookup history kept in memory", "max_entries", cfg.MaxEntries)
		return repository.NewInMemoryLookupRepository(cfg.MaxEntries), nil
	}

	repo, err := repository.NewSQLiteLookupRepository(cfg.SQLitePath, cfg.MaxEntries)
	if err != nil {
		return nil, err
	}
	logger.Info("lookup history persisted", "path", cfg.SQLitePath, "max_entries", cfg.MaxEntries)
	return repo, nil
}
