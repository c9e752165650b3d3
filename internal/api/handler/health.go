package handler

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"runtime"
	"time"

	"github.com/iconidentify/mediakit/internal/repository"
	"github.com/iconidentify/mediakit/internal/service"
)

var startTime = time.Now()

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	mediaSvc  *service.MediaService
	toolCheck func() error
	dataDir   string
}

// NewHealthHandler creates a new health handler. toolCheck reports whether
// the extraction tool is installed; nil skips that check. dataDir is the
// directory whose filesystem usage is reported by Stats; empty omits it.
func NewHealthHandler(mediaSvc *service.MediaService, toolCheck func() error, dataDir string) *HealthHandler {
	return &HealthHandler{
		mediaSvc:  mediaSvc,
		toolCheck: toolCheck,
		dataDir:   dataDir,
	}
}

// HealthResponse is the JSON response for health checks.
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// Live handles GET /health - liveness probe.
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// Ready handles GET /ready - readiness probe.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := map[string]string{"history": "ok", "extractor": "ok"}
	healthy := true

	if err := h.mediaSvc.Ping(ctx); err != nil {
		checks["history"] = err.Error()
		healthy = false
	}
	if h.toolCheck != nil {
		if err := h.toolCheck(); err != nil {
			checks["extractor"] = err.Error()
			healthy = false
		}
	}

	status, code := "ok", http.StatusOK
	if !healthy {
		status, code = "error", http.StatusServiceUnavailable
	}

	writeJSON(w, code, HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	})
}

// SystemStats contains runtime and lookup statistics.
type SystemStats struct {
	Uptime        int64                   `json:"uptime_seconds"`
	UptimeHuman   string                  `json:"uptime_human"`
	MemAllocMB    int64                   `json:"mem_alloc_mb"`
	MemSysMB      int64                   `json:"mem_sys_mb"`
	MemHeapMB     int64                   `json:"mem_heap_mb"`
	NumGoroutines int                     `json:"num_goroutines"`
	NumCPU        int                     `json:"num_cpu"`
	Lookups       *repository.LookupStats `json:"lookups,omitempty"`
	Disk          *DiskStats              `json:"disk,omitempty"`
}

// DiskStats describes the filesystem holding the history database.
type DiskStats struct {
	Path        string  `json:"path"`
	TotalGB     float64 `json:"total_gb"`
	FreeGB      float64 `json:"free_gb"`
	UsedPercent float64 `json:"used_percent"`
}

// Stats handles GET /api/v1/stats - system statistics.
func (h *HealthHandler) Stats(w http.ResponseWriter, r *http.Request) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	uptime := time.Since(startTime)

	stats := SystemStats{
		Uptime:        int64(uptime.Seconds()),
		UptimeHuman:   formatUptime(uptime),
		MemAllocMB:    int64(m.Alloc / 1024 / 1024),
		MemSysMB:      int64(m.Sys / 1024 / 1024),
		MemHeapMB:     int64(m.HeapAlloc / 1024 / 1024),
		NumGoroutines: runtime.NumGoroutine(),
		NumCPU:        runtime.NumCPU(),
	}

	lookups, err := h.mediaSvc.Stats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read lookup stats")
		return
	}
	stats.Lookups = lookups

	if h.dataDir != "" {
		if total, free, err := diskUsage(h.dataDir); err == nil && total > 0 {
			stats.Disk = &DiskStats{
				Path:        h.dataDir,
				TotalGB:     gigabytes(total),
				FreeGB:      gigabytes(free),
				UsedPercent: math.Round(float64(total-free)/float64(total)*1000) / 10,
			}
		}
	}

	writeJSON(w, http.StatusOK, stats)
}

func gigabytes(b uint64) float64 {
	return math.Round(float64(b)/(1<<30)*100) / 100
}

func formatUptime(d time.Duration) string {
	days := int(d.Hours() / 24)
	hours := int(d.Hours()) % 24
	mins := int(d.Minutes()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm", days, hours, mins)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, mins)
	}
	return fmt.Sprintf("%dm", mins)
}
