package handler

import (
	"runtime"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/unistore/backend/internal/domain/source"
)

// SystemHandler handles system-related API endpoints
type SystemHandler struct {
	BaseHandler
	reader    CatalogBrowser
	startTime time.Time
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(reader CatalogBrowser) *SystemHandler {
	return &SystemHandler{
		reader:    reader,
		startTime: time.Now(),
	}
}

// SourceStatus reports whether one catalog source has a live connection.
type SourceStatus struct {
	ID        string `json:"id"`
	Connected bool   `json:"connected"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string         `json:"status"`
	Timestamp string         `json:"timestamp"`
	GoVersion string         `json:"go_version"`
	Uptime    string         `json:"uptime"`
	Sources   []SourceStatus `json:"sources"`
}

// Health reports gateway liveness and per-source connectivity. The
// gateway stays healthy with degraded sources; clients decide how to
// surface partial connectivity.
func (h *SystemHandler) Health(c *gin.Context) {
	connected := make(map[source.ID]bool, 3)
	for _, src := range h.reader.Sources() {
		connected[src] = true
	}

	statuses := make([]SourceStatus, 0, len(source.All()))
	for _, src := range source.All() {
		statuses = append(statuses, SourceStatus{
			ID:        src.String(),
			Connected: connected[src],
		})
	}

	h.Success(c, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Sources:   statuses,
	})
}

// RegisterRoutes registers system routes
func (h *SystemHandler) RegisterRoutes(rg *gin.RouterGroup) {
	system := rg.Group("/system")
	{
		system.GET("/health", h.Health)
	}
}
