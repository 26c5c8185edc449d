package handler

import (
	"net/http"
	"runtime"
	"time"

	"github.com/clinic/backend/internal/infrastructure/persistence"
	"github.com/clinic/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// SystemHandler handles system-related API endpoints
type SystemHandler struct {
	BaseHandler
	startTime time.Time
	dbPing    func() error
	dbStats   func() (persistence.ConnectionStats, error)
}

// NewSystemHandler creates a new SystemHandler. dbPing and dbStats may be nil
// when no database health check is wired.
func NewSystemHandler(dbPing func() error, dbStats func() (persistence.ConnectionStats, error)) *SystemHandler {
	return &SystemHandler{
		startTime: time.Now(),
		dbPing:    dbPing,
		dbStats:   dbStats,
	}
}

// SystemInfoResponse represents the system information response
type SystemInfoResponse struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
	Uptime    string `json:"uptime"`
}

// GetSystemInfo returns basic system information including version and uptime
func (h *SystemHandler) GetSystemInfo(c *gin.Context) {
	info := SystemInfoResponse{
		Name:      "Clinic Backend API",
		Version:   "1.0.0",
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	}

	c.JSON(http.StatusOK, dto.NewSuccessResponse(info))
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database,omitempty"`
}

// Healthz reports process and database health
func (h *SystemHandler) Healthz(c *gin.Context) {
	resp := HealthResponse{Status: "ok"}

	if h.dbPing != nil {
		if err := h.dbPing(); err != nil {
			resp.Status = "degraded"
			resp.Database = "unreachable"
			c.JSON(http.StatusServiceUnavailable, resp)
			return
		}
		resp.Database = "ok"
	}

	c.JSON(http.StatusOK, resp)
}

// GetDBStats exposes connection pool statistics for operational debugging
func (h *SystemHandler) GetDBStats(c *gin.Context) {
	if h.dbStats == nil {
		h.NotFound(c, "Database statistics are not available")
		return
	}
	stats, err := h.dbStats()
	if err != nil {
		h.InternalError(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(stats))
}

// PingResponse represents the ping response
type PingResponse struct {
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// Ping is a simple liveness endpoint
func (h *SystemHandler) Ping(c *gin.Context) {
	response := PingResponse{
		Message:   "pong",
		Timestamp: time.Now().Format(time.RFC3339),
	}

	c.JSON(http.StatusOK, dto.NewSuccessResponse(response))
}
