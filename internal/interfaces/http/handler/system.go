package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/huzaifanasir-fabtechsol/backend/internal/interfaces/http/dto"
)

// Pinger checks a backing service
type Pinger interface {
	Ping() error
}

// SystemHandler serves liveness, readiness and build information
type SystemHandler struct {
	BaseHandler
	name      string
	version   string
	db        Pinger
	startTime time.Time
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(name, version string, db Pinger) *SystemHandler {
	return &SystemHandler{
		name:      name,
		version:   version,
		db:        db,
		startTime: time.Now(),
	}
}

// SystemInfoResponse represents the system information response
// @name HandlerSystemInfoResponse
type SystemInfoResponse struct {
	Name      string `json:"name" example:"Trade Books API"`
	Version   string `json:"version" example:"1.0.0"`
	GoVersion string `json:"go_version" example:"go1.25.5"`
	Uptime    string `json:"uptime" example:"1h30m45s"`
}

// HealthResponse reports service health
// @name HandlerHealthResponse
type HealthResponse struct {
	Status  string            `json:"status" example:"ok"`
	Checks  map[string]string `json:"checks,omitempty"`
	Checked string            `json:"checked_at" example:"2026-01-23T12:00:00Z"`
}

// Health godoc
// @ID           health
// @Summary      Liveness probe
// @Tags         system
// @Produce      json
// @Success      200 {object} HealthResponse
// @Router       /health [get]
func (h *SystemHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok", Checked: time.Now().UTC().Format(time.RFC3339)})
}

// Ready godoc
// @ID           ready
// @Summary      Readiness probe
// @Description  Fails with 503 while the database is unreachable
// @Tags         system
// @Produce      json
// @Success      200 {object} HealthResponse
// @Failure      503 {object} HealthResponse
// @Router       /ready [get]
func (h *SystemHandler) Ready(c *gin.Context) {
	resp := HealthResponse{Status: "ok", Checks: map[string]string{}, Checked: time.Now().UTC().Format(time.RFC3339)}
	status := http.StatusOK

	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		errCh := make(chan error, 1)
		go func() { errCh <- h.db.Ping() }()
		select {
		case err := <-errCh:
			if err != nil {
				resp.Checks["database"] = err.Error()
				resp.Status, status = "unavailable", http.StatusServiceUnavailable
			} else {
				resp.Checks["database"] = "ok"
			}
		case <-ctx.Done():
			resp.Checks["database"] = "timeout"
			resp.Status, status = "unavailable", http.StatusServiceUnavailable
		}
	}

	c.JSON(status, resp)
}

// GetSystemInfo godoc
// @ID           getSystemInfo
// @Summary      Get system information
// @Description  Returns basic system information including version and uptime
// @Tags         system
// @Produce      json
// @Success      200 {object} APIResponse[SystemInfoResponse]
// @Router       /api/v1/system/info [get]
func (h *SystemHandler) GetSystemInfo(c *gin.Context) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(SystemInfoResponse{
		Name:      h.name,
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	}))
}
