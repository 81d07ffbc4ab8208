package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Check tests one dependency. A nil error means healthy.
type Check struct {
	Name string
	Run  func(ctx context.Context) error
}

type HealthHandler struct {
	WorkerID string
	Version  string
	checks   []Check
}

func NewHealthHandler(workerID, version string, checks ...Check) *HealthHandler {
	return &HealthHandler{WorkerID: workerID, Version: version, checks: checks}
}

type HealthResponse struct {
	Status   string            `json:"status" example:"healthy"`
	WorkerID string            `json:"worker_id" example:"firewatch-1"`
	Checks   map[string]string `json:"checks,omitempty"`
}

type WorkerInfoResponse struct {
	WorkerID     string   `json:"worker_id" example:"firewatch-1"`
	Status       string   `json:"status" example:"running"`
	Version      string   `json:"version" example:"1.0.0"`
	Capabilities []string `json:"capabilities"`
}

// @Summary Health check
// @Description Check the worker and its dependencies. Returns 503 when any check fails.
// @Tags health
// @Accept json
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	resp := HealthResponse{Status: "healthy", WorkerID: h.WorkerID}
	code := http.StatusOK
	if len(h.checks) > 0 {
		resp.Checks = make(map[string]string, len(h.checks))
	}
	for _, check := range h.checks {
		if err := check.Run(ctx); err != nil {
			resp.Checks[check.Name] = err.Error()
			resp.Status = "degraded"
			code = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[check.Name] = "ok"
	}
	c.JSON(code, resp)
}

// @Summary Worker information
// @Description Get basic worker information and capabilities
// @Tags health
// @Accept json
// @Produce json
// @Success 200 {object} WorkerInfoResponse
// @Router / [get]
func (h *HealthHandler) WorkerInfo(c *gin.Context) {
	c.JSON(http.StatusOK, WorkerInfoResponse{
		WorkerID: h.WorkerID,
		Status:   "running",
		Version:  h.Version,
		Capabilities: []string{
			"fire_detection",
			"alert_lifecycle",
			"alert_analytics",
		},
	})
}
