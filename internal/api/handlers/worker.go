package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/gin-gonic/gin"

	"firewatch-worker-go/internal/logging"
	"firewatch-worker-go/internal/models"
)

// WorkerSupervisor owns the detection workers
type WorkerSupervisor interface {
	Start(ctx context.Context, cameraID string, settings models.WorkerSettings) (models.WorkerStatus, error)
	Stop(cameraID string) error
	Status(cameraID string) models.WorkerStatus
	List() []models.WorkerStatus
	RecordHeartbeat(cameraID string, framesProcessed int64, state string) error
}

// FlexibleID accepts an id sent either as a JSON string or a number
type FlexibleID string

func (id *FlexibleID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = FlexibleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id must be a string or number")
	}
	*id = FlexibleID(n.String())
	return nil
}

type StartRequest struct {
	CameraID          FlexibleID `json:"camera_id" swaggertype:"string" example:"12"`
	UserID            FlexibleID `json:"user_id,omitempty" swaggertype:"string" example:"7"`
	Sensitivity       *int       `json:"sensitivity,omitempty" example:"60"`
	MinConfidence     *int       `json:"min_confidence,omitempty" example:"70"`
	AlertSoundEnabled *bool      `json:"alert_sound_enabled,omitempty"`
	EmailAlertEnabled bool       `json:"email_alert_enabled,omitempty"`
}

type HeartbeatRequest struct {
	CameraID        FlexibleID `json:"camera_id" swaggertype:"string" example:"12"`
	FramesProcessed int64      `json:"frames_processed" example:"1200"`
	Status          string     `json:"status" example:"running"`
}

type WorkerHandler struct {
	supervisor WorkerSupervisor
	defaults   models.WorkerSettings
}

func NewWorkerHandler(supervisor WorkerSupervisor, defaults models.WorkerSettings) *WorkerHandler {
	return &WorkerHandler{supervisor: supervisor, defaults: defaults}
}

func (h *WorkerHandler) settingsFrom(req StartRequest) models.WorkerSettings {
	s := h.defaults
	if req.Sensitivity != nil {
		s.Sensitivity = *req.Sensitivity
	}
	if req.MinConfidence != nil {
		s.MinConfidence = *req.MinConfidence
	}
	if req.AlertSoundEnabled != nil {
		s.AlertSoundEnabled = *req.AlertSoundEnabled
	}
	s.EmailAlertEnabled = req.EmailAlertEnabled
	s.UserID = string(req.UserID)
	return s
}

// StartDetection godoc
// @Summary Start fire detection
// @Description Spawn a detection worker for a camera. Returns once the process is running.
// @Tags detection
// @Accept json
// @Produce json
// @Param request body StartRequest true "Camera and detection settings"
// @Success 200 {object} Response{data=models.WorkerStatus}
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/fire-detection/start [post]
func (h *WorkerHandler) StartDetection(c *gin.Context) {
	var req StartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}
	if req.CameraID == "" {
		badRequest(c, "camera_id is required")
		return
	}

	status, err := h.supervisor.Start(c.Request.Context(), string(req.CameraID), h.settingsFrom(req))
	if err != nil {
		respondError(c, err, "Failed to start fire detection")
		return
	}

	logging.Info(c).Str("camera_id", status.CameraID).Int("pid", status.PID).Msg("Fire detection started")
	respondOK(c, "Fire detection started", status)
}

// StopDetection godoc
// @Summary Stop fire detection
// @Description Remove the camera's worker and signal it to exit
// @Tags detection
// @Produce json
// @Param cameraId path string true "Camera ID"
// @Success 200 {object} Response
// @Failure 404 {object} ErrorResponse
// @Router /api/fire-detection/stop/{cameraId} [post]
func (h *WorkerHandler) StopDetection(c *gin.Context) {
	cameraID := c.Param("cameraId")
	if err := h.supervisor.Stop(cameraID); err != nil {
		respondError(c, err, "Failed to stop fire detection")
		return
	}
	logging.Info(c).Msg("Fire detection stopped")
	respondOK(c, "Fire detection stopped", gin.H{"camera_id": cameraID})
}

// GetStatus godoc
// @Summary Detection status
// @Description Worker status for a camera. is_active is false when no worker runs.
// @Tags detection
// @Produce json
// @Param cameraId path string true "Camera ID"
// @Success 200 {object} Response{data=models.WorkerStatus}
// @Router /api/fire-detection/status/{cameraId} [get]
func (h *WorkerHandler) GetStatus(c *gin.Context) {
	respondOK(c, "", h.supervisor.Status(c.Param("cameraId")))
}

// ListWorkers godoc
// @Summary List detection workers
// @Tags detection
// @Produce json
// @Success 200 {object} Response{data=[]models.WorkerStatus}
// @Router /api/fire-detection/workers [get]
func (h *WorkerHandler) ListWorkers(c *gin.Context) {
	respondOK(c, "", h.supervisor.List())
}

// Heartbeat godoc
// @Summary Worker heartbeat
// @Description Liveness report from a detection worker
// @Tags detection
// @Accept json
// @Produce json
// @Param request body HeartbeatRequest true "Heartbeat"
// @Success 200 {object} Response
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/fire-detection/heartbeat [post]
func (h *WorkerHandler) Heartbeat(c *gin.Context) {
	var req HeartbeatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}
	if req.CameraID == "" {
		badRequest(c, "camera_id is required")
		return
	}
	if err := h.supervisor.RecordHeartbeat(string(req.CameraID), req.FramesProcessed, req.Status); err != nil {
		respondError(c, err, "Heartbeat for unknown worker")
		return
	}
	respondOK(c, "", nil)
}
