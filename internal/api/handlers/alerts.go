package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"firewatch-worker-go/internal/logging"
	"firewatch-worker-go/internal/models"
	"firewatch-worker-go/internal/services/analytics"
)

// AlertService is the alert ingestion and lifecycle surface
type AlertService interface {
	Submit(ctx context.Context, sub models.AlertSubmission) (*models.Alert, error)
	Get(ctx context.Context, id uint64) (*models.Alert, error)
	List(ctx context.Context, f models.AlertFilter) (models.AlertPage, error)
	Stats(ctx context.Context, f models.AlertFilter) (models.AlertStats, error)
	Resolve(ctx context.Context, id uint64, notes string) (*models.Alert, error)
	MarkFalsePositive(ctx context.Context, id uint64, reason string) (*models.Alert, error)
}

// AnalyticsReporter buckets alert history for a date window
type AnalyticsReporter interface {
	Report(ctx context.Context, date string, days int, g models.Granularity) (analytics.Result, error)
}

type AlertHandler struct {
	alerts    AlertService
	analytics AnalyticsReporter
	loc       *time.Location
}

func NewAlertHandler(alerts AlertService, reporter AnalyticsReporter, loc *time.Location) *AlertHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &AlertHandler{alerts: alerts, analytics: reporter, loc: loc}
}

type SubmitAlertRequest struct {
	CameraID       FlexibleID           `json:"camera_id" swaggertype:"string" example:"12"`
	TenantID       string               `json:"tenant_id"`
	BranchID       string               `json:"branch_id"`
	UserID         FlexibleID           `json:"user_id" swaggertype:"string"`
	Confidence     *float64             `json:"confidence" example:"0.87"`
	BoundingBoxes  []models.BoundingBox `json:"bounding_boxes" swaggertype:"array,number"`
	SnapshotPath   string               `json:"snapshot_path"`
	SnapshotBase64 string               `json:"snapshot_base64"`
	FireType       models.FireType      `json:"fire_type" example:"flame"`
	Timestamp      *time.Time           `json:"timestamp,omitempty"`
}

type ResolveRequest struct {
	Notes string `json:"notes" example:"Extinguished by staff"`
}

type FalsePositiveRequest struct {
	Reason string `json:"reason" example:"Sunlight reflection"`
}

type Pagination struct {
	Page       int   `json:"page"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

type AlertListResponse struct {
	Success    bool           `json:"success"`
	Data       []models.Alert `json:"data"`
	Pagination Pagination     `json:"pagination"`
}

type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type AnalyticsResponse struct {
	Success   bool                     `json:"success"`
	Data      []models.AnalyticsBucket `json:"data"`
	DateRange DateRange                `json:"date_range"`
	GroupBy   models.Granularity       `json:"group_by"`
}

// SubmitAlert godoc
// @Summary Submit a fire alert
// @Description Persist an alert reported outside the worker stdout pipeline
// @Tags alerts
// @Accept json
// @Produce json
// @Param request body SubmitAlertRequest true "Alert"
// @Success 200 {object} Response{data=models.Alert}
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /api/fire-detection/alert [post]
func (h *AlertHandler) SubmitAlert(c *gin.Context) {
	var req SubmitAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}
	if req.Confidence == nil {
		respondError(c, invalid("confidence is required"), "Failed to save fire alert")
		return
	}

	alert, err := h.alerts.Submit(c.Request.Context(), models.AlertSubmission{
		CameraID:       string(req.CameraID),
		TenantID:       req.TenantID,
		BranchID:       req.BranchID,
		UserID:         string(req.UserID),
		Confidence:     *req.Confidence,
		BoundingBoxes:  req.BoundingBoxes,
		SnapshotPath:   req.SnapshotPath,
		SnapshotBase64: req.SnapshotBase64,
		FireType:       req.FireType,
		Timestamp:      req.Timestamp,
	})
	if err != nil {
		respondError(c, err, "Failed to save fire alert")
		return
	}

	logging.Info(c).
		Uint64("alert_id", alert.ID).
		Str("camera_id", alert.CameraID).
		Str("severity", string(alert.Severity)).
		Msg("Fire alert received")
	respondOK(c, "Alert saved successfully", alert)
}

// ListAlerts godoc
// @Summary List fire alerts
// @Description Newest first. status accepts a comma separated list.
// @Tags alerts
// @Produce json
// @Param camera_id query string false "Camera ID"
// @Param tenant_id query string false "Tenant ID"
// @Param branch_id query string false "Branch ID"
// @Param status query string false "active,resolved,false_positive"
// @Param from_date query string false "RFC3339 or YYYY-MM-DD"
// @Param to_date query string false "RFC3339 or YYYY-MM-DD (inclusive)"
// @Param page query int false "Page, 1-based"
// @Param limit query int false "Page size"
// @Success 200 {object} AlertListResponse
// @Failure 400 {object} ErrorResponse
// @Router /api/fire-detection [get]
func (h *AlertHandler) ListAlerts(c *gin.Context) {
	f, err := h.filterFrom(c)
	if err != nil {
		respondError(c, err, "Invalid alert filter")
		return
	}

	page, err := h.alerts.List(c.Request.Context(), f)
	if err != nil {
		respondError(c, err, "Failed to list alerts")
		return
	}

	c.JSON(http.StatusOK, AlertListResponse{
		Success: true,
		Data:    page.Alerts,
		Pagination: Pagination{
			Page:       page.Page,
			Total:      page.Total,
			TotalPages: page.TotalPages,
		},
	})
}

// GetStats godoc
// @Summary Alert statistics
// @Tags alerts
// @Produce json
// @Param camera_id query string false "Camera ID"
// @Param tenant_id query string false "Tenant ID"
// @Param branch_id query string false "Branch ID"
// @Param from_date query string false "RFC3339 or YYYY-MM-DD"
// @Param to_date query string false "RFC3339 or YYYY-MM-DD (inclusive)"
// @Success 200 {object} Response{data=models.AlertStats}
// @Failure 400 {object} ErrorResponse
// @Router /api/fire-detection/stats [get]
func (h *AlertHandler) GetStats(c *gin.Context) {
	f, err := h.filterFrom(c)
	if err != nil {
		respondError(c, err, "Invalid alert filter")
		return
	}

	stats, err := h.alerts.Stats(c.Request.Context(), f)
	if err != nil {
		respondError(c, err, "Failed to compute alert stats")
		return
	}
	respondOK(c, "", stats)
}

// GetAnalytics godoc
// @Summary Alert analytics
// @Description Alerts bucketed by hour of day, day or ISO week. Only non-empty buckets are returned.
// @Tags alerts
// @Produce json
// @Param date query string false "Single day, YYYY-MM-DD"
// @Param days query int false "Trailing window in days when date is absent" default(1)
// @Param group_by query string false "hour, day or week" default(hour)
// @Success 200 {object} AnalyticsResponse
// @Failure 400 {object} ErrorResponse
// @Router /api/fire-detection/analytics/hourly [get]
func (h *AlertHandler) GetAnalytics(c *gin.Context) {
	days := 1
	if raw := c.Query("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			badRequest(c, "days must be an integer")
			return
		}
		days = n
	}
	groupBy := models.Granularity(c.DefaultQuery("group_by", string(models.GranularityHour)))

	res, err := h.analytics.Report(c.Request.Context(), c.Query("date"), days, groupBy)
	if err != nil {
		respondError(c, err, "Failed to generate analytics")
		return
	}

	c.JSON(http.StatusOK, AnalyticsResponse{
		Success:   true,
		Data:      res.Buckets,
		DateRange: DateRange{Start: res.Start, End: res.End},
		GroupBy:   res.Granularity,
	})
}

// GetAlert godoc
// @Summary Alert details
// @Tags alerts
// @Produce json
// @Param alertId path int true "Alert ID"
// @Success 200 {object} Response{data=models.Alert}
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/fire-detection/{alertId} [get]
func (h *AlertHandler) GetAlert(c *gin.Context) {
	id, ok := alertID(c)
	if !ok {
		return
	}
	alert, err := h.alerts.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Failed to load alert")
		return
	}
	respondOK(c, "", alert)
}

// ResolveAlert godoc
// @Summary Resolve an alert
// @Description Close an active alert as handled. Closed alerts cannot change again.
// @Tags alerts
// @Accept json
// @Produce json
// @Param alertId path int true "Alert ID"
// @Param request body ResolveRequest false "Notes"
// @Success 200 {object} Response{data=models.Alert}
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/fire-detection/{alertId}/resolve [post]
func (h *AlertHandler) ResolveAlert(c *gin.Context) {
	id, ok := alertID(c)
	if !ok {
		return
	}
	var req ResolveRequest
	if !bindOptional(c, &req) {
		return
	}

	alert, err := h.alerts.Resolve(c.Request.Context(), id, req.Notes)
	if err != nil {
		respondError(c, err, "Failed to resolve alert")
		return
	}
	respondOK(c, "Alert resolved successfully", alert)
}

// MarkFalsePositive godoc
// @Summary Mark an alert as false positive
// @Tags alerts
// @Accept json
// @Produce json
// @Param alertId path int true "Alert ID"
// @Param request body FalsePositiveRequest false "Reason"
// @Success 200 {object} Response{data=models.Alert}
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/fire-detection/{alertId}/false-positive [post]
func (h *AlertHandler) MarkFalsePositive(c *gin.Context) {
	id, ok := alertID(c)
	if !ok {
		return
	}
	var req FalsePositiveRequest
	if !bindOptional(c, &req) {
		return
	}

	alert, err := h.alerts.MarkFalsePositive(c.Request.Context(), id, req.Reason)
	if err != nil {
		respondError(c, err, "Failed to mark alert as false positive")
		return
	}
	respondOK(c, "Alert marked as false positive", alert)
}

func alertID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("alertId"), 10, 64)
	if err != nil || id == 0 {
		badRequest(c, "alertId must be a positive integer")
		return 0, false
	}
	return id, true
}

// bindOptional binds a JSON body if one was sent. An empty body, including
// an empty chunked one, leaves v untouched.
func bindOptional(c *gin.Context, v interface{}) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(v); err != nil {
		if errors.Is(err, io.EOF) {
			return true
		}
		badRequest(c, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func (h *AlertHandler) filterFrom(c *gin.Context) (models.AlertFilter, error) {
	f := models.AlertFilter{
		CameraID: c.Query("camera_id"),
		TenantID: c.Query("tenant_id"),
		BranchID: c.Query("branch_id"),
	}

	if raw := c.Query("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			if s = strings.TrimSpace(s); s != "" {
				f.Statuses = append(f.Statuses, models.AlertStatus(s))
			}
		}
	}

	var err error
	if f.From, err = parseDate(c.Query("from_date"), h.loc, false); err != nil {
		return f, err
	}
	if f.To, err = parseDate(c.Query("to_date"), h.loc, true); err != nil {
		return f, err
	}
	if f.Page, err = queryInt(c, "page"); err != nil {
		return f, err
	}
	if f.Limit, err = queryInt(c, "limit"); err != nil {
		return f, err
	}
	return f, nil
}

func queryInt(c *gin.Context, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, invalid(key + " must be an integer")
	}
	return n, nil
}

// parseDate accepts RFC3339 or a bare date. A bare date used as an upper
// bound covers the whole day.
func parseDate(raw string, loc *time.Location, endOfDay bool) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	day, err := time.ParseInLocation("2006-01-02", raw, loc)
	if err != nil {
		return time.Time{}, invalid("dates must be RFC3339 or YYYY-MM-DD")
	}
	if endOfDay {
		return day.AddDate(0, 0, 1).Add(-time.Nanosecond), nil
	}
	return day, nil
}
