package handlers

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"

	"firewatch-worker-go/internal/logging"
	"firewatch-worker-go/internal/models"
)

// AlertActivity answers the recent-activity questions on the stats page
type AlertActivity interface {
	CountActiveSince(ctx context.Context, since time.Time) (int64, error)
	LatestAlert(ctx context.Context, cameraID string) (*models.Alert, error)
}

// WorkerLister lists running detection workers
type WorkerLister interface {
	List() []models.WorkerStatus
	ActiveCount() int
}

// SystemHandler handles system-related endpoints
type SystemHandler struct {
	WorkerID  string
	startTime time.Time
	workers   WorkerLister
	activity  AlertActivity
}

// NewSystemHandler creates a new system handler
func NewSystemHandler(workerID string, workers WorkerLister, activity AlertActivity) *SystemHandler {
	return &SystemHandler{
		WorkerID:  workerID,
		startTime: time.Now(),
		workers:   workers,
		activity:  activity,
	}
}

type HostStats struct {
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryTotal   uint64  `json:"memory_total_bytes"`
	MemoryUsed    uint64  `json:"memory_used_bytes"`
	MemoryPercent float64 `json:"memory_percent"`
	UptimeSeconds uint64  `json:"uptime_seconds"`
}

type RuntimeStats struct {
	GoVersion  string `json:"go_version"`
	Goroutines int    `json:"goroutines"`
	HeapAlloc  uint64 `json:"heap_alloc_bytes"`
	CPUCores   int    `json:"cpu_cores"`
}

type WorkerActivity struct {
	CameraID    string     `json:"camera_id"`
	PID         int        `json:"pid"`
	IsHealthy   bool       `json:"is_healthy"`
	LastAlertAt *time.Time `json:"last_alert_at,omitempty"`
}

type SystemStats struct {
	WorkerID        string           `json:"worker_id"`
	UptimeSeconds   int64            `json:"uptime_seconds"`
	Runtime         RuntimeStats     `json:"runtime"`
	Host            *HostStats       `json:"host,omitempty"`
	ActiveWorkers   int              `json:"active_workers"`
	Workers         []WorkerActivity `json:"workers"`
	ActiveAlerts24h int64            `json:"active_alerts_24h"`
}

// @Summary Get system stats
// @Description Host, runtime and detection activity statistics
// @Tags system
// @Produce json
// @Success 200 {object} Response{data=SystemStats}
// @Router /system/stats [get]
func (h *SystemHandler) GetStats(c *gin.Context) {
	ctx := c.Request.Context()

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	stats := SystemStats{
		WorkerID:      h.WorkerID,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		Runtime: RuntimeStats{
			GoVersion:  runtime.Version(),
			Goroutines: runtime.NumGoroutine(),
			HeapAlloc:  m.HeapAlloc,
			CPUCores:   runtime.NumCPU(),
		},
		Host:    hostStats(c),
		Workers: []WorkerActivity{},
	}

	for _, w := range h.workers.List() {
		wa := WorkerActivity{CameraID: w.CameraID, PID: w.PID, IsHealthy: w.IsHealthy}
		if h.activity != nil {
			if latest, err := h.activity.LatestAlert(ctx, w.CameraID); err == nil && latest != nil {
				ts := latest.AlertTimestamp
				wa.LastAlertAt = &ts
			}
		}
		stats.Workers = append(stats.Workers, wa)
	}
	stats.ActiveWorkers = h.workers.ActiveCount()

	if h.activity != nil {
		n, err := h.activity.CountActiveSince(ctx, time.Now().Add(-24*time.Hour))
		if err != nil {
			respondError(c, err, "Failed to count active alerts")
			return
		}
		stats.ActiveAlerts24h = n
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: stats})
}

// hostStats is best effort; missing values are logged and left out
func hostStats(c *gin.Context) *HostStats {
	var hs HostStats
	vm, err := mem.VirtualMemory()
	if err != nil {
		logging.Debug(c).Err(err).Msg("Memory stats unavailable")
		return nil
	}
	hs.MemoryTotal = vm.Total
	hs.MemoryUsed = vm.Used
	hs.MemoryPercent = vm.UsedPercent

	if pct, err := cpu.Percent(0, false); err == nil && len(pct) > 0 {
		hs.CPUPercent = pct[0]
	}
	if up, err := host.Uptime(); err == nil {
		hs.UptimeSeconds = up
	}
	return &hs
}
