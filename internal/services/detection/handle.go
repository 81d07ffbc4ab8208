package detection

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"firewatch-worker-go/internal/models"
)

// workerHandle is the registry's record of one live worker. Its identity
// (pointer) is what exit reconciliation compares against.
type workerHandle struct {
	cameraID  string
	camera    models.CameraContext
	process   Process
	startTime time.Time
	settings  models.WorkerSettings
	logger    zerolog.Logger

	// set once the registry has let go of the handle on purpose
	stopping atomic.Bool
	// closed after the process exited and the slot was reconciled
	done chan struct{}

	mu              sync.Mutex
	lastHeartbeat   time.Time
	framesProcessed int64
	workerState     string
}

func newWorkerHandle(camera models.CameraContext, proc Process, settings models.WorkerSettings, now time.Time, logger zerolog.Logger) *workerHandle {
	return &workerHandle{
		cameraID:      camera.CameraID,
		camera:        camera,
		process:       proc,
		startTime:     now,
		settings:      settings,
		logger:        logger,
		done:          make(chan struct{}),
		lastHeartbeat: now,
		workerState:   "starting",
	}
}

func (h *workerHandle) recordHeartbeat(at time.Time, frames int64, state string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if at.After(h.lastHeartbeat) {
		h.lastHeartbeat = at
	}
	if frames > h.framesProcessed {
		h.framesProcessed = frames
	}
	if state != "" {
		h.workerState = state
	} else {
		h.workerState = "running"
	}
}

func (h *workerHandle) status(now time.Time, staleAfter time.Duration) models.WorkerStatus {
	h.mu.Lock()
	last := h.lastHeartbeat
	frames := h.framesProcessed
	state := h.workerState
	h.mu.Unlock()

	start := h.startTime
	settings := h.settings
	age := now.Sub(last)

	return models.WorkerStatus{
		IsActive:            true,
		CameraID:            h.cameraID,
		CameraName:          h.camera.Name,
		PID:                 h.process.PID(),
		StartTime:           &start,
		Settings:            &settings,
		UptimeSeconds:       int64(now.Sub(start).Seconds()),
		LastHeartbeat:       &last,
		HeartbeatAgeSeconds: int64(age.Seconds()),
		IsHealthy:           age < staleAfter,
		FramesProcessed:     frames,
		WorkerState:         state,
	}
}
