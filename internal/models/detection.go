package models

import (
	"math"
	"time"
)

// WorkerEventType identifies a record on the worker output stream
type WorkerEventType string

const (
	WorkerEventDetection WorkerEventType = "detection"
	WorkerEventHeartbeat WorkerEventType = "heartbeat"
)

// BoundingBox is [x, y, w, h] in the worker's frame coordinates
type BoundingBox [4]float64

// DetectionEvent is a decoded detection record. Confidence is in [0,1].
type DetectionEvent struct {
	Type          WorkerEventType `json:"type"`
	Confidence    float64         `json:"confidence"`
	BoundingBoxes []BoundingBox   `json:"bounding_boxes"`
	SnapshotPath  string          `json:"snapshot_path"`
	FireType      FireType        `json:"fire_type"`
	Timestamp     time.Time       `json:"timestamp"`
	// UserID is the user the worker was started for
	UserID string `json:"user_id,omitempty"`
}

// HeartbeatEvent carries worker liveness data
type HeartbeatEvent struct {
	FramesProcessed int64     `json:"frames_processed"`
	Status          string    `json:"status"`
	Timestamp       time.Time `json:"timestamp"`
}

// WorkerEvent is one decoded line. Exactly one of the payloads is set,
// matching Type.
type WorkerEvent struct {
	Type      WorkerEventType
	Detection *DetectionEvent
	Heartbeat *HeartbeatEvent
}

// WorkerSettings are the per-camera knobs passed to the detection worker
type WorkerSettings struct {
	Sensitivity       int    `json:"sensitivity"`
	MinConfidence     int    `json:"min_confidence"`
	AlertSoundEnabled bool   `json:"alert_sound_enabled"`
	EmailAlertEnabled bool   `json:"email_alert_enabled"`
	UserID            string `json:"user_id,omitempty"`
}

// Validate checks the percentage ranges
func (s WorkerSettings) Validate() error {
	if s.Sensitivity < 0 || s.Sensitivity > 100 {
		return fmtInvalid("sensitivity must be within 0..100")
	}
	if s.MinConfidence < 0 || s.MinConfidence > 100 {
		return fmtInvalid("min_confidence must be within 0..100")
	}
	return nil
}

// Qualifies reports whether a detection meets the min_confidence threshold.
// Both sides are compared in basis points so 0.57 meets 57.
func (s WorkerSettings) Qualifies(ev *DetectionEvent) bool {
	return math.Round(ev.Confidence*1e4) >= float64(s.MinConfidence)*100
}

// WorkerStatus is the externally visible state of a camera's worker
type WorkerStatus struct {
	IsActive            bool            `json:"is_active"`
	CameraID            string          `json:"camera_id"`
	CameraName          string          `json:"camera_name,omitempty"`
	PID                 int             `json:"pid,omitempty"`
	StartTime           *time.Time      `json:"start_time,omitempty"`
	Settings            *WorkerSettings `json:"settings,omitempty"`
	UptimeSeconds       int64           `json:"uptime_seconds,omitempty"`
	LastHeartbeat       *time.Time      `json:"last_heartbeat,omitempty"`
	HeartbeatAgeSeconds int64           `json:"heartbeat_age_seconds,omitempty"`
	IsHealthy           bool            `json:"is_healthy"`
	FramesProcessed     int64           `json:"frames_processed"`
	WorkerState         string          `json:"worker_state,omitempty"`
	RSSBytes            uint64          `json:"rss_bytes,omitempty"`
	CPUPercent          float64         `json:"cpu_percent,omitempty"`
}
