package models

import (
	"time"
)

// AlertStatus is the lifecycle state of a persisted alert
type AlertStatus string

const (
	AlertStatusActive        AlertStatus = "active"
	AlertStatusResolved      AlertStatus = "resolved"
	AlertStatusFalsePositive AlertStatus = "false_positive"
)

// IsValid checks if the alert status is one of the known states
func (s AlertStatus) IsValid() bool {
	switch s {
	case AlertStatusActive, AlertStatusResolved, AlertStatusFalsePositive:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transition is allowed from s
func (s AlertStatus) IsTerminal() bool {
	return s == AlertStatusResolved || s == AlertStatusFalsePositive
}

// Severity is derived from detection confidence, never supplied by callers
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// SeverityFor maps a confidence in [0,1] to its severity band.
func SeverityFor(confidence float64) Severity {
	switch {
	case confidence >= 0.9:
		return SeverityCritical
	case confidence >= 0.8:
		return SeverityHigh
	case confidence >= 0.7:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// FireType classifies what the worker saw
type FireType string

const (
	FireTypeFlame FireType = "flame"
	FireTypeSmoke FireType = "smoke"
	FireTypeBoth  FireType = "both"
)

// Normalize returns the fire type, defaulting unknown or empty values to flame
func (f FireType) Normalize() FireType {
	switch f {
	case FireTypeFlame, FireTypeSmoke, FireTypeBoth:
		return f
	default:
		return FireTypeFlame
	}
}

// Alert is a persisted record of a qualifying detection
type Alert struct {
	ID             uint64        `json:"id" gorm:"primaryKey;autoIncrement"`
	TenantID       string        `json:"tenant_id" gorm:"size:64;index;not null"`
	BranchID       string        `json:"branch_id" gorm:"size:64;index;not null"`
	CameraID       string        `json:"camera_id" gorm:"size:64;index;not null"`
	UserID         string        `json:"user_id,omitempty" gorm:"size:64"`
	AlertTimestamp time.Time     `json:"alert_timestamp" gorm:"index;not null"`
	Confidence     float64       `json:"confidence" gorm:"not null"`
	Severity       Severity      `json:"severity" gorm:"size:16;not null"`
	FireType       FireType      `json:"fire_type" gorm:"size:16;not null;default:flame"`
	BoundingBoxes  []BoundingBox `json:"bounding_boxes" gorm:"type:text;serializer:json"`
	SnapshotPath   string        `json:"snapshot_path,omitempty" gorm:"size:512"`
	SnapshotURL    string        `json:"snapshot_url,omitempty" gorm:"size:1024"`
	SnapshotBase64 string        `json:"snapshot_base64,omitempty" gorm:"type:longtext"`
	Status         AlertStatus   `json:"status" gorm:"size:16;index;not null;default:active"`
	ResolvedAt     *time.Time    `json:"resolved_at,omitempty"`
	Remarks        string        `json:"remarks,omitempty" gorm:"type:text"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// TableName keeps the table name stable across model renames
func (Alert) TableName() string {
	return "fire_alerts"
}

// AlertSubmission is an alert reported from outside the worker pipeline.
// TenantID and BranchID are trusted only when both are present.
type AlertSubmission struct {
	CameraID      string        `json:"camera_id" binding:"required"`
	TenantID      string        `json:"tenant_id"`
	BranchID      string        `json:"branch_id"`
	UserID        string        `json:"user_id"`
	Confidence    float64       `json:"confidence"`
	BoundingBoxes []BoundingBox `json:"bounding_boxes"`
	SnapshotPath  string        `json:"snapshot_path"`
	// SnapshotBase64 is an inline JPEG, optionally as a data URI
	SnapshotBase64 string     `json:"snapshot_base64"`
	FireType       FireType   `json:"fire_type"`
	Timestamp      *time.Time `json:"timestamp,omitempty"`
}

// StatusUpdate describes a guarded status change. The update applies only
// while the stored status still equals From.
type StatusUpdate struct {
	ID         uint64
	From       AlertStatus
	To         AlertStatus
	ResolvedAt time.Time
	Remarks    string
}

// AlertFilter selects alerts for listing, stats and analytics.
// Zero values mean "no constraint".
type AlertFilter struct {
	CameraID string
	TenantID string
	BranchID string
	Statuses []AlertStatus
	From     time.Time
	To       time.Time
	Limit    int
	Page     int
}

const (
	DefaultPageLimit = 50
	MaxPageLimit     = 500
)

// Normalize clamps paging values into their allowed ranges
func (f AlertFilter) Normalize() AlertFilter {
	if f.Limit <= 0 {
		f.Limit = DefaultPageLimit
	}
	if f.Limit > MaxPageLimit {
		f.Limit = MaxPageLimit
	}
	if f.Page <= 0 {
		f.Page = 1
	}
	return f
}

// Offset returns the row offset of the filter's page
func (f AlertFilter) Offset() int {
	n := f.Normalize()
	return (n.Page - 1) * n.Limit
}

// AlertPage is one page of alerts, newest first
type AlertPage struct {
	Alerts     []Alert `json:"alerts"`
	Total      int64   `json:"total"`
	Page       int     `json:"page"`
	TotalPages int     `json:"total_pages"`
}

// AlertStats summarizes alerts matched by a filter
type AlertStats struct {
	TotalAlerts    int64   `json:"total_alerts"`
	ActiveAlerts   int64   `json:"active_alerts"`
	FalsePositives int64   `json:"false_positives"`
	AvgConfidence  float64 `json:"avg_confidence"` // percent
}

// Granularity is the analytics bucket width
type Granularity string

const (
	GranularityHour Granularity = "hour"
	GranularityDay  Granularity = "day"
	GranularityWeek Granularity = "week"
)

// IsValid checks if the granularity is supported
func (g Granularity) IsValid() bool {
	switch g {
	case GranularityHour, GranularityDay, GranularityWeek:
		return true
	default:
		return false
	}
}

// AnalyticsBucket aggregates the alerts of one time period
type AnalyticsBucket struct {
	TimePeriod       string  `json:"time_period"`
	AlertCount       int     `json:"alert_count"`
	FalseAlertCount  int     `json:"false_alert_count"`
	ActiveAlertCount int     `json:"active_alert_count"`
	AvgConfidence    float64 `json:"avg_confidence"` // percent
}
