package storage

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"gorm.io/gorm"

	"firewatch-worker-go/internal/models"
)

func persistenceError(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", models.ErrPersistence, op, err)
}

// CreateAlert inserts the alert and fills in its id
func (s *Store) CreateAlert(ctx context.Context, alert *models.Alert) error {
	alert.AlertTimestamp = alert.AlertTimestamp.UTC()
	if err := s.db.WithContext(ctx).Create(alert).Error; err != nil {
		return persistenceError("create alert", err)
	}
	return nil
}

// GetAlert loads one alert by id
func (s *Store) GetAlert(ctx context.Context, id uint64) (*models.Alert, error) {
	var alert models.Alert
	err := s.db.WithContext(ctx).First(&alert, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: alert %d", models.ErrNotFound, id)
	}
	if err != nil {
		return nil, persistenceError("get alert", err)
	}
	return &alert, nil
}

// UpdateAlertStatus applies u only while the stored status equals u.From.
// The guard and the write are one statement, so concurrent transitions on
// the same alert cannot both succeed.
func (s *Store) UpdateAlertStatus(ctx context.Context, u models.StatusUpdate) (*models.Alert, error) {
	resolvedAt := u.ResolvedAt.UTC()
	res := s.db.WithContext(ctx).
		Model(&models.Alert{}).
		Where("id = ? AND status = ?", u.ID, u.From).
		Updates(map[string]interface{}{
			"status":      u.To,
			"resolved_at": resolvedAt,
			"remarks":     u.Remarks,
		})
	if res.Error != nil {
		return nil, persistenceError("update alert status", res.Error)
	}

	alert, err := s.GetAlert(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: alert %d is %s", models.ErrInvalidTransition, u.ID, alert.Status)
	}
	return alert, nil
}

func applyFilter(q *gorm.DB, f models.AlertFilter) *gorm.DB {
	if f.CameraID != "" {
		q = q.Where("camera_id = ?", f.CameraID)
	}
	if f.TenantID != "" {
		q = q.Where("tenant_id = ?", f.TenantID)
	}
	if f.BranchID != "" {
		q = q.Where("branch_id = ?", f.BranchID)
	}
	if len(f.Statuses) > 0 {
		q = q.Where("status IN ?", f.Statuses)
	}
	if !f.From.IsZero() {
		q = q.Where("alert_timestamp >= ?", f.From.UTC())
	}
	if !f.To.IsZero() {
		q = q.Where("alert_timestamp <= ?", f.To.UTC())
	}
	return q
}

// QueryAlerts returns every alert matching f in timestamp order, ignoring paging
func (s *Store) QueryAlerts(ctx context.Context, f models.AlertFilter) ([]models.Alert, error) {
	var alerts []models.Alert
	q := applyFilter(s.db.WithContext(ctx).Model(&models.Alert{}), f)
	if err := q.Order("alert_timestamp ASC, id ASC").Find(&alerts).Error; err != nil {
		return nil, persistenceError("query alerts", err)
	}
	return alerts, nil
}

// ListAlerts returns one page of alerts matching f, newest first
func (s *Store) ListAlerts(ctx context.Context, f models.AlertFilter) (models.AlertPage, error) {
	f = f.Normalize()

	var total int64
	if err := applyFilter(s.db.WithContext(ctx).Model(&models.Alert{}), f).Count(&total).Error; err != nil {
		return models.AlertPage{}, persistenceError("count alerts", err)
	}

	alerts := make([]models.Alert, 0, f.Limit)
	err := applyFilter(s.db.WithContext(ctx).Model(&models.Alert{}), f).
		Order("alert_timestamp DESC, id DESC").
		Limit(f.Limit).
		Offset(f.Offset()).
		Find(&alerts).Error
	if err != nil {
		return models.AlertPage{}, persistenceError("list alerts", err)
	}

	return models.AlertPage{
		Alerts:     alerts,
		Total:      total,
		Page:       f.Page,
		TotalPages: int(math.Ceil(float64(total) / float64(f.Limit))),
	}, nil
}

// AlertStats aggregates counts and mean confidence over f
func (s *Store) AlertStats(ctx context.Context, f models.AlertFilter) (models.AlertStats, error) {
	var row struct {
		Total          int64
		Active         int64
		FalsePositives int64
		AvgConfidence  float64
	}

	err := applyFilter(s.db.WithContext(ctx).Model(&models.Alert{}), f).
		Select(
			"COUNT(*) AS total, "+
				"COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS active, "+
				"COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS false_positives, "+
				"COALESCE(AVG(confidence), 0) AS avg_confidence",
			models.AlertStatusActive, models.AlertStatusFalsePositive,
		).
		Scan(&row).Error
	if err != nil {
		return models.AlertStats{}, persistenceError("alert stats", err)
	}

	return models.AlertStats{
		TotalAlerts:    row.Total,
		ActiveAlerts:   row.Active,
		FalsePositives: row.FalsePositives,
		AvgConfidence:  round2(row.AvgConfidence * 100),
	}, nil
}

// LatestAlert returns the newest alert of a camera, nil if there is none
func (s *Store) LatestAlert(ctx context.Context, cameraID string) (*models.Alert, error) {
	var alert models.Alert
	err := s.db.WithContext(ctx).
		Where("camera_id = ?", cameraID).
		Order("alert_timestamp DESC, id DESC").
		Take(&alert).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, persistenceError("latest alert", err)
	}
	return &alert, nil
}

// CountActiveSince counts active alerts raised at or after since
func (s *Store) CountActiveSince(ctx context.Context, since time.Time) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Alert{}).
		Where("status = ? AND alert_timestamp >= ?", models.AlertStatusActive, since.UTC()).
		Count(&n).Error
	if err != nil {
		return 0, persistenceError("count active alerts", err)
	}
	return n, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
