package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"firewatch-worker-go/internal/models"
)

// AlertQuerier returns every alert matching a filter, unpaged
type AlertQuerier interface {
	QueryAlerts(ctx context.Context, f models.AlertFilter) ([]models.Alert, error)
}

// Result is an aggregation together with the window it covers
type Result struct {
	Buckets     []models.AnalyticsBucket `json:"buckets"`
	Start       time.Time                `json:"start"`
	End         time.Time                `json:"end"`
	Granularity models.Granularity       `json:"group_by"`
}

type Service struct {
	alerts AlertQuerier
	loc    *time.Location
	now    func() time.Time
	logger zerolog.Logger
}

func NewService(alerts AlertQuerier, loc *time.Location, logger zerolog.Logger) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{alerts: alerts, loc: loc, now: time.Now, logger: logger}
}

// Location is the zone buckets are computed in
func (s *Service) Location() *time.Location {
	return s.loc
}

// Aggregate buckets the alerts with start <= alert_timestamp <= end
func (s *Service) Aggregate(ctx context.Context, start, end time.Time, g models.Granularity) ([]models.AnalyticsBucket, error) {
	if !g.IsValid() {
		return nil, fmt.Errorf("%w: unknown granularity %q", models.ErrInvalidInput, g)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("%w: end is before start", models.ErrInvalidInput)
	}

	alerts, err := s.alerts.QueryAlerts(ctx, models.AlertFilter{From: start, To: end})
	if err != nil {
		return nil, err
	}

	s.logger.Debug().
		Time("start", start).
		Time("end", end).
		Str("group_by", string(g)).
		Int("alerts", len(alerts)).
		Msg("Aggregating alert analytics")

	return Aggregate(alerts, g, s.loc)
}

// Report resolves the window for date/days against the current time and
// aggregates it.
func (s *Service) Report(ctx context.Context, date string, days int, g models.Granularity) (Result, error) {
	start, end, err := Window(date, days, s.now().In(s.loc))
	if err != nil {
		return Result{}, err
	}
	buckets, err := s.Aggregate(ctx, start, end, g)
	if err != nil {
		return Result{}, err
	}
	return Result{Buckets: buckets, Start: start, End: end, Granularity: g}, nil
}

// Window returns the reporting range. A date (YYYY-MM-DD) selects that whole
// day in now's location; otherwise the range is the last days days up to now.
func Window(date string, days int, now time.Time) (time.Time, time.Time, error) {
	if date != "" {
		day, err := time.ParseInLocation("2006-01-02", date, now.Location())
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: date must be YYYY-MM-DD", models.ErrInvalidInput)
		}
		return day, day.AddDate(0, 0, 1).Add(-time.Millisecond), nil
	}

	if days <= 0 {
		days = 1
	}
	if days > 366 {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: days must be at most 366", models.ErrInvalidInput)
	}
	return now.AddDate(0, 0, -days), now, nil
}
