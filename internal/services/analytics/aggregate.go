// Package analytics buckets persisted alert history by time period.
package analytics

import (
	"fmt"
	"math"
	"sort"
	"time"

	"firewatch-worker-go/internal/models"
)

// PeriodKey formats t as the bucket label for g. t is expected to already be
// in the reporting location.
func PeriodKey(t time.Time, g models.Granularity) string {
	switch g {
	case models.GranularityDay:
		return t.Format("2006-01-02")
	case models.GranularityWeek:
		year, week := t.ISOWeek()
		return fmt.Sprintf("%04d-%02d", year, week)
	default:
		return fmt.Sprintf("%02d:00", t.Hour())
	}
}

type accumulator struct {
	total         int
	falsePositive int
	active        int
	confidenceSum float64
}

// Aggregate groups alerts into non-empty buckets ordered by period label.
// Timestamps are converted to loc before bucketing.
func Aggregate(alerts []models.Alert, g models.Granularity, loc *time.Location) ([]models.AnalyticsBucket, error) {
	if !g.IsValid() {
		return nil, fmt.Errorf("%w: unknown granularity %q", models.ErrInvalidInput, g)
	}
	if loc == nil {
		loc = time.UTC
	}

	acc := make(map[string]*accumulator)
	for i := range alerts {
		a := &alerts[i]
		key := PeriodKey(a.AlertTimestamp.In(loc), g)
		b, ok := acc[key]
		if !ok {
			b = &accumulator{}
			acc[key] = b
		}
		b.total++
		b.confidenceSum += a.Confidence
		switch a.Status {
		case models.AlertStatusFalsePositive:
			b.falsePositive++
		case models.AlertStatusActive:
			b.active++
		}
	}

	buckets := make([]models.AnalyticsBucket, 0, len(acc))
	for key, b := range acc {
		buckets = append(buckets, models.AnalyticsBucket{
			TimePeriod:       key,
			AlertCount:       b.total,
			FalseAlertCount:  b.falsePositive,
			ActiveAlertCount: b.active,
			AvgConfidence:    math.Round(b.confidenceSum/float64(b.total)*100*100) / 100,
		})
	}
	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].TimePeriod < buckets[j].TimePeriod
	})
	return buckets, nil
}
