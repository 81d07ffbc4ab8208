package storage

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"firewatch-worker-go/internal/models"
)

// setupTestStore creates a migrated in-memory SQLite store
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: gormlogger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// every connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	store := NewStore(db, zerolog.Nop())
	require.NoError(t, store.Migrate())
	return store
}

var base = time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)

func newAlert(cameraID string, at time.Time, confidence float64, status models.AlertStatus) *models.Alert {
	return &models.Alert{
		TenantID:       "t1",
		BranchID:       "b1",
		CameraID:       cameraID,
		AlertTimestamp: at,
		Confidence:     confidence,
		Severity:       models.SeverityFor(confidence),
		FireType:       models.FireTypeFlame,
		BoundingBoxes:  []models.BoundingBox{{10, 20, 30, 40}},
		Status:         status,
	}
}

func seedAlerts(t *testing.T, store *Store) []*models.Alert {
	t.Helper()
	alerts := []*models.Alert{
		newAlert("cam-1", base, 0.95, models.AlertStatusActive),
		newAlert("cam-1", base.Add(30*time.Minute), 0.75, models.AlertStatusFalsePositive),
		newAlert("cam-2", base.Add(2*time.Hour), 0.85, models.AlertStatusResolved),
		newAlert("cam-2", base.Add(26*time.Hour), 0.65, models.AlertStatusActive),
	}
	for _, a := range alerts {
		require.NoError(t, store.CreateAlert(context.Background(), a))
	}
	return alerts
}

func TestCreateAndGetAlert(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	alert := newAlert("cam-1", base, 0.91, models.AlertStatusActive)
	require.NoError(t, store.CreateAlert(ctx, alert))
	assert.NotZero(t, alert.ID)

	got, err := store.GetAlert(ctx, alert.ID)
	require.NoError(t, err)
	assert.Equal(t, "cam-1", got.CameraID)
	assert.Equal(t, models.SeverityCritical, got.Severity)
	assert.Equal(t, []models.BoundingBox{{10, 20, 30, 40}}, got.BoundingBoxes)
	assert.True(t, base.Equal(got.AlertTimestamp))
	assert.Nil(t, got.ResolvedAt)

	_, err = store.GetAlert(ctx, 9999)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestUpdateAlertStatusGuard(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	alert := newAlert("cam-1", base, 0.8, models.AlertStatusActive)
	require.NoError(t, store.CreateAlert(ctx, alert))

	resolvedAt := base.Add(time.Hour)
	updated, err := store.UpdateAlertStatus(ctx, models.StatusUpdate{
		ID: alert.ID, From: models.AlertStatusActive, To: models.AlertStatusResolved,
		ResolvedAt: resolvedAt, Remarks: "extinguished",
	})
	require.NoError(t, err)
	assert.Equal(t, models.AlertStatusResolved, updated.Status)
	assert.Equal(t, "extinguished", updated.Remarks)
	require.NotNil(t, updated.ResolvedAt)
	assert.True(t, resolvedAt.Equal(*updated.ResolvedAt))

	_, err = store.UpdateAlertStatus(ctx, models.StatusUpdate{
		ID: alert.ID, From: models.AlertStatusActive, To: models.AlertStatusFalsePositive,
		ResolvedAt: resolvedAt, Remarks: "again",
	})
	assert.ErrorIs(t, err, models.ErrInvalidTransition)

	_, err = store.UpdateAlertStatus(ctx, models.StatusUpdate{
		ID: 4242, From: models.AlertStatusActive, To: models.AlertStatusResolved,
	})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestConcurrentTransitionsSingleWinner(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	alert := newAlert("cam-1", base, 0.8, models.AlertStatusActive)
	require.NoError(t, store.CreateAlert(ctx, alert))

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			to := models.AlertStatusResolved
			if i%2 == 0 {
				to = models.AlertStatusFalsePositive
			}
			_, err := store.UpdateAlertStatus(ctx, models.StatusUpdate{
				ID: alert.ID, From: models.AlertStatusActive, To: to, ResolvedAt: base,
			})
			if err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}

func TestQueryAlertsFilters(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	seedAlerts(t, store)

	all, err := store.QueryAlerts(ctx, models.AlertFilter{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.True(t, all[0].AlertTimestamp.Before(all[3].AlertTimestamp))

	byCamera, err := store.QueryAlerts(ctx, models.AlertFilter{CameraID: "cam-2"})
	require.NoError(t, err)
	assert.Len(t, byCamera, 2)

	byStatus, err := store.QueryAlerts(ctx, models.AlertFilter{
		Statuses: []models.AlertStatus{models.AlertStatusActive, models.AlertStatusResolved},
	})
	require.NoError(t, err)
	assert.Len(t, byStatus, 3)

	window, err := store.QueryAlerts(ctx, models.AlertFilter{From: base.Add(time.Minute), To: base.Add(3 * time.Hour)})
	require.NoError(t, err)
	assert.Len(t, window, 2)

	// bounds are inclusive and independent of the caller's zone
	ist := time.FixedZone("IST", 5*3600+1800)
	inclusive, err := store.QueryAlerts(ctx, models.AlertFilter{From: base.In(ist), To: base.In(ist)})
	require.NoError(t, err)
	assert.Len(t, inclusive, 1)
}

func TestListAlertsPaging(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	seedAlerts(t, store)

	page, err := store.ListAlerts(ctx, models.AlertFilter{Limit: 3, Page: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(4), page.Total)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Alerts, 3)
	assert.InDelta(t, 0.65, page.Alerts[0].Confidence, 1e-9, "newest first")

	page, err = store.ListAlerts(ctx, models.AlertFilter{Limit: 3, Page: 2})
	require.NoError(t, err)
	require.Len(t, page.Alerts, 1)
	assert.InDelta(t, 0.95, page.Alerts[0].Confidence, 1e-9)

	page, err = store.ListAlerts(ctx, models.AlertFilter{TenantID: "unknown"})
	require.NoError(t, err)
	assert.Zero(t, page.Total)
	assert.Empty(t, page.Alerts)
}

func TestAlertStats(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	seedAlerts(t, store)

	stats, err := store.AlertStats(ctx, models.AlertFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(4), stats.TotalAlerts)
	assert.Equal(t, int64(2), stats.ActiveAlerts)
	assert.Equal(t, int64(1), stats.FalsePositives)
	assert.InDelta(t, 80.0, stats.AvgConfidence, 0.01)

	empty, err := store.AlertStats(ctx, models.AlertFilter{CameraID: "none"})
	require.NoError(t, err)
	assert.Equal(t, models.AlertStats{}, empty)
}

func TestLatestAlertAndActiveCount(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	seedAlerts(t, store)

	latest, err := store.LatestAlert(ctx, "cam-1")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.InDelta(t, 0.75, latest.Confidence, 1e-9)

	none, err := store.LatestAlert(ctx, "cam-9")
	require.NoError(t, err)
	assert.Nil(t, none)

	n, err := store.CountActiveSince(ctx, base.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestCameraDirectory(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	seed := []byte(`
cameras:
  - camera_id: cam-1
    tenant_id: t1
    branch_id: b1
    name: Lobby
    stream_url: rtsp://10.0.0.1/stream
  - camera_id: cam-2
    tenant_id: t1
    branch_id: b2
    ip_address: 10.0.0.2
    port: 8081
`)
	n, err := store.SeedCamerasYAML(ctx, seed)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	cam, err := store.FindCameraContext(ctx, "cam-2")
	require.NoError(t, err)
	assert.Equal(t, "b2", cam.BranchID)
	assert.Equal(t, 8081, cam.Port)

	// reseeding updates in place
	require.NoError(t, store.UpsertCamera(ctx, models.CameraContext{CameraID: "cam-1", TenantID: "t9", BranchID: "b9"}))
	cam, err = store.FindCameraContext(ctx, "cam-1")
	require.NoError(t, err)
	assert.Equal(t, "t9", cam.TenantID)

	cameras, err := store.ListCameras(ctx)
	require.NoError(t, err)
	assert.Len(t, cameras, 2)

	_, err = store.FindCameraContext(ctx, "cam-404")
	assert.ErrorIs(t, err, models.ErrNotFound)

	err = store.UpsertCamera(ctx, models.CameraContext{CameraID: "cam-3"})
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	_, err = store.SeedCamerasYAML(ctx, []byte("cameras: [unterminated"))
	assert.Error(t, err)
}
