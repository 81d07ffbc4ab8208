package alerts

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"math"
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
	"firewatch-worker-go/internal/services/snapshots"
	"firewatch-worker-go/internal/services/storage"
)

var fixedNow = time.Date(2024, 6, 1, 14, 30, 0, 0, time.UTC)

type mapResolver map[string]models.CameraContext

func (m mapResolver) Resolve(_ context.Context, cameraID string) (models.CameraContext, error) {
	c, ok := m[cameraID]
	if !ok {
		return models.CameraContext{}, fmt.Errorf("%w: camera %s", models.ErrNotFound, cameraID)
	}
	return c, nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	alerts []*models.Alert
	err    error
}

func (r *recordingNotifier) NotifyAlert(_ context.Context, alert *models.Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = append(r.alerts, alert)
	return r.err
}

type stubArchiver struct {
	url        string
	err        error
	calls      int
	imageCalls int
	image      []byte
}

func (a *stubArchiver) Archive(_ context.Context, _ *models.Alert) (string, error) {
	a.calls++
	return a.url, a.err
}

func (a *stubArchiver) ArchiveImage(_ context.Context, _ *models.Alert, data []byte) (string, error) {
	a.imageCalls++
	a.image = data
	return a.url, a.err
}

type uploadRecorder struct {
	keys []string
}

func (u *uploadRecorder) SaveSnapshot(_ context.Context, key string, _ []byte, _ string) (string, error) {
	u.keys = append(u.keys, key)
	return "http://minio/" + key, nil
}

func setupStore(t *testing.T) *storage.Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: gormlogger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	store := storage.NewStore(db, zerolog.Nop())
	require.NoError(t, store.Migrate())
	return store
}

func newTestService(t *testing.T, opts ...Option) (*Service, *storage.Store) {
	t.Helper()
	store := setupStore(t)
	cameras := mapResolver{
		"cam-1": {CameraID: "cam-1", TenantID: "tenant-a", BranchID: "branch-1"},
	}
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return NewService(store, cameras, zerolog.Nop(), opts...), store
}

func TestIngestCreatesActiveAlert(t *testing.T) {
	notifier := &recordingNotifier{}
	svc, store := newTestService(t, WithNotifier(notifier))

	alert, err := svc.Ingest(context.Background(), "cam-1", &models.DetectionEvent{
		Type:          models.WorkerEventDetection,
		Confidence:    0.95,
		BoundingBoxes: []models.BoundingBox{{1, 2, 3, 4}},
		SnapshotPath:  "/snap/1.jpg",
	})
	require.NoError(t, err)

	assert.NotZero(t, alert.ID)
	assert.Equal(t, models.SeverityCritical, alert.Severity)
	assert.Equal(t, models.AlertStatusActive, alert.Status)
	assert.Equal(t, "tenant-a", alert.TenantID)
	assert.Equal(t, "branch-1", alert.BranchID)
	assert.Equal(t, models.FireTypeFlame, alert.FireType)
	assert.True(t, fixedNow.Equal(alert.AlertTimestamp), "missing timestamps default to now")

	stored, err := store.GetAlert(context.Background(), alert.ID)
	require.NoError(t, err)
	assert.Equal(t, alert.Severity, stored.Severity)
	assert.Equal(t, "/snap/1.jpg", stored.SnapshotPath)

	require.Len(t, notifier.alerts, 1)
	assert.Equal(t, alert.ID, notifier.alerts[0].ID)
}

func TestIngestSeverityBands(t *testing.T) {
	svc, _ := newTestService(t)

	for confidence, want := range map[float64]models.Severity{
		0.95: models.SeverityCritical,
		0.85: models.SeverityHigh,
		0.75: models.SeverityMedium,
		0.5:  models.SeverityLow,
	} {
		alert, err := svc.Ingest(context.Background(), "cam-1", &models.DetectionEvent{Confidence: confidence})
		require.NoError(t, err)
		assert.Equal(t, want, alert.Severity, "confidence %.2f", confidence)
	}
}

func TestIngestUnknownCamera(t *testing.T) {
	svc, store := newTestService(t)

	_, err := svc.Ingest(context.Background(), "cam-x", &models.DetectionEvent{Confidence: 0.9})
	assert.ErrorIs(t, err, models.ErrNotFound)

	page, err := store.ListAlerts(context.Background(), models.AlertFilter{})
	require.NoError(t, err)
	assert.Zero(t, page.Total)
}

func TestIngestRejectsOutOfRangeConfidence(t *testing.T) {
	svc, _ := newTestService(t)

	for _, c := range []float64{-0.1, 1.01, 85, math.NaN()} {
		_, err := svc.Ingest(context.Background(), "cam-1", &models.DetectionEvent{Confidence: c})
		assert.ErrorIs(t, err, models.ErrInvalidInput, "confidence %v", c)
	}
}

func TestIngestKeepsWorkerTimestamp(t *testing.T) {
	svc, _ := newTestService(t)
	ts := time.Date(2024, 6, 1, 9, 15, 0, 0, time.FixedZone("IST", 19800))

	alert, err := svc.Ingest(context.Background(), "cam-1", &models.DetectionEvent{Confidence: 0.8, Timestamp: ts})
	require.NoError(t, err)
	assert.True(t, ts.Equal(alert.AlertTimestamp))
	assert.Equal(t, time.UTC, alert.AlertTimestamp.Location())
}

func TestNotifierFailureDoesNotFailIngest(t *testing.T) {
	svc, _ := newTestService(t, WithNotifier(&recordingNotifier{err: errors.New("nats down")}))

	alert, err := svc.Ingest(context.Background(), "cam-1", &models.DetectionEvent{Confidence: 0.9})
	require.NoError(t, err)
	assert.NotZero(t, alert.ID)
}

func TestSnapshotArchiving(t *testing.T) {
	archiver := &stubArchiver{url: "http://minio/s/1.jpg"}
	svc, _ := newTestService(t, WithArchiver(archiver))

	alert, err := svc.Ingest(context.Background(), "cam-1", &models.DetectionEvent{Confidence: 0.9, SnapshotPath: "/snap/1.jpg"})
	require.NoError(t, err)
	assert.Equal(t, "http://minio/s/1.jpg", alert.SnapshotURL)
	assert.Equal(t, "/snap/1.jpg", alert.SnapshotPath)

	// already remote, nothing to archive
	_, err = svc.Ingest(context.Background(), "cam-1", &models.DetectionEvent{Confidence: 0.9, SnapshotPath: "https://cdn/x.jpg"})
	require.NoError(t, err)
	assert.Equal(t, 1, archiver.calls)

	archiver.err = errors.New("minio unreachable")
	alert, err = svc.Ingest(context.Background(), "cam-1", &models.DetectionEvent{Confidence: 0.9, SnapshotPath: "/snap/2.jpg"})
	require.NoError(t, err, "archive failure is not fatal")
	assert.Empty(t, alert.SnapshotURL)
}

func TestSubmit(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	// trusted context skips the directory
	alert, err := svc.Submit(ctx, models.AlertSubmission{
		CameraID: "cam-external", TenantID: "tenant-z", BranchID: "branch-z", Confidence: 0.72, FireType: models.FireTypeSmoke,
	})
	require.NoError(t, err)
	assert.Equal(t, "tenant-z", alert.TenantID)
	assert.Equal(t, models.SeverityMedium, alert.Severity)
	assert.Equal(t, models.FireTypeSmoke, alert.FireType)

	// partial context falls back to lookup
	alert, err = svc.Submit(ctx, models.AlertSubmission{CameraID: "cam-1", TenantID: "ignored", Confidence: 0.9})
	require.NoError(t, err)
	assert.Equal(t, "tenant-a", alert.TenantID)
	assert.Equal(t, models.FireTypeFlame, alert.FireType)

	_, err = svc.Submit(ctx, models.AlertSubmission{CameraID: "cam-unknown", Confidence: 0.9})
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = svc.Submit(ctx, models.AlertSubmission{Confidence: 0.9})
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	_, err = svc.Submit(ctx, models.AlertSubmission{CameraID: "cam-1", Confidence: 2})
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestResolve(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	alert, err := svc.Ingest(ctx, "cam-1", &models.DetectionEvent{Confidence: 0.9})
	require.NoError(t, err)

	resolved, err := svc.Resolve(ctx, alert.ID, "  Fire extinguished  ")
	require.NoError(t, err)
	assert.Equal(t, models.AlertStatusResolved, resolved.Status)
	assert.Equal(t, "Fire extinguished", resolved.Remarks)
	require.NotNil(t, resolved.ResolvedAt)
	assert.True(t, fixedNow.Equal(*resolved.ResolvedAt))
}

func TestMarkFalsePositive(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	alert, err := svc.Ingest(ctx, "cam-1", &models.DetectionEvent{Confidence: 0.75})
	require.NoError(t, err)

	fp, err := svc.MarkFalsePositive(ctx, alert.ID, "sunlight reflection")
	require.NoError(t, err)
	assert.Equal(t, models.AlertStatusFalsePositive, fp.Status)
	assert.Equal(t, "sunlight reflection", fp.Remarks)
	assert.NotNil(t, fp.ResolvedAt)
}

func TestTerminalStatesAreFinal(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	alert, err := svc.Ingest(ctx, "cam-1", &models.DetectionEvent{Confidence: 0.9})
	require.NoError(t, err)
	_, err = svc.Resolve(ctx, alert.ID, "done")
	require.NoError(t, err)

	_, err = svc.MarkFalsePositive(ctx, alert.ID, "actually not")
	assert.ErrorIs(t, err, models.ErrInvalidTransition)
	_, err = svc.Resolve(ctx, alert.ID, "again")
	assert.ErrorIs(t, err, models.ErrInvalidTransition)

	got, err := svc.Get(ctx, alert.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AlertStatusResolved, got.Status)
	assert.Equal(t, "done", got.Remarks)
}

func TestTransitionUnknownAlert(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Resolve(context.Background(), 404, "x")
	assert.ErrorIs(t, err, models.ErrNotFound)
	_, err = svc.MarkFalsePositive(context.Background(), 404, "x")
	assert.ErrorIs(t, err, models.ErrNotFound)
	_, err = svc.Get(context.Background(), 404)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestListAndStats(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for _, c := range []float64{0.9, 0.8, 0.7} {
		_, err := svc.Ingest(ctx, "cam-1", &models.DetectionEvent{Confidence: c})
		require.NoError(t, err)
	}
	page, err := svc.List(ctx, models.AlertFilter{CameraID: "cam-1"})
	require.NoError(t, err)
	require.Len(t, page.Alerts, 3)
	_, err = svc.MarkFalsePositive(ctx, page.Alerts[0].ID, "")
	require.NoError(t, err)

	stats, err := svc.Stats(ctx, models.AlertFilter{TenantID: "tenant-a"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalAlerts)
	assert.Equal(t, int64(2), stats.ActiveAlerts)
	assert.Equal(t, int64(1), stats.FalsePositives)
	assert.InDelta(t, 80.0, stats.AvgConfidence, 0.01)

	_, err = svc.List(ctx, models.AlertFilter{Statuses: []models.AlertStatus{"archived"}})
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	_, err = svc.Stats(ctx, models.AlertFilter{From: fixedNow, To: fixedNow.Add(-time.Hour)})
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

type failingRepo struct{ Repository }

func (failingRepo) CreateAlert(context.Context, *models.Alert) error {
	return errors.New("disk I/O error")
}

func TestPersistenceFailureSurfaces(t *testing.T) {
	notifier := &recordingNotifier{}
	svc := NewService(failingRepo{}, mapResolver{"cam-1": {CameraID: "cam-1", TenantID: "t", BranchID: "b"}},
		zerolog.Nop(), WithNotifier(notifier))

	_, err := svc.Ingest(context.Background(), "cam-1", &models.DetectionEvent{Confidence: 0.9})
	assert.ErrorIs(t, err, models.ErrPersistence)
	assert.Empty(t, notifier.alerts, "nothing is announced that was not stored")
}

func TestIngestCarriesWorkerUser(t *testing.T) {
	svc, store := newTestService(t)

	alert, err := svc.Ingest(context.Background(), "cam-1", &models.DetectionEvent{Confidence: 0.85, UserID: "42"})
	require.NoError(t, err)

	stored, err := store.GetAlert(context.Background(), alert.ID)
	require.NoError(t, err)
	assert.Equal(t, "42", stored.UserID)
}

func TestSubmitInlineSnapshot(t *testing.T) {
	jpeg := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10}
	encoded := base64.StdEncoding.EncodeToString(jpeg)
	ctx := context.Background()

	t.Run("stored without archive", func(t *testing.T) {
		svc, store := newTestService(t)
		alert, err := svc.Submit(ctx, models.AlertSubmission{CameraID: "cam-1", Confidence: 0.9, SnapshotBase64: "data:image/jpeg;base64," + encoded})
		require.NoError(t, err)

		stored, err := store.GetAlert(ctx, alert.ID)
		require.NoError(t, err)
		assert.Equal(t, encoded, stored.SnapshotBase64)
		assert.Empty(t, stored.SnapshotURL)
	})

	t.Run("uploaded when archiving", func(t *testing.T) {
		archiver := &stubArchiver{url: "http://minio/s/inline.jpg"}
		svc, store := newTestService(t, WithArchiver(archiver))
		alert, err := svc.Submit(ctx, models.AlertSubmission{CameraID: "cam-1", Confidence: 0.9, SnapshotBase64: encoded})
		require.NoError(t, err)

		assert.Equal(t, 1, archiver.imageCalls)
		assert.Equal(t, 0, archiver.calls)
		assert.Equal(t, jpeg, archiver.image)

		stored, err := store.GetAlert(ctx, alert.ID)
		require.NoError(t, err)
		assert.Equal(t, "http://minio/s/inline.jpg", stored.SnapshotURL)
		assert.Empty(t, stored.SnapshotBase64)
	})

	t.Run("kept when upload fails", func(t *testing.T) {
		archiver := &stubArchiver{err: errors.New("bucket gone")}
		svc, _ := newTestService(t, WithArchiver(archiver))
		alert, err := svc.Submit(ctx, models.AlertSubmission{CameraID: "cam-1", Confidence: 0.9, SnapshotBase64: encoded})
		require.NoError(t, err)
		assert.Equal(t, encoded, alert.SnapshotBase64)
	})

	t.Run("invalid encoding", func(t *testing.T) {
		svc, _ := newTestService(t)
		_, err := svc.Submit(ctx, models.AlertSubmission{CameraID: "cam-1", Confidence: 0.9, SnapshotBase64: "not base64!"})
		assert.ErrorIs(t, err, models.ErrInvalidInput)

		_, err = svc.Submit(ctx, models.AlertSubmission{CameraID: "cam-1", Confidence: 0.9, SnapshotBase64: "data:image/jpeg;base64"})
		assert.ErrorIs(t, err, models.ErrInvalidInput)
	})
}

func TestSubmitDoesNotArchiveHostFiles(t *testing.T) {
	var compressed []string
	compress := func(path string) ([]byte, error) {
		compressed = append(compressed, path)
		return []byte{0xFF, 0xD8, 0xFF}, nil
	}
	uploads := &uploadRecorder{}
	archiver := snapshots.NewArchiver(uploads, compress, t.TempDir(), zerolog.Nop())
	svc, _ := newTestService(t, WithArchiver(archiver))

	alert, err := svc.Submit(context.Background(), models.AlertSubmission{CameraID: "cam-1", Confidence: 0.9, SnapshotPath: "/etc/passwd"})
	require.NoError(t, err, "a rejected snapshot does not fail the submission")

	assert.Empty(t, compressed)
	assert.Empty(t, uploads.keys)
	assert.Empty(t, alert.SnapshotURL)
}
