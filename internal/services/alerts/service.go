// Package alerts turns detections into persisted alerts and manages their
// active -> resolved | false_positive lifecycle.
package alerts

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"firewatch-worker-go/internal/metrics"
	"firewatch-worker-go/internal/models"
)

// Repository is the alert store
type Repository interface {
	CreateAlert(ctx context.Context, alert *models.Alert) error
	GetAlert(ctx context.Context, id uint64) (*models.Alert, error)
	UpdateAlertStatus(ctx context.Context, u models.StatusUpdate) (*models.Alert, error)
	ListAlerts(ctx context.Context, f models.AlertFilter) (models.AlertPage, error)
	AlertStats(ctx context.Context, f models.AlertFilter) (models.AlertStats, error)
}

// CameraResolver maps a camera id to its tenant and branch
type CameraResolver interface {
	Resolve(ctx context.Context, cameraID string) (models.CameraContext, error)
}

// Notifier receives every alert after it has been persisted
type Notifier interface {
	NotifyAlert(ctx context.Context, alert *models.Alert) error
}

// SnapshotArchiver uploads the snapshot of an alert and returns its URL
type SnapshotArchiver interface {
	// Archive uploads the file named by the alert's snapshot path
	Archive(ctx context.Context, alert *models.Alert) (string, error)
	// ArchiveImage uploads an inline image
	ArchiveImage(ctx context.Context, alert *models.Alert, data []byte) (string, error)
}

const (
	maxRemarksLength = 4000
	maxSnapshotBytes = 5 << 20
)

type Option func(*Service)

func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

func WithArchiver(a SnapshotArchiver) Option {
	return func(s *Service) { s.archiver = a }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

type Service struct {
	repo     Repository
	cameras  CameraResolver
	notifier Notifier
	archiver SnapshotArchiver
	metrics  *metrics.Metrics
	now      func() time.Time
	logger   zerolog.Logger
}

func NewService(repo Repository, cameras CameraResolver, logger zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		repo:    repo,
		cameras: cameras,
		now:     time.Now,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ingest persists a worker detection for cameraID as an active alert
func (s *Service) Ingest(ctx context.Context, cameraID string, ev *models.DetectionEvent) (*models.Alert, error) {
	if err := validateConfidence(ev.Confidence); err != nil {
		s.metrics.IngestError("invalid")
		return nil, err
	}

	camera, err := s.cameras.Resolve(ctx, cameraID)
	if err != nil {
		s.metrics.IngestError("camera")
		return nil, err
	}

	alert := s.newAlert(cameraID, ev.Confidence, ev.Timestamp)
	alert.TenantID = camera.TenantID
	alert.BranchID = camera.BranchID
	alert.BoundingBoxes = ev.BoundingBoxes
	alert.SnapshotPath = ev.SnapshotPath
	alert.FireType = ev.FireType.Normalize()
	alert.UserID = ev.UserID

	s.archiveSnapshot(ctx, alert, nil)
	return s.persist(ctx, alert)
}

// Submit persists an alert reported from outside the worker pipeline.
// Tenant and branch are looked up unless the submission carries both.
func (s *Service) Submit(ctx context.Context, sub models.AlertSubmission) (*models.Alert, error) {
	if strings.TrimSpace(sub.CameraID) == "" {
		return nil, fmt.Errorf("%w: camera_id is required", models.ErrInvalidInput)
	}
	if err := validateConfidence(sub.Confidence); err != nil {
		s.metrics.IngestError("invalid")
		return nil, err
	}
	inline, err := decodeSnapshot(sub.SnapshotBase64)
	if err != nil {
		s.metrics.IngestError("invalid")
		return nil, err
	}

	tenantID, branchID := sub.TenantID, sub.BranchID
	if tenantID == "" || branchID == "" {
		camera, err := s.cameras.Resolve(ctx, sub.CameraID)
		if err != nil {
			s.metrics.IngestError("camera")
			return nil, err
		}
		tenantID, branchID = camera.TenantID, camera.BranchID
	}

	var ts time.Time
	if sub.Timestamp != nil {
		ts = *sub.Timestamp
	}

	alert := s.newAlert(sub.CameraID, sub.Confidence, ts)
	alert.TenantID = tenantID
	alert.BranchID = branchID
	alert.UserID = sub.UserID
	alert.BoundingBoxes = sub.BoundingBoxes
	alert.SnapshotPath = sub.SnapshotPath
	alert.FireType = sub.FireType.Normalize()
	if len(inline) > 0 {
		alert.SnapshotBase64 = base64.StdEncoding.EncodeToString(inline)
	}

	s.archiveSnapshot(ctx, alert, inline)
	return s.persist(ctx, alert)
}

func (s *Service) newAlert(cameraID string, confidence float64, ts time.Time) *models.Alert {
	if ts.IsZero() {
		ts = s.now()
	}
	return &models.Alert{
		CameraID:       cameraID,
		AlertTimestamp: ts.UTC(),
		Confidence:     confidence,
		Severity:       models.SeverityFor(confidence),
		Status:         models.AlertStatusActive,
	}
}

// archiveSnapshot uploads the inline image if there is one, otherwise the
// local snapshot file. An uploaded inline image is not kept in the row.
// Failures leave the alert as it is.
func (s *Service) archiveSnapshot(ctx context.Context, alert *models.Alert, inline []byte) {
	if s.archiver == nil {
		return
	}

	var (
		url string
		err error
	)
	switch {
	case len(inline) > 0:
		url, err = s.archiver.ArchiveImage(ctx, alert, inline)
	case isLocalPath(alert.SnapshotPath):
		url, err = s.archiver.Archive(ctx, alert)
	default:
		return
	}
	if err != nil {
		s.logger.Warn().Err(err).Str("camera_id", alert.CameraID).Msg("Snapshot archive failed, keeping local copy")
		return
	}
	alert.SnapshotURL = url
	alert.SnapshotBase64 = ""
}

func (s *Service) persist(ctx context.Context, alert *models.Alert) (*models.Alert, error) {
	if alert.BoundingBoxes == nil {
		alert.BoundingBoxes = []models.BoundingBox{}
	}

	if err := s.repo.CreateAlert(ctx, alert); err != nil {
		s.metrics.IngestError("persistence")
		if !errors.Is(err, models.ErrPersistence) {
			err = fmt.Errorf("%w: %v", models.ErrPersistence, err)
		}
		return nil, err
	}
	s.metrics.AlertIngested(string(alert.Severity))

	if s.notifier != nil {
		if err := s.notifier.NotifyAlert(ctx, alert); err != nil {
			s.logger.Warn().Err(err).Uint64("alert_id", alert.ID).Msg("Real-time notification incomplete")
		}
	}
	return alert, nil
}

// Resolve closes an active alert as handled
func (s *Service) Resolve(ctx context.Context, id uint64, notes string) (*models.Alert, error) {
	return s.transition(ctx, id, models.AlertStatusResolved, notes)
}

// MarkFalsePositive closes an active alert as not a fire
func (s *Service) MarkFalsePositive(ctx context.Context, id uint64, reason string) (*models.Alert, error) {
	return s.transition(ctx, id, models.AlertStatusFalsePositive, reason)
}

func (s *Service) transition(ctx context.Context, id uint64, to models.AlertStatus, remarks string) (*models.Alert, error) {
	remarks = strings.TrimSpace(remarks)
	if len(remarks) > maxRemarksLength {
		return nil, fmt.Errorf("%w: remarks longer than %d characters", models.ErrInvalidInput, maxRemarksLength)
	}

	alert, err := s.repo.UpdateAlertStatus(ctx, models.StatusUpdate{
		ID:         id,
		From:       models.AlertStatusActive,
		To:         to,
		ResolvedAt: s.now().UTC(),
		Remarks:    remarks,
	})
	if err != nil {
		return nil, err
	}

	s.metrics.AlertTransition(string(to))
	s.logger.Info().
		Uint64("alert_id", id).
		Str("camera_id", alert.CameraID).
		Str("status", string(to)).
		Msg("Alert closed")
	return alert, nil
}

// Get returns one alert
func (s *Service) Get(ctx context.Context, id uint64) (*models.Alert, error) {
	return s.repo.GetAlert(ctx, id)
}

// List returns a page of alerts, newest first
func (s *Service) List(ctx context.Context, f models.AlertFilter) (models.AlertPage, error) {
	if err := validateFilter(f); err != nil {
		return models.AlertPage{}, err
	}
	return s.repo.ListAlerts(ctx, f.Normalize())
}

// Stats summarizes the alerts matched by f
func (s *Service) Stats(ctx context.Context, f models.AlertFilter) (models.AlertStats, error) {
	if err := validateFilter(f); err != nil {
		return models.AlertStats{}, err
	}
	return s.repo.AlertStats(ctx, f)
}

func validateConfidence(c float64) error {
	if math.IsNaN(c) || c < 0 || c > 1 {
		return fmt.Errorf("%w: confidence %v outside [0,1]", models.ErrInvalidInput, c)
	}
	return nil
}

func validateFilter(f models.AlertFilter) error {
	for _, st := range f.Statuses {
		if !st.IsValid() {
			return fmt.Errorf("%w: unknown status %q", models.ErrInvalidInput, st)
		}
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From) {
		return fmt.Errorf("%w: to_date is before from_date", models.ErrInvalidInput)
	}
	return nil
}

// decodeSnapshot decodes a base64 image, accepting a data URI prefix
func decodeSnapshot(encoded string) ([]byte, error) {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return nil, nil
	}
	if strings.HasPrefix(encoded, "data:") {
		i := strings.Index(encoded, ",")
		if i < 0 {
			return nil, fmt.Errorf("%w: malformed snapshot data uri", models.ErrInvalidInput)
		}
		encoded = encoded[i+1:]
	}
	if base64.StdEncoding.DecodedLen(len(encoded)) > maxSnapshotBytes {
		return nil, fmt.Errorf("%w: snapshot larger than %d bytes", models.ErrInvalidInput, maxSnapshotBytes)
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: snapshot_base64 is not valid base64", models.ErrInvalidInput)
	}
	return data, nil
}

// isLocalPath reports whether p names a file on this host rather than a URL
func isLocalPath(p string) bool {
	return p != "" && !strings.Contains(p, "://")
}
