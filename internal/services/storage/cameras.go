package storage

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"firewatch-worker-go/internal/models"
)

// FindCameraContext looks up a camera by id
func (s *Store) FindCameraContext(ctx context.Context, cameraID string) (models.CameraContext, error) {
	var camera models.CameraContext
	err := s.db.WithContext(ctx).Where("camera_id = ?", cameraID).Take(&camera).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.CameraContext{}, fmt.Errorf("%w: camera %s", models.ErrNotFound, cameraID)
	}
	if err != nil {
		return models.CameraContext{}, persistenceError("find camera", err)
	}
	return camera, nil
}

// UpsertCamera inserts the camera or replaces its stored fields
func (s *Store) UpsertCamera(ctx context.Context, camera models.CameraContext) error {
	if camera.CameraID == "" || camera.TenantID == "" || camera.BranchID == "" {
		return fmt.Errorf("%w: camera_id, tenant_id and branch_id are required", models.ErrInvalidInput)
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "camera_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"tenant_id", "branch_id", "name", "stream_url", "ip_address", "port", "updated_at"}),
	}).Create(&camera).Error
	if err != nil {
		return persistenceError("upsert camera", err)
	}
	return nil
}

// ListCameras returns the directory ordered by id
func (s *Store) ListCameras(ctx context.Context) ([]models.CameraContext, error) {
	var cameras []models.CameraContext
	if err := s.db.WithContext(ctx).Order("camera_id ASC").Find(&cameras).Error; err != nil {
		return nil, persistenceError("list cameras", err)
	}
	return cameras, nil
}

type seedFile struct {
	Cameras []models.CameraContext `yaml:"cameras"`
}

// SeedCameras upserts every camera listed in a YAML file and returns how
// many were written
func (s *Store) SeedCameras(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read camera seed file: %w", err)
	}
	return s.SeedCamerasYAML(ctx, data)
}

func (s *Store) SeedCamerasYAML(ctx context.Context, data []byte) (int, error) {
	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return 0, fmt.Errorf("failed to parse camera seed file: %w", err)
	}
	for i, camera := range seed.Cameras {
		if err := s.UpsertCamera(ctx, camera); err != nil {
			return i, fmt.Errorf("camera %d (%s): %w", i, camera.CameraID, err)
		}
	}
	s.logger.Info().Int("cameras", len(seed.Cameras)).Msg("Camera directory seeded")
	return len(seed.Cameras), nil
}
