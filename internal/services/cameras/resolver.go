// Package cameras resolves camera ids to their tenant and stream context.
package cameras

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"firewatch-worker-go/internal/models"
)

// Directory is the authoritative camera store
type Directory interface {
	FindCameraContext(ctx context.Context, cameraID string) (models.CameraContext, error)
}

// Resolver caches successful directory lookups for a TTL. Misses are not
// cached so a newly registered camera is visible immediately.
type Resolver struct {
	directory Directory
	cache     *cache.Cache
	logger    zerolog.Logger
}

func NewResolver(directory Directory, ttl time.Duration, logger zerolog.Logger) *Resolver {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Resolver{
		directory: directory,
		cache:     cache.New(ttl, 2*ttl),
		logger:    logger,
	}
}

// Resolve returns the camera context, wrapping models.ErrNotFound for
// unknown cameras
func (r *Resolver) Resolve(ctx context.Context, cameraID string) (models.CameraContext, error) {
	if v, ok := r.cache.Get(cameraID); ok {
		return v.(models.CameraContext), nil
	}

	camera, err := r.directory.FindCameraContext(ctx, cameraID)
	if err != nil {
		return models.CameraContext{}, err
	}
	r.cache.Set(cameraID, camera, cache.DefaultExpiration)
	r.logger.Debug().Str("camera_id", cameraID).Msg("Camera context cached")
	return camera, nil
}
