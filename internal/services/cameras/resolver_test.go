package cameras

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firewatch-worker-go/internal/models"
)

type countingDirectory struct {
	mu      sync.Mutex
	calls   int
	cameras map[string]models.CameraContext
}

func (d *countingDirectory) FindCameraContext(_ context.Context, cameraID string) (models.CameraContext, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	c, ok := d.cameras[cameraID]
	if !ok {
		return models.CameraContext{}, fmt.Errorf("%w: camera %s", models.ErrNotFound, cameraID)
	}
	return c, nil
}

func TestResolverCachesHits(t *testing.T) {
	dir := &countingDirectory{cameras: map[string]models.CameraContext{
		"cam-1": {CameraID: "cam-1", TenantID: "t1", BranchID: "b1"},
	}}
	r := NewResolver(dir, time.Minute, zerolog.Nop())

	for i := 0; i < 3; i++ {
		c, err := r.Resolve(context.Background(), "cam-1")
		require.NoError(t, err)
		assert.Equal(t, "t1", c.TenantID)
	}
	assert.Equal(t, 1, dir.calls)
}

func TestResolverRefetchesAfterTTL(t *testing.T) {
	dir := &countingDirectory{cameras: map[string]models.CameraContext{
		"cam-1": {CameraID: "cam-1", TenantID: "t1", BranchID: "b1"},
	}}
	r := NewResolver(dir, 20*time.Millisecond, zerolog.Nop())

	_, err := r.Resolve(context.Background(), "cam-1")
	require.NoError(t, err)

	dir.mu.Lock()
	dir.cameras["cam-1"] = models.CameraContext{CameraID: "cam-1", TenantID: "t9", BranchID: "b1"}
	dir.mu.Unlock()

	c, err := r.Resolve(context.Background(), "cam-1")
	require.NoError(t, err)
	assert.Equal(t, "t1", c.TenantID)

	time.Sleep(50 * time.Millisecond)
	c, err = r.Resolve(context.Background(), "cam-1")
	require.NoError(t, err)
	assert.Equal(t, "t9", c.TenantID)
	assert.Equal(t, 2, dir.calls)
}

func TestResolverDoesNotCacheMisses(t *testing.T) {
	dir := &countingDirectory{cameras: map[string]models.CameraContext{}}
	r := NewResolver(dir, time.Minute, zerolog.Nop())

	_, err := r.Resolve(context.Background(), "cam-2")
	assert.ErrorIs(t, err, models.ErrNotFound)

	dir.mu.Lock()
	dir.cameras["cam-2"] = models.CameraContext{CameraID: "cam-2", TenantID: "t2", BranchID: "b2"}
	dir.mu.Unlock()

	c, err := r.Resolve(context.Background(), "cam-2")
	require.NoError(t, err)
	assert.Equal(t, "t2", c.TenantID)
	assert.Equal(t, 2, dir.calls)
}
