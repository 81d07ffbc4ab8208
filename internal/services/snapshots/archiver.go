// Package snapshots uploads worker snapshots to object storage.
package snapshots

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"firewatch-worker-go/internal/config"
	"firewatch-worker-go/internal/helpers"
	"firewatch-worker-go/internal/models"
)

// ObjectStore persists encoded snapshots
type ObjectStore interface {
	SaveSnapshot(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// Compressor turns a snapshot file into upload-ready JPEG bytes
type Compressor func(path string) ([]byte, error)

// GocvCompressor bounds snapshots by the configured size and quality
func GocvCompressor(cfg *config.Config) Compressor {
	return func(path string) ([]byte, error) {
		return helpers.CompressSnapshot(path, cfg.SnapshotMaxWidth, cfg.SnapshotMaxHeight, cfg.SnapshotQuality)
	}
}

// Archiver copies snapshots written by workers into object storage. Only
// files under root (the worker output directory) are ever read.
type Archiver struct {
	store    ObjectStore
	compress Compressor
	root     string
	logger   zerolog.Logger
}

func NewArchiver(store ObjectStore, compress Compressor, root string, logger zerolog.Logger) *Archiver {
	return &Archiver{store: store, compress: compress, root: root, logger: logger}
}

// Archive uploads the alert's snapshot and returns its URL
func (a *Archiver) Archive(ctx context.Context, alert *models.Alert) (string, error) {
	if alert.SnapshotPath == "" {
		return "", fmt.Errorf("%w: alert has no snapshot", models.ErrInvalidInput)
	}
	path, err := a.confine(alert.SnapshotPath)
	if err != nil {
		return "", err
	}

	data, err := a.compress(path)
	if err != nil {
		return "", fmt.Errorf("compress snapshot: %w", err)
	}
	return a.upload(ctx, alert, data)
}

// ArchiveImage uploads an inline JPEG snapshot as is
func (a *Archiver) ArchiveImage(ctx context.Context, alert *models.Alert, data []byte) (string, error) {
	if !helpers.IsJPEGData(data) {
		return "", fmt.Errorf("%w: inline snapshot is not a JPEG image", models.ErrInvalidInput)
	}
	return a.upload(ctx, alert, data)
}

func (a *Archiver) upload(ctx context.Context, alert *models.Alert, data []byte) (string, error) {
	url, err := a.store.SaveSnapshot(ctx, ObjectKey(alert), data, "image/jpeg")
	if err != nil {
		return "", err
	}
	a.logger.Debug().
		Str("camera_id", alert.CameraID).
		Str("url", url).
		Int("bytes", len(data)).
		Msg("Snapshot archived")
	return url, nil
}

// ObjectKey is <tenant>/<camera>/<yyyy>/<mm>/<dd>/<uuid>.jpg
func ObjectKey(alert *models.Alert) string {
	return fmt.Sprintf("%s/%s/%s/%s.jpg",
		alert.TenantID,
		alert.CameraID,
		alert.AlertTimestamp.UTC().Format("2006/01/02"),
		uuid.NewString(),
	)
}

// confine resolves path and rejects anything outside the archiver root,
// following symlinks on both sides.
func (a *Archiver) confine(path string) (string, error) {
	if a.root == "" {
		return "", fmt.Errorf("%w: no snapshot directory configured", models.ErrInvalidInput)
	}
	root, err := realPath(a.root)
	if err != nil {
		return "", fmt.Errorf("snapshot directory: %w", err)
	}
	resolved, err := realPath(path)
	if err != nil {
		return "", fmt.Errorf("%w: snapshot not readable: %v", models.ErrInvalidInput, err)
	}

	rel, err := filepath.Rel(root, resolved)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return "", fmt.Errorf("%w: snapshot %s is outside %s", models.ErrInvalidInput, path, a.root)
	}
	return resolved, nil
}

func realPath(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}
