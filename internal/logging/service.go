package logging

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"firewatch-worker-go/internal/config"
)

func NewServiceLogger(cfg *config.Config, service string) zerolog.Logger {
	return log.With().Str("worker_id", cfg.WorkerID).Str("service", service).Logger()
}

func WithCamera(base zerolog.Logger, cameraID string) zerolog.Logger {
	return base.With().Str("camera_id", cameraID).Logger()
}

// WithWorker tags a camera logger with the worker process id
func WithWorker(base zerolog.Logger, cameraID string, pid int) zerolog.Logger {
	return base.With().Str("camera_id", cameraID).Int("pid", pid).Logger()
}
