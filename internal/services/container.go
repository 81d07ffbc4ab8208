package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"firewatch-worker-go/internal/config"
	"firewatch-worker-go/internal/logging"
	"firewatch-worker-go/internal/metrics"
	"firewatch-worker-go/internal/models"
	"firewatch-worker-go/internal/services/alerts"
	"firewatch-worker-go/internal/services/analytics"
	"firewatch-worker-go/internal/services/cameras"
	"firewatch-worker-go/internal/services/detection"
	"firewatch-worker-go/internal/services/health"
	"firewatch-worker-go/internal/services/messaging"
	"firewatch-worker-go/internal/services/snapshots"
	"firewatch-worker-go/internal/services/storage"
)

// ServiceContainer holds all services
type ServiceContainer struct {
	Config     *config.Config
	Store      *storage.Store
	Metrics    *metrics.Metrics
	Cameras    *cameras.Resolver
	Notifier   *messaging.Fanout
	NATS       *messaging.Service
	MQTT       *messaging.MQTTPublisher
	Snapshots  *snapshots.Archiver
	Alerts     *alerts.Service
	Analytics  *analytics.Service
	Health     *health.Server
	Supervisor *detection.Supervisor
}

type containerOptions struct {
	store    *storage.Store
	launcher detection.Launcher
}

type Option func(*containerOptions)

// WithStore uses an already opened store instead of opening one from cfg
func WithStore(s *storage.Store) Option {
	return func(o *containerOptions) { o.store = s }
}

// WithLauncher replaces the exec based worker launcher
func WithLauncher(l detection.Launcher) Option {
	return func(o *containerOptions) { o.launcher = l }
}

// NewServiceContainer creates a new service container. Only the database is
// mandatory; NATS, MQTT and MinIO are skipped with a warning when they are
// enabled but unreachable.
func NewServiceContainer(cfg *config.Config, opts ...Option) (*ServiceContainer, error) {
	var o containerOptions
	for _, opt := range opts {
		opt(&o)
	}

	sc := &ServiceContainer{Config: cfg}

	if cfg.MetricsEnabled {
		registry := prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		m, err := metrics.New(registry)
		if err != nil {
			return nil, err
		}
		sc.Metrics = m
	}

	sc.Store = o.store
	if sc.Store == nil {
		store, err := storage.Open(cfg, sc.Logger("storage"))
		if err != nil {
			return nil, err
		}
		sc.Store = store
	}
	if err := sc.Store.Migrate(); err != nil {
		return nil, err
	}
	if cfg.CameraSeedFile != "" {
		n, err := sc.Store.SeedCameras(context.Background(), cfg.CameraSeedFile)
		if err != nil {
			return nil, fmt.Errorf("failed to seed cameras: %w", err)
		}
		log.Info().Int("cameras", n).Str("file", cfg.CameraSeedFile).Msg("Camera directory seeded")
	}

	sc.Cameras = cameras.NewResolver(sc.Store, cfg.CameraCacheTTL, sc.Logger("cameras"))
	sc.Notifier = messaging.NewFanout(sc.Logger("notifier"), sc.Metrics)
	sc.connectNotifiers()

	alertOpts := []alerts.Option{alerts.WithMetrics(sc.Metrics)}
	if sc.Notifier.Len() > 0 {
		alertOpts = append(alertOpts, alerts.WithNotifier(sc.Notifier))
	}
	if cfg.MinioEnabled {
		minioStore, err := snapshots.NewMinioStore(cfg)
		if err != nil {
			log.Warn().Err(err).Msg("MinIO not available, snapshots stay on local disk")
		} else {
			sc.Snapshots = snapshots.NewArchiver(minioStore, snapshots.GocvCompressor(cfg), cfg.WorkerOutputDir, sc.Logger("snapshots"))
			alertOpts = append(alertOpts, alerts.WithArchiver(sc.Snapshots))
		}
	}
	sc.Alerts = alerts.NewService(sc.Store, sc.Cameras, sc.Logger("alerts"), alertOpts...)
	sc.Analytics = analytics.NewService(sc.Store, cfg.Location(), sc.Logger("analytics"))

	supervisorOpts := []detection.Option{
		detection.WithMetrics(sc.Metrics),
		detection.WithProcessStats(detection.GopsutilStats),
	}
	if cfg.GRPCHealthEnabled {
		sc.Health = health.NewServer(sc.Logger("grpc-health"))
		supervisorOpts = append(supervisorOpts, detection.WithStatusReporter(sc.Health))
	}

	launcher := o.launcher
	if launcher == nil {
		launcher = detection.NewExecLauncher(cfg.WorkerCommand, cfg.WorkerArgs, sc.Logger("launcher"))
	}
	sc.Supervisor = detection.NewSupervisor(
		detection.SettingsFrom(cfg),
		sc.Cameras,
		launcher,
		sc.Alerts,
		sc.Logger("supervisor"),
		supervisorOpts...,
	)

	return sc, nil
}

func (sc *ServiceContainer) connectNotifiers() {
	cfg := sc.Config
	if cfg.NatsEnabled {
		nc, err := messaging.NewService(cfg)
		if err != nil {
			log.Warn().Err(err).Msg("NATS not available, alerts will not be published there")
		} else {
			sc.NATS = nc
			sc.Notifier.Add(nc)
		}
	}
	if cfg.MQTTEnabled {
		mp, err := messaging.NewMQTTPublisher(cfg)
		if err != nil {
			log.Warn().Err(err).Msg("MQTT not available, alerts will not be published there")
		} else {
			sc.MQTT = mp
			sc.Notifier.Add(mp)
		}
	}
}

// DefaultSettings are applied to start requests that omit a value
func (sc *ServiceContainer) DefaultSettings() models.WorkerSettings {
	return models.WorkerSettings{
		Sensitivity:       sc.Config.DefaultSensitivity,
		MinConfidence:     sc.Config.DefaultMinConfidence,
		AlertSoundEnabled: true,
	}
}

// Logger returns a service scoped logger
func (sc *ServiceContainer) Logger(service string) zerolog.Logger {
	return logging.NewServiceLogger(sc.Config, service)
}

// Shutdown gracefully shuts down all services, detection workers first
func (sc *ServiceContainer) Shutdown(ctx context.Context) error {
	var errs []error

	if sc.Supervisor != nil {
		if err := sc.Supervisor.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if sc.Health != nil {
		if err := sc.Health.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if sc.NATS != nil {
		if err := sc.NATS.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if sc.MQTT != nil {
		if err := sc.MQTT.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if sc.Store != nil {
		if err := sc.Store.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
