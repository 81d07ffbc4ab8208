// Package detection supervises one external detection worker per camera and
// routes the events they emit into alert ingestion.
package detection

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"firewatch-worker-go/internal/config"
	"firewatch-worker-go/internal/logging"
	"firewatch-worker-go/internal/metrics"
	"firewatch-worker-go/internal/models"
	"firewatch-worker-go/internal/services/eventstream"
)

// CameraResolver looks up the directory record of a camera.
// Unknown cameras return an error wrapping models.ErrNotFound.
type CameraResolver interface {
	Resolve(ctx context.Context, cameraID string) (models.CameraContext, error)
}

// EventSink receives qualifying detection events, in order, per camera
type EventSink interface {
	Ingest(ctx context.Context, cameraID string, ev *models.DetectionEvent) (*models.Alert, error)
}

// StatusReporter is told when a camera gains or loses its worker
type StatusReporter interface {
	SetCameraServing(cameraID string, serving bool)
}

// ProcessStats samples resource usage of a worker process
type ProcessStats func(pid int) (rssBytes uint64, cpuPercent float64, ok bool)

type Settings struct {
	OutputDir      string
	APIURL         string
	StopTimeout    time.Duration
	MaxWorkers     int
	HeartbeatStale time.Duration
	MaxLineBytes   int
	EventBuffer    int
}

// SettingsFrom extracts the supervisor settings from the service config
func SettingsFrom(cfg *config.Config) Settings {
	return Settings{
		OutputDir:      cfg.WorkerOutputDir,
		APIURL:         cfg.APIURL,
		StopTimeout:    cfg.WorkerStopTimeout,
		MaxWorkers:     cfg.MaxWorkers,
		HeartbeatStale: cfg.HeartbeatStaleThreshold,
		MaxLineBytes:   cfg.WorkerMaxLineBytes,
		EventBuffer:    cfg.WorkerEventBuffer,
	}
}

type Option func(*Supervisor)

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Supervisor) { s.metrics = m }
}

func WithStatusReporter(r StatusReporter) Option {
	return func(s *Supervisor) { s.reporter = r }
}

func WithProcessStats(fn ProcessStats) Option {
	return func(s *Supervisor) { s.procStats = fn }
}

func WithClock(now func() time.Time) Option {
	return func(s *Supervisor) { s.now = now }
}

// Supervisor owns the camera -> worker registry. At most one worker runs per
// camera; the check, the spawn and the registration of Start happen in one
// critical section.
type Supervisor struct {
	settings  Settings
	resolver  CameraResolver
	launcher  Launcher
	sink      EventSink
	reporter  StatusReporter
	metrics   *metrics.Metrics
	procStats ProcessStats
	now       func() time.Time
	logger    zerolog.Logger

	mu      sync.Mutex
	workers map[string]*workerHandle
	closed  bool

	wg sync.WaitGroup
}

func NewSupervisor(settings Settings, resolver CameraResolver, launcher Launcher, sink EventSink, logger zerolog.Logger, opts ...Option) *Supervisor {
	if settings.HeartbeatStale <= 0 {
		settings.HeartbeatStale = 30 * time.Second
	}
	s := &Supervisor{
		settings: settings,
		resolver: resolver,
		launcher: launcher,
		sink:     sink,
		now:      time.Now,
		logger:   logger,
		workers:  make(map[string]*workerHandle),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start launches a worker for cameraID. It returns as soon as the process is
// running; events are consumed in the background.
func (s *Supervisor) Start(ctx context.Context, cameraID string, settings models.WorkerSettings) (models.WorkerStatus, error) {
	if cameraID == "" {
		return models.WorkerStatus{}, fmt.Errorf("%w: camera id is required", models.ErrInvalidInput)
	}
	if err := settings.Validate(); err != nil {
		return models.WorkerStatus{}, err
	}

	camera, err := s.resolver.Resolve(ctx, cameraID)
	if err != nil {
		s.metrics.WorkerStart("not_found")
		return models.WorkerStatus{}, err
	}
	streamURL, err := camera.StreamSource()
	if err != nil {
		return models.WorkerStatus{}, err
	}

	spec := LaunchSpec{
		CameraID:  cameraID,
		TenantID:  camera.TenantID,
		BranchID:  camera.BranchID,
		StreamURL: streamURL,
		OutputDir: s.settings.OutputDir,
		APIURL:    s.settings.APIURL,
		Settings:  settings,
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return models.WorkerStatus{}, fmt.Errorf("%w: supervisor is shutting down", models.ErrConflict)
	}
	if _, exists := s.workers[cameraID]; exists {
		s.mu.Unlock()
		s.metrics.WorkerStart("conflict")
		return models.WorkerStatus{}, fmt.Errorf("%w: detection already running for camera %s", models.ErrConflict, cameraID)
	}
	if s.settings.MaxWorkers > 0 && len(s.workers) >= s.settings.MaxWorkers {
		s.mu.Unlock()
		s.metrics.WorkerStart("conflict")
		return models.WorkerStatus{}, fmt.Errorf("%w: worker limit of %d reached", models.ErrConflict, s.settings.MaxWorkers)
	}

	proc, err := s.launcher.Launch(spec)
	if err != nil {
		s.mu.Unlock()
		s.metrics.WorkerStart("spawn_failed")
		s.logger.Error().Err(err).Str("camera_id", cameraID).Msg("Failed to spawn detection worker")
		return models.WorkerStatus{}, fmt.Errorf("%w: camera %s: %v", models.ErrSpawnFailure, cameraID, err)
	}

	now := s.now()
	h := newWorkerHandle(camera, proc, settings, now, logging.WithWorker(s.logger, cameraID, proc.PID()))
	s.workers[cameraID] = h
	s.wg.Add(1)
	s.reportLocked(cameraID, true)
	st := h.status(now, s.settings.HeartbeatStale)
	s.mu.Unlock()

	s.metrics.WorkerStart("started")
	h.logger.Info().
		Str("stream_url", streamURL).
		Int("sensitivity", settings.Sensitivity).
		Int("min_confidence", settings.MinConfidence).
		Msg("Detection worker started")

	go s.watch(h)
	return st, nil
}

// Stop removes the camera's worker from the registry and asks the process to
// exit. It does not wait for the exit.
func (s *Supervisor) Stop(cameraID string) error {
	s.mu.Lock()
	h, ok := s.workers[cameraID]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: no detection running for camera %s", models.ErrNotFound, cameraID)
	}
	delete(s.workers, cameraID)
	h.stopping.Store(true)
	s.reportLocked(cameraID, false)
	s.mu.Unlock()

	h.logger.Info().Msg("Stopping detection worker")
	s.terminate(h)
	return nil
}

// terminate sends SIGTERM and escalates to SIGKILL after the stop timeout
func (s *Supervisor) terminate(h *workerHandle) {
	if err := h.process.Terminate(); err != nil {
		h.logger.Debug().Err(err).Msg("Terminate failed, process may have exited already")
	}
	if s.settings.StopTimeout <= 0 {
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		timer := time.NewTimer(s.settings.StopTimeout)
		defer timer.Stop()
		select {
		case <-h.done:
		case <-timer.C:
			h.logger.Warn().Dur("timeout", s.settings.StopTimeout).Msg("Worker ignored SIGTERM, killing")
			if err := h.process.Kill(); err != nil {
				h.logger.Error().Err(err).Msg("Failed to kill worker")
			}
		}
	}()
}

// Status is a pure read of the registry
func (s *Supervisor) Status(cameraID string) models.WorkerStatus {
	s.mu.Lock()
	h, ok := s.workers[cameraID]
	s.mu.Unlock()
	if !ok {
		return models.WorkerStatus{IsActive: false, CameraID: cameraID}
	}
	return s.statusOf(h)
}

// List returns the status of every registered worker, ordered by camera id
func (s *Supervisor) List() []models.WorkerStatus {
	s.mu.Lock()
	handles := make([]*workerHandle, 0, len(s.workers))
	for _, h := range s.workers {
		handles = append(handles, h)
	}
	s.mu.Unlock()

	sort.Slice(handles, func(i, j int) bool { return handles[i].cameraID < handles[j].cameraID })
	out := make([]models.WorkerStatus, 0, len(handles))
	for _, h := range handles {
		out = append(out, s.statusOf(h))
	}
	return out
}

// RecordHeartbeat updates liveness data for workers that report over HTTP
func (s *Supervisor) RecordHeartbeat(cameraID string, framesProcessed int64, state string) error {
	s.mu.Lock()
	h, ok := s.workers[cameraID]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: no detection running for camera %s", models.ErrNotFound, cameraID)
	}
	h.recordHeartbeat(s.now(), framesProcessed, state)
	return nil
}

// ActiveCount returns the number of registered workers
func (s *Supervisor) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.workers)
}

// Shutdown stops every worker and waits for their streams to finish or ctx
// to expire. Start is rejected afterwards.
func (s *Supervisor) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	handles := make([]*workerHandle, 0, len(s.workers))
	for id, h := range s.workers {
		handles = append(handles, h)
		h.stopping.Store(true)
		delete(s.workers, id)
		s.reportLocked(id, false)
	}
	s.mu.Unlock()

	if len(handles) > 0 {
		s.logger.Info().Int("workers", len(handles)).Msg("Stopping all detection workers")
	}
	for _, h := range handles {
		s.terminate(h)
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("detection workers did not exit: %w", ctx.Err())
	}
}

func (s *Supervisor) statusOf(h *workerHandle) models.WorkerStatus {
	st := h.status(s.now(), s.settings.HeartbeatStale)
	if s.procStats != nil && st.PID > 0 {
		if rss, cpu, ok := s.procStats(st.PID); ok {
			st.RSSBytes = rss
			st.CPUPercent = cpu
		}
	}
	return st
}

// reportLocked must be called with s.mu held
func (s *Supervisor) reportLocked(cameraID string, serving bool) {
	if s.reporter != nil {
		s.reporter.SetCameraServing(cameraID, serving)
	}
	s.metrics.SetWorkersActive(len(s.workers))
}

// watch drains the worker's stdout, then reaps the process
func (s *Supervisor) watch(h *workerHandle) {
	defer s.wg.Done()
	defer close(h.done)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	decoder := eventstream.NewDecoder(h.logger,
		eventstream.WithMaxLineBytes(s.settings.MaxLineBytes),
		eventstream.WithBuffer(s.settings.EventBuffer),
		eventstream.WithMetrics(s.metrics),
	)

	for ev := range decoder.Decode(ctx, h.process.Stdout()) {
		switch ev.Type {
		case models.WorkerEventDetection:
			s.handleDetection(ctx, h, ev.Detection)
		case models.WorkerEventHeartbeat:
			at := ev.Heartbeat.Timestamp
			if at.IsZero() || at.After(s.now()) {
				at = s.now()
			}
			h.recordHeartbeat(at, ev.Heartbeat.FramesProcessed, ev.Heartbeat.Status)
		}
	}

	s.reconcile(h, h.process.Wait())
}

func (s *Supervisor) handleDetection(ctx context.Context, h *workerHandle, ev *models.DetectionEvent) {
	if !h.settings.Qualifies(ev) {
		h.logger.Debug().
			Float64("confidence", ev.Confidence).
			Int("min_confidence", h.settings.MinConfidence).
			Msg("Detection below threshold")
		return
	}
	if ev.UserID == "" {
		ev.UserID = h.settings.UserID
	}

	alert, err := s.sink.Ingest(ctx, h.cameraID, ev)
	if err != nil {
		h.logger.Error().Err(err).Float64("confidence", ev.Confidence).Msg("Failed to ingest detection")
		return
	}
	h.logger.Info().
		Uint64("alert_id", alert.ID).
		Str("severity", string(alert.Severity)).
		Float64("confidence", alert.Confidence).
		Msg("Fire alert raised")
}

// reconcile frees the slot only if it still holds this exact handle, so the
// exit of a stopped or replaced worker never touches its successor.
func (s *Supervisor) reconcile(h *workerHandle, waitErr error) {
	s.mu.Lock()
	current, ok := s.workers[h.cameraID]
	owned := ok && current == h
	if owned {
		delete(s.workers, h.cameraID)
		s.reportLocked(h.cameraID, false)
	}
	s.mu.Unlock()

	code := exitCode(waitErr)
	uptime := s.now().Sub(h.startTime)

	switch {
	case h.stopping.Load():
		s.metrics.WorkerExit("stopped")
		h.logger.Info().Int("exit_code", code).Dur("uptime", uptime).Msg("Detection worker exited after stop")
	case !owned:
		s.metrics.WorkerExit("replaced")
		h.logger.Debug().Int("exit_code", code).Msg("Exit of a worker no longer registered")
	case waitErr == nil:
		s.metrics.WorkerExit("clean")
		h.logger.Warn().Dur("uptime", uptime).Msg("Detection worker exited on its own")
	default:
		s.metrics.WorkerExit("crashed")
		h.logger.Error().Err(waitErr).Int("exit_code", code).Dur("uptime", uptime).Msg("Detection worker crashed")
	}
}
