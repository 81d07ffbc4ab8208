package detection

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"firewatch-worker-go/internal/models"
)

var (
	errTerminated = errors.New("signal: terminated")
	errKilled     = errors.New("signal: killed")
)

// fakeProcess is a worker whose output and exit are driven by the test
type fakeProcess struct {
	pid             int
	stdoutR         *io.PipeReader
	stdoutW         *io.PipeWriter
	exitOnTerminate bool

	once       sync.Once
	exited     chan struct{}
	exitErr    error
	terminated atomic.Bool
	killed     atomic.Bool
}

func newFakeProcess(pid int, exitOnTerminate bool) *fakeProcess {
	r, w := io.Pipe()
	return &fakeProcess{
		pid:             pid,
		stdoutR:         r,
		stdoutW:         w,
		exitOnTerminate: exitOnTerminate,
		exited:          make(chan struct{}),
	}
}

func (p *fakeProcess) PID() int          { return p.pid }
func (p *fakeProcess) Stdout() io.Reader { return p.stdoutR }

func (p *fakeProcess) Wait() error {
	<-p.exited
	return p.exitErr
}

func (p *fakeProcess) Terminate() error {
	p.terminated.Store(true)
	if p.exitOnTerminate {
		p.exit(errTerminated)
	}
	return nil
}

func (p *fakeProcess) Kill() error {
	p.killed.Store(true)
	p.exit(errKilled)
	return nil
}

// emit writes one line of worker output; it blocks until the supervisor reads it
func (p *fakeProcess) emit(line string) {
	_, _ = p.stdoutW.Write([]byte(line + "\n"))
}

func (p *fakeProcess) exit(err error) {
	p.once.Do(func() {
		p.exitErr = err
		_ = p.stdoutW.Close()
		close(p.exited)
	})
}

func (p *fakeProcess) hasExited() bool {
	select {
	case <-p.exited:
		return true
	default:
		return false
	}
}

type fakeLauncher struct {
	mu              sync.Mutex
	specs           []LaunchSpec
	procs           []*fakeProcess
	err             error
	delay           time.Duration
	exitOnTerminate bool
}

func (l *fakeLauncher) Launch(spec LaunchSpec) (Process, error) {
	if l.delay > 0 {
		time.Sleep(l.delay)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	p := newFakeProcess(1000+len(l.procs), l.exitOnTerminate)
	l.specs = append(l.specs, spec)
	l.procs = append(l.procs, p)
	return p, nil
}

func (l *fakeLauncher) launchCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.procs)
}

func (l *fakeLauncher) proc(i int) *fakeProcess {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.procs[i]
}

type fakeResolver struct {
	cameras map[string]models.CameraContext
}

func (r *fakeResolver) Resolve(_ context.Context, cameraID string) (models.CameraContext, error) {
	c, ok := r.cameras[cameraID]
	if !ok {
		return models.CameraContext{}, fmt.Errorf("%w: camera %s", models.ErrNotFound, cameraID)
	}
	return c, nil
}

type ingested struct {
	cameraID   string
	confidence float64
	userID     string
}

type fakeSink struct {
	mu     sync.Mutex
	events []ingested
	err    error
	nextID uint64
}

func (s *fakeSink) Ingest(_ context.Context, cameraID string, ev *models.DetectionEvent) (*models.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	s.nextID++
	s.events = append(s.events, ingested{cameraID: cameraID, confidence: ev.Confidence, userID: ev.UserID})
	return &models.Alert{
		ID:         s.nextID,
		CameraID:   cameraID,
		Confidence: ev.Confidence,
		Severity:   models.SeverityFor(ev.Confidence),
	}, nil
}

func (s *fakeSink) snapshot() []ingested {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ingested(nil), s.events...)
}

type fakeReporter struct {
	mu      sync.Mutex
	serving map[string]bool
}

func (r *fakeReporter) SetCameraServing(cameraID string, serving bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.serving == nil {
		r.serving = make(map[string]bool)
	}
	r.serving[cameraID] = serving
}

func (r *fakeReporter) get(cameraID string) (bool, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.serving[cameraID]
	return v, ok
}
