package detection

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
)

// ExecLauncher runs workers as child processes of this service
type ExecLauncher struct {
	command  string
	baseArgs []string
	logger   zerolog.Logger
}

func NewExecLauncher(command string, baseArgs []string, logger zerolog.Logger) *ExecLauncher {
	return &ExecLauncher{
		command:  command,
		baseArgs: append([]string(nil), baseArgs...),
		logger:   logger,
	}
}

// Launch starts the worker. The process is not bound to any request
// context; it lives until Terminate, Kill or its own exit.
func (l *ExecLauncher) Launch(spec LaunchSpec) (Process, error) {
	outputDir := filepath.Join(spec.OutputDir, spec.CameraID)
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}
	spec.OutputDir = outputDir

	args := append(append([]string(nil), l.baseArgs...), spec.Args()...)
	cmd := exec.Command(l.command, args...)
	cmd.Env = append(os.Environ(), "PYTHONUNBUFFERED=1")

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", l.command, err)
	}

	p := &execProcess{
		cmd:        cmd,
		stdout:     stdout,
		stderrDone: make(chan struct{}),
	}
	logger := l.logger.With().Str("camera_id", spec.CameraID).Int("pid", cmd.Process.Pid).Logger()
	go p.logStderr(stderr, logger)

	return p, nil
}

type execProcess struct {
	cmd        *exec.Cmd
	stdout     io.ReadCloser
	stderrDone chan struct{}
}

func (p *execProcess) PID() int          { return p.cmd.Process.Pid }
func (p *execProcess) Stdout() io.Reader { return p.stdout }

func (p *execProcess) Wait() error {
	// exec closes the pipes in Wait, so stderr must be fully read first
	<-p.stderrDone
	return p.cmd.Wait()
}

func (p *execProcess) Terminate() error {
	return p.cmd.Process.Signal(syscall.SIGTERM)
}

func (p *execProcess) Kill() error {
	return p.cmd.Process.Kill()
}

// logStderr maps the worker's Python log levels onto ours:
// [ERROR]/[CRITICAL] -> error, [WARNING] -> warn, anything else -> debug
func (p *execProcess) logStderr(r io.Reader, logger zerolog.Logger) {
	defer close(p.stderrDone)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case containsAny(line, "[ERROR]", "[CRITICAL]", "Traceback"):
			logger.Error().Str("log", line).Msg("Worker error")
		case containsAny(line, "[WARNING]", "[WARN]"):
			logger.Warn().Str("log", line).Msg("Worker warning")
		default:
			logger.Debug().Str("log", line).Msg("Worker log")
		}
	}
	if err := scanner.Err(); err != nil {
		logger.Warn().Err(err).Msg("Error reading worker stderr")
		// keep draining so the child never blocks on a full pipe
		_, _ = io.Copy(io.Discard, r)
	}
}

func containsAny(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// exitCode extracts the process exit status from a Wait error, -1 if unknown
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
