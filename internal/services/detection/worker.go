package detection

import (
	"io"
	"strconv"

	"firewatch-worker-go/internal/models"
)

// Process is a running detection worker
type Process interface {
	PID() int
	// Stdout carries the line-delimited event protocol. It reaches EOF when
	// the process exits.
	Stdout() io.Reader
	// Wait blocks until the process has exited. Call it only after Stdout
	// has been drained.
	Wait() error
	// Terminate asks the process to exit gracefully (SIGTERM)
	Terminate() error
	// Kill ends the process immediately
	Kill() error
}

// Launcher spawns detection workers
type Launcher interface {
	Launch(spec LaunchSpec) (Process, error)
}

// LaunchSpec is everything a worker needs to watch one camera
type LaunchSpec struct {
	CameraID  string
	TenantID  string
	BranchID  string
	StreamURL string
	OutputDir string
	// APIURL is where the worker may post heartbeats and alerts itself
	APIURL   string
	Settings models.WorkerSettings
}

// Args renders the spec as worker command line flags
func (s LaunchSpec) Args() []string {
	args := []string{
		"--stream-url", s.StreamURL,
		"--camera-id", s.CameraID,
		"--tenant-id", s.TenantID,
		"--branch-id", s.BranchID,
	}
	if s.Settings.UserID != "" {
		args = append(args, "--user-id", s.Settings.UserID)
	}
	if s.APIURL != "" {
		args = append(args, "--api-url", s.APIURL)
	}
	return append(args,
		"--sensitivity", strconv.Itoa(s.Settings.Sensitivity),
		"--min-confidence", strconv.Itoa(s.Settings.MinConfidence),
		"--output-dir", s.OutputDir,
		"--alert-sound="+strconv.FormatBool(s.Settings.AlertSoundEnabled),
		"--email-alert="+strconv.FormatBool(s.Settings.EmailAlertEnabled),
	)
}
