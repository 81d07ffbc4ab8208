// Package eventstream decodes the line-delimited JSON protocol that detection
// workers write to stdout.
package eventstream

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"

	"github.com/rs/zerolog"

	"firewatch-worker-go/internal/metrics"
	"firewatch-worker-go/internal/models"
)

const (
	defaultMaxLineBytes = 1024 * 1024
	defaultBuffer       = 16
	readBufferSize      = 64 * 1024
)

// Decoder converts a worker output stream into WorkerEvents
type Decoder struct {
	logger       zerolog.Logger
	metrics      *metrics.Metrics
	maxLineBytes int
	buffer       int
}

type Option func(*Decoder)

// WithMaxLineBytes drops lines longer than n bytes
func WithMaxLineBytes(n int) Option {
	return func(d *Decoder) {
		if n > 0 {
			d.maxLineBytes = n
		}
	}
}

// WithBuffer sets how many decoded events may wait for the consumer
func WithBuffer(n int) Option {
	return func(d *Decoder) {
		if n >= 0 {
			d.buffer = n
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Decoder) { d.metrics = m }
}

func NewDecoder(logger zerolog.Logger, opts ...Option) *Decoder {
	d := &Decoder{
		logger:       logger,
		maxLineBytes: defaultMaxLineBytes,
		buffer:       defaultBuffer,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Decode reads r until EOF, a read error or ctx cancellation and emits every
// structured event in order. Sends block when the consumer falls behind. The
// returned channel is closed when decoding stops. A Read blocked in r is not
// interrupted by ctx; close the underlying reader for that.
func (d *Decoder) Decode(ctx context.Context, r io.Reader) <-chan models.WorkerEvent {
	out := make(chan models.WorkerEvent, d.buffer)
	go func() {
		defer close(out)
		d.run(ctx, r, out)
	}()
	return out
}

func (d *Decoder) run(ctx context.Context, r io.Reader, out chan<- models.WorkerEvent) {
	br := bufio.NewReaderSize(r, readBufferSize)
	line := make([]byte, 0, 4096)
	oversized := false

	for {
		if ctx.Err() != nil {
			return
		}

		chunk, err := br.ReadSlice('\n')
		if len(chunk) > 0 && !oversized {
			if len(line)+len(chunk) > d.maxLineBytes {
				oversized = true
				line = line[:0]
			} else {
				line = append(line, chunk...)
			}
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}

		complete := err == nil || (errors.Is(err, io.EOF) && (len(line) > 0 || oversized))
		if complete {
			if oversized {
				d.skipped(&SkipError{Reason: ReasonOversized})
				oversized = false
			} else if !d.emit(ctx, line, out) {
				return
			}
			line = line[:0]
		}

		if err != nil {
			if !errors.Is(err, io.EOF) {
				d.logger.Warn().Err(err).Msg("Worker output read failed")
			}
			return
		}
	}
}

// emit decodes one line and sends it; false means ctx was cancelled
func (d *Decoder) emit(ctx context.Context, line []byte, out chan<- models.WorkerEvent) bool {
	ev, err := DecodeLine(line)
	if err != nil {
		var se *SkipError
		if errors.As(err, &se) && se.Reason == ReasonFreeText {
			d.logger.Debug().Str("line", truncate(bytes.TrimRight(line, "\r\n"), 256)).Msg("Worker output")
			d.metrics.LineSkipped(se.Reason)
			return true
		}
		d.skipped(err)
		return true
	}

	d.metrics.EventDecoded(string(ev.Type))
	select {
	case out <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

func (d *Decoder) skipped(err error) {
	var se *SkipError
	if !errors.As(err, &se) {
		return
	}
	switch se.Reason {
	case ReasonEmpty:
		return
	case ReasonUnknownType:
		d.logger.Debug().Err(err).Msg("Ignoring unknown worker event")
	default:
		d.logger.Warn().Err(err).Msg("Dropping malformed worker line")
	}
	d.metrics.LineSkipped(se.Reason)
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
