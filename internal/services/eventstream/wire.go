package eventstream

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"firewatch-worker-go/internal/models"
)

// ErrDecodeSkip marks a line that carried no usable event. It never
// leaves the decoder except through DecodeLine.
var ErrDecodeSkip = errors.New("worker line skipped")

// Skip reasons, also used as metric labels
const (
	ReasonEmpty        = "empty"
	ReasonFreeText     = "free_text"
	ReasonInvalidJSON  = "invalid_json"
	ReasonMissingField = "missing_field"
	ReasonUnknownType  = "unknown_type"
	ReasonOversized    = "oversized"
)

// SkipError describes why a line was dropped
type SkipError struct {
	Reason string
	Cause  error
}

func (e *SkipError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", ErrDecodeSkip, e.Reason, e.Cause)
	}
	return fmt.Sprintf("%s: %s", ErrDecodeSkip, e.Reason)
}

func (e *SkipError) Unwrap() error { return ErrDecodeSkip }

func skip(reason string, cause error) error {
	return &SkipError{Reason: reason, Cause: cause}
}

// wireEvent is the union of fields any worker record may carry
type wireEvent struct {
	Type            string               `json:"type"`
	Confidence      *float64             `json:"confidence"`
	BoundingBoxes   []models.BoundingBox `json:"bounding_boxes"`
	SnapshotPath    string               `json:"snapshot_path"`
	FireType        string               `json:"fire_type"`
	Timestamp       eventTime            `json:"timestamp"`
	FramesProcessed int64                `json:"frames_processed"`
	Status          string               `json:"status"`
}

// eventTime accepts RFC3339 / ISO-8601 strings or epoch seconds
type eventTime struct {
	time.Time
}

var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

func (t *eventTime) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s == "" {
			return nil
		}
		for _, layout := range isoLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				t.Time = parsed.UTC()
				return nil
			}
		}
		return fmt.Errorf("unrecognized timestamp %q", s)
	}

	var secs float64
	if err := json.Unmarshal(b, &secs); err != nil {
		return fmt.Errorf("unrecognized timestamp %s", b)
	}
	whole, frac := math.Modf(secs)
	t.Time = time.Unix(int64(whole), int64(frac*1e9)).UTC()
	return nil
}

// DecodeLine turns one line of worker output into a structured event.
// Any line that is not a known event returns an error wrapping ErrDecodeSkip.
func DecodeLine(line []byte) (models.WorkerEvent, error) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return models.WorkerEvent{}, skip(ReasonEmpty, nil)
	}
	if line[0] != '{' {
		return models.WorkerEvent{}, skip(ReasonFreeText, nil)
	}

	var w wireEvent
	if err := json.Unmarshal(line, &w); err != nil {
		return models.WorkerEvent{}, skip(ReasonInvalidJSON, err)
	}

	switch models.WorkerEventType(w.Type) {
	case models.WorkerEventDetection:
		if w.Confidence == nil {
			return models.WorkerEvent{}, skip(ReasonMissingField, errors.New("detection without confidence"))
		}
		return models.WorkerEvent{
			Type: models.WorkerEventDetection,
			Detection: &models.DetectionEvent{
				Type:          models.WorkerEventDetection,
				Confidence:    *w.Confidence,
				BoundingBoxes: w.BoundingBoxes,
				SnapshotPath:  w.SnapshotPath,
				FireType:      models.FireType(w.FireType).Normalize(),
				Timestamp:     w.Timestamp.Time,
			},
		}, nil

	case models.WorkerEventHeartbeat:
		return models.WorkerEvent{
			Type: models.WorkerEventHeartbeat,
			Heartbeat: &models.HeartbeatEvent{
				FramesProcessed: w.FramesProcessed,
				Status:          w.Status,
				Timestamp:       w.Timestamp.Time,
			},
		}, nil

	default:
		return models.WorkerEvent{}, skip(ReasonUnknownType, fmt.Errorf("type %q", w.Type))
	}
}
