package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeverityFor(t *testing.T) {
	tests := []struct {
		confidence float64
		want       Severity
	}{
		{0.95, SeverityCritical},
		{0.90, SeverityCritical},
		{0.89, SeverityHigh},
		{0.85, SeverityHigh},
		{0.80, SeverityHigh},
		{0.75, SeverityMedium},
		{0.70, SeverityMedium},
		{0.69, SeverityLow},
		{0.50, SeverityLow},
		{0, SeverityLow},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, SeverityFor(tt.confidence), "confidence %.2f", tt.confidence)
	}
}

func TestAlertStatusTerminal(t *testing.T) {
	assert.False(t, AlertStatusActive.IsTerminal())
	assert.True(t, AlertStatusResolved.IsTerminal())
	assert.True(t, AlertStatusFalsePositive.IsTerminal())
	assert.False(t, AlertStatus("archived").IsValid())
}

func TestFireTypeNormalize(t *testing.T) {
	assert.Equal(t, FireTypeFlame, FireType("").Normalize())
	assert.Equal(t, FireTypeFlame, FireType("lava").Normalize())
	assert.Equal(t, FireTypeSmoke, FireTypeSmoke.Normalize())
	assert.Equal(t, FireTypeBoth, FireTypeBoth.Normalize())
}

func TestAlertFilterPaging(t *testing.T) {
	f := AlertFilter{}.Normalize()
	assert.Equal(t, DefaultPageLimit, f.Limit)
	assert.Equal(t, 1, f.Page)

	f = AlertFilter{Limit: 10, Page: 3}
	assert.Equal(t, 20, f.Offset())

	assert.Equal(t, MaxPageLimit, AlertFilter{Limit: 100000}.Normalize().Limit)
}

func TestWorkerSettings(t *testing.T) {
	require.NoError(t, WorkerSettings{Sensitivity: 60, MinConfidence: 70}.Validate())

	err := WorkerSettings{Sensitivity: 120}.Validate()
	assert.ErrorIs(t, err, ErrInvalidInput)

	s := WorkerSettings{MinConfidence: 70}
	assert.True(t, s.Qualifies(&DetectionEvent{Confidence: 0.7}))
	assert.False(t, s.Qualifies(&DetectionEvent{Confidence: 0.69}))
}

func TestQualifiesAtExactThreshold(t *testing.T) {
	for pct := 0; pct <= 100; pct++ {
		s := WorkerSettings{MinConfidence: pct}
		confidence := float64(pct) / 100
		assert.True(t, s.Qualifies(&DetectionEvent{Confidence: confidence}), "confidence %v at min_confidence %d", confidence, pct)
		if pct > 0 {
			assert.False(t, s.Qualifies(&DetectionEvent{Confidence: confidence - 0.0001}), "just below %d", pct)
		}
	}

	s := WorkerSettings{MinConfidence: 57}
	assert.True(t, s.Qualifies(&DetectionEvent{Confidence: 0.57}))
	assert.False(t, s.Qualifies(&DetectionEvent{Confidence: 0.5699}))
}

func TestCameraStreamSource(t *testing.T) {
	src, err := CameraContext{CameraID: "c1", StreamURL: "rtsp://cam/1"}.StreamSource()
	require.NoError(t, err)
	assert.Equal(t, "rtsp://cam/1", src)

	src, err = CameraContext{CameraID: "c2", IPAddress: "10.0.0.5"}.StreamSource()
	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.5:8080/video", src)

	src, err = CameraContext{CameraID: "c3", IPAddress: "10.0.0.6", Port: 554}.StreamSource()
	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.6:554/video", src)

	_, err = CameraContext{CameraID: "c4"}.StreamSource()
	assert.ErrorIs(t, err, ErrInvalidInput)
}
