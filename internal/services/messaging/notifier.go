// Package messaging fans persisted alerts out to real-time listeners.
package messaging

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"firewatch-worker-go/internal/metrics"
	"firewatch-worker-go/internal/models"
)

// AlertNotifier delivers one alert to one channel
type AlertNotifier interface {
	Name() string
	NotifyAlert(ctx context.Context, alert *models.Alert) error
}

// AlertMessage is the payload listeners receive
type AlertMessage struct {
	Event    string        `json:"event"`
	WorkerID string        `json:"worker_id"`
	SentAt   time.Time     `json:"sent_at"`
	Alert    *models.Alert `json:"alert"`
}

func NewAlertMessage(alert *models.Alert, workerID string) AlertMessage {
	return AlertMessage{
		Event:    "fire_alert",
		WorkerID: workerID,
		SentAt:   time.Now().UTC(),
		Alert:    alert,
	}
}

// AlertSubject builds the NATS subject for a camera. NATS tokens cannot
// contain '.', '*', '>' or whitespace.
func AlertSubject(prefix, cameraID string) string {
	return prefix + "." + sanitizeToken(cameraID, ".*> \t")
}

// MQTTTopic builds the MQTT topic for a camera
func MQTTTopic(prefix, cameraID string) string {
	return strings.TrimRight(prefix, "/") + "/" + sanitizeToken(cameraID, "/+#")
}

func sanitizeToken(s, forbidden string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(forbidden, r) {
			return '_'
		}
		return r
	}, s)
}

// Fanout delivers each alert to every configured notifier. Failures are
// logged and counted; nothing is retried.
type Fanout struct {
	notifiers []AlertNotifier
	timeout   time.Duration
	metrics   *metrics.Metrics
	logger    zerolog.Logger
}

func NewFanout(logger zerolog.Logger, m *metrics.Metrics, notifiers ...AlertNotifier) *Fanout {
	return &Fanout{
		notifiers: notifiers,
		timeout:   5 * time.Second,
		metrics:   m,
		logger:    logger,
	}
}

// Add registers another notifier
func (f *Fanout) Add(n AlertNotifier) {
	f.notifiers = append(f.notifiers, n)
}

// Len returns the number of notifiers
func (f *Fanout) Len() int { return len(f.notifiers) }

func (f *Fanout) NotifyAlert(ctx context.Context, alert *models.Alert) error {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	var errs []error
	for _, n := range f.notifiers {
		if err := n.NotifyAlert(ctx, alert); err != nil {
			f.metrics.NotifyError(n.Name())
			f.logger.Warn().Err(err).
				Str("channel", n.Name()).
				Uint64("alert_id", alert.ID).
				Msg("Alert notification failed")
			errs = append(errs, fmt.Errorf("%s: %w", n.Name(), err))
		}
	}
	return errors.Join(errs...)
}
