// Package metrics provides the Prometheus collectors for detection workers
// and the alert pipeline.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds every collector exported on /metrics.
// All recording methods are safe to call on a nil *Metrics.
type Metrics struct {
	WorkersActive      prometheus.Gauge
	WorkerStartsTotal  *prometheus.CounterVec // result: started, conflict, not_found, spawn_failed
	WorkerExitsTotal   *prometheus.CounterVec // reason: stopped, clean, crashed, replaced
	EventsDecodedTotal *prometheus.CounterVec // type
	EventsSkippedTotal *prometheus.CounterVec // reason
	AlertsIngested     *prometheus.CounterVec // severity
	IngestErrorsTotal  *prometheus.CounterVec // kind
	AlertTransitions   *prometheus.CounterVec // status
	NotifyErrorsTotal  *prometheus.CounterVec // channel

	registry *prometheus.Registry
}

// New creates the collectors and registers them with registry.
func New(registry *prometheus.Registry) (*Metrics, error) {
	m := &Metrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register firewatch metrics: %w", err)
	}
	return m, nil
}

func (m *Metrics) initMetrics() {
	m.WorkersActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "firewatch_workers_active",
		Help: "Number of detection worker processes currently registered",
	})
	m.WorkerStartsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "firewatch_worker_starts_total",
		Help: "Worker start requests by result",
	}, []string{"result"})
	m.WorkerExitsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "firewatch_worker_exits_total",
		Help: "Worker process exits by reason",
	}, []string{"reason"})
	m.EventsDecodedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "firewatch_worker_events_decoded_total",
		Help: "Structured worker events decoded by type",
	}, []string{"type"})
	m.EventsSkippedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "firewatch_worker_lines_skipped_total",
		Help: "Worker output lines dropped by the decoder by reason",
	}, []string{"reason"})
	m.AlertsIngested = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "firewatch_alerts_ingested_total",
		Help: "Alerts persisted by severity",
	}, []string{"severity"})
	m.IngestErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "firewatch_alert_ingest_errors_total",
		Help: "Alert ingestion failures by kind",
	}, []string{"kind"})
	m.AlertTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "firewatch_alert_transitions_total",
		Help: "Alert lifecycle transitions by target status",
	}, []string{"status"})
	m.NotifyErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "firewatch_alert_notify_errors_total",
		Help: "Real-time alert notification failures by channel",
	}, []string{"channel"})
}

// Describe implements prometheus.Collector.
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	for _, c := range m.collectors() {
		c.Describe(ch)
	}
}

// Collect implements prometheus.Collector.
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	for _, c := range m.collectors() {
		c.Collect(ch)
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.WorkersActive,
		m.WorkerStartsTotal,
		m.WorkerExitsTotal,
		m.EventsDecodedTotal,
		m.EventsSkippedTotal,
		m.AlertsIngested,
		m.IngestErrorsTotal,
		m.AlertTransitions,
		m.NotifyErrorsTotal,
	}
}

// Registry returns the registry the collectors were registered with
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) SetWorkersActive(n int) {
	if m == nil {
		return
	}
	m.WorkersActive.Set(float64(n))
}

func (m *Metrics) WorkerStart(result string) {
	if m == nil {
		return
	}
	m.WorkerStartsTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) WorkerExit(reason string) {
	if m == nil {
		return
	}
	m.WorkerExitsTotal.WithLabelValues(reason).Inc()
}

func (m *Metrics) EventDecoded(eventType string) {
	if m == nil {
		return
	}
	m.EventsDecodedTotal.WithLabelValues(eventType).Inc()
}

func (m *Metrics) LineSkipped(reason string) {
	if m == nil {
		return
	}
	m.EventsSkippedTotal.WithLabelValues(reason).Inc()
}

func (m *Metrics) AlertIngested(severity string) {
	if m == nil {
		return
	}
	m.AlertsIngested.WithLabelValues(severity).Inc()
}

func (m *Metrics) IngestError(kind string) {
	if m == nil {
		return
	}
	m.IngestErrorsTotal.WithLabelValues(kind).Inc()
}

func (m *Metrics) AlertTransition(status string) {
	if m == nil {
		return
	}
	m.AlertTransitions.WithLabelValues(status).Inc()
}

func (m *Metrics) NotifyError(channel string) {
	if m == nil {
		return
	}
	m.NotifyErrorsTotal.WithLabelValues(channel).Inc()
}
