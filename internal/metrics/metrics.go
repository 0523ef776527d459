package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all prometheus instruments of the runtime. Construct exactly
// once per process; components tolerate a nil *Metrics for tests.
type Metrics struct {
	EventsTotal           *prometheus.CounterVec
	TelemetrySamplesTotal *prometheus.CounterVec
	AlertsTotal           *prometheus.CounterVec
	LifecycleTransitions  *prometheus.CounterVec
	StreamClients         prometheus.Gauge
	BaselineValue         *prometheus.GaugeVec
	DetectionDuration     prometheus.Histogram
}

func New() *Metrics {
	return &Metrics{
		EventsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "secops_events_total",
				Help: "Total security events created",
			},
			[]string{"type", "severity"},
		),
		TelemetrySamplesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "secops_telemetry_samples_total",
				Help: "Total telemetry samples ingested",
			},
			[]string{"source"},
		),
		AlertsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "secops_alerts_total",
				Help: "Total alert dispatch attempts",
			},
			[]string{"channel", "outcome"},
		),
		LifecycleTransitions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "secops_lifecycle_transitions_total",
				Help: "Total automatic event status transitions",
			},
			[]string{"status"},
		),
		StreamClients: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "secops_stream_clients",
				Help: "Currently connected stream subscribers",
			},
		),
		BaselineValue: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "secops_baseline_value",
				Help: "Current rolling baseline per metric",
			},
			[]string{"metric"},
		),
		DetectionDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "secops_detection_duration_seconds",
				Help:    "Time spent evaluating detection rules per sample",
				Buckets: prometheus.DefBuckets,
			},
		),
	}
}

// ObserveEvent records a created event. Safe on a nil receiver.
func (m *Metrics) ObserveEvent(eventType, severity string) {
	if m == nil {
		return
	}
	m.EventsTotal.WithLabelValues(eventType, severity).Inc()
}

// ObserveSample records an ingested telemetry sample. Safe on a nil receiver.
func (m *Metrics) ObserveSample(source string) {
	if m == nil {
		return
	}
	m.TelemetrySamplesTotal.WithLabelValues(source).Inc()
}

// ObserveAlert records an alert dispatch outcome. Safe on a nil receiver.
func (m *Metrics) ObserveAlert(channel, outcome string) {
	if m == nil {
		return
	}
	m.AlertsTotal.WithLabelValues(channel, outcome).Inc()
}

// ObserveTransition records an automatic status transition. Safe on nil.
func (m *Metrics) ObserveTransition(status string) {
	if m == nil {
		return
	}
	m.LifecycleTransitions.WithLabelValues(status).Inc()
}

// SetBaseline publishes the current baseline for a metric. Safe on nil.
func (m *Metrics) SetBaseline(metric string, value float64) {
	if m == nil {
		return
	}
	m.BaselineValue.WithLabelValues(metric).Set(value)
}

// ObserveDetection records detection latency in seconds. Safe on nil.
func (m *Metrics) ObserveDetection(seconds float64) {
	if m == nil {
		return
	}
	m.DetectionDuration.Observe(seconds)
}

// AddStreamClient adjusts the subscriber gauge. Safe on a nil receiver.
func (m *Metrics) AddStreamClient(delta float64) {
	if m == nil {
		return
	}
	m.StreamClients.Add(delta)
}
