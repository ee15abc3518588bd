// ABOUTME: Prometheus instrumentation for location resolution and storage
// ABOUTME: Nil-safe so callers can run without metrics

package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Resolution outcomes.
const (
	OutcomeResolved    = "resolved"
	OutcomeFailed      = "failed"
	OutcomeIncomplete  = "incomplete"
	OutcomeMissingGPS  = "missing_gps"
	OutcomeStoreFailed = "store_failed"
)

// Metrics holds the collectors for one repository.
type Metrics struct {
	registry    *prometheus.Registry
	resolutions *prometheus.CounterVec
	apiErrors   *prometheus.CounterVec
	latency     prometheus.Histogram
	stored      prometheus.Counter
	deleted     prometheus.Counter
}

// New creates the collectors and registers them on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "geolocation",
			Name:      "resolutions_total",
			Help:      "Location requests by outcome.",
		}, []string{"outcome"}),
		apiErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "geolocation",
			Name:      "api_embedded_errors_total",
			Help:      "Error objects embedded in otherwise successful geolocate responses.",
		}, []string{"code"}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "geolocation",
			Name:      "resolve_duration_seconds",
			Help:      "Duration of geolocate calls.",
			Buckets:   prometheus.DefBuckets,
		}),
		stored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "geolocation",
			Name:      "records_stored_total",
			Help:      "Location records inserted.",
		}),
		deleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "geolocation",
			Name:      "delete_requests_total",
			Help:      "Delete operations issued against the store.",
		}),
	}
	m.registry.MustRegister(m.resolutions, m.apiErrors, m.latency, m.stored, m.deleted)
	return m
}

// Registry exposes the registry for scraping and tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveResolution records the outcome of one NewLocation call.
func (m *Metrics) ObserveResolution(outcome string) {
	if m == nil {
		return
	}
	m.resolutions.WithLabelValues(outcome).Inc()
}

// ObserveAPIError counts an embedded error object.
func (m *Metrics) ObserveAPIError(code string) {
	if m == nil {
		return
	}
	m.apiErrors.WithLabelValues(code).Inc()
}

// ObserveLatency records how long a geolocate call took.
func (m *Metrics) ObserveLatency(d time.Duration) {
	if m == nil {
		return
	}
	m.latency.Observe(d.Seconds())
}

// RecordStored counts an inserted record.
func (m *Metrics) RecordStored() {
	if m == nil {
		return
	}
	m.stored.Inc()
}

// RecordDeleted counts a delete operation.
func (m *Metrics) RecordDeleted() {
	if m == nil {
		return
	}
	m.deleted.Inc()
}
