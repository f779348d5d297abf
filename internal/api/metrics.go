package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nerrad567/smarthouse-core/internal/device"
	"github.com/nerrad567/smarthouse-core/internal/infrastructure/database"
)

const metricsNamespace = "smarthouse"

// metrics holds the Prometheus collectors exposed on the metrics path.
// Each server owns its registry so tests can build several servers.
type metrics struct {
	registry *prometheus.Registry

	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec

	deviceState    *prometheus.GaugeVec
	deviceVariable *prometheus.GaugeVec
	events         *prometheus.CounterVec
}

func newMetrics(db *database.DB) *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route pattern and status code.",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by method and route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		deviceState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "device_state",
			Help:      "Device switch state (1 = on, 0 = off).",
		}, []string{"device_id", "room", "type"}),
		deviceVariable: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "device_variable",
			Help:      "Device variable reading.",
		}, []string{"device_id", "room", "type"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "events_total",
			Help:      "Domain events emitted by type.",
		}, []string{"type"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests,
		m.duration,
		m.deviceState,
		m.deviceVariable,
		m.events,
	)
	if db != nil {
		m.registry.MustRegister(collectors.NewDBStatsCollector(db.DB, "smarthouse"))
	}
	return m
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// setDevice records the current state and variable of d.
func (m *metrics) setDevice(d *device.Device) {
	state := 0.0
	if d.State {
		state = 1
	}
	m.deviceState.WithLabelValues(d.ID, d.Room, d.Type).Set(state)
	m.deviceVariable.WithLabelValues(d.ID, d.Room, d.Type).Set(float64(d.Variable))
}

// deleteDevice drops the series of a removed device.
func (m *metrics) deleteDevice(d *device.Device) {
	m.deviceState.DeleteLabelValues(d.ID, d.Room, d.Type)
	m.deviceVariable.DeleteLabelValues(d.ID, d.Room, d.Type)
}

// observeRequest counts a finished request and its latency per route
// pattern. Unmatched paths share the "unmatched" label to bound cardinality.
func (m *metrics) observeRequest(r *http.Request, status int, elapsed time.Duration) {
	route := "unmatched"
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			route = pattern
		}
	}
	m.requests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(r.Method, route).Observe(elapsed.Seconds())
}
