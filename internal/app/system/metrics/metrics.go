// Package metrics owns the Prometheus registry for the API process.
// Methods on a nil *Metrics are no-ops so stores and services can run
// without instrumentation in tests.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "standupconnect"

// Metrics groups the collectors exposed on /metrics.
type Metrics struct {
	Registry *prometheus.Registry

	httpInFlight prometheus.Gauge
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	transitions *prometheus.CounterVec
	emails      *prometheus.CounterVec
	reminders   *prometheus.CounterVec
	reconcile   *prometheus.CounterVec
	credited    prometheus.Counter
}

// New builds a registry with process and Go runtime collectors plus the
// application collectors.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		}, []string{"method", "route"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "applications",
			Name:      "status_transitions_total",
			Help:      "Application status changes by source and target status.",
		}, []string{"from", "to"}),
		emails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mail",
			Name:      "messages_total",
			Help:      "Outbound email attempts by kind and outcome.",
		}, []string{"kind", "outcome"}),
		reminders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reminders",
			Name:      "sent_total",
			Help:      "Event reminders claimed and dispatched, by window.",
		}, []string{"window"}),
		reconcile: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reconcile",
			Name:      "runs_total",
			Help:      "Completed-event reconciliation runs by outcome.",
		}, []string{"outcome"}),
		credited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reconcile",
			Name:      "participations_credited_total",
			Help:      "Participations credited to comedians by reconciliation.",
		}),
	}

	m.Registry.MustRegister(
		m.httpInFlight,
		m.httpRequests,
		m.httpDuration,
		m.transitions,
		m.emails,
		m.reminders,
		m.reconcile,
		m.credited,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// Instrument records request counts and latency, labelled by chi route
// pattern so path parameters do not explode cardinality.
func (m *Metrics) Instrument(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		m.httpInFlight.Inc()
		defer m.httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		route := routePattern(r)
		method := strings.ToUpper(r.Method)
		m.httpRequests.WithLabelValues(method, route, strconv.Itoa(rec.status)).Inc()
		m.httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	})
}

// StatusTransition counts an application moving from one status to another.
// from is empty for newly created applications.
func (m *Metrics) StatusTransition(from, to string) {
	if m == nil {
		return
	}
	if from == "" {
		from = "NONE"
	}
	if to == "" {
		to = "NONE"
	}
	m.transitions.WithLabelValues(from, to).Inc()
}

// Email counts one send attempt. outcome is "sent", "failed" or "dropped".
func (m *Metrics) Email(kind, outcome string) {
	if m == nil {
		return
	}
	if kind == "" {
		kind = "other"
	}
	m.emails.WithLabelValues(kind, outcome).Inc()
}

// Reminder counts one dispatched reminder for window (j3, j1, h2).
func (m *Metrics) Reminder(window string) {
	if m == nil {
		return
	}
	m.reminders.WithLabelValues(window).Inc()
}

// ReconcileRun counts one reconciliation pass and the participations it credited.
func (m *Metrics) ReconcileRun(ok bool, credited int) {
	if m == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	m.reconcile.WithLabelValues(outcome).Inc()
	if credited > 0 {
		m.credited.Add(float64(credited))
	}
}

func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
