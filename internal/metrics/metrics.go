// Package metrics declares the Prometheus collectors the server exports on /metrics.
//
// WHY A STRUCT INSTEAD OF PACKAGE-LEVEL promauto VARS?
// promauto registers on the global registry, and registering the same metric
// name twice panics. Tests build many servers in one process, so each server
// gets its own registry and its own Metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Note operations counted in notes_operations_total.
const (
	OpCreate  = "create"
	OpUpdate  = "update"
	OpArchive = "archive"
	OpRestore = "restore"
	OpAttach  = "attach_tags"
	OpDetach  = "detach_tags"
	OpPurge   = "purge"
)

type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	NotesOperations     *prometheus.CounterVec
	AuthAttempts        *prometheus.CounterVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "route"},
		),
		NotesOperations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notes_operations_total",
				Help: "Total number of note operations",
			},
			[]string{"operation"},
		),
		AuthAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_attempts_total",
				Help: "Total number of authentication attempts",
			},
			[]string{"scheme", "status"}, // bearer/basic, success/failure
		),
	}
}

// NoteOperation counts one successful note operation. A nil *Metrics is a no-op,
// so services can run without metrics in tests.
func (m *Metrics) NoteOperation(op string) {
	if m == nil {
		return
	}
	m.NotesOperations.WithLabelValues(op).Inc()
}

// AuthAttempt counts one credential check.
func (m *Metrics) AuthAttempt(scheme string, ok bool) {
	if m == nil {
		return
	}
	status := "failure"
	if ok {
		status = "success"
	}
	m.AuthAttempts.WithLabelValues(scheme, status).Inc()
}
