// Package metrics owns the Prometheus registry and the counters recorded by
// the session controller, the audit recorder and the HTTP layer.
package metrics

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "gophauth"

// Outcome labels.
const (
	OutcomeSuccess          = "success"
	OutcomeDuplicateEmail   = "duplicate_email"
	OutcomeInvalidEmail     = "invalid_email"
	OutcomeInvalidPassword  = "invalid_password"
	OutcomeInvalidInput     = "invalid_input"
	OutcomeStoreUnavailable = "store_unavailable"
	OutcomeError            = "error"
)

type Metrics struct {
	registry *prometheus.Registry

	Registrations   *prometheus.CounterVec
	Logins          *prometheus.CounterVec
	AuditWrites     *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// New creates a private registry with the Go and process collectors plus the
// service counters.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: reg,
		Registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registrations_total",
			Help:      "Registration attempts by outcome.",
		}, []string{"outcome"}),
		Logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Login attempts by outcome.",
		}, []string{"outcome"}),
		AuditWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_writes_total",
			Help:      "Audit log writes by sink and status.",
		}, []string{"sink", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route, method and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),
	}

	reg.MustRegister(m.Registrations, m.Logins, m.AuditWrites, m.RequestDuration)

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// Outcome maps a session controller error to its metric label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, common.ErrorDuplicateEmail):
		return OutcomeDuplicateEmail
	case errors.Is(err, common.ErrorInvalidEmail):
		return OutcomeInvalidEmail
	case errors.Is(err, common.ErrorInvalidPassword):
		return OutcomeInvalidPassword
	case errors.Is(err, common.ErrorEmailRequired), errors.Is(err, common.ErrorPasswordRequired):
		return OutcomeInvalidInput
	case errors.Is(err, common.ErrorStoreUnavailable):
		return OutcomeStoreUnavailable
	default:
		return OutcomeError
	}
}
