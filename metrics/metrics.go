// Package metrics counts remote API traffic and inventory mutations. A CLI
// run is too short-lived to be scraped, so the registry is written to a
// node_exporter textfile when the process exits.
package metrics

import (
	"strconv"
	"time"

	"github.com/kasuganosora/vaultctl/audit"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics owns a private registry so tests and repeated runs in one process
// never collide on the global one.
type Metrics struct {
	registry *prometheus.Registry

	apiRequests      *prometheus.CounterVec
	apiDuration      *prometheus.HistogramVec
	mutations        *prometheus.CounterVec
	mutationDuration *prometheus.HistogramVec
}

// New creates and registers every metric.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		apiRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vaultctl_api_requests_total",
				Help: "Remote API requests by endpoint and HTTP status class",
			},
			[]string{"endpoint", "status"},
		),
		apiDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "vaultctl_api_request_duration_seconds",
				Help:    "Remote API request latency",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 8), // 50ms to 6.4s
			},
			[]string{"endpoint"},
		),
		mutations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vaultctl_mutations_total",
				Help: "Transfer and equip calls by action and result",
			},
			[]string{"action", "result"},
		),
		mutationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "vaultctl_mutation_duration_seconds",
				Help:    "Transfer and equip call latency",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 8),
			},
			[]string{"action"},
		),
	}
}

// Registry exposes the registry for gathering.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// ObserveRequest records one API round trip. status is 0 when the request
// never got a response.
func (m *Metrics) ObserveRequest(endpoint string, status int, took time.Duration) {
	m.apiRequests.WithLabelValues(endpoint, statusClass(status)).Inc()
	m.apiDuration.WithLabelValues(endpoint).Observe(took.Seconds())
}

// WriteTextfile writes the current values in the text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

func statusClass(status int) string {
	if status <= 0 {
		return "error"
	}
	return strconv.Itoa(status/100) + "xx"
}

// AuditLogger is what the transfer executor logs mutations to.
type AuditLogger interface {
	Log(entry audit.Entry)
}

// Auditor counts every mutation entry before passing it on.
type Auditor struct {
	Next    AuditLogger // may be nil
	Metrics *Metrics
}

func (a Auditor) Log(entry audit.Entry) {
	result := "ok"
	if entry.Error != "" {
		result = "failed"
	}
	a.Metrics.mutations.WithLabelValues(entry.Action, result).Inc()
	a.Metrics.mutationDuration.WithLabelValues(entry.Action).Observe(entry.Duration.Seconds())
	if a.Next != nil {
		a.Next.Log(entry)
	}
}
