// Package metrics exposes Prometheus counters for store calls, cache
// lookups, deal status transitions and HTTP security events.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "dealtracker"

const (
	ResultOK    = "ok"
	ResultError = "error"
	ResultHit   = "hit"
	ResultMiss  = "miss"
)

// Metrics holds the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	storeOps    *prometheus.CounterVec
	cacheLookup *prometheus.CounterVec
	transitions *prometheus.CounterVec
	rateLimited *prometheus.CounterVec
	suspicious  *prometheus.CounterVec
	gatherer    prometheus.Gatherer
}

// New registers the collectors on reg. Passing a fresh prometheus.Registry
// keeps tests isolated from the global default registry.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		storeOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_operations_total",
			Help:      "Table store calls by table, operation and result.",
		}, []string{"table", "operation", "result"}),
		cacheLookup: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Table cache lookups by table and result.",
		}, []string{"table", "result"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "status_transitions_total",
			Help:      "Deal status writes by target status.",
		}, []string{"to"}),
		rateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the per-client rate limit, by method.",
		}, []string{"method"}),
		suspicious: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "suspicious_requests_total",
			Help:      "Requests that looked like vulnerability scans, by kind.",
		}, []string{"kind"}),
		gatherer: reg,
	}
	reg.MustRegister(m.storeOps, m.cacheLookup, m.transitions, m.rateLimited, m.suspicious)
	return m
}

// StoreOp counts one table store call.
func (m *Metrics) StoreOp(table, operation string, err error) {
	if m == nil {
		return
	}
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	m.storeOps.WithLabelValues(table, operation, result).Inc()
}

// CacheLookup matches cache.Observer.
func (m *Metrics) CacheLookup(table string, hit bool) {
	if m == nil {
		return
	}
	result := ResultMiss
	if hit {
		result = ResultHit
	}
	m.cacheLookup.WithLabelValues(table, result).Inc()
}

func (m *Metrics) StatusTransition(to string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(to).Inc()
}

func (m *Metrics) RateLimited(method string) {
	if m == nil {
		return
	}
	m.rateLimited.WithLabelValues(method).Inc()
}

// SuspiciousRequest counts a flagged request. kind is a small fixed set
// such as "pattern" or "agent".
func (m *Metrics) SuspiciousRequest(kind string) {
	if m == nil {
		return
	}
	m.suspicious.WithLabelValues(kind).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
