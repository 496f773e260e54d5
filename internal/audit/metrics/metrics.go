// Package metrics exposes Prometheus metrics for the compliance audit log.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for the audit chain.
type Metrics struct {
	AppendDuration  prometheus.Histogram
	AppendFailures  prometheus.Counter
	AppendConflicts prometheus.Counter
	EventsAppended  prometheus.Counter

	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter

	VerifyRuns       prometheus.Counter
	VerifyViolations *prometheus.CounterVec

	AnchorsComputed prometheus.Counter
	AnchorFailures  prometheus.Counter
}

var (
	metricsOnce     sync.Once
	metricsInstance *Metrics
)

// New returns the singleton Metrics instance with audit metrics registered.
// Safe to call multiple times; metrics are only registered once.
func New() *Metrics {
	metricsOnce.Do(func() {
		metricsInstance = &Metrics{
			AppendDuration: promauto.NewHistogram(prometheus.HistogramOpts{
				Name:    "ledgerline_audit_append_duration_seconds",
				Help:    "Time taken to chain and persist one compliance event",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			}),
			AppendFailures: promauto.NewCounter(prometheus.CounterOpts{
				Name: "ledgerline_audit_append_failures_total",
				Help: "Total number of failed compliance event appends (CRITICAL)",
			}),
			AppendConflicts: promauto.NewCounter(prometheus.CounterOpts{
				Name: "ledgerline_audit_append_conflicts_total",
				Help: "Total number of compare-and-append conflicts that triggered a retry",
			}),
			EventsAppended: promauto.NewCounter(prometheus.CounterOpts{
				Name: "ledgerline_audit_events_appended_total",
				Help: "Total number of compliance events successfully chained",
			}),
			CacheHits: promauto.NewCounter(prometheus.CounterOpts{
				Name: "ledgerline_audit_chain_cache_hits_total",
				Help: "Tail digest lookups served from the chain cache",
			}),
			CacheMisses: promauto.NewCounter(prometheus.CounterOpts{
				Name: "ledgerline_audit_chain_cache_misses_total",
				Help: "Tail digest lookups that fell through to the store",
			}),
			VerifyRuns: promauto.NewCounter(prometheus.CounterOpts{
				Name: "ledgerline_audit_verify_runs_total",
				Help: "Total number of chain verification runs",
			}),
			VerifyViolations: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "ledgerline_audit_verify_violations_total",
				Help: "Verification findings by violation type",
			}, []string{"type"}),
			AnchorsComputed: promauto.NewCounter(prometheus.CounterOpts{
				Name: "ledgerline_audit_anchors_computed_total",
				Help: "Total number of anchors computed and persisted",
			}),
			AnchorFailures: promauto.NewCounter(prometheus.CounterOpts{
				Name: "ledgerline_audit_anchor_failures_total",
				Help: "Total number of failed anchor computations",
			}),
		}
	})
	return metricsInstance
}
