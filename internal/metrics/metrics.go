// Package metrics holds the Prometheus collectors for pipeline runs. A nil
// *Metrics is valid and records nothing, so library callers and tests can skip
// registration entirely.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the pipeline collectors.
type Metrics struct {
	QueriesSearched    prometheus.Counter
	ProviderErrors     *prometheus.CounterVec
	CandidatesAccepted prometheus.Counter
	RowsExported       *prometheus.CounterVec
	StageFailures      *prometheus.CounterVec
	StageDuration      *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg. A nil registerer
// leaves them unregistered.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		QueriesSearched: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shortscout_queries_searched_total",
			Help: "Search queries sent to the video provider.",
		}),
		ProviderErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shortscout_provider_errors_total",
			Help: "Recoverable provider failures, by operation.",
		}, []string{"operation"}),
		CandidatesAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shortscout_candidates_accepted_total",
			Help: "Short candidates accepted during discovery.",
		}),
		RowsExported: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shortscout_rows_exported_total",
			Help: "Enriched rows written, by sink.",
		}, []string{"sink"}),
		StageFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shortscout_stage_failures_total",
			Help: "Pipeline stage failures, by stage.",
		}, []string{"stage"}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "shortscout_stage_duration_seconds",
			Help:    "Pipeline stage duration in seconds, by stage.",
			Buckets: prometheus.DefBuckets,
		}, []string{"stage"}),
	}
	if reg != nil {
		reg.MustRegister(
			m.QueriesSearched,
			m.ProviderErrors,
			m.CandidatesAccepted,
			m.RowsExported,
			m.StageFailures,
			m.StageDuration,
		)
	}
	return m
}

// QuerySearched counts one search call.
func (m *Metrics) QuerySearched() {
	if m == nil {
		return
	}
	m.QueriesSearched.Inc()
}

// ProviderError counts a recoverable failure for operation.
func (m *Metrics) ProviderError(operation string) {
	if m == nil {
		return
	}
	m.ProviderErrors.WithLabelValues(operation).Inc()
}

// CandidateAccepted counts one accepted short.
func (m *Metrics) CandidateAccepted() {
	if m == nil {
		return
	}
	m.CandidatesAccepted.Inc()
}

// Exported counts rows written to sink.
func (m *Metrics) Exported(sink string, rows int) {
	if m == nil || rows <= 0 {
		return
	}
	m.RowsExported.WithLabelValues(sink).Add(float64(rows))
}

// ObserveStage records a stage duration and, when err is set, a failure.
func (m *Metrics) ObserveStage(stage string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(elapsed.Seconds())
	if err != nil {
		m.StageFailures.WithLabelValues(stage).Inc()
	}
}
