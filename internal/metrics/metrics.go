// Package metrics exposes Prometheus instrumentation for the compiler and
// the evaluators. A nil *Metrics is valid and records nothing, so packages
// can be used without a registry in tests.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recompile outcomes.
const (
	OutcomeSwapped   = "swapped"
	OutcomeDebounced = "debounced"
	OutcomeFailed    = "failed"
)

// Metrics holds the collectors of one engine.
type Metrics struct {
	compileDuration *prometheus.HistogramVec
	recompiles      *prometheus.CounterVec
	cacheLookups    *prometheus.CounterVec
	evaluatorRefs   prometheus.Gauge
	activeTasks     prometheus.Gauge
	diagnostics     *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		compileDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "voxelflow_compile_duration_seconds",
				Help:    "Duration of terminal graph compilations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		),
		recompiles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "voxelflow_recompiles_total",
				Help: "Total number of evaluator recompilations per outcome",
			},
			[]string{"outcome"},
		),
		cacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "voxelflow_cache_lookups_total",
				Help: "Total number of evaluation cache lookups per result",
			},
			[]string{"result"},
		),
		evaluatorRefs: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "voxelflow_evaluator_refs",
				Help: "Number of live evaluator references",
			},
		),
		activeTasks: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "voxelflow_active_tasks",
				Help: "Number of evaluation tasks currently running on the worker pool",
			},
		),
		diagnostics: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "voxelflow_diagnostics_total",
				Help: "Total number of diagnostics reported per severity",
			},
			[]string{"severity"},
		),
	}
	reg.MustRegister(
		m.compileDuration,
		m.recompiles,
		m.cacheLookups,
		m.evaluatorRefs,
		m.activeTasks,
		m.diagnostics,
	)
	return m
}

// ObserveCompile records one compilation.
func (m *Metrics) ObserveCompile(d time.Duration, ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	m.compileDuration.WithLabelValues(result).Observe(d.Seconds())
}

// Recompiled records the outcome of an evaluator recompilation.
func (m *Metrics) Recompiled(outcome string) {
	if m == nil {
		return
	}
	m.recompiles.WithLabelValues(outcome).Inc()
}

// CacheLookup records a hit or a miss of the evaluation cache.
func (m *Metrics) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// SetEvaluatorRefs reports the number of live evaluator references.
func (m *Metrics) SetEvaluatorRefs(n int) {
	if m == nil {
		return
	}
	m.evaluatorRefs.Set(float64(n))
}

// TaskStarted and TaskFinished track pool occupancy.
func (m *Metrics) TaskStarted() {
	if m == nil {
		return
	}
	m.activeTasks.Inc()
}

func (m *Metrics) TaskFinished() {
	if m == nil {
		return
	}
	m.activeTasks.Dec()
}

// Reported counts a diagnostic by severity.
func (m *Metrics) Reported(severity string) {
	if m == nil {
		return
	}
	m.diagnostics.WithLabelValues(severity).Inc()
}
