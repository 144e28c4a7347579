// Package metrics provides Prometheus metrics for pipeline runs
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Run outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeSkipped = "skipped"
)

// PipelineMetrics contains Prometheus metrics for pipeline runs, the
// changesets they write, the recompute dispatcher and the lookup cache.
// A nil *PipelineMetrics records nothing.
type PipelineMetrics struct {
	runsTotal        *prometheus.CounterVec
	runDuration      *prometheus.HistogramVec
	stageErrorsTotal *prometheus.CounterVec
	changesetRecords *prometheus.CounterVec
	queueDepth       prometheus.Gauge
	cacheOperations  *prometheus.CounterVec

	collectors []prometheus.Collector
}

// NewPipelineMetrics creates and registers pipeline metrics on registry.
func NewPipelineMetrics(registry *prometheus.Registry) (*PipelineMetrics, error) {
	m := &PipelineMetrics{}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *PipelineMetrics) initMetrics() {
	m.runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plantcare_runs_total",
			Help: "Total number of pipeline runs",
		},
		[]string{"trigger", "outcome"},
	)

	m.runDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "plantcare_run_duration_seconds",
			Help:    "Time taken by pipeline runs",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms to ~16s
		},
		[]string{"trigger"},
	)

	m.stageErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plantcare_stage_errors_total",
			Help: "Total number of pipeline stage failures",
		},
		[]string{"stage"},
	)

	m.changesetRecords = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plantcare_changeset_records_total",
			Help: "Total number of records written by pipeline changesets",
		},
		[]string{"table", "op"},
	)

	m.queueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "plantcare_dispatch_queue_depth",
		Help: "Number of recompute jobs waiting in the dispatcher queue",
	})

	m.cacheOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plantcare_lookup_cache_operations_total",
			Help: "Total number of lookup cache reads",
		},
		[]string{"table", "result"}, // result: hit, miss
	)

	m.collectors = []prometheus.Collector{
		m.runsTotal,
		m.runDuration,
		m.stageErrorsTotal,
		m.changesetRecords,
		m.queueDepth,
		m.cacheOperations,
	}
}

// Describe implements the Collector interface
func (m *PipelineMetrics) Describe(ch chan<- *prometheus.Desc) {
	for _, collector := range m.collectors {
		collector.Describe(ch)
	}
}

// Collect implements the Collector interface
func (m *PipelineMetrics) Collect(ch chan<- prometheus.Metric) {
	for _, collector := range m.collectors {
		collector.Collect(ch)
	}
}

// RecordRun records a finished run.
func (m *PipelineMetrics) RecordRun(trigger, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.runsTotal.WithLabelValues(trigger, outcome).Inc()
	m.runDuration.WithLabelValues(trigger).Observe(d.Seconds())
}

// RecordStageError records a failed stage.
func (m *PipelineMetrics) RecordStageError(stage string) {
	if m == nil {
		return
	}
	m.stageErrorsTotal.WithLabelValues(stage).Inc()
}

// RecordChangeset records n records written to table by op.
func (m *PipelineMetrics) RecordChangeset(table, op string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.changesetRecords.WithLabelValues(table, op).Add(float64(n))
}

// SetQueueDepth sets the dispatcher queue depth.
func (m *PipelineMetrics) SetQueueDepth(n int) {
	if m == nil {
		return
	}
	m.queueDepth.Set(float64(n))
}

// RecordCacheLookup records a lookup cache hit or miss.
func (m *PipelineMetrics) RecordCacheLookup(table string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheOperations.WithLabelValues(table, result).Inc()
}
