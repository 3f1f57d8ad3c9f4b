// Package metric exposes engine activity counters for long batch sessions.
package metric

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the engine's Prometheus counters. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	Runs          prometheus.Counter
	RunsAborted   prometheus.Counter
	StepsExecuted prometheus.Counter
	StepsSkipped  prometheus.Counter
	StepsFailed   prometheus.Counter
}

// New creates and registers the engine counters.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Runs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "starflow_runs_total",
			Help: "Reduction runs started.",
		}),
		RunsAborted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "starflow_runs_aborted_total",
			Help: "Reduction runs that aborted before completing.",
		}),
		StepsExecuted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "starflow_steps_executed_total",
			Help: "Recipe steps executed.",
		}),
		StepsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "starflow_steps_skipped_total",
			Help: "Recipe steps skipped because their completion mark was present.",
		}),
		StepsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "starflow_steps_failed_total",
			Help: "Operation invocations that failed.",
		}),
	}
	reg.MustRegister(m.Runs, m.RunsAborted, m.StepsExecuted, m.StepsSkipped, m.StepsFailed)
	return m
}

// RunStarted records a run start.
func (m *Metrics) RunStarted() {
	if m != nil {
		m.Runs.Inc()
	}
}

// RunAborted records a run abort.
func (m *Metrics) RunAborted() {
	if m != nil {
		m.RunsAborted.Inc()
	}
}

// StepExecuted records a successful step invocation.
func (m *Metrics) StepExecuted() {
	if m != nil {
		m.StepsExecuted.Inc()
	}
}

// StepSkipped records a skipped step.
func (m *Metrics) StepSkipped() {
	if m != nil {
		m.StepsSkipped.Inc()
	}
}

// StepFailed records a failed invocation.
func (m *Metrics) StepFailed() {
	if m != nil {
		m.StepsFailed.Inc()
	}
}
