// Package metrics exposes Prometheus instrumentation for the agent.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	ChecksTotal     *prometheus.CounterVec
	CheckDuration   *prometheus.HistogramVec
	ReportCycles    prometheus.Counter
	OverallSeverity prometheus.Gauge

	TunnelFlaps       prometheus.Counter
	TunnelEscalations prometheus.Counter

	RemediationRuns *prometheus.CounterVec
}

// New registers all metrics on reg (pass a fresh Registry in tests).
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ChecksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "edgehealth_checks_total",
				Help: "Check results by probe and status",
			},
			[]string{"check", "status"},
		),
		CheckDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "edgehealth_check_duration_seconds",
				Help:    "Wall time of one full check cycle",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"outcome"},
		),
		ReportCycles: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "edgehealth_report_cycles_total",
				Help: "Health report evaluation cycles completed",
			},
		),
		OverallSeverity: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "edgehealth_overall_severity",
				Help: "Latest overall status as severity (0 healthy, 1 degraded, 2 critical)",
			},
		),
		TunnelFlaps: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "edgehealth_tunnel_flaps_total",
				Help: "Observed established-to-down tunnel transitions",
			},
		),
		TunnelEscalations: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "edgehealth_tunnel_escalations_total",
				Help: "Flap threshold crossings that raised a page",
			},
		),
		RemediationRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "edgehealth_remediation_runs_total",
				Help: "Finished remediation runs by fault and final state",
			},
			[]string{"fault", "final_state"},
		),
	}
}
