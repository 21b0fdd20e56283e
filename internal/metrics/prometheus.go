package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

// Metrics holds Prometheus metrics for black-box evaluations and search phases.
type Metrics struct {
	EvaluationsTotal   *prometheus.CounterVec
	EvaluationDuration prometheus.Histogram
	TrialsTotal        *prometheus.CounterVec
	BestScore          *prometheus.GaugeVec
	PhaseActive        *prometheus.GaugeVec
	StepReductions     prometheus.Counter
}

// NewMetrics creates and registers the process-wide metrics. Registration
// happens once; later calls return the same instance.
//
// Metrics:
//   - autotune_evaluations_total{outcome} - black-box calls by outcome
//   - autotune_evaluation_duration_seconds - wall time of one black-box call
//   - autotune_trials_total{phase,result} - trials by phase, completed or pruned
//   - autotune_best_score{phase} - best score seen by a phase
//   - autotune_phase_active{phase} - 1 while a phase runs
//   - autotune_step_reductions_total - local-search step halvings
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = &Metrics{
			EvaluationsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "autotune_evaluations_total",
					Help: "Total number of black-box evaluations",
				},
				[]string{"outcome"}, // "success", "process_not_found", "non_zero_exit", ...
			),

			EvaluationDuration: promauto.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "autotune_evaluation_duration_seconds",
					Help:    "Duration of one black-box evaluation in seconds",
					Buckets: prometheus.ExponentialBuckets(0.005, 2, 14), // 5ms to ~40s
				},
			),

			TrialsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "autotune_trials_total",
					Help: "Total number of search trials",
				},
				[]string{"phase", "result"},
			),

			BestScore: promauto.NewGaugeVec(
				prometheus.GaugeOpts{
					Name: "autotune_best_score",
					Help: "Best score found by a search phase",
				},
				[]string{"phase"},
			),

			PhaseActive: promauto.NewGaugeVec(
				prometheus.GaugeOpts{
					Name: "autotune_phase_active",
					Help: "Whether a search phase is currently running",
				},
				[]string{"phase"},
			),

			StepReductions: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "autotune_step_reductions_total",
					Help: "Total number of local-search step reductions",
				},
			),
		}
	})

	return globalMetrics
}

// RecordEvaluation records one black-box call.
func (m *Metrics) RecordEvaluation(outcome string, d time.Duration) {
	m.EvaluationsTotal.WithLabelValues(outcome).Inc()
	m.EvaluationDuration.Observe(d.Seconds())
}

// RecordTrial records a completed or pruned trial of a phase.
func (m *Metrics) RecordTrial(phase string, pruned bool) {
	result := "completed"
	if pruned {
		result = "pruned"
	}
	m.TrialsTotal.WithLabelValues(phase, result).Inc()
}

// SetBestScore updates the best score gauge of a phase.
func (m *Metrics) SetBestScore(phase string, score float64) {
	m.BestScore.WithLabelValues(phase).Set(score)
}

// PhaseStarted marks a phase as running.
func (m *Metrics) PhaseStarted(phase string) {
	m.PhaseActive.WithLabelValues(phase).Set(1)
}

// PhaseFinished marks a phase as stopped.
func (m *Metrics) PhaseFinished(phase string) {
	m.PhaseActive.WithLabelValues(phase).Set(0)
}

// RecordStepReduction counts a local-search step halving.
func (m *Metrics) RecordStepReduction() {
	m.StepReductions.Inc()
}
