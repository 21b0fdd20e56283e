package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetricsSingleton(t *testing.T) {
	a := NewMetrics()
	b := NewMetrics()
	require.NotNil(t, a)
	assert.Same(t, a, b)
}

func TestMetricsRecording(t *testing.T) {
	m := NewMetrics()

	before := testutil.ToFloat64(m.EvaluationsTotal.WithLabelValues("success"))
	m.RecordEvaluation("success", 20*time.Millisecond)
	assert.Equal(t, before+1, testutil.ToFloat64(m.EvaluationsTotal.WithLabelValues("success")))

	pruned := testutil.ToFloat64(m.TrialsTotal.WithLabelValues("global", "pruned"))
	m.RecordTrial("global", true)
	assert.Equal(t, pruned+1, testutil.ToFloat64(m.TrialsTotal.WithLabelValues("global", "pruned")))

	m.SetBestScore("local", 42.5)
	assert.Equal(t, 42.5, testutil.ToFloat64(m.BestScore.WithLabelValues("local")))

	m.PhaseStarted("local")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PhaseActive.WithLabelValues("local")))
	m.PhaseFinished("local")
	assert.Equal(t, 0.0, testutil.ToFloat64(m.PhaseActive.WithLabelValues("local")))

	steps := testutil.ToFloat64(m.StepReductions)
	m.RecordStepReduction()
	assert.Equal(t, steps+1, testutil.ToFloat64(m.StepReductions))
}
