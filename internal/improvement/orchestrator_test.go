package improvement

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoSim-25-26J-441/autotune-core/internal/blackbox"
	"github.com/GoSim-25-26J-441/autotune-core/internal/space"
)

type recordingSink struct {
	mu      sync.Mutex
	updates []Progress
}

func (s *recordingSink) Publish(p Progress) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates = append(s.updates, p)
}

func (s *recordingSink) last() Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updates[len(s.updates)-1]
}

func TestOrchestratorHybrid(t *testing.T) {
	sp := scenarioSpace(t)
	sink := &recordingSink{}
	o := NewOrchestrator(sp, EvaluatorFunc(peak), OrchestratorConfig{
		Mode:       ModeHybrid,
		Direction:  Maximize,
		Global:     GlobalConfig{Trials: 10, Sampler: NewRandomSampler(8)},
		Executable: "model",
		Progress:   sink,
	})

	res, err := o.Run(context.Background())
	require.NoError(t, err)

	_, err = uuid.Parse(res.RunID)
	assert.NoError(t, err)
	assert.Equal(t, RunStatusCompleted, res.Status)
	assert.Equal(t, "model", res.Executable)
	assert.True(t, res.GlobalRan)
	assert.True(t, res.LocalRan)
	assert.Equal(t, 10, res.GlobalTrials)
	require.True(t, res.GlobalHasBest)
	require.True(t, res.HasBest)

	assert.Equal(t, space.IntValue(70), res.BestAssignment["x"])
	assert.Equal(t, 0.0, res.BestScore)
	assert.GreaterOrEqual(t, res.BestScore, res.GlobalBestScore)
	assert.False(t, res.NoValidTrial)

	if res.GlobalBestScore < 0 {
		assert.Equal(t, VerdictImproved, res.Impact.Verdict)
	} else {
		assert.Equal(t, VerdictNeutral, res.Impact.Verdict)
	}
	require.NotNil(t, res.GlobalStats)
	assert.Equal(t, int64(10), res.GlobalStats.Count)
	require.NotNil(t, res.LocalStats)

	final := sink.last()
	assert.True(t, final.Finished)
	assert.Equal(t, RunStatusCompleted, final.Status)
	assert.Equal(t, res.RunID, final.RunID)
	assert.Equal(t, int64(70), final.BestAssignment["x"])
}

func TestOrchestratorNoRefine(t *testing.T) {
	sp := scenarioSpace(t)
	res, err := NewOrchestrator(sp, EvaluatorFunc(peak), OrchestratorConfig{
		Direction: Maximize,
		Global:    GlobalConfig{Trials: 5, Sampler: NewRandomSampler(8)},
		NoRefine:  true,
	}).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, ModeHybrid, res.Mode)
	assert.False(t, res.LocalRan)
	assert.Equal(t, res.GlobalBestScore, res.BestScore)
	assert.Equal(t, VerdictNotApplicable, res.Impact.Verdict)
}

func TestOrchestratorModes(t *testing.T) {
	sp := scenarioSpace(t)

	t.Run("global", func(t *testing.T) {
		res, err := NewOrchestrator(sp, EvaluatorFunc(peak), OrchestratorConfig{
			Mode:   ModeGlobal,
			Global: GlobalConfig{Trials: 7, Sampler: NewRandomSampler(1)},
		}).Run(context.Background())
		require.NoError(t, err)
		assert.True(t, res.GlobalRan)
		assert.False(t, res.LocalRan)
		assert.Equal(t, 7, res.GlobalTrials)
	})

	t.Run("local", func(t *testing.T) {
		res, err := NewOrchestrator(sp, EvaluatorFunc(peak), OrchestratorConfig{
			Mode: ModeLocal,
		}).Run(context.Background())
		require.NoError(t, err)
		assert.False(t, res.GlobalRan)
		assert.True(t, res.LocalRan)
		assert.Equal(t, RunStatusCompleted, res.Status)
		assert.Equal(t, space.IntValue(70), res.BestAssignment["x"])
		assert.Equal(t, VerdictNotApplicable, res.Impact.Verdict)
	})
}

func TestOrchestratorMissingExecutable(t *testing.T) {
	sp := scenarioSpace(t)
	ev := blackbox.New(filepath.Join(t.TempDir(), "missing-model"), sp)

	res, err := NewOrchestrator(sp, ev, OrchestratorConfig{
		Global: GlobalConfig{Trials: 4, Sampler: NewRandomSampler(2)},
	}).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, RunStatusFailed, res.Status)
	assert.Equal(t, 4, res.GlobalTrials)
	assert.Equal(t, 4, res.GlobalPruned)
	assert.True(t, res.NoValidTrial)
	assert.False(t, res.HasBest)
	assert.True(t, res.BestAssignment.Equal(sp.DefaultAssignment()))
	assert.Nil(t, res.GlobalStats)
}

func TestOrchestratorCancelledDuringGlobal(t *testing.T) {
	sp := scenarioSpace(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ev := &countingEvaluator{fn: alwaysFail, cancelAt: 3, cancel: cancel}
	res, err := NewOrchestrator(sp, ev, OrchestratorConfig{
		Global: GlobalConfig{Trials: 50, Sampler: NewRandomSampler(2)},
	}).Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, RunStatusInterrupted, res.Status)
	assert.Equal(t, StatusInterrupted, res.GlobalStatus)
	assert.False(t, res.LocalRan)
	assert.Equal(t, 3, ev.Calls())
	assert.True(t, res.NoValidTrial)
	assert.True(t, res.BestAssignment.Equal(sp.DefaultAssignment()))
	assert.Equal(t, VerdictNotApplicable, res.Impact.Verdict)
}

func TestOrchestratorCancelledDuringLocal(t *testing.T) {
	sp := scenarioSpace(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Five global trials, then two local probes before cancellation.
	ev := &countingEvaluator{fn: peak, cancelAt: 8, cancel: cancel}
	res, err := NewOrchestrator(sp, ev, OrchestratorConfig{
		Global: GlobalConfig{Trials: 5, Sampler: NewRandomSampler(6)},
	}).Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, RunStatusInterrupted, res.Status)
	assert.True(t, res.LocalRan)
	assert.Equal(t, StatusInterrupted, res.LocalStatus)
	assert.GreaterOrEqual(t, res.BestScore, res.GlobalBestScore)
	assert.Equal(t, VerdictInterrupted, res.Impact.Verdict)
}

func TestOrchestratorRequiresCollaborators(t *testing.T) {
	_, err := NewOrchestrator(nil, EvaluatorFunc(peak), OrchestratorConfig{}).Run(context.Background())
	assert.Error(t, err)

	_, err = NewOrchestrator(scenarioSpace(t), nil, OrchestratorConfig{}).Run(context.Background())
	assert.Error(t, err)
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeHybrid, m)

	m, err = ParseMode("local")
	require.NoError(t, err)
	assert.Equal(t, ModeLocal, m)

	_, err = ParseMode("simplex")
	assert.Error(t, err)
}
