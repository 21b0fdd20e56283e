package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/GoSim-25-26J-441/autotune-core/internal/improvement"
	"github.com/GoSim-25-26J-441/autotune-core/internal/metrics"
	"github.com/GoSim-25-26J-441/autotune-core/internal/space"
)

func hybridResult() *improvement.RunResult {
	started := time.Date(2026, 3, 4, 10, 20, 30, 0, time.UTC)
	return &improvement.RunResult{
		RunID:             "run-1",
		Mode:              improvement.ModeHybrid,
		Status:            improvement.RunStatusCompleted,
		Direction:         improvement.Maximize,
		Executable:        "./bin/model.exe",
		StartedAt:         started,
		Elapsed:           2500 * time.Millisecond,
		GlobalRan:         true,
		GlobalStatus:      improvement.StatusDone,
		GlobalTrials:      30,
		GlobalPruned:      2,
		GlobalBestScore:   -25,
		GlobalHasBest:     true,
		GlobalTrend:       improvement.TrendImproving,
		LocalRan:          true,
		LocalStatus:       improvement.StatusConverged,
		LocalSweeps:       7,
		LocalEvaluations:  20,
		LocalImprovements: 2,
		LocalTrace:        []float64{-25, -0},
		BestScore:         0,
		HasBest:           true,
		BestAssignment: space.Assignment{
			"x":    space.IntValue(70),
			"mode": space.LabelValue("fast"),
		},
		ParamOrder: []string{"x", "mode"},
		Impact: improvement.CompareScores(-25, 0, improvement.Maximize),
		GlobalStats: &metrics.Aggregation{
			Count: 30, Min: -900, Max: -25, Mean: -300, P50: -250, P95: -30,
		},
		EvalStats: &metrics.Aggregation{
			Count: 50, Sum: 620, Min: 8.5, Max: 30, Mean: 12.4, P50: 11, P95: 25,
		},
	}
}

func TestFileName(t *testing.T) {
	ts := time.Date(2026, 3, 4, 10, 20, 30, 0, time.UTC)
	assert.Equal(t, "report_HYBRID_model_2026-03-04_10-20-30.txt",
		FileName(improvement.ModeHybrid, "./bin/model.exe", ts, ".txt"))
	assert.Equal(t, "report_LOCAL_unknown_2026-03-04_10-20-30.json",
		FileName(improvement.ModeLocal, "", ts, ".json"))
}

func TestModelName(t *testing.T) {
	assert.Equal(t, "solver", ModelName("/opt/solver"))
	assert.Equal(t, "solver", ModelName("solver.exe"))
	assert.Equal(t, "unknown", ModelName("  "))
}

func TestImpactText(t *testing.T) {
	res := hybridResult()
	assert.Contains(t, ImpactText(res), "SUCCESS")
	assert.Contains(t, ImpactText(res), "increased the value by +25.0000")

	res.Impact = improvement.CompareScores(10, 10, improvement.Maximize)
	assert.Contains(t, ImpactText(res), "local maximum")

	res.Direction = improvement.Minimize
	res.Impact = improvement.CompareScores(10, 4, improvement.Minimize)
	assert.Contains(t, ImpactText(res), "reduced the value by -6.0000")

	res.Impact = improvement.Impact{Verdict: improvement.VerdictInterrupted}
	assert.Contains(t, ImpactText(res), "INTERRUPTED")

	res.Impact = improvement.Impact{Verdict: improvement.VerdictNotApplicable}
	assert.Contains(t, ImpactText(res), "Not applicable")
}

func TestRender(t *testing.T) {
	var sb strings.Builder
	require.NoError(t, Render(&sb, hybridResult(), "model.yaml"))
	out := sb.String()

	assert.Contains(t, out, "HYBRID OPTIMIZATION REPORT")
	assert.Contains(t, out, "Run status            : COMPLETED")
	assert.Contains(t, out, "Config file           : model.yaml")
	assert.Contains(t, out, "Objective             : MAXIMIZE")
	assert.Contains(t, out, "Total elapsed         : 2.50 seconds")
	assert.Contains(t, out, "Global trials         : 30 (2 pruned")
	assert.Contains(t, out, "1. End of global search : -25")
	assert.Contains(t, out, "2. End of local search  : 0")
	assert.Contains(t, out, "Global : n=30")
	assert.NotContains(t, out, "Local  : n=")
	assert.Contains(t, out, "mode = fast")
	assert.Contains(t, out, "x    = 70")
	assert.Less(t, strings.Index(out, "x    = 70"), strings.Index(out, "mode = fast"))
	assert.Contains(t, out, "Per evaluation (ms)   : n=50 min=8.5 mean=12.4 max=30.0 p95=25.0")
	assert.Contains(t, out, "Total (ms)            : 620.0")
}

func TestParamNames(t *testing.T) {
	res := &improvement.RunResult{
		BestAssignment: space.Assignment{
			"zeta":  space.IntValue(1),
			"alpha": space.IntValue(2),
			"mid":   space.IntValue(3),
			"extra": space.IntValue(4),
		},
		ParamOrder: []string{"zeta", "mid", "alpha", "gone"},
	}
	assert.Equal(t, []string{"zeta", "mid", "alpha", "extra"}, paramNames(res))

	res.ParamOrder = nil
	assert.Equal(t, []string{"alpha", "extra", "mid", "zeta"}, paramNames(res))
}

func TestRenderWithoutBest(t *testing.T) {
	res := &improvement.RunResult{
		Mode:         improvement.ModeGlobal,
		Status:       improvement.RunStatusFailed,
		GlobalRan:    true,
		NoValidTrial: true,
		Impact:       improvement.Impact{Verdict: improvement.VerdictNotApplicable},
	}
	var sb strings.Builder
	require.NoError(t, Render(&sb, res, ""))
	out := sb.String()

	assert.Contains(t, out, "Final value             : none")
	assert.Contains(t, out, "No trial produced a valid value")
	assert.Contains(t, out, "Config file           : -")
	assert.Contains(t, out, "(none)")
	assert.NotContains(t, out, "EVALUATION TIME")
}

func TestMarshalJSON(t *testing.T) {
	data, err := MarshalJSON(hybridResult(), "model.yaml")
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "run-1", doc["run_id"])
	assert.Equal(t, "hybrid", doc["mode"])
	assert.Equal(t, "maximize", doc["objective"])
	assert.Equal(t, 2500.0, doc["elapsed_ms"])

	params := doc["best_params"].(map[string]any)
	assert.Equal(t, 70.0, params["x"])
	assert.Equal(t, "fast", params["mode"])
	assert.Equal(t, []any{"x", "mode"}, doc["param_order"])

	evals := doc["evaluation_ms"].(map[string]any)
	assert.Equal(t, 50.0, evals["count"])

	global := doc["global"].(map[string]any)
	assert.Equal(t, 30.0, global["trials"])
	assert.Equal(t, -25.0, global["best_score"])
	assert.Contains(t, global, "stats")

	local := doc["local"].(map[string]any)
	assert.Len(t, local["trace"], 2)
	assert.NotContains(t, local, "stats")

	impact := doc["impact"].(map[string]any)
	assert.Equal(t, "improved", impact["verdict"])
}

func TestArtifactSkipsNonFiniteScores(t *testing.T) {
	res := &improvement.RunResult{
		Mode:   improvement.ModeLocal,
		Impact: improvement.Impact{Before: improvement.Maximize.Worst()},
	}
	st, err := Artifact(res, "")
	require.NoError(t, err)
	impact := st.GetFields()["impact"].GetStructValue()
	require.NotNil(t, impact)
	_, isNull := impact.GetFields()["before"].GetKind().(*structpb.Value_NullValue)
	assert.True(t, isNull)
	assert.NotContains(t, st.GetFields(), "best_score")
}

func TestWrite(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	ts := time.Date(2026, 3, 4, 10, 20, 30, 0, time.UTC)

	paths, err := Write(hybridResult(), Options{
		Dir:        dir,
		ConfigFile: "model.yaml",
		Formats:    []string{FormatText, FormatJSON},
		Now:        func() time.Time { return ts },
	})
	require.NoError(t, err)
	require.Len(t, paths, 2)
	assert.Equal(t, filepath.Join(dir, "report_HYBRID_model_2026-03-04_10-20-30.txt"), paths[0])
	assert.Equal(t, filepath.Join(dir, "report_HYBRID_model_2026-03-04_10-20-30.json"), paths[1])

	for _, p := range paths {
		info, err := os.Stat(p)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}

	_, err = Write(hybridResult(), Options{Dir: dir, Formats: []string{"pdf"}})
	assert.Error(t, err)

	_, err = Write(nil, Options{Dir: dir})
	assert.Error(t, err)
}
