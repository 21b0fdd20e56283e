package improvement

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/GoSim-25-26J-441/autotune-core/internal/blackbox"
	"github.com/GoSim-25-26J-441/autotune-core/internal/space"
)

// scenarioSpace is x in [0, 100], starting at 50 with a refine step of 5.
func scenarioSpace(t *testing.T) *space.Space {
	t.Helper()
	sp, err := space.NewFromSpecs(space.Spec{
		Name: "x", Kind: space.Integer, Min: 0, Max: 100, Initial: space.IntValue(50), RefineStep: 5,
	})
	require.NoError(t, err)
	return sp
}

// mixedSpace has one parameter of each kind.
func mixedSpace(t *testing.T) *space.Space {
	t.Helper()
	sp, err := space.NewFromSpecs(
		space.Spec{Name: "n", Kind: space.Integer, Min: 0, Max: 20, Initial: space.IntValue(2), RefineStep: 4, ExploreStep: 2},
		space.Spec{Name: "y", Kind: space.Continuous, Min: 0, Max: 1, Initial: space.FloatValue(0.5), RefineStep: 0.1, ExploreStep: 0.05},
		space.Spec{Name: "mode", Kind: space.Categorical, Options: []string{"a", "b", "c"}, Initial: space.LabelValue("a")},
	)
	require.NoError(t, err)
	return sp
}

// peak scores -(x-70)^2, maximal at x=70.
func peak(a space.Assignment) blackbox.Result {
	d := a["x"].Num - 70
	return blackbox.Success(-d * d)
}

func mixedScore(a space.Assignment) blackbox.Result {
	dn := a["n"].Num - 12
	dy := a["y"].Num - 0.73
	bonus := map[string]float64{"a": 0, "b": 5, "c": 1}[a["mode"].Label]
	return blackbox.Success(bonus - dn*dn - 100*dy*dy)
}

// countingEvaluator counts calls and optionally cancels a context on the
// n-th call, before returning its result.
type countingEvaluator struct {
	mu       sync.Mutex
	calls    int
	cancelAt int
	cancel   context.CancelFunc
	fn       EvaluatorFunc
}

func (c *countingEvaluator) Evaluate(a space.Assignment) blackbox.Result {
	c.mu.Lock()
	c.calls++
	n := c.calls
	c.mu.Unlock()

	if c.cancel != nil && n == c.cancelAt {
		c.cancel()
	}
	return c.fn(a)
}

func (c *countingEvaluator) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func alwaysFail(space.Assignment) blackbox.Result {
	return blackbox.Failure(blackbox.ProcessNotFound, "no such file")
}

func ptr(v float64) *float64 { return &v }
