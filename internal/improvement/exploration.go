package improvement

import (
	"slices"

	"github.com/GoSim-25-26J-441/autotune-core/internal/space"
)

// ParameterExplorer generates the single-axis moves probed by local search.
type ParameterExplorer interface {
	// Moves returns how many moves are probed along the spec's axis.
	Moves(spec space.Spec) int
	// Candidate returns the value reached by move from current with the
	// given step. ok is false when the move leaves the value unchanged.
	Candidate(spec space.Spec, current space.Value, step float64, move int) (v space.Value, ok bool)
	// Name returns the name of the exploration strategy
	Name() string
}

// CompassExplorer probes current+step then current-step on numeric axes and
// every other option on categorical ones.
type CompassExplorer struct{}

// NewCompassExplorer creates the default explorer.
func NewCompassExplorer() *CompassExplorer {
	return &CompassExplorer{}
}

func (e *CompassExplorer) Name() string {
	return "compass"
}

func (e *CompassExplorer) Moves(spec space.Spec) int {
	if spec.Kind == space.Categorical {
		return len(spec.Options)
	}
	return 2
}

func (e *CompassExplorer) Candidate(spec space.Spec, current space.Value, step float64, move int) (space.Value, bool) {
	if spec.Kind == space.Categorical {
		if move < 0 || move >= len(spec.Options) {
			return current, false
		}
		v := space.LabelValue(spec.Options[move])
		return v, v != current
	}

	delta := step
	if move == 1 {
		delta = -step
	}
	v := spec.Value(current.Num + delta)
	return v, v != current
}

// AxisCandidates lists the distinct values reachable from current along one
// axis, in probe order. current itself is never included.
func AxisCandidates(explorer ParameterExplorer, spec space.Spec, current space.Value, step float64) []space.Value {
	var out []space.Value
	for move := 0; move < explorer.Moves(spec); move++ {
		v, ok := explorer.Candidate(spec, current, step, move)
		if !ok || slices.Contains(out, v) {
			continue
		}
		out = append(out, v)
	}
	return out
}
