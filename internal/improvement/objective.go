package improvement

import (
	"math"

	"github.com/GoSim-25-26J-441/autotune-core/internal/blackbox"
	"github.com/GoSim-25-26J-441/autotune-core/internal/space"
	"github.com/GoSim-25-26J-441/autotune-core/pkg/config"
)

// Evaluator scores one assignment. *blackbox.Evaluator implements it.
type Evaluator interface {
	Evaluate(a space.Assignment) blackbox.Result
}

// EvaluatorFunc adapts a function to the Evaluator interface.
type EvaluatorFunc func(a space.Assignment) blackbox.Result

// Evaluate calls f(a).
func (f EvaluatorFunc) Evaluate(a space.Assignment) blackbox.Result {
	return f(a)
}

// Direction is the optimization direction of the black box score.
type Direction int

const (
	Maximize Direction = iota
	Minimize
)

// ParseDirection accepts the description spellings (maximizar, minimizar)
// and their English aliases.
func ParseDirection(s string) (Direction, error) {
	obj, ok := config.NormalizeObjective(s)
	if !ok {
		return Maximize, &UnknownObjectiveError{Objective: s}
	}
	if obj == config.ObjectiveMinimize {
		return Minimize, nil
	}
	return Maximize, nil
}

func (d Direction) String() string {
	if d == Minimize {
		return "minimize"
	}
	return "maximize"
}

// Objective returns the description spelling of the direction.
func (d Direction) Objective() string {
	if d == Minimize {
		return config.ObjectiveMinimize
	}
	return config.ObjectiveMaximize
}

// Better reports whether a is strictly better than b.
func (d Direction) Better(a, b float64) bool {
	if d == Minimize {
		return a < b
	}
	return a > b
}

// Normalize maps a score so that lower is always better.
func (d Direction) Normalize(score float64) float64 {
	if d == Maximize {
		return -score
	}
	return score
}

// Worst returns the worst possible score in this direction.
func (d Direction) Worst() float64 {
	if d == Minimize {
		return math.Inf(1)
	}
	return math.Inf(-1)
}

// UnknownObjectiveError is returned for an unrecognized objective spelling.
type UnknownObjectiveError struct {
	Objective string
}

func (e *UnknownObjectiveError) Error() string {
	return "unknown objective: " + e.Objective
}
