package blackbox

import "fmt"

// Reason classifies a failed evaluation.
type Reason int

const (
	// ProcessNotFound means the program could not be started.
	ProcessNotFound Reason = iota + 1
	// NonZeroExit means the program ran but exited with a non-zero status.
	NonZeroExit
	// UnparsableOutput means no number could be read from stdout.
	UnparsableOutput
	// MissingValue means the assignment lacked a parameter.
	MissingValue
)

func (r Reason) String() string {
	switch r {
	case ProcessNotFound:
		return "process_not_found"
	case NonZeroExit:
		return "non_zero_exit"
	case UnparsableOutput:
		return "unparsable_output"
	case MissingValue:
		return "missing_value"
	default:
		return "unknown"
	}
}

// Result is the outcome of one evaluation: a score on success, a reason and
// detail on failure. Failures are values, not errors; callers skip them.
type Result struct {
	Score  float64
	Reason Reason
	Detail string
}

// Success returns a successful result.
func Success(score float64) Result {
	return Result{Score: score}
}

// Failure returns a failed result.
func Failure(reason Reason, detail string) Result {
	return Result{Reason: reason, Detail: detail}
}

// OK reports whether the evaluation produced a score.
func (r Result) OK() bool {
	return r.Reason == 0
}

// Outcome is the metric label of the result.
func (r Result) Outcome() string {
	if r.OK() {
		return "success"
	}
	return r.Reason.String()
}

func (r Result) String() string {
	if r.OK() {
		return fmt.Sprintf("success(%g)", r.Score)
	}
	return fmt.Sprintf("%s: %s", r.Reason, r.Detail)
}
