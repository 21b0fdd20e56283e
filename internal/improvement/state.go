package improvement

import "github.com/GoSim-25-26J-441/autotune-core/internal/space"

// Status is the lifecycle state of a search phase.
type Status string

const (
	StatusRunning     Status = "running"
	StatusConverged   Status = "converged"
	StatusDone        Status = "done"
	StatusInterrupted Status = "interrupted"
	StatusFailed      Status = "failed"
)

// SearchState is the best point found so far by a phase. It is owned by the
// running phase and handed over by value.
type SearchState struct {
	BestAssignment space.Assignment
	BestScore      float64
	HasBest        bool
	Iterations     int
	Status         Status
}

// offer records a successful evaluation and reports whether it became the
// new best. Ties keep the earlier point.
func (s *SearchState) offer(a space.Assignment, score float64, dir Direction) bool {
	if s.HasBest && !dir.Better(score, s.BestScore) {
		return false
	}
	s.BestAssignment = a.Clone()
	s.BestScore = score
	s.HasBest = true
	return true
}

// Clone returns a copy that shares nothing with s.
func (s SearchState) Clone() SearchState {
	s.BestAssignment = s.BestAssignment.Clone()
	return s
}
