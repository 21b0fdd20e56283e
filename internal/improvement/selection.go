package improvement

import (
	"sort"

	"github.com/GoSim-25-26J-441/autotune-core/internal/space"
)

// Observation is one successful evaluation.
type Observation struct {
	Trial      int
	Assignment space.Assignment
	Score      float64
}

// RankObservations returns the observations ordered best first. The sort is
// stable, so equal scores keep their trial order.
func RankObservations(observations []Observation, dir Direction) []Observation {
	ranked := make([]Observation, len(observations))
	copy(ranked, observations)
	sort.SliceStable(ranked, func(i, j int) bool {
		return dir.Better(ranked[i].Score, ranked[j].Score)
	})
	return ranked
}
