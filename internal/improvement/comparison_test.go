package improvement

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompareScores(t *testing.T) {
	tests := []struct {
		name    string
		before  float64
		after   float64
		dir     Direction
		verdict Verdict
		percent float64
	}{
		{"maximize improved", 100, 110, Maximize, VerdictImproved, 10},
		{"maximize unchanged", 100, 100, Maximize, VerdictNeutral, 0},
		{"minimize improved", 50, 40, Minimize, VerdictImproved, 20},
		{"negative baseline", -200, -100, Maximize, VerdictImproved, 50},
		{"zero baseline", 0, 5, Maximize, VerdictImproved, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			impact := CompareScores(tt.before, tt.after, tt.dir)
			assert.Equal(t, tt.verdict, impact.Verdict)
			assert.InDelta(t, tt.percent, impact.Percent, 1e-9)
			assert.Equal(t, tt.after-tt.before, impact.Delta)
		})
	}
}

func TestScoreTrend(t *testing.T) {
	rising := []Observation{obs(0, 1), obs(1, 2), obs(2, 3), obs(3, 4)}
	assert.Equal(t, TrendImproving, ScoreTrend(rising, Maximize))
	assert.Equal(t, TrendDegrading, ScoreTrend(rising, Minimize))

	flat := []Observation{obs(0, 2), obs(1, 2), obs(2, 2)}
	assert.Equal(t, TrendStable, ScoreTrend(flat, Maximize))
	assert.Equal(t, TrendStable, ScoreTrend(nil, Maximize))
}
