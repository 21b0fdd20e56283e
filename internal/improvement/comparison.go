package improvement

import (
	"math"
)

// Verdict summarizes what the local phase did to the global result.
type Verdict string

const (
	VerdictImproved      Verdict = "improved"
	VerdictNeutral       Verdict = "neutral"
	VerdictInterrupted   Verdict = "interrupted"
	VerdictNotApplicable Verdict = "not_applicable"
)

// Impact compares the score before and after refinement.
type Impact struct {
	Before  float64
	After   float64
	Delta   float64
	Percent float64
	Verdict Verdict
}

// CompareScores compares a before and after score in the given direction.
// Delta is after-before; Percent is the improvement relative to |before|,
// positive when after is better.
func CompareScores(before, after float64, dir Direction) Impact {
	impact := Impact{
		Before:  before,
		After:   after,
		Delta:   after - before,
		Percent: ImprovementPercent(before, after, dir),
		Verdict: VerdictNeutral,
	}
	if dir.Better(after, before) {
		impact.Verdict = VerdictImproved
	}
	return impact
}

// ImprovementPercent calculates the percentage improvement between two scores
func ImprovementPercent(before, after float64, dir Direction) float64 {
	if before == 0 {
		return 0
	}
	diff := after - before
	if dir == Minimize {
		return -(diff / math.Abs(before)) * 100
	}
	return (diff / math.Abs(before)) * 100
}

// Trend describes how scores moved over a phase
type Trend string

const (
	TrendImproving Trend = "improving"
	TrendStable    Trend = "stable"
	TrendDegrading Trend = "degrading"
)

// ScoreTrend fits a line through the scores in trial order and reports
// whether they got better, worse or stayed flat.
func ScoreTrend(observations []Observation, dir Direction) Trend {
	normalized := make([]float64, len(observations))
	for i, obs := range observations {
		normalized[i] = dir.Normalize(obs.Score)
	}
	return determineTrend(normalized)
}

// determineTrend analyzes the trend of normalized (lower is better) scores
func determineTrend(scores []float64) Trend {
	if len(scores) < 2 {
		return TrendStable
	}

	n := float64(len(scores))
	var sumX, sumY, sumXY, sumX2 float64
	for i, score := range scores {
		x := float64(i)
		sumX += x
		sumY += score
		sumXY += x * score
		sumX2 += x * x
	}

	slope := (n*sumXY - sumX*sumY) / (n*sumX2 - sumX*sumX)

	// Negative slope means improving because scores are normalized
	if slope < -0.01 {
		return TrendImproving
	}
	if slope > 0.01 {
		return TrendDegrading
	}
	return TrendStable
}

// variance calculates the variance of a slice of floats
func variance(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sumSqDiff := 0.0
	for _, v := range values {
		diff := v - mean
		sumSqDiff += diff * diff
	}
	return sumSqDiff / float64(len(values))
}
