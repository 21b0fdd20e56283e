package improvement

import (
	"fmt"
	"math"

	"github.com/GoSim-25-26J-441/autotune-core/pkg/utils"
)

// OptimizationStep is one successful trial as seen by convergence checks.
// Score is normalized so that lower is better (see Direction.Normalize).
type OptimizationStep struct {
	Iteration int
	Score     float64
}

// ConvergenceStrategy defines how to detect convergence
type ConvergenceStrategy interface {
	// CheckConvergence checks if the search has converged based on history
	CheckConvergence(history []OptimizationStep) (bool, string)
	// Name returns the name of the convergence strategy
	Name() string
}

// ConvergenceConfig holds configuration for convergence detection
type ConvergenceConfig struct {
	// NoImprovementIterations is the number of trials without improvement before stopping
	NoImprovementIterations int
	// ImprovementThreshold is the minimum relative improvement to consider significant
	ImprovementThreshold float64
	// ScoreTolerance is the absolute tolerance for score changes to be considered equal
	ScoreTolerance float64
	// MinIterations is the minimum number of trials before convergence can be detected
	MinIterations int
	// PlateauIterations is the number of trials with similar scores (plateau) before stopping
	PlateauIterations int
}

// DefaultConvergenceConfig returns a default convergence configuration
func DefaultConvergenceConfig() *ConvergenceConfig {
	return &ConvergenceConfig{
		NoImprovementIterations: 20,
		ImprovementThreshold:    0.001,
		ScoreTolerance:          1e-9,
		MinIterations:           10,
		PlateauIterations:       15,
	}
}

// NewConvergenceStrategy returns the named strategy, or nil for "" and "none".
func NewConvergenceStrategy(name string, config *ConvergenceConfig) (ConvergenceStrategy, error) {
	switch name {
	case "", "none":
		return nil, nil
	case "no_improvement":
		return NewNoImprovementStrategy(config), nil
	case "plateau":
		return NewPlateauStrategy(config), nil
	case "variance":
		return NewVarianceStrategy(config), nil
	case "combined":
		return NewCombinedStrategy(config), nil
	default:
		return nil, fmt.Errorf("unknown convergence strategy %q", name)
	}
}

// NoImprovementStrategy detects convergence when there's no improvement for N trials
type NoImprovementStrategy struct {
	config *ConvergenceConfig
}

// NewNoImprovementStrategy creates a new no-improvement convergence strategy
func NewNoImprovementStrategy(config *ConvergenceConfig) *NoImprovementStrategy {
	if config == nil {
		config = DefaultConvergenceConfig()
	}
	return &NoImprovementStrategy{config: config}
}

func (s *NoImprovementStrategy) Name() string {
	return "no_improvement"
}

func (s *NoImprovementStrategy) CheckConvergence(history []OptimizationStep) (converged bool, reason string) {
	if len(history) < s.config.MinIterations {
		return false, ""
	}

	bestScore := math.MaxFloat64
	bestIndex := -1
	for i, step := range history {
		if step.Score < bestScore {
			bestScore = step.Score
			bestIndex = i
		}
	}
	if bestIndex < 0 {
		return false, ""
	}

	sinceBest := len(history) - 1 - bestIndex
	if sinceBest >= s.config.NoImprovementIterations {
		return true, fmt.Sprintf("no improvement for %d trials (best at trial %d)", sinceBest, history[bestIndex].Iteration)
	}
	return false, ""
}

// PlateauStrategy detects convergence when recent scores are all within tolerance
type PlateauStrategy struct {
	config *ConvergenceConfig
}

// NewPlateauStrategy creates a new plateau convergence strategy
func NewPlateauStrategy(config *ConvergenceConfig) *PlateauStrategy {
	if config == nil {
		config = DefaultConvergenceConfig()
	}
	return &PlateauStrategy{config: config}
}

func (s *PlateauStrategy) Name() string {
	return "plateau"
}

func (s *PlateauStrategy) CheckConvergence(history []OptimizationStep) (converged bool, reason string) {
	if len(history) < s.config.MinIterations || len(history) < s.config.PlateauIterations || s.config.PlateauIterations <= 0 {
		return false, ""
	}

	recent := history[len(history)-s.config.PlateauIterations:]
	minScore, maxScore := recent[0].Score, recent[0].Score
	for _, step := range recent {
		minScore = math.Min(minScore, step.Score)
		maxScore = math.Max(maxScore, step.Score)
	}

	if scoreRange := maxScore - minScore; scoreRange <= s.config.ScoreTolerance {
		return true, fmt.Sprintf("score plateaued for %d trials (range: %.6f)", s.config.PlateauIterations, scoreRange)
	}
	return false, ""
}

// VarianceStrategy detects convergence when the recent relative spread of scores is low
type VarianceStrategy struct {
	config *ConvergenceConfig
}

// NewVarianceStrategy creates a new variance-based convergence strategy
func NewVarianceStrategy(config *ConvergenceConfig) *VarianceStrategy {
	if config == nil {
		config = DefaultConvergenceConfig()
	}
	return &VarianceStrategy{config: config}
}

func (s *VarianceStrategy) Name() string {
	return "variance"
}

func (s *VarianceStrategy) CheckConvergence(history []OptimizationStep) (converged bool, reason string) {
	if len(history) < s.config.MinIterations {
		return false, ""
	}

	window := s.config.PlateauIterations
	if len(history) < window {
		window = len(history)
	}
	recent := history[len(history)-window:]
	if len(recent) < 2 {
		return false, ""
	}

	scores := make([]float64, len(recent))
	for i, step := range recent {
		scores[i] = step.Score
	}
	m := utils.Mean(scores)
	if m == 0 {
		return false, ""
	}

	relative := math.Sqrt(variance(scores, m)) / math.Abs(m)
	if relative < s.config.ImprovementThreshold {
		return true, fmt.Sprintf("low score variance (relative stddev: %.4f%%)", relative*100)
	}
	return false, ""
}

// CombinedStrategy converges as soon as any of its strategies does
type CombinedStrategy struct {
	strategies []ConvergenceStrategy
}

// NewCombinedStrategy combines the no-improvement and plateau strategies
func NewCombinedStrategy(config *ConvergenceConfig) *CombinedStrategy {
	if config == nil {
		config = DefaultConvergenceConfig()
	}
	return &CombinedStrategy{
		strategies: []ConvergenceStrategy{
			NewNoImprovementStrategy(config),
			NewPlateauStrategy(config),
		},
	}
}

func (s *CombinedStrategy) Name() string {
	return "combined"
}

func (s *CombinedStrategy) CheckConvergence(history []OptimizationStep) (converged bool, reason string) {
	for _, strategy := range s.strategies {
		if ok, why := strategy.CheckConvergence(history); ok {
			return true, fmt.Sprintf("%s: %s", strategy.Name(), why)
		}
	}
	return false, ""
}
