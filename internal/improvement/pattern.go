package improvement

import (
	"context"
	"math"
	"time"

	"github.com/GoSim-25-26J-441/autotune-core/internal/blackbox"
	"github.com/GoSim-25-26J-441/autotune-core/internal/metrics"
	"github.com/GoSim-25-26J-441/autotune-core/internal/space"
	"github.com/GoSim-25-26J-441/autotune-core/pkg/logger"
)

// Default local-search tuning.
const (
	DefaultMonitorInterval = 500 * time.Millisecond
	DefaultIntegerFloor    = 1.0
	DefaultContinuousFloor = 0.001
)

// patternPhase is the state of the local-search machine.
type patternPhase int

const (
	probing patternPhase = iota
	shrinking
	monitoring
	finished
)

// ProbeReport describes one evaluated local-search candidate.
type ProbeReport struct {
	Sweep      int
	Parameter  string
	Assignment space.Assignment
	Result     blackbox.Result
	Improved   bool
	Best       SearchState
}

// LocalConfig configures the local phase.
type LocalConfig struct {
	// Infinite keeps re-probing at the minimum step instead of stopping.
	Infinite bool
	// MonitorInterval is the idle wait between re-probes in infinite mode.
	MonitorInterval time.Duration
	// MaxSweeps bounds the number of probing sweeps; 0 means unlimited.
	MaxSweeps int
	// IntegerFloor and ContinuousFloor are the smallest steps per kind.
	IntegerFloor    float64
	ContinuousFloor float64
	// Explorer generates the moves along each axis.
	Explorer ParameterExplorer
	// OnProbe is called after every counted evaluation.
	OnProbe func(ProbeReport)

	Metrics   *metrics.Metrics
	Collector *metrics.Collector
}

// LocalResult is the outcome of the local phase.
type LocalResult struct {
	State        SearchState
	Sweeps       int
	Evaluations  int
	Improvements int
	// Trace holds the best score after each improving move.
	Trace []float64
	// Steps holds the final step of every numeric parameter.
	Steps map[string]float64
}

// PatternSearch is a greedy compass search. It probes one axis at a time
// around the current best, accepts any strict improvement at once, and
// halves the numeric steps when a full sweep finds nothing better.
type PatternSearch struct {
	space     *space.Space
	evaluator Evaluator
	direction Direction
	config    LocalConfig
}

// NewPatternSearch creates a local phase.
func NewPatternSearch(sp *space.Space, evaluator Evaluator, dir Direction, cfg LocalConfig) *PatternSearch {
	if cfg.MonitorInterval <= 0 {
		cfg.MonitorInterval = DefaultMonitorInterval
	}
	if cfg.IntegerFloor <= 0 {
		cfg.IntegerFloor = DefaultIntegerFloor
	}
	if cfg.ContinuousFloor <= 0 {
		cfg.ContinuousFloor = DefaultContinuousFloor
	}
	if cfg.Explorer == nil {
		cfg.Explorer = NewCompassExplorer()
	}
	return &PatternSearch{space: sp, evaluator: evaluator, direction: dir, config: cfg}
}

// Run searches from start. When known is non-nil it is taken as the score of
// start; otherwise start is evaluated once first. The best score never
// regresses below the seed.
func (p *PatternSearch) Run(ctx context.Context, start space.Assignment, known *float64) *LocalResult {
	res := &LocalResult{
		State: SearchState{BestAssignment: start.Clone(), Status: StatusRunning},
		Steps: p.initialSteps(),
	}

	if p.config.Metrics != nil {
		p.config.Metrics.PhaseStarted(PhaseLocal)
		defer p.config.Metrics.PhaseFinished(PhaseLocal)
	}
	logger.Info("local search started", "infinite", p.config.Infinite, "params", p.space.Map(start))

	if known != nil {
		res.State.BestScore = *known
		res.State.HasBest = true
	} else {
		if ctx.Err() != nil {
			return p.finish(res, StatusInterrupted)
		}
		r := p.evaluator.Evaluate(start)
		if ctx.Err() != nil {
			return p.finish(res, StatusInterrupted)
		}
		res.Evaluations++
		p.record(r)
		if r.OK() {
			res.State.BestScore = r.Score
			res.State.HasBest = true
		} else {
			logger.Warn("local search seed failed", "reason", r.Reason.String(), "detail", r.Detail)
		}
	}

	phase := probing
	for phase != finished {
		switch phase {
		case probing:
			if ctx.Err() != nil {
				return p.finish(res, StatusInterrupted)
			}
			if p.config.MaxSweeps > 0 && res.Sweeps >= p.config.MaxSweeps {
				return p.finish(res, StatusDone)
			}
			improved, interrupted := p.sweep(ctx, res)
			if interrupted {
				return p.finish(res, StatusInterrupted)
			}
			if !improved {
				phase = shrinking
			}

		case shrinking:
			switch {
			case p.shrink(res.Steps):
				logger.Debug("local search step reduced", "steps", res.Steps)
				phase = probing
			case p.config.Infinite:
				phase = monitoring
			default:
				phase = finished
			}

		case monitoring:
			timer := time.NewTimer(p.config.MonitorInterval)
			select {
			case <-ctx.Done():
				timer.Stop()
				return p.finish(res, StatusInterrupted)
			case <-timer.C:
			}
			phase = probing
		}
	}
	return p.finish(res, StatusDone)
}

// sweep probes every axis once, in parameter order. The candidates of an axis are
// fixed from the best value held when the axis is reached, so a move that
// improves does not shift the remaining moves of the same axis.
func (p *PatternSearch) sweep(ctx context.Context, res *LocalResult) (improved, interrupted bool) {
	res.Sweeps++
	res.State.Iterations = res.Sweeps

	for _, spec := range p.space.Specs() {
		base := res.State.BestAssignment[spec.Name]
		for _, v := range AxisCandidates(p.config.Explorer, spec, base, res.Steps[spec.Name]) {
			if v == res.State.BestAssignment[spec.Name] {
				continue
			}
			if ctx.Err() != nil {
				return improved, true
			}

			cand := res.State.BestAssignment.Clone()
			cand[spec.Name] = v
			r := p.evaluator.Evaluate(cand)
			if ctx.Err() != nil {
				return improved, true
			}
			res.Evaluations++

			better := false
			p.record(r)
			if r.OK() {
				if !res.State.HasBest || p.direction.Better(r.Score, res.State.BestScore) {
					res.State.BestAssignment = cand
					res.State.BestScore = r.Score
					res.State.HasBest = true
					res.Improvements++
					res.Trace = append(res.Trace, r.Score)
					better, improved = true, true
					logger.Info("local best improved", "sweep", res.Sweeps, "param", spec.Name, "value", v.String(), "score", r.Score)
					if p.config.Metrics != nil {
						p.config.Metrics.SetBestScore(PhaseLocal, r.Score)
					}
				}
			}

			if p.config.OnProbe != nil {
				p.config.OnProbe(ProbeReport{
					Sweep:      res.Sweeps,
					Parameter:  spec.Name,
					Assignment: cand.Clone(),
					Result:     r,
					Improved:   better,
					Best:       res.State.Clone(),
				})
			}
		}
	}
	return improved, false
}

// shrink halves every numeric step above its floor and reports whether any
// step got smaller. Integer steps truncate and never drop below the floor.
func (p *PatternSearch) shrink(steps map[string]float64) bool {
	reduced := false
	for _, spec := range p.space.Specs() {
		step, ok := steps[spec.Name]
		if !ok {
			continue
		}
		next := step
		switch spec.Kind {
		case space.Integer:
			next = math.Max(p.config.IntegerFloor, math.Trunc(step/2))
		case space.Continuous:
			next = math.Max(p.config.ContinuousFloor, step/2)
		}
		if next < step {
			steps[spec.Name] = next
			reduced = true
		}
	}
	if reduced && p.config.Metrics != nil {
		p.config.Metrics.RecordStepReduction()
	}
	return reduced
}

func (p *PatternSearch) initialSteps() map[string]float64 {
	steps := make(map[string]float64)
	for _, spec := range p.space.Specs() {
		switch spec.Kind {
		case space.Integer:
			steps[spec.Name] = math.Max(p.config.IntegerFloor, math.Round(spec.RefineStep))
		case space.Continuous:
			steps[spec.Name] = math.Max(p.config.ContinuousFloor, spec.RefineStep)
		}
	}
	return steps
}

func (p *PatternSearch) record(r blackbox.Result) {
	if p.config.Metrics != nil {
		p.config.Metrics.RecordTrial(PhaseLocal, !r.OK())
	}
	if r.OK() && p.config.Collector != nil {
		p.config.Collector.RecordScore(PhaseLocal, r.Score)
	}
}

func (p *PatternSearch) finish(res *LocalResult, status Status) *LocalResult {
	res.State.Status = status
	logger.Info("local search finished",
		"status", string(status),
		"sweeps", res.Sweeps,
		"evaluations", res.Evaluations,
		"improvements", res.Improvements,
		"best", res.State.BestScore,
		"has_best", res.State.HasBest)
	return res
}
