package improvement

import (
	"context"

	"github.com/GoSim-25-26J-441/autotune-core/internal/blackbox"
	"github.com/GoSim-25-26J-441/autotune-core/internal/metrics"
	"github.com/GoSim-25-26J-441/autotune-core/internal/space"
	"github.com/GoSim-25-26J-441/autotune-core/pkg/logger"
)

// PhaseGlobal and PhaseLocal label the two search phases in metrics,
// progress updates and reports.
const (
	PhaseGlobal = "global"
	PhaseLocal  = "local"
)

// TrialReport describes one finished global trial.
type TrialReport struct {
	Trial      int
	Assignment space.Assignment
	Result     blackbox.Result
	Pruned     int
	Best       SearchState
}

// GlobalConfig configures the global phase.
type GlobalConfig struct {
	// Trials is the evaluation budget; 0 runs until cancelled.
	Trials int
	// Sampler defaults to a time-seeded TPE sampler.
	Sampler Sampler
	// Convergence optionally stops the phase early.
	Convergence ConvergenceStrategy
	// OnTrial is called after every counted trial.
	OnTrial func(TrialReport)

	Metrics   *metrics.Metrics
	Collector *metrics.Collector
}

// GlobalResult is the outcome of the global phase.
type GlobalResult struct {
	State             SearchState
	Trials            int
	Pruned            int
	History           []Observation
	NoValidTrial      bool
	ConvergenceReason string
}

// GlobalSearch samples whole assignments from the explore grid and keeps the
// best successful one. Failed evaluations are pruned: counted, but never
// shown to the sampler.
type GlobalSearch struct {
	space     *space.Space
	evaluator Evaluator
	direction Direction
	config    GlobalConfig
}

// NewGlobalSearch creates a global phase.
func NewGlobalSearch(sp *space.Space, evaluator Evaluator, dir Direction, cfg GlobalConfig) *GlobalSearch {
	if cfg.Sampler == nil {
		cfg.Sampler = NewTPESampler(0)
	}
	return &GlobalSearch{space: sp, evaluator: evaluator, direction: dir, config: cfg}
}

// Run executes trials until the budget is spent, the convergence strategy
// fires or ctx is cancelled. Cancellation is checked before each trial and
// after each evaluation; a result that arrives after cancellation is dropped.
func (g *GlobalSearch) Run(ctx context.Context) *GlobalResult {
	res := &GlobalResult{State: SearchState{Status: StatusRunning}}
	var steps []OptimizationStep

	if g.config.Metrics != nil {
		g.config.Metrics.PhaseStarted(PhaseGlobal)
		defer g.config.Metrics.PhaseFinished(PhaseGlobal)
	}
	logger.Info("global search started", "trials", g.config.Trials, "sampler", g.config.Sampler.Name(), "direction", g.direction.String())

	for trial := 0; g.config.Trials <= 0 || trial < g.config.Trials; trial++ {
		if ctx.Err() != nil {
			res.State.Status = StatusInterrupted
			break
		}

		a := g.config.Sampler.Suggest(g.space, res.History, g.direction)
		r := g.evaluator.Evaluate(a)
		if ctx.Err() != nil {
			res.State.Status = StatusInterrupted
			break
		}

		res.Trials++
		res.State.Iterations = res.Trials
		if !r.OK() {
			res.Pruned++
			logger.Warn("trial pruned", "trial", trial, "reason", r.Reason.String(), "detail", r.Detail)
			g.record(true, 0)
			g.report(trial, a, r, res)
			continue
		}

		res.History = append(res.History, Observation{Trial: trial, Assignment: a.Clone(), Score: r.Score})
		if res.State.offer(a, r.Score, g.direction) {
			logger.Info("global best improved", "trial", trial, "score", r.Score, "params", g.space.Map(a))
			if g.config.Metrics != nil {
				g.config.Metrics.SetBestScore(PhaseGlobal, r.Score)
			}
		}
		g.record(false, r.Score)
		g.report(trial, a, r, res)

		if g.config.Convergence != nil {
			steps = append(steps, OptimizationStep{Iteration: trial, Score: g.direction.Normalize(r.Score)})
			if ok, why := g.config.Convergence.CheckConvergence(steps); ok {
				res.State.Status = StatusConverged
				res.ConvergenceReason = why
				logger.Info("global search converged", "trial", trial, "reason", why)
				break
			}
		}
	}

	if res.State.Status == StatusRunning {
		res.State.Status = StatusDone
	}
	if !res.State.HasBest {
		res.NoValidTrial = true
		res.State.BestAssignment = g.space.DefaultAssignment()
		logger.Warn("global search found no valid trial", "trials", res.Trials, "pruned", res.Pruned)
	}

	logger.Info("global search finished",
		"status", string(res.State.Status),
		"trials", res.Trials,
		"pruned", res.Pruned,
		"best", res.State.BestScore,
		"has_best", res.State.HasBest)
	return res
}

func (g *GlobalSearch) record(pruned bool, score float64) {
	if g.config.Metrics != nil {
		g.config.Metrics.RecordTrial(PhaseGlobal, pruned)
	}
	if !pruned && g.config.Collector != nil {
		g.config.Collector.RecordScore(PhaseGlobal, score)
	}
}

func (g *GlobalSearch) report(trial int, a space.Assignment, r blackbox.Result, res *GlobalResult) {
	if g.config.OnTrial == nil {
		return
	}
	g.config.OnTrial(TrialReport{
		Trial:      trial,
		Assignment: a.Clone(),
		Result:     r,
		Pruned:     res.Pruned,
		Best:       res.State.Clone(),
	})
}
