package improvement

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/GoSim-25-26J-441/autotune-core/internal/metrics"
	"github.com/GoSim-25-26J-441/autotune-core/internal/space"
	"github.com/GoSim-25-26J-441/autotune-core/pkg/logger"
)

// Mode selects which phases a run executes.
type Mode string

const (
	// ModeHybrid runs the global phase, then refines its best point locally.
	ModeHybrid Mode = "hybrid"
	// ModeGlobal runs the global phase only.
	ModeGlobal Mode = "global"
	// ModeLocal runs the local phase only, from the default assignment.
	ModeLocal Mode = "local"
)

// ParseMode parses a mode name.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeHybrid, ModeGlobal, ModeLocal:
		return Mode(s), nil
	case "":
		return ModeHybrid, nil
	default:
		return "", fmt.Errorf("unknown mode %q", s)
	}
}

// RunStatus represents the outcome of a whole run
type RunStatus string

const (
	RunStatusRunning     RunStatus = "running"
	RunStatusCompleted   RunStatus = "completed"
	RunStatusInterrupted RunStatus = "interrupted"
	RunStatusFailed      RunStatus = "failed"
)

// Progress is a point-in-time view of a run, published while it executes.
type Progress struct {
	RunID          string
	Mode           Mode
	Phase          string
	Trials         int
	Pruned         int
	Sweeps         int
	Evaluations    int
	BestScore      float64
	HasBest        bool
	BestAssignment map[string]any
	Finished       bool
	Status         RunStatus
	UpdatedAt      time.Time
}

// ProgressSink receives progress updates. Publish must not block.
type ProgressSink interface {
	Publish(Progress)
}

// OrchestratorConfig configures a run.
type OrchestratorConfig struct {
	Mode      Mode
	Direction Direction
	Global    GlobalConfig
	Local     LocalConfig
	// NoRefine skips the local phase of a hybrid run.
	NoRefine bool
	// Executable is recorded in the result for reporting.
	Executable string

	Metrics   *metrics.Metrics
	Collector *metrics.Collector
	Progress  ProgressSink
}

// RunResult contains the results of one run
type RunResult struct {
	RunID      string
	Mode       Mode
	Status     RunStatus
	Direction  Direction
	Executable string
	StartedAt  time.Time
	Elapsed    time.Duration

	GlobalRan         bool
	GlobalStatus      Status
	GlobalTrials      int
	GlobalPruned      int
	GlobalBestScore   float64
	GlobalHasBest     bool
	GlobalTrend       Trend
	ConvergenceReason string

	LocalRan          bool
	LocalStatus       Status
	LocalSweeps       int
	LocalEvaluations  int
	LocalImprovements int
	LocalTrace        []float64

	BestScore      float64
	HasBest        bool
	BestAssignment space.Assignment
	// ParamOrder lists the parameter names in description order.
	ParamOrder   []string
	NoValidTrial bool
	Impact         Impact

	GlobalStats *metrics.Aggregation
	LocalStats  *metrics.Aggregation
	// EvalStats holds evaluation wall times in milliseconds when the
	// evaluator reports them to the collector.
	EvalStats *metrics.Aggregation
}

// Orchestrator sequences the global and local phases over one space and
// evaluator.
type Orchestrator struct {
	space     *space.Space
	evaluator Evaluator
	config    OrchestratorConfig
}

// NewOrchestrator creates a new run orchestrator
func NewOrchestrator(sp *space.Space, evaluator Evaluator, cfg OrchestratorConfig) *Orchestrator {
	if cfg.Mode == "" {
		cfg.Mode = ModeHybrid
	}
	if cfg.Collector == nil {
		cfg.Collector = metrics.NewCollector()
	}
	return &Orchestrator{space: sp, evaluator: evaluator, config: cfg}
}

// Run executes the configured phases. Cancelling ctx stops the current
// phase at its next check; the best point found so far is still returned.
// An error is returned only for a misconfigured orchestrator.
func (o *Orchestrator) Run(ctx context.Context) (*RunResult, error) {
	if o.space == nil {
		return nil, fmt.Errorf("parameter space is required")
	}
	if o.evaluator == nil {
		return nil, fmt.Errorf("evaluator is required")
	}

	res := &RunResult{
		RunID:      uuid.NewString(),
		Mode:       o.config.Mode,
		Status:     RunStatusRunning,
		Direction:  o.config.Direction,
		Executable: o.config.Executable,
		StartedAt:  time.Now(),
		Impact:     Impact{Verdict: VerdictNotApplicable},
	}
	for _, spec := range o.space.Specs() {
		res.ParamOrder = append(res.ParamOrder, spec.Name)
	}
	logger.Info("run started", "run_id", res.RunID, "mode", string(res.Mode), "direction", res.Direction.String())

	switch o.config.Mode {
	case ModeGlobal:
		o.runGlobal(ctx, res)
	case ModeLocal:
		o.runLocal(ctx, res, o.space.DefaultAssignment(), nil)
	default:
		g := o.runGlobal(ctx, res)
		if g.State.Status == StatusInterrupted || o.config.NoRefine {
			break
		}
		if ctx.Err() != nil {
			res.Status = RunStatusInterrupted
			break
		}
		var known *float64
		if g.State.HasBest {
			score := g.State.BestScore
			known = &score
		}
		o.runLocal(ctx, res, g.State.BestAssignment, known)
	}

	res.Elapsed = time.Since(res.StartedAt)
	res.GlobalStats = o.config.Collector.ScoreStats(PhaseGlobal)
	res.LocalStats = o.config.Collector.ScoreStats(PhaseLocal)
	res.EvalStats = o.config.Collector.EvalStats()

	if res.Status == RunStatusRunning {
		res.Status = RunStatusCompleted
		if !res.HasBest {
			res.Status = RunStatusFailed
		}
	}
	if res.Mode == ModeHybrid && res.GlobalHasBest {
		switch {
		case res.Status == RunStatusInterrupted:
			res.Impact = Impact{Before: res.GlobalBestScore, After: res.BestScore, Verdict: VerdictInterrupted}
		case res.LocalRan:
			res.Impact = CompareScores(res.GlobalBestScore, res.BestScore, res.Direction)
		}
	}

	o.publish(Progress{
		Phase:          "done",
		Trials:         res.GlobalTrials,
		Pruned:         res.GlobalPruned,
		Sweeps:         res.LocalSweeps,
		Evaluations:    res.LocalEvaluations,
		BestScore:      res.BestScore,
		HasBest:        res.HasBest,
		BestAssignment: o.space.Map(res.BestAssignment),
		Finished:       true,
		Status:         res.Status,
	}, res)

	logger.Info("run finished",
		"run_id", res.RunID,
		"status", string(res.Status),
		"elapsed", res.Elapsed.String(),
		"best", res.BestScore,
		"has_best", res.HasBest,
		"params", o.space.Map(res.BestAssignment))
	return res, nil
}

func (o *Orchestrator) runGlobal(ctx context.Context, res *RunResult) *GlobalResult {
	cfg := o.config.Global
	cfg.Metrics = o.config.Metrics
	cfg.Collector = o.config.Collector
	userHook := cfg.OnTrial
	cfg.OnTrial = func(r TrialReport) {
		if userHook != nil {
			userHook(r)
		}
		o.publish(Progress{
			Phase:          PhaseGlobal,
			Trials:         r.Trial + 1,
			Pruned:         r.Pruned,
			BestScore:      r.Best.BestScore,
			HasBest:        r.Best.HasBest,
			BestAssignment: o.space.Map(r.Best.BestAssignment),
		}, res)
	}

	g := NewGlobalSearch(o.space, o.evaluator, o.config.Direction, cfg).Run(ctx)

	res.GlobalRan = true
	res.GlobalStatus = g.State.Status
	res.GlobalTrials = g.Trials
	res.GlobalPruned = g.Pruned
	res.GlobalBestScore = g.State.BestScore
	res.GlobalHasBest = g.State.HasBest
	res.GlobalTrend = ScoreTrend(g.History, o.config.Direction)
	res.ConvergenceReason = g.ConvergenceReason
	res.NoValidTrial = g.NoValidTrial

	res.BestAssignment = g.State.BestAssignment.Clone()
	res.BestScore = g.State.BestScore
	res.HasBest = g.State.HasBest
	if g.State.Status == StatusInterrupted {
		res.Status = RunStatusInterrupted
	}
	return g
}

func (o *Orchestrator) runLocal(ctx context.Context, res *RunResult, start space.Assignment, known *float64) *LocalResult {
	cfg := o.config.Local
	cfg.Metrics = o.config.Metrics
	cfg.Collector = o.config.Collector
	userHook := cfg.OnProbe
	cfg.OnProbe = func(r ProbeReport) {
		if userHook != nil {
			userHook(r)
		}
		o.publish(Progress{
			Phase:          PhaseLocal,
			Trials:         res.GlobalTrials,
			Pruned:         res.GlobalPruned,
			Sweeps:         r.Sweep,
			BestScore:      r.Best.BestScore,
			HasBest:        r.Best.HasBest,
			BestAssignment: o.space.Map(r.Best.BestAssignment),
		}, res)
	}

	l := NewPatternSearch(o.space, o.evaluator, o.config.Direction, cfg).Run(ctx, start, known)

	res.LocalRan = true
	res.LocalStatus = l.State.Status
	res.LocalSweeps = l.Sweeps
	res.LocalEvaluations = l.Evaluations
	res.LocalImprovements = l.Improvements
	res.LocalTrace = l.Trace

	res.BestAssignment = l.State.BestAssignment.Clone()
	res.BestScore = l.State.BestScore
	res.HasBest = l.State.HasBest
	res.NoValidTrial = !l.State.HasBest
	if l.State.Status == StatusInterrupted {
		res.Status = RunStatusInterrupted
	}
	return l
}

func (o *Orchestrator) publish(p Progress, res *RunResult) {
	if o.config.Progress == nil {
		return
	}
	p.RunID = res.RunID
	p.Mode = res.Mode
	if p.Status == "" {
		p.Status = res.Status
	}
	p.UpdatedAt = time.Now()
	o.config.Progress.Publish(p)
}
