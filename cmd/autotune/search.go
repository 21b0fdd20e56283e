package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/GoSim-25-26J-441/autotune-core/internal/blackbox"
	"github.com/GoSim-25-26J-441/autotune-core/internal/improvement"
	"github.com/GoSim-25-26J-441/autotune-core/internal/metrics"
	"github.com/GoSim-25-26J-441/autotune-core/internal/monitor"
	"github.com/GoSim-25-26J-441/autotune-core/internal/report"
	"github.com/GoSim-25-26J-441/autotune-core/internal/space"
	"github.com/GoSim-25-26J-441/autotune-core/internal/wizard"
	"github.com/GoSim-25-26J-441/autotune-core/pkg/config"
	"github.com/GoSim-25-26J-441/autotune-core/pkg/logger"
)

// errNoResult is returned when a run finished without a single successful
// evaluation.
var errNoResult = errors.New("no evaluation produced a value")

// searchFlags are the per-command options of the search commands.
type searchFlags struct {
	descriptionFile string
	mode            string
	maximize        bool
	minimize        bool
	noRefine        bool
	infinite        bool
	maxSweeps       int
	workDir         string
}

func addSearchFlags(cmd *cobra.Command, f *searchFlags) {
	flags := cmd.Flags()
	flags.StringVarP(&f.descriptionFile, "config", "c", "", "parameter description file (YAML or JSON)")
	flags.BoolVar(&f.maximize, "max", false, "maximize the output")
	flags.BoolVar(&f.minimize, "min", false, "minimize the output")
	flags.StringVar(&f.workDir, "workdir", "", "directory the executable runs in")
	flags.Int64("seed", 0, "sampler seed (0 seeds from the clock)")
	flags.Duration("monitor-interval", 500*time.Millisecond, "pause between re-probes at the minimum step")
	_ = cmd.MarkFlagRequired("config")
	cmd.MarkFlagsMutuallyExclusive("max", "min")
}

func addGlobalFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.IntP("trials", "t", 50, "global search budget (0 runs until interrupted)")
	flags.String("sampler", "tpe", "global sampler (tpe, random)")
	flags.String("convergence", "", "stop global search early (no_improvement, plateau, variance, combined)")
}

func newRunCmd(app *cli) *cobra.Command {
	f := &searchFlags{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a hybrid search: global sampling, then local refinement",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.search(cmd.Context(), f)
		},
	}
	addSearchFlags(cmd, f)
	addGlobalFlags(cmd)
	cmd.Flags().StringVar(&f.mode, "mode", string(improvement.ModeHybrid), "hybrid, global or local")
	cmd.Flags().BoolVar(&f.noRefine, "norefine", false, "skip the local refinement phase")
	cmd.Flags().BoolVar(&f.infinite, "infinite", false, "keep refining at the minimum step until interrupted")
	cmd.Flags().IntVar(&f.maxSweeps, "max-sweeps", 0, "bound the local phase to this many sweeps")
	return cmd
}

func newPatternCmd(app *cli) *cobra.Command {
	f := &searchFlags{mode: string(improvement.ModeLocal), infinite: true}
	var once bool
	cmd := &cobra.Command{
		Use:   "pattern",
		Short: "Run the local pattern search from the initial values until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f.infinite = !once
			return app.search(cmd.Context(), f)
		},
	}
	addSearchFlags(cmd, f)
	cmd.Flags().BoolVar(&once, "once", false, "stop when the steps reach their minimum")
	cmd.Flags().IntVar(&f.maxSweeps, "max-sweeps", 0, "bound the search to this many sweeps")
	return cmd
}

func newExploreCmd(app *cli) *cobra.Command {
	f := &searchFlags{mode: string(improvement.ModeGlobal)}
	cmd := &cobra.Command{
		Use:   "explore",
		Short: "Run the global search only, until interrupted unless trials are set",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !app.trialsSet {
				app.settings.Trials = 0
			}
			return app.search(cmd.Context(), f)
		},
	}
	addSearchFlags(cmd, f)
	addGlobalFlags(cmd)
	return cmd
}

// search loads the description, runs the orchestrator and writes reports.
func (c *cli) search(ctx context.Context, f *searchFlags) error {
	mode, err := improvement.ParseMode(f.mode)
	if err != nil {
		return err
	}
	desc, err := config.LoadDescription(f.descriptionFile)
	if err != nil {
		return err
	}
	sp, err := space.New(desc)
	if err != nil {
		return err
	}
	objective, err := c.objective(desc, f)
	if err != nil {
		return err
	}
	dir, err := improvement.ParseDirection(objective)
	if err != nil {
		return err
	}

	s := c.settings
	sampler, err := improvement.NewSampler(s.Sampler, s.Seed)
	if err != nil {
		return err
	}
	convergence, err := improvement.NewConvergenceStrategy(s.Convergence, improvement.DefaultConvergenceConfig())
	if err != nil {
		return err
	}

	m := metrics.NewMetrics()
	collector := metrics.NewCollector()
	opts := []blackbox.Option{
		blackbox.WithMarkers(s.Markers...),
		blackbox.WithMetrics(m),
		blackbox.WithObserver(func(_ space.Assignment, _ blackbox.Result, elapsed time.Duration) {
			collector.RecordEvalTime(elapsed)
		}),
	}
	if f.workDir != "" {
		opts = append(opts, blackbox.WithWorkDir(f.workDir))
	}
	evaluator := blackbox.New(desc.Executable, sp, opts...)

	mon := monitor.New(s.MetricsAddr, s.GRPCAddr)
	var progress improvement.ProgressSink
	if mon.Enabled() {
		httpAddr, grpcAddr, err := mon.Start()
		if err != nil {
			return err
		}
		defer mon.Shutdown(context.Background())
		logger.Info("monitor started", "http", httpAddr, "grpc", grpcAddr)
		progress = mon.Store
	}

	orch := improvement.NewOrchestrator(sp, evaluator, improvement.OrchestratorConfig{
		Mode:      mode,
		Direction: dir,
		Global: improvement.GlobalConfig{
			Trials:      s.Trials,
			Sampler:     sampler,
			Convergence: convergence,
			OnTrial:     logTrial(sp),
			Metrics:     m,
		},
		Local: improvement.LocalConfig{
			Infinite:        f.infinite,
			MonitorInterval: s.MonitorInterval,
			MaxSweeps:       f.maxSweeps,
			OnProbe:         logProbe(sp),
			Metrics:         m,
		},
		NoRefine:   f.noRefine,
		Executable: desc.Executable,
		Metrics:    m,
		Collector:  collector,
		Progress:   progress,
	})

	fmt.Fprintf(c.out, "--- starting %s search: %s %s ---\n", mode, dir, desc.Executable)
	fmt.Fprintln(c.out, "(press Ctrl+C at any time; the report is still written)")

	res, err := orch.Run(ctx)
	if err != nil {
		return err
	}
	c.printSummary(res, sp)

	paths, err := report.Write(res, report.Options{
		Dir:        s.ReportDir,
		ConfigFile: f.descriptionFile,
		Formats:    s.ReportFormats,
	})
	for _, p := range paths {
		fmt.Fprintf(c.out, "report saved: %s\n", p)
	}
	if err != nil {
		return err
	}
	if res.Status == improvement.RunStatusFailed {
		return errNoResult
	}
	return nil
}

// objective picks the direction: an explicit flag first, then the
// description, then an interactive prompt when stdin is a terminal.
func (c *cli) objective(desc *config.Description, f *searchFlags) (string, error) {
	switch {
	case f.maximize:
		return config.ObjectiveMaximize, nil
	case f.minimize:
		return config.ObjectiveMinimize, nil
	case desc.Objective != "":
		return desc.ObjectiveOrDefault(), nil
	case isTerminal(c.in):
		return wizard.New(c.in, c.out).Objective()
	default:
		return config.ObjectiveMaximize, nil
	}
}

func isTerminal(r any) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

func logTrial(sp *space.Space) func(improvement.TrialReport) {
	return func(r improvement.TrialReport) {
		if !r.Result.OK() {
			logger.Warn("trial failed", "trial", r.Trial, "reason", r.Result.Outcome(), "detail", r.Result.Detail)
			return
		}
		logger.Info("trial",
			"trial", r.Trial,
			"score", r.Result.Score,
			"best", r.Best.BestScore,
			"params", sp.Map(r.Assignment))
	}
}

func logProbe(sp *space.Space) func(improvement.ProbeReport) {
	return func(r improvement.ProbeReport) {
		if !r.Improved {
			logger.Debug("probe", "sweep", r.Sweep, "parameter", r.Parameter, "outcome", r.Result.Outcome())
			return
		}
		logger.Info("improvement",
			"sweep", r.Sweep,
			"parameter", r.Parameter,
			"score", r.Result.Score,
			"params", sp.Map(r.Assignment))
	}
}

func (c *cli) printSummary(res *improvement.RunResult, sp *space.Space) {
	line := "============================================================"
	fmt.Fprintln(c.out, line)
	fmt.Fprintf(c.out, " FINAL RESULT (%s)\n", res.Status)
	fmt.Fprintln(c.out, line)
	if !res.HasBest {
		fmt.Fprintln(c.out, " no result was produced")
		fmt.Fprintln(c.out, line)
		return
	}
	fmt.Fprintf(c.out, " objective   : %s\n", res.Direction)
	fmt.Fprintf(c.out, " final value : %g\n", res.BestScore)
	fmt.Fprintf(c.out, " elapsed     : %.2fs\n", res.Elapsed.Seconds())
	fmt.Fprintln(c.out, " best parameters:")
	for _, spec := range sp.Specs() {
		fmt.Fprintf(c.out, "   %s = %s\n", spec.Name, res.BestAssignment[spec.Name])
	}
	fmt.Fprintln(c.out, line)
}
