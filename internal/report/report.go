// Package report renders the outcome of a tuning run as a text report and an
// optional JSON artifact.
package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"github.com/GoSim-25-26J-441/autotune-core/internal/improvement"
	"github.com/GoSim-25-26J-441/autotune-core/internal/metrics"
	"github.com/GoSim-25-26J-441/autotune-core/pkg/logger"
)

// Formats understood by Write.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Options control where and how reports are written.
type Options struct {
	Dir        string
	ConfigFile string
	Formats    []string
	// Now stamps the file names. Defaults to time.Now.
	Now func() time.Time
}

// Write renders res in every requested format and returns the paths written.
// An empty format list writes the text report only.
func Write(res *improvement.RunResult, opts Options) ([]string, error) {
	if res == nil {
		return nil, fmt.Errorf("report: nil result")
	}
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	dir := opts.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create report directory %s: %w", dir, err)
	}

	formats := opts.Formats
	if len(formats) == 0 {
		formats = []string{FormatText}
	}

	stamp := now()
	var written []string
	for _, format := range formats {
		var (
			data []byte
			ext  string
			err  error
		)
		switch format {
		case FormatText:
			var sb strings.Builder
			err = Render(&sb, res, opts.ConfigFile)
			data, ext = []byte(sb.String()), ".txt"
		case FormatJSON:
			data, err = MarshalJSON(res, opts.ConfigFile)
			ext = ".json"
		default:
			return written, fmt.Errorf("report: unknown format %q", format)
		}
		if err != nil {
			return written, err
		}

		path := filepath.Join(dir, FileName(res.Mode, res.Executable, stamp, ext))
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return written, fmt.Errorf("failed to write report %s: %w", path, err)
		}
		logger.Info("report written", "path", path, "format", format)
		written = append(written, path)
	}
	return written, nil
}

// FileName builds report_<MODE>_<model>_<timestamp><ext>.
func FileName(mode improvement.Mode, executable string, t time.Time, ext string) string {
	return fmt.Sprintf("report_%s_%s_%s%s",
		strings.ToUpper(string(mode)), ModelName(executable), t.Format("2006-01-02_15-04-05"), ext)
}

// ModelName is the executable's base name without a .exe suffix, made safe
// for use in a file name.
func ModelName(executable string) string {
	name := filepath.Base(strings.TrimSpace(executable))
	name = strings.TrimSuffix(name, ".exe")
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "unknown"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', ':', '*', '?', '"', '<', '>', '|', '/', '\\':
			return '_'
		}
		return r
	}, name)
}

// ImpactText is the one-paragraph analysis of what refinement achieved.
func ImpactText(res *improvement.RunResult) string {
	impact := res.Impact
	switch impact.Verdict {
	case improvement.VerdictInterrupted:
		return "INTERRUPTED: the run was stopped before finishing.\nThe values below are the best state found before the stop."
	case improvement.VerdictImproved:
		verb := "increased"
		if res.Direction == improvement.Minimize {
			verb = "reduced"
		}
		return fmt.Sprintf("SUCCESS: local refinement %s the value by %s (%.2f%%).",
			verb, formatDelta(impact.Delta), impact.Percent)
	case improvement.VerdictNeutral:
		extreme := "maximum"
		if res.Direction == improvement.Minimize {
			extreme = "minimum"
		}
		return fmt.Sprintf("NEUTRAL: global search had already found the local %s.", extreme)
	default:
		return "Not applicable: no global result was refined in this mode."
	}
}

func formatDelta(d float64) string {
	if d > 0 {
		return fmt.Sprintf("+%.4f", d)
	}
	return fmt.Sprintf("%.4f", d)
}

var reportTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"score":  formatScore,
	"upper":  strings.ToUpper,
	"params": formatParams,
}).Parse(`================================================================================
                         {{upper .Title}} OPTIMIZATION REPORT
================================================================================
Run status            : {{upper .Status}}
Run ID                : {{.RunID}}
Started at            : {{.StartedAt}}
Finished at           : {{.FinishedAt}}
Executable            : {{.Executable}}
Config file           : {{.ConfigFile}}
Objective             : {{upper .Objective}}

--------------------------------------------------------------------------------
                                  TIMING
--------------------------------------------------------------------------------
Total elapsed         : {{printf "%.2f" .ElapsedSeconds}} seconds
{{- if .GlobalRan}}
Global trials         : {{.GlobalTrials}} ({{.GlobalPruned}} pruned, sampler trend {{.GlobalTrend}})
{{- if .ConvergenceReason}}
Converged by          : {{.ConvergenceReason}}
{{- end}}
{{- end}}
{{- if .LocalRan}}
Local sweeps          : {{.LocalSweeps}} ({{.LocalEvaluations}} evaluations, {{.LocalImprovements}} improvements)
{{- end}}

--------------------------------------------------------------------------------
                                 RESULTS
--------------------------------------------------------------------------------
{{- if .GlobalRan}}
1. End of global search : {{score .GlobalHasBest .GlobalBest}}
{{- end}}
{{- if .LocalRan}}
2. End of local search  : {{score .HasBest .Best}}
{{- else}}
Final value             : {{score .HasBest .Best}}
{{- end}}
{{- if .NoValidTrial}}
No trial produced a valid value; the default parameters are reported.
{{- end}}

>>> IMPACT ANALYSIS:
{{.Impact}}
{{- if or .GlobalStats .LocalStats}}

--------------------------------------------------------------------------------
                              SCORE STATISTICS
--------------------------------------------------------------------------------
{{- with .GlobalStats}}
Global : n={{.Count}} min={{printf "%.4f" .Min}} mean={{printf "%.4f" .Mean}} max={{printf "%.4f" .Max}} p50={{printf "%.4f" .P50}} p95={{printf "%.4f" .P95}}
{{- end}}
{{- with .LocalStats}}
Local  : n={{.Count}} min={{printf "%.4f" .Min}} mean={{printf "%.4f" .Mean}} max={{printf "%.4f" .Max}} p50={{printf "%.4f" .P50}} p95={{printf "%.4f" .P95}}
{{- end}}
{{- end}}
{{- with .EvalStats}}

--------------------------------------------------------------------------------
                             EVALUATION TIME
--------------------------------------------------------------------------------
Per evaluation (ms)   : n={{.Count}} min={{printf "%.1f" .Min}} mean={{printf "%.1f" .Mean}} max={{printf "%.1f" .Max}} p95={{printf "%.1f" .P95}}
Total (ms)            : {{printf "%.1f" .Sum}}
{{- end}}

--------------------------------------------------------------------------------
                             BEST PARAMETERS
--------------------------------------------------------------------------------
{{params .Params}}
================================================================================
`))

type reportView struct {
	Title             string
	Status            string
	RunID             string
	StartedAt         string
	FinishedAt        string
	Executable        string
	ConfigFile        string
	Objective         string
	ElapsedSeconds    float64
	GlobalRan         bool
	GlobalTrials      int
	GlobalPruned      int
	GlobalTrend       improvement.Trend
	ConvergenceReason string
	GlobalHasBest     bool
	GlobalBest        float64
	LocalRan          bool
	LocalSweeps       int
	LocalEvaluations  int
	LocalImprovements int
	HasBest           bool
	Best              float64
	NoValidTrial      bool
	Impact            string
	GlobalStats       *metrics.Aggregation
	LocalStats        *metrics.Aggregation
	EvalStats         *metrics.Aggregation
	Params            []param
}

type param struct {
	Name  string
	Value string
}

// Render writes the text report of res to w.
func Render(w io.Writer, res *improvement.RunResult, configFile string) error {
	if err := reportTemplate.Execute(w, newView(res, configFile)); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	return nil
}

func newView(res *improvement.RunResult, configFile string) reportView {
	const layout = "2006-01-02 15:04:05"
	if configFile == "" {
		configFile = "-"
	}
	v := reportView{
		Title:             string(res.Mode),
		Status:            string(res.Status),
		RunID:             res.RunID,
		StartedAt:         res.StartedAt.Format(layout),
		FinishedAt:        res.StartedAt.Add(res.Elapsed).Format(layout),
		Executable:        res.Executable,
		ConfigFile:        configFile,
		Objective:         res.Direction.String(),
		ElapsedSeconds:    res.Elapsed.Seconds(),
		GlobalRan:         res.GlobalRan,
		GlobalTrials:      res.GlobalTrials,
		GlobalPruned:      res.GlobalPruned,
		GlobalTrend:       res.GlobalTrend,
		ConvergenceReason: res.ConvergenceReason,
		GlobalHasBest:     res.GlobalHasBest,
		GlobalBest:        res.GlobalBestScore,
		LocalRan:          res.LocalRan,
		LocalSweeps:       res.LocalSweeps,
		LocalEvaluations:  res.LocalEvaluations,
		LocalImprovements: res.LocalImprovements,
		HasBest:           res.HasBest,
		Best:              res.BestScore,
		NoValidTrial:      res.NoValidTrial,
		Impact:            ImpactText(res),
		GlobalStats:       res.GlobalStats,
		LocalStats:        res.LocalStats,
		EvalStats:         res.EvalStats,
	}
	for _, name := range paramNames(res) {
		v.Params = append(v.Params, param{Name: name, Value: res.BestAssignment[name].String()})
	}
	return v
}

func formatScore(ok bool, score float64) string {
	if !ok {
		return "none"
	}
	return fmt.Sprintf("%g", score)
}

func formatParams(params []param) string {
	if len(params) == 0 {
		return "(none)"
	}
	width := 0
	for _, p := range params {
		if len(p.Name) > width {
			width = len(p.Name)
		}
	}
	var sb strings.Builder
	for _, p := range params {
		fmt.Fprintf(&sb, "%-*s = %s\n", width, p.Name, p.Value)
	}
	return sb.String()
}
