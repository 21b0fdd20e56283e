package report

import (
	"fmt"
	"math"
	"sort"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/GoSim-25-26J-441/autotune-core/internal/improvement"
	"github.com/GoSim-25-26J-441/autotune-core/internal/metrics"
)

// Artifact converts res into a protobuf Struct. Scores that were never
// observed are left out.
func Artifact(res *improvement.RunResult, configFile string) (*structpb.Struct, error) {
	names := paramNames(res)
	params := make(map[string]any, len(names))
	order := make([]any, len(names))
	for i, name := range names {
		params[name] = res.BestAssignment[name].Interface()
		order[i] = name
	}

	doc := map[string]any{
		"run_id":         res.RunID,
		"mode":           string(res.Mode),
		"status":         string(res.Status),
		"objective":      res.Direction.String(),
		"executable":     res.Executable,
		"config_file":    configFile,
		"started_at":     res.StartedAt.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		"elapsed_ms":     res.Elapsed.Milliseconds(),
		"no_valid_trial": res.NoValidTrial,
		"best_params":    params,
		"param_order":    order,
		"impact": map[string]any{
			"verdict": string(res.Impact.Verdict),
			"before":  finiteOrNil(res.Impact.Before),
			"after":   finiteOrNil(res.Impact.After),
			"delta":   finiteOrNil(res.Impact.Delta),
			"percent": finiteOrNil(res.Impact.Percent),
		},
	}
	if res.HasBest {
		doc["best_score"] = finiteOrNil(res.BestScore)
	}
	if res.GlobalRan {
		global := map[string]any{
			"status": string(res.GlobalStatus),
			"trials": res.GlobalTrials,
			"pruned": res.GlobalPruned,
			"trend":  string(res.GlobalTrend),
		}
		if res.GlobalHasBest {
			global["best_score"] = finiteOrNil(res.GlobalBestScore)
		}
		if res.ConvergenceReason != "" {
			global["convergence"] = res.ConvergenceReason
		}
		if res.GlobalStats != nil {
			global["stats"] = statsMap(res.GlobalStats)
		}
		doc["global"] = global
	}
	if res.LocalRan {
		trace := make([]any, 0, len(res.LocalTrace))
		for _, s := range res.LocalTrace {
			trace = append(trace, finiteOrNil(s))
		}
		local := map[string]any{
			"status":       string(res.LocalStatus),
			"sweeps":       res.LocalSweeps,
			"evaluations":  res.LocalEvaluations,
			"improvements": res.LocalImprovements,
			"trace":        trace,
		}
		if res.LocalStats != nil {
			local["stats"] = statsMap(res.LocalStats)
		}
		doc["local"] = local
	}
	if res.EvalStats != nil {
		doc["evaluation_ms"] = statsMap(res.EvalStats)
	}

	st, err := structpb.NewStruct(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to build report artifact: %w", err)
	}
	return st, nil
}

// MarshalJSON renders the artifact of res as indented JSON.
func MarshalJSON(res *improvement.RunResult, configFile string) ([]byte, error) {
	st, err := Artifact(res, configFile)
	if err != nil {
		return nil, err
	}
	data, err := protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(st)
	if err != nil {
		return nil, fmt.Errorf("failed to encode report artifact: %w", err)
	}
	return data, nil
}

func statsMap(a *metrics.Aggregation) map[string]any {
	return map[string]any{
		"count": a.Count,
		"sum":   a.Sum,
		"min":   a.Min,
		"max":   a.Max,
		"mean":  a.Mean,
		"p50":   a.P50,
		"p95":   a.P95,
		"p99":   a.P99,
	}
}

func finiteOrNil(v float64) any {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}

// paramNames returns the names of the best assignment in description order.
// Names missing from the order follow alphabetically.
func paramNames(res *improvement.RunResult) []string {
	names := make([]string, 0, len(res.BestAssignment))
	seen := make(map[string]bool, len(res.BestAssignment))
	for _, name := range res.ParamOrder {
		if _, ok := res.BestAssignment[name]; ok && !seen[name] {
			names = append(names, name)
			seen[name] = true
		}
	}
	var rest []string
	for name := range res.BestAssignment {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(names, rest...)
}
