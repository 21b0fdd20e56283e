package metrics

import (
	"sort"
	"strings"
	"sync"
	"time"
)

// Series names recorded by the search phases.
const (
	SeriesScore      = "score"
	SeriesEvalMillis = "evaluation_ms"
)

// Point is one recorded observation.
type Point struct {
	Timestamp time.Time         `json:"timestamp"`
	Name      string            `json:"name"`
	Value     float64           `json:"value"`
	Labels    map[string]string `json:"labels,omitempty"`
}

// Aggregation summarizes a series.
type Aggregation struct {
	Count int64   `json:"count"`
	Sum   float64 `json:"sum"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Mean  float64 `json:"mean"`
	P50   float64 `json:"p50"`
	P95   float64 `json:"p95"`
	P99   float64 `json:"p99"`
}

// Collector keeps in-memory series of scores and evaluation times for a run,
// so that reports can print per-phase statistics after the fact.
type Collector struct {
	mu sync.RWMutex

	// metric name -> label key -> points
	series map[string]map[string][]Point
}

// NewCollector creates a new collector
func NewCollector() *Collector {
	return &Collector{
		series: make(map[string]map[string][]Point),
	}
}

// Record records a value at a specific timestamp
func (c *Collector) Record(name string, value float64, timestamp time.Time, labels map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := labelKey(labels)
	if c.series[name] == nil {
		c.series[name] = make(map[string][]Point)
	}
	c.series[name][key] = append(c.series[name][key], Point{
		Timestamp: timestamp,
		Name:      name,
		Value:     value,
		Labels:    copyLabels(labels),
	})
}

// RecordNow records a value at the current time
func (c *Collector) RecordNow(name string, value float64, labels map[string]string) {
	c.Record(name, value, time.Now(), labels)
}

// RecordScore records a successful evaluation score for a phase.
func (c *Collector) RecordScore(phase string, score float64) {
	c.RecordNow(SeriesScore, score, map[string]string{"phase": phase})
}

// Aggregate returns statistics for the series, or nil when it is empty.
func (c *Collector) Aggregate(name string, labels map[string]string) *Aggregation {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return calculateAggregation(c.series[name][labelKey(labels)])
}

// RecordEvalTime records the wall time of one evaluation in milliseconds.
func (c *Collector) RecordEvalTime(elapsed time.Duration) {
	c.RecordNow(SeriesEvalMillis, float64(elapsed)/float64(time.Millisecond), nil)
}

// EvalStats returns evaluation time statistics in milliseconds, or nil when
// nothing was evaluated.
func (c *Collector) EvalStats() *Aggregation {
	return c.Aggregate(SeriesEvalMillis, nil)
}

// ScoreStats returns score statistics for a phase, or nil when the phase
// recorded no successful evaluation.
func (c *Collector) ScoreStats(phase string) *Aggregation {
	return c.Aggregate(SeriesScore, map[string]string{"phase": phase})
}

// labelKey creates a key from labels for map lookup
func labelKey(labels map[string]string) string {
	if len(labels) == 0 {
		return ""
	}

	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(labels[k])
		b.WriteByte(',')
	}
	return b.String()
}

func copyLabels(labels map[string]string) map[string]string {
	if labels == nil {
		return nil
	}
	out := make(map[string]string, len(labels))
	for k, v := range labels {
		out[k] = v
	}
	return out
}

func calculateAggregation(points []Point) *Aggregation {
	if len(points) == 0 {
		return nil
	}

	values := make([]float64, len(points))
	sum := 0.0
	for i, p := range points {
		values[i] = p.Value
		sum += p.Value
	}
	sort.Float64s(values)

	return &Aggregation{
		Count: int64(len(values)),
		Sum:   sum,
		Min:   values[0],
		Max:   values[len(values)-1],
		Mean:  sum / float64(len(values)),
		P50:   calculatePercentile(values, 0.50),
		P95:   calculatePercentile(values, 0.95),
		P99:   calculatePercentile(values, 0.99),
	}
}

// calculatePercentile calculates the percentile value from a sorted slice
func calculatePercentile(sortedValues []float64, p float64) float64 {
	if len(sortedValues) == 0 {
		return 0.0
	}
	if len(sortedValues) == 1 {
		return sortedValues[0]
	}

	index := p * float64(len(sortedValues)-1)
	lower := int(index)
	upper := lower + 1

	if upper >= len(sortedValues) {
		return sortedValues[len(sortedValues)-1]
	}

	weight := index - float64(lower)
	return sortedValues[lower]*(1-weight) + sortedValues[upper]*weight
}
