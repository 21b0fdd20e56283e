package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorRecordByLabels(t *testing.T) {
	c := NewCollector()
	now := time.Now()

	labels := map[string]string{"phase": "global"}
	c.Record("latency", 10, now, labels)
	c.Record("latency", 20, now.Add(time.Second), map[string]string{"phase": "global"})
	c.Record("latency", 99, now, map[string]string{"phase": "local"})
	labels["phase"] = "mutated"

	agg := c.Aggregate("latency", map[string]string{"phase": "global"})
	require.NotNil(t, agg)
	assert.Equal(t, int64(2), agg.Count)
	assert.Equal(t, 15.0, agg.Mean)

	assert.Nil(t, c.Aggregate("latency", nil))
	assert.Nil(t, c.Aggregate("unknown", nil))
}

func TestCollectorScoreStats(t *testing.T) {
	c := NewCollector()
	for _, s := range []float64{5, 1, 3, 2, 4} {
		c.RecordScore("global", s)
	}

	agg := c.ScoreStats("global")
	require.NotNil(t, agg)
	assert.Equal(t, int64(5), agg.Count)
	assert.Equal(t, 15.0, agg.Sum)
	assert.Equal(t, 1.0, agg.Min)
	assert.Equal(t, 5.0, agg.Max)
	assert.Equal(t, 3.0, agg.Mean)
	assert.Equal(t, 3.0, agg.P50)
	assert.InDelta(t, 4.8, agg.P95, 1e-9)

	assert.Nil(t, c.ScoreStats("local"))
}

func TestCollectorLabelOrderIndependent(t *testing.T) {
	c := NewCollector()
	c.RecordNow("m", 1, map[string]string{"a": "1", "b": "2"})
	c.RecordNow("m", 2, map[string]string{"b": "2", "a": "1"})

	agg := c.Aggregate("m", map[string]string{"a": "1", "b": "2"})
	require.NotNil(t, agg)
	assert.Equal(t, int64(2), agg.Count)
}

func TestCollectorEvalStats(t *testing.T) {
	c := NewCollector()
	assert.Nil(t, c.EvalStats())

	c.RecordEvalTime(10 * time.Millisecond)
	c.RecordEvalTime(1500 * time.Microsecond)
	c.RecordScore("global", 1)

	agg := c.EvalStats()
	require.NotNil(t, agg)
	assert.Equal(t, int64(2), agg.Count)
	assert.Equal(t, 1.5, agg.Min)
	assert.Equal(t, 10.0, agg.Max)
	assert.Equal(t, 11.5, agg.Sum)
}

func TestCalculatePercentile(t *testing.T) {
	assert.Equal(t, 0.0, calculatePercentile(nil, 0.5))
	assert.Equal(t, 7.0, calculatePercentile([]float64{7}, 0.99))
	assert.Equal(t, 2.5, calculatePercentile([]float64{1, 2, 3, 4}, 0.5))
}
