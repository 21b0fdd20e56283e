package monitor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoSim-25-26J-441/autotune-core/internal/improvement"
)

func TestProgressStorePublishAndGet(t *testing.T) {
	store := NewProgressStore()

	_, ok := store.Latest()
	assert.False(t, ok)

	store.Publish(improvement.Progress{RunID: "run-1", Phase: improvement.PhaseGlobal, Trials: 1})
	store.Publish(improvement.Progress{RunID: "run-1", Phase: improvement.PhaseGlobal, Trials: 2})

	rec, ok := store.Get("run-1")
	require.True(t, ok)
	assert.Equal(t, 2, rec.Progress.Trials)
	assert.Equal(t, 2, rec.Updates)
	assert.False(t, rec.CreatedAt.IsZero())

	_, ok = store.Get("missing")
	assert.False(t, ok)
}

func TestProgressStoreLatestAndList(t *testing.T) {
	store := NewProgressStore()
	store.Publish(improvement.Progress{RunID: "a"})
	time.Sleep(2 * time.Millisecond)
	store.Publish(improvement.Progress{RunID: "b"})

	latest, ok := store.Latest()
	require.True(t, ok)
	assert.Equal(t, "b", latest.Progress.RunID)

	list := store.List(0)
	require.Len(t, list, 2)
	assert.Equal(t, "b", list[0].Progress.RunID)

	assert.Len(t, store.List(1), 1)
}

func TestProgressStoreListeners(t *testing.T) {
	store := NewProgressStore()
	var got []improvement.Progress
	store.OnPublish(func(p improvement.Progress) { got = append(got, p) })

	store.Publish(improvement.Progress{RunID: "a", Finished: true})
	require.Len(t, got, 1)
	assert.True(t, got[0].Finished)
}
