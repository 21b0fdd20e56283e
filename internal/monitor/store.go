// Package monitor exposes the progress of running searches over HTTP and
// gRPC health checks.
package monitor

import (
	"sort"
	"sync"
	"time"

	"github.com/GoSim-25-26J-441/autotune-core/internal/improvement"
)

// RunRecord is the latest known progress of one run.
type RunRecord struct {
	Progress  improvement.Progress
	CreatedAt time.Time
	Updates   int
}

// ProgressStore keeps the latest progress of every run it has seen. It
// implements improvement.ProgressSink.
type ProgressStore struct {
	mu        sync.RWMutex
	runs      map[string]*RunRecord
	latest    string
	listeners []func(improvement.Progress)
}

// NewProgressStore creates an empty store.
func NewProgressStore() *ProgressStore {
	return &ProgressStore{
		runs: make(map[string]*RunRecord),
	}
}

// Publish records p as the latest progress of its run.
func (s *ProgressStore) Publish(p improvement.Progress) {
	s.mu.Lock()
	rec, ok := s.runs[p.RunID]
	if !ok {
		rec = &RunRecord{CreatedAt: time.Now().UTC()}
		s.runs[p.RunID] = rec
	}
	rec.Progress = p
	rec.Updates++
	s.latest = p.RunID
	listeners := s.listeners
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(p)
	}
}

// OnPublish registers fn to be called after every update.
func (s *ProgressStore) OnPublish(fn func(improvement.Progress)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Get returns a copy of the record of runID.
func (s *ProgressStore) Get(runID string) (RunRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.runs[runID]
	if !ok {
		return RunRecord{}, false
	}
	return *rec, true
}

// Latest returns the record of the most recently updated run.
func (s *ProgressStore) Latest() (RunRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.runs[s.latest]
	if !ok {
		return RunRecord{}, false
	}
	return *rec, true
}

// List returns up to limit records, newest first.
func (s *ProgressStore) List(limit int) []RunRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}
	out := make([]RunRecord, 0, len(s.runs))
	for _, rec := range s.runs {
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
