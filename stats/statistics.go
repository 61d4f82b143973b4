package stats

import (
	"github.com/puzpuzpuz/xsync/v3"
)

// Sink receives one notification per round trip to the backing store.
type Sink interface {
	IncrementQueryCount()
}

// EntityFetchRecorder is implemented by sinks that also break fetches down per entity type.
type EntityFetchRecorder interface {
	RecordEntityFetch(entity string)
}

// Statistics counts round trips for one unit of work. It is observability only: nothing in
// the loading path reads it back to make decisions.
//
// Statistics is safe for concurrent use.
type Statistics struct {
	queries  *xsync.Counter
	entities *xsync.MapOf[string, *xsync.Counter]
}

// New returns zeroed statistics.
func New() *Statistics {
	return &Statistics{
		queries:  xsync.NewCounter(),
		entities: xsync.NewMapOf[string, *xsync.Counter](),
	}
}

// Increment records one round trip.
func (s *Statistics) Increment() {
	s.queries.Inc()
}

// IncrementQueryCount implements Sink.
func (s *Statistics) IncrementQueryCount() {
	s.Increment()
}

// RecordEntityFetch implements EntityFetchRecorder.
func (s *Statistics) RecordEntityFetch(entity string) {
	counter, _ := s.entities.LoadOrCompute(entity, xsync.NewCounter)
	counter.Inc()
}

// Count returns the number of round trips since creation or the last Reset.
func (s *Statistics) Count() int64 {
	return s.queries.Value()
}

// EntityFetchCount returns the number of round trips issued for the given entity type.
func (s *Statistics) EntityFetchCount(entity string) int64 {
	counter, ok := s.entities.Load(entity)
	if !ok {
		return 0
	}
	return counter.Value()
}

// Reset zeroes every counter. Callers reset between scenarios.
func (s *Statistics) Reset() {
	s.queries.Reset()
	s.entities.Clear()
}

// Snapshot returns a point-in-time copy of the counters.
func (s *Statistics) Snapshot() Snapshot {
	snap := Snapshot{
		Queries:       s.queries.Value(),
		EntityFetches: make(map[string]int64),
	}
	s.entities.Range(func(entity string, counter *xsync.Counter) bool {
		snap.EntityFetches[entity] = counter.Value()
		return true
	})
	return snap
}

// Snapshot is a point-in-time copy of Statistics.
type Snapshot struct {
	Queries       int64
	EntityFetches map[string]int64
}
