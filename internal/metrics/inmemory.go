package metrics

import (
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	ProfileCacheHits       uint64
	ProfileCacheMisses     uint64
	ProfilesUpdated        uint64
	MetaRequests           uint64
	ReviewLookupsFound     uint64
	ReviewLookupsAbsent    uint64
	RequestDurationCount   uint64
	RequestDurationTotalNs int64
}

// InMemoryRecorder stores metrics in memory. It backs GET /metrics.
type InMemoryRecorder struct {
	profileCacheHits       atomic.Uint64
	profileCacheMisses     atomic.Uint64
	profilesUpdated        atomic.Uint64
	metaRequests           atomic.Uint64
	reviewLookupsFound     atomic.Uint64
	reviewLookupsAbsent    atomic.Uint64
	requestDurationCount   atomic.Uint64
	requestDurationTotalNs atomic.Int64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		ProfileCacheHits:       m.profileCacheHits.Load(),
		ProfileCacheMisses:     m.profileCacheMisses.Load(),
		ProfilesUpdated:        m.profilesUpdated.Load(),
		MetaRequests:           m.metaRequests.Load(),
		ReviewLookupsFound:     m.reviewLookupsFound.Load(),
		ReviewLookupsAbsent:    m.reviewLookupsAbsent.Load(),
		RequestDurationCount:   m.requestDurationCount.Load(),
		RequestDurationTotalNs: m.requestDurationTotalNs.Load(),
	}
}

// IncProfileCacheHit increments cache hit counter.
func (m *InMemoryRecorder) IncProfileCacheHit() {
	m.profileCacheHits.Add(1)
}

// IncProfileCacheMiss increments cache miss counter.
func (m *InMemoryRecorder) IncProfileCacheMiss() {
	m.profileCacheMisses.Add(1)
}

// IncProfileUpdated increments the profile update counter.
func (m *InMemoryRecorder) IncProfileUpdated() {
	m.profilesUpdated.Add(1)
}

// IncMetaRequest increments the meta request counter.
func (m *InMemoryRecorder) IncMetaRequest() {
	m.metaRequests.Add(1)
}

// IncReviewLookup counts a review lookup by outcome.
func (m *InMemoryRecorder) IncReviewLookup(found bool) {
	if found {
		m.reviewLookupsFound.Add(1)
		return
	}
	m.reviewLookupsAbsent.Add(1)
}

// ObserveRequestDuration records request duration.
func (m *InMemoryRecorder) ObserveRequestDuration(duration time.Duration) {
	m.requestDurationCount.Add(1)
	m.requestDurationTotalNs.Add(duration.Nanoseconds())
}
