// control/stats.go
// Author: momentics <momentics@gmail.com>
//
// Aggregated transfer counters of one session.

package control

import "sync"

// StatsSnapshot is a consistent copy of both counters.
type StatsSnapshot struct {
	Bytes uint64
	Pages uint64
}

// Stats counts bytes and completed operations. Every update takes the
// mutex once; both counters only grow.
type Stats struct {
	mu    sync.Mutex
	bytes uint64
	pages uint64
}

// NewStats returns zeroed counters.
func NewStats() *Stats {
	return &Stats{}
}

// Add records one completion worth of bytes and pages.
func (s *Stats) Add(bytes, pages uint64) {
	s.mu.Lock()
	s.bytes += bytes
	s.pages += pages
	s.mu.Unlock()
}

// Snapshot returns both counters. Callers read it after all workers stopped.
func (s *Stats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return StatsSnapshot{Bytes: s.bytes, Pages: s.pages}
}
