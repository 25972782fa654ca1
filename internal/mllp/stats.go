package mllp

import "sync/atomic"

// Stats holds the counters a connection handler and listener update as
// they process frames. Received, ParsedOK and ParseErrors only grow;
// ActiveConnections rises and falls with open connections. All fields are
// safe for concurrent use;
// relaxed (load/add) ordering is sufficient since these are observed only
// for reporting, never used to gate correctness decisions.
type Stats struct {
	Received          atomic.Uint64
	ParsedOK          atomic.Uint64
	ParseErrors       atomic.Uint64
	ActiveConnections atomic.Int64
}

// NewStats returns a zeroed Stats.
func NewStats() *Stats {
	return &Stats{}
}

// Snapshot is a point-in-time copy of Stats, suitable for the read-side
// stats() contract (spec.md §6).
type Snapshot struct {
	Received          uint64
	ParsedOK          uint64
	ParseErrors       uint64
	ActiveConnections int64
}

// Snapshot reads all counters. Because each field is read independently,
// the result may not reflect a single atomic instant across counters —
// acceptable for a monitoring endpoint.
func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		Received:          s.Received.Load(),
		ParsedOK:          s.ParsedOK.Load(),
		ParseErrors:       s.ParseErrors.Load(),
		ActiveConnections: s.ActiveConnections.Load(),
	}
}
