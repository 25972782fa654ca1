package store

import (
	"sync"

	"github.com/savegress/hl7forge/internal/hl7"
)

// BroadcastCapacity bounds how many events the ring buffer retains for a
// lagging subscriber before it starts overwriting the oldest ones.
const BroadcastCapacity = 4096

// EventKind distinguishes the two event variants a subscriber can receive.
type EventKind int

const (
	EventNewMessage EventKind = iota
	EventCleared
)

// Event is a single broadcast payload. Summary is the zero value for a
// Cleared event.
type Event struct {
	Kind    EventKind
	Summary hl7.Summary
}

// ring is a fixed-size circular buffer of events, written by any number of
// concurrent publishers (serialised by mu) and read by any number of
// subscribers tracking an independent cursor into it.
type ring struct {
	mu      sync.Mutex
	buf     [BroadcastCapacity]Event
	next    uint64 // sequence number of the next slot to be written
	closed  bool
	waiters []chan struct{}
}

// Broadcaster is a bounded, lossy, multi-producer multi-consumer fan-out.
// Publishing never blocks: once the ring has wrapped past a slow
// subscriber's cursor, that subscriber's next Recv reports how many events
// it missed and resumes at the oldest event still buffered.
type Broadcaster struct {
	r *ring
}

// NewBroadcaster returns a ready Broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{r: &ring{}}
}

// Publish appends ev to the ring, overwriting the oldest slot once the
// buffer has wrapped. It never blocks and ignores the case of zero
// subscribers.
func (b *Broadcaster) Publish(ev Event) {
	b.r.mu.Lock()
	idx := b.r.next % BroadcastCapacity
	b.r.buf[idx] = ev
	b.r.next++
	waiters := b.r.waiters
	b.r.waiters = nil
	b.r.mu.Unlock()

	for _, w := range waiters {
		close(w)
	}
}

// Subscriber is an independent cursor into a Broadcaster's ring. Created by
// Subscribe; subscribers created after a Publish call do not observe it —
// there is no replay of history.
type Subscriber struct {
	r      *ring
	cursor uint64
}

// Subscribe returns a Subscriber positioned at "now": it will only observe
// events published after this call returns.
func (b *Broadcaster) Subscribe() *Subscriber {
	b.r.mu.Lock()
	cursor := b.r.next
	b.r.mu.Unlock()
	return &Subscriber{r: b.r, cursor: cursor}
}

// Recv blocks until an event is available, then returns it. If the ring
// wrapped past this subscriber's cursor since its last Recv, lagged reports
// how many events were skipped and the returned event is the oldest one
// still present in the buffer (not the one the subscriber would have seen
// next had it kept up).
func (s *Subscriber) Recv() (ev Event, lagged uint64) {
	for {
		s.r.mu.Lock()

		oldestAvailable := uint64(0)
		if s.r.next > BroadcastCapacity {
			oldestAvailable = s.r.next - BroadcastCapacity
		}
		if s.cursor < oldestAvailable {
			lagged = oldestAvailable - s.cursor
			s.cursor = oldestAvailable
		}

		if s.cursor < s.r.next {
			idx := s.cursor % BroadcastCapacity
			ev = s.r.buf[idx]
			s.cursor++
			s.r.mu.Unlock()
			return ev, lagged
		}

		wait := make(chan struct{})
		s.r.waiters = append(s.r.waiters, wait)
		s.r.mu.Unlock()
		<-wait
	}
}

// TryRecv is the non-blocking form of Recv: ok is false when no event is
// currently available.
func (s *Subscriber) TryRecv() (ev Event, lagged uint64, ok bool) {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()

	oldestAvailable := uint64(0)
	if s.r.next > BroadcastCapacity {
		oldestAvailable = s.r.next - BroadcastCapacity
	}
	if s.cursor < oldestAvailable {
		lagged = oldestAvailable - s.cursor
		s.cursor = oldestAvailable
	}

	if s.cursor >= s.r.next {
		return Event{}, lagged, false
	}

	idx := s.cursor % BroadcastCapacity
	ev = s.r.buf[idx]
	s.cursor++
	return ev, lagged, true
}
