// Package store holds parsed HL7 messages in a bounded in-memory queue and
// fans out lightweight summaries to live subscribers as they arrive.
package store

import (
	"log"
	"strings"
	"sync"

	"github.com/savegress/hl7forge/internal/hl7"
)

// Defaults from the configuration surface (spec.md §6).
const (
	DefaultMaxMessages = 10_000
	DefaultMaxMemoryMB = 512
)

// Config bounds the store along both axes described in spec.md §4.6: a
// count cap and a byte cap over the sum of raw payload lengths currently
// held.
type Config struct {
	MaxMessages int
	MaxMemoryMB int
}

func (c Config) withDefaults() Config {
	if c.MaxMessages <= 0 {
		c.MaxMessages = DefaultMaxMessages
	}
	if c.MaxMemoryMB <= 0 {
		c.MaxMemoryMB = DefaultMaxMemoryMB
	}
	return c
}

func (c Config) byteCap() int64 {
	return int64(c.MaxMemoryMB) * 1024 * 1024
}

// Store is a thread-safe, bounded, insertion-ordered queue of parsed HL7
// messages with dual-axis (count and byte-size) eviction and a broadcast
// channel of summaries for real-time subscribers.
type Store struct {
	mu          sync.RWMutex
	messages    []*hl7.Message
	byteCounter int64

	countCap int
	byteCap  int64

	broadcaster *Broadcaster
}

// New builds an empty Store bounded by cfg (zero fields take their
// defaults) and a fresh Broadcaster.
func New(cfg Config) *Store {
	cfg = cfg.withDefaults()
	return &Store{
		messages:    make([]*hl7.Message, 0, 1024),
		countCap:    cfg.MaxMessages,
		byteCap:     cfg.byteCap(),
		broadcaster: NewBroadcaster(),
	}
}

// Insert appends msg, evicting the oldest 10% of the queue first (at least
// one message) if the queue is already at its count cap or its byte counter
// has already reached the byte cap (spec.md §4.6). It always publishes a
// NewMessage event afterward, after releasing the store lock, even when
// there are no subscribers.
func (s *Store) Insert(msg *hl7.Message) {
	summary := hl7.Summarize(msg)
	rawLen := int64(msg.RawLen())

	s.mu.Lock()

	count := len(s.messages)
	if s.byteCounter >= s.byteCap || count >= s.countCap {
		drainCount := count / 10
		if drainCount < 1 {
			drainCount = 1
		}
		if drainCount > count {
			drainCount = count
		}
		if count > 0 {
			var evicted int64
			for _, m := range s.messages[:drainCount] {
				evicted += int64(m.RawLen())
			}
			s.byteCounter = saturatingSub(s.byteCounter, evicted)

			remaining := copy(s.messages, s.messages[drainCount:])
			s.messages = s.messages[:remaining]
			log.Printf("store: evicted %d messages (capacity reached)", drainCount)
		}
	}

	s.messages = append(s.messages, msg)
	s.byteCounter += rawLen
	newCount := len(s.messages)

	s.mu.Unlock()

	s.broadcaster.Publish(Event{Kind: EventNewMessage, Summary: summary})

	if newCount%1000 == 0 {
		log.Printf("store: now holds %d messages", newCount)
	}
}

func saturatingSub(a, b int64) int64 {
	if b > a {
		return 0
	}
	return a - b
}

// Subscribe returns a fan-out subscriber positioned at "now" (spec.md
// §4.7): it observes only events published after this call returns.
func (s *Store) Subscribe() *Subscriber {
	return s.broadcaster.Subscribe()
}

// List returns up to limit summaries in reverse-chronological order
// (newest first), skipping the first offset.
func (s *Store) List(offset, limit int) []hl7.Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.messages)
	out := make([]hl7.Summary, 0, limit)
	skipped := 0
	for i := n - 1; i >= 0 && len(out) < limit; i-- {
		if skipped < offset {
			skipped++
			continue
		}
		out = append(out, hl7.Summarize(s.messages[i]))
	}
	return out
}

// GetByID returns a copy-free pointer to the message with the given ID, or
// nil if absent. The returned message must be treated as read-only by
// callers; the store holds the same pointer.
func (s *Store) GetByID(id string) *hl7.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, m := range s.messages {
		if m.ID == id {
			return m
		}
	}
	return nil
}

// Search returns up to limit summaries, newest first, whose message_type,
// sending_facility, patient_name, patient_id, message_control_id, or
// source_addr contain query as a substring. All fields except source_addr
// are matched case-insensitively; source_addr is compared against the raw
// query because addresses are already normalized.
func (s *Store) Search(query string, limit int) []hl7.Summary {
	lowered := strings.ToLower(query)

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]hl7.Summary, 0, limit)
	for i := len(s.messages) - 1; i >= 0 && len(out) < limit; i-- {
		m := s.messages[i]
		if matches(m, lowered, query) {
			out = append(out, hl7.Summarize(m))
		}
	}
	return out
}

func matches(m *hl7.Message, lowered, raw string) bool {
	return strings.Contains(strings.ToLower(m.MessageType), lowered) ||
		strings.Contains(strings.ToLower(m.SendingFacility), lowered) ||
		strings.Contains(strings.ToLower(m.PatientName), lowered) ||
		strings.Contains(strings.ToLower(m.PatientID), lowered) ||
		strings.Contains(strings.ToLower(m.MessageControlID), lowered) ||
		strings.Contains(m.SourceAddr, raw)
}

// Count returns the current queue length.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

// Clear empties the queue, zeros the byte counter, and publishes a Cleared
// event.
func (s *Store) Clear() {
	s.mu.Lock()
	s.messages = s.messages[:0]
	s.byteCounter = 0
	s.mu.Unlock()

	s.broadcaster.Publish(Event{Kind: EventCleared})
	log.Printf("store: cleared")
}
