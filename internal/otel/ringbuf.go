package otel

import (
	"slices"
	"strings"
	"sync"
)

// DefaultRingSize is used when NewRingBuffer gets a non-positive size.
const DefaultRingSize = 512

// RingBuffer keeps the most recent events for the debug overlay.
// The logger's writer goroutine pushes while the UI reads, so all methods
// lock.
type RingBuffer struct {
	mu     sync.Mutex
	events []Event
	next   int  // slot the next Push writes
	full   bool // every slot holds an event
}

// NewRingBuffer creates a buffer holding the last size events.
func NewRingBuffer(size int) *RingBuffer {
	if size <= 0 {
		size = DefaultRingSize
	}
	return &RingBuffer{events: make([]Event, size)}
}

// Push stores e, evicting the oldest event when full.
func (r *RingBuffer) Push(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events[r.next] = e
	r.next++
	if r.next == len(r.events) {
		r.next = 0
		r.full = true
	}
}

func (r *RingBuffer) lenLocked() int {
	if r.full {
		return len(r.events)
	}
	return r.next
}

// newest calls fn on buffered events from newest to oldest until fn
// returns false. Caller holds mu.
func (r *RingBuffer) newest(fn func(Event) bool) {
	size := len(r.events)
	for i := 1; i <= r.lenLocked(); i++ {
		if !fn(r.events[(r.next-i+size)%size]) {
			return
		}
	}
}

// Len returns the number of buffered events.
func (r *RingBuffer) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lenLocked()
}

// Cap returns the buffer capacity.
func (r *RingBuffer) Cap() int {
	return len(r.events)
}

// Stats counts buffered events by kind.
func (r *RingBuffer) Stats() map[EventKind]int {
	r.mu.Lock()
	defer r.mu.Unlock()

	counts := make(map[EventKind]int)
	r.newest(func(e Event) bool {
		counts[e.Kind]++
		return true
	})
	return counts
}

// LastMatching returns up to n of the newest events whose kind starts with
// prefix, oldest first. An empty prefix matches every event.
func (r *RingBuffer) LastMatching(prefix string, n int) []Event {
	if n <= 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Event
	r.newest(func(e Event) bool {
		if strings.HasPrefix(string(e.Kind), prefix) {
			out = append(out, e)
		}
		return len(out) < n
	})
	slices.Reverse(out)
	return out
}

// LastRefresh returns the newest buffered ui.refresh event followed by the
// list and ui events that carry its Seq, oldest first. Nil when no refresh
// is buffered.
func (r *RingBuffer) LastRefresh() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	var seq uint64
	r.newest(func(e Event) bool {
		if e.Kind == KindRefresh {
			seq = e.Seq
			return false
		}
		return true
	})
	if seq == 0 {
		return nil
	}

	var chain []Event
	r.newest(func(e Event) bool {
		if e.Seq == seq {
			chain = append(chain, e)
		}
		return true
	})
	slices.Reverse(chain)
	return chain
}
