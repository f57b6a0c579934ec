package otel

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	// queueSize bounds the events waiting for the writer. A filter session
	// produces a few events per keystroke, so this only fills if w stalls.
	queueSize = 2048

	sessionAlphabet = "0123456789abcdef"
	sessionIDLen    = 16
)

// Logger writes events as JSONL on a background goroutine and mirrors them
// into an optional RingBuffer.
//
// Emit never blocks the caller: it stamps the event and hands it to the
// writer goroutine, which encodes, writes and pushes to the ring. Events
// that cannot be queued, encoded or written are counted by Dropped.
//
// A nil *Logger is valid and discards everything, so the filter, the list
// controller and the UI take an optional logger without nil checks.
type Logger struct {
	w       io.Writer
	session string
	ring    atomic.Pointer[RingBuffer]

	queue   chan Event
	dropped atomic.Uint64
	closed  atomic.Bool
	stopped chan struct{}
	once    sync.Once
}

// NewLogger starts a Logger writing to w. Call Close to flush it.
func NewLogger(w io.Writer) *Logger {
	session, err := gonanoid.Generate(sessionAlphabet, sessionIDLen)
	if err != nil {
		session = fmt.Sprintf("%016x", time.Now().UnixNano())
	}

	l := &Logger{
		w:       w,
		session: session,
		queue:   make(chan Event, queueSize),
		stopped: make(chan struct{}),
	}
	go l.run()
	return l
}

// NewNullLogger returns a Logger that only feeds its ring buffer.
func NewNullLogger() *Logger {
	return NewLogger(io.Discard)
}

func (l *Logger) run() {
	defer close(l.stopped)
	for e := range l.queue {
		data, err := json.Marshal(e)
		if err == nil {
			_, err = l.w.Write(append(data, '\n'))
		}
		if err != nil {
			l.dropped.Add(1)
		}
		// Failed writes still reach the ring; the overlay is the live view.
		if rb := l.ring.Load(); rb != nil {
			rb.Push(e)
		}
	}
}

// Emit stamps e with the time (if unset) and the session ID and queues it.
func (l *Logger) Emit(e Event) {
	if l == nil {
		return
	}
	if l.closed.Load() {
		l.dropped.Add(1)
		return
	}
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	e.SessionID = l.session

	// Close can win the race after the closed check.
	defer func() {
		if recover() != nil {
			l.dropped.Add(1)
		}
	}()
	select {
	case l.queue <- e:
	default:
		l.dropped.Add(1)
	}
}

// Info emits an info-level event with a message.
func (l *Logger) Info(kind EventKind, comp, msg string) {
	l.Emit(Event{Level: LevelInfo, Kind: kind, Comp: comp, Msg: msg})
}

// Error emits an error-level event. A nil err is logged with an empty Err.
func (l *Logger) Error(kind EventKind, comp string, err error) {
	e := Event{Level: LevelError, Kind: kind, Comp: comp}
	if err != nil {
		e.Err = err.Error()
	}
	l.Emit(e)
}

// SetRingBuffer mirrors every written event into rb. A nil rb detaches.
func (l *Logger) SetRingBuffer(rb *RingBuffer) {
	if l == nil {
		return
	}
	l.ring.Store(rb)
}

// Dropped returns how many events were lost so far.
func (l *Logger) Dropped() uint64 {
	if l == nil {
		return 0
	}
	return l.dropped.Load()
}

// Close writes out queued events and stops the writer. Later Emits are
// dropped. A lossy session is reported on stderr.
func (l *Logger) Close() {
	if l == nil {
		return
	}
	l.once.Do(func() {
		l.closed.Store(true)
		close(l.queue)
		<-l.stopped

		if n := l.dropped.Load(); n > 0 {
			fmt.Fprintf(os.Stderr, "vocabfilter: session %s lost %d events\n", l.session, n)
		}
	})
}
