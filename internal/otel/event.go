// Package otel provides structured observability for vocabfilter.
//
// Events are typed structs serialized as JSONL lines. The Logger writes
// events asynchronously via a buffered channel and background drain goroutine.
// An optional RingBuffer provides live in-memory inspection for the debug overlay.
package otel

import (
	"time"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Level defines event severity for filtering.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// EventKind identifies the category of an observability event.
// Dot-delimited: "<subsystem>.<action>".
type EventKind string

const (
	// Filter events
	KindFieldChanged  EventKind = "filter.field_changed"
	KindAction        EventKind = "filter.action"
	KindFilterChanged EventKind = "filter.changed"

	// List refresh events
	KindQueryStart    EventKind = "list.query_start"
	KindQueryComplete EventKind = "list.query_complete"
	KindQueryError    EventKind = "list.query_error"
	KindQueryThrottle EventKind = "list.query_throttle"
	KindQuerySkip     EventKind = "list.query_skip"

	// Store events
	KindStoreSeed  EventKind = "store.seed"
	KindStoreError EventKind = "store.error"

	// UI events
	KindKeyPress EventKind = "ui.key"
	KindRefresh  EventKind = "ui.refresh"
	KindStale    EventKind = "ui.stale_result"

	// System events
	KindStartup  EventKind = "sys.startup"
	KindShutdown EventKind = "sys.shutdown"
	KindError    EventKind = "sys.error"

	// Trace events
	KindMsgReceived EventKind = "trace.msg_received"
	KindMsgHandled  EventKind = "trace.msg_handled"
)

// Event is one observability record, written as a single JSONL line.
// Every field except Kind and Time is optional.
type Event struct {
	Time      time.Time     `json:"t"`
	Level     Level         `json:"level,omitempty"`
	Kind      EventKind     `json:"kind"`
	Comp      string        `json:"comp,omitempty"`       // component: "filter", "list", "ui", "main"
	SessionID string        `json:"session_id,omitempty"` // random hex, same for entire app run
	QueryID   string        `json:"qid,omitempty"`        // list refresh correlation ID
	Seq       uint64        `json:"seq,omitempty"`        // refresh sequence; ties ui.refresh to its list.* events
	Dur       time.Duration `json:"-"`                    // not serialized directly
	DurMs     float64       `json:"dur_ms,omitempty"`     // computed from Dur at marshal time
	Count     int           `json:"count,omitempty"`
	Field     string        `json:"field,omitempty"`  // filter field name
	Action    string        `json:"action,omitempty"` // filter action name
	Query     string        `json:"query,omitempty"`  // criteria summary
	Err       string        `json:"err,omitempty"`
	Msg       string        `json:"msg,omitempty"` // free text
}

// MarshalJSON implements json.Marshaler, converting Dur to DurMs.
func (e Event) MarshalJSON() ([]byte, error) {
	type Alias Event
	a := struct {
		Alias
	}{Alias: Alias(e)}
	if e.Dur > 0 {
		a.DurMs = float64(e.Dur) / float64(time.Millisecond)
	}
	return json.Marshal(a)
}
