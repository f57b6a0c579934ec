package otel

import (
	"os"
	"sync/atomic"
)

// traceEnabled is set once at package init and may be raised later by
// config. Atomic because the UI goroutine reads it while main may write it.
var traceEnabled atomic.Bool

func init() {
	traceEnabled.Store(os.Getenv("VOCABFILTER_TRACE") != "")
}

// TraceEnabled reports whether per-message tracing is on.
func TraceEnabled() bool {
	return traceEnabled.Load()
}

// EnableTrace turns per-message tracing on. Used when the config file asks
// for tracing and the environment variable is not set.
func EnableTrace() {
	traceEnabled.Store(true)
}

// setTraceEnabled overrides the traceEnabled flag for testing.
func setTraceEnabled(v bool) {
	traceEnabled.Store(v)
}
