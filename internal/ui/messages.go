// Package ui provides the Bubble Tea TUI for vocabfilter.
package ui

import "github.com/abelbrown/vocabfilter/internal/controller"

// ListEvent wraps an event from the vocab list controller.
type ListEvent struct {
	Event controller.Event
}

// RefreshDone is sent when a refresh command returns. The results arrive
// separately as ListEvent messages.
type RefreshDone struct {
	Seq      uint64
	Criteria controller.Criteria
}
