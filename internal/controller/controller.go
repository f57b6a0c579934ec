// Package controller implements the Controller layer of vocabfilter's MVC architecture.
//
// Controllers sit between Model (the vocab store) and View (the TUI), deciding
// what data flows through and when.
//
// # Architecture
//
//	┌──────┐  actions   ┌──────────────────┐  writes  ┌─────────────┐
//	│ View │ ─────────> │ FilterController │ ───────> │ FilterState │
//	│ (UI) │ <───────── │                  │          │             │
//	└──────┘  field     └──────────────────┘          └─────────────┘
//	   ^      changes            │ filter changed
//	   │                         v
//	   │                ┌────────────────────┐  query  ┌───────┐
//	   └─────────────── │ VocabListController│ ──────> │ Store │
//	       results      └────────────────────┘         └───────┘
//
// FilterState holds the live criteria and notifies per-field observers on
// every effective write. FilterController exposes one named Action per user
// interaction and emits the single, payload-free "filter changed" signal that
// makes the list controller re-run its query.
//
// Text, category and level fields are live-bound: the view writes them on
// every keystroke and only the matching commit action emits "filter changed".
// Toggles write and emit in one step.
//
// # Concurrency
//
// FilterState and FilterController belong to the UI goroutine and are not
// safe for concurrent use. List controllers (see package controllers) are
// safe for concurrent use and report back through event channels.
package controller

import (
	"context"
	"time"

	"github.com/abelbrown/vocabfilter/internal/model"
)

// Controller refreshes one list view for a given filter configuration.
type Controller interface {
	// ID uniquely identifies this controller.
	ID() string

	// Refresh runs the controller's query for req.Criteria.
	// Results come back via the Subscribe() channel.
	Refresh(ctx context.Context, req Request)

	// Subscribe returns a channel of controller events.
	Subscribe() <-chan Event
}

// Request is one refresh. Seq is assigned by the caller in commit order;
// a controller skips a request once it has seen a higher Seq. Zero means
// unordered and is never skipped.
type Request struct {
	Seq      uint64
	Criteria Criteria
}

// EventType categorizes controller events.
type EventType string

const (
	EventStarted   EventType = "started"
	EventCompleted EventType = "completed"
	EventError     EventType = "error"
)

// Event is sent to subscribers when controller state changes.
type Event struct {
	Type     EventType
	QueryID  string        // correlates started/completed/error for one refresh
	Seq      uint64        // Request.Seq of the refresh
	Criteria Criteria      // snapshot the refresh ran with
	Items    []model.Vocab // Populated on EventCompleted
	Total    int           // matches before the limit was applied (EventCompleted)
	Err      error         // Populated on EventError
	Dur      time.Duration // query time (EventCompleted)
}
