package controller

import (
	"errors"
	"fmt"
	"strings"

	"github.com/abelbrown/vocabfilter/internal/otel"
)

// ErrUnknownAction is wrapped by ParseAction for names that match no action.
var ErrUnknownAction = errors.New("unknown filter action")

// Action is one user-initiable interaction with the filter.
type Action int

const (
	ActionCommitReading Action = iota + 1
	ActionCommitMeaning
	ActionCommitCategory
	ActionClearCategory
	ActionToggleCommonFirst
	ActionToggleShortReadingFirst
	ActionCommitLevels

	actionEnd
)

// actionSpec is one row of the action table: the field writes an action
// performs and whether it ends with the filter-changed signal.
type actionSpec struct {
	name   string
	apply  func(s *FilterState) []Field // nil for pure commits
	notify bool
}

var actionTable = [actionEnd]actionSpec{
	ActionCommitReading:           {name: "commit-reading", notify: true},
	ActionCommitMeaning:           {name: "commit-meaning", notify: true},
	ActionCommitCategory:          {name: "commit-category", notify: true},
	ActionClearCategory:           {name: "clear-category", apply: clearCategory, notify: true},
	ActionToggleCommonFirst:       {name: "toggle-common-first", apply: toggleCommonFirst, notify: true},
	ActionToggleShortReadingFirst: {name: "toggle-short-reading-first", apply: toggleShortReadingFirst, notify: true},
	ActionCommitLevels:            {name: "commit-levels", notify: true},
}

func clearCategory(s *FilterState) []Field {
	if s.SetCategory(nil) {
		return []Field{FieldCategory}
	}
	return nil
}

func toggleCommonFirst(s *FilterState) []Field {
	s.SetCommonFirst(!s.CommonFirst())
	return []Field{FieldCommonFirst}
}

func toggleShortReadingFirst(s *FilterState) []Field {
	s.SetShortReadingFirst(!s.ShortReadingFirst())
	return []Field{FieldShortReadingFirst}
}

// Actions returns every action in declaration order.
func Actions() []Action {
	actions := make([]Action, 0, actionEnd-1)
	for a := ActionCommitReading; a < actionEnd; a++ {
		actions = append(actions, a)
	}
	return actions
}

func (a Action) valid() bool {
	return a >= ActionCommitReading && a < actionEnd
}

// String returns the action's stable name ("commit-reading", ...).
func (a Action) String() string {
	if !a.valid() {
		return fmt.Sprintf("action(%d)", int(a))
	}
	return actionTable[a].name
}

// ParseAction is the inverse of Action.String. Matching is case-insensitive.
func ParseAction(s string) (Action, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for _, a := range Actions() {
		if actionTable[a].name == name {
			return a, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownAction, s)
}

// Effects describes what one Apply did.
type Effects struct {
	Action   Action
	Changed  []Field // fields whose stored value changed
	Notified bool    // filter-changed was emitted
}

// FilterController turns user interactions into FilterState writes and
// decides, per action, when the list must be re-queried.
//
// It keeps no state of its own beyond the FilterState it wraps.
type FilterController struct {
	state *FilterState
}

// NewFilterController wraps state.
func NewFilterController(state *FilterState) *FilterController {
	return &FilterController{state: state}
}

// New builds a FilterState holding initial and a controller over it.
func New(initial Criteria, opts ...Option) *FilterController {
	return NewFilterController(NewFilterState(initial, opts...))
}

// State returns the wrapped state, for live binding and re-reads.
func (c *FilterController) State() *FilterState {
	return c.state
}

// Snapshot is shorthand for State().Snapshot().
func (c *FilterController) Snapshot() Criteria {
	return c.state.Snapshot()
}

// OnFilterChanged registers fn for the filter-changed signal. The signal
// carries no payload; read the criteria from State or Snapshot.
func (c *FilterController) OnFilterChanged(fn func()) Subscription {
	return c.state.hub.subscribeChanged(fn)
}

// Unsubscribe removes a subscription made on the controller or its state.
func (c *FilterController) Unsubscribe(sub Subscription) bool {
	return c.state.Unsubscribe(sub)
}

// Apply runs action a. Field writes happen first, so filter-changed
// observers already see the new values. Unknown actions do nothing.
func (c *FilterController) Apply(a Action) Effects {
	if !a.valid() {
		return Effects{}
	}
	row := actionTable[a]

	eff := Effects{Action: a}
	if row.apply != nil {
		eff.Changed = row.apply(c.state)
	}

	c.state.events.Emit(otel.Event{
		Level:  otel.LevelDebug,
		Kind:   otel.KindAction,
		Comp:   comp,
		Action: a.String(),
		Count:  len(eff.Changed),
	})

	if row.notify {
		c.state.filterChanged(a)
		eff.Notified = true
	}
	return eff
}

// CommitReading signals that the live-bound reading text is final.
func (c *FilterController) CommitReading() Effects {
	return c.Apply(ActionCommitReading)
}

// CommitMeaning signals that the live-bound meaning text is final.
func (c *FilterController) CommitMeaning() Effects {
	return c.Apply(ActionCommitMeaning)
}

// CommitCategory signals that the live-bound category is final.
func (c *FilterController) CommitCategory() Effects {
	return c.Apply(ActionCommitCategory)
}

// ClearCategory removes the category constraint and signals the change.
func (c *FilterController) ClearCategory() Effects {
	return c.Apply(ActionClearCategory)
}

// ToggleCommonFirst flips the common-first ordering and signals the change.
func (c *FilterController) ToggleCommonFirst() Effects {
	return c.Apply(ActionToggleCommonFirst)
}

// ToggleShortReadingFirst flips the reading-length ordering and signals the change.
func (c *FilterController) ToggleShortReadingFirst() Effects {
	return c.Apply(ActionToggleShortReadingFirst)
}

// CommitLevels signals that the live-bound JLPT and WK levels are final.
func (c *FilterController) CommitLevels() Effects {
	return c.Apply(ActionCommitLevels)
}
