package controller

import (
	"github.com/abelbrown/vocabfilter/internal/model"
	"github.com/abelbrown/vocabfilter/internal/otel"
)

const comp = "filter"

// Option configures a FilterState.
type Option func(*FilterState)

// WithEventLogger traces field changes, actions and filter-changed signals
// as debug/info events. A nil logger disables tracing.
func WithEventLogger(l *otel.Logger) Option {
	return func(s *FilterState) {
		s.events = l
	}
}

// FilterState holds the live filter criteria of one list view.
//
// Every setter is equality-gated: writing the value already stored is a
// no-op, otherwise the value is stored and one FieldChange for that field
// is delivered to field observers before the setter returns (unless called
// from inside a handler, see hub).
//
// FilterState owns its Criteria. Collaborators get copies via Snapshot.
type FilterState struct {
	c      Criteria
	hub    *hub
	events *otel.Logger
}

// NewFilterState creates a state holding initial.
func NewFilterState(initial Criteria, opts ...Option) *FilterState {
	s := &FilterState{
		c:   initial,
		hub: &hub{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns a copy of the current criteria.
func (s *FilterState) Snapshot() Criteria {
	return s.c
}

// OnFieldChanged registers fn for changes to any field.
// A nil fn is ignored and yields an invalid Subscription.
func (s *FilterState) OnFieldChanged(fn func(FieldChange)) Subscription {
	return s.hub.subscribeField(fn)
}

// OnField registers fn for changes to field f only.
func (s *FilterState) OnField(f Field, fn func(FieldChange)) Subscription {
	if fn == nil {
		return Subscription{}
	}
	return s.hub.subscribeField(func(ch FieldChange) {
		if ch.Field == f {
			fn(ch)
		}
	})
}

// Unsubscribe removes a field or filter-changed subscription.
// Returns false if sub was not registered.
func (s *FilterState) Unsubscribe(sub Subscription) bool {
	return s.hub.unsubscribe(sub)
}

// ReadingText returns the reading substring, "" when unconstrained.
func (s *FilterState) ReadingText() string {
	return s.c.ReadingText
}

// SetReadingText stores v and reports whether it differed from the old value.
func (s *FilterState) SetReadingText(v string) bool {
	if s.c.ReadingText == v {
		return false
	}
	s.c.ReadingText = v
	s.fieldChanged(FieldReadingText)
	return true
}

// MeaningText returns the meaning substring, "" when unconstrained.
func (s *FilterState) MeaningText() string {
	return s.c.MeaningText
}

// SetMeaningText stores v and reports whether it differed from the old value.
func (s *FilterState) SetMeaningText(v string) bool {
	if s.c.MeaningText == v {
		return false
	}
	s.c.MeaningText = v
	s.fieldChanged(FieldMeaningText)
	return true
}

// Category returns the category token, or nil when unconstrained.
func (s *FilterState) Category() *model.Category {
	return s.c.Category
}

// SetCategory stores v. Categories compare by identity, so a different
// token carrying the same ID still counts as a change.
func (s *FilterState) SetCategory(v *model.Category) bool {
	if model.SameCategory(s.c.Category, v) {
		return false
	}
	s.c.Category = v
	s.fieldChanged(FieldCategory)
	return true
}

// JLPTLevel returns the JLPT bound, or LevelAny.
func (s *FilterState) JLPTLevel() int {
	return s.c.JLPTLevel
}

// SetJLPTLevel stores v and reports whether it differed from the old value.
func (s *FilterState) SetJLPTLevel(v int) bool {
	if s.c.JLPTLevel == v {
		return false
	}
	s.c.JLPTLevel = v
	s.fieldChanged(FieldJLPTLevel)
	return true
}

// WKLevel returns the WaniKani bound, or LevelAny.
func (s *FilterState) WKLevel() int {
	return s.c.WKLevel
}

// SetWKLevel stores v and reports whether it differed from the old value.
func (s *FilterState) SetWKLevel(v int) bool {
	if s.c.WKLevel == v {
		return false
	}
	s.c.WKLevel = v
	s.fieldChanged(FieldWKLevel)
	return true
}

// CommonFirst reports whether common vocab is ordered first.
func (s *FilterState) CommonFirst() bool {
	return s.c.CommonFirst
}

// SetCommonFirst stores v and reports whether it differed from the old value.
func (s *FilterState) SetCommonFirst(v bool) bool {
	if s.c.CommonFirst == v {
		return false
	}
	s.c.CommonFirst = v
	s.fieldChanged(FieldCommonFirst)
	return true
}

// ShortReadingFirst reports whether shorter readings are ordered first.
func (s *FilterState) ShortReadingFirst() bool {
	return s.c.ShortReadingFirst
}

// SetShortReadingFirst stores v and reports whether it differed from the old value.
func (s *FilterState) SetShortReadingFirst(v bool) bool {
	if s.c.ShortReadingFirst == v {
		return false
	}
	s.c.ShortReadingFirst = v
	s.fieldChanged(FieldShortReadingFirst)
	return true
}

func (s *FilterState) fieldChanged(f Field) {
	ch := FieldChange{Field: f, Criteria: s.c}
	s.events.Emit(otel.Event{
		Level: otel.LevelDebug,
		Kind:  otel.KindFieldChanged,
		Comp:  comp,
		Field: f.String(),
		Query: ch.Criteria.String(),
	})
	s.hub.post(func() { s.hub.fields.emit(ch) })
}

// filterChanged delivers the coalesced signal to FilterController observers.
func (s *FilterState) filterChanged(a Action) {
	s.events.Emit(otel.Event{
		Level:  otel.LevelInfo,
		Kind:   otel.KindFilterChanged,
		Comp:   comp,
		Action: a.String(),
		Query:  s.c.String(),
		Count:  s.hub.changed.len(),
	})
	s.hub.post(func() { s.hub.changed.emit(struct{}{}) })
}
