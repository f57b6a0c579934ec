package controller

import (
	"errors"
	"fmt"
	"strings"

	"github.com/abelbrown/vocabfilter/internal/model"
)

// LevelAny is the level bound meaning "no constraint" for both JLPTLevel
// and WKLevel.
const LevelAny = 0

// ErrUnknownField is wrapped by ParseField for names that match no field.
var ErrUnknownField = errors.New("unknown filter field")

// Criteria is one complete filter configuration for a vocab list.
//
// The zero value is a valid, unconstrained filter.
type Criteria struct {
	ReadingText       string          // substring of the reading; "" = any
	MeaningText       string          // substring of the meaning; "" = any
	Category          *model.Category // category token; nil = any
	JLPTLevel         int             // JLPT bound; LevelAny = any
	WKLevel           int             // WaniKani bound; LevelAny = any
	CommonFirst       bool            // order common vocab first
	ShortReadingFirst bool            // order by ascending reading length
}

// Field names one criterion of a Criteria.
type Field int

const (
	FieldReadingText Field = iota
	FieldMeaningText
	FieldCategory
	FieldJLPTLevel
	FieldWKLevel
	FieldCommonFirst
	FieldShortReadingFirst

	fieldCount
)

var fieldNames = [fieldCount]string{
	FieldReadingText:       "reading",
	FieldMeaningText:       "meaning",
	FieldCategory:          "category",
	FieldJLPTLevel:         "jlpt",
	FieldWKLevel:           "wk",
	FieldCommonFirst:       "common-first",
	FieldShortReadingFirst: "short-reading-first",
}

// Fields returns every field in declaration order.
func Fields() []Field {
	fields := make([]Field, fieldCount)
	for i := range fields {
		fields[i] = Field(i)
	}
	return fields
}

func (f Field) valid() bool {
	return f >= 0 && f < fieldCount
}

// String returns the field's stable name ("reading", "jlpt", ...).
func (f Field) String() string {
	if !f.valid() {
		return fmt.Sprintf("field(%d)", int(f))
	}
	return fieldNames[f]
}

// ParseField is the inverse of Field.String. Matching is case-insensitive.
func ParseField(s string) (Field, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range fieldNames {
		if n == name {
			return Field(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownField, s)
}

// Constrains reports whether field f currently narrows the result set.
// The ordering fields never constrain.
func (c Criteria) Constrains(f Field) bool {
	switch f {
	case FieldReadingText:
		return c.ReadingText != ""
	case FieldMeaningText:
		return c.MeaningText != ""
	case FieldCategory:
		return c.Category != nil
	case FieldJLPTLevel:
		return c.JLPTLevel != LevelAny
	case FieldWKLevel:
		return c.WKLevel != LevelAny
	}
	return false
}

// Active returns the fields that currently constrain the result set.
func (c Criteria) Active() []Field {
	var active []Field
	for _, f := range Fields() {
		if c.Constrains(f) {
			active = append(active, f)
		}
	}
	return active
}

// String renders a compact, log-friendly summary such as
// `reading="た" jlpt=3 common-first`.
func (c Criteria) String() string {
	var parts []string
	if c.ReadingText != "" {
		parts = append(parts, fmt.Sprintf("reading=%q", c.ReadingText))
	}
	if c.MeaningText != "" {
		parts = append(parts, fmt.Sprintf("meaning=%q", c.MeaningText))
	}
	if c.Category != nil {
		parts = append(parts, "category="+c.Category.String())
	}
	if c.JLPTLevel != LevelAny {
		parts = append(parts, fmt.Sprintf("jlpt=%d", c.JLPTLevel))
	}
	if c.WKLevel != LevelAny {
		parts = append(parts, fmt.Sprintf("wk=%d", c.WKLevel))
	}
	if c.CommonFirst {
		parts = append(parts, "common-first")
	}
	if c.ShortReadingFirst {
		parts = append(parts, "short-reading-first")
	}
	if len(parts) == 0 {
		return "(any)"
	}
	return strings.Join(parts, " ")
}
