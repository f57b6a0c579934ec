// Package model provides the domain types shared by the store, the filter
// controller and the UI.
package model

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Category is a vocab classification tag ("food", "verbs", ...).
//
// Categories are identity tokens: the store hands out exactly one *Category
// per row, so two filters refer to the same category iff the pointers match.
type Category struct {
	ID        int64
	Label     string // "Food & drink"
	ShortName string // "food"
}

// String returns the short name, falling back to the label.
func (c *Category) String() string {
	if c == nil {
		return ""
	}
	if c.ShortName != "" {
		return c.ShortName
	}
	return c.Label
}

// SameCategory reports whether a and b are the same category token.
// Nil matches only nil.
func SameCategory(a, b *Category) bool {
	return a == b
}

// Vocab is a dictionary entry.
type Vocab struct {
	ID           int64
	KanjiWriting string // may be empty for kana-only words
	KanaWriting  string
	Meaning      string
	IsCommon     bool
	JLPTLevel    int // 1..5, 0 when the word is not on any JLPT list
	WKLevel      int // 1..60, 0 when the word is not taught by WaniKani
	CategoryIDs  []int64
}

// Writing returns the kanji writing, or the kana writing for kana-only words.
func (v Vocab) Writing() string {
	if v.KanjiWriting != "" {
		return v.KanjiWriting
	}
	return v.KanaWriting
}

// ReadingLength returns the reading length in characters (not bytes).
func (v Vocab) ReadingLength() int {
	return utf8.RuneCountInString(v.KanaWriting)
}

// Levels returns a compact "N3 · WK12" label; empty when neither is set.
func (v Vocab) Levels() string {
	var parts []string
	if v.JLPTLevel > 0 {
		parts = append(parts, fmt.Sprintf("N%d", v.JLPTLevel))
	}
	if v.WKLevel > 0 {
		parts = append(parts, fmt.Sprintf("WK%d", v.WKLevel))
	}
	return strings.Join(parts, " · ")
}
