package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/abelbrown/vocabfilter/internal/model"
)

// Column widths in terminal cells. CJK runes are two cells wide.
const (
	writingCols = 14
	readingCols = 16
)

// RenderResults renders the result list, scrolled so the cursor is visible.
func RenderResults(items []model.Vocab, cursor int, width, height int) string {
	if len(items) == 0 {
		return HelpStyle.Render("No matches. Loosen the filter and commit again.")
	}

	availableHeight := height
	if availableHeight < 1 {
		availableHeight = 1
	}

	offset := calcScrollOffset(len(items), cursor, availableHeight)

	var b strings.Builder
	for i := offset; i < len(items) && i < offset+availableHeight; i++ {
		b.WriteString(renderVocabLine(items[i], i == cursor, width))
		b.WriteString("\n")
	}
	return b.String()
}

// calcScrollOffset returns the first visible row such that the cursor row
// fits within availableHeight.
func calcScrollOffset(n, cursor, availableHeight int) int {
	if n == 0 || cursor < 0 {
		return 0
	}
	if cursor >= n {
		cursor = n - 1
	}
	if cursor >= availableHeight {
		return cursor - availableHeight + 1
	}
	return 0
}

// renderVocabLine renders a single result row.
func renderVocabLine(v model.Vocab, selected bool, width int) string {
	mark := " "
	if v.IsCommon {
		mark = CommonBadge.Render("●")
	}

	writing := padCells(truncateCells(v.Writing(), writingCols), writingCols)
	reading := ""
	if v.KanjiWriting != "" {
		reading = v.KanaWriting
	}
	reading = padCells(truncateCells(reading, readingCols), readingCols)

	var levels string
	if l := v.Levels(); l != "" {
		levels = LevelBadge.Render(l)
	}

	meaningWidth := width - writingCols - readingCols - lipgloss.Width(levels) - 8
	if meaningWidth < 10 {
		meaningWidth = 10
	}
	meaning := truncateRunes(v.Meaning, meaningWidth)

	if selected {
		line := fmt.Sprintf("%s %s %s %s", mark, writing, reading, meaning)
		return SelectedItem.Render(line) + levels
	}
	line := fmt.Sprintf("%s %s %s %s", mark, writing, ReadingStyle.Render(reading), MeaningStyle.Render(meaning))
	return NormalItem.Render(line) + levels
}

// truncateRunes shortens s to at most n runes, marking the cut with "…".
func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}

// truncateCells shortens s to at most n terminal cells.
func truncateCells(s string, n int) string {
	if lipgloss.Width(s) <= n {
		return s
	}
	var b strings.Builder
	w := 0
	for _, r := range s {
		rw := lipgloss.Width(string(r))
		if w+rw > n-1 {
			break
		}
		b.WriteRune(r)
		w += rw
	}
	return b.String() + "…"
}

// padCells right-pads s with spaces to n terminal cells.
func padCells(s string, n int) string {
	if pad := n - lipgloss.Width(s); pad > 0 {
		return s + strings.Repeat(" ", pad)
	}
	return s
}

// RenderStatusBar renders the bottom status bar with the match count and
// key hints for the focused control.
func RenderStatusBar(shown, total int, dur time.Duration, width int, loading bool, hints []string) string {
	var left string
	switch {
	case loading:
		left = " Loading... "
	case shown < total:
		left = fmt.Sprintf(" %s of %s matches · %s ", humanize.Comma(int64(shown)), humanize.Comma(int64(total)), formatAge(dur))
	default:
		left = fmt.Sprintf(" %s %s · %s ", humanize.Comma(int64(total)), plural(total, "match", "matches"), formatAge(dur))
	}

	keyHints := strings.Join(hints, " ")

	padding := width - lipgloss.Width(left) - lipgloss.Width(keyHints)
	if padding < 0 {
		padding = 0
	}

	bar := left + strings.Repeat(" ", padding) + keyHints
	return StatusBar.Width(width).Render(bar)
}

func hint(key, desc string) string {
	return StatusBarKey.Render(key) + StatusBarText.Render(":"+desc)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
