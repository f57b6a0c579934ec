package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/abelbrown/vocabfilter/internal/otel"
)

// debugPanelChrome is the number of terminal lines consumed by DebugPanel's
// border (top + bottom = 2) and vertical padding (top + bottom = 2).
// Must be updated if DebugPanel style changes.
const debugPanelChrome = 4

// debugPrefixes are the event kind filters the overlay cycles through.
var debugPrefixes = []string{"", "filter.", "list.", "ui."}

func nextDebugPrefix(cur string) string {
	for i, p := range debugPrefixes {
		if p == cur {
			return debugPrefixes[(i+1)%len(debugPrefixes)]
		}
	}
	return debugPrefixes[0]
}

// debugOverlay renders the debug panel showing filter and query stats, the
// event chain of the newest refresh, and the recent events whose kind starts
// with prefix.
// Pure function with no side effects. Returns empty string if obs.Ring is nil.
func debugOverlay(obs ObsConfig, prefix string, width, height int) string {
	ring := obs.Ring
	if ring == nil {
		return ""
	}

	stats := ring.Stats()
	recent := ring.LastMatching(prefix, 20)

	// --- Stats section (keyed lookups, not map iteration) ---
	var lines []string
	lines = append(lines, DebugHeaderStyle.Render("Filter Stats"))
	lines = append(lines, fmt.Sprintf("  Filter:     %d field changes, %d actions, %d signals",
		stats[otel.KindFieldChanged], stats[otel.KindAction], stats[otel.KindFilterChanged]))
	lines = append(lines, fmt.Sprintf("  Refreshes:  %d requested, %d skipped, %d stale results dropped",
		stats[otel.KindRefresh], stats[otel.KindQuerySkip], stats[otel.KindStale]))
	lines = append(lines, fmt.Sprintf("  Queries:    %d started, %d complete, %d errors, %d throttled",
		stats[otel.KindQueryStart], stats[otel.KindQueryComplete], stats[otel.KindQueryError], stats[otel.KindQueryThrottle]))
	lines = append(lines, fmt.Sprintf("  Keys:       %d", stats[otel.KindKeyPress]))
	lines = append(lines, fmt.Sprintf("  Buffer:     %d / %d events, %d dropped", ring.Len(), ring.Cap(), obs.Logger.Dropped()))
	lines = append(lines, "")

	if chain := ring.LastRefresh(); len(chain) > 0 {
		lines = append(lines, DebugHeaderStyle.Render(fmt.Sprintf("Last Refresh (#%d)", chain[0].Seq)))
		for _, e := range chain {
			lines = append(lines, "  "+eventLine(e))
		}
		lines = append(lines, "")
	}

	// --- Recent events section ---
	header := "Recent Events"
	if prefix != "" {
		header += " (" + prefix + "*)"
	}
	lines = append(lines, DebugHeaderStyle.Render(header))
	for _, e := range recent {
		lines = append(lines, "  "+eventLine(e))
	}

	// Truncate to fit terminal height (subtract chrome added by DebugPanel border/padding)
	maxHeight := height - debugPanelChrome
	if maxHeight < 1 {
		maxHeight = 1
	}
	if len(lines) > maxHeight {
		lines = lines[:maxHeight]
	}

	panelWidth := 76
	if panelWidth > width-4 {
		panelWidth = width - 4
	}
	if panelWidth < 20 {
		panelWidth = 20
	}

	content := strings.Join(lines, "\n")
	return DebugPanel.Width(panelWidth).Render(content)
}

// eventLine renders one event for the overlay.
func eventLine(e otel.Event) string {
	line := fmt.Sprintf("%6s  %-22s", formatAge(time.Since(e.Time)), string(e.Kind))
	switch e.Kind {
	case otel.KindFieldChanged:
		line += "  " + e.Field + " → " + truncateRunes(e.Query, 30)
	case otel.KindFilterChanged:
		line += fmt.Sprintf("  %s (%d listeners)", e.Action, e.Count)
	case otel.KindRefresh, otel.KindQuerySkip:
		line += fmt.Sprintf("  #%d %s", e.Seq, truncateRunes(e.Query, 30))
	case otel.KindQueryComplete:
		line += fmt.Sprintf("  %d matches in %s", e.Count, e.Dur.Round(time.Microsecond))
	default:
		if e.Field != "" {
			line += "  " + e.Field
		}
		if e.Action != "" {
			line += "  " + e.Action
		}
	}
	if e.Msg != "" {
		line += "  " + truncateRunes(e.Msg, 40)
	}
	if e.Err != "" {
		line += "  ERR:" + truncateRunes(e.Err, 30)
	}
	if e.QueryID != "" {
		qid := e.QueryID
		if len(qid) > 8 {
			qid = qid[:8]
		}
		line += "  qid:" + qid
	}
	return line
}

// formatAge formats a duration as a compact human string.
// Handles negative durations from clock skew by clamping to "0ms".
func formatAge(d time.Duration) string {
	if d < 0 {
		return "0ms"
	}
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		return fmt.Sprintf("%.0fm", d.Minutes())
	}
}

// debugStatusBar renders the status bar for the debug overlay.
func debugStatusBar(width int) string {
	keys := StatusBarKey.Render("f") + StatusBarText.Render(":filter") + " " +
		StatusBarKey.Render("?") + StatusBarText.Render(":close")
	return StatusBar.Width(width).Render("  [DEBUG]  " + keys)
}
