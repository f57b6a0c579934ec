package ui

import "github.com/charmbracelet/lipgloss"

// Colors used in the application.
var (
	colorPrimary   = lipgloss.Color("62")  // Purple
	colorSecondary = lipgloss.Color("241") // Gray
	colorMuted     = lipgloss.Color("240") // Darker gray
	colorHighlight = lipgloss.Color("212") // Pink
	colorSuccess   = lipgloss.Color("78")  // Green
	colorWarning   = lipgloss.Color("214") // Orange
)

// SelectedItem style for the currently highlighted result row.
var SelectedItem = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("255")).
	Background(colorPrimary).
	Padding(0, 1)

// NormalItem style for unselected result rows.
var NormalItem = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Padding(0, 1)

// ReadingStyle for the kana column.
var ReadingStyle = lipgloss.NewStyle().
	Foreground(colorHighlight)

// MeaningStyle for the meaning column.
var MeaningStyle = lipgloss.NewStyle().
	Foreground(colorSecondary)

// CommonBadge marks common words.
var CommonBadge = lipgloss.NewStyle().
	Foreground(colorSuccess).
	Bold(true)

// LevelBadge style for the JLPT / WaniKani level column.
var LevelBadge = lipgloss.NewStyle().
	Foreground(colorPrimary).
	Background(lipgloss.Color("236")).
	Padding(0, 1).
	MarginLeft(1)

// StatusBar style for the bottom status bar.
var StatusBar = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Background(lipgloss.Color("236")).
	Padding(0, 1)

// StatusBarKey style for key hints in status bar.
var StatusBarKey = lipgloss.NewStyle().
	Foreground(colorHighlight).
	Bold(true)

// StatusBarText style for descriptive text in status bar.
var StatusBarText = lipgloss.NewStyle().
	Foreground(colorSecondary)

// ErrorStyle for displaying errors.
var ErrorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("196")).
	Bold(true).
	Padding(0, 1)

// HelpStyle for help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(colorMuted).
	Padding(1, 2)

// FilterBar style for the rows of filter controls.
var FilterBar = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Background(lipgloss.Color("238")).
	Padding(0, 1)

// FilterLabel style for control labels ("reading", "category", ...).
var FilterLabel = lipgloss.NewStyle().
	Foreground(colorSecondary)

// FilterLabelFocused style for the label of the focused control.
var FilterLabelFocused = lipgloss.NewStyle().
	Foreground(colorHighlight).
	Bold(true)

// FilterValue style for picker values.
var FilterValue = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255"))

// FilterPending style for the marker shown while edits are uncommitted.
var FilterPending = lipgloss.NewStyle().
	Foreground(colorWarning).
	Bold(true)

// ToggleOn style for an enabled ordering toggle.
var ToggleOn = lipgloss.NewStyle().
	Foreground(colorSuccess).
	Bold(true)

// ToggleOff style for a disabled ordering toggle.
var ToggleOff = lipgloss.NewStyle().
	Foreground(colorMuted)

// DebugPanel frames the debug overlay.
var DebugPanel = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(colorPrimary).
	Padding(1, 2)

// DebugHeaderStyle for section headers inside the debug overlay.
var DebugHeaderStyle = lipgloss.NewStyle().
	Foreground(colorHighlight).
	Bold(true)
