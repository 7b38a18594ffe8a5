// Package tui implements a terminal browser for validation results: a step
// list with per-step verdict glyphs on the left, and the selected step's
// sanitized fields and issues on the right.
package tui

import "github.com/charmbracelet/lipgloss"

// Verdict glyphs — convey meaning without relying on color alone.
const (
	GlyphClean = "✓"
	GlyphWarn  = "!"
	GlyphError = "✗"
)

// Palette adapts to terminal capabilities via lipgloss.
var (
	colorGreen  = lipgloss.Color("42")
	colorRed    = lipgloss.Color("196")
	colorYellow = lipgloss.Color("214")
	colorCyan   = lipgloss.Color("51")
	colorDim    = lipgloss.Color("240")
)

var headerStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorCyan).
	Padding(0, 1)

var (
	okBadgeStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("0")).
			Background(colorGreen).
			Padding(0, 1)

	failBadgeStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("0")).
			Background(colorRed).
			Padding(0, 1)
)

var (
	stepSelected = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorYellow)

	stepClean = lipgloss.NewStyle().
			Foreground(colorGreen)

	stepWarn = lipgloss.NewStyle().
			Foreground(colorYellow)

	stepError = lipgloss.NewStyle().
			Foreground(colorRed)
)

var (
	panelBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorDim)

	panelTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorCyan).
			Padding(0, 1)

	fieldLabel = lipgloss.NewStyle().
			Foreground(colorDim)

	issueError = lipgloss.NewStyle().
			Foreground(colorRed)

	issueWarn = lipgloss.NewStyle().
			Foreground(colorYellow)

	keyStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorCyan)

	keyDescStyle = lipgloss.NewStyle().
			Foreground(colorDim)
)
