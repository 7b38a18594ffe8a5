package report

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/robotwin-lab/plancheck/pkg/validate"
)

// Palette adapts to terminal capabilities via lipgloss.
var (
	errorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	warnStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	codeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("51"))
	pathStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// StyledIssues renders issues as colorized terminal lines, preserving
// emission order.
func StyledIssues(issues []validate.Issue) string {
	lines := make([]string, 0, len(issues))
	for _, it := range issues {
		lvl := warnStyle.Render("[" + string(it.Level) + "]")
		if it.Level == validate.LevelError {
			lvl = errorStyle.Render("[" + string(it.Level) + "]")
		}
		line := lvl + " " + codeStyle.Render(it.Code)
		if it.Path != "" {
			line += pathStyle.Render(" @ " + it.Path)
		}
		line += ": " + it.Message
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// TextTable renders an aligned plain-text table. Column widths use display
// width, not byte length, so wide runes line up.
func TextTable(header []string, rows [][]string) string {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) {
				if w := runewidth.StringWidth(cell); w > widths[i] {
					widths[i] = w
				}
			}
		}
	}

	var b strings.Builder
	writeRow := func(cells []string) {
		for i := range header {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			b.WriteString(cell)
			b.WriteString(strings.Repeat(" ", widths[i]-runewidth.StringWidth(cell)))
			if i < len(header)-1 {
				b.WriteString("  ")
			}
		}
		b.WriteString("\n")
	}
	writeRow(header)
	for _, row := range rows {
		writeRow(row)
	}
	return b.String()
}

// RenderMarkdown converts markdown to styled terminal output with glamour.
// Falls back to the raw input if rendering fails.
func RenderMarkdown(md string) string {
	if strings.TrimSpace(md) == "" {
		return md
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(0),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	// Glamour adds trailing newlines; trim for inline use.
	return strings.TrimRight(out, "\n")
}
