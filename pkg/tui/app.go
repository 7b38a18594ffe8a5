package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/robotwin-lab/plancheck/pkg/validate"
)

// Model is the Bubble Tea model for browsing one validation result.
type Model struct {
	taskName string
	result   *validate.Result

	byStep  map[int][]validate.Issue
	general []validate.Issue // top-level issues (task, sequence)

	cursor int
	offset int
	width  int
	height int

	showHelp bool
}

// New builds the browser model from a validation result.
func New(taskName string, res *validate.Result) Model {
	m := Model{
		taskName: taskName,
		result:   res,
		byStep:   make(map[int][]validate.Issue),
	}
	for _, it := range res.Issues {
		if i, ok := stepIndex(it.Path); ok {
			m.byStep[i] = append(m.byStep[i], it)
		} else {
			m.general = append(m.general, it)
		}
	}
	return m
}

// Run launches the browser in the alternate screen.
func Run(taskName string, res *validate.Result) error {
	p := tea.NewProgram(New(taskName, res), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// stepIndex extracts the step index from an issue path like
// "sequence[3].frame". Top-level paths have no index.
func stepIndex(path string) (int, bool) {
	if !strings.HasPrefix(path, "sequence[") {
		return 0, false
	}
	rest := path[len("sequence["):]
	end := strings.IndexByte(rest, ']')
	if end < 0 {
		return 0, false
	}
	i, err := strconv.Atoi(rest[:end])
	if err != nil {
		return 0, false
	}
	return i, true
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ensureVisible()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
				m.ensureVisible()
			}
		case key.Matches(msg, keys.Down):
			if m.cursor < len(m.result.Sanitized.Sequence)-1 {
				m.cursor++
				m.ensureVisible()
			}
		case key.Matches(msg, keys.PgUp):
			m.cursor = max(0, m.cursor-m.listHeight())
			m.ensureVisible()
		case key.Matches(msg, keys.PgDown):
			m.cursor = min(len(m.result.Sanitized.Sequence)-1, m.cursor+m.listHeight())
			if m.cursor < 0 {
				m.cursor = 0
			}
			m.ensureVisible()
		case key.Matches(msg, keys.Help):
			m.showHelp = !m.showHelp
		}
	}
	return m, nil
}

func (m Model) listHeight() int {
	// header + general issues + key bar + borders
	h := m.height - 6 - len(m.general)
	if h < 3 {
		h = 3
	}
	return h
}

func (m *Model) ensureVisible() {
	h := m.listHeight()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+h {
		m.offset = m.cursor - h + 1
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

func (m Model) View() string {
	if m.width == 0 {
		return "loading..."
	}
	if m.showHelp {
		return m.helpView()
	}

	var b strings.Builder
	b.WriteString(m.headerView())
	b.WriteString("\n")
	for _, it := range m.general {
		b.WriteString(" " + issueLine(it) + "\n")
	}

	listW := m.width / 3
	if listW < 24 {
		listW = 24
	}
	detailW := m.width - listW - 6

	list := panelBorder.Width(listW).Render(
		panelTitle.Render("Steps") + "\n" + m.listView())
	detail := panelBorder.Width(detailW).Render(
		panelTitle.Render("Step detail") + "\n" + m.detailView(detailW))

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, list, detail))
	b.WriteString("\n" + keyBarText())
	return b.String()
}

func (m Model) headerView() string {
	badge := okBadgeStyle.Render("OK")
	if !m.result.OK {
		badge = failBadgeStyle.Render("FAILED")
	}
	counts := fmt.Sprintf("%d errors, %d warnings",
		len(m.result.Errors()), len(m.result.Warnings()))
	return headerStyle.Render("plancheck — "+m.taskName) + " " + badge + " " +
		fieldLabel.Render(counts)
}

func (m Model) listView() string {
	steps := m.result.Sanitized.Sequence
	h := m.listHeight()
	end := min(len(steps), m.offset+h)

	var b strings.Builder
	for i := m.offset; i < end; i++ {
		glyph, style := m.verdict(i)
		line := fmt.Sprintf("%s %2d %s [%s]", glyph, i, steps[i].Subtask, steps[i].Frame)
		if i == m.cursor {
			line = stepSelected.Render("▸ " + line)
		} else {
			line = style.Render("  " + line)
		}
		b.WriteString(line + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// verdict picks the glyph/style for a step from its worst issue level.
func (m Model) verdict(i int) (string, lipgloss.Style) {
	worst := ""
	for _, it := range m.byStep[i] {
		if it.Level == validate.LevelError {
			return GlyphError, stepError
		}
		worst = string(it.Level)
	}
	if worst == "" {
		return GlyphClean, stepClean
	}
	return GlyphWarn, stepWarn
}

func (m Model) detailView(width int) string {
	steps := m.result.Sanitized.Sequence
	if m.cursor >= len(steps) {
		return fieldLabel.Render("no steps")
	}
	st := steps[m.cursor]

	var b strings.Builder
	field := func(label, value string) {
		b.WriteString(fieldLabel.Render(label+": ") + value + "\n")
	}
	field("subtask", st.Subtask)
	field("frame", string(st.Frame))
	field("actor", objCell(st.ActorObj, st.ActorPoint))
	field("target", objCell(st.TargetObj, st.TargetPoint))
	field("V", vecText(st.V))
	field("M", vecText(st.M))
	if st.Notes != "" {
		field("notes", st.Notes)
	}

	if issues := m.byStep[m.cursor]; len(issues) > 0 {
		b.WriteString("\n")
		for _, it := range issues {
			b.WriteString(wrap(issueLine(it), width-2) + "\n")
		}
	} else {
		b.WriteString("\n" + stepClean.Render("no issues") + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) helpView() string {
	return panelBorder.Render(panelTitle.Render("Keys") + `
  ↑/k, ↓/j    browse steps
  PgUp/PgDn   page
  ?           toggle this help
  q, esc      quit`)
}

func issueLine(it validate.Issue) string {
	style := issueWarn
	if it.Level == validate.LevelError {
		style = issueError
	}
	return style.Render("["+string(it.Level)+"] "+it.Code) + " " + it.Message
}

func objCell(name string, pt *int) string {
	if name == "" {
		return "-"
	}
	if pt == nil {
		return name
	}
	return fmt.Sprintf("%s (point %d)", name, *pt)
}

func vecText(v [6]float64) string {
	parts := make([]string, 6)
	for i, x := range v {
		parts[i] = strconv.FormatFloat(x, 'g', 4, 64)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// wrap breaks a long line at width, preserving words. Styled prefixes make
// exact width accounting unhelpful here; this is display-only best effort.
func wrap(s string, width int) string {
	if width <= 0 {
		return s
	}
	words := strings.Fields(s)
	var b strings.Builder
	lineLen := 0
	for i, w := range words {
		wl := len([]rune(w))
		if lineLen > 0 && lineLen+1+wl > width {
			b.WriteString("\n  ")
			lineLen = 2
		} else if i > 0 {
			b.WriteString(" ")
			lineLen++
		}
		b.WriteString(w)
		lineLen += wl
	}
	return b.String()
}
