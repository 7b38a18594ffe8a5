package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap holds all TUI key bindings.
type keyMap struct {
	Up     key.Binding
	Down   key.Binding
	PgUp   key.Binding
	PgDown key.Binding
	Help   key.Binding
	Quit   key.Binding
}

var keys = keyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "browse up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "browse down"),
	),
	PgUp: key.NewBinding(
		key.WithKeys("pgup"),
		key.WithHelp("PgUp", "page up"),
	),
	PgDown: key.NewBinding(
		key.WithKeys("pgdown"),
		key.WithHelp("PgDn", "page down"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c", "esc"),
		key.WithHelp("q", "quit"),
	),
}

// keyBarText renders the key hint string.
func keyBarText() string {
	return keyStyle.Render("↑↓") + keyDescStyle.Render(":browse") + "  " +
		keyStyle.Render("PgUp/Dn") + keyDescStyle.Render(":page") + "  " +
		keyStyle.Render("?") + keyDescStyle.Render(":help") + "  " +
		keyStyle.Render("q") + keyDescStyle.Render(":quit")
}
