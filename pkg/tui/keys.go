package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all key bindings for the TUI.
type KeyMap struct {
	Up       key.Binding
	Down     key.Binding
	Left     key.Binding
	Right    key.Binding
	Space    key.Binding
	Tab      key.Binding
	PrevTab  key.Binding
	NextWeek key.Binding
	PrevWeek key.Binding
	ThisWeek key.Binding
	Review   key.Binding
	Record   key.Binding
	Reload   key.Binding
	Sync     key.Binding
	Help     key.Binding
	Quit     key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Left: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "previous day"),
		),
		Right: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "next day"),
		),
		Space: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "toggle done"),
		),
		Tab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next tab"),
		),
		PrevTab: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "previous tab"),
		),
		NextWeek: key.NewBinding(
			key.WithKeys("]"),
			key.WithHelp("]", "next week"),
		),
		PrevWeek: key.NewBinding(
			key.WithKeys("["),
			key.WithHelp("[", "previous week"),
		),
		ThisWeek: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "this week"),
		),
		Review: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "weekly review"),
		),
		Record: key.NewBinding(
			key.WithKeys("v"),
			key.WithHelp("v", "record value"),
		),
		Reload: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "reload"),
		),
		Sync: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "git sync"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp returns the footer help text for a tab.
func (k KeyMap) ShortHelp(tab Tab) string {
	switch tab {
	case TabWeek:
		return "↑↓ tactic  ←→ day  space toggle  [ ] week  t this week  w review  tab next  ? help"
	case TabToday:
		return "↑↓ tactic  space toggle  w review  tab next  ? help"
	default:
		return "↑↓ indicator  v record value  w review  tab next  ? help"
	}
}

// FullHelp returns all key bindings for the help modal.
func (k KeyMap) FullHelp() [][]string {
	return [][]string{
		{"↑/k ↓/j", "Move between tactics or indicators"},
		{"←/h →/l", "Move between days (Week)"},
		{"space", "Toggle done for the selected day"},
		{"[ ]", "Previous / next week (Week)"},
		{"t", "Back to the current week"},
		{"tab", "Next tab (Week, Today, Progress)"},
		{"w", "Weekly review"},
		{"v", "Record indicator value (Progress)"},
		{"R", "Reload"},
		{"s", "Git sync"},
		{"?", "Toggle help"},
		{"q", "Quit"},
	}
}
