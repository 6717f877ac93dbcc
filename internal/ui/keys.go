package ui

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines all keybindings for the application
type KeyMap struct {
	// Navigation
	Up   key.Binding
	Down key.Binding
	Pane key.Binding

	// Actions
	AddProject key.Binding
	AddTask    key.Binding
	Rename     key.Binding
	Due        key.Binding
	Delete     key.Binding
	Toggle     key.Binding
	Refresh    key.Binding

	// General
	Logout     key.Binding
	ThemeCycle key.Binding
	Help       key.Binding
	Quit       key.Binding
}

// DefaultKeyMap returns the default keybindings
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
		Pane: key.NewBinding(
			key.WithKeys("tab", "h", "l"),
			key.WithHelp("tab/h/l", "switch pane"),
		),

		AddProject: key.NewBinding(
			key.WithKeys("A"),
			key.WithHelp("A", "add project"),
		),
		AddTask: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "add task"),
		),
		Rename: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "rename"),
		),
		Due: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "set due"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" ", "x"),
			key.WithHelp("space/x", "toggle done"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("R", "ctrl+r"),
			key.WithHelp("R", "refresh"),
		),

		Logout: key.NewBinding(
			key.WithKeys("ctrl+l"),
			key.WithHelp("C-l", "log out"),
		),
		ThemeCycle: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("C-t", "theme"),
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

// ShortHelp returns short help bindings (for status bar)
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Quit}
}

// FullHelp returns full help bindings (for help view)
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Pane},
		{k.AddProject, k.AddTask, k.Rename, k.Due},
		{k.Delete, k.Toggle, k.Refresh},
		{k.Logout, k.ThemeCycle, k.Help, k.Quit},
	}
}
