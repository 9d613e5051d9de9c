package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the dashboard key bindings
type keyMap struct {
	Air      key.Binding
	Water    key.Binding
	Combined key.Binding
	TempUp   key.Binding
	TempDown key.Binding
	Refresh  key.Binding
	Help     key.Binding
	Quit     key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Air: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "toggle air"),
		),
		Water: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "toggle water"),
		),
		Combined: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "toggle air+water"),
		),
		TempUp: key.NewBinding(
			key.WithKeys("+", "=", "up"),
			key.WithHelp("+/↑", "target up"),
		),
		TempDown: key.NewBinding(
			key.WithKeys("-", "down"),
			key.WithHelp("-/↓", "target down"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
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

// ShortHelp returns keybindings to be shown in the mini help view
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Air, k.Water, k.Combined, k.Refresh, k.Help, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Air, k.Water, k.Combined},
		{k.TempUp, k.TempDown},
		{k.Refresh, k.Help, k.Quit},
	}
}
