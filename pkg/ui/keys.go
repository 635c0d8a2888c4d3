// Package ui provides the Bubble Tea curve explorer.
package ui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all keybindings for the explorer.
type KeyMap struct {
	Up         key.Binding
	Down       key.Binding
	More       key.Binding
	Less       key.Binding
	BudgetUp   key.Binding
	BudgetDown key.Binding
	Toggle     key.Binding
	Clear      key.Binding
	Precision  key.Binding
	Help       key.Binding
	Quit       key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "prev bin"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "next bin"),
		),
		More: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "amount x2"),
		),
		Less: key.NewBinding(
			key.WithKeys("-", "_"),
			key.WithHelp("-", "amount /2"),
		),
		BudgetUp: key.NewBinding(
			key.WithKeys("]"),
			key.WithHelp("]", "budget x2"),
		),
		BudgetDown: key.NewBinding(
			key.WithKeys("["),
			key.WithHelp("[", "budget /2"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "toggle range"),
		),
		Clear: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "clear range"),
		),
		Precision: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "precision"),
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

// ShortHelp returns keybindings to be shown in the mini help view.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Toggle, k.Precision, k.Help, k.Quit}
}

// FullHelp returns keybindings for the expanded help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Toggle, k.Clear},
		{k.More, k.Less, k.BudgetUp, k.BudgetDown},
		{k.Precision, k.Help, k.Quit},
	}
}
