// Package ui provides the Bubble Tea dashboard.
package ui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all keybindings for the TUI.
type KeyMap struct {
	Quit         key.Binding
	Search       key.Binding
	Edit         key.Binding
	Blocks       key.Binding
	Transactions key.Binding
	Main         key.Binding
	Up           key.Binding
	Down         key.Binding
	Enter        key.Binding
	Back         key.Binding
	Fullscreen   key.Binding
	Reload       key.Binding
	Copy         key.Binding
	Help         key.Binding

	// Search bar while editing.
	Submit   key.Binding
	Cancel   key.Binding
	Complete key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Search: key.NewBinding(
			key.WithKeys("s", "/"),
			key.WithHelp("s", "search"),
		),
		Edit: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "edit search"),
		),
		Blocks: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "latest blocks"),
		),
		Transactions: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "latest txs"),
		),
		Main: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "detail"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("↓/j", "down"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc", "ctrl+p"),
			key.WithHelp("esc", "back"),
		),
		Fullscreen: key.NewBinding(
			key.WithKeys("ctrl+e"),
			key.WithHelp("ctrl+e", "fullscreen"),
		),
		Reload: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reload"),
		),
		Copy: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "copy"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "search"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "stop editing"),
		),
		Complete: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "complete"),
		),
	}
}

// ShortHelp returns keybindings to be shown in the mini help view.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Quit, k.Search, k.Down, k.Enter, k.Back, k.Help}
}

// FullHelp returns keybindings for the expanded help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Quit, k.Search, k.Edit, k.Help},
		{k.Blocks, k.Transactions, k.Main, k.Fullscreen},
		{k.Up, k.Down, k.Enter, k.Back},
		{k.Reload, k.Copy, k.Complete},
	}
}
