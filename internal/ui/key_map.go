package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
//
// Letters the list uses for paging (d, u, f, b) are left alone.
type keyMap struct {
	enter   key.Binding
	back    key.Binding
	yes     key.Binding
	no      key.Binding
	create  key.Binding
	join    key.Binding
	history key.Binding
	invite  key.Binding
	copy    key.Binding
	remove  key.Binding
	refresh key.Binding
	quit    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		enter:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		back:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		yes:     key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "yes")),
		no:      key.NewBinding(key.WithKeys("n", "esc"), key.WithHelp("n", "no")),
		create:  key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new blend")),
		join:    key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "join by code")),
		history: key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add watched")),
		invite:  key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "invite")),
		copy:    key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "copy code")),
		remove:  key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "delete")),
		refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.enter, k.back, k.refresh},
		{k.create, k.join, k.history, k.invite},
		{k.copy, k.remove, k.quit},
	}
}

func (k keyMap) board() []key.Binding {
	return []key.Binding{k.enter, k.create, k.join, k.history, k.copy, k.remove, k.refresh, k.quit}
}

func (k keyMap) room() []key.Binding {
	return []key.Binding{k.back, k.history, k.invite, k.copy, k.remove, k.refresh, k.quit}
}
