package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
//
// Printable keys go to the focused text field, so only control keys are bound.
type keyMap struct {
	next   key.Binding
	prev   key.Binding
	toggle key.Binding
	submit key.Binding
	forget key.Binding
	quit   key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		next:   key.NewBinding(key.WithKeys("tab", "down"), key.WithHelp("tab/↓", "next")),
		prev:   key.NewBinding(key.WithKeys("shift+tab", "up"), key.WithHelp("shift+tab/↑", "previous")),
		toggle: key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "toggle")),
		submit: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "synchronize")),
		forget: key.NewBinding(key.WithKeys("ctrl+f"), key.WithHelp("ctrl+f", "forget credentials")),
		quit:   key.NewBinding(key.WithKeys("ctrl+c", "esc"), key.WithHelp("esc", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.next, k.toggle, k.submit, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.next, k.prev},
		{k.toggle, k.submit},
		{k.forget, k.quit},
	}
}
