package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up       key.Binding
	down     key.Binding
	enter    key.Binding
	back     key.Binding
	pause    key.Binding
	skip     key.Binding
	tired    key.Binding
	volUp    key.Binding
	volDown  key.Binding
	thumbUp  key.Binding
	thumbDn  key.Binding
	unrate   key.Binding
	stations key.Binding
	quit     key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		enter:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "tune")),
		back:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		pause:    key.NewBinding(key.WithKeys(" ", "p"), key.WithHelp("space", "play/pause")),
		skip:     key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "skip")),
		tired:    key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "tired")),
		volUp:    key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "louder")),
		volDown:  key.NewBinding(key.WithKeys("-", "_"), key.WithHelp("-", "softer")),
		thumbUp:  key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "thumbs up")),
		thumbDn:  key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "thumbs down")),
		unrate:   key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear rating")),
		stations: key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "stations")),
		quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.pause, k.skip, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.enter, k.back},
		{k.pause, k.skip, k.tired, k.stations},
		{k.thumbUp, k.thumbDn, k.unrate},
		{k.volUp, k.volDown, k.quit},
	}
}
