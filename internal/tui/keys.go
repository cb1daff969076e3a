package tui

import "github.com/charmbracelet/bubbles/key"

type KeyMap struct {
	Recheck   key.Binding
	Daily     key.Binding
	Periodic  key.Binding
	Immediate key.Binding
	Help      key.Binding
	Quit      key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Recheck: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "re-check"),
		),
		Daily: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "schedule daily"),
		),
		Periodic: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "schedule periodic"),
		),
		Immediate: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "test notification"),
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

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Recheck, k.Immediate, k.Help, k.Quit}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Recheck, k.Help, k.Quit},
		{k.Daily, k.Periodic, k.Immediate},
	}
}
