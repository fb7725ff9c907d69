// Package keymap holds the key bindings shared by the TUI views.
package keymap

import "github.com/charmbracelet/bubbles/key"

// KeyMap is the set of bindings. The question input always has focus, so no
// binding may use a printable key.
type KeyMap struct {
	Quit          key.Binding
	Help          key.Binding
	Back          key.Binding
	Submit        key.Binding
	Up            key.Binding
	Down          key.Binding
	ToggleSources key.Binding // passages behind the last answer
	Sources       key.Binding // indexed documents view
	Refresh       key.Binding
}

func bind(label, desc string, keys ...string) key.Binding {
	return key.NewBinding(key.WithKeys(keys...), key.WithHelp(label, desc))
}

// DefaultKeyMap returns the stock bindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Quit:          bind("ctrl+c", "quit", "ctrl+c"),
		Help:          bind("f1", "help", "f1"),
		Back:          bind("esc", "back", "esc"),
		Submit:        bind("enter", "ask", "enter"),
		Up:            bind("↑/pgup", "scroll up", "up", "pgup"),
		Down:          bind("↓/pgdn", "scroll down", "down", "pgdown"),
		ToggleSources: bind("ctrl+o", "sources", "ctrl+o"),
		Sources:       bind("ctrl+s", "index", "ctrl+s"),
		Refresh:       bind("ctrl+r", "refresh", "ctrl+r"),
	}
}

// ShortHelp is shown in the status bar. It satisfies help.KeyMap.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Submit, k.ToggleSources, k.Help, k.Quit}
}

// FullHelp is rendered by the help screen, one column per group.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Submit, k.Up, k.Down},
		{k.ToggleSources, k.Sources, k.Refresh},
		{k.Back, k.Help, k.Quit},
	}
}
