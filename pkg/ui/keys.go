package ui

import "github.com/charmbracelet/bubbles/key"

// KeyMap is the viewer's key bindings. It implements help.KeyMap.
type KeyMap struct {
	Up          key.Binding
	Down        key.Binding
	Left        key.Binding
	Right       key.Binding
	FastLeft    key.Binding
	FastRight   key.Binding
	PageUp      key.Binding
	PageDown    key.Binding
	Start       key.Binding
	End         key.Binding
	NamesLeft   key.Binding
	NamesRight  key.Binding
	Column      key.Binding
	Jump        key.Binding
	Pin         key.Binding
	Reference   key.Binding
	ClearRef    key.Binding
	Filter      key.Binding
	ClearFilter key.Binding
	Diff        key.Binding
	Method      key.Binding
	Kind        key.Binding
	Translate   key.Binding
	Frame       key.Binding
	Copy        key.Binding
	Open        key.Binding
	Reload      key.Binding
	Help        key.Binding
	Quit        key.Binding
}

// DefaultKeyMap returns the standard bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up:          key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:        key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Left:        key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "left")),
		Right:       key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "right")),
		FastLeft:    key.NewBinding(key.WithKeys("shift+left", "H"), key.WithHelp("H", "fast left")),
		FastRight:   key.NewBinding(key.WithKeys("shift+right", "L"), key.WithHelp("L", "fast right")),
		PageUp:      key.NewBinding(key.WithKeys("pgup", "ctrl+b"), key.WithHelp("pgup", "page up")),
		PageDown:    key.NewBinding(key.WithKeys("pgdown", "ctrl+f", " "), key.WithHelp("pgdn", "page down")),
		Start:       key.NewBinding(key.WithKeys("home", "0"), key.WithHelp("0", "first column")),
		End:         key.NewBinding(key.WithKeys("end", "$"), key.WithHelp("$", "last column")),
		NamesLeft:   key.NewBinding(key.WithKeys("["), key.WithHelp("[", "names left")),
		NamesRight:  key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "names right")),
		Column:      key.NewBinding(key.WithKeys(":", "g"), key.WithHelp(":", "go to column")),
		Jump:        key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "jump to sequence")),
		Pin:         key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "pin/unpin")),
		Reference:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "set reference")),
		ClearRef:    key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "clear reference")),
		Filter:      key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter")),
		ClearFilter: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear filter")),
		Diff:        key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "diff mode")),
		Method:      key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "consensus method")),
		Kind:        key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "toggle alphabet")),
		Translate:   key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "translate")),
		Frame:       key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "reading frame")),
		Copy:        key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy consensus")),
		Open:        key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "open")),
		Reload:      key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "reload")),
		Help:        key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp is shown in the bottom bar.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Left, k.Right, k.Column, k.Jump, k.Pin, k.Filter, k.Diff, k.Help, k.Quit}
}

// FullHelp groups every binding for the expanded help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right, k.FastLeft, k.FastRight, k.PageUp, k.PageDown},
		{k.Start, k.End, k.NamesLeft, k.NamesRight, k.Column, k.Jump},
		{k.Pin, k.Reference, k.ClearRef, k.Filter, k.ClearFilter},
		{k.Diff, k.Method, k.Kind, k.Translate, k.Frame},
		{k.Copy, k.Open, k.Reload, k.Help, k.Quit},
	}
}
