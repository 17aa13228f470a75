package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sahilm/fuzzy"
)

// PickPurpose says what a picked sequence is used for.
type PickPurpose int

const (
	PickJump PickPurpose = iota
	PickPin
	PickReference
)

func (p PickPurpose) title() string {
	switch p {
	case PickPin:
		return "Pin / unpin sequence"
	case PickReference:
		return "Set reference sequence"
	default:
		return "Jump to sequence"
	}
}

// PickerEntry is one selectable sequence.
type PickerEntry struct {
	Index     int // absolute row
	ID        string
	Pinned    bool
	Reference bool
	Hidden    bool
}

// SequencePickedMsg is sent when the user confirms a selection.
type SequencePickedMsg struct {
	Purpose PickPurpose
	Index   int
}

// PickerClosedMsg is sent when the picker is dismissed without a choice.
type PickerClosedMsg struct{}

type pickerSource []PickerEntry

func (s pickerSource) String(i int) string { return s[i].ID }
func (s pickerSource) Len() int            { return len(s) }

// SequencePicker is a fuzzy-filtered list of sequence identifiers.
type SequencePicker struct {
	purpose  PickPurpose
	entries  []PickerEntry
	filtered []int
	cursor   int
	offset   int
	width    int
	height   int
	input    textinput.Model
	theme    Theme
}

// NewSequencePicker returns a focused picker over entries.
func NewSequencePicker(purpose PickPurpose, entries []PickerEntry, theme Theme) SequencePicker {
	ti := textinput.New()
	ti.Placeholder = "type to filter..."
	ti.Prompt = "> "
	ti.CharLimit = 256
	ti.Width = 40
	ti.Focus()

	p := SequencePicker{
		purpose: purpose,
		entries: entries,
		input:   ti,
		theme:   theme,
	}
	p.applyFilter()
	return p
}

// SetSize bounds the rendered box.
func (p *SequencePicker) SetSize(w, h int) {
	p.width = w
	p.height = h
	p.input.Width = max(w-12, 10)
}

// Selected returns the entry under the cursor.
func (p SequencePicker) Selected() (PickerEntry, bool) {
	if p.cursor < 0 || p.cursor >= len(p.filtered) {
		return PickerEntry{}, false
	}
	return p.entries[p.filtered[p.cursor]], true
}

// Matches returns the number of entries passing the current query.
func (p SequencePicker) Matches() int { return len(p.filtered) }

// Update handles keys while the picker is open.
func (p SequencePicker) Update(msg tea.Msg) (SequencePicker, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		var cmd tea.Cmd
		p.input, cmd = p.input.Update(msg)
		return p, cmd
	}
	switch km.String() {
	case "esc", "ctrl+c":
		return p, func() tea.Msg { return PickerClosedMsg{} }
	case "enter":
		e, ok := p.Selected()
		if !ok {
			return p, nil
		}
		purpose := p.purpose
		return p, func() tea.Msg { return SequencePickedMsg{Purpose: purpose, Index: e.Index} }
	case "up", "ctrl+p", "ctrl+k":
		if p.cursor > 0 {
			p.cursor--
		}
		p.follow()
		return p, nil
	case "down", "ctrl+n", "ctrl+j":
		if p.cursor < len(p.filtered)-1 {
			p.cursor++
		}
		p.follow()
		return p, nil
	case "pgup":
		p.cursor = max(p.cursor-p.listHeight(), 0)
		p.follow()
		return p, nil
	case "pgdown":
		p.cursor = max(min(p.cursor+p.listHeight(), len(p.filtered)-1), 0)
		p.follow()
		return p, nil
	}
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	p.applyFilter()
	return p, cmd
}

func (p *SequencePicker) applyFilter() {
	query := strings.TrimSpace(p.input.Value())
	p.filtered = p.filtered[:0]
	if query == "" {
		for i := range p.entries {
			p.filtered = append(p.filtered, i)
		}
	} else {
		for _, m := range fuzzy.FindFrom(query, pickerSource(p.entries)) {
			p.filtered = append(p.filtered, m.Index)
		}
	}
	p.cursor = max(min(p.cursor, len(p.filtered)-1), 0)
	p.offset = 0
	p.follow()
}

func (p *SequencePicker) listHeight() int {
	h := p.height - 6 // border, title, input, footer
	if h < 3 {
		h = 3
	}
	return h
}

func (p *SequencePicker) follow() {
	h := p.listHeight()
	if p.cursor < p.offset {
		p.offset = p.cursor
	}
	if p.cursor >= p.offset+h {
		p.offset = p.cursor - h + 1
	}
}

// View renders the picker as a bordered box.
func (p SequencePicker) View() string {
	t := p.theme
	w := max(p.width-8, 20)

	var b strings.Builder
	b.WriteString(t.Label.Render(p.purpose.title()))
	b.WriteString("\n")
	b.WriteString(p.input.View())
	b.WriteString("\n")

	h := p.listHeight()
	if len(p.filtered) == 0 {
		b.WriteString(t.Muted.Italic(true).Render("no matching sequences"))
		b.WriteString("\n")
	}
	end := min(p.offset+h, len(p.filtered))
	for i := p.offset; i < end; i++ {
		e := p.entries[p.filtered[i]]
		var tags []string
		if e.Pinned {
			tags = append(tags, "pinned")
		}
		if e.Reference {
			tags = append(tags, "reference")
		}
		if e.Hidden && !e.Reference {
			tags = append(tags, "filtered")
		}
		line := fmt.Sprintf("%5d  %s", e.Index+1, truncate(e.ID, w-20))
		if len(tags) > 0 {
			line += "  " + t.Muted.Render("["+strings.Join(tags, ", ")+"]")
		}
		if i == p.cursor {
			line = t.Selected.Render("▸ " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString(t.Muted.Render(fmt.Sprintf("%d/%d  enter select · esc cancel", len(p.filtered), len(p.entries))))

	return t.Overlay.Width(w).Render(b.String())
}
