package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	scrollview "github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

// helpMarkdown builds the full help text from the active key map so the
// overlay never drifts from the bindings.
func helpMarkdown(k KeyMap) string {
	var b strings.Builder
	b.WriteString("# msv\n\n")
	b.WriteString("Terminal viewer for multiple sequence alignments.\n\n")

	sections := []struct {
		title    string
		bindings [][2]string
	}{
		{"Navigation", pairs(k.Up, k.Down, k.Left, k.Right, k.FastLeft, k.FastRight, k.PageUp, k.PageDown, k.Start, k.End, k.NamesLeft, k.NamesRight)},
		{"Rows", pairs(k.Jump, k.Pin, k.Reference, k.ClearRef, k.Filter, k.ClearFilter)},
		{"Display", pairs(k.Column, k.Diff, k.Method, k.Kind, k.Translate, k.Frame)},
		{"Other", pairs(k.Copy, k.Open, k.Reload, k.Help, k.Quit)},
	}
	for _, s := range sections {
		fmt.Fprintf(&b, "## %s\n\n| key | action |\n|---|---|\n", s.title)
		for _, p := range s.bindings {
			fmt.Fprintf(&b, "| `%s` | %s |\n", p[0], p[1])
		}
		b.WriteString("\n")
	}

	b.WriteString("## Rows below the alignment\n\n")
	b.WriteString("- **consensus**: most frequent residue of the visible sequences per column. ")
	b.WriteString("`majority-non-gap` never picks a gap and shows `?` for all-gap columns.\n")
	b.WriteString("- **conservation**: 1 minus normalised Shannon entropy, scaled by the non-gap fraction and drawn as a bar.\n")
	b.WriteString("- Columns not yet computed show `·` while statistics are calculated in the background.\n\n")
	b.WriteString("## Diff mode\n\n")
	b.WriteString("Residues equal to the reference sequence or the consensus are drawn as `.`.\n")
	return b.String()
}

func pairs(bs ...key.Binding) [][2]string {
	out := make([][2]string, 0, len(bs))
	for _, b := range bs {
		h := b.Help()
		out = append(out, [2]string{h.Key, h.Desc})
	}
	return out
}

// helpOverlay is a scrollable glamour-rendered help page.
type helpOverlay struct {
	view     scrollview.Model
	markdown string
	width    int
}

func newHelpOverlay(k KeyMap, width, height int) helpOverlay {
	h := helpOverlay{markdown: helpMarkdown(k)}
	h.resize(width, height)
	return h
}

func (h *helpOverlay) resize(width, height int) {
	h.width = width
	h.view = scrollview.New(max(width, 20), max(height-1, 3))
	h.view.SetContent(renderMarkdown(h.markdown, max(width-4, 20)))
}

func renderMarkdown(md string, wrap int) string {
	style := "light"
	if lipgloss.HasDarkBackground() {
		style = "dark"
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return out
}

func (h helpOverlay) Update(msg tea.Msg) (helpOverlay, tea.Cmd) {
	var cmd tea.Cmd
	h.view, cmd = h.view.Update(msg)
	return h, cmd
}

func (h helpOverlay) View(t Theme) string {
	footer := t.Muted.Render(fmt.Sprintf("%3.0f%%  ↑/↓ scroll · ? or esc close", h.view.ScrollPercent()*100))
	return h.view.View() + "\n" + footer
}
