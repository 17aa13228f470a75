package ui

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type promptKind int

const (
	promptFilter promptKind = iota
	promptColumn
	promptOpen
)

// PromptSubmittedMsg carries a validated prompt value back to the model.
type PromptSubmittedMsg struct {
	kind    promptKind
	value   string
	column  int
	matcher *regexp.Regexp
}

// PromptCancelledMsg is sent when a prompt is dismissed.
type PromptCancelledMsg struct{}

// prompt is the single-line input shown in place of the help bar.
type prompt struct {
	kind  promptKind
	input textinput.Model
	err   string
}

func newPrompt(kind promptKind, initial string, width int) prompt {
	ti := textinput.New()
	ti.CharLimit = 512
	ti.Width = max(width-20, 10)
	switch kind {
	case promptFilter:
		ti.Prompt = "filter /"
		ti.Placeholder = "identifier regex, empty clears"
	case promptColumn:
		ti.Prompt = "column :"
		ti.Placeholder = "1-based position"
	case promptOpen:
		ti.Prompt = "open: "
		ti.Placeholder = "path or URL"
	}
	ti.SetValue(initial)
	ti.CursorEnd()
	ti.Focus()
	return prompt{kind: kind, input: ti}
}

func (p prompt) Update(msg tea.Msg) (prompt, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch km.String() {
		case "esc", "ctrl+c":
			return p, func() tea.Msg { return PromptCancelledMsg{} }
		case "enter":
			sub, err := p.submit()
			if err != nil {
				p.err = err.Error()
				return p, nil
			}
			return p, func() tea.Msg { return sub }
		}
	}
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	p.err = ""
	return p, cmd
}

func (p prompt) submit() (PromptSubmittedMsg, error) {
	raw := p.input.Value()
	sub := PromptSubmittedMsg{kind: p.kind, value: raw}
	switch p.kind {
	case promptFilter:
		if raw == "" {
			return sub, nil
		}
		re, err := regexp.Compile(raw)
		if err != nil {
			return sub, fmt.Errorf("invalid regex: %w", err)
		}
		sub.matcher = re
	case promptColumn:
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil || n < 1 {
			return sub, fmt.Errorf("column must be a positive number")
		}
		sub.column = n - 1
	case promptOpen:
		sub.value = strings.TrimSpace(raw)
		if sub.value == "" {
			return sub, fmt.Errorf("nothing to open")
		}
	}
	return sub, nil
}

func (p prompt) View(t Theme) string {
	v := p.input.View()
	if p.err != "" {
		v += "  " + t.Error.Render(p.err)
	}
	return v
}
