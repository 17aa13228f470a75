// Package ui is the bubbletea front end of msv. It turns key presses into
// core actions, forwards job completions to the engine session and renders
// the alignment.
package ui

import (
	"fmt"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/msaview/pkg/alignment"
	"github.com/vanderheijden86/msaview/pkg/colstats"
	"github.com/vanderheijden86/msaview/pkg/config"
	"github.com/vanderheijden86/msaview/pkg/core"
	"github.com/vanderheijden86/msaview/pkg/debug"
	"github.com/vanderheijden86/msaview/pkg/engine"
	"github.com/vanderheijden86/msaview/pkg/jobs"
	"github.com/vanderheijden86/msaview/pkg/metrics"
	"github.com/vanderheijden86/msaview/pkg/watcher"
)

type mode int

const (
	modeNormal mode = iota
	modePrompt
	modePicker
	modeHelp
)

// CompletionMsg wraps a finished background job.
type CompletionMsg struct {
	Completion jobs.Completion
}

// FileChangedMsg is sent when the watched alignment changes on disk.
type FileChangedMsg struct{}

type clipboardMsg struct {
	n   int
	err error
}

// WaitForCompletionCmd waits for the next job completion.
func WaitForCompletionCmd(c *jobs.Controller) tea.Cmd {
	return func() tea.Msg {
		select {
		case comp := <-c.Completions():
			return CompletionMsg{Completion: comp}
		case <-c.Done():
			return nil
		}
	}
}

// WatchFileCmd waits for the watcher to report a change.
func WatchFileCmd(w *watcher.Watcher) tea.Cmd {
	return func() tea.Msg {
		<-w.Changed()
		return FileChangedMsg{}
	}
}

// clipboardWrite is swapped in tests.
var clipboardWrite = clipboard.WriteAll

func copyCmd(text string) tea.Cmd {
	return func() tea.Msg {
		return clipboardMsg{n: len(text), err: clipboardWrite(text)}
	}
}

// Options configures a Model.
type Options struct {
	// Source is loaded on start when non-empty.
	Source string
	// Watcher, when set, triggers a reload whenever it reports a change.
	Watcher  *watcher.Watcher
	Renderer *lipgloss.Renderer
}

// Model is the bubbletea model.
type Model struct {
	session *engine.Session
	cfg     config.Config
	keys    KeyMap
	help    help.Model
	spinner spinner.Model
	theme   Theme
	watcher *watcher.Watcher

	width  int
	height int
	ready  bool

	mode        mode
	prompt      prompt
	picker      SequencePicker
	helpOverlay helpOverlay

	status    string
	statusErr bool
}

// NewModel builds the model and starts loading opts.Source.
func NewModel(session *engine.Session, cfg config.Config, opts Options) Model {
	r := opts.Renderer
	if r == nil {
		r = lipgloss.DefaultRenderer()
	}
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		session: session,
		cfg:     cfg,
		keys:    DefaultKeyMap(),
		help:    help.New(),
		spinner: sp,
		theme:   DefaultTheme(r),
		watcher: opts.Watcher,
	}
	m.spinner.Style = m.theme.Label
	if opts.Source != "" {
		session.Load(opts.Source)
	}
	return m
}

// Session returns the engine session backing the model.
func (m Model) Session() *engine.Session { return m.session }

// Init starts the completion pump, the spinner and the file watcher.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{WaitForCompletionCmd(m.session.Jobs()), m.spinner.Tick}
	if m.watcher != nil {
		cmds = append(cmds, WatchFileCmd(m.watcher))
	}
	return tea.Batch(cmds...)
}

func (m Model) layout() layout {
	var idWidth int
	if d := m.session.State().Data; d != nil {
		idWidth = d.MaxIDWidth
	}
	return computeLayout(m.width, m.height, idWidth, m.cfg.UI.NameWidth)
}

// relayout pushes the current terminal size into the session.
func (m Model) relayout() {
	l := m.layout()
	m.session.Resize(l.cols, l.bodyRows, l.nameWidth)
}

func (m *Model) setStatus(msg string, isErr bool) {
	m.status = msg
	m.statusErr = isErr
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.ready = true
		m.help.Width = msg.Width
		m.relayout()
		m.picker.SetSize(msg.Width, msg.Height)
		if m.mode == modeHelp {
			m.helpOverlay.resize(msg.Width, msg.Height)
		}
		return m, nil

	case CompletionMsg:
		return m.handleCompletion(msg.Completion)

	case FileChangedMsg:
		if m.session.Reload() != 0 {
			m.setStatus("file changed, reloading", false)
			debug.Log("reload triggered by file change")
		}
		if m.watcher == nil {
			return m, nil
		}
		return m, WatchFileCmd(m.watcher)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case clipboardMsg:
		if msg.err != nil {
			m.setStatus("clipboard: "+msg.err.Error(), true)
		} else {
			m.setStatus(fmt.Sprintf("copied %d consensus residues", msg.n), false)
		}
		return m, nil

	case SequencePickedMsg:
		m.mode = modeNormal
		m.applyPick(msg)
		return m, nil

	case PickerClosedMsg:
		m.mode = modeNormal
		return m, nil

	case PromptSubmittedMsg:
		m.mode = modeNormal
		m.applyPrompt(msg)
		return m, nil

	case PromptCancelledMsg:
		m.mode = modeNormal
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case modeHelp:
			switch msg.String() {
			case "?", "esc", "q":
				m.mode = modeNormal
				return m, nil
			}
			var cmd tea.Cmd
			m.helpOverlay, cmd = m.helpOverlay.Update(msg)
			return m, cmd
		case modePicker:
			var cmd tea.Cmd
			m.picker, cmd = m.picker.Update(msg)
			return m, cmd
		case modePrompt:
			var cmd tea.Cmd
			m.prompt, cmd = m.prompt.Update(msg)
			return m, cmd
		}
		return m.handleKey(msg)
	}

	// Cursor blink and similar messages belong to the focused input.
	var cmd tea.Cmd
	switch m.mode {
	case modePrompt:
		m.prompt, cmd = m.prompt.Update(msg)
	case modePicker:
		m.picker, cmd = m.picker.Update(msg)
	}
	return m, cmd
}

func (m Model) handleCompletion(c jobs.Completion) (tea.Model, tea.Cmd) {
	next := WaitForCompletionCmd(m.session.Jobs())
	if !m.session.HandleCompletion(c) || c.Category != jobs.CategoryLoad {
		return m, next
	}
	st := m.session.State()
	switch st.Load {
	case core.LoadFailed:
		m.setStatus(st.LoadError, true)
		debug.Log("ui: load failed: %s", st.LoadError)
	case core.LoadLoaded:
		m.setStatus(fmt.Sprintf("loaded %s sequences × %s columns in %v",
			formatCount(st.Data.Len()), formatCount(st.Data.Length), c.Elapsed.Round(time.Millisecond)), false)
		debug.Log("ui: loaded %s", st.Source)
		m.relayout()
	}
	return m, next
}

func (m Model) dispatch(a core.Action) bool {
	return m.session.Dispatch(a)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	st := m.session.State()
	step := m.cfg.UI.ScrollStep
	fast := m.cfg.UI.FastScrollStep
	page := max(m.layout().bodyRows-st.Rows.PinnedVisible(), 1)
	m.status = ""

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.helpOverlay = newHelpOverlay(m.keys, m.width, m.height)
		m.mode = modeHelp
	case key.Matches(msg, m.keys.Up):
		m.dispatch(core.Scroll{Dir: core.ScrollUp, Amount: step})
	case key.Matches(msg, m.keys.Down):
		m.dispatch(core.Scroll{Dir: core.ScrollDown, Amount: step})
	case key.Matches(msg, m.keys.Left):
		m.dispatch(core.Scroll{Dir: core.ScrollLeft, Amount: step})
	case key.Matches(msg, m.keys.Right):
		m.dispatch(core.Scroll{Dir: core.ScrollRight, Amount: step})
	case key.Matches(msg, m.keys.FastLeft):
		m.dispatch(core.Scroll{Dir: core.ScrollLeft, Amount: fast})
	case key.Matches(msg, m.keys.FastRight):
		m.dispatch(core.Scroll{Dir: core.ScrollRight, Amount: fast})
	case key.Matches(msg, m.keys.PageUp):
		m.dispatch(core.Scroll{Dir: core.ScrollUp, Amount: page})
	case key.Matches(msg, m.keys.PageDown):
		m.dispatch(core.Scroll{Dir: core.ScrollDown, Amount: page})
	case key.Matches(msg, m.keys.Start):
		m.dispatch(core.JumpToColumn{Column: 0})
	case key.Matches(msg, m.keys.End):
		if st.Data != nil {
			m.dispatch(core.JumpToColumn{Column: st.Data.Length})
		}
	case key.Matches(msg, m.keys.NamesLeft):
		m.dispatch(core.Scroll{Dir: core.ScrollNamesLeft, Amount: step})
	case key.Matches(msg, m.keys.NamesRight):
		m.dispatch(core.Scroll{Dir: core.ScrollNamesRight, Amount: step})
	case key.Matches(msg, m.keys.Column):
		return m.openPrompt(promptColumn, "")
	case key.Matches(msg, m.keys.Filter):
		return m.openPrompt(promptFilter, st.Filter.Pattern)
	case key.Matches(msg, m.keys.Open):
		return m.openPrompt(promptOpen, st.Source)
	case key.Matches(msg, m.keys.ClearFilter):
		if m.dispatch(core.ClearFilter{}) {
			m.setStatus("filter cleared", false)
		}
	case key.Matches(msg, m.keys.Jump):
		return m.openPicker(PickJump)
	case key.Matches(msg, m.keys.Pin):
		return m.openPicker(PickPin)
	case key.Matches(msg, m.keys.Reference):
		return m.openPicker(PickReference)
	case key.Matches(msg, m.keys.ClearRef):
		if m.dispatch(core.ClearReference{}) {
			m.setStatus("reference cleared", false)
		}
	case key.Matches(msg, m.keys.Diff):
		next := (st.Diff + 1) % 3
		m.dispatch(core.SetDiffMode{Mode: next})
		if next == core.DiffReference {
			if _, ok := st.Reference(); !ok {
				m.setStatus("diff against reference: no reference set (r)", true)
			}
		}
	case key.Matches(msg, m.keys.Method):
		method := colstats.MethodMajorityNonGap
		if st.Method == colstats.MethodMajorityNonGap {
			method = colstats.MethodMajority
		}
		m.dispatch(core.SetConsensusMethod{Method: method})
		m.setStatus("consensus: "+method.String(), false)
	case key.Matches(msg, m.keys.Kind):
		if st.Data != nil {
			kind := alignment.KindAminoAcid
			if st.Data.Kind == alignment.KindAminoAcid {
				kind = alignment.KindDNA
			}
			m.dispatch(core.SetSequenceKind{Kind: kind})
			m.setStatus("alphabet: "+kind.String(), false)
		}
	case key.Matches(msg, m.keys.Translate):
		if !m.dispatch(core.ToggleTranslation{}) {
			m.setStatus("translation needs a nucleotide alignment", true)
		}
	case key.Matches(msg, m.keys.Frame):
		if !m.dispatch(core.SetTranslationFrame{Frame: (st.Frame+1)%3 + 1}) {
			m.setStatus("translation needs a nucleotide alignment", true)
		}
	case key.Matches(msg, m.keys.Copy):
		if st.Data == nil {
			return m, nil
		}
		return m, copyCmd(m.session.Stats().ConsensusString(st.Viewport.Window().Cols))
	case key.Matches(msg, m.keys.Reload):
		if m.session.Reload() != 0 {
			m.setStatus("reloading", false)
		}
	}
	return m, nil
}

func (m Model) openPrompt(kind promptKind, initial string) (tea.Model, tea.Cmd) {
	m.prompt = newPrompt(kind, initial, m.width)
	m.mode = modePrompt
	return m, textinput.Blink
}

func (m Model) openPicker(purpose PickPurpose) (tea.Model, tea.Cmd) {
	st := m.session.State()
	if st.Data == nil || st.Data.Len() == 0 {
		m.setStatus("no alignment loaded", true)
		return m, nil
	}
	entries := make([]PickerEntry, st.Data.Len())
	for i, rec := range st.Data.Sequences {
		entries[i] = PickerEntry{
			Index:     i,
			ID:        rec.ID,
			Pinned:    st.IsPinned(i),
			Reference: st.Selection.Reference == i,
			Hidden:    st.Rows.IsHidden(i),
		}
	}
	m.picker = NewSequencePicker(purpose, entries, m.theme)
	m.picker.SetSize(m.width, m.height)
	m.mode = modePicker
	return m, nil
}

func (m *Model) applyPick(msg SequencePickedMsg) {
	st := m.session.State()
	rec, ok := st.Data.Record(msg.Index)
	if !ok {
		return
	}
	switch msg.Purpose {
	case PickJump:
		if !m.dispatch(core.JumpToSequence{ID: msg.Index}) && st.Rows.IsHidden(msg.Index) {
			m.setStatus(rec.ID+" is hidden", true)
		}
	case PickPin:
		if st.IsPinned(msg.Index) {
			m.dispatch(core.Unpin{ID: msg.Index})
			m.setStatus("unpinned "+rec.ID, false)
		} else {
			m.dispatch(core.Pin{ID: msg.Index})
			m.setStatus("pinned "+rec.ID, false)
		}
	case PickReference:
		if m.dispatch(core.SetReference{ID: msg.Index}) {
			m.setStatus("reference: "+rec.ID, false)
		}
	}
}

func (m *Model) applyPrompt(msg PromptSubmittedMsg) {
	switch msg.kind {
	case promptFilter:
		if msg.matcher == nil {
			m.dispatch(core.ClearFilter{})
			return
		}
		m.dispatch(core.SetFilter{Pattern: msg.value, Matcher: msg.matcher})
		if m.session.State().Rows.VisibleCount() == 0 {
			m.setStatus("filter matches no sequences", true)
		}
	case promptColumn:
		m.dispatch(core.JumpToColumn{Column: msg.column})
	case promptOpen:
		m.session.Load(msg.value)
	}
}

// View renders the current screen.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}
	defer metrics.Timer(metrics.UIRender)()

	switch m.mode {
	case modeHelp:
		return m.helpOverlay.View(m.theme)
	case modePicker:
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.picker.View())
	}
	return m.renderMain()
}
