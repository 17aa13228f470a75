// Package core is the state machine behind the viewer.
//
// State.Apply takes one Action and mutates the alignment view state: the
// viewport, the visible-row projection, selection roles and display
// settings. It performs no I/O and starts no background work; the caller
// inspects Classify(action) afterwards to decide what to do with the column
// statistics cache.
package core

import (
	"regexp"

	"github.com/vanderheijden86/msaview/pkg/alignment"
	"github.com/vanderheijden86/msaview/pkg/colstats"
	"github.com/vanderheijden86/msaview/pkg/viewport"
	"github.com/vanderheijden86/msaview/pkg/visibility"
)

// LoadState is the status of the most recent load.
type LoadState int

const (
	LoadIdle LoadState = iota
	LoadLoading
	LoadLoaded
	LoadFailed
)

func (s LoadState) String() string {
	switch s {
	case LoadLoading:
		return "loading"
	case LoadLoaded:
		return "loaded"
	case LoadFailed:
		return "failed"
	default:
		return "idle"
	}
}

// Filter is the identifier filter. An empty Pattern means no Matcher.
type Filter struct {
	Pattern string
	Matcher *regexp.Regexp
}

// Active reports whether the filter excludes anything.
func (f Filter) Active() bool {
	return f.Matcher != nil
}

// Options seeds a new State.
type Options struct {
	// InitialColumn is the 0-based column shown after every successful load.
	InitialColumn int
	Method        colstats.Method
}

// State is owned by the event loop goroutine.
type State struct {
	Data      *alignment.Data
	Viewport  viewport.Viewport
	Filter    Filter
	Selection visibility.Selection
	Rows      visibility.Resolver

	Load      LoadState
	LoadError string
	Source    string

	InitialColumn int
	Method        colstats.Method
	Diff          DiffMode
	Translate     bool
	// Frame is the 0-based reading frame used by the translation view.
	Frame int

	ids []string
}

// New returns an idle state with no alignment.
func New(opts Options) *State {
	return &State{
		Selection:     visibility.NewSelection(),
		InitialColumn: max(opts.InitialColumn, 0),
		Method:        opts.Method,
	}
}

// PrepareLoad marks source as loading. The current alignment stays usable.
func (s *State) PrepareLoad(source string) {
	s.Source = source
	s.Load = LoadLoading
	s.LoadError = ""
}

// HandleLoaded installs a freshly parsed alignment. Pins and the reference
// are cleared, the filter is kept and the view jumps to InitialColumn.
func (s *State) HandleLoaded(d *alignment.Data) {
	if d == nil {
		return
	}
	s.Data = d
	s.ids = d.IDs()
	s.Load = LoadLoaded
	s.LoadError = ""
	if d.Kind != alignment.KindDNA {
		s.Translate = false
	}
	s.Selection.Reset()
	s.refresh()
	s.Viewport.JumpToPosition(s.InitialColumn)
}

// HandleLoadFailed records a load failure. The previous alignment, if any,
// is left in place.
func (s *State) HandleLoadFailed(err error) {
	s.Load = LoadFailed
	if err != nil {
		s.LoadError = err.Error()
	}
}

// Resize updates the visible area. The name pane width and the number of
// body rows come from the layout.
func (s *State) Resize(cols, rows, nameWidth int) {
	s.Viewport.SetDimensions(cols, rows, nameWidth)
	s.refresh()
}

// Apply applies a and reports whether anything changed. Illegal or stale
// inputs are ignored.
func (s *State) Apply(a Action) bool {
	switch a := a.(type) {
	case Scroll:
		return s.scroll(a)
	case JumpToColumn:
		before := s.Viewport.Offsets
		s.Viewport.JumpToPosition(a.Column)
		return before != s.Viewport.Offsets
	case JumpToSequence:
		vi, ok := s.Rows.VisibleIndex(a.ID)
		if !ok {
			return false
		}
		before := s.Viewport.Offsets
		s.Viewport.JumpToRow(max(vi-s.Rows.PinnedVisible(), 0))
		return before != s.Viewport.Offsets
	case Pin:
		if !s.Selection.Pin(a.ID, s.Data.Len()) {
			return false
		}
		s.refresh()
		return true
	case Unpin:
		if !s.Selection.Unpin(a.ID) {
			return false
		}
		s.refresh()
		return true
	case SetReference:
		if a.ID == s.Selection.Reference {
			return false
		}
		if !s.Selection.SetReference(a.ID, s.Data.Len()) {
			return false
		}
		s.refresh()
		return true
	case ClearReference:
		if !s.Selection.ClearReference() {
			return false
		}
		s.refresh()
		return true
	case SetFilter:
		return s.setFilter(a.Pattern, a.Matcher)
	case ClearFilter:
		return s.setFilter("", nil)
	case SetConsensusMethod:
		if s.Method == a.Method {
			return false
		}
		s.Method = a.Method
		return true
	case SetSequenceKind:
		if s.Data == nil || a.Kind == alignment.KindUnknown || s.Data.Kind == a.Kind {
			return false
		}
		s.Data.Kind = a.Kind
		if a.Kind != alignment.KindDNA {
			s.Translate = false
		}
		return true
	case SetTranslationFrame:
		if !s.IsDNA() || a.Frame < 1 || a.Frame > 3 || s.Frame == a.Frame-1 {
			return false
		}
		s.Frame = a.Frame - 1
		return true
	case SetDiffMode:
		if s.Diff == a.Mode {
			return false
		}
		s.Diff = a.Mode
		return true
	case ToggleTranslation:
		if !s.IsDNA() {
			return false
		}
		s.Translate = !s.Translate
		return true
	}
	return false
}

func (s *State) scroll(a Scroll) bool {
	before := s.Viewport.Offsets
	switch a.Dir {
	case ScrollUp:
		s.Viewport.Scroll(viewport.AxisRows, a.Amount, viewport.Backward)
	case ScrollDown:
		s.Viewport.Scroll(viewport.AxisRows, a.Amount, viewport.Forward)
	case ScrollLeft:
		s.Viewport.Scroll(viewport.AxisCols, a.Amount, viewport.Backward)
	case ScrollRight:
		s.Viewport.Scroll(viewport.AxisCols, a.Amount, viewport.Forward)
	case ScrollNamesLeft:
		s.Viewport.Scroll(viewport.AxisNames, a.Amount, viewport.Backward)
	case ScrollNamesRight:
		s.Viewport.Scroll(viewport.AxisNames, a.Amount, viewport.Forward)
	}
	return before != s.Viewport.Offsets
}

func (s *State) setFilter(pattern string, m *regexp.Regexp) bool {
	if pattern == "" {
		m = nil
	} else if m == nil {
		compiled, err := regexp.Compile(pattern)
		if err != nil {
			return false
		}
		m = compiled
	}
	if pattern == s.Filter.Pattern && (m == nil) == (s.Filter.Matcher == nil) {
		return false
	}
	s.Filter = Filter{Pattern: pattern, Matcher: m}
	s.refresh()
	return true
}

// refresh rebuilds the visible rows and the viewport bounds.
func (s *State) refresh() {
	var m visibility.Matcher
	if s.Filter.Matcher != nil {
		m = s.Filter.Matcher
	}
	s.Rows.Recompute(s.ids, s.Selection.Reference, s.Selection.Pinned, m)
	var length, width int
	if s.Data != nil {
		length, width = s.Data.Length, s.Data.MaxIDWidth
	}
	s.Viewport.SetBounds(s.Rows.VisibleCount(), length, width)
}

// IsDNA reports whether the alignment is classified as nucleotides.
func (s *State) IsDNA() bool {
	return s.Data != nil && s.Data.Kind == alignment.KindDNA
}

// StatsKind is the alphabet used for conservation. Unclassified data is
// scored as nucleotides.
func (s *State) StatsKind() alignment.Kind {
	if s.Data != nil && s.Data.Kind == alignment.KindAminoAcid {
		return alignment.KindAminoAcid
	}
	return alignment.KindDNA
}

// VisibleRecords returns the visible rows in display order. The slice is a
// fresh copy that is safe to hand to a worker.
func (s *State) VisibleRecords() []*alignment.Record {
	order := s.Rows.VisibleOrder()
	out := make([]*alignment.Record, 0, len(order))
	for _, abs := range order {
		if r, ok := s.Data.Record(abs); ok {
			out = append(out, r)
		}
	}
	return out
}

// PinnedRecords returns the visible pinned rows in pin order.
func (s *State) PinnedRecords() []*alignment.Record {
	order := s.Rows.VisibleOrder()[:s.Rows.PinnedVisible()]
	out := make([]*alignment.Record, 0, len(order))
	for _, abs := range order {
		if r, ok := s.Data.Record(abs); ok {
			out = append(out, r)
		}
	}
	return out
}

// ScrolledRecords returns the unpinned rows inside the row window. Pinned
// rows stay fixed above them and the row offset only moves this region.
func (s *State) ScrolledRecords() []*alignment.Record {
	order := s.Rows.VisibleOrder()
	pinned := s.Rows.PinnedVisible()
	start := pinned + s.Viewport.Offsets.Rows
	end := min(start+s.Viewport.Visible.Rows, len(order))
	var out []*alignment.Record
	for i := start; i < end; i++ {
		if r, ok := s.Data.Record(order[i]); ok {
			out = append(out, r)
		}
	}
	return out
}

// Reference returns the reference row, if one is set.
func (s *State) Reference() (*alignment.Record, bool) {
	if s.Selection.Reference == visibility.NoReference {
		return nil, false
	}
	return s.Data.Record(s.Selection.Reference)
}

// IsPinned reports whether absolute row id is pinned.
func (s *State) IsPinned(id int) bool {
	return s.Selection.IsPinned(id)
}
