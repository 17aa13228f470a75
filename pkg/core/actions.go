package core

import (
	"fmt"
	"regexp"

	"github.com/vanderheijden86/msaview/pkg/alignment"
	"github.com/vanderheijden86/msaview/pkg/colstats"
)

// Action is one discrete state change. The set is closed: only the types in
// this file implement it.
type Action interface {
	action()
}

// ScrollDir names the six scroll intents.
type ScrollDir int

const (
	ScrollUp ScrollDir = iota
	ScrollDown
	ScrollLeft
	ScrollRight
	ScrollNamesLeft
	ScrollNamesRight
)

func (d ScrollDir) String() string {
	switch d {
	case ScrollUp:
		return "up"
	case ScrollDown:
		return "down"
	case ScrollLeft:
		return "left"
	case ScrollRight:
		return "right"
	case ScrollNamesLeft:
		return "names-left"
	case ScrollNamesRight:
		return "names-right"
	default:
		return fmt.Sprintf("scroll(%d)", int(d))
	}
}

// DiffMode selects what rows are compared against when rendering.
type DiffMode int

const (
	DiffOff DiffMode = iota
	DiffReference
	DiffConsensus
)

func (m DiffMode) String() string {
	switch m {
	case DiffReference:
		return "reference"
	case DiffConsensus:
		return "consensus"
	default:
		return "off"
	}
}

type (
	// Scroll moves the viewport by Amount in Dir.
	Scroll struct {
		Dir    ScrollDir
		Amount int
	}
	// JumpToColumn puts Column at the left edge of the view.
	JumpToColumn struct{ Column int }
	// JumpToSequence scrolls until absolute row ID is at the top of the
	// unpinned region. Hidden rows are ignored.
	JumpToSequence struct{ ID int }
	// Pin moves a row into the pinned block.
	Pin struct{ ID int }
	// Unpin returns a row to normal filtering.
	Unpin struct{ ID int }
	// SetReference makes a row the diff baseline and hides it.
	SetReference struct{ ID int }
	// ClearReference drops the reference row.
	ClearReference struct{}
	// SetFilter filters unpinned rows by identifier. An empty Pattern
	// clears the filter.
	SetFilter struct {
		Pattern string
		Matcher *regexp.Regexp
	}
	// ClearFilter removes the identifier filter.
	ClearFilter struct{}
	// SetConsensusMethod changes how consensus bytes are chosen.
	SetConsensusMethod struct{ Method colstats.Method }
	// SetSequenceKind overrides the detected alphabet.
	SetSequenceKind struct{ Kind alignment.Kind }
	// SetTranslationFrame selects reading frame 1, 2 or 3.
	SetTranslationFrame struct{ Frame int }
	// SetDiffMode changes the diff rendering.
	SetDiffMode struct{ Mode DiffMode }
	// ToggleTranslation flips the amino-acid translation view.
	ToggleTranslation struct{}
)

func (Scroll) action()              {}
func (JumpToColumn) action()        {}
func (JumpToSequence) action()      {}
func (Pin) action()                 {}
func (Unpin) action()               {}
func (SetReference) action()        {}
func (ClearReference) action()      {}
func (SetFilter) action()           {}
func (ClearFilter) action()         {}
func (SetConsensusMethod) action()  {}
func (SetSequenceKind) action()     {}
func (SetTranslationFrame) action() {}
func (SetDiffMode) action()         {}
func (ToggleTranslation) action()   {}

// StatsEffect tells the caller what an applied action means for the column
// statistics cache.
type StatsEffect int

const (
	// StatsNone leaves the cache alone.
	StatsNone StatsEffect = iota
	// StatsExtend may need new columns because the view moved.
	StatsExtend
	// StatsInvalidate means cached values were computed from different
	// inputs and must be dropped.
	StatsInvalidate
)

func (e StatsEffect) String() string {
	switch e {
	case StatsExtend:
		return "extend"
	case StatsInvalidate:
		return "invalidate"
	default:
		return "none"
	}
}

// Classify maps an action kind to its statistics effect. It does not look at
// state; callers combine it with the changed flag returned by Apply.
func Classify(a Action) StatsEffect {
	switch a.(type) {
	case Scroll, JumpToColumn, JumpToSequence:
		return StatsExtend
	case Pin, Unpin, SetReference, ClearReference, SetFilter, ClearFilter,
		SetConsensusMethod, SetSequenceKind:
		return StatsInvalidate
	default:
		return StatsNone
	}
}
