// Package viewport tracks scroll offsets over the alignment grid.
//
// Three axes scroll independently: rows, alignment columns and the
// identifier pane. Offsets are kept inside [0, max-visible] on every axis
// after every mutation.
package viewport

// Axis selects one of the three scrollable dimensions.
type Axis int

const (
	AxisRows Axis = iota
	AxisCols
	AxisNames
)

func (a Axis) String() string {
	switch a {
	case AxisRows:
		return "rows"
	case AxisCols:
		return "cols"
	case AxisNames:
		return "names"
	default:
		return "unknown"
	}
}

// Direction is the sign of a scroll.
type Direction int

const (
	Backward Direction = iota // up or left
	Forward                   // down or right
)

// Offsets is the top-left corner of the visible area.
type Offsets struct {
	Rows  int
	Cols  int
	Names int
}

// Dims holds a size on each axis. It is used both for the visible area
// (driven by the terminal) and for the data bounds.
type Dims struct {
	Rows      int
	Cols      int
	NameWidth int
}

// Range is a half-open interval [Start, End).
type Range struct {
	Start int
	End   int
}

// Len returns End-Start, or 0 for an empty range.
func (r Range) Len() int {
	if r.End <= r.Start {
		return 0
	}
	return r.End - r.Start
}

// Contains reports whether i falls inside the range.
func (r Range) Contains(i int) bool {
	return i >= r.Start && i < r.End
}

// Window is the renderable sub-rectangle.
type Window struct {
	Rows  Range
	Cols  Range
	Names Range
}

// Viewport is a value type; the zero value is an empty viewport.
type Viewport struct {
	Offsets Offsets
	Visible Dims
	Max     Dims
}

// Scroll moves one axis by amount. Negative amounts are treated as zero.
func (v *Viewport) Scroll(axis Axis, amount int, dir Direction) {
	if amount < 0 {
		amount = 0
	}
	off := v.offset(axis)
	if dir == Forward {
		limit := v.maxOffset(axis)
		if amount > limit-*off {
			*off = limit
		} else {
			*off += amount
		}
	} else {
		*off = satSub(*off, amount)
	}
	v.Clamp()
}

// JumpToPosition sets the column offset to col, clamped.
func (v *Viewport) JumpToPosition(col int) {
	v.Offsets.Cols = col
	v.Clamp()
}

// JumpToRow sets the row offset to row, clamped.
func (v *Viewport) JumpToRow(row int) {
	v.Offsets.Rows = row
	v.Clamp()
}

// SetDimensions updates the visible sizes. Offsets are only moved when the
// new size forces it.
func (v *Viewport) SetDimensions(cols, rows, nameWidth int) {
	v.Visible = Dims{Rows: max(rows, 0), Cols: max(cols, 0), NameWidth: max(nameWidth, 0)}
	v.Clamp()
}

// SetBounds updates the data-derived bounds.
func (v *Viewport) SetBounds(rows, cols, nameWidth int) {
	v.Max = Dims{Rows: max(rows, 0), Cols: max(cols, 0), NameWidth: max(nameWidth, 0)}
	v.Clamp()
}

// Clamp forces every offset into [0, max(0, max-visible)].
func (v *Viewport) Clamp() {
	for _, axis := range []Axis{AxisRows, AxisCols, AxisNames} {
		off := v.offset(axis)
		limit := v.maxOffset(axis)
		if *off > limit {
			*off = limit
		}
		if *off < 0 {
			*off = 0
		}
	}
}

// Window returns the visible ranges, offset..min(offset+visible, max) per axis.
func (v Viewport) Window() Window {
	return Window{
		Rows:  span(v.Offsets.Rows, v.Visible.Rows, v.Max.Rows),
		Cols:  span(v.Offsets.Cols, v.Visible.Cols, v.Max.Cols),
		Names: span(v.Offsets.Names, v.Visible.NameWidth, v.Max.NameWidth),
	}
}

// MaxOffset returns the largest legal offset on axis.
func (v Viewport) MaxOffset(axis Axis) int {
	return v.maxOffset(axis)
}

func (v *Viewport) offset(axis Axis) *int {
	switch axis {
	case AxisCols:
		return &v.Offsets.Cols
	case AxisNames:
		return &v.Offsets.Names
	default:
		return &v.Offsets.Rows
	}
}

func (v Viewport) maxOffset(axis Axis) int {
	switch axis {
	case AxisCols:
		return satSub(v.Max.Cols, v.Visible.Cols)
	case AxisNames:
		return satSub(v.Max.NameWidth, v.Visible.NameWidth)
	default:
		return satSub(v.Max.Rows, v.Visible.Rows)
	}
}

func span(offset, visible, bound int) Range {
	end := offset + visible
	if end > bound || end < offset {
		end = bound
	}
	if end < offset {
		end = offset
	}
	return Range{Start: offset, End: end}
}

func satSub(a, b int) int {
	if b >= a {
		return 0
	}
	return a - b
}
