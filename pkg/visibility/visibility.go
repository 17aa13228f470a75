// Package visibility decides which alignment rows are shown and in what
// order.
//
// Rows are addressed two ways: the absolute index is the position in load
// order, the visible index is the position in the display order. Both maps
// are dense parallel arrays rebuilt in full on every Recompute.
package visibility

import "slices"

// NoReference marks the absence of a reference sequence.
const NoReference = -1

// Matcher selects identifiers kept by a name filter. *regexp.Regexp
// satisfies it.
type Matcher interface {
	MatchString(s string) bool
}

// Resolver holds the hidden flags and both index maps.
type Resolver struct {
	hidden   []bool
	order    []int
	absToVis []int
	pinned   int
}

// Recompute rebuilds every map from scratch.
//
// A row is hidden when it is the reference, or when a filter is active, the
// row is not pinned and its identifier does not match. Pinned rows come first
// in pin order, then the rest in ascending absolute order. Pinned and
// reference ids outside [0, len(ids)) are ignored.
func (r *Resolver) Recompute(ids []string, reference int, pinned []int, filter Matcher) {
	n := len(ids)
	r.hidden = resize(r.hidden, n)
	r.absToVis = resize(r.absToVis, n)
	r.order = r.order[:0]
	r.pinned = 0

	isPinned := make([]bool, n)
	for _, p := range pinned {
		if p >= 0 && p < n {
			isPinned[p] = true
		}
	}

	for i := 0; i < n; i++ {
		hidden := i == reference
		if !hidden && !isPinned[i] && filter != nil && !filter.MatchString(ids[i]) {
			hidden = true
		}
		r.hidden[i] = hidden
		r.absToVis[i] = -1
	}

	seen := make([]bool, n)
	for _, p := range pinned {
		if p < 0 || p >= n || r.hidden[p] || seen[p] {
			continue
		}
		seen[p] = true
		r.absToVis[p] = len(r.order)
		r.order = append(r.order, p)
		r.pinned++
	}
	for i := 0; i < n; i++ {
		if r.hidden[i] || isPinned[i] {
			continue
		}
		r.absToVis[i] = len(r.order)
		r.order = append(r.order, i)
	}
}

// VisibleOrder returns absolute indices in display order. The slice is owned
// by the resolver and valid until the next Recompute.
func (r *Resolver) VisibleOrder() []int {
	return r.order
}

// VisibleCount returns the number of displayed rows.
func (r *Resolver) VisibleCount() int {
	return len(r.order)
}

// PinnedVisible returns how many leading entries of VisibleOrder are pinned.
func (r *Resolver) PinnedVisible() int {
	return r.pinned
}

// Len returns the number of absolute rows tracked.
func (r *Resolver) Len() int {
	return len(r.hidden)
}

// IsHidden reports whether absolute row i is hidden. Out-of-range rows are
// reported hidden.
func (r *Resolver) IsHidden(i int) bool {
	if i < 0 || i >= len(r.hidden) {
		return true
	}
	return r.hidden[i]
}

// VisibleIndex maps an absolute row to its display position.
func (r *Resolver) VisibleIndex(abs int) (int, bool) {
	if abs < 0 || abs >= len(r.absToVis) || r.absToVis[abs] < 0 {
		return 0, false
	}
	return r.absToVis[abs], true
}

// Absolute maps a display position back to the absolute row.
func (r *Resolver) Absolute(vis int) (int, bool) {
	if vis < 0 || vis >= len(r.order) {
		return 0, false
	}
	return r.order[vis], true
}

func resize[T any](s []T, n int) []T {
	if cap(s) < n {
		return make([]T, n)
	}
	return s[:n]
}

// Selection holds the pin and reference roles. They are mutually exclusive:
// a row is never both pinned and the reference.
type Selection struct {
	Reference int
	Pinned    []int
}

// NewSelection returns a selection with no reference and no pins.
func NewSelection() Selection {
	return Selection{Reference: NoReference}
}

// IsPinned reports whether id is pinned.
func (s *Selection) IsPinned(id int) bool {
	return slices.Contains(s.Pinned, id)
}

// Pin appends id to the pin order. It reports false when id is out of
// range, already pinned or the current reference.
func (s *Selection) Pin(id, n int) bool {
	if id < 0 || id >= n || id == s.Reference || s.IsPinned(id) {
		return false
	}
	s.Pinned = append(s.Pinned, id)
	return true
}

// Unpin removes id from the pin order.
func (s *Selection) Unpin(id int) bool {
	i := slices.Index(s.Pinned, id)
	if i < 0 {
		return false
	}
	s.Pinned = slices.Delete(s.Pinned, i, i+1)
	return true
}

// SetReference makes id the reference, unpinning it first.
func (s *Selection) SetReference(id, n int) bool {
	if id < 0 || id >= n {
		return false
	}
	s.Unpin(id)
	s.Reference = id
	return true
}

// ClearReference drops the reference role.
func (s *Selection) ClearReference() bool {
	if s.Reference == NoReference {
		return false
	}
	s.Reference = NoReference
	return true
}

// Reset drops every pin and the reference.
func (s *Selection) Reset() {
	s.Reference = NoReference
	s.Pinned = nil
}
