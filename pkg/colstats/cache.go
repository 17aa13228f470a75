package colstats

import (
	"math"

	"github.com/vanderheijden86/msaview/pkg/viewport"
)

// Default window parameters, in columns.
const (
	DefaultBuffer = 500
	DefaultMargin = 25
)

// pending marks an uncomputed consensus slot.
const pending byte = ' '

// Params tunes when and how far the cache extends.
type Params struct {
	// Buffer is the number of extra columns computed on each side of the view.
	Buffer int
	// Margin is how close the view may get to a cached edge before the
	// window is re-planned.
	Margin int
}

// DefaultParams returns Buffer 500 and Margin 25.
func DefaultParams() Params {
	return Params{Buffer: DefaultBuffer, Margin: DefaultMargin}
}

// Plan is the outcome of a scheduling decision.
type Plan struct {
	Window    viewport.Range
	Positions []int
	Epoch     uint64
}

// Cache stores consensus and conservation by absolute column. It is owned by
// a single goroutine; workers never touch it.
type Cache struct {
	params       Params
	length       int
	consensus    []byte
	conservation []float64
	window       viewport.Range
	hasWindow    bool
	epoch        uint64
}

// NewCache returns an empty cache for alignments of the given length.
func NewCache(params Params, length int) *Cache {
	if params.Buffer < 0 {
		params.Buffer = 0
	}
	if params.Margin < 0 {
		params.Margin = 0
	}
	return &Cache{params: params, length: max(length, 0)}
}

// Params returns the window parameters.
func (c *Cache) Params() Params { return c.params }

// Length returns the alignment length the cache is sized for.
func (c *Cache) Length() int { return c.length }

// Epoch returns the current generation. Every invalidation bumps it.
func (c *Cache) Epoch() uint64 { return c.epoch }

// Window returns the last planned window.
func (c *Cache) Window() (viewport.Range, bool) { return c.window, c.hasWindow }

// Reset invalidates the cache and resizes it for a newly loaded alignment.
func (c *Cache) Reset(length int) {
	c.length = max(length, 0)
	c.Invalidate()
}

// Invalidate drops every cached value and the window.
func (c *Cache) Invalidate() {
	c.consensus = nil
	c.conservation = nil
	c.window = viewport.Range{}
	c.hasWindow = false
	c.epoch++
}

// NeedsRecompute reports whether view has come within Margin of an edge of
// the cached window that is not also an edge of the alignment, or whether no
// window exists.
func (c *Cache) NeedsRecompute(view viewport.Range) bool {
	if c.length == 0 {
		return false
	}
	if !c.hasWindow {
		return true
	}
	start, end := c.window.Start, c.window.End
	if start > 0 && view.Start < start+c.params.Margin {
		return true
	}
	if end < c.length && view.End > max(end-c.params.Margin, 0) {
		return true
	}
	return false
}

// Plan re-plans the window around view when NeedsRecompute holds. It
// records the new window and returns the positions inside it that are still
// uncomputed. ok is false when no job is needed.
func (c *Cache) Plan(view viewport.Range) (p Plan, ok bool) {
	if !c.NeedsRecompute(view) {
		return Plan{}, false
	}
	start := max(view.Start-c.params.Buffer, 0)
	end := min(view.End+c.params.Buffer, c.length)
	if end < start {
		end = start
	}
	c.window = viewport.Range{Start: start, End: end}
	c.hasWindow = true

	p = Plan{Window: c.window, Epoch: c.epoch}
	for pos := start; pos < end; pos++ {
		if c.consensus == nil || c.consensus[pos] == pending {
			p.Positions = append(p.Positions, pos)
		}
	}
	return p, len(p.Positions) > 0
}

// Merge writes a result into the cache by position. Results planned against
// an older epoch are dropped and Merge returns false. Positions outside the
// cache are skipped.
func (c *Cache) Merge(res Result) bool {
	if res.Epoch != c.epoch {
		return false
	}
	if len(res.Stats) == 0 {
		return true
	}
	if c.consensus == nil {
		c.consensus = make([]byte, c.length)
		for i := range c.consensus {
			c.consensus[i] = pending
		}
	}
	if c.conservation == nil {
		c.conservation = make([]float64, c.length)
		for i := range c.conservation {
			c.conservation[i] = math.NaN()
		}
	}
	for _, s := range res.Stats {
		if s.Position < 0 || s.Position >= c.length {
			continue
		}
		c.consensus[s.Position] = s.Consensus
		c.conservation[s.Position] = s.Conservation
	}
	return true
}

// Consensus returns the cached consensus byte at col.
func (c *Cache) Consensus(col int) (byte, bool) {
	if c.consensus == nil || col < 0 || col >= len(c.consensus) || c.consensus[col] == pending {
		return 0, false
	}
	return c.consensus[col], true
}

// Conservation returns the cached conservation score at col.
func (c *Cache) Conservation(col int) (float64, bool) {
	if c.conservation == nil || col < 0 || col >= len(c.conservation) || math.IsNaN(c.conservation[col]) {
		return 0, false
	}
	return c.conservation[col], true
}

// Computed counts the cached columns inside r.
func (c *Cache) Computed(r viewport.Range) int {
	n := 0
	for col := max(r.Start, 0); col < r.End; col++ {
		if _, ok := c.Consensus(col); ok {
			n++
		}
	}
	return n
}

// ConsensusString renders r with '?' standing in for uncomputed columns.
func (c *Cache) ConsensusString(r viewport.Range) string {
	if r.Len() == 0 {
		return ""
	}
	buf := make([]byte, 0, r.Len())
	for col := r.Start; col < r.End; col++ {
		if b, ok := c.Consensus(col); ok {
			buf = append(buf, b)
		} else {
			buf = append(buf, NoConsensus)
		}
	}
	return string(buf)
}
