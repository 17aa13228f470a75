package viewport

import (
	"testing"

	"pgregory.net/rapid"
)

func newViewport(maxRows, maxCols, maxNames, rows, cols, names int) Viewport {
	var v Viewport
	v.SetBounds(maxRows, maxCols, maxNames)
	v.SetDimensions(cols, rows, names)
	return v
}

func TestScroll(t *testing.T) {
	tests := []struct {
		name   string
		axis   Axis
		amount int
		dir    Direction
		start  int
		want   int
	}{
		{"rows down", AxisRows, 5, Forward, 0, 5},
		{"rows down saturates", AxisRows, 500, Forward, 0, 90},
		{"rows up saturates at zero", AxisRows, 5, Backward, 3, 0},
		{"cols right", AxisCols, 10, Forward, 0, 10},
		{"cols right saturates", AxisCols, 5000, Forward, 0, 980},
		{"cols left", AxisCols, 10, Backward, 15, 5},
		{"names right saturates", AxisNames, 100, Forward, 0, 20},
		{"negative amount ignored", AxisCols, -10, Forward, 7, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newViewport(100, 1000, 30, 10, 20, 10)
			*v.offset(tt.axis) = tt.start
			v.Scroll(tt.axis, tt.amount, tt.dir)
			if got := *v.offset(tt.axis); got != tt.want {
				t.Errorf("offset = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestJump(t *testing.T) {
	v := newViewport(100, 1000, 30, 10, 20, 10)
	v.JumpToPosition(500)
	if v.Offsets.Cols != 500 {
		t.Errorf("expected col offset 500, got %d", v.Offsets.Cols)
	}
	v.JumpToPosition(5000)
	if v.Offsets.Cols != 980 {
		t.Errorf("expected col offset clamped to 980, got %d", v.Offsets.Cols)
	}
	v.JumpToRow(-4)
	if v.Offsets.Rows != 0 {
		t.Errorf("expected row offset 0, got %d", v.Offsets.Rows)
	}
	v.JumpToRow(42)
	if v.Offsets.Rows != 42 {
		t.Errorf("expected row offset 42, got %d", v.Offsets.Rows)
	}
}

func TestSetDimensions_KeepsOffset(t *testing.T) {
	v := newViewport(100, 1000, 30, 10, 20, 10)
	v.JumpToPosition(300)
	v.SetDimensions(40, 20, 10)
	if v.Offsets.Cols != 300 {
		t.Errorf("resize should keep offset, got %d", v.Offsets.Cols)
	}
	v.SetDimensions(900, 20, 10)
	if v.Offsets.Cols != 100 {
		t.Errorf("resize should clamp offset to 100, got %d", v.Offsets.Cols)
	}
}

func TestSetBounds_Shrink(t *testing.T) {
	v := newViewport(100, 1000, 30, 10, 20, 10)
	v.JumpToRow(80)
	v.SetBounds(12, 1000, 30)
	if v.Offsets.Rows != 2 {
		t.Errorf("expected row offset 2, got %d", v.Offsets.Rows)
	}
	v.SetBounds(3, 1000, 30)
	if v.Offsets.Rows != 0 {
		t.Errorf("expected row offset 0, got %d", v.Offsets.Rows)
	}
}

func TestWindow(t *testing.T) {
	v := newViewport(100, 1000, 30, 10, 20, 10)
	v.JumpToPosition(50)
	w := v.Window()
	if w.Cols != (Range{Start: 50, End: 70}) {
		t.Errorf("cols = %+v", w.Cols)
	}
	if w.Rows != (Range{Start: 0, End: 10}) {
		t.Errorf("rows = %+v", w.Rows)
	}

	small := newViewport(3, 5, 4, 10, 20, 10)
	w = small.Window()
	if w.Rows.Len() != 3 || w.Cols.Len() != 5 || w.Names.Len() != 4 {
		t.Errorf("window larger than data: %+v", w)
	}
}

func TestWindow_Empty(t *testing.T) {
	var v Viewport
	v.SetDimensions(80, 24, 10)
	v.Scroll(AxisRows, 10, Forward)
	v.Scroll(AxisCols, 10, Backward)
	w := v.Window()
	if w.Rows.Len() != 0 || w.Cols.Len() != 0 || w.Names.Len() != 0 {
		t.Errorf("expected empty window, got %+v", w)
	}
	if w.Cols.Contains(0) {
		t.Error("empty range should contain nothing")
	}
}

func TestClampingProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var v Viewport
		v.SetBounds(
			rapid.IntRange(0, 500).Draw(t, "maxRows"),
			rapid.IntRange(0, 5000).Draw(t, "maxCols"),
			rapid.IntRange(0, 60).Draw(t, "maxNames"),
		)
		v.SetDimensions(
			rapid.IntRange(0, 300).Draw(t, "cols"),
			rapid.IntRange(0, 100).Draw(t, "rows"),
			rapid.IntRange(0, 40).Draw(t, "names"),
		)

		steps := rapid.IntRange(1, 30).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			switch rapid.IntRange(0, 4).Draw(t, "op") {
			case 0:
				v.Scroll(Axis(rapid.IntRange(0, 2).Draw(t, "axis")),
					rapid.IntRange(-10, 10000).Draw(t, "amount"),
					Direction(rapid.IntRange(0, 1).Draw(t, "dir")))
			case 1:
				v.JumpToPosition(rapid.IntRange(-100, 10000).Draw(t, "col"))
			case 2:
				v.JumpToRow(rapid.IntRange(-100, 1000).Draw(t, "row"))
			case 3:
				v.SetDimensions(rapid.IntRange(0, 300).Draw(t, "cols"),
					rapid.IntRange(0, 100).Draw(t, "rows"),
					rapid.IntRange(0, 40).Draw(t, "names"))
			case 4:
				v.SetBounds(rapid.IntRange(0, 500).Draw(t, "maxRows"),
					rapid.IntRange(0, 5000).Draw(t, "maxCols"),
					rapid.IntRange(0, 60).Draw(t, "maxNames"))
			}

			check := func(name string, off, vis, bound int) {
				if off < 0 {
					t.Fatalf("%s offset negative: %d", name, off)
				}
				if bound <= vis {
					if off != 0 {
						t.Fatalf("%s offset %d should be 0 when bound %d <= visible %d", name, off, bound, vis)
					}
				} else if off+vis > bound {
					t.Fatalf("%s offset %d + visible %d exceeds bound %d", name, off, vis, bound)
				}
			}
			check("rows", v.Offsets.Rows, v.Visible.Rows, v.Max.Rows)
			check("cols", v.Offsets.Cols, v.Visible.Cols, v.Max.Cols)
			check("names", v.Offsets.Names, v.Visible.NameWidth, v.Max.NameWidth)

			w := v.Window()
			if w.Cols.End > v.Max.Cols || w.Cols.Start > w.Cols.End {
				t.Fatalf("bad col window %+v for max %d", w.Cols, v.Max.Cols)
			}
		}
	})
}
