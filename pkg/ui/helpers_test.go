package ui

import (
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		width int
		want  string
	}{
		{"zero width", "hello", 0, ""},
		{"fits", "hello", 10, "hello"},
		{"exact", "hello", 5, "hello"},
		{"ellipsis", "sequence-name", 6, "seque…"},
		{"wide runes", "日本語タイトル", 5, "日本…"},
		{"suffix only", "hello", 1, "…"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncate(tt.in, tt.width)
			if got != tt.want {
				t.Fatalf("truncate(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
			}
			if w := runewidth.StringWidth(got); w > tt.width {
				t.Fatalf("truncate output is %d cells wide, max %d", w, tt.width)
			}
		})
	}
}

func TestSliceCells(t *testing.T) {
	tests := []struct {
		in           string
		start, width int
		want         string
	}{
		{"sp|P12345|KINASE", 0, 5, "sp|P1"},
		{"sp|P12345|KINASE", 3, 6, "P12345"},
		{"sp|P12345|KINASE", 14, 5, "SE   "},
		{"short", 10, 4, "    "},
		{"short", 0, 8, "short   "},
		{"anything", 0, 0, ""},
	}
	for _, tt := range tests {
		if got := sliceCells(tt.in, tt.start, tt.width); got != tt.want {
			t.Errorf("sliceCells(%q, %d, %d) = %q, want %q", tt.in, tt.start, tt.width, got, tt.want)
		}
	}
}

func TestPadRightAndFitLine(t *testing.T) {
	if got := padRight("ab", 4); got != "ab  " {
		t.Errorf("padRight = %q", got)
	}
	if got := padRight("abcdef", 4); got != "abcdef" {
		t.Errorf("padRight must not cut: %q", got)
	}
	styled := "\x1b[31mred text\x1b[0m"
	if got := fitLine(styled, 3); runewidth.StringWidth(ansi.Strip(got)) != 3 {
		t.Errorf("fitLine = %q", got)
	}
	if got := fitLine("abc", 0); got != "" {
		t.Errorf("fitLine(0) = %q", got)
	}
}

func TestFormatCount(t *testing.T) {
	tests := map[int]string{0: "0", 999: "999", 1000: "1,000", 1234567: "1,234,567"}
	for n, want := range tests {
		if got := formatCount(n); got != want {
			t.Errorf("formatCount(%d) = %q, want %q", n, got, want)
		}
	}
}
