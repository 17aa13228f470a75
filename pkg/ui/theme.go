package ui

import (
	"os"

	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/msaview/pkg/alignment"
)

// TermProfile holds the detected terminal color profile. Computed once at
// package init so every style helper can branch without re-detecting.
var TermProfile colorprofile.Profile

func init() {
	TermProfile = colorprofile.Detect(os.Stdout, os.Environ())
}

// ThemeBg returns hex on TrueColor terminals and the terminal's own
// background otherwise.
func ThemeBg(hex string) lipgloss.TerminalColor {
	if TermProfile < colorprofile.TrueColor {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(hex)
}

var (
	ColorText      = lipgloss.AdaptiveColor{Light: "#1A1A1A", Dark: "#F8F8F2"}
	ColorMuted     = lipgloss.AdaptiveColor{Light: "#666666", Dark: "#6272A4"}
	ColorPrimary   = lipgloss.AdaptiveColor{Light: "#6B47D9", Dark: "#BD93F9"}
	ColorSecondary = lipgloss.AdaptiveColor{Light: "#555555", Dark: "#6272A4"}
	ColorInfo      = lipgloss.AdaptiveColor{Light: "#006080", Dark: "#8BE9FD"}
	ColorSuccess   = lipgloss.AdaptiveColor{Light: "#007700", Dark: "#50FA7B"}
	ColorWarning   = lipgloss.AdaptiveColor{Light: "#B06800", Dark: "#FFB86C"}
	ColorDanger    = lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#FF5555"}
	ColorPinned    = lipgloss.AdaptiveColor{Light: "#0066CC", Dark: "#6699FF"}
	ColorBorder    = lipgloss.AdaptiveColor{Light: "#AAAAAA", Dark: "#44475A"}
	ColorHighlight = lipgloss.AdaptiveColor{Light: "#E0E0E0", Dark: "#44475A"}

	// Residue groups. Nucleotides use one colour per base; amino acids
	// follow the Clustal physico-chemical grouping.
	colorBaseA        = lipgloss.AdaptiveColor{Light: "#007700", Dark: "#50FA7B"}
	colorBaseC        = lipgloss.AdaptiveColor{Light: "#0066CC", Dark: "#6699FF"}
	colorBaseG        = lipgloss.AdaptiveColor{Light: "#B06800", Dark: "#FFB86C"}
	colorBaseT        = lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#FF5555"}
	colorHydrophobic  = lipgloss.AdaptiveColor{Light: "#0066CC", Dark: "#6699FF"}
	colorPositive     = lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#FF5555"}
	colorNegative     = lipgloss.AdaptiveColor{Light: "#A020A0", Dark: "#FF79C6"}
	colorPolar        = lipgloss.AdaptiveColor{Light: "#007700", Dark: "#50FA7B"}
	colorCysteine     = lipgloss.AdaptiveColor{Light: "#C0507A", Dark: "#F4A6C0"}
	colorGlycine      = lipgloss.AdaptiveColor{Light: "#B06800", Dark: "#FFB86C"}
	colorProline      = lipgloss.AdaptiveColor{Light: "#8A7A00", Dark: "#F1FA8C"}
	colorAromatic     = lipgloss.AdaptiveColor{Light: "#006080", Dark: "#8BE9FD"}
	colorStopCodon    = lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#282A36"}
	colorStopCodonBg  = lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#FF5555"}
	conservationBlock = []rune(" ▁▂▃▄▅▆▇█")
)

// Theme bundles the renderer-bound styles used by every view.
type Theme struct {
	Renderer *lipgloss.Renderer

	Base      lipgloss.Style
	Muted     lipgloss.Style
	Header    lipgloss.Style
	Ruler     lipgloss.Style
	Name      lipgloss.Style
	PinName   lipgloss.Style
	PinMarker lipgloss.Style
	Separator lipgloss.Style
	Label     lipgloss.Style
	Status    lipgloss.Style
	Error     lipgloss.Style
	Info      lipgloss.Style
	Overlay   lipgloss.Style
	Selected  lipgloss.Style

	dna      *[256]lipgloss.Style
	aa       *[256]lipgloss.Style
	dnaGlyph *[256]string
	aaGlyph  *[256]string
}

// DefaultTheme returns the Dracula-inspired adaptive theme.
func DefaultTheme(r *lipgloss.Renderer) Theme {
	t := Theme{Renderer: r}
	t.Base = r.NewStyle().Foreground(ColorText)
	t.Muted = r.NewStyle().Foreground(ColorMuted)
	t.Header = r.NewStyle().
		Background(ColorPrimary).
		Foreground(lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#282A36"}).
		Bold(true)
	t.Ruler = r.NewStyle().Foreground(ColorSecondary)
	t.Name = r.NewStyle().Foreground(ColorInfo)
	t.PinName = r.NewStyle().Foreground(ColorPinned).Bold(true)
	t.PinMarker = r.NewStyle().Foreground(ColorPinned)
	t.Separator = r.NewStyle().Foreground(ColorBorder)
	t.Label = r.NewStyle().Foreground(ColorPrimary).Bold(true)
	t.Status = r.NewStyle().Foreground(ColorSecondary)
	t.Error = r.NewStyle().Foreground(ColorDanger).Bold(true)
	t.Info = r.NewStyle().Foreground(ColorSuccess)
	t.Overlay = r.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorPrimary).
		Padding(0, 1)
	t.Selected = r.NewStyle().
		Background(ThemeBg("#44475A")).
		Foreground(ColorPrimary).
		Bold(true)

	t.dna, t.aa = new([256]lipgloss.Style), new([256]lipgloss.Style)
	plain := r.NewStyle().Foreground(ColorText)
	gap := r.NewStyle().Foreground(ColorMuted)
	for i := range t.dna {
		t.dna[i], t.aa[i] = plain, plain
	}
	for _, b := range []byte("-.~ ") {
		t.dna[b], t.aa[b] = gap, gap
	}

	setBoth := func(table *[256]lipgloss.Style, chars string, c lipgloss.AdaptiveColor) {
		s := r.NewStyle().Foreground(c)
		for i := 0; i < len(chars); i++ {
			table[chars[i]] = s
			table[chars[i]|0x20] = s
		}
	}
	setBoth(t.dna, "A", colorBaseA)
	setBoth(t.dna, "C", colorBaseC)
	setBoth(t.dna, "G", colorBaseG)
	setBoth(t.dna, "TU", colorBaseT)

	setBoth(t.aa, "AILMFVW", colorHydrophobic)
	setBoth(t.aa, "KR", colorPositive)
	setBoth(t.aa, "DE", colorNegative)
	setBoth(t.aa, "NQST", colorPolar)
	setBoth(t.aa, "C", colorCysteine)
	setBoth(t.aa, "G", colorGlycine)
	setBoth(t.aa, "P", colorProline)
	setBoth(t.aa, "HY", colorAromatic)
	t.aa['*'] = r.NewStyle().Foreground(colorStopCodon).Background(colorStopCodonBg).Bold(true)

	// Rendering a style per cell is the hot path of every frame.
	t.dnaGlyph, t.aaGlyph = new([256]string), new([256]string)
	for i := 0; i < 256; i++ {
		ch := "?"
		if i >= 0x20 && i < 0x7f {
			ch = string(rune(i))
		}
		t.dnaGlyph[i] = t.dna[i].Render(ch)
		t.aaGlyph[i] = t.aa[i].Render(ch)
	}
	return t
}

// ResidueStyle returns the colour for b under kind. Unclassified data is
// coloured as nucleotides.
func (t Theme) ResidueStyle(kind alignment.Kind, b byte) lipgloss.Style {
	if kind == alignment.KindAminoAcid {
		return t.aa[b]
	}
	return t.dna[b]
}

// ResidueGlyph returns b pre-rendered in its residue colour.
func (t Theme) ResidueGlyph(kind alignment.Kind, b byte) string {
	if kind == alignment.KindAminoAcid {
		return t.aaGlyph[b]
	}
	return t.dnaGlyph[b]
}

// ConservationGlyph maps a conservation score in [0,1] to a block glyph.
func ConservationGlyph(score float64) rune {
	if score <= 0 {
		return conservationBlock[0]
	}
	if score >= 1 {
		return conservationBlock[len(conservationBlock)-1]
	}
	return conservationBlock[1+int(score*float64(len(conservationBlock)-2))]
}

// TestTheme returns a theme bound to a stdout renderer for tests.
func TestTheme() Theme {
	return DefaultTheme(lipgloss.NewRenderer(os.Stdout))
}
