package export

import (
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"

	"git.sr.ht/~sbinet/gg"
	svg "github.com/ajstarks/svgo"
	"golang.org/x/image/font/basicfont"
)

var (
	colorBackdrop = color.RGBA{R: 0xf7, G: 0xf8, B: 0xfb, A: 0xff}
	colorHeaderBG = color.RGBA{R: 0xe7, G: 0xeb, B: 0xf3, A: 0xff}
	colorAxis     = color.RGBA{R: 0x9a, G: 0xa3, B: 0xb5, A: 0xff}
	colorText     = color.RGBA{R: 0x1f, G: 0x29, B: 0x37, A: 0xff}
	colorSubtle   = color.RGBA{R: 0x4b, G: 0x55, B: 0x63, A: 0xff}
	colorLow      = color.RGBA{R: 0xf2, G: 0xb8, B: 0x70, A: 0xff}
	colorMid      = color.RGBA{R: 0x7c, G: 0xb3, B: 0xe6, A: 0xff}
	colorHigh     = color.RGBA{R: 0x2f, G: 0x6f, B: 0xd0, A: 0xff}
)

const (
	profileMargin   = 40
	profileHeader   = 72
	profilePlotH    = 180
	profileFooter   = 48
	profileMaxPlotW = 2400
	profileMaxBarW  = 12
	// letterMinBarW is the narrowest bar that still gets a consensus letter.
	letterMinBarW = 8
)

// profileLayout is the geometry shared by the PNG and SVG renderers.
type profileLayout struct {
	Width, Height int
	BarW          int
	PlotX, PlotY  int
	PlotH         int
	Title         string
	Subtitle      string
	Columns       []Column
	Letters       bool
}

func layoutProfile(r Report) profileLayout {
	n := len(r.Columns)
	// One pixel per column is the floor, so very wide ranges exceed the
	// nominal plot width.
	barW := min(max(profileMaxPlotW/max(n, 1), 1), profileMaxBarW)
	title := filepath.Base(r.Source)
	if title == "" || title == "." {
		title = "alignment"
	}
	return profileLayout{
		Width:    profileMargin*2 + max(n*barW, 320),
		Height:   profileHeader + profilePlotH + profileFooter,
		BarW:     barW,
		PlotX:    profileMargin,
		PlotY:    profileHeader,
		PlotH:    profilePlotH,
		Title:    title,
		Subtitle: fmt.Sprintf("%d of %d sequences · columns %d-%d of %d · %s · %s", r.Visible, r.Sequences, r.Start, r.End, r.Length, r.Kind, r.Method),
		Columns:  r.Columns,
		Letters:  barW >= letterMinBarW,
	}
}

// barHeight is the bar height in pixels for a conservation score.
func (l profileLayout) barHeight(score float64) int {
	score = min(max(score, 0), 1)
	return int(score * float64(l.PlotH))
}

func barColor(score float64) color.RGBA {
	switch {
	case score >= 0.8:
		return colorHigh
	case score >= 0.4:
		return colorMid
	default:
		return colorLow
	}
}

// SaveProfile renders the conservation profile of r as SVG or PNG,
// depending on the extension of path.
func SaveProfile(path string, r Report) error {
	if len(r.Columns) == 0 {
		return fmt.Errorf("no columns to export")
	}
	l := layoutProfile(r)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return renderProfilePNG(path, l)
	case ".svg":
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		if err := renderProfileSVG(f, l); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	default:
		return fmt.Errorf("unsupported profile format %q (want svg or png)", filepath.Ext(path))
	}
}

func renderProfilePNG(path string, l profileLayout) error {
	dc := gg.NewContext(l.Width, l.Height)
	dc.SetColor(colorBackdrop)
	dc.Clear()

	dc.SetColor(colorHeaderBG)
	dc.DrawRoundedRectangle(16, 12, float64(l.Width)-32, float64(l.PlotY)-24, 8)
	dc.Fill()

	dc.SetFontFace(basicfont.Face7x13)
	dc.SetColor(colorText)
	dc.DrawStringAnchored(l.Title, 28, 30, 0, 0.5)
	dc.SetColor(colorSubtle)
	dc.DrawStringAnchored(l.Subtitle, 28, 48, 0, 0.5)

	base := float64(l.PlotY + l.PlotH)
	for i, c := range l.Columns {
		h := l.barHeight(c.Conservation)
		x := float64(l.PlotX + i*l.BarW)
		if h > 0 {
			dc.SetColor(barColor(c.Conservation))
			dc.DrawRectangle(x, base-float64(h), float64(l.BarW), float64(h))
			dc.Fill()
		}
		if l.Letters {
			dc.SetColor(colorText)
			dc.DrawStringAnchored(c.Consensus, x+float64(l.BarW)/2, base+12, 0.5, 0.5)
		}
	}

	dc.SetColor(colorAxis)
	dc.SetLineWidth(1)
	dc.DrawLine(float64(l.PlotX), base, float64(l.PlotX+len(l.Columns)*l.BarW), base)
	dc.Stroke()
	dc.DrawLine(float64(l.PlotX), float64(l.PlotY), float64(l.PlotX), base)
	dc.Stroke()

	dc.SetColor(colorSubtle)
	for _, t := range axisTicks(l) {
		dc.DrawStringAnchored(t.label, float64(t.x), base+30, 0.5, 0.5)
	}
	return dc.SavePNG(path)
}

func renderProfileSVG(w io.Writer, l profileLayout) error {
	canvas := svg.New(w)
	canvas.Start(l.Width, l.Height)
	canvas.Rect(0, 0, l.Width, l.Height, fmt.Sprintf("fill:%s", css(colorBackdrop)))
	canvas.Roundrect(16, 12, l.Width-32, l.PlotY-24, 8, 8, fmt.Sprintf("fill:%s", css(colorHeaderBG)))
	canvas.Text(28, 34, l.Title, fmt.Sprintf("fill:%s;font-size:15px;font-family:monospace;font-weight:bold", css(colorText)))
	canvas.Text(28, 52, l.Subtitle, fmt.Sprintf("fill:%s;font-size:12px;font-family:monospace", css(colorSubtle)))

	base := l.PlotY + l.PlotH
	for i, c := range l.Columns {
		h := l.barHeight(c.Conservation)
		x := l.PlotX + i*l.BarW
		if h > 0 {
			canvas.Rect(x, base-h, l.BarW, h, fmt.Sprintf("fill:%s", css(barColor(c.Conservation))))
		}
		if l.Letters {
			canvas.Text(x+l.BarW/2, base+14, c.Consensus,
				fmt.Sprintf("fill:%s;font-size:10px;font-family:monospace;text-anchor:middle", css(colorText)))
		}
	}

	axis := fmt.Sprintf("stroke:%s;stroke-width:1", css(colorAxis))
	canvas.Line(l.PlotX, base, l.PlotX+len(l.Columns)*l.BarW, base, axis)
	canvas.Line(l.PlotX, l.PlotY, l.PlotX, base, axis)
	for _, t := range axisTicks(l) {
		canvas.Text(t.x, base+32, t.label,
			fmt.Sprintf("fill:%s;font-size:11px;font-family:monospace;text-anchor:middle", css(colorSubtle)))
	}

	canvas.End()
	return nil
}

type tick struct {
	x     int
	label string
}

// axisTicks labels the first and last column plus roughly every 80 pixels.
func axisTicks(l profileLayout) []tick {
	n := len(l.Columns)
	if n == 0 {
		return nil
	}
	step := max(80/l.BarW, 1)
	var ticks []tick
	for i := 0; i < n; i += step {
		ticks = append(ticks, tick{x: l.PlotX + i*l.BarW + l.BarW/2, label: fmt.Sprint(l.Columns[i].Position)})
	}
	if last := n - 1; last%step != 0 && n > 1 {
		ticks = append(ticks, tick{x: l.PlotX + last*l.BarW + l.BarW/2, label: fmt.Sprint(l.Columns[last].Position)})
	}
	return ticks
}

func css(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
