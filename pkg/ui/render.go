package ui

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/msaview/pkg/alignment"
	"github.com/vanderheijden86/msaview/pkg/colstats"
	"github.com/vanderheijden86/msaview/pkg/core"
	"github.com/vanderheijden86/msaview/pkg/viewport"
)

// chromeLines is everything that is not an alignment row: header, ruler,
// consensus, conservation, status and the help or prompt line.
const chromeLines = 6

// gutterWidth is the pin marker plus the pane separator.
const gutterWidth = 2

const pendingGlyph = "·"

type layout struct {
	nameWidth int
	cols      int
	bodyRows  int
}

func computeLayout(width, height, maxIDWidth, nameLimit int) layout {
	nameWidth := min(maxIDWidth, nameLimit)
	if maxIDWidth > 0 {
		nameWidth = max(nameWidth, min(maxIDWidth, 4))
	}
	nameWidth = min(nameWidth, max(width/3, 0))
	return layout{
		nameWidth: nameWidth,
		cols:      max(width-nameWidth-gutterWidth, 0),
		bodyRows:  max(height-chromeLines, 0),
	}
}

// displayByte is what gets drawn for rec at col after translation and diff.
func displayByte(st *core.State, cache *colstats.Cache, rec *alignment.Record, ref *alignment.Record, col int) byte {
	b := rec.Residues[col]
	if st.Translate {
		b = alignment.TranslatedAt(rec.Residues, col, st.Frame)
	}
	switch st.Diff {
	case core.DiffReference:
		if ref == nil {
			return b
		}
		rb := ref.Residues[col]
		if st.Translate {
			rb = alignment.TranslatedAt(ref.Residues, col, st.Frame)
		}
		if b == rb && b != ' ' {
			return '.'
		}
	case core.DiffConsensus:
		if st.Translate {
			return b
		}
		if c, ok := cache.Consensus(col); ok && c == b {
			return '.'
		}
	}
	return b
}

func (m Model) displayKind() alignment.Kind {
	st := m.session.State()
	if st.Translate {
		return alignment.KindAminoAcid
	}
	if st.Data == nil {
		return alignment.KindUnknown
	}
	return st.Data.Kind
}

func (m Model) renderRow(rec, ref *alignment.Record, pinned bool, w viewport.Window, l layout) string {
	st := m.session.State()
	t := m.theme

	var b strings.Builder
	if pinned {
		b.WriteString(t.PinMarker.Render("▌"))
	} else {
		b.WriteString(" ")
	}
	name := sliceCells(rec.ID, w.Names.Start, l.nameWidth)
	if pinned {
		b.WriteString(t.PinName.Render(name))
	} else {
		b.WriteString(t.Name.Render(name))
	}
	b.WriteString(t.Separator.Render("│"))

	kind := m.displayKind()
	cache := m.session.Stats()
	for col := w.Cols.Start; col < w.Cols.End; col++ {
		b.WriteString(t.ResidueGlyph(kind, displayByte(st, cache, rec, ref, col)))
	}
	return b.String()
}

func (m Model) renderLabelRow(label string, l layout, cells func(col int) string, w viewport.Window) string {
	t := m.theme
	var b strings.Builder
	b.WriteString(" ")
	b.WriteString(t.Label.Render(padRight(truncate(label, l.nameWidth), l.nameWidth)))
	b.WriteString(t.Separator.Render("│"))
	for col := w.Cols.Start; col < w.Cols.End; col++ {
		b.WriteString(cells(col))
	}
	return b.String()
}

func (m Model) renderConsensus(l layout, w viewport.Window) string {
	cache := m.session.Stats()
	kind := m.session.State().StatsKind()
	return m.renderLabelRow("consensus", l, func(col int) string {
		c, ok := cache.Consensus(col)
		if !ok {
			return m.theme.Muted.Render(pendingGlyph)
		}
		return m.theme.ResidueGlyph(kind, c)
	}, w)
}

func (m Model) renderConservation(l layout, w viewport.Window) string {
	cache := m.session.Stats()
	return m.renderLabelRow("conservation", l, func(col int) string {
		c, ok := cache.Conservation(col)
		if !ok {
			return m.theme.Muted.Render(pendingGlyph)
		}
		return m.theme.Info.Render(string(ConservationGlyph(c)))
	}, w)
}

// ruler labels every tenth column (1-based) and marks every fifth.
func ruler(cols viewport.Range) string {
	n := cols.Len()
	buf := []byte(strings.Repeat(" ", n))
	for i := 0; i < n; i++ {
		pos := cols.Start + i + 1
		if pos%5 == 0 {
			buf[i] = '\''
		}
	}
	next := 0
	for i := 0; i < n; i++ {
		pos := cols.Start + i + 1
		if pos%10 != 0 {
			continue
		}
		label := strconv.Itoa(pos)
		start := i - len(label) + 1
		if start < next {
			continue
		}
		copy(buf[start:], label)
		next = i + 2
	}
	return string(buf)
}

func (m Model) renderRuler(l layout, w viewport.Window) string {
	return m.theme.Ruler.Render(strings.Repeat(" ", l.nameWidth+gutterWidth) + ruler(w.Cols))
}

func (m Model) renderHeader() string {
	st := m.session.State()
	parts := []string{"msv"}
	if st.Source != "" {
		parts = append(parts, filepath.Base(st.Source))
	}
	if st.Data != nil {
		shown := st.Rows.VisibleCount()
		seqs := formatCount(st.Data.Len()) + " seqs"
		if shown != st.Data.Len() {
			seqs += fmt.Sprintf(" (%s shown)", formatCount(shown))
		}
		parts = append(parts, seqs, formatCount(st.Data.Length)+" cols", st.Data.Kind.String())
		parts = append(parts, st.Method.String())
		if ref, ok := st.Reference(); ok {
			parts = append(parts, "ref "+ref.ID)
		}
		if st.Diff != core.DiffOff {
			parts = append(parts, "diff "+st.Diff.String())
		}
		if st.Translate {
			parts = append(parts, fmt.Sprintf("frame %d", st.Frame+1))
		}
		if st.Filter.Active() {
			parts = append(parts, "/"+st.Filter.Pattern)
		}
	}
	return m.theme.Header.Render(padRight(" "+strings.Join(parts, " │ "), m.width))
}

func (m Model) renderStatus(w viewport.Window) string {
	st := m.session.State()
	t := m.theme

	var left string
	switch {
	case st.Load == core.LoadLoading:
		left = m.spinner.View() + " loading " + st.Source
	case m.status != "" && m.statusErr:
		left = t.Error.Render(m.status)
	case m.status != "":
		left = t.Info.Render(m.status)
	case st.Load == core.LoadFailed:
		left = t.Error.Render(st.LoadError)
	}

	var right []string
	if st.Data != nil && st.Data.Length > 0 {
		right = append(right, fmt.Sprintf("col %d-%d/%d", w.Cols.Start+1, w.Cols.End, st.Data.Length))
		if n := st.Rows.VisibleCount(); n > 0 {
			right = append(right, fmt.Sprintf("row %d/%d", min(w.Rows.Start+1, n), n))
		}
		cache := m.session.Stats()
		if done := cache.Computed(w.Cols); done < w.Cols.Len() {
			pct := 100 * done / max(w.Cols.Len(), 1)
			right = append(right, fmt.Sprintf("%s calculating %d%%", m.spinner.View(), pct))
		}
	}
	rightText := t.Status.Render(strings.Join(right, "  "))

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(rightText)
	if gap < 1 {
		return fitLine(left+" "+rightText, m.width)
	}
	return left + strings.Repeat(" ", gap) + rightText
}

func (m Model) renderEmpty(rows int) []string {
	st := m.session.State()
	msg := "no alignment loaded. press o to open a file"
	switch st.Load {
	case core.LoadLoading:
		msg = "loading " + st.Source
	case core.LoadFailed:
		msg = st.LoadError
	}
	lines := make([]string, rows)
	if rows > 0 {
		lines[rows/2] = m.theme.Muted.Render(padRight("", max((m.width-len(msg))/2, 0)) + msg)
	}
	return lines
}

// renderBody draws the pinned rows followed by the scrolled region.
func (m Model) renderBody(l layout, w viewport.Window) []string {
	st := m.session.State()
	if st.Data == nil || st.Data.Len() == 0 {
		return m.renderEmpty(l.bodyRows)
	}
	ref, _ := st.Reference()
	lines := make([]string, 0, l.bodyRows)
	for _, rec := range st.PinnedRecords() {
		if len(lines) == l.bodyRows {
			break
		}
		lines = append(lines, m.renderRow(rec, ref, true, w, l))
	}
	for _, rec := range st.ScrolledRecords() {
		if len(lines) == l.bodyRows {
			break
		}
		lines = append(lines, m.renderRow(rec, ref, false, w, l))
	}
	for len(lines) < l.bodyRows {
		lines = append(lines, "")
	}
	return lines
}

func (m Model) renderMain() string {
	st := m.session.State()
	l := m.layout()
	w := st.Viewport.Window()

	lines := make([]string, 0, m.height)
	lines = append(lines, m.renderHeader(), m.renderRuler(l, w))
	lines = append(lines, m.renderBody(l, w)...)
	lines = append(lines, m.renderConsensus(l, w), m.renderConservation(l, w))
	lines = append(lines, m.renderStatus(w))
	if m.mode == modePrompt {
		lines = append(lines, m.prompt.View(m.theme))
	} else {
		lines = append(lines, m.help.View(m.keys))
	}
	for i, line := range lines {
		lines[i] = fitLine(line, m.width)
	}
	if len(lines) > m.height {
		lines = lines[len(lines)-m.height:]
	}
	return strings.Join(lines, "\n")
}
