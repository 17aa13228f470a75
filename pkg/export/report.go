// Package export writes headless summaries of an alignment: JSON column
// statistics, a SQLite database and a conservation profile image.
package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"

	"github.com/vanderheijden86/msaview/pkg/alignment"
	"github.com/vanderheijden86/msaview/pkg/colstats"
	"github.com/vanderheijden86/msaview/pkg/core"
	"github.com/vanderheijden86/msaview/pkg/metrics"
)

// Column is the statistics for one alignment column. Position is 1-based.
type Column struct {
	Position     int     `json:"position"`
	Consensus    string  `json:"consensus"`
	Conservation float64 `json:"conservation"`
}

// Metrics is the in-process timing snapshot attached to a report.
type Metrics struct {
	Timings  []metrics.TimingStats `json:"timings"`
	Counters map[string]int64      `json:"counters"`
}

// Report summarises a column range of the current alignment.
type Report struct {
	Source    string   `json:"source"`
	Kind      string   `json:"kind"`
	Method    string   `json:"method"`
	Filter    string   `json:"filter,omitempty"`
	Sequences int      `json:"sequences"`
	Visible   int      `json:"visible"`
	Length    int      `json:"length"`
	Start     int      `json:"start"`
	End       int      `json:"end"`
	Columns   []Column `json:"columns"`
	Metrics   *Metrics `json:"metrics,omitempty"`

	// Records are the visible rows the statistics were computed over.
	Records []*alignment.Record `json:"-"`
}

// NewReport builds a report from the session state and a finished
// statistics result.
func NewReport(st *core.State, res colstats.Result) Report {
	r := Report{
		Source:  st.Source,
		Method:  st.Method.String(),
		Columns: make([]Column, 0, len(res.Stats)),
	}
	if st.Data != nil {
		r.Kind = st.Data.Kind.String()
		r.Sequences = st.Data.Len()
		r.Length = st.Data.Length
		r.Records = st.VisibleRecords()
		r.Visible = len(r.Records)
	}
	if st.Filter.Active() {
		r.Filter = st.Filter.Pattern
	}
	for _, s := range res.Stats {
		r.Columns = append(r.Columns, Column{
			Position:     s.Position + 1,
			Consensus:    string([]byte{s.Consensus}),
			Conservation: s.Conservation,
		})
	}
	if n := len(r.Columns); n > 0 {
		r.Start = r.Columns[0].Position
		r.End = r.Columns[n-1].Position
	}
	return r
}

// WithMetrics attaches the current metrics snapshot.
func (r Report) WithMetrics() Report {
	r.Metrics = &Metrics{
		Timings:  metrics.AllTimingStats(),
		Counters: metrics.CounterValues(),
	}
	return r
}

// ConsensusString joins the consensus of every column in the report.
func (r Report) ConsensusString() string {
	var b strings.Builder
	b.Grow(len(r.Columns))
	for _, c := range r.Columns {
		b.WriteString(c.Consensus)
	}
	return b.String()
}

// WriteJSON encodes r as indented JSON.
func WriteJSON(w io.Writer, r Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// Format is an export target.
type Format string

const (
	FormatJSON   Format = "json"
	FormatSQLite Format = "sqlite"
	FormatSVG    Format = "svg"
	FormatPNG    Format = "png"
)

// FormatFor infers the export format from a file extension.
func FormatFor(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		return FormatJSON, nil
	case ".sqlite", ".sqlite3", ".db":
		return FormatSQLite, nil
	case ".svg":
		return FormatSVG, nil
	case ".png":
		return FormatPNG, nil
	case "":
		return "", fmt.Errorf("export path %q has no extension (want .json, .sqlite, .svg or .png)", path)
	default:
		return "", fmt.Errorf("unsupported export format %q (want .json, .sqlite, .svg or .png)", ext)
	}
}

// Save writes r to path in the format implied by its extension, creating
// parent directories as needed.
func Save(path string, r Report) error {
	format, err := FormatFor(path)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create export dir: %w", err)
		}
	}
	switch format {
	case FormatJSON:
		return writeJSONFile(path, r)
	case FormatSQLite:
		return SaveSQLite(path, r)
	default:
		return SaveProfile(path, r)
	}
}

func writeJSONFile(path string, r Report) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteJSON(f, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
