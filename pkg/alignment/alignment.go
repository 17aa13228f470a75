// Package alignment holds the loaded multiple-sequence alignment.
//
// A Data value is built once per successful load and never mutated in place,
// except for Kind which the user may override after detection.
package alignment

import (
	"errors"
	"fmt"

	"github.com/mattn/go-runewidth"

	"github.com/vanderheijden86/msaview/internal/fasta"
)

// ErrRagged is returned when sequences do not share one length.
var ErrRagged = errors.New("alignment sequences differ in length")

// Record is one alignment row. Index is its position in load order.
type Record struct {
	Index    int
	ID       string
	Residues []byte
}

// Data is an immutable snapshot of a parsed alignment.
type Data struct {
	Source     string
	Sequences  []Record
	Length     int
	MaxIDWidth int
	Kind       Kind
}

// New builds Data from parsed records. Length is taken from the first record
// and every other record must match it.
func New(source string, records []fasta.Record) (*Data, error) {
	d := &Data{
		Source:    source,
		Sequences: make([]Record, len(records)),
	}
	if len(records) > 0 {
		d.Length = len(records[0].Residues)
	}
	for i, r := range records {
		if len(r.Residues) != d.Length {
			return nil, fmt.Errorf("%w: %s has %d residues, expected %d", ErrRagged, r.ID, len(r.Residues), d.Length)
		}
		d.Sequences[i] = Record{Index: i, ID: r.ID, Residues: r.Residues}
		if w := runewidth.StringWidth(r.ID); w > d.MaxIDWidth {
			d.MaxIDWidth = w
		}
	}
	return d, nil
}

// Len returns the number of sequences. A nil Data has none.
func (d *Data) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Sequences)
}

// Record returns the sequence at absolute index i.
func (d *Data) Record(i int) (*Record, bool) {
	if d == nil || i < 0 || i >= len(d.Sequences) {
		return nil, false
	}
	return &d.Sequences[i], true
}

// IDs returns every identifier in load order.
func (d *Data) IDs() []string {
	if d == nil {
		return nil
	}
	ids := make([]string, len(d.Sequences))
	for i := range d.Sequences {
		ids[i] = d.Sequences[i].ID
	}
	return ids
}

// IndexOf returns the absolute index of the first sequence named id.
func (d *Data) IndexOf(id string) (int, bool) {
	if d == nil {
		return 0, false
	}
	for i := range d.Sequences {
		if d.Sequences[i].ID == id {
			return i, true
		}
	}
	return 0, false
}
