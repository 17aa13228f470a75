package testutil

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/vanderheijden86/msaview/internal/fasta"
	"github.com/vanderheijden86/msaview/pkg/alignment"
)

func TestRecords_Shape(t *testing.T) {
	recs := NewDefault().Records(25, 130)
	if len(recs) != 25 {
		t.Fatalf("records = %d, want 25", len(recs))
	}
	for i, r := range recs {
		if len(r.Residues) != 130 {
			t.Errorf("record %d has %d residues", i, len(r.Residues))
		}
		for _, b := range r.Residues {
			if b != '-' && !strings.ContainsRune(DNAAlphabet, rune(b)) {
				t.Fatalf("record %d has residue %q outside the alphabet", i, b)
			}
		}
	}
	if recs[0].ID != "seq1" || recs[24].ID != "seq25" {
		t.Errorf("ids = %s..%s", recs[0].ID, recs[24].ID)
	}
}

func TestDeterminism(t *testing.T) {
	a := New(GeneratorConfig{Seed: 7}).Records(5, 40)
	b := New(GeneratorConfig{Seed: 7}).Records(5, 40)
	c := New(GeneratorConfig{Seed: 8}).Records(5, 40)
	same := true
	for i := range a {
		if !bytes.Equal(a[i].Residues, b[i].Residues) {
			t.Fatalf("same seed produced different record %d", i)
		}
		if !bytes.Equal(a[i].Residues, c[i].Residues) {
			same = false
		}
	}
	if same {
		t.Error("different seeds produced identical alignments")
	}
}

func TestConservedWithoutMutation(t *testing.T) {
	recs := New(GeneratorConfig{Seed: 3, Mutation: 0, GapRate: 0}).Records(10, 50)
	for i := 1; i < len(recs); i++ {
		if !bytes.Equal(recs[i].Residues, recs[0].Residues) {
			t.Fatalf("record %d differs from the ancestor", i)
		}
	}
}

func TestAlignment_Kind(t *testing.T) {
	d := New(GeneratorConfig{Alphabet: AminoAcidAlphabet}).Alignment("mem.fa", 4, 12)
	if d.Kind != alignment.KindAminoAcid || d.Len() != 4 || d.Length != 12 {
		t.Errorf("alignment = kind %v, %d x %d", d.Kind, d.Len(), d.Length)
	}
	if NewDefault().Alignment("mem.fa", 1, 1).Kind != alignment.KindDNA {
		t.Error("default alignment is not DNA")
	}
}

func TestToFASTA_RoundTrip(t *testing.T) {
	recs := Quick(6, 145)
	for _, width := range []int{0, 60, 145} {
		parsed, err := fasta.Parse(context.Background(), strings.NewReader(ToFASTA(recs, width)))
		if err != nil {
			t.Fatalf("width %d: parse: %v", width, err)
		}
		if len(parsed) != len(recs) {
			t.Fatalf("width %d: %d records, want %d", width, len(parsed), len(recs))
		}
		for i := range recs {
			if parsed[i].ID != recs[i].ID || !bytes.Equal(parsed[i].Residues, recs[i].Residues) {
				t.Errorf("width %d: record %d changed", width, i)
			}
		}
	}
}

func TestWriteFASTA(t *testing.T) {
	path := WriteFASTA(t, t.TempDir(), "nested/demo.fa", Quick(3, 20))
	recs, err := fasta.ParseFile(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 3 {
		t.Errorf("records = %d, want 3", len(recs))
	}
}

func BenchmarkRecords1000x1000(b *testing.B) {
	for i := 0; i < b.N; i++ {
		NewDefault().Records(1000, 1000)
	}
}
