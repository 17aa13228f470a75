package colstats

import (
	"context"
	"math"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/vanderheijden86/msaview/pkg/alignment"
)

func countsFor(symbols string) *[256]uint32 {
	var counts [256]uint32
	for i := 0; i < len(symbols); i++ {
		counts[symbols[i]]++
	}
	return &counts
}

func testRNG() *rand.Rand {
	return rand.New(rand.NewPCG(7, 11))
}

func TestConservation(t *testing.T) {
	tests := []struct {
		column string
		kind   alignment.Kind
		want   float64
	}{
		{"AAAA", alignment.KindDNA, 1.0},
		{"AA--", alignment.KindDNA, 0.5},
		{"--..", alignment.KindDNA, 0.0},
		{"AaAa", alignment.KindDNA, 1.0},
		{"", alignment.KindDNA, 0.0},
		{"ACGT", alignment.KindDNA, 0.0},
		{"AC", alignment.KindDNA, 0.5},
		{"LLLL", alignment.KindAminoAcid, 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.column, func(t *testing.T) {
			got := Conservation(countsFor(tt.column), MaxEntropy(tt.kind))
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("Conservation(%q) = %v, want %v", tt.column, got, tt.want)
			}
		})
	}
}

func TestConservation_Range(t *testing.T) {
	for _, col := range []string{"ACDEFGHIKLMNPQRSTVWYXBZ", "A-C.G", "aaaaC", "**"} {
		got := Conservation(countsFor(col), MaxEntropy(alignment.KindDNA))
		if got < 0 || got > 1 {
			t.Errorf("Conservation(%q) = %v out of [0,1]", col, got)
		}
	}
}

func TestConsensus_NoTie(t *testing.T) {
	rng := testRNG()
	for i := 0; i < 50; i++ {
		if got := Consensus(countsFor("AAAC"), MethodMajorityNonGap, rng); got != 'A' {
			t.Fatalf("Consensus = %q, want 'A'", got)
		}
	}
}

func TestConsensus_TieDistribution(t *testing.T) {
	rng := testRNG()
	seen := map[byte]int{}
	for i := 0; i < 200; i++ {
		seen[Consensus(countsFor("AACC"), MethodMajority, rng)]++
	}
	for b := range seen {
		if b != 'A' && b != 'C' {
			t.Fatalf("unexpected consensus %q", b)
		}
	}
	if seen['A'] == 0 || seen['C'] == 0 {
		t.Errorf("expected both tied bytes to be chosen, got %v", seen)
	}
}

func TestConsensus_Gaps(t *testing.T) {
	rng := testRNG()
	if got := Consensus(countsFor("---A"), MethodMajority, rng); got != '-' {
		t.Errorf("majority = %q, want '-'", got)
	}
	if got := Consensus(countsFor("---A"), MethodMajorityNonGap, rng); got != 'A' {
		t.Errorf("majority non-gap = %q, want 'A'", got)
	}
	if got := Consensus(countsFor("----"), MethodMajorityNonGap, rng); got != NoConsensus {
		t.Errorf("all gaps non-gap = %q, want '?'", got)
	}
	if got := Consensus(countsFor(""), MethodMajority, rng); got != NoConsensus {
		t.Errorf("empty = %q, want '?'", got)
	}
}

func makeSequences(rows ...string) []*alignment.Record {
	out := make([]*alignment.Record, len(rows))
	for i, r := range rows {
		out[i] = &alignment.Record{Index: i, ID: r, Residues: []byte(r)}
	}
	return out
}

func TestCompute(t *testing.T) {
	req := Request{
		Sequences: makeSequences("AC-T", "AC-T", "AG-T", "A"),
		Positions: []int{3, 0, 2, 99},
		Method:    MethodMajorityNonGap,
		Kind:      alignment.KindDNA,
		Epoch:     4,
	}
	res := Compute(context.Background(), req, testRNG())
	if res.Cancelled {
		t.Fatal("unexpected cancellation")
	}
	if res.Epoch != 4 {
		t.Errorf("epoch = %d, want 4", res.Epoch)
	}
	var positions []int
	for _, s := range res.Stats {
		positions = append(positions, s.Position)
	}
	if !slices.Equal(positions, []int{3, 0, 2, 99}) {
		t.Fatalf("positions = %v", positions)
	}
	if res.Stats[0].Consensus != 'T' || res.Stats[0].Conservation != 1 {
		t.Errorf("col 3 = %+v", res.Stats[0])
	}
	if res.Stats[1].Consensus != 'A' || res.Stats[1].Conservation != 1 {
		t.Errorf("col 0 = %+v", res.Stats[1])
	}
	if res.Stats[2].Consensus != NoConsensus || res.Stats[2].Conservation != 0 {
		t.Errorf("col 2 = %+v", res.Stats[2])
	}
	if res.Stats[3].Consensus != NoConsensus {
		t.Errorf("col 99 = %+v", res.Stats[3])
	}
}

func TestCompute_Empty(t *testing.T) {
	res := Compute(context.Background(), Request{}, nil)
	if len(res.Stats) != 0 || res.Cancelled {
		t.Errorf("unexpected result %+v", res)
	}
}

// cancelAfter cancels once Err has been polled n times.
type cancelAfter struct {
	context.Context
	n int
}

func (c *cancelAfter) Err() error {
	if c.n <= 0 {
		return context.Canceled
	}
	c.n--
	return nil
}

func TestCompute_CancelledPrefix(t *testing.T) {
	positions := []int{9, 4, 7, 1, 0, 3}
	req := Request{
		Sequences: makeSequences("ACGTACGTAC", "ACGTACGTAC"),
		Positions: positions,
		Kind:      alignment.KindDNA,
	}
	for stopAt := 0; stopAt <= len(positions); stopAt++ {
		ctx := &cancelAfter{Context: context.Background(), n: stopAt}
		res := Compute(ctx, req, testRNG())
		if len(res.Stats) != stopAt {
			t.Fatalf("stopAt %d: got %d stats", stopAt, len(res.Stats))
		}
		for i, s := range res.Stats {
			if s.Position != positions[i] {
				t.Fatalf("stopAt %d: stat %d has position %d, want %d", stopAt, i, s.Position, positions[i])
			}
		}
		if res.Cancelled != (stopAt < len(positions)) {
			t.Errorf("stopAt %d: cancelled = %v", stopAt, res.Cancelled)
		}
	}
}

func TestParseMethod(t *testing.T) {
	for _, m := range []Method{MethodMajority, MethodMajorityNonGap} {
		got, err := ParseMethod(m.String())
		if err != nil || got != m {
			t.Errorf("ParseMethod(%q) = %v, %v", m.String(), got, err)
		}
	}
	if _, err := ParseMethod("plurality"); err == nil {
		t.Error("expected error for unknown method")
	}
}
