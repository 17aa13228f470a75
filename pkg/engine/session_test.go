package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vanderheijden86/msaview/internal/fasta"
	"github.com/vanderheijden86/msaview/pkg/alignment"
	"github.com/vanderheijden86/msaview/pkg/colstats"
	"github.com/vanderheijden86/msaview/pkg/core"
	"github.com/vanderheijden86/msaview/pkg/viewport"
)

func writeFasta(t *testing.T, rows map[string]string, order ...string) string {
	t.Helper()
	var b strings.Builder
	for _, id := range order {
		fmt.Fprintf(&b, ">%s description\n%s\n", id, rows[id])
	}
	path := filepath.Join(t.TempDir(), "aln.fa")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newSession(t *testing.T, params colstats.Params) *Session {
	t.Helper()
	s := New(Config{Stats: params, Workers: 2, Seed: 42})
	t.Cleanup(func() { s.Close() })
	return s
}

// pump handles completions until done reports true.
func pump(t *testing.T, s *Session, done func() bool) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for !done() {
		select {
		case c := <-s.Jobs().Completions():
			s.HandleCompletion(c)
		case <-deadline:
			t.Fatal("timed out waiting for jobs")
		}
	}
}

func idle(s *Session) func() bool {
	return func() bool { return !s.Loading() && !s.StatsPending() }
}

func TestLoadAndComputeStats(t *testing.T) {
	path := writeFasta(t, map[string]string{
		"seq-a": "ACGTACGTAA",
		"seq-b": "ACGTACGTA-",
		"seq-c": "ACGAACGTA-",
	}, "seq-a", "seq-b", "seq-c")

	s := newSession(t, colstats.Params{Buffer: 5, Margin: 1})
	s.Resize(4, 3, 8)
	s.Load(path)
	pump(t, s, idle(s))

	st := s.State()
	if st.Load != core.LoadLoaded {
		t.Fatalf("load state = %v (%s)", st.Load, st.LoadError)
	}
	if st.Data.Len() != 3 || st.Data.Length != 10 || st.Data.Kind != alignment.KindDNA {
		t.Fatalf("unexpected data: %d x %d %v", st.Data.Len(), st.Data.Length, st.Data.Kind)
	}

	cache := s.Stats()
	if w, ok := cache.Window(); !ok || w != (viewport.Range{Start: 0, End: 9}) {
		t.Errorf("window = %+v, %v", w, ok)
	}
	if got := cache.ConsensusString(viewport.Range{Start: 0, End: 4}); got != "ACGT" {
		t.Errorf("consensus = %q", got)
	}
	if c, ok := cache.Conservation(0); !ok || c != 1 {
		t.Errorf("conservation(0) = %v, %v", c, ok)
	}
	if _, ok := cache.Consensus(9); ok {
		t.Error("column 9 is outside the buffered window")
	}

	s.Dispatch(core.Scroll{Dir: core.ScrollRight, Amount: 6})
	pump(t, s, idle(s))
	if got := cache.ConsensusString(viewport.Range{Start: 6, End: 10}); got != "GTA-" {
		t.Errorf("consensus after scroll = %q", got)
	}
}

func TestDispatchInvalidates(t *testing.T) {
	path := writeFasta(t, map[string]string{
		"a": "AAAA",
		"b": "AAAA",
		"c": "CCCC",
	}, "a", "b", "c")

	s := newSession(t, colstats.DefaultParams())
	s.Resize(4, 3, 4)
	s.Load(path)
	pump(t, s, idle(s))
	if got := s.Stats().ConsensusString(viewport.Range{Start: 0, End: 4}); got != "AAAA" {
		t.Fatalf("consensus = %q", got)
	}

	epoch := s.Stats().Epoch()
	if !s.Dispatch(core.SetFilter{Pattern: "^c$"}) {
		t.Fatal("filter should apply")
	}
	if s.Stats().Epoch() == epoch {
		t.Error("filter change should invalidate the cache")
	}
	pump(t, s, idle(s))
	if got := s.Stats().ConsensusString(viewport.Range{Start: 0, End: 4}); got != "CCCC" {
		t.Errorf("consensus after filter = %q", got)
	}

	epoch = s.Stats().Epoch()
	s.Dispatch(core.SetDiffMode{Mode: core.DiffConsensus})
	if s.Stats().Epoch() != epoch {
		t.Error("diff mode should not invalidate")
	}
	s.Dispatch(core.SetConsensusMethod{Method: colstats.MethodMajority})
	if s.Stats().Epoch() != epoch {
		t.Error("unchanged method should not invalidate")
	}
	s.Dispatch(core.SetConsensusMethod{Method: colstats.MethodMajorityNonGap})
	if s.Stats().Epoch() == epoch {
		t.Error("method change should invalidate")
	}
	pump(t, s, idle(s))
}

func TestStaleStatsDropped(t *testing.T) {
	path := writeFasta(t, map[string]string{"a": "ACGT", "b": "ACGT"}, "a", "b")
	s := newSession(t, colstats.DefaultParams())
	s.Load(path)
	pump(t, s, func() bool { return !s.Loading() })

	stale := colstats.Result{Epoch: s.Stats().Epoch() + 7, Stats: []colstats.ColumnStat{{Position: 0, Consensus: 'Z'}}}
	if s.Stats().Merge(stale) {
		t.Error("merge of a foreign epoch should fail")
	}
	pump(t, s, idle(s))
	if b, _ := s.Stats().Consensus(0); b == 'Z' {
		t.Error("stale value leaked into the cache")
	}
}

func TestLoadFailureKeepsPreviousAlignment(t *testing.T) {
	path := writeFasta(t, map[string]string{"a": "ACGT", "b": "ACGT"}, "a", "b")
	s := newSession(t, colstats.DefaultParams())
	s.Load(path)
	pump(t, s, idle(s))

	s.Load(filepath.Join(t.TempDir(), "missing.fa"))
	pump(t, s, idle(s))

	st := s.State()
	if st.Load != core.LoadFailed {
		t.Fatalf("load state = %v", st.Load)
	}
	if !strings.Contains(st.LoadError, "not found") {
		t.Errorf("load error = %q", st.LoadError)
	}
	if st.Data.Len() != 2 {
		t.Error("previous alignment should stay loaded")
	}
}

func TestLoadSupersedes(t *testing.T) {
	first := writeFasta(t, map[string]string{"a": "AAAA"}, "a")
	second := writeFasta(t, map[string]string{"x": "CCCCCC", "y": "CCCCCC"}, "x", "y")

	s := newSession(t, colstats.DefaultParams())
	s.Load(first)
	s.Load(second)
	pump(t, s, idle(s))

	if s.State().Data.Len() != 2 || s.State().Source != second {
		t.Errorf("expected second alignment, got %d rows from %s", s.State().Data.Len(), s.State().Source)
	}
	if s.Loading() {
		t.Error("no load should remain active")
	}
}

func TestLoadAlignment_Errors(t *testing.T) {
	dir := t.TempDir()
	ragged := filepath.Join(dir, "ragged.fa")
	os.WriteFile(ragged, []byte(">a\nACGT\n>b\nAC\n"), 0o644)

	_, err := LoadAlignment(context.Background(), ragged, nil)
	var mismatch *fasta.LengthMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected LengthMismatchError, got %v", err)
	}
	if mismatch.ID != "b" || mismatch.Expected != 4 || mismatch.Found != 2 {
		t.Errorf("mismatch = %+v", mismatch)
	}
}

func TestComputeRange(t *testing.T) {
	d, err := alignment.New("mem", []fasta.Record{
		{ID: "a", Residues: []byte("AC-")},
		{ID: "b", Residues: []byte("AG-")},
	})
	if err != nil {
		t.Fatal(err)
	}
	s := newSession(t, colstats.DefaultParams())
	s.Install(d)

	res := s.ComputeRange(context.Background(), viewport.Range{Start: -3, End: 50})
	if len(res.Stats) != 3 {
		t.Fatalf("expected 3 columns, got %d", len(res.Stats))
	}
	if res.Stats[0].Consensus != 'A' || res.Stats[2].Consensus != '-' {
		t.Errorf("stats = %+v", res.Stats)
	}
	if c := res.Stats[1].Consensus; c != 'C' && c != 'G' {
		t.Errorf("tie produced %q", c)
	}
}

func TestReloadWithoutSource(t *testing.T) {
	s := newSession(t, colstats.DefaultParams())
	if s.Reload() != 0 {
		t.Error("reload without a source should do nothing")
	}
	if s.RefreshStats() {
		t.Error("no stats without data")
	}
}
