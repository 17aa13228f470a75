// Package colstats computes per-column consensus and conservation and keeps
// the sliding-window cache of those values.
package colstats

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/vanderheijden86/msaview/pkg/alignment"
)

// Method selects how the consensus byte is chosen.
type Method int

const (
	// MethodMajority considers every observed byte, gaps included.
	MethodMajority Method = iota
	// MethodMajorityNonGap never picks '-'.
	MethodMajorityNonGap
)

func (m Method) String() string {
	switch m {
	case MethodMajorityNonGap:
		return "majority-non-gap"
	default:
		return "majority"
	}
}

// ParseMethod accepts the String forms plus a few short aliases.
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "majority", "maj", "":
		return MethodMajority, nil
	case "majority-non-gap", "majority_non_gap", "nongap", "non-gap":
		return MethodMajorityNonGap, nil
	default:
		return MethodMajority, fmt.Errorf("unknown consensus method %q", s)
	}
}

// NoConsensus is emitted when a column has no candidate byte.
const NoConsensus byte = '?'

// Request is an immutable snapshot of the work for one statistics job.
type Request struct {
	Sequences []*alignment.Record
	Positions []int
	Method    Method
	Kind      alignment.Kind
	// Epoch is the cache generation the request was planned against.
	Epoch uint64
}

// ColumnStat is the computed pair for one column.
type ColumnStat struct {
	Position     int
	Consensus    byte
	Conservation float64
}

// Result holds the stats computed for a request, in request order.
type Result struct {
	Epoch     uint64
	Stats     []ColumnStat
	Cancelled bool
}

// Compute builds a histogram for every requested column and derives its
// consensus and conservation. ctx is checked before each column; on
// cancellation the prefix computed so far is returned with Cancelled set.
// rng drives the consensus tie-break and may be nil.
func Compute(ctx context.Context, req Request, rng *rand.Rand) Result {
	res := Result{Epoch: req.Epoch}
	if len(req.Positions) == 0 {
		return res
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	maxEntropy := MaxEntropy(req.Kind)

	res.Stats = make([]ColumnStat, 0, len(req.Positions))
	var counts [256]uint32
	for _, pos := range req.Positions {
		if ctx.Err() != nil {
			res.Cancelled = true
			break
		}
		clear(counts[:])
		for _, rec := range req.Sequences {
			if pos >= 0 && pos < len(rec.Residues) {
				counts[rec.Residues[pos]]++
			}
		}
		res.Stats = append(res.Stats, ColumnStat{
			Position:     pos,
			Consensus:    Consensus(&counts, req.Method, rng),
			Conservation: Conservation(&counts, maxEntropy),
		})
	}
	return res
}

// MaxEntropy is log2 of the alphabet size: 4 for nucleotides, 20 for amino
// acids. Unknown kinds are scored as nucleotides.
func MaxEntropy(kind alignment.Kind) float64 {
	if kind == alignment.KindAminoAcid {
		return math.Log2(20)
	}
	return math.Log2(4)
}

// Consensus picks the most frequent byte. Ties are broken uniformly at
// random among the tied bytes.
func Consensus(counts *[256]uint32, method Method, rng *rand.Rand) byte {
	var best uint32
	var candidates [256]byte
	n := 0
	for b, c := range counts {
		if c == 0 {
			continue
		}
		if method == MethodMajorityNonGap && b == '-' {
			continue
		}
		switch {
		case c > best:
			best = c
			candidates[0] = byte(b)
			n = 1
		case c == best:
			candidates[n] = byte(b)
			n++
		}
	}
	switch n {
	case 0:
		return NoConsensus
	case 1:
		return candidates[0]
	default:
		return candidates[rng.IntN(n)]
	}
}

// Conservation scores a column between 0 and 1. Non-gap symbols are merged
// case-insensitively and scored by Shannon entropy against maxEntropy; the
// result is scaled by the non-gap fraction. Gaps are '-' and '.'.
func Conservation(counts *[256]uint32, maxEntropy float64) float64 {
	var total, gaps uint32
	var merged [256]uint32
	for b, c := range counts {
		if c == 0 {
			continue
		}
		total += c
		if b == '-' || b == '.' {
			gaps += c
			continue
		}
		upper := b
		if upper >= 'a' && upper <= 'z' {
			upper -= 'a' - 'A'
		}
		merged[upper] += c
	}
	nonGap := total - gaps
	if total == 0 || nonGap == 0 {
		return 0
	}

	freqs := make([]float64, 0, 20)
	for _, c := range merged {
		if c > 0 {
			freqs = append(freqs, float64(c)/float64(nonGap))
		}
	}
	// stat.Entropy uses the natural log.
	h := stat.Entropy(freqs) / math.Ln2

	score := max(0, 1-h/maxEntropy)
	return score * (1 - float64(gaps)/float64(total))
}
