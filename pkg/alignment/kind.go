package alignment

import (
	"fmt"
	"math/rand/v2"
	"strings"
)

// Kind is the residue alphabet of an alignment.
type Kind int

const (
	// KindUnknown means detection was inconclusive.
	KindUnknown Kind = iota
	KindDNA
	KindAminoAcid
)

func (k Kind) String() string {
	switch k {
	case KindDNA:
		return "dna"
	case KindAminoAcid:
		return "aa"
	default:
		return "unknown"
	}
}

// ParseKind accepts "dna"/"nt" and "aa"/"protein".
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dna", "nt", "nucleotide":
		return KindDNA, nil
	case "aa", "protein", "amino":
		return KindAminoAcid, nil
	default:
		return KindUnknown, fmt.Errorf("unknown sequence kind %q", s)
	}
}

const (
	detectSampleSize = 100
	// classificationThreshold is the minimum alphabet fraction for a match.
	classificationThreshold = 0.5
)

var (
	nucleotideAlphabet = alphabet("ACGTURYSWKMBDHVNX")
	aminoAcidAlphabet  = alphabet("DEFHIKLMNPQRSVWY")
)

func alphabet(chars string) (set [256]bool) {
	for i := 0; i < len(chars); i++ {
		set[chars[i]] = true
	}
	return set
}

// DetectKind classifies sequences by sampling up to 100 of them and counting
// how many non-gap residues fall in each alphabet. When both alphabets pass
// the threshold the larger fraction wins; an exact tie or no match yields
// KindUnknown. rng may be nil.
func DetectKind(sequences []Record, rng *rand.Rand) Kind {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	sample := sequences
	if len(sequences) > detectSampleSize {
		sample = make([]Record, 0, detectSampleSize)
		for _, i := range rng.Perm(len(sequences))[:detectSampleSize] {
			sample = append(sample, sequences[i])
		}
	}

	var total, nt, aa int
	for _, rec := range sample {
		for _, b := range rec.Residues {
			if b == '-' || b == '.' {
				continue
			}
			upper := b
			if upper >= 'a' && upper <= 'z' {
				upper -= 'a' - 'A'
			}
			total++
			if nucleotideAlphabet[upper] {
				nt++
			}
			if aminoAcidAlphabet[upper] {
				aa++
			}
		}
	}
	if total == 0 {
		return KindUnknown
	}

	ntFrac := float64(nt) / float64(total)
	aaFrac := float64(aa) / float64(total)
	ntOK := ntFrac >= classificationThreshold
	aaOK := aaFrac >= classificationThreshold

	switch {
	case ntOK && !aaOK:
		return KindDNA
	case aaOK && !ntOK:
		return KindAminoAcid
	case ntOK && aaOK && ntFrac > aaFrac:
		return KindDNA
	case ntOK && aaOK && aaFrac > ntFrac:
		return KindAminoAcid
	default:
		return KindUnknown
	}
}
