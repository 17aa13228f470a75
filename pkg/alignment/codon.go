package alignment

// codonTable is indexed [first][second][third] with A=0, T=1, C=2, G=3.
var codonTable = [4][4][4]byte{
	{
		{'K', 'N', 'N', 'K'},
		{'I', 'I', 'I', 'M'},
		{'T', 'T', 'T', 'T'},
		{'R', 'S', 'S', 'R'},
	},
	{
		{'*', 'Y', 'Y', '*'},
		{'L', 'F', 'F', 'L'},
		{'S', 'S', 'S', 'S'},
		{'*', 'C', 'C', 'W'},
	},
	{
		{'Q', 'H', 'H', 'Q'},
		{'L', 'L', 'L', 'L'},
		{'P', 'P', 'P', 'P'},
		{'R', 'R', 'R', 'R'},
	},
	{
		{'E', 'D', 'D', 'E'},
		{'V', 'V', 'V', 'V'},
		{'A', 'A', 'A', 'A'},
		{'G', 'G', 'G', 'G'},
	},
}

func baseIndex(b byte) (int, bool) {
	switch b {
	case 'A', 'a':
		return 0, true
	case 'T', 't', 'U', 'u':
		return 1, true
	case 'C', 'c':
		return 2, true
	case 'G', 'g':
		return 3, true
	}
	return 0, false
}

// TranslateCodon returns the amino acid for the codon starting at start.
// Incomplete codons and codons with gaps or ambiguous bases yield 'X'.
func TranslateCodon(residues []byte, start int) byte {
	if start < 0 || start+3 > len(residues) {
		return 'X'
	}
	var idx [3]int
	for i := 0; i < 3; i++ {
		n, ok := baseIndex(residues[start+i])
		if !ok {
			return 'X'
		}
		idx[i] = n
	}
	return codonTable[idx[0]][idx[1]][idx[2]]
}

// TranslatedAt returns the amino acid drawn at column col for reading frame
// frame (0..2). Each codon is drawn once, at its middle column; the two
// flanking columns return ' '. Columns before the frame start return ' '.
func TranslatedAt(residues []byte, col, frame int) byte {
	if col < frame {
		return ' '
	}
	rel := (col - frame) % 3
	if rel != 1 {
		return ' '
	}
	return TranslateCodon(residues, col-1)
}
