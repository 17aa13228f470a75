//go:build ignore

// generate_testdata.go creates standard alignment datasets for benchmarking.
// Usage: go run scripts/generate_testdata.go
//
// Creates:
//
//	tests/testdata/benchmark/small.fa   (50 x 1,000)
//	tests/testdata/benchmark/medium.fa  (500 x 10,000)
//	tests/testdata/benchmark/large.fa   (2,000 x 50,000)
//	tests/testdata/benchmark/protein.fa (300 x 5,000, amino acids)
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/vanderheijden86/msaview/pkg/testutil"
)

type datasetSpec struct {
	name     string
	rows     int
	cols     int
	alphabet string
}

var datasets = []datasetSpec{
	{"small", 50, 1_000, testutil.DNAAlphabet},
	{"medium", 500, 10_000, testutil.DNAAlphabet},
	{"large", 2_000, 50_000, testutil.DNAAlphabet},
	{"protein", 300, 5_000, testutil.AminoAcidAlphabet},
}

func main() {
	outputDir := "tests/testdata/benchmark"
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create output directory: %v\n", err)
		os.Exit(1)
	}

	for _, ds := range datasets {
		fmt.Printf("Generating %s dataset (%d x %d)...\n", ds.name, ds.rows, ds.cols)

		gen := testutil.New(testutil.GeneratorConfig{
			Seed:     uint64(ds.rows*ds.cols) + 1, // Reproducible per-size
			IDPrefix: ds.name + "_",
			Alphabet: ds.alphabet,
			GapRate:  0.08,
			Mutation: 0.25,
		})
		fa := testutil.ToFASTA(gen.Records(ds.rows, ds.cols), 60)

		outputPath := filepath.Join(outputDir, ds.name+".fa")
		if err := os.WriteFile(outputPath, []byte(fa), 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write %s: %v\n", outputPath, err)
			os.Exit(1)
		}
		fmt.Printf("  Written %s (%d bytes)\n", outputPath, len(fa))
	}

	fmt.Println("\nDone! Test datasets created in", outputDir)
}
