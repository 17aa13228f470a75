package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/vanderheijden86/msaview/internal/fasta"
)

// WriteFASTA writes records to dir/name and returns the path.
func WriteFASTA(t testing.TB, dir, name string, records []fasta.Record) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(ToFASTA(records, 60)), 0644); err != nil {
		t.Fatalf("failed to write fasta file: %v", err)
	}
	return path
}
