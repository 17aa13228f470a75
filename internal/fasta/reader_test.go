package fasta

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFasta(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fasta: %v", err)
	}
	return path
}

func TestParseFile_Valid(t *testing.T) {
	path := writeFasta(t, "ok.fa", ">seq1 first record\nA-\nCG\n>seq2\r\nTGCA\r\n")

	records, err := ParseFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].ID != "seq1" || string(records[0].Residues) != "A-CG" {
		t.Errorf("record 0 = %q %q", records[0].ID, records[0].Residues)
	}
	if records[1].ID != "seq2" || string(records[1].Residues) != "TGCA" {
		t.Errorf("record 1 = %q %q", records[1].ID, records[1].Residues)
	}
}

func TestParseFile_Gzip(t *testing.T) {
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	if _, err := gw.Write([]byte(">a\nACGT\n>b\nAC-T\n")); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	gw.Close()
	path := writeFasta(t, "aln.fa.gz", buf.String())

	records, err := ParseFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ParseFile gzip: %v", err)
	}
	if len(records) != 2 || records[1].ID != "b" {
		t.Fatalf("unexpected records: %+v", records)
	}
}

func TestParseFile_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		check   func(error) bool
	}{
		{"empty", "", func(err error) bool { return errors.Is(err, ErrNoRecords) }},
		{"headers only", ">seq1\n>seq2\n", func(err error) bool {
			var zl *ZeroLengthError
			return errors.As(err, &zl) && zl.ID == "seq1"
		}},
		{"length mismatch", ">seq1\nATCG\n>seq2\nTGCAAA\n", func(err error) bool {
			var lm *LengthMismatchError
			return errors.As(err, &lm) && lm.Expected == 4 && lm.Found == 6 && lm.ID == "seq2"
		}},
		{"not fasta", "imaninvalidfasta\nfile\n", func(err error) bool {
			var de *DecodeError
			return errors.As(err, &de) && de.Line == 1
		}},
		{"blank identifier", ">\nACGT\n", func(err error) bool {
			var de *DecodeError
			return errors.As(err, &de)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFasta(t, "bad.fa", tt.content)
			_, err := ParseFile(context.Background(), path)
			if err == nil {
				t.Fatal("expected error")
			}
			if !tt.check(err) {
				t.Errorf("unexpected error type: %T %v", err, err)
			}
		})
	}
}

func TestParseFile_NotFound(t *testing.T) {
	_, err := ParseFile(context.Background(), filepath.Join(t.TempDir(), "missing.fa"))
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("NotFoundError should unwrap to os.ErrNotExist")
	}
}

func TestParse_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Parse(ctx, strings.NewReader(">a\nACGT\n>b\nACGT\n"))
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
}
