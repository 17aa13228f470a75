// Package fasta reads aligned FASTA input for the viewer.
//
// Sources can be local paths (optionally gzip-compressed), "-" for stdin,
// or http(s) URLs. Every record of an alignment must have the same length;
// the first record fixes the expected length.
package fasta

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

// Record is one parsed FASTA entry.
type Record struct {
	ID       string
	Residues []byte
}

// ErrCancelled is returned when the parse context is cancelled between records.
var ErrCancelled = errors.New("fasta parse cancelled")

// ErrNoRecords is returned when the input holds no records at all.
var ErrNoRecords = errors.New("no valid FASTA records found in input")

// NotFoundError reports a missing input source.
type NotFoundError struct {
	Source string
	Cause  error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("input not found: %s", e.Source)
}

func (e *NotFoundError) Unwrap() error { return e.Cause }

// DecodeError reports malformed FASTA text.
type DecodeError struct {
	Line   int
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

// ZeroLengthError reports a first record with no residues.
type ZeroLengthError struct {
	ID string
}

func (e *ZeroLengthError) Error() string {
	return fmt.Sprintf("sequence has zero length for id %s", e.ID)
}

// LengthMismatchError reports a record whose length differs from the first record.
type LengthMismatchError struct {
	Expected int
	Found    int
	ID       string
}

func (e *LengthMismatchError) Error() string {
	return fmt.Sprintf("sequence length mismatch: expected %d, found %d for id %s", e.Expected, e.Found, e.ID)
}

// ParseFile opens source and parses it. See Parse.
func ParseFile(ctx context.Context, source string) ([]Record, error) {
	rc, err := Open(ctx, source)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return Parse(ctx, rc)
}

// Open returns a reader for a path, "-" or an http(s) URL. Gzip input is
// detected by its magic bytes rather than the file extension.
func Open(ctx context.Context, source string) (io.ReadCloser, error) {
	var raw io.ReadCloser
	switch {
	case source == "-":
		raw = io.NopCloser(os.Stdin)
	case strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://"):
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
		if err != nil {
			return nil, fmt.Errorf("building request: %w", err)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("fetching %s: %w", source, err)
		}
		if resp.StatusCode == http.StatusNotFound {
			resp.Body.Close()
			return nil, &NotFoundError{Source: source}
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("fetching %s: unexpected status %s", source, resp.Status)
		}
		raw = resp.Body
	default:
		fh, err := os.Open(source)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, &NotFoundError{Source: source, Cause: err}
			}
			return nil, fmt.Errorf("opening %s: %w", source, err)
		}
		raw = fh
	}

	br := bufio.NewReader(raw)
	magic, _ := br.Peek(2)
	if len(magic) == 2 && magic[0] == 0x1f && magic[1] == 0x8b {
		gr, err := gzip.NewReader(br)
		if err != nil {
			raw.Close()
			return nil, fmt.Errorf("opening gzip stream: %w", err)
		}
		return struct {
			io.Reader
			io.Closer
		}{Reader: gr, Closer: raw}, nil
	}
	return struct {
		io.Reader
		io.Closer
	}{Reader: br, Closer: raw}, nil
}

// Parse reads every record from r. Cancellation is checked at each record
// boundary; a cancelled parse returns ErrCancelled and no records.
func Parse(ctx context.Context, r io.Reader) ([]Record, error) {
	br := bufio.NewReaderSize(r, 64*1024)

	var (
		records  []Record
		current  *Record
		expected = -1
		lineNo   int
	)

	finish := func() error {
		if current == nil {
			return nil
		}
		n := len(current.Residues)
		switch {
		case expected < 0 && n == 0:
			return &ZeroLengthError{ID: current.ID}
		case expected < 0:
			expected = n
		case n != expected:
			return &LengthMismatchError{Expected: expected, Found: n, ID: current.ID}
		}
		records = append(records, *current)
		current = nil
		return nil
	}

	for {
		line, err := br.ReadBytes('\n')
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("reading input: %w", err)
		}
		eof := err == io.EOF
		if len(line) > 0 {
			lineNo++
		}
		line = bytes.TrimRight(line, "\r\n")

		if len(line) > 0 && line[0] == '>' {
			if ctx.Err() != nil {
				return nil, ErrCancelled
			}
			if ferr := finish(); ferr != nil {
				return nil, ferr
			}
			fields := strings.Fields(string(line[1:]))
			if len(fields) == 0 {
				return nil, &DecodeError{Line: lineNo, Reason: "empty sequence identifier"}
			}
			current = &Record{ID: fields[0]}
		} else if trimmed := bytes.TrimSpace(line); len(trimmed) > 0 {
			if current == nil {
				return nil, &DecodeError{Line: lineNo, Reason: "sequence data before first header"}
			}
			for _, b := range trimmed {
				if b != ' ' && b != '\t' {
					current.Residues = append(current.Residues, b)
				}
			}
		}

		if eof {
			break
		}
	}

	if ctx.Err() != nil {
		return nil, ErrCancelled
	}
	if err := finish(); err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrNoRecords
	}
	return records, nil
}
