package debug

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDisabledIsSilent(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	SetEnabled(false)
	t.Cleanup(func() { SetEnabled(false) })

	Log("hidden %d", 1)
	LogTiming("hidden", time.Second)
	Event("hidden", map[string]any{"a": 1})
	LogEnterExit("hidden")()
	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}

func TestLogAndEvent(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() { SetEnabled(false) })

	Log("loaded %d sequences", 3)
	Event("job_superseded", map[string]any{"category": "stats", "id": 4})
	done := LogEnterExit("render")
	done()

	out := buf.String()
	for _, want := range []string{
		"[MSV_DEBUG]",
		"loaded 3 sequences",
		`job_superseded {"category":"stats","id":4}`,
		"-> render",
		"<- render",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestSetOutputFile_PicksFreeName(t *testing.T) {
	dir := t.TempDir()
	t.Cleanup(func() {
		Close()
		SetEnabled(false)
	})

	first, err := SetOutputFile(dir)
	if err != nil {
		t.Fatalf("SetOutputFile: %v", err)
	}
	if filepath.Base(first) != "msv.log" {
		t.Errorf("first log = %s", first)
	}
	Log("hello")

	second, err := SetOutputFile(dir)
	if err != nil {
		t.Fatalf("SetOutputFile: %v", err)
	}
	if filepath.Base(second) != "msv.1.log" {
		t.Errorf("second log = %s", second)
	}
	if err := Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(first)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "hello") {
		t.Errorf("first log missing message: %q", data)
	}
}
