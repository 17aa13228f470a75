package watcher

import (
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func waitChanged(t *testing.T, w *Watcher) {
	t.Helper()
	select {
	case <-w.Changed():
	case <-time.After(3 * time.Second):
		t.Fatal("no change notification")
	}
}

func TestDebouncer_CoalescesBursts(t *testing.T) {
	d := newDebouncer(40 * time.Millisecond)
	var calls atomic.Int32
	for i := 0; i < 10; i++ {
		d.trigger(func() { calls.Add(1) })
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(150 * time.Millisecond)
	if n := calls.Load(); n != 1 {
		t.Errorf("expected 1 call, got %d", n)
	}
}

func TestDebouncer_Cancel(t *testing.T) {
	d := newDebouncer(30 * time.Millisecond)
	var called atomic.Bool
	d.trigger(func() { called.Store(true) })
	d.cancel()
	time.Sleep(80 * time.Millisecond)
	if called.Load() {
		t.Error("cancelled callback ran")
	}
	if newDebouncer(0).delay != DefaultDebounce {
		t.Error("zero delay should use the default")
	}
}

func TestWatcher_Fsnotify(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aln.fa")
	writeFile(t, path, ">a\nAC\n")

	w, err := New(path, WithDebounce(20*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	writeFile(t, path, ">a\nACGT\n")
	waitChanged(t, w)
}

func TestWatcher_Polling(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aln.fa")
	writeFile(t, path, ">a\nAC\n")

	w, err := New(path,
		WithForcePoll(true),
		WithPollInterval(20*time.Millisecond),
		WithDebounce(10*time.Millisecond),
	)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()
	if !w.Polling() {
		t.Fatal("expected polling mode")
	}

	writeFile(t, path, ">a\nACGTACGT\n")
	waitChanged(t, w)
}

func TestWatcher_EnvForcePoll(t *testing.T) {
	t.Setenv("MSV_FORCE_POLL", "yes")
	path := filepath.Join(t.TempDir(), "aln.fa")
	writeFile(t, path, ">a\nAC\n")

	w, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()
	if !w.Polling() {
		t.Error("MSV_FORCE_POLL should force polling")
	}
}

func TestWatcher_PollingReportsRemoval(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aln.fa")
	writeFile(t, path, ">a\nAC\n")

	errs := make(chan error, 4)
	w, err := New(path,
		WithForcePoll(true),
		WithPollInterval(20*time.Millisecond),
		WithOnError(func(err error) {
			select {
			case errs <- err:
			default:
			}
		}),
	)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	select {
	case err := <-errs:
		if !errors.Is(err, ErrFileRemoved) {
			t.Errorf("expected ErrFileRemoved, got %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("removal not reported")
	}
}

func TestWatcher_StartStop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aln.fa")
	writeFile(t, path, ">a\nAC\n")

	w, err := New(path, WithForcePoll(true))
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("expected ErrAlreadyStarted, got %v", err)
	}
	w.Stop()
	w.Stop()
	if err := w.Start(); err != nil {
		t.Errorf("restart failed: %v", err)
	}
	w.Stop()
}

func TestWatcher_Path(t *testing.T) {
	w, err := New("relative/aln.fa")
	if err != nil {
		t.Fatal(err)
	}
	if !filepath.IsAbs(w.Path()) {
		t.Errorf("expected absolute path, got %q", w.Path())
	}
}

func TestEnvBool(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"1", true},
		{"TRUE", true},
		{" on ", true},
		{"0", false},
		{"nope", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("MSV_TEST_BOOL", tt.value)
			if got := envBool("MSV_TEST_BOOL"); got != tt.want {
				t.Errorf("envBool(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}
