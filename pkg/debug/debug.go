// Package debug provides conditional debug logging for msv.
//
// Logging is enabled by setting MSV_DEBUG or passing --debug:
//
//	MSV_DEBUG=1 msv alignment.fa
//
// The TUI owns the terminal, so --debug sends output to a file in the working
// directory (msv.log, or msv.N.log when that exists). MSV_DEBUG alone logs to
// stderr, which is useful for the headless modes. When disabled every
// function is a no-op.
package debug

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	json "github.com/goccy/go-json"
)

const prefix = "[MSV_DEBUG] "

var (
	enabled atomic.Bool

	mu     sync.Mutex
	logger *log.Logger
	file   *os.File
)

func init() {
	if os.Getenv("MSV_DEBUG") != "" {
		SetEnabled(true)
	}
}

// Enabled returns whether debug logging is enabled.
func Enabled() bool {
	return enabled.Load()
}

// SetEnabled turns logging on or off. Enabling without an output file logs
// to stderr.
func SetEnabled(e bool) {
	mu.Lock()
	if e && logger == nil {
		logger = log.New(os.Stderr, prefix, log.Ltime|log.Lmicroseconds)
	}
	mu.Unlock()
	enabled.Store(e)
}

// SetOutput redirects log output to w and enables logging.
func SetOutput(w io.Writer) {
	mu.Lock()
	logger = log.New(w, prefix, log.Ltime|log.Lmicroseconds)
	mu.Unlock()
	enabled.Store(true)
}

// SetOutputFile opens the first free msv.log / msv.N.log in dir, directs
// output there and enables logging. It returns the chosen path.
func SetOutputFile(dir string) (string, error) {
	path, err := nextLogPath(dir)
	if err != nil {
		return "", err
	}
	fh, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("opening debug log: %w", err)
	}

	mu.Lock()
	if file != nil {
		file.Close()
	}
	file = fh
	logger = log.New(fh, prefix, log.Ltime|log.Lmicroseconds)
	mu.Unlock()
	enabled.Store(true)
	return path, nil
}

// Close flushes and closes the log file, if any. Logging stays enabled on
// stderr.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if file == nil {
		return nil
	}
	err := file.Close()
	file = nil
	logger = log.New(os.Stderr, prefix, log.Ltime|log.Lmicroseconds)
	return err
}

func nextLogPath(dir string) (string, error) {
	candidate := filepath.Join(dir, "msv.log")
	for n := 1; n < 1000; n++ {
		if _, err := os.Stat(candidate); errors.Is(err, os.ErrNotExist) {
			return candidate, nil
		}
		candidate = filepath.Join(dir, fmt.Sprintf("msv.%d.log", n))
	}
	return "", errors.New("no free debug log name in " + dir)
}

func current() *log.Logger {
	mu.Lock()
	defer mu.Unlock()
	return logger
}

// Log writes a printf-style debug message.
func Log(format string, args ...any) {
	if !enabled.Load() {
		return
	}
	current().Printf(format, args...)
}

// LogTiming writes a timing message.
func LogTiming(name string, d time.Duration) {
	if !enabled.Load() {
		return
	}
	current().Printf("%s took %v", name, d)
}

// Event writes a named event with JSON-encoded fields.
func Event(name string, fields map[string]any) {
	if !enabled.Load() {
		return
	}
	payload, err := json.Marshal(fields)
	if err != nil {
		current().Printf("%s (unencodable fields: %v)", name, err)
		return
	}
	current().Printf("%s %s", name, payload)
}

// LogEnterExit logs entry and exit with timing:
//
//	defer debug.LogEnterExit("load")()
func LogEnterExit(name string) func() {
	if !enabled.Load() {
		return func() {}
	}
	l := current()
	l.Printf("-> %s", name)
	start := time.Now()
	return func() {
		l.Printf("<- %s (%v)", name, time.Since(start))
	}
}

// Section logs a section header.
func Section(name string) {
	if !enabled.Load() {
		return
	}
	current().Printf("=== %s ===", name)
}
