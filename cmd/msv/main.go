package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/vanderheijden86/msaview/pkg/colstats"
	"github.com/vanderheijden86/msaview/pkg/config"
	"github.com/vanderheijden86/msaview/pkg/core"
	"github.com/vanderheijden86/msaview/pkg/debug"
	"github.com/vanderheijden86/msaview/pkg/engine"
	"github.com/vanderheijden86/msaview/pkg/export"
	"github.com/vanderheijden86/msaview/pkg/ui"
	"github.com/vanderheijden86/msaview/pkg/version"
	"github.com/vanderheijden86/msaview/pkg/viewport"
	"github.com/vanderheijden86/msaview/pkg/watcher"
)

const usage = `Usage: msv [options] [INPUT]

Terminal viewer for multiple sequence alignments in FASTA format.
INPUT is a path, an http(s) URL or "-" for stdin, optionally gzip-compressed.
Without INPUT on a terminal, msv offers the recently opened files.

Options:
`

// options is the parsed command line.
type options struct {
	input     string
	position  int
	debug     bool
	watch     bool
	config    string
	method    string
	workers   int
	statsJSON bool
	columns   string
	filter    string
	export    string
	version   bool
}

func (o options) headless() bool {
	return o.statsJSON || o.export != ""
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("msv", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}
	fs.IntVar(&o.position, "position", 1, "Initial alignment column (1-based)")
	fs.BoolVar(&o.debug, "debug", false, "Write a debug log to msv.log in the current directory")
	fs.BoolVar(&o.watch, "watch", false, "Reload the input when the file changes")
	fs.StringVar(&o.config, "config", "", "Config file (default "+config.ConfigPath()+")")
	fs.StringVar(&o.method, "method", "", "Consensus method: majority or majority-non-gap")
	fs.IntVar(&o.workers, "workers", -1, "Background worker limit (0 = GOMAXPROCS)")
	fs.BoolVar(&o.statsJSON, "stats-json", false, "Print column statistics as JSON and exit")
	fs.StringVar(&o.columns, "range", "", "Columns for --stats-json/--export as start:end (1-based, inclusive)")
	fs.StringVar(&o.filter, "filter", "", "Identifier regex applied before computing statistics")
	fs.StringVar(&o.export, "export", "", "Write statistics to PATH (.json, .sqlite, .svg or .png) and exit")
	fs.BoolVar(&o.version, "version", false, "Show version")

	if err := fs.Parse(args); err != nil {
		return o, err
	}
	switch fs.NArg() {
	case 0:
	case 1:
		o.input = fs.Arg(0)
	default:
		return o, fmt.Errorf("expected at most one INPUT, got %d", fs.NArg())
	}
	if o.position < 1 {
		return o, fmt.Errorf("--position must be at least 1, got %d", o.position)
	}
	if o.method != "" {
		if _, err := colstats.ParseMethod(o.method); err != nil {
			return o, err
		}
	}
	if o.columns != "" && !o.headless() {
		return o, errors.New("--range needs --stats-json or --export")
	}
	if o.input == "-" && !o.headless() {
		return o, errors.New("reading from stdin needs --stats-json or --export")
	}
	return o, nil
}

// parseRange turns "start:end" (1-based, inclusive, either side optional)
// into a half-open 0-based range clamped to length.
func parseRange(s string, length int) (viewport.Range, error) {
	full := viewport.Range{Start: 0, End: length}
	if strings.TrimSpace(s) == "" {
		return full, nil
	}
	lo, hi, ok := strings.Cut(s, ":")
	if !ok {
		return full, fmt.Errorf("invalid range %q (want start:end)", s)
	}
	start, end := 1, length
	var err error
	if lo = strings.TrimSpace(lo); lo != "" {
		if start, err = strconv.Atoi(lo); err != nil || start < 1 {
			return full, fmt.Errorf("invalid range start %q", lo)
		}
	}
	if hi = strings.TrimSpace(hi); hi != "" {
		if end, err = strconv.Atoi(hi); err != nil || end < 1 {
			return full, fmt.Errorf("invalid range end %q", hi)
		}
	}
	if start > end {
		return full, fmt.Errorf("invalid range %q: start after end", s)
	}
	end = min(end, length)
	if start > length {
		return full, fmt.Errorf("range start %d is past the alignment length %d", start, length)
	}
	return viewport.Range{Start: start - 1, End: end}, nil
}

// loadConfig reads the config file. A broken file yields the defaults plus
// the error.
func loadConfig(o options) (config.Config, error) {
	var cfg config.Config
	var err error
	if o.config != "" {
		cfg, err = config.LoadFrom(o.config)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return config.DefaultConfig(), err
	}
	return cfg, nil
}

// applyFlags overrides config values with the ones given on the command
// line. The result is never saved.
func applyFlags(o options, cfg config.Config) config.Config {
	if o.method != "" {
		cfg.UI.ConsensusMethod = o.method
	}
	if o.workers >= 0 {
		cfg.Stats.Workers = o.workers
	}
	if o.watch {
		cfg.UI.Watch = true
	}
	cfg.Recent = slices.Clone(cfg.Recent)
	return cfg
}

func saveConfig(o options, cfg config.Config) error {
	if o.config != "" {
		return config.SaveTo(cfg, o.config)
	}
	return config.Save(cfg)
}

func engineConfig(o options, cfg config.Config) engine.Config {
	return engine.Config{
		Stats:         cfg.StatsParams(),
		Workers:       cfg.Stats.Workers,
		InitialColumn: o.position - 1,
		Method:        cfg.Method(),
	}
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	o, err := parseFlags(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	if o.version {
		fmt.Fprintf(stdout, "msv %s\n", version.String())
		return 0
	}

	if o.debug {
		path, err := debug.SetOutputFile(".")
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		defer debug.Close()
		debug.Log("msv %s, debug log %s", version.String(), path)
	}

	fileCfg, cfgErr := loadConfig(o)
	if cfgErr != nil {
		fmt.Fprintf(stderr, "Warning: %v (using defaults)\n", cfgErr)
	}
	cfg := applyFlags(o, fileCfg)

	if o.headless() {
		if o.input == "" {
			fmt.Fprintln(stderr, "Error: --stats-json and --export need an INPUT")
			return 2
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if err := runHeadless(ctx, o, cfg, stdout, stderr); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}

	if o.input == "" && isTerminal() && len(cfg.Recent) > 0 {
		source, err := pickSource(cfg.Recent)
		if err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				return 0
			}
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		o.input = source
	}

	if o.input != "" && cfgErr == nil {
		fileCfg.AddRecent(o.input)
		if err := saveConfig(o, fileCfg); err != nil {
			debug.Log("saving config: %v", err)
		}
	}

	if err := runTUI(o, cfg); err != nil {
		fmt.Fprintf(stderr, "Error running msv: %v\n", err)
		return 1
	}
	return 0
}

// runHeadless loads the input synchronously and writes the requested
// outputs without starting the terminal UI.
func runHeadless(ctx context.Context, o options, cfg config.Config, stdout, stderr io.Writer) error {
	session := engine.New(engineConfig(o, cfg))
	defer session.Close()

	d, err := engine.LoadAlignment(ctx, o.input, nil)
	if err != nil {
		return err
	}
	session.Install(d)

	if o.filter != "" {
		re, err := regexp.Compile(o.filter)
		if err != nil {
			return fmt.Errorf("invalid --filter: %w", err)
		}
		session.Dispatch(core.SetFilter{Pattern: o.filter, Matcher: re})
	}

	cols, err := parseRange(o.columns, d.Length)
	if err != nil {
		return err
	}
	res := session.ComputeRange(ctx, cols)
	if res.Cancelled {
		return ctx.Err()
	}
	report := export.NewReport(session.State(), res)

	if o.export != "" {
		if err := export.Save(o.export, report); err != nil {
			return fmt.Errorf("export %s: %w", o.export, err)
		}
		fmt.Fprintf(stderr, "wrote %s (%d columns, %d sequences)\n", o.export, len(report.Columns), report.Visible)
	}
	if o.statsJSON {
		return export.WriteJSON(stdout, report.WithMetrics())
	}
	return nil
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

const otherSource = "\x00other"

// pickSource asks for an alignment to open, offering recent files first.
func pickSource(recent []string) (string, error) {
	choice := recent[0]
	opts := make([]huh.Option[string], 0, len(recent)+1)
	for _, r := range recent {
		opts = append(opts, huh.NewOption(r, r))
	}
	opts = append(opts, huh.NewOption("Other file or URL...", otherSource))

	var other string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Open alignment").
				Options(opts...).
				Value(&choice),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Path or URL").
				Value(&other).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("enter a path or URL")
					}
					return nil
				}),
		).WithHideFunc(func() bool { return choice != otherSource }),
	).WithTheme(huh.ThemeDracula())

	if err := form.Run(); err != nil {
		return "", err
	}
	if choice == otherSource {
		return strings.TrimSpace(other), nil
	}
	return choice, nil
}

func runTUI(o options, cfg config.Config) error {
	session := engine.New(engineConfig(o, cfg))
	defer session.Close()

	uiOpts := ui.Options{Source: o.input}
	if cfg.UI.Watch && o.input != "" && !strings.Contains(o.input, "://") {
		w, err := watcher.New(o.input, watcher.WithOnError(func(err error) {
			debug.Log("watcher: %v", err)
		}))
		if err == nil {
			err = w.Start()
		}
		if err != nil {
			return fmt.Errorf("watching %s: %w", o.input, err)
		}
		defer w.Stop()
		uiOpts.Watcher = w
	}

	p := tea.NewProgram(
		ui.NewModel(session, cfg, uiOpts),
		tea.WithAltScreen(),
		tea.WithoutSignalHandler(),
	)

	runDone := make(chan struct{})
	defer close(runDone)

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-runDone:
			return
		case <-sigCh:
		}
		p.Quit()
		select {
		case <-runDone:
			return
		case <-sigCh:
		case <-time.After(5 * time.Second):
		}
		p.Kill()
	}()

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) || errors.Is(err, tea.ErrInterrupted) {
		return nil
	}
	return err
}
