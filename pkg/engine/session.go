// Package engine wires the reducer, the statistics cache and the job
// controller into one session.
//
// A Session is driven from a single goroutine: Dispatch, Resize, Load and
// HandleCompletion must not be called concurrently. Workers only receive
// immutable snapshots and report back through Jobs().Completions().
package engine

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/vanderheijden86/msaview/internal/fasta"
	"github.com/vanderheijden86/msaview/pkg/alignment"
	"github.com/vanderheijden86/msaview/pkg/colstats"
	"github.com/vanderheijden86/msaview/pkg/core"
	"github.com/vanderheijden86/msaview/pkg/debug"
	"github.com/vanderheijden86/msaview/pkg/jobs"
	"github.com/vanderheijden86/msaview/pkg/metrics"
	"github.com/vanderheijden86/msaview/pkg/viewport"
)

const shutdownTimeout = 2 * time.Second

// Config configures a Session.
type Config struct {
	Stats         colstats.Params
	Workers       int
	InitialColumn int
	Method        colstats.Method
	// Seed fixes the random source used for consensus tie-breaks and kind
	// sampling. Zero picks a random seed.
	Seed uint64
}

// DefaultConfig returns the default window parameters and a random seed.
func DefaultConfig() Config {
	return Config{Stats: colstats.DefaultParams()}
}

// Session owns the state of one viewer instance.
type Session struct {
	state *core.State
	cache *colstats.Cache
	jobs  *jobs.Controller
	rng   *rand.Rand
}

// New returns an idle session.
func New(cfg Config) *Session {
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &Session{
		state: core.New(core.Options{InitialColumn: cfg.InitialColumn, Method: cfg.Method}),
		cache: colstats.NewCache(cfg.Stats, 0),
		jobs:  jobs.New(cfg.Workers),
		rng:   rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// State exposes the reducer state for rendering. Callers must not mutate it.
func (s *Session) State() *core.State { return s.state }

// Stats exposes the statistics cache for rendering.
func (s *Session) Stats() *colstats.Cache { return s.cache }

// Jobs exposes the controller so the event loop can wait on completions.
func (s *Session) Jobs() *jobs.Controller { return s.jobs }

// Loading reports whether a load job is in flight.
func (s *Session) Loading() bool {
	_, ok := s.jobs.Active(jobs.CategoryLoad)
	return ok
}

// StatsPending reports whether a statistics job is in flight.
func (s *Session) StatsPending() bool {
	_, ok := s.jobs.Active(jobs.CategoryColumnStats)
	return ok
}

func (s *Session) jobRNG() *rand.Rand {
	return rand.New(rand.NewPCG(s.rng.Uint64(), s.rng.Uint64()))
}

// Load starts loading source, superseding any load in flight. The current
// alignment stays visible until the new one arrives.
func (s *Session) Load(source string) uint64 {
	s.state.PrepareLoad(source)
	rng := s.jobRNG()
	id := s.jobs.Submit(jobs.CategoryLoad, func(ctx context.Context) (any, error) {
		return LoadAlignment(ctx, source, rng)
	})
	debug.Log("load %d started for %s", id, source)
	return id
}

// Reload loads the current source again.
func (s *Session) Reload() uint64 {
	if s.state.Source == "" {
		return 0
	}
	return s.Load(s.state.Source)
}

// LoadAlignment parses source, validates it and detects its alphabet.
func LoadAlignment(ctx context.Context, source string, rng *rand.Rand) (*alignment.Data, error) {
	defer metrics.Timer(metrics.AlignmentLoad)()
	records, err := fasta.ParseFile(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", source, err)
	}
	d, err := alignment.New(source, records)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", source, err)
	}
	d.Kind = alignment.DetectKind(d.Sequences, rng)
	return d, nil
}

// Dispatch applies a user action and updates the statistics cache according
// to the action's effect. It reports whether the state changed.
func (s *Session) Dispatch(a core.Action) bool {
	changed := s.state.Apply(a)
	switch core.Classify(a) {
	case core.StatsInvalidate:
		if changed {
			s.invalidateStats()
		}
		s.RefreshStats()
	case core.StatsExtend:
		s.RefreshStats()
	}
	return changed
}

// Resize updates the layout-driven dimensions.
func (s *Session) Resize(cols, rows, nameWidth int) {
	s.state.Resize(cols, rows, nameWidth)
	s.RefreshStats()
}

func (s *Session) invalidateStats() {
	s.jobs.Cancel(jobs.CategoryColumnStats)
	s.cache.Invalidate()
	metrics.CacheInvalidations.Inc()
	debug.Log("column stats invalidated (epoch %d)", s.cache.Epoch())
}

// RefreshStats submits a statistics job when the view has moved close to the
// edge of the cached window. It reports whether a job was submitted.
func (s *Session) RefreshStats() bool {
	if s.state.Data == nil {
		return false
	}
	plan, ok := s.cache.Plan(s.state.Viewport.Window().Cols)
	if !ok {
		return false
	}
	req := colstats.Request{
		Sequences: s.state.VisibleRecords(),
		Positions: plan.Positions,
		Method:    s.state.Method,
		Kind:      s.state.StatsKind(),
		Epoch:     plan.Epoch,
	}
	rng := s.jobRNG()
	id := s.jobs.Submit(jobs.CategoryColumnStats, func(ctx context.Context) (any, error) {
		defer metrics.Timer(metrics.ColumnStats)()
		return colstats.Compute(ctx, req, rng), nil
	})
	debug.Event("column_stats_submitted", map[string]any{
		"id":        id,
		"positions": len(plan.Positions),
		"start":     plan.Window.Start,
		"end":       plan.Window.End,
		"epoch":     plan.Epoch,
	})
	return true
}

// HandleCompletion applies a finished job. Superseded or cancelled results
// are dropped and HandleCompletion returns false.
func (s *Session) HandleCompletion(c jobs.Completion) bool {
	if !s.jobs.Accept(c) {
		return false
	}
	switch c.Category {
	case jobs.CategoryLoad:
		d, _ := c.Value.(*alignment.Data)
		if c.Err != nil || d == nil {
			err := c.Err
			if err == nil {
				err = fmt.Errorf("loading %s: no data", s.state.Source)
			}
			s.state.HandleLoadFailed(err)
			debug.Log("load %d failed: %v", c.ID, err)
			return true
		}
		s.state.HandleLoaded(d)
		s.jobs.Cancel(jobs.CategoryColumnStats)
		s.cache.Reset(d.Length)
		debug.Log("load %d finished: %d sequences of length %d (%s) in %v", c.ID, d.Len(), d.Length, d.Kind, c.Elapsed)
		s.RefreshStats()
	case jobs.CategoryColumnStats:
		res, ok := c.Value.(colstats.Result)
		if !ok {
			return false
		}
		if !s.cache.Merge(res) {
			metrics.ResultsDropped.Inc()
			debug.Log("column stats %d dropped: epoch %d is stale", c.ID, res.Epoch)
			return false
		}
		s.RefreshStats()
	}
	return true
}

// ComputeRange computes statistics for r synchronously over the current
// visible rows. It is used by the headless modes and does not touch the
// cache.
func (s *Session) ComputeRange(ctx context.Context, r viewport.Range) colstats.Result {
	if s.state.Data == nil {
		return colstats.Result{}
	}
	start := max(r.Start, 0)
	end := min(r.End, s.state.Data.Length)
	positions := make([]int, 0, max(end-start, 0))
	for p := start; p < end; p++ {
		positions = append(positions, p)
	}
	defer metrics.Timer(metrics.ColumnStats)()
	return colstats.Compute(ctx, colstats.Request{
		Sequences: s.state.VisibleRecords(),
		Positions: positions,
		Method:    s.state.Method,
		Kind:      s.state.StatsKind(),
	}, s.jobRNG())
}

// Install applies an already loaded alignment without a background job.
func (s *Session) Install(d *alignment.Data) {
	s.state.PrepareLoad(d.Source)
	s.state.HandleLoaded(d)
	s.jobs.Cancel(jobs.CategoryColumnStats)
	s.cache.Reset(d.Length)
}

// Close cancels all background work.
func (s *Session) Close() error {
	err := s.jobs.Shutdown(shutdownTimeout)
	if debug.Enabled() {
		debug.Log("session closed\n%s", metrics.Summary())
	}
	return err
}
