// Package jobs runs background work with one active job per category.
//
// Submitting a job cancels the previous job of the same category before the
// new one starts. Workers receive a context and are expected to poll it at a
// bounded granularity; a cancelled job never delivers a result. Completions
// flow through a single channel and are checked against the active handle by
// Accept, which must be called from the goroutine that owns the results.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	msvdebug "github.com/vanderheijden86/msaview/pkg/debug"
	"github.com/vanderheijden86/msaview/pkg/metrics"
)

// Category identifies a job slot.
type Category int

const (
	CategoryLoad Category = iota
	CategoryColumnStats
)

func (c Category) String() string {
	switch c {
	case CategoryLoad:
		return "load"
	case CategoryColumnStats:
		return "column_stats"
	default:
		return fmt.Sprintf("category(%d)", int(c))
	}
}

// Work is one unit of background computation.
type Work func(ctx context.Context) (any, error)

// Completion carries a finished job's outcome.
type Completion struct {
	Category Category
	ID       uint64
	Value    any
	Err      error
	Elapsed  time.Duration
}

// JobError wraps a panic raised inside a job.
type JobError struct {
	Category Category
	Cause    error
}

func (e *JobError) Error() string {
	return fmt.Sprintf("%s job: %v", e.Category, e.Cause)
}

func (e *JobError) Unwrap() error {
	return e.Cause
}

// ErrShutdownTimeout is returned by Shutdown when workers outlive the timeout.
var ErrShutdownTimeout = errors.New("jobs still running after shutdown timeout")

const completionBuffer = 8

type handle struct {
	id        uint64
	cancel    context.CancelFunc
	cancelled bool
}

// Controller owns the active handle of every category.
type Controller struct {
	mu     sync.Mutex
	active map[Category]*handle
	nextID uint64
	closed bool

	sem         *semaphore.Weighted
	completions chan Completion
	done        chan struct{}
	wg          sync.WaitGroup
}

// New returns a controller whose workers share a pool of the given size.
// A size of zero or less means GOMAXPROCS.
func New(workers int) *Controller {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Controller{
		active:      make(map[Category]*handle),
		sem:         semaphore.NewWeighted(int64(workers)),
		completions: make(chan Completion, completionBuffer),
		done:        make(chan struct{}),
	}
}

// Completions delivers finished, uncancelled jobs.
func (c *Controller) Completions() <-chan Completion {
	return c.completions
}

// Done is closed once Shutdown has run.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

// Submit cancels any active job of category and starts work in its place.
// It returns the new job's id, or 0 after Shutdown.
func (c *Controller) Submit(category Category, work Work) uint64 {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return 0
	}
	if prev := c.active[category]; prev != nil {
		prev.cancelled = true
		prev.cancel()
		metrics.JobsSuperseded.Inc()
		msvdebug.Event("job_superseded", map[string]any{"category": category.String(), "id": prev.id})
	}
	c.nextID++
	id := c.nextID
	ctx, cancel := context.WithCancel(context.Background())
	c.active[category] = &handle{id: id, cancel: cancel}
	c.wg.Add(1)
	c.mu.Unlock()

	metrics.JobsSubmitted.Inc()
	go c.run(ctx, category, id, work)
	return id
}

func (c *Controller) run(ctx context.Context, category Category, id uint64, work Work) {
	defer c.wg.Done()
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return
	}
	start := time.Now()
	value, err := safeRun(ctx, category, work)
	c.sem.Release(1)

	if ctx.Err() != nil {
		msvdebug.Event("job_cancelled", map[string]any{"category": category.String(), "id": id})
		return
	}
	comp := Completion{Category: category, ID: id, Value: value, Err: err, Elapsed: time.Since(start)}
	select {
	case c.completions <- comp:
	case <-ctx.Done():
	case <-c.done:
	}
}

func safeRun(ctx context.Context, category Category, work Work) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &JobError{
				Category: category,
				Cause:    fmt.Errorf("panic: %v\n%s", r, debug.Stack()),
			}
		}
	}()
	return work(ctx)
}

// Accept reports whether comp belongs to the active, uncancelled handle of
// its category. An accepted completion consumes the handle; anything else is
// a stale result and should be dropped.
func (c *Controller) Accept(comp Completion) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	h := c.active[comp.Category]
	if h == nil || h.id != comp.ID || h.cancelled {
		metrics.ResultsDropped.Inc()
		msvdebug.Event("job_result_dropped", map[string]any{"category": comp.Category.String(), "id": comp.ID})
		return false
	}
	delete(c.active, comp.Category)
	h.cancel()
	return true
}

// Cancel stops the active job of category, if any.
func (c *Controller) Cancel(category Category) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	h := c.active[category]
	if h == nil {
		return false
	}
	h.cancelled = true
	h.cancel()
	delete(c.active, category)
	return true
}

// Active returns the id of the running job of category.
func (c *Controller) Active(category Category) (uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if h := c.active[category]; h != nil {
		return h.id, true
	}
	return 0, false
}

// Shutdown cancels every job and waits up to timeout for workers to return.
// Further submissions are ignored.
func (c *Controller) Shutdown(timeout time.Duration) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	for cat, h := range c.active {
		h.cancelled = true
		h.cancel()
		delete(c.active, cat)
	}
	close(c.done)
	c.mu.Unlock()

	finished := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(finished)
	}()
	select {
	case <-finished:
		return nil
	case <-time.After(timeout):
		return ErrShutdownTimeout
	}
}
