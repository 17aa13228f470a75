package jobs

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func waitCompletion(t *testing.T, c *Controller) Completion {
	t.Helper()
	select {
	case comp := <-c.Completions():
		return comp
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for completion")
		return Completion{}
	}
}

func TestSubmitAndAccept(t *testing.T) {
	c := New(2)
	defer c.Shutdown(time.Second)

	id := c.Submit(CategoryLoad, func(ctx context.Context) (any, error) {
		return "loaded", nil
	})
	if id == 0 {
		t.Fatal("expected a job id")
	}
	if active, ok := c.Active(CategoryLoad); !ok || active != id {
		t.Errorf("Active = %d, %v", active, ok)
	}

	comp := waitCompletion(t, c)
	if comp.ID != id || comp.Category != CategoryLoad || comp.Value != "loaded" {
		t.Errorf("unexpected completion %+v", comp)
	}
	if !c.Accept(comp) {
		t.Fatal("completion of the active job should be accepted")
	}
	if _, ok := c.Active(CategoryLoad); ok {
		t.Error("accepted handle should be consumed")
	}
	if c.Accept(comp) {
		t.Error("a consumed handle should not be accepted twice")
	}
}

func TestSubmit_SupersedesSameCategory(t *testing.T) {
	c := New(4)
	defer c.Shutdown(time.Second)

	firstCancelled := make(chan struct{})
	first := c.Submit(CategoryColumnStats, func(ctx context.Context) (any, error) {
		<-ctx.Done()
		close(firstCancelled)
		return "stale", nil
	})
	second := c.Submit(CategoryColumnStats, func(ctx context.Context) (any, error) {
		return "fresh", nil
	})
	if second <= first {
		t.Fatalf("ids should increase: %d then %d", first, second)
	}

	select {
	case <-firstCancelled:
	case <-time.After(2 * time.Second):
		t.Fatal("superseded job was not cancelled")
	}

	comp := waitCompletion(t, c)
	if comp.ID != second || comp.Value != "fresh" {
		t.Fatalf("expected the second job's completion, got %+v", comp)
	}
	if !c.Accept(comp) {
		t.Error("second job should be accepted")
	}
	if c.Accept(Completion{Category: CategoryColumnStats, ID: first, Value: "stale"}) {
		t.Error("superseded result should be dropped")
	}
}

func TestSubmit_CategoriesIndependent(t *testing.T) {
	c := New(4)
	defer c.Shutdown(time.Second)

	release := make(chan struct{})
	load := c.Submit(CategoryLoad, func(ctx context.Context) (any, error) {
		<-release
		return nil, nil
	})
	stats := c.Submit(CategoryColumnStats, func(ctx context.Context) (any, error) {
		return 1, nil
	})

	comp := waitCompletion(t, c)
	if comp.ID != stats || !c.Accept(comp) {
		t.Fatalf("stats completion not accepted: %+v", comp)
	}
	if id, ok := c.Active(CategoryLoad); !ok || id != load {
		t.Error("load job should still be active")
	}
	close(release)
	comp = waitCompletion(t, c)
	if comp.ID != load || !c.Accept(comp) {
		t.Fatalf("load completion not accepted: %+v", comp)
	}
}

func TestCancel(t *testing.T) {
	c := New(1)
	defer c.Shutdown(time.Second)

	started := make(chan struct{})
	id := c.Submit(CategoryColumnStats, func(ctx context.Context) (any, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	})
	<-started
	if !c.Cancel(CategoryColumnStats) {
		t.Fatal("cancel should report an active job")
	}
	if c.Cancel(CategoryColumnStats) {
		t.Error("second cancel should find nothing")
	}
	if c.Accept(Completion{Category: CategoryColumnStats, ID: id}) {
		t.Error("cancelled job must not be accepted")
	}

	select {
	case comp := <-c.Completions():
		t.Errorf("cancelled job delivered %+v", comp)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPanicRecovered(t *testing.T) {
	c := New(1)
	defer c.Shutdown(time.Second)

	c.Submit(CategoryLoad, func(ctx context.Context) (any, error) {
		panic("boom")
	})
	comp := waitCompletion(t, c)
	var jobErr *JobError
	if !errors.As(comp.Err, &jobErr) {
		t.Fatalf("expected *JobError, got %v", comp.Err)
	}
	if jobErr.Category != CategoryLoad || !strings.Contains(jobErr.Error(), "boom") {
		t.Errorf("unexpected error %v", jobErr)
	}
}

func TestWorkerPoolBound(t *testing.T) {
	c := New(1)
	defer c.Shutdown(time.Second)

	var running, peak atomic.Int32
	release := make(chan struct{})
	work := func(ctx context.Context) (any, error) {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		<-release
		running.Add(-1)
		return nil, nil
	}
	c.Submit(CategoryLoad, work)
	c.Submit(CategoryColumnStats, work)

	time.Sleep(50 * time.Millisecond)
	close(release)
	for i := 0; i < 2; i++ {
		c.Accept(waitCompletion(t, c))
	}
	if peak.Load() != 1 {
		t.Errorf("peak concurrency = %d, want 1", peak.Load())
	}
}

func TestShutdown(t *testing.T) {
	c := New(2)
	started := make(chan struct{})
	c.Submit(CategoryLoad, func(ctx context.Context) (any, error) {
		close(started)
		<-ctx.Done()
		return nil, nil
	})
	<-started
	if err := c.Shutdown(time.Second); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	select {
	case <-c.Done():
	default:
		t.Error("Done should be closed")
	}
	if id := c.Submit(CategoryLoad, func(ctx context.Context) (any, error) { return nil, nil }); id != 0 {
		t.Errorf("submit after shutdown returned %d", id)
	}
	if err := c.Shutdown(time.Second); err != nil {
		t.Errorf("second Shutdown: %v", err)
	}
}

func TestShutdown_Timeout(t *testing.T) {
	c := New(1)
	release := make(chan struct{})
	defer close(release)
	started := make(chan struct{})
	c.Submit(CategoryLoad, func(ctx context.Context) (any, error) {
		close(started)
		<-release
		return nil, nil
	})
	<-started
	if err := c.Shutdown(10 * time.Millisecond); !errors.Is(err, ErrShutdownTimeout) {
		t.Errorf("expected ErrShutdownTimeout, got %v", err)
	}
}

func TestCategoryString(t *testing.T) {
	if CategoryLoad.String() != "load" || CategoryColumnStats.String() != "column_stats" {
		t.Error("unexpected category names")
	}
}
