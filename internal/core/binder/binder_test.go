package binder

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/insureline/portal/internal/core/domain"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func value(v any) Fetcher {
	return func(context.Context) (any, error) { return v, nil }
}

func failing(err error) Fetcher {
	return func(context.Context) (any, error) { return nil, err }
}

// sequenced returns a fetcher that runs steps[i] on its i-th call and repeats
// the last step afterwards.
func sequenced(steps ...Fetcher) Fetcher {
	var n atomic.Int64
	return func(ctx context.Context) (any, error) {
		i := int(n.Add(1)) - 1
		if i >= len(steps) {
			i = len(steps) - 1
		}
		return steps[i](ctx)
	}
}

func gated(gate <-chan struct{}, v any) Fetcher {
	return func(ctx context.Context) (any, error) {
		select {
		case <-gate:
			return v, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func waitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func byName(states []State) map[string]State {
	out := make(map[string]State, len(states))
	for _, s := range states {
		out[s.Name] = s
	}
	return out
}

type resultLog struct {
	mu      sync.Mutex
	results []Result
	ch      chan Result
}

func newResultLog() *resultLog {
	return &resultLog{ch: make(chan Result, 16)}
}

func (l *resultLog) observe(_ string, r Result) {
	l.mu.Lock()
	l.results = append(l.results, r)
	l.mu.Unlock()
	l.ch <- r
}

func (l *resultLog) next(t *testing.T) Result {
	t.Helper()
	select {
	case r := <-l.ch:
		return r
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for fetch result")
		return ""
	}
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestBinder_StartsLoading(t *testing.T) {
	b := New([]Metric{{Name: "a"}, {Name: "b"}})
	for _, s := range b.Snapshot() {
		if !s.Loading {
			t.Fatalf("metric %s should start loading", s.Name)
		}
	}
}

func TestBinder_IndependentMetrics(t *testing.T) {
	b := New([]Metric{
		{Name: "claims", Fetch: failing(&domain.RemoteError{Service: "claims", Status: 502})},
		{Name: "policies", Fetch: value(3)},
	}, WithInterval(0))
	b.Start(context.Background())
	defer b.Stop()

	states := byName(b.Wait(waitCtx(t)))

	if states["claims"].Error != domain.ReasonServerError || states["claims"].Loading {
		t.Fatalf("unexpected claims state: %+v", states["claims"])
	}
	if states["policies"].Value != 3 || states["policies"].Error != "" || states["policies"].Loading {
		t.Fatalf("unexpected policies state: %+v", states["policies"])
	}
}

func TestBinder_NotFoundRendersEmpty(t *testing.T) {
	b := New([]Metric{
		{Name: "claims", Fetch: failing(&domain.RemoteError{Service: "claims", Status: 404, Message: "none"})},
	}, WithInterval(0))
	b.Start(context.Background())
	defer b.Stop()

	s := b.Wait(waitCtx(t))[0]
	if !s.Empty || s.Error != "" || s.Value != nil {
		t.Fatalf("expected empty state without error, got %+v", s)
	}
}

func TestBinder_ErrorKeepsPreviousValue(t *testing.T) {
	log := newResultLog()
	b := New([]Metric{
		{Name: "premium", Fetch: sequenced(value("$120.00"), failing(errors.New("boom")))},
	}, WithInterval(0), WithObserver(log.observe))
	b.Start(context.Background())
	defer b.Stop()

	if r := log.next(t); r != ResultOK {
		t.Fatalf("expected first fetch ok, got %s", r)
	}
	b.Refresh()
	if r := log.next(t); r != ResultError {
		t.Fatalf("expected second fetch error, got %s", r)
	}

	s := b.Snapshot()[0]
	if s.Value != "$120.00" || s.Error != domain.ReasonGeneric || s.Loading {
		t.Fatalf("expected stale value with error, got %+v", s)
	}
}

func TestBinder_RefreshKeepsLastGoodValuesUntilResolved(t *testing.T) {
	gateA := make(chan struct{})
	gateB := make(chan struct{})
	log := newResultLog()

	b := New([]Metric{
		{Name: "a", Fetch: sequenced(value(1), gated(gateA, 2))},
		{Name: "b", Fetch: sequenced(value("x"), gated(gateB, "y"))},
	}, WithInterval(0), WithObserver(log.observe))
	b.Start(context.Background())
	defer b.Stop()

	log.next(t)
	log.next(t)

	b.Refresh()
	states := byName(b.Snapshot())
	if states["a"].Value != 1 || !states["a"].Loading {
		t.Fatalf("a should keep 1 while loading: %+v", states["a"])
	}
	if states["b"].Value != "x" || !states["b"].Loading {
		t.Fatalf("b should keep x while loading: %+v", states["b"])
	}

	close(gateA)
	log.next(t)
	states = byName(b.Snapshot())
	if states["a"].Value != 2 || states["a"].Loading {
		t.Fatalf("a should be refreshed: %+v", states["a"])
	}
	if states["b"].Value != "x" || !states["b"].Loading {
		t.Fatalf("b must be untouched until its own fetch resolves: %+v", states["b"])
	}

	close(gateB)
	log.next(t)
	if s := byName(b.Snapshot())["b"]; s.Value != "y" {
		t.Fatalf("b should be refreshed: %+v", s)
	}
}

func TestBinder_StaleResponseDiscarded(t *testing.T) {
	slow := make(chan struct{})
	entered := make(chan struct{})
	log := newResultLog()

	first := func(ctx context.Context) (any, error) {
		close(entered)
		return gated(slow, "old")(ctx)
	}

	b := New([]Metric{
		{Name: "pending", Fetch: sequenced(first, value("new"))},
	}, WithInterval(0), WithObserver(log.observe))
	b.Start(context.Background())
	defer b.Stop()

	<-entered
	b.RefreshMetric("pending")
	if r := log.next(t); r != ResultOK {
		t.Fatalf("expected fresh response applied, got %s", r)
	}

	close(slow)
	if r := log.next(t); r != ResultStale {
		t.Fatalf("expected stale response discarded, got %s", r)
	}

	s := b.Snapshot()[0]
	if s.Value != "new" || s.Loading {
		t.Fatalf("stale response overwrote newer state: %+v", s)
	}
}

func TestBinder_StopCancelsInFlightRequests(t *testing.T) {
	cancelled := make(chan struct{})
	log := newResultLog()

	b := New([]Metric{
		{Name: "slow", Fetch: func(ctx context.Context) (any, error) {
			<-ctx.Done()
			close(cancelled)
			return nil, ctx.Err()
		}},
	}, WithInterval(0), WithObserver(log.observe))
	b.Start(context.Background())

	b.Stop()

	select {
	case <-cancelled:
	default:
		t.Fatalf("in-flight fetch did not observe cancellation")
	}
	if r := log.next(t); r != ResultAfterStop {
		t.Fatalf("expected late result dropped, got %s", r)
	}
	if s := b.Snapshot()[0]; s.Error != "" {
		t.Fatalf("late failure must not reach state: %+v", s)
	}

	// A refetch after Stop would close cancelled twice and panic.
	before := b.Snapshot()[0]
	b.Refresh()
	b.RefreshMetric("slow")
	if after := b.Snapshot()[0]; after != before {
		t.Fatalf("refresh after stop changed state: %+v -> %+v", before, after)
	}
}

func TestBinder_PeriodicRefresh(t *testing.T) {
	var calls atomic.Int64
	b := New([]Metric{
		{Name: "ticks", Fetch: func(context.Context) (any, error) {
			return calls.Add(1), nil
		}},
	}, WithInterval(10*time.Millisecond))
	b.Start(context.Background())
	defer b.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for calls.Load() < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("expected periodic refreshes, got %d calls", calls.Load())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestBinder_WaitReturnsOnContextDone(t *testing.T) {
	gate := make(chan struct{})
	defer close(gate)

	b := New([]Metric{{Name: "blocked", Fetch: gated(gate, 1)}}, WithInterval(0))
	b.Start(context.Background())
	defer b.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if s := b.Wait(ctx)[0]; !s.Loading {
		t.Fatalf("expected metric still loading, got %+v", s)
	}
}
