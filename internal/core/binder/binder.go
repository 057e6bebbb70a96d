// Package binder keeps a set of independently fetched dashboard metrics in
// sync with their remote sources.
//
// Each metric carries its own request sequence. A refresh issues a new
// sequence number per metric, and a response is applied only if it is newer
// than the last one applied for that metric, so a slow stale response can
// never overwrite fresher data. Stop cancels the refresh ticker and the
// context of every in-flight fetch; results that arrive afterwards are
// dropped.
package binder

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/insureline/portal/internal/core/domain"
)

// DefaultInterval is the refresh period used when none is configured.
const DefaultInterval = 30 * time.Second

// Fetcher loads the current value of one metric.
type Fetcher func(ctx context.Context) (any, error)

// Metric is a named, independently fetched piece of dashboard data.
type Metric struct {
	Name  string
	Label string
	Fetch Fetcher
}

// State is the renderable state of one metric. Value and Error may both be
// stale while Loading is true.
type State struct {
	Name    string `json:"name"`
	Label   string `json:"label"`
	Value   any    `json:"value"`
	Loading bool   `json:"loading"`
	Error   string `json:"error,omitempty"`
	Empty   bool   `json:"empty"`
}

// Result reports how a fetch response was handled.
type Result string

const (
	ResultOK        Result = "ok"
	ResultEmpty     Result = "empty"
	ResultError     Result = "error"
	ResultStale     Result = "stale"
	ResultAfterStop Result = "after_stop"
)

type entry struct {
	metric  Metric
	state   State
	issued  uint64
	applied uint64
}

// Binder owns the state of a fixed list of metrics.
type Binder struct {
	interval time.Duration
	classify func(error) domain.Failure
	observe  func(metric string, r Result)
	log      zerolog.Logger

	mu      sync.Mutex
	entries []*entry
	index   map[string]*entry
	changed chan struct{}
	ctx     context.Context
	cancel  context.CancelFunc
	started bool
	stopped bool

	wg sync.WaitGroup
}

// Option configures a Binder.
type Option func(*Binder)

// WithInterval sets the refresh period. Non-positive values disable the
// periodic refresh.
func WithInterval(d time.Duration) Option {
	return func(b *Binder) { b.interval = d }
}

// WithClassifier replaces domain.Classify.
func WithClassifier(fn func(error) domain.Failure) Option {
	return func(b *Binder) { b.classify = fn }
}

// WithObserver registers a callback invoked once per completed fetch.
func WithObserver(fn func(metric string, r Result)) Option {
	return func(b *Binder) { b.observe = fn }
}

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) Option {
	return func(b *Binder) { b.log = log }
}

// New builds a Binder. Every metric starts in the loading state.
func New(metrics []Metric, opts ...Option) *Binder {
	b := &Binder{
		interval: DefaultInterval,
		classify: domain.Classify,
		log:      zerolog.Nop(),
		index:    make(map[string]*entry, len(metrics)),
		changed:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	for _, m := range metrics {
		e := &entry{metric: m, state: State{Name: m.Name, Label: m.Label, Loading: true}}
		b.entries = append(b.entries, e)
		b.index[m.Name] = e
	}
	return b
}

// Start mounts the binder: it fetches every metric immediately and then on
// every tick until ctx is done or Stop is called. Calling Start twice is a
// no-op.
func (b *Binder) Start(ctx context.Context) {
	b.mu.Lock()
	if b.started || b.stopped {
		b.mu.Unlock()
		return
	}
	b.started = true
	b.ctx, b.cancel = context.WithCancel(ctx)
	b.mu.Unlock()

	b.Refresh()

	if b.interval <= 0 {
		return
	}
	b.wg.Add(1)
	go b.loop()
}

func (b *Binder) loop() {
	defer b.wg.Done()

	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-b.ctx.Done():
			return
		case <-ticker.C:
			b.Refresh()
		}
	}
}

// Refresh issues one fetch per metric. Metrics keep their last value until
// their own fetch resolves.
func (b *Binder) Refresh() {
	b.mu.Lock()
	if !b.started || b.stopped {
		b.mu.Unlock()
		return
	}
	for _, e := range b.entries {
		b.issueLocked(e)
	}
	b.broadcastLocked()
	b.mu.Unlock()
}

// RefreshMetric re-fetches a single metric. Unknown names are ignored.
func (b *Binder) RefreshMetric(name string) {
	b.mu.Lock()
	e, ok := b.index[name]
	if !ok || !b.started || b.stopped {
		b.mu.Unlock()
		return
	}
	b.issueLocked(e)
	b.broadcastLocked()
	b.mu.Unlock()
}

func (b *Binder) issueLocked(e *entry) {
	e.issued++
	seq := e.issued
	e.state.Loading = true
	e.state.Error = ""

	ctx := b.ctx
	fetch := e.metric.Fetch
	name := e.metric.Name

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		v, err := fetch(ctx)
		b.apply(name, seq, v, err)
	}()
}

func (b *Binder) apply(name string, seq uint64, v any, err error) {
	b.mu.Lock()
	e := b.index[name]

	var result Result
	switch {
	case b.stopped:
		result = ResultAfterStop
	case seq <= e.applied:
		result = ResultStale
	default:
		e.applied = seq
		e.state.Loading = e.issued != seq
		result = b.applyResultLocked(e, v, err)
	}

	if result != ResultAfterStop && result != ResultStale {
		b.broadcastLocked()
	}
	b.mu.Unlock()

	if result == ResultStale {
		b.log.Debug().Str("metric", name).Uint64("seq", seq).Msg("stale metric response discarded")
	}
	if b.observe != nil {
		b.observe(name, result)
	}
}

func (b *Binder) applyResultLocked(e *entry, v any, err error) Result {
	if err == nil {
		e.state.Value = v
		e.state.Empty = false
		e.state.Error = ""
		return ResultOK
	}

	f := b.classify(err)
	if f.Empty() {
		e.state.Value = nil
		e.state.Empty = true
		e.state.Error = ""
		return ResultEmpty
	}

	e.state.Error = f.Reason
	b.log.Warn().Err(err).Str("metric", e.metric.Name).Msg("metric fetch failed")
	return ResultError
}

// Stop unmounts the binder: the ticker stops, every in-flight fetch sees its
// context cancelled and late results are dropped. Stop waits for all
// goroutines started by the binder to return.
func (b *Binder) Stop() {
	b.mu.Lock()
	if b.stopped {
		b.mu.Unlock()
		return
	}
	b.stopped = true
	if b.cancel != nil {
		b.cancel()
	}
	b.broadcastLocked()
	b.mu.Unlock()

	b.wg.Wait()
}

// Snapshot returns the current state of every metric in declaration order.
func (b *Binder) Snapshot() []State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snapshotLocked()
}

// Wait blocks until no metric is loading, the binder is stopped or ctx is
// done, and returns the snapshot at that point.
func (b *Binder) Wait(ctx context.Context) []State {
	for {
		b.mu.Lock()
		if b.stopped || !b.loadingLocked() {
			snap := b.snapshotLocked()
			b.mu.Unlock()
			return snap
		}
		ch := b.changed
		b.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return b.Snapshot()
		}
	}
}

func (b *Binder) loadingLocked() bool {
	for _, e := range b.entries {
		if e.state.Loading {
			return true
		}
	}
	return false
}

func (b *Binder) snapshotLocked() []State {
	out := make([]State, len(b.entries))
	for i, e := range b.entries {
		out[i] = e.state
	}
	return out
}

// Changed returns a channel that is closed on the next state change. Take a
// Snapshot after it fires to observe the latest state.
func (b *Binder) Changed() <-chan struct{} {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.changed
}

// broadcastLocked wakes every waiter on the current change channel.
func (b *Binder) broadcastLocked() {
	close(b.changed)
	b.changed = make(chan struct{})
}
