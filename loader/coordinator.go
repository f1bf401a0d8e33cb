// ABOUTME: Load Coordinator: the single entry point for every dashboard load
// ABOUTME: Owns the in-flight and interaction guards, cache fallback, retries and terminal failure
package loader

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/harperreed/salesdash/cache"
	"github.com/harperreed/salesdash/clock"
	"github.com/harperreed/salesdash/models"
	"github.com/harperreed/salesdash/transport"
	"go.uber.org/zap"
)

// Fetcher performs one request against the endpoint.
type Fetcher interface {
	Fetch(ctx context.Context, req transport.Request) (*models.Payload, error)
}

// SnapshotCache is the fallback slot.
type SnapshotCache interface {
	Write(ctx context.Context, payload *models.Payload, filters models.Filters)
	Read(ctx context.Context) *cache.Entry
}

// Source tells a Renderer where a payload came from.
type Source int

const (
	SourceFresh Source = iota
	SourceCached
)

func (s Source) String() string {
	if s == SourceCached {
		return "cached"
	}
	return "fresh"
}

// Renderer receives every payload that should be shown.
type Renderer interface {
	Render(payload *models.Payload, source Source)
}

// View is the status surface around the panels.
type View interface {
	SetStatus(Status)
	SetBusy(busy bool)
	ShowFallback(err error)
}

// Recorder journals finished loads.
type Recorder interface {
	RecordLoad(ctx context.Context, rec Record) error
}

// Record is one journal row.
type Record struct {
	Trigger   Trigger
	Outcome   Outcome
	Filters   string
	StartedAt time.Time
	Duration  time.Duration
	Attempt   int
	ErrorKind string
	Error     string
}

// Config wires a Coordinator. Fetcher, Cache, Renderer, View and Filters are required.
type Config struct {
	Fetcher  Fetcher
	Cache    SnapshotCache
	Renderer Renderer
	View     View
	Filters  func() models.Filters
	Recorder Recorder
	Clock    clock.Clock
	Logger   *zap.Logger
	Policy   Policy
}

// State is a copy of the coordinator's mutable state.
type State struct {
	Loading      bool
	Interacting  bool
	Failures     int
	RetryPending bool
	LastGood     *models.Payload
	LastSuccess  time.Time
}

// Coordinator serializes loads. At most one request is in flight; a trigger
// arriving while one is in flight is dropped, not queued.
type Coordinator struct {
	fetcher  Fetcher
	cache    SnapshotCache
	renderer Renderer
	view     View
	filters  func() models.Filters
	recorder Recorder
	clock    clock.Clock
	logger   *zap.Logger
	policy   Policy

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu          sync.Mutex
	loading     bool
	interacting bool
	failures    int
	generation  uint64
	retryTimer  clock.Timer
	lastGood    *models.Payload
	lastSuccess time.Time
	closed      bool
}

// New creates a coordinator.
func New(cfg Config) (*Coordinator, error) {
	if cfg.Fetcher == nil || cfg.Cache == nil || cfg.Renderer == nil || cfg.View == nil || cfg.Filters == nil {
		return nil, fmt.Errorf("coordinator requires fetcher, cache, renderer, view and filters")
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Policy == (Policy{}) {
		cfg.Policy = DefaultPolicy()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		fetcher:  cfg.Fetcher,
		cache:    cfg.Cache,
		renderer: cfg.Renderer,
		view:     cfg.View,
		filters:  cfg.Filters,
		recorder: cfg.Recorder,
		clock:    cfg.Clock,
		logger:   cfg.Logger,
		policy:   cfg.Policy,
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// SetInteracting records whether the user is editing filters.
func (c *Coordinator) SetInteracting(interacting bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.interacting = interacting
}

// Busy reports whether a load is in flight.
func (c *Coordinator) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Interacting reports the interaction guard.
func (c *Coordinator) Interacting() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.interacting
}

// State returns a snapshot of the coordinator's state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{
		Loading:      c.loading,
		Interacting:  c.interacting,
		Failures:     c.failures,
		RetryPending: c.retryTimer != nil,
		LastGood:     c.lastGood,
		LastSuccess:  c.lastSuccess,
	}
}

// Trigger runs one load cycle and returns how it ended. It blocks until the
// request settles or its deadline passes.
func (c *Coordinator) Trigger(ctx context.Context, trig Trigger) Result {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return Result{Outcome: OutcomeStale, Trigger: trig}
	}
	if c.loading {
		c.mu.Unlock()
		c.logger.Debug("load dropped, already loading", zap.Stringer("trigger", trig))
		return Result{Outcome: OutcomeDroppedInFlight, Trigger: trig}
	}
	if trig.Automatic() && c.interacting {
		c.mu.Unlock()
		c.logger.Debug("load dropped, user is interacting", zap.Stringer("trigger", trig))
		return Result{Outcome: OutcomeDroppedInteracting, Trigger: trig}
	}
	c.loading = true
	c.generation++
	gen := c.generation
	attempt := c.failures
	if trig == TriggerManual {
		c.stopRetryLocked()
	}
	c.mu.Unlock()

	filters := c.filters()
	startedAt := c.clock.Now()

	c.view.SetBusy(true)
	defer func() {
		c.mu.Lock()
		if c.generation == gen {
			c.loading = false
		}
		c.mu.Unlock()
		c.view.SetBusy(false)
	}()

	if trig == TriggerRetry {
		c.view.SetStatus(Status{Phase: PhaseRetrying, Trigger: trig, Attempt: attempt, MaxRetries: c.policy.MaxRetries})
	} else {
		c.view.SetStatus(Status{Phase: PhaseLoading, Trigger: trig})
	}
	c.logger.Info("load started",
		zap.Stringer("trigger", trig),
		zap.String("filters", filters.Encode()),
		zap.Int("attempt", attempt))

	payload, warnings, err := c.fetch(ctx, trig, filters)
	elapsed := c.clock.Now().Sub(startedAt)

	if !c.current(gen) {
		c.logger.Debug("discarding result of superseded load", zap.Stringer("trigger", trig))
		return Result{Outcome: OutcomeStale, Trigger: trig, Duration: elapsed}
	}

	// Cache and journal writes outlive a caller that has already gone away.
	storeCtx := context.WithoutCancel(ctx)

	var res Result
	switch {
	case err == nil:
		res = c.succeed(storeCtx, trig, payload, filters, elapsed)
		res.Warnings = warnings
	case ctx.Err() != nil:
		res = c.abandon(trig, err, elapsed)
	default:
		res = c.fail(storeCtx, trig, err, elapsed)
	}

	c.record(storeCtx, Record{
		Trigger:   trig,
		Outcome:   res.Outcome,
		Filters:   filters.Encode(),
		StartedAt: startedAt,
		Duration:  elapsed,
		Attempt:   attempt,
		ErrorKind: transport.Kind(err),
		Error:     errString(err),
	})
	return res
}

type fetchResult struct {
	payload *models.Payload
	err     error
}

// fetch races the request against the coordinator's own deadline. The
// results channel is buffered so a response arriving after the deadline is
// dropped without blocking its goroutine.
func (c *Coordinator) fetch(ctx context.Context, trig Trigger, filters models.Filters) (*models.Payload, []string, error) {
	timeout := c.policy.Timeout(trig)
	fetchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan fetchResult, 1)
	go func() {
		p, err := c.fetcher.Fetch(fetchCtx, transport.Request{
			Filters: filters,
			Timeout: timeout,
			Retry:   trig == TriggerRetry,
		})
		results <- fetchResult{payload: p, err: err}
	}()

	expired := make(chan struct{})
	timer := c.clock.AfterFunc(timeout, func() { close(expired) })
	defer timer.Stop()

	var r fetchResult
	select {
	case r = <-results:
	case <-expired:
		return nil, nil, &transport.RequestError{Op: "fetch", Err: transport.ErrTimeout}
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	case <-c.ctx.Done():
		return nil, nil, c.ctx.Err()
	}
	if r.err != nil {
		return nil, nil, r.err
	}

	check := models.Validate(r.payload)
	for _, w := range check.Warnings {
		c.logger.Warn("payload warning", zap.String("warning", w))
	}
	if !check.Valid() {
		return nil, nil, &transport.RequestError{Op: "validate", Err: fmt.Errorf("%w: %v", transport.ErrValidation, check.Err())}
	}
	return r.payload, check.Warnings, nil
}

func (c *Coordinator) succeed(ctx context.Context, trig Trigger, payload *models.Payload, filters models.Filters, elapsed time.Duration) Result {
	c.mu.Lock()
	c.failures = 0
	c.stopRetryLocked()
	c.lastGood = payload
	c.lastSuccess = c.clock.Now()
	c.mu.Unlock()

	c.cache.Write(ctx, payload, filters)
	c.renderer.Render(payload, SourceFresh)
	c.view.SetStatus(Status{Phase: PhaseReady, Trigger: trig, Elapsed: elapsed})
	c.logger.Info("load succeeded", zap.Stringer("trigger", trig), zap.Duration("elapsed", elapsed))
	return Result{Outcome: OutcomeSuccess, Trigger: trig, Payload: payload, Duration: elapsed}
}

// abandon ends a load whose caller cancelled it. Nothing failed on the
// endpoint side, so the retry state and the cache are left alone.
func (c *Coordinator) abandon(trig Trigger, err error, elapsed time.Duration) Result {
	c.logger.Info("load cancelled by caller", zap.Stringer("trigger", trig), zap.Duration("elapsed", elapsed))

	c.mu.Lock()
	pending := c.retryTimer != nil
	attempt := c.failures
	c.mu.Unlock()

	if pending {
		c.view.SetStatus(Status{Phase: PhaseRetrying, Trigger: trig, Attempt: attempt, MaxRetries: c.policy.MaxRetries, Err: err})
	} else {
		c.view.SetStatus(Status{Phase: PhaseIdle, Trigger: trig})
	}
	return Result{Outcome: OutcomeCancelled, Trigger: trig, Err: err, Duration: elapsed}
}

// fail tries, in order: a fresh cached snapshot, a retry, terminal failure.
// Automatic loads never touch the failure count or a pending retry; only
// manual loads and their retries advance the chain.
func (c *Coordinator) fail(ctx context.Context, trig Trigger, err error, elapsed time.Duration) Result {
	c.logger.Warn("load failed",
		zap.Stringer("trigger", trig),
		zap.String("kind", transport.Kind(err)),
		zap.Duration("elapsed", elapsed),
		zap.Error(err))

	if entry := c.cache.Read(ctx); entry != nil {
		c.mu.Lock()
		c.failures = 0
		c.mu.Unlock()
		c.renderer.Render(entry.Payload, SourceCached)
		c.view.SetStatus(Status{Phase: PhaseCached, Trigger: trig, CapturedAt: entry.CapturedAt(), Err: err})
		return Result{Outcome: OutcomeCached, Trigger: trig, Payload: entry.Payload, Err: err, Duration: elapsed}
	}

	c.mu.Lock()
	if !trig.retryEligible() {
		pending := c.retryTimer != nil
		attempt := c.failures
		c.mu.Unlock()

		if pending {
			c.view.SetStatus(Status{Phase: PhaseRetrying, Trigger: trig, Attempt: attempt, MaxRetries: c.policy.MaxRetries, Err: err})
		} else {
			c.view.SetStatus(Status{Phase: PhaseFailed, Trigger: trig, Err: err})
		}
		return Result{Outcome: OutcomeFailed, Trigger: trig, Err: err, Duration: elapsed}
	}
	if c.failures < c.policy.MaxRetries && !c.closed {
		c.failures++
		attempt := c.failures
		delay := c.policy.RetryDelay(attempt)
		c.scheduleRetryLocked(delay)
		c.mu.Unlock()

		c.logger.Info("retry scheduled", zap.Int("attempt", attempt), zap.Duration("delay", delay))
		c.view.SetStatus(Status{Phase: PhaseRetrying, Trigger: trig, Attempt: attempt, MaxRetries: c.policy.MaxRetries, Err: err})
		return Result{Outcome: OutcomeRetryScheduled, Trigger: trig, Err: err, Duration: elapsed}
	}
	c.failures = 0
	c.mu.Unlock()

	c.view.SetStatus(Status{Phase: PhaseFailed, Trigger: trig, Err: err})
	c.view.ShowFallback(err)
	return Result{Outcome: OutcomeFallback, Trigger: trig, Err: err, Duration: elapsed}
}

func (c *Coordinator) scheduleRetryLocked(delay time.Duration) {
	c.wg.Add(1)
	var timer clock.Timer
	timer = c.clock.AfterFunc(delay, func() {
		c.mu.Lock()
		if c.retryTimer == timer {
			c.retryTimer = nil
		}
		c.mu.Unlock()
		go func() {
			defer c.wg.Done()
			c.runRetry()
		}()
	})
	c.retryTimer = timer
}

func (c *Coordinator) stopRetryLocked() {
	if c.retryTimer == nil {
		return
	}
	if c.retryTimer.Stop() {
		c.wg.Done()
	}
	c.retryTimer = nil
}

func (c *Coordinator) runRetry() {
	res := c.Trigger(c.ctx, TriggerRetry)
	if res.Outcome == OutcomeDroppedInFlight {
		// An automatic load holds the slot; try again after the same delay.
		c.mu.Lock()
		if !c.closed && c.retryTimer == nil && c.failures > 0 {
			c.scheduleRetryLocked(c.policy.RetryDelay(c.failures))
		}
		c.mu.Unlock()
		return
	}
	if res.Outcome == OutcomeDroppedInteracting {
		// The chain ends here; the next manual load starts a fresh one.
		c.mu.Lock()
		c.failures = 0
		c.mu.Unlock()
		c.view.SetStatus(Status{Phase: PhaseFailed, Trigger: TriggerRetry})
	}
}

func (c *Coordinator) current(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed && c.generation == gen
}

func (c *Coordinator) record(ctx context.Context, rec Record) {
	if c.recorder == nil {
		return
	}
	if err := c.recorder.RecordLoad(ctx, rec); err != nil {
		c.logger.Warn("failed to record load", zap.Error(err))
	}
}

// Close cancels any pending retry and in-flight request and waits for
// background retries to finish. Later triggers return OutcomeStale.
func (c *Coordinator) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.generation++
	c.loading = false
	c.stopRetryLocked()
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
