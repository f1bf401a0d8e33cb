// ABOUTME: Auto-refresh scheduler feeding automatic triggers into the load coordinator
// ABOUTME: Interval refresh, delayed refresh on focus regain, and debounced filter edits
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/harperreed/salesdash/clock"
	"github.com/harperreed/salesdash/loader"
	"go.uber.org/zap"
)

const (
	DefaultInterval        = 30 * time.Second
	DefaultVisibilityDelay = time.Second
	DefaultDebounce        = 350 * time.Millisecond
)

// Target is the coordinator as seen by the scheduler.
type Target interface {
	Trigger(ctx context.Context, trig loader.Trigger) loader.Result
	Busy() bool
}

// Scheduler owns three independent timers. Each is re-armed by clearing the
// pending one first, so at most one of each kind is ever pending.
type Scheduler struct {
	target          Target
	clock           clock.Clock
	logger          *zap.Logger
	interval        time.Duration
	visibilityDelay time.Duration
	debounce        time.Duration

	mu              sync.Mutex
	ctx             context.Context
	running         bool
	enabled         bool
	visible         bool
	intervalTimer   clock.Timer
	visibilityTimer clock.Timer
	debounceTimer   clock.Timer
}

type Option func(*Scheduler)

func WithClock(c clock.Clock) Option {
	return func(s *Scheduler) {
		s.clock = c
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

// WithInterval overrides the refresh period.
func WithInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithDebounce overrides the filter-edit debounce window.
func WithDebounce(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.debounce = d
		}
	}
}

// New creates a stopped scheduler with auto refresh enabled and the
// terminal considered visible.
func New(target Target, opts ...Option) *Scheduler {
	s := &Scheduler{
		target:          target,
		clock:           clock.Real(),
		logger:          zap.NewNop(),
		interval:        DefaultInterval,
		visibilityDelay: DefaultVisibilityDelay,
		debounce:        DefaultDebounce,
		ctx:             context.Background(),
		enabled:         true,
		visible:         true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start arms the interval timer. Triggers run with ctx.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.ctx = ctx
	s.running = true
	s.armIntervalLocked()
	s.logger.Debug("auto refresh started", zap.Duration("interval", s.interval))
}

// Stop cancels every pending timer.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	stopTimer(&s.intervalTimer)
	stopTimer(&s.visibilityTimer)
	stopTimer(&s.debounceTimer)
}

// SetEnabled toggles auto refresh. Disabling drops pending delayed triggers.
func (s *Scheduler) SetEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = enabled
	if !enabled {
		stopTimer(&s.visibilityTimer)
		stopTimer(&s.debounceTimer)
	}
}

func (s *Scheduler) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

// SetVisible reports terminal focus. Regaining it with auto refresh enabled
// schedules one delayed automatic load.
func (s *Scheduler) SetVisible(visible bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	regained := visible && !s.visible
	s.visible = visible
	if !visible {
		stopTimer(&s.visibilityTimer)
		return
	}
	if regained && s.enabled && s.running {
		stopTimer(&s.visibilityTimer)
		s.visibilityTimer = s.afterLocked(s.visibilityDelay, loader.TriggerVisibility, &s.visibilityTimer)
	}
}

// FilterChanged debounces filter edits into a single automatic load that
// reads the filters current when it fires.
func (s *Scheduler) FilterChanged() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enabled || !s.running {
		return
	}
	stopTimer(&s.debounceTimer)
	s.debounceTimer = s.afterLocked(s.debounce, loader.TriggerFilterChange, &s.debounceTimer)
}

func (s *Scheduler) armIntervalLocked() {
	var t clock.Timer
	t = s.clock.AfterFunc(s.interval, func() { s.tick(t) })
	s.intervalTimer = t
}

func (s *Scheduler) tick(t clock.Timer) {
	s.mu.Lock()
	if !s.running || s.intervalTimer != t {
		s.mu.Unlock()
		return
	}
	s.armIntervalLocked()
	due := s.enabled && s.visible
	ctx := s.ctx
	s.mu.Unlock()

	if !due || s.target.Busy() {
		return
	}
	s.run(ctx, loader.TriggerAutoRefresh)
}

// afterLocked arms a one-shot trigger stored in slot. A timer that fires
// after being replaced does nothing.
func (s *Scheduler) afterLocked(d time.Duration, trig loader.Trigger, slot *clock.Timer) clock.Timer {
	var t clock.Timer
	t = s.clock.AfterFunc(d, func() {
		s.mu.Lock()
		if *slot != t {
			s.mu.Unlock()
			return
		}
		*slot = nil
		due := s.running && s.enabled
		ctx := s.ctx
		s.mu.Unlock()

		if due {
			s.run(ctx, trig)
		}
	})
	return t
}

func (s *Scheduler) run(ctx context.Context, trig loader.Trigger) {
	res := s.target.Trigger(ctx, trig)
	s.logger.Debug("automatic trigger", zap.Stringer("trigger", trig), zap.Stringer("outcome", res.Outcome))
}

func stopTimer(slot *clock.Timer) {
	if *slot != nil {
		(*slot).Stop()
		*slot = nil
	}
}
