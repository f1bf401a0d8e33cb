// ABOUTME: Headless Renderer and View that keeps the latest payload and status
// ABOUTME: Lets the CLI, MCP tools and web surface drive a Coordinator without a live UI
package loader

import (
	"context"
	"sync"

	"github.com/harperreed/salesdash/models"
)

// Capture records what the coordinator would have shown.
type Capture struct {
	mu       sync.Mutex
	payload  *models.Payload
	source   Source
	status   Status
	busy     bool
	fallback error
	changed  chan struct{}
}

func NewCapture() *Capture {
	return &Capture{changed: make(chan struct{})}
}

func (c *Capture) Render(p *models.Payload, source Source) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.payload = p
	c.source = source
	c.fallback = nil
	c.notifyLocked()
}

func (c *Capture) SetStatus(s Status) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = s
	c.notifyLocked()
}

func (c *Capture) SetBusy(busy bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy = busy
	c.notifyLocked()
}

func (c *Capture) ShowFallback(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fallback = err
	c.notifyLocked()
}

func (c *Capture) notifyLocked() {
	close(c.changed)
	c.changed = make(chan struct{})
}

// Snapshot is a copy of what Capture holds.
type Snapshot struct {
	Payload  *models.Payload
	Source   Source
	Status   Status
	Busy     bool
	Fallback error
}

func (c *Capture) Latest() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		Payload:  c.payload,
		Source:   c.source,
		Status:   c.status,
		Busy:     c.busy,
		Fallback: c.fallback,
	}
}

// settled reports a terminal phase with no load running.
func (c *Capture) settledLocked() bool {
	if c.busy {
		return false
	}
	switch c.status.Phase {
	case PhaseReady, PhaseCached, PhaseFailed:
		return true
	}
	return false
}

// Settle runs trig on co and, when the load schedules a retry, waits for
// the retry chain to finish. The returned Result describes the final state.
func (c *Capture) Settle(ctx context.Context, co *Coordinator, trig Trigger) (Result, error) {
	res := co.Trigger(ctx, trig)
	if res.Outcome != OutcomeRetryScheduled {
		return res, nil
	}

	for {
		c.mu.Lock()
		if c.settledLocked() && !co.State().RetryPending {
			final := c.resultLocked(res)
			c.mu.Unlock()
			return final, nil
		}
		ch := c.changed
		c.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return res, ctx.Err()
		}
	}
}

func (c *Capture) resultLocked(first Result) Result {
	res := Result{Trigger: first.Trigger, Err: c.status.Err}
	switch c.status.Phase {
	case PhaseReady:
		res.Outcome = OutcomeSuccess
		res.Payload = c.payload
		res.Err = nil
	case PhaseCached:
		res.Outcome = OutcomeCached
		res.Payload = c.payload
	default:
		res.Outcome = OutcomeFailed
		if c.fallback != nil {
			res.Outcome = OutcomeFallback
			res.Err = c.fallback
		}
	}
	if res.Err == nil && res.Outcome != OutcomeSuccess {
		res.Err = first.Err
	}
	return res
}
