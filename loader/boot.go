// ABOUTME: Startup sequence: cached snapshot first, then the endpoint probe, then the first load
// ABOUTME: The caller starts auto refresh only when Boot reports the endpoint reachable
package loader

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Prober checks that the endpoint answers.
type Prober interface {
	Ping(ctx context.Context) (time.Duration, error)
}

// BootResult reports what startup showed.
type BootResult struct {
	CachedShown bool
	Reachable   bool
	ProbeErr    error
	Load        Result
}

// Boot shows a fresh cached snapshot immediately, probes the endpoint and,
// when it answers, runs the first manual load. When the probe fails and no
// snapshot was shown the blocking fallback is displayed instead.
func (c *Coordinator) Boot(ctx context.Context, probe Prober) BootResult {
	var res BootResult

	if entry := c.cache.Read(ctx); entry != nil {
		c.renderer.Render(entry.Payload, SourceCached)
		c.view.SetStatus(Status{Phase: PhaseCached, CapturedAt: entry.CapturedAt()})
		res.CachedShown = true
	}

	if probe != nil {
		latency, err := probe.Ping(ctx)
		if err != nil {
			c.logger.Warn("endpoint probe failed", zap.Error(err))
			res.ProbeErr = err
			if !res.CachedShown {
				c.view.SetStatus(Status{Phase: PhaseFailed, Err: err})
				c.view.ShowFallback(err)
			}
			return res
		}
		c.logger.Info("endpoint reachable", zap.Duration("latency", latency))
	}

	res.Reachable = true
	res.Load = c.Trigger(ctx, TriggerManual)
	return res
}
