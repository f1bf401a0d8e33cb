// ABOUTME: Load triggers and the retry/timeout policy
// ABOUTME: Automatic triggers fail fast and yield to user interaction
package loader

import (
	"math"
	"time"
)

// Trigger identifies what started a load.
type Trigger int

const (
	TriggerManual Trigger = iota
	TriggerAutoRefresh
	TriggerVisibility
	TriggerFilterChange
	TriggerRetry
)

func (t Trigger) String() string {
	switch t {
	case TriggerManual:
		return "manual"
	case TriggerAutoRefresh:
		return "auto_refresh"
	case TriggerVisibility:
		return "visibility"
	case TriggerFilterChange:
		return "filter_change"
	case TriggerRetry:
		return "retry"
	default:
		return "unknown"
	}
}

// Automatic reports whether the trigger was not a direct user action.
// Automatic triggers are dropped while the user is interacting.
func (t Trigger) Automatic() bool {
	return t != TriggerManual
}

// retryEligible reports whether a failure may schedule a retry. Retries
// themselves stay eligible so a chain runs until the policy's limit.
func (t Trigger) retryEligible() bool {
	return t == TriggerManual || t == TriggerRetry
}

// Policy holds retry and timeout settings.
type Policy struct {
	MaxRetries     int
	RetryBaseDelay time.Duration
	RetryFactor    float64
	ManualTimeout  time.Duration
	AutoTimeout    time.Duration
}

// DefaultPolicy returns three retries at 2s, 3s and 4.5s with 30s manual and
// 15s automatic deadlines.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries:     3,
		RetryBaseDelay: 2 * time.Second,
		RetryFactor:    1.5,
		ManualTimeout:  30 * time.Second,
		AutoTimeout:    15 * time.Second,
	}
}

// RetryDelay returns the wait before retry number attempt (1-based).
func (p Policy) RetryDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return time.Duration(float64(p.RetryBaseDelay) * math.Pow(p.RetryFactor, float64(attempt-1)))
}

// Timeout returns the deadline for a trigger.
func (p Policy) Timeout(t Trigger) time.Duration {
	if t.Automatic() {
		return p.AutoTimeout
	}
	return p.ManualTimeout
}
