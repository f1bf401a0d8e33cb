// ABOUTME: Load outcomes and user-visible status phases
// ABOUTME: Status renders as the short text shown in the dashboard status line
package loader

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/harperreed/salesdash/models"
)

// Phase is the coarse state shown to the user.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseRetrying
	PhaseCached
	PhaseReady
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseRetrying:
		return "retrying"
	case PhaseCached:
		return "using cached data"
	case PhaseReady:
		return "ready"
	case PhaseFailed:
		return "failed"
	default:
		return "idle"
	}
}

// Status is one status-line update.
type Status struct {
	Phase      Phase
	Trigger    Trigger
	Attempt    int
	MaxRetries int
	Elapsed    time.Duration
	CapturedAt time.Time // cached snapshots only
	Err        error
}

func (s Status) String() string {
	switch s.Phase {
	case PhaseRetrying:
		return fmt.Sprintf("retrying %d/%d", s.Attempt, s.MaxRetries)
	case PhaseReady:
		if s.Elapsed > 0 {
			return fmt.Sprintf("ready (%dms)", s.Elapsed.Milliseconds())
		}
		return "ready"
	case PhaseCached:
		if !s.CapturedAt.IsZero() {
			return "using cached data (" + humanize.Time(s.CapturedAt) + ")"
		}
		return "using cached data"
	default:
		return s.Phase.String()
	}
}

// Outcome is how one Trigger call ended.
type Outcome int

const (
	OutcomeDroppedInFlight Outcome = iota
	OutcomeDroppedInteracting
	OutcomeSuccess
	OutcomeCached
	OutcomeRetryScheduled
	OutcomeFailed
	OutcomeFallback
	OutcomeStale
	OutcomeCancelled
)

func (o Outcome) String() string {
	switch o {
	case OutcomeDroppedInFlight:
		return "dropped_in_flight"
	case OutcomeDroppedInteracting:
		return "dropped_interacting"
	case OutcomeSuccess:
		return "success"
	case OutcomeCached:
		return "cached"
	case OutcomeRetryScheduled:
		return "retry_scheduled"
	case OutcomeFailed:
		return "failed"
	case OutcomeFallback:
		return "fallback"
	case OutcomeStale:
		return "stale"
	case OutcomeCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Dropped reports whether the trigger never issued a request.
func (o Outcome) Dropped() bool {
	return o == OutcomeDroppedInFlight || o == OutcomeDroppedInteracting
}

// Result describes one Trigger call.
type Result struct {
	Outcome  Outcome
	Trigger  Trigger
	Payload  *models.Payload // rendered payload, fresh or cached
	Err      error
	Warnings []string
	Duration time.Duration
}
