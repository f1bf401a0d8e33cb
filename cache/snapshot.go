// ABOUTME: Single-slot snapshot of the last successful dashboard load
// ABOUTME: Writes are best-effort; reads are filtered by a freshness window
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/harperreed/salesdash/clock"
	"github.com/harperreed/salesdash/models"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	// SnapshotKey is the one slot every successful load overwrites,
	// whatever its filters.
	SnapshotKey = "lastDashboardPayload"

	// DefaultFreshness is how long a snapshot stays eligible for fallback.
	DefaultFreshness = time.Hour
)

// Entry is the persisted layout of the slot.
type Entry struct {
	Payload   *models.Payload `json:"data"`
	Timestamp int64           `json:"timestamp"` // epoch milliseconds
	Filters   string          `json:"filters"`   // encoded query string
}

// CapturedAt returns when the snapshot was written.
func (e *Entry) CapturedAt() time.Time {
	return time.UnixMilli(e.Timestamp)
}

// RequestFilters decodes the filters the snapshot was loaded with.
func (e *Entry) RequestFilters() (models.Filters, error) {
	return models.ParseFilters(e.Filters)
}

// Snapshot reads and writes the slot.
type Snapshot struct {
	store  Store
	clock  clock.Clock
	window time.Duration
	logger *zap.Logger
}

type SnapshotOption func(*Snapshot)

func WithClock(c clock.Clock) SnapshotOption {
	return func(s *Snapshot) {
		s.clock = c
	}
}

// WithFreshness overrides the freshness window.
func WithFreshness(d time.Duration) SnapshotOption {
	return func(s *Snapshot) {
		s.window = d
	}
}

func WithLogger(logger *zap.Logger) SnapshotOption {
	return func(s *Snapshot) {
		s.logger = logger
	}
}

func NewSnapshot(store Store, opts ...SnapshotOption) *Snapshot {
	s := &Snapshot{
		store:  store,
		clock:  clock.Real(),
		window: DefaultFreshness,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Write stores payload as the current snapshot. Failures are logged and
// swallowed so caching never blocks rendering.
func (s *Snapshot) Write(ctx context.Context, payload *models.Payload, filters models.Filters) {
	if payload == nil {
		return
	}
	entry := Entry{
		Payload:   payload,
		Timestamp: s.clock.Now().UnixMilli(),
		Filters:   filters.Encode(),
	}
	data, err := json.Marshal(&entry)
	if err != nil {
		s.logger.Warn("snapshot encode failed", zap.Error(err))
		return
	}
	if err := s.store.Set(ctx, SnapshotKey, data); err != nil {
		s.logger.Warn("snapshot write failed", zap.Error(err))
		return
	}
	s.logger.Debug("snapshot written", zap.Int("bytes", len(data)), zap.String("filters", entry.Filters))
}

// Read returns the snapshot when it exists, decodes, and is still fresh.
func (s *Snapshot) Read(ctx context.Context) *Entry {
	entry, err := s.Peek(ctx)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Warn("snapshot read failed", zap.Error(err))
		}
		return nil
	}
	if !s.IsFresh(entry) {
		s.logger.Debug("snapshot stale", zap.Time("captured_at", entry.CapturedAt()))
		return nil
	}
	return entry
}

// IsFresh reports whether entry is younger than the freshness window.
func (s *Snapshot) IsFresh(entry *Entry) bool {
	if entry == nil {
		return false
	}
	return s.clock.Now().Sub(entry.CapturedAt()) < s.window
}

// Age returns how long ago entry was captured.
func (s *Snapshot) Age(entry *Entry) time.Duration {
	return s.clock.Now().Sub(entry.CapturedAt())
}

// Peek returns the stored entry regardless of its age.
func (s *Snapshot) Peek(ctx context.Context) (*Entry, error) {
	data, err := s.store.Get(ctx, SnapshotKey)
	if err != nil {
		return nil, err
	}
	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	if entry.Payload == nil {
		return nil, fmt.Errorf("failed to decode snapshot: no payload")
	}
	return &entry, nil
}

// Clear empties the slot.
func (s *Snapshot) Clear(ctx context.Context) error {
	return s.store.Delete(ctx, SnapshotKey)
}
