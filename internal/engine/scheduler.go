package engine

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Scheduler dispatches a pure Compute call off the caller's thread and can
// run it on a periodic tick, dropping ticks that arrive while a prior run
// is still in flight (spec.md §5). Generalized from teacher's
// tea.Tick/tickMsg pattern in internal/ui/dashboard.go into a
// transport-agnostic shim the UI (or CLI) can subscribe to.
type Scheduler struct {
	instanceID string
	engine     *Engine
	running    atomic.Bool
}

// NewScheduler creates a scheduler bound to one Engine.
func NewScheduler(e *Engine) *Scheduler {
	return &Scheduler{
		instanceID: uuid.NewString(),
		engine:     e,
	}
}

// InstanceID identifies this scheduler's run, e.g. for lease-based
// coordination between multiple ccdash processes sharing a cache.
func (s *Scheduler) InstanceID() string {
	return s.instanceID
}

// RunOnce submits a single Compute call and returns its snapshot. It never
// suppresses a direct call — re-entrancy suppression only applies to the
// periodic ticker below.
func (s *Scheduler) RunOnce(ctx context.Context, start, end time.Time) (*Metrics, error) {
	return s.engine.Compute(ctx, start, end)
}

// StartPeriodic runs RunOnce every interval, invoking onResult with each
// successful snapshot. If a prior run is still in flight when a tick
// fires, that tick is dropped (spec.md §5). Returns a stop function.
func (s *Scheduler) StartPeriodic(ctx context.Context, interval time.Duration, window func() (time.Time, time.Time), onResult func(*Metrics, error)) (stop func()) {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case <-ticker.C:
				if !s.running.CompareAndSwap(false, true) {
					continue // prior run still in flight: drop this tick
				}
				start, end := window()
				result, err := s.engine.Compute(ctx, start, end)
				s.running.Store(false)
				onResult(result, err)
			}
		}
	}()

	return func() { close(done) }
}
