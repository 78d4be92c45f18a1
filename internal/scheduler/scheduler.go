// Package scheduler provides the cancellable validation-scheduling layer:
// an explicit timer registry keyed by trip id, backed by a durable store
// so pending schedules survive a process restart.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Defaults for the carpool deferral budget.
const (
	DefaultRetryBase    = 30 * time.Second
	DefaultRetryFactor  = 2
	DefaultMaxAttempts  = 5
	defaultStoreTimeout = 5 * time.Second
)

// Store durably mirrors pending schedules. Implemented on Redis; the
// in-process timers are re-armed from it on restart.
type Store interface {
	Add(ctx context.Context, tripID string, due time.Time) error
	Remove(ctx context.Context, tripID string) error
	All(ctx context.Context) (map[string]time.Time, error)
}

// RunFunc is invoked when a trip's validation comes due. attempt starts
// at 1 and increments on each deferral retry.
type RunFunc func(tripID string, attempt int)

// Registry owns the pending validation timers. Canceling a trip before
// its scheduled time cancels the timer, so a stale run can never execute
// against a since-invalidated trip.
type Registry struct {
	mu       sync.Mutex
	timers   map[string]*time.Timer
	inflight map[string]struct{}
	closed   bool

	run    RunFunc
	store  Store
	logger *slog.Logger

	retryBase   time.Duration
	retryFactor int
	maxAttempts int
}

// Option tunes a Registry.
type Option func(*Registry)

// WithRetryPolicy overrides the deferral backoff budget.
func WithRetryPolicy(base time.Duration, factor, maxAttempts int) Option {
	return func(r *Registry) {
		r.retryBase = base
		r.retryFactor = factor
		r.maxAttempts = maxAttempts
	}
}

// NewRegistry creates a timer registry. run is called on its own
// goroutine whenever a schedule fires.
func NewRegistry(run RunFunc, store Store, logger *slog.Logger, opts ...Option) *Registry {
	r := &Registry{
		timers:      make(map[string]*time.Timer),
		inflight:    make(map[string]struct{}),
		run:         run,
		store:       store,
		logger:      logger,
		retryBase:   DefaultRetryBase,
		retryFactor: DefaultRetryFactor,
		maxAttempts: DefaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Schedule arms (or re-arms) the validation timer for a trip. The due
// time is mirrored to the durable store.
func (r *Registry) Schedule(ctx context.Context, tripID string, due time.Time) error {
	if err := r.store.Add(ctx, tripID, due); err != nil {
		return err
	}
	r.arm(tripID, due, 1)
	return nil
}

// Cancel stops the pending timer for a trip. Best-effort: a no-op if the
// validation already ran.
func (r *Registry) Cancel(ctx context.Context, tripID string) bool {
	r.mu.Lock()
	timer, ok := r.timers[tripID]
	if ok {
		timer.Stop()
		delete(r.timers, tripID)
	}
	r.mu.Unlock()

	if err := r.store.Remove(ctx, tripID); err != nil {
		r.logger.Warn("failed to remove schedule from store", "trip_id", tripID, "error", err)
	}
	return ok
}

// Defer reschedules a trip whose partner data was not yet available,
// with exponential backoff. attempt is the run that just deferred.
// The retry due time is mirrored to the durable store so a restart
// inside the backoff window still picks the trip up. Returns false once
// the retry budget is exhausted; the caller then falls back to a
// single-sided run.
func (r *Registry) Defer(tripID string, attempt int) bool {
	if attempt >= r.maxAttempts {
		return false
	}

	delay := r.retryBase
	for i := 1; i < attempt; i++ {
		delay *= time.Duration(r.retryFactor)
	}
	due := time.Now().Add(delay)

	ctx, cancel := context.WithTimeout(context.Background(), defaultStoreTimeout)
	defer cancel()
	if err := r.store.Add(ctx, tripID, due); err != nil {
		r.logger.Warn("failed to mirror deferral to store", "trip_id", tripID, "error", err)
	}

	r.arm(tripID, due, attempt+1)
	return true
}

// Restore re-arms all schedules persisted in the store. Past-due entries
// fire immediately. Restored entries run as attempt 1: the retry budget
// is granted afresh after a restart.
func (r *Registry) Restore(ctx context.Context) error {
	pending, err := r.store.All(ctx)
	if err != nil {
		return err
	}
	for tripID, due := range pending {
		r.arm(tripID, due, 1)
	}
	if len(pending) > 0 {
		r.logger.Info("restored pending validation schedules", "count", len(pending))
	}
	return nil
}

// Pending returns the number of armed timers.
func (r *Registry) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.timers)
}

// Shutdown stops all timers without removing them from the durable
// store, so a restart picks them back up.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	for id, timer := range r.timers {
		timer.Stop()
		delete(r.timers, id)
	}
}

// TryBegin marks a trip's validation run as in flight. It returns false
// when a run for the same trip is already executing, guarding against a
// timer and a manual re-trigger firing close together.
func (r *Registry) TryBegin(tripID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, running := r.inflight[tripID]; running {
		return false
	}
	r.inflight[tripID] = struct{}{}
	return true
}

// Finish releases the in-flight marker for a trip.
func (r *Registry) Finish(tripID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.inflight, tripID)
}

func (r *Registry) arm(tripID string, due time.Time, attempt int) {
	delay := time.Until(due)
	if delay < 0 {
		delay = 0
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	if existing, ok := r.timers[tripID]; ok {
		existing.Stop()
	}
	r.timers[tripID] = time.AfterFunc(delay, func() {
		r.fire(tripID, attempt)
	})
	r.mu.Unlock()
}

func (r *Registry) fire(tripID string, attempt int) {
	r.mu.Lock()
	delete(r.timers, tripID)
	r.mu.Unlock()

	r.run(tripID, attempt)

	// A deferring run re-arms its own retry timer via Defer; the store
	// entry it wrote must survive. Only a run that finished without
	// rescheduling clears the durable mirror.
	r.mu.Lock()
	_, rearmed := r.timers[tripID]
	r.mu.Unlock()
	if rearmed {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultStoreTimeout)
	defer cancel()
	if err := r.store.Remove(ctx, tripID); err != nil {
		r.logger.Warn("failed to clear fired schedule", "trip_id", tripID, "error", err)
	}
}
