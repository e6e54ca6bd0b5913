// Package sweeper runs the background process that cancels
// reservations older than the booking timeout.  It is owned by the
// application lifecycle: main starts it after wiring the lifecycle
// service and stops it through context cancellation on shutdown.
// There is no global timer state.
package sweeper

import (
	"context"
	"log"
	"time"
)

// Lifecycle is the slice of the booking service the sweeper needs.
type Lifecycle interface {
	CancelExpiredReservations(ctx context.Context) (int, error)
}

// Sweeper periodically invokes CancelExpiredReservations.  Store
// failures are logged and the schedule continues; the next tick
// retries naturally.  The sweeper has no caller to report errors
// to.
type Sweeper struct {
	svc      Lifecycle
	interval time.Duration
	done     chan struct{}
}

// New builds a Sweeper with the given tick interval.  Intervals of
// zero or less fall back to one minute.
func New(svc Lifecycle, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{svc: svc, interval: interval, done: make(chan struct{})}
}

// Start launches the sweep loop in its own goroutine and returns
// immediately.  The loop stops when ctx is cancelled; an in-flight
// sweep finishes (or aborts through the same ctx) before the loop
// exits.  Use Wait to block until the loop has fully stopped.
func (s *Sweeper) Start(ctx context.Context) {
	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.sweep(ctx)
			}
		}
	}()
}

// Wait blocks until the sweep loop has exited after Start's context
// was cancelled.
func (s *Sweeper) Wait() { <-s.done }

func (s *Sweeper) sweep(ctx context.Context) {
	n, err := s.svc.CancelExpiredReservations(ctx)
	if err != nil {
		// Transient store failures are expected occasionally; keep
		// the schedule and let the next tick retry.
		log.Printf("sweeper: cancel expired reservations failed: %v", err)
		return
	}
	if n > 0 {
		log.Printf("sweeper: cancelled %d expired reservation(s)", n)
	}
}
