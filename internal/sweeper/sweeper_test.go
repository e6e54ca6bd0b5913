package sweeper

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type countingLifecycle struct {
	calls atomic.Int64
	err   error
}

func (c *countingLifecycle) CancelExpiredReservations(ctx context.Context) (int, error) {
	c.calls.Add(1)
	if c.err != nil {
		return 0, c.err
	}
	return 1, nil
}

func TestSweeperTicksAndStops(t *testing.T) {
	lc := &countingLifecycle{}
	sw := New(lc, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	sw.Start(ctx)

	assert.Eventually(t, func() bool {
		return lc.calls.Load() >= 3
	}, time.Second, 5*time.Millisecond, "sweeper should tick repeatedly")

	cancel()
	sw.Wait()

	// No ticks after the loop has exited.
	settled := lc.calls.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, settled, lc.calls.Load())
}

func TestSweeperSurvivesFailures(t *testing.T) {
	lc := &countingLifecycle{err: errors.New("connection reset")}
	sw := New(lc, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	sw.Start(ctx)

	// The schedule keeps going even though every sweep fails.
	assert.Eventually(t, func() bool {
		return lc.calls.Load() >= 3
	}, time.Second, 5*time.Millisecond)

	cancel()
	sw.Wait()
}

func TestSweeperDefaultInterval(t *testing.T) {
	sw := New(&countingLifecycle{}, 0)
	assert.Equal(t, time.Minute, sw.interval)
}
