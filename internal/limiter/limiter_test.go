package limiter

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCapacityBoundsConcurrency asserts that observed concurrency never
// exceeds the configured capacity.
func TestCapacityBoundsConcurrency(t *testing.T) {
	const capacity = 1
	l := New("fetch", capacity)

	var inFlight, maxSeen atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := l.With(context.Background(), func() error {
				n := inFlight.Add(1)
				for {
					seen := maxSeen.Load()
					if n <= seen || maxSeen.CompareAndSwap(seen, n) {
						break
					}
				}
				time.Sleep(2 * time.Millisecond)
				inFlight.Add(-1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, maxSeen.Load(), int32(capacity))
}

// TestZeroCapacityImposesNoBound verifies the unbounded form.
func TestZeroCapacityImposesNoBound(t *testing.T) {
	l := New("read", 0)

	const workers = 16
	var inFlight, maxSeen atomic.Int32
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_ = l.With(context.Background(), func() error {
				n := inFlight.Add(1)
				for {
					seen := maxSeen.Load()
					if n <= seen || maxSeen.CompareAndSwap(seen, n) {
						break
					}
				}
				time.Sleep(10 * time.Millisecond)
				inFlight.Add(-1)
				return nil
			})
		}()
	}
	close(start)
	wg.Wait()
	assert.Greater(t, maxSeen.Load(), int32(1))
}

// TestReleaseOnError verifies the slot is returned when fn fails.
func TestReleaseOnError(t *testing.T) {
	l := New("fetch", 1)
	_ = l.With(context.Background(), func() error { return assert.AnError })

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, l.Acquire(ctx), "slot leaked after error exit")
	l.Release()
}

// TestAcquireHonorsContext verifies a waiter gives up when canceled.
func TestAcquireHonorsContext(t *testing.T) {
	l := New("fetch", 1)
	require.NoError(t, l.Acquire(context.Background()))
	defer l.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := l.Acquire(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
