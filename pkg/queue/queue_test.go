package queue

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoRunsTask(t *testing.T) {
	q := New(2, 0, 0)

	out, err := q.DoText(context.Background(), func() (string, error) {
		return "reply", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "reply", out)
}

func TestConcurrencyCeiling(t *testing.T) {
	q := New(2, 0, 0)

	var inFlight, peak int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = q.Do(context.Background(), func() error {
				n := atomic.AddInt32(&inFlight, 1)
				for {
					p := atomic.LoadInt32(&peak)
					if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
						break
					}
				}
				time.Sleep(10 * time.Millisecond)
				atomic.AddInt32(&inFlight, -1)
				return nil
			})
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
}

func TestIntervalCapSpacesStarts(t *testing.T) {
	// At most 2 starts per 100ms window: 6 tasks need >= ~200ms.
	q := New(10, 100*time.Millisecond, 2)

	begin := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = q.Do(context.Background(), func() error { return nil })
		}()
	}
	wg.Wait()

	assert.GreaterOrEqual(t, time.Since(begin), 180*time.Millisecond)
}

func TestFIFOOrdering(t *testing.T) {
	q := New(1, 0, 0)

	release := make(chan struct{})
	started := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = q.Do(context.Background(), func() error {
			close(started)
			<-release
			return nil
		})
	}()

	// Wait until the blocker holds the only slot.
	<-started

	var order []int
	var mu sync.Mutex
	for i := 0; i < 5; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = q.Do(context.Background(), func() error {
				mu.Lock()
				order = append(order, i)
				mu.Unlock()
				return nil
			})
		}()
		// Enqueue one at a time so arrival order is deterministic.
		require.Eventually(t, func() bool { return q.Depth() == i+1 }, time.Second, time.Millisecond)
	}

	close(release)
	wg.Wait()

	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestDepth(t *testing.T) {
	q := New(1, 0, 0)

	release := make(chan struct{})
	started := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_ = q.Do(context.Background(), func() error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	go func() {
		defer wg.Done()
		_ = q.Do(context.Background(), func() error { return nil })
	}()
	require.Eventually(t, func() bool { return q.Depth() == 1 }, time.Second, time.Millisecond)

	close(release)
	wg.Wait()
	assert.Equal(t, 0, q.Depth())
}

func TestCancelledWaiterLeavesQueue(t *testing.T) {
	q := New(1, 0, 0)

	release := make(chan struct{})
	started := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = q.Do(context.Background(), func() error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- q.Do(ctx, func() error { return nil })
	}()
	require.Eventually(t, func() bool { return q.Depth() == 1 }, time.Second, time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-errCh, context.Canceled)
	assert.Equal(t, 0, q.Depth())

	close(release)
	wg.Wait()
}
