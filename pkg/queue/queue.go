// Package queue provides a shared call gate for the external reasoning
// service: a concurrency ceiling plus a cap on call starts per interval,
// with FIFO fairness among waiters.
package queue

import (
	"context"
	"sync"
	"time"
)

// Queue gates task starts. All reasoning-service calls from every batch run
// go through one shared instance so the aggregate rate stays inside the
// upstream provider's limit.
type Queue struct {
	mu          sync.Mutex
	concurrency int
	interval    time.Duration
	intervalCap int

	running int
	waiters []chan struct{}
	starts  []time.Time // call starts inside the current window

	now func() time.Time // overridable in tests
}

// New builds a gate allowing at most concurrency in-flight tasks and at most
// intervalCap task starts per interval. Zero or negative values disable the
// corresponding limit.
func New(concurrency int, interval time.Duration, intervalCap int) *Queue {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Queue{
		concurrency: concurrency,
		interval:    interval,
		intervalCap: intervalCap,
		now:         time.Now,
	}
}

// Do runs task once a slot is available, blocking in FIFO order behind
// earlier callers. The context cancels waiting but not a task already
// started.
func (q *Queue) Do(ctx context.Context, task func() error) error {
	if err := q.acquire(ctx); err != nil {
		return err
	}
	defer q.release()
	return task()
}

// DoText is Do for the common reasoning-call shape.
func (q *Queue) DoText(ctx context.Context, task func() (string, error)) (string, error) {
	var out string
	err := q.Do(ctx, func() error {
		var taskErr error
		out, taskErr = task()
		return taskErr
	})
	return out, err
}

// Depth reports how many callers are currently queued behind the gate.
func (q *Queue) Depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.waiters)
}

func (q *Queue) acquire(ctx context.Context) error {
	q.mu.Lock()

	if q.admit() && len(q.waiters) == 0 {
		q.running++
		q.recordStart()
		q.mu.Unlock()
		return nil
	}

	ready := make(chan struct{}, 1)
	q.waiters = append(q.waiters, ready)
	q.scheduleWake()
	q.mu.Unlock()

	for {
		select {
		case <-ctx.Done():
			q.mu.Lock()
			q.removeWaiter(ready)
			q.mu.Unlock()
			return ctx.Err()
		case <-ready:
			q.mu.Lock()
			if len(q.waiters) > 0 && q.waiters[0] == ready && q.admit() {
				q.waiters = q.waiters[1:]
				q.running++
				q.recordStart()
				q.scheduleWake()
				q.mu.Unlock()
				return nil
			}
			// Not this waiter's turn yet, or the window is full again.
			q.scheduleWake()
			q.mu.Unlock()
		}
	}
}

func (q *Queue) release() {
	q.mu.Lock()
	q.running--
	q.scheduleWake()
	q.mu.Unlock()
}

// admit reports whether a new task may start right now. Caller holds mu.
func (q *Queue) admit() bool {
	if q.running >= q.concurrency {
		return false
	}
	if q.interval <= 0 || q.intervalCap <= 0 {
		return true
	}
	q.pruneWindow()
	return len(q.starts) < q.intervalCap
}

func (q *Queue) recordStart() {
	if q.interval > 0 && q.intervalCap > 0 {
		q.starts = append(q.starts, q.now())
	}
}

func (q *Queue) pruneWindow() {
	cutoff := q.now().Add(-q.interval)
	keep := q.starts[:0]
	for _, t := range q.starts {
		if t.After(cutoff) {
			keep = append(keep, t)
		}
	}
	q.starts = keep
}

// wakeNext signals the head waiter if it could be admitted. Caller holds mu.
func (q *Queue) wakeNext() {
	if len(q.waiters) == 0 || !q.admit() {
		return
	}
	select {
	case q.waiters[0] <- struct{}{}:
	default:
	}
}

// scheduleWake arms a timer for the head waiter when only the interval
// window blocks admission. Caller holds mu.
func (q *Queue) scheduleWake() {
	if len(q.waiters) == 0 || q.running >= q.concurrency {
		return
	}
	if q.interval <= 0 || q.intervalCap <= 0 {
		q.wakeNext()
		return
	}
	q.pruneWindow()
	if len(q.starts) < q.intervalCap {
		q.wakeNext()
		return
	}

	wait := q.starts[0].Add(q.interval).Sub(q.now())
	if wait < time.Millisecond {
		wait = time.Millisecond
	}
	head := q.waiters[0]
	time.AfterFunc(wait, func() {
		q.mu.Lock()
		defer q.mu.Unlock()
		if len(q.waiters) > 0 && q.waiters[0] == head {
			q.wakeNext()
		}
	})
}

func (q *Queue) removeWaiter(ch chan struct{}) {
	for i, w := range q.waiters {
		if w == ch {
			q.waiters = append(q.waiters[:i], q.waiters[i+1:]...)
			break
		}
	}
	q.scheduleWake()
}
