package queue

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/geocoder89/contacts/internal/jobs"
)

// Memory is an in-process queue used when no redis address is configured and in tests.
type Memory struct {
	mu      sync.Mutex
	ready   []jobs.Job
	delayed []jobs.Job
	notify  chan struct{}
	wait    time.Duration
	now     func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		notify: make(chan struct{}, 1),
		wait:   time.Second,
		now:    time.Now,
	}
}

func (q *Memory) Enqueue(ctx context.Context, j jobs.Job) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	q.mu.Lock()
	if j.Due(q.now()) {
		q.ready = append(q.ready, j)
	} else {
		q.delayed = append(q.delayed, j)
		sort.SliceStable(q.delayed, func(a, b int) bool {
			return q.delayed[a].RunAt.Before(q.delayed[b].RunAt)
		})
	}
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}

	return nil
}

// Dequeue blocks for up to one wait interval. It returns ErrEmpty when nothing became due.
func (q *Memory) Dequeue(ctx context.Context) (jobs.Job, error) {
	deadline := time.NewTimer(q.wait)
	defer deadline.Stop()

	for {
		if j, ok := q.pop(); ok {
			return j, nil
		}

		select {
		case <-ctx.Done():
			return jobs.Job{}, ctx.Err()
		case <-deadline.C:
			return jobs.Job{}, ErrEmpty
		case <-q.notify:
		case <-time.After(50 * time.Millisecond):
			// delayed jobs become due without a notify
		}
	}
}

func (q *Memory) pop() (jobs.Job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.now()
	for len(q.delayed) > 0 && q.delayed[0].Due(now) {
		q.ready = append(q.ready, q.delayed[0])
		q.delayed = q.delayed[1:]
	}

	if len(q.ready) == 0 {
		return jobs.Job{}, false
	}

	j := q.ready[0]
	q.ready = q.ready[1:]

	return j, true
}

func (q *Memory) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Pending returns a copy of every queued job, ready ones first.
func (q *Memory) Pending() []jobs.Job {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]jobs.Job, 0, len(q.ready)+len(q.delayed))
	out = append(out, q.ready...)
	out = append(out, q.delayed...)

	return out
}
