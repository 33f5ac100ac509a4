package watcher

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Queue is a bounded many-producer, single-consumer event queue drained in
// batches. When full, new events are dropped with a warning rather than
// blocking the producer.
type Queue struct {
	mu      sync.Mutex
	events  []Event
	max     int
	notify  chan struct{}
	done    chan struct{}
	closed  bool
	dropped atomic.Uint64
}

// NewQueue creates a queue holding at most max pending events.
func NewQueue(max int) *Queue {
	return &Queue{
		max:    max,
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// Push appends an event. Events pushed after Close are discarded.
func (q *Queue) Push(event Event) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	if len(q.events) >= q.max {
		q.mu.Unlock()
		count := q.dropped.Add(1)
		slog.Warn("event queue full, dropping event",
			slog.String("path", event.Path),
			slog.String("kind", event.Kind.String()),
			slog.Uint64("total_dropped", count),
		)
		return
	}
	q.events = append(q.events, event)
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// Drain returns all pending events in FIFO order, waiting up to timeout for
// at least one to arrive. An empty return is expected on idle.
func (q *Queue) Drain(timeout time.Duration) []Event {
	if batch := q.take(); batch != nil {
		return batch
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-q.notify:
		return q.take()
	case <-q.done:
		return q.take()
	case <-timer.C:
		return nil
	}
}

// take swaps out the pending slice.
func (q *Queue) take() []Event {
	q.mu.Lock()
	defer q.mu.Unlock()
	batch := q.events
	q.events = nil
	return batch
}

// Dropped returns the number of events dropped due to a full queue.
func (q *Queue) Dropped() uint64 {
	return q.dropped.Load()
}

// Close stops the queue. Pending events remain drainable; further pushes are
// discarded. Safe to call multiple times.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.done)
}
