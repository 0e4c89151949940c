// Package queue provides the bounded FIFO handoff between the producer and
// the worker pool.
package queue

import (
	"context"
	"errors"

	"github.com/speedrun-hq/settlement-worker/pkg/models"
)

// Capacity is the fixed bound on outstanding work items. It is the sole
// backpressure mechanism in the pipeline: a slow chain throttles polling by
// filling this queue.
const Capacity = 100

// ErrClosed is returned by Offer/Take once the queue has been closed.
var ErrClosed = errors.New("queue: closed")

// Queue is a bounded FIFO of intents awaiting a worker.
type Queue struct {
	items  chan models.Intent
	closed chan struct{}
}

// New creates a queue with the fixed capacity.
func New() *Queue {
	return &Queue{
		items:  make(chan models.Intent, Capacity),
		closed: make(chan struct{}),
	}
}

// Offer enqueues an intent, blocking if the queue is full until a slot
// frees up, the context is cancelled, or the queue is closed.
func (q *Queue) Offer(ctx context.Context, intent models.Intent) error {
	select {
	case q.items <- intent:
		return nil
	case <-q.closed:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Take blocks until an item is available, the context is cancelled, or the
// queue is closed.
func (q *Queue) Take(ctx context.Context) (models.Intent, error) {
	select {
	case intent := <-q.items:
		return intent, nil
	case <-q.closed:
		return models.Intent{}, ErrClosed
	case <-ctx.Done():
		return models.Intent{}, ctx.Err()
	}
}

// Depth reports the number of items currently queued, for the /status
// health endpoint and the queue-depth gauge.
func (q *Queue) Depth() int {
	return len(q.items)
}

// Close signals every blocked Offer/Take to return ErrClosed. Safe to call
// once during supervisor shutdown.
func (q *Queue) Close() {
	close(q.closed)
}
