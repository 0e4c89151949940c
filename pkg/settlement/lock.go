// Package settlement wires the Nonce Coordinator, In-flight Registry, Work
// Queue, Producer, Submission Lock, Worker and Processor into the running
// pipeline, and supervises their lifecycle.
package settlement

import "context"

// SubmissionLock is a single binary semaphore. Every worker must hold it
// before entering the nonce-allocation-through-broadcast section of the
// Processor, so that two workers never allocate the same nonce.
type SubmissionLock struct {
	permit chan struct{}
}

// NewSubmissionLock creates an unheld lock with its one permit available.
func NewSubmissionLock() *SubmissionLock {
	l := &SubmissionLock{permit: make(chan struct{}, 1)}
	l.permit <- struct{}{}
	return l
}

// Acquire blocks until the permit is available or ctx is cancelled.
func (l *SubmissionLock) Acquire(ctx context.Context) error {
	select {
	case <-l.permit:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release returns the permit. Must only be called by the holder.
func (l *SubmissionLock) Release() {
	l.permit <- struct{}{}
}
