// Package nonce provides the single monotonic submission-sequence cell for
// the worker's one signing identity.
package nonce

import (
	"context"
	"sync"
)

// Uninitialized is the sentinel value of a Coordinator that has not yet
// been seeded from the chain.
const Uninitialized int64 = -1

// ChainNoncer is the minimal capability the coordinator needs to seed
// itself: the pending-nonce query from the Chain capability.
type ChainNoncer interface {
	GetNonce(ctx context.Context, address string) (int64, error)
}

// Coordinator holds the next nonce to allocate for the worker's signing
// identity. Every mutation happens inside the submission lock's critical
// section (see pkg/settlement), which already serializes writers against
// each other — but the /status health endpoint reads Current from outside
// that lock, so the cell still needs its own mutex to make that read safe
// against a concurrent Advance or ResyncTo.
type Coordinator struct {
	mu    sync.Mutex
	value int64
}

// New creates an uninitialized coordinator.
func New() *Coordinator {
	return &Coordinator{value: Uninitialized}
}

// Current returns the cell's value, or Uninitialized.
func (c *Coordinator) Current() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

// SeedFromChain queries the chain for the next nonce and stores it, but
// only if the coordinator has not already been seeded. Returns the
// resulting current value either way.
func (c *Coordinator) SeedFromChain(ctx context.Context, chain ChainNoncer, address string) (int64, error) {
	c.mu.Lock()
	seeded := c.value != Uninitialized
	current := c.value
	c.mu.Unlock()
	if seeded {
		return current, nil
	}

	n, err := chain.GetNonce(ctx, address)
	if err != nil {
		return Uninitialized, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = n
	return c.value, nil
}

// Advance increments the cell by one, called after a confirmed broadcast.
func (c *Coordinator) Advance() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value++
}

// ResyncTo unconditionally sets the cell to the chain-authoritative value,
// invoked on a NonceTooLow event. It may move the value backward relative
// to what this process believed, by design: the chain is always right.
func (c *Coordinator) ResyncTo(n int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = n
}
