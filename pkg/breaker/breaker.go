// Package breaker implements a circuit breaker guarding the broadcast call
// against a chain that is failing every request.
package breaker

import (
	"sync"
	"time"

	"github.com/speedrun-hq/settlement-worker/pkg/logger"
)

// Breaker trips after a run of failures inside a sliding window and stays
// open until its reset timeout elapses, at which point the next IsOpen
// check closes it again and clears its failure count.
type Breaker struct {
	enabled       bool
	failureCount  int
	failureWindow time.Duration
	failThreshold int
	resetTimeout  time.Duration
	lastFailure   time.Time
	tripped       bool
	tripTime      time.Time
	mu            sync.Mutex
	logger        logger.Logger
}

// New creates a circuit breaker. Pass enabled=false to make every method a
// no-op, matching the teacher's opt-out pattern.
func New(enabled bool, threshold int, window, resetTimeout time.Duration, log logger.Logger) *Breaker {
	if log == nil {
		log = &logger.EmptyLogger{}
	}
	return &Breaker{
		enabled:       enabled,
		failThreshold: threshold,
		failureWindow: window,
		resetTimeout:  resetTimeout,
		logger:        log,
	}
}

// RecordFailure records a broadcast failure and trips the breaker if the
// threshold within the window is reached. Returns whether the breaker is
// now (or still) open.
func (b *Breaker) RecordFailure() bool {
	if !b.enabled {
		return false
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()

	if b.tripped {
		if time.Since(b.tripTime) > b.resetTimeout {
			b.logger.Notice("circuit breaker attempting reset after cooldown")
			b.tripped = false
			b.failureCount = 0
		} else {
			return true
		}
	}

	if time.Since(b.lastFailure) > b.failureWindow {
		b.failureCount = 0
	}

	b.failureCount++
	b.lastFailure = now

	if b.failureCount >= b.failThreshold {
		b.tripped = true
		b.tripTime = now
		b.logger.Error("circuit breaker tripped: %d failures in window", b.failureCount)
		return true
	}

	return false
}

// IsOpen reports whether broadcasts should currently be short-circuited.
func (b *Breaker) IsOpen() bool {
	if !b.enabled {
		return false
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.tripped && time.Since(b.tripTime) > b.resetTimeout {
		b.tripped = false
		b.failureCount = 0
		return false
	}

	return b.tripped
}

// Reset manually closes the breaker, used by the /circuit/reset operator
// endpoint.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tripped = false
	b.failureCount = 0
}

// State reports the breaker's current counters, for the /status endpoint.
func (b *Breaker) State() (open bool, failureCount int, tripTime time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.tripped, b.failureCount, b.tripTime
}
