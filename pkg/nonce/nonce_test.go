package nonce

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubChain struct {
	nonce int64
	err   error
	calls int
}

func (s *stubChain) GetNonce(_ context.Context, _ string) (int64, error) {
	s.calls++
	return s.nonce, s.err
}

func TestNewCoordinatorIsUninitialized(t *testing.T) {
	c := New()
	assert.Equal(t, Uninitialized, c.Current())
}

func TestSeedFromChainOnlySeedsOnce(t *testing.T) {
	chain := &stubChain{nonce: 5}
	c := New()

	n, err := c.SeedFromChain(context.Background(), chain, "0xabc")
	assert.NoError(t, err)
	assert.Equal(t, int64(5), n)
	assert.Equal(t, 1, chain.calls)

	n, err = c.SeedFromChain(context.Background(), chain, "0xabc")
	assert.NoError(t, err)
	assert.Equal(t, int64(5), n)
	assert.Equal(t, 1, chain.calls, "a coordinator already seeded must not query the chain again")
}

func TestSeedFromChainPropagatesError(t *testing.T) {
	chain := &stubChain{err: errors.New("rpc unavailable")}
	c := New()

	_, err := c.SeedFromChain(context.Background(), chain, "0xabc")
	assert.Error(t, err)
	assert.Equal(t, Uninitialized, c.Current())
}

func TestAdvance(t *testing.T) {
	c := New()
	c.ResyncTo(5)
	c.Advance()
	assert.Equal(t, int64(6), c.Current())
}

func TestResyncToMayMoveBackward(t *testing.T) {
	c := New()
	c.ResyncTo(10)
	c.ResyncTo(3)
	assert.Equal(t, int64(3), c.Current())
}

// TestCurrentIsSafeForConcurrentReadersDuringAdvance exercises Current from a
// goroutine standing in for the health server while another goroutine drives
// Advance the way a worker does after every confirmed broadcast, the same
// split this type now has to tolerate outside the submission lock.
func TestCurrentIsSafeForConcurrentReadersDuringAdvance(t *testing.T) {
	c := New()
	c.ResyncTo(0)

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			c.Advance()
		}
	}()

	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			_ = c.Current()
		}
	}()

	wg.Wait()
	assert.Equal(t, int64(1000), c.Current())
}
