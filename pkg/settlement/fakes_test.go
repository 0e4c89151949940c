package settlement

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/speedrun-hq/settlement-worker/pkg/chain"
	"github.com/speedrun-hq/settlement-worker/pkg/models"
	"github.com/speedrun-hq/settlement-worker/pkg/signer"
)

var (
	_ chain.Chain   = (*fakeChain)(nil)
	_ signer.Signer = (*fakeSigner)(nil)
)

// fakeStore is an in-memory Store double, grounded in the same
// mutex-guarded hand-rolled mock style the teacher uses for its job queue
// and service test doubles, rather than a generated mock.
type fakeStore struct {
	mu sync.Mutex

	intents map[string]*models.Intent
	dlq     []models.DLQEntry

	processingWrites int
	settledWrites    int
	pendingWrites    int

	getPendingErr error
}

func newFakeStore(seed ...models.Intent) *fakeStore {
	s := &fakeStore{intents: make(map[string]*models.Intent)}
	for i := range seed {
		intent := seed[i]
		s.intents[intent.ID] = &intent
	}
	return s
}

func (s *fakeStore) GetPending(_ context.Context) ([]models.Intent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.getPendingErr != nil {
		return nil, s.getPendingErr
	}

	var out []models.Intent
	for _, intent := range s.intents {
		if intent.Status == models.StatusPending {
			out = append(out, *intent)
		}
	}
	return out, nil
}

func (s *fakeStore) GetByStatus(_ context.Context, status models.Status) ([]models.Intent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Intent
	for _, intent := range s.intents {
		if intent.Status == status {
			out = append(out, *intent)
		}
	}
	return out, nil
}

func (s *fakeStore) Get(_ context.Context, id string) (models.Intent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	intent, ok := s.intents[id]
	if !ok {
		return models.Intent{}, fmt.Errorf("fakeStore: no such intent %s", id)
	}
	return *intent, nil
}

func (s *fakeStore) GetByHash(_ context.Context, hash string) (models.Intent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, intent := range s.intents {
		if intent.Hash == hash {
			return *intent, nil
		}
	}
	return models.Intent{}, fmt.Errorf("fakeStore: no intent with hash %s", hash)
}

func (s *fakeStore) SetStatus(_ context.Context, id string, status models.Status, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	intent, ok := s.intents[id]
	if !ok {
		return fmt.Errorf("fakeStore: no such intent %s", id)
	}
	intent.Status = status
	if hash != "" {
		intent.Hash = hash
	}

	switch status {
	case models.StatusProcessing:
		s.processingWrites++
	case models.StatusSettled:
		s.settledWrites++
	case models.StatusPending:
		s.pendingWrites++
	}
	return nil
}

func (s *fakeStore) IncrementRetry(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	intent, ok := s.intents[id]
	if !ok {
		return fmt.Errorf("fakeStore: no such intent %s", id)
	}
	intent.RetryCount++
	return nil
}

func (s *fakeStore) RecordError(_ context.Context, id string, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	intent, ok := s.intents[id]
	if !ok {
		return fmt.Errorf("fakeStore: no such intent %s", id)
	}
	intent.LastError = text
	return nil
}

func (s *fakeStore) DLQ(_ context.Context, intentID, reason, details string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	intent, ok := s.intents[intentID]
	if !ok {
		return fmt.Errorf("fakeStore: no such intent %s", intentID)
	}
	intent.Status = models.StatusFailed
	s.dlq = append(s.dlq, models.DLQEntry{
		ID:           fmt.Sprintf("dlq-%d", len(s.dlq)+1),
		IntentID:     intentID,
		Reason:       reason,
		ErrorDetails: details,
		EnqueuedAt:   time.Time{},
	})
	return nil
}

func (s *fakeStore) ReconcilePendingFromProcessing(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for _, intent := range s.intents {
		if intent.Status == models.StatusProcessing {
			intent.Status = models.StatusPending
			n++
		}
	}
	return n, nil
}

func (s *fakeStore) snapshot(id string) models.Intent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.intents[id]
}

func (s *fakeStore) dlqEntries() []models.DLQEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.DLQEntry, len(s.dlq))
	copy(out, s.dlq)
	return out
}

// sendRawOutcome is one scripted response for a SendRaw call.
type sendRawOutcome struct {
	hash  string
	err   error
	delay time.Duration
	panic bool
}

// fakeChain is a scriptable Chain double: each SendRaw call pops the next
// outcome off a queue, repeating the last one once exhausted.
type fakeChain struct {
	mu sync.Mutex

	nonce    int64
	gasPrice *big.Int
	outcomes []sendRawOutcome
	calls    int
}

func newFakeChain(nonce int64, gasPrice int64, outcomes ...sendRawOutcome) *fakeChain {
	return &fakeChain{nonce: nonce, gasPrice: big.NewInt(gasPrice), outcomes: outcomes}
}

func (c *fakeChain) GetNonce(_ context.Context, _ string) (int64, error) {
	return c.nonce, nil
}

func (c *fakeChain) GetGasPrice(_ context.Context) (*big.Int, error) {
	return c.gasPrice, nil
}

func (c *fakeChain) SendRaw(ctx context.Context, _ string) (string, error) {
	c.mu.Lock()
	idx := c.calls
	if idx >= len(c.outcomes) {
		idx = len(c.outcomes) - 1
	}
	outcome := c.outcomes[idx]
	c.calls++
	c.mu.Unlock()

	if outcome.panic {
		panic("fakeChain: synthetic broadcast panic")
	}

	if outcome.delay > 0 {
		select {
		case <-time.After(outcome.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return outcome.hash, outcome.err
}

func (c *fakeChain) GetTx(_ context.Context, _ string) (bool, bool, error) {
	return false, false, nil
}

func (c *fakeChain) WaitFor(_ context.Context, _ string) (*chain.Receipt, error) {
	return &chain.Receipt{Status: 1}, nil
}

func (c *fakeChain) ChainID(_ context.Context) (*big.Int, error) {
	return big.NewInt(7000), nil
}

func (c *fakeChain) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// fakeSigner returns a deterministic opaque payload per nonce, matching the
// shape pkg/signer.Signer needs without touching real ECDSA machinery.
type fakeSigner struct {
	address string
}

func (s *fakeSigner) Address() string {
	return s.address
}

func (s *fakeSigner) Sign(tx *signer.UnsignedTx) (string, error) {
	return fmt.Sprintf("0xsigned-nonce-%d", tx.Nonce), nil
}
