package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/speedrun-hq/settlement-worker/pkg/models"
)

func TestOfferAndTake(t *testing.T) {
	q := New()
	ctx := context.Background()

	err := q.Offer(ctx, models.Intent{ID: "t1"})
	assert.NoError(t, err)
	assert.Equal(t, 1, q.Depth())

	got, err := q.Take(ctx)
	assert.NoError(t, err)
	assert.Equal(t, "t1", got.ID)
	assert.Equal(t, 0, q.Depth())
}

func TestTakeBlocksUntilOffer(t *testing.T) {
	q := New()
	ctx := context.Background()

	done := make(chan models.Intent, 1)
	go func() {
		intent, err := q.Take(ctx)
		assert.NoError(t, err)
		done <- intent
	}()

	select {
	case <-done:
		t.Fatal("Take returned before anything was offered")
	case <-time.After(50 * time.Millisecond):
	}

	assert.NoError(t, q.Offer(ctx, models.Intent{ID: "t2"}))

	select {
	case intent := <-done:
		assert.Equal(t, "t2", intent.ID)
	case <-time.After(time.Second):
		t.Fatal("Take never returned after an Offer")
	}
}

func TestOfferRespectsContextCancellation(t *testing.T) {
	q := New()
	for i := 0; i < Capacity; i++ {
		assert.NoError(t, q.Offer(context.Background(), models.Intent{ID: "filler"}))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := q.Offer(ctx, models.Intent{ID: "overflow"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCloseUnblocksTakeAndOffer(t *testing.T) {
	q := New()
	q.Close()

	_, err := q.Take(context.Background())
	assert.ErrorIs(t, err, ErrClosed)

	err = q.Offer(context.Background(), models.Intent{ID: "t3"})
	assert.ErrorIs(t, err, ErrClosed)
}
