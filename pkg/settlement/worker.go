package settlement

import (
	"context"
	"time"

	"github.com/speedrun-hq/settlement-worker/pkg/logger"
	"github.com/speedrun-hq/settlement-worker/pkg/models"
	"github.com/speedrun-hq/settlement-worker/pkg/queue"
	"github.com/speedrun-hq/settlement-worker/pkg/registry"
	"github.com/speedrun-hq/settlement-worker/pkg/settlementerr"
)

// backoffBase and backoffFactor fix the in-worker retry schedule: 100ms,
// doubling, for at most two additional attempts after the first (three
// attempts total).
const (
	backoffBase      = 100 * time.Millisecond
	backoffFactor    = 2
	maxExtraAttempts = 2
)

// Worker pulls intents off the Queue and drives each one through the
// Processor under the Submission Lock, retrying transient failures
// in-process before giving up and relying on the Producer's next poll.
type Worker struct {
	id        int
	queue     *queue.Queue
	registry  *registry.Registry
	lock      *SubmissionLock
	processor *Processor
	logger    logger.Logger
}

// NewWorker wires a Worker to its shared collaborators.
func NewWorker(id int, q *queue.Queue, r *registry.Registry, lock *SubmissionLock, p *Processor, log logger.Logger) *Worker {
	if log == nil {
		log = &logger.EmptyLogger{}
	}
	return &Worker{id: id, queue: q, registry: r, lock: lock, processor: p, logger: log}
}

// Run loops, taking intents from the queue until ctx is cancelled or the
// queue is closed.
func (w *Worker) Run(ctx context.Context) {
	w.logger.InfoWithStage(logger.Worker, "worker %d starting", w.id)
	defer w.logger.InfoWithStage(logger.Worker, "worker %d stopped", w.id)

	for {
		intent, err := w.queue.Take(ctx)
		if err != nil {
			return
		}
		w.settle(ctx, &intent)
	}
}

// settle runs the retry-with-backoff sequence for one intent, taking the
// Submission Lock for each attempt and releasing it before every backoff
// sleep, and always releases its Registry slot on exit. A panic anywhere
// in the sequence is caught and logged, matching the failure-isolation
// discipline the Producer observes too.
//
// A terminal intent.Status of FAILED stops the loop even if the returned
// error is still classified transient: the Processor sets FAILED itself
// once the Store-level retry budget is exhausted (a DLQ write, same as a
// permanent error), and retrying further would re-broadcast and append
// duplicate DLQ rows for an intent that has already been routed.
func (w *Worker) settle(ctx context.Context, intent *models.Intent) {
	defer w.registry.Release(intent.ID)
	defer func() {
		if r := recover(); r != nil {
			w.logger.ErrorWithStage(logger.Worker, "worker %d: recovered from panic processing intent %s: %v", w.id, intent.ID, r)
		}
	}()

	backoff := backoffBase
	for attempt := 0; ; attempt++ {
		err := w.attempt(ctx, intent)
		if err == nil {
			w.logger.InfoWithStage(logger.Worker, "worker %d: intent %s settled", w.id, intent.ID)
			return
		}

		se, ok := err.(*settlementerr.SettlementError)
		terminal := !ok || intent.Status == models.StatusFailed || !settlementerr.IsTransient(se) || attempt >= maxExtraAttempts
		if terminal {
			w.logger.ErrorWithStage(logger.Worker, "worker %d: intent %s ended processing: %v", w.id, intent.ID, err)
			return
		}

		w.logger.NoticeWithStage(logger.Worker, "worker %d: intent %s transient failure, retrying in %v (in-worker attempt %d/%d)",
			w.id, intent.ID, backoff, attempt+1, maxExtraAttempts)

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return
		}
		backoff *= backoffFactor
	}
}

// attempt runs a single Processor.Process call under the Submission Lock,
// releasing it before returning so the next in-worker retry (or another
// worker) may acquire it.
func (w *Worker) attempt(ctx context.Context, intent *models.Intent) error {
	if err := w.lock.Acquire(ctx); err != nil {
		return err
	}
	defer w.lock.Release()

	return w.processor.Process(ctx, intent)
}
