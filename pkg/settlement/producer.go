package settlement

import (
	"context"
	"time"

	"github.com/speedrun-hq/settlement-worker/pkg/logger"
	"github.com/speedrun-hq/settlement-worker/pkg/metrics"
	"github.com/speedrun-hq/settlement-worker/pkg/queue"
	"github.com/speedrun-hq/settlement-worker/pkg/registry"
	"github.com/speedrun-hq/settlement-worker/pkg/store"
)

// Producer polls the Store for PENDING intents, dedups them against the
// Registry, and offers new ones to the Queue. It never dies: every defect
// is caught, logged, and the loop resumes on the next tick.
type Producer struct {
	store        store.Store
	queue        *queue.Queue
	registry     *registry.Registry
	pollInterval time.Duration
	logger       logger.Logger
}

// NewProducer wires a Producer to its collaborators.
func NewProducer(s store.Store, q *queue.Queue, r *registry.Registry, pollInterval time.Duration, log logger.Logger) *Producer {
	if log == nil {
		log = &logger.EmptyLogger{}
	}
	return &Producer{store: s, queue: q, registry: r, pollInterval: pollInterval, logger: log}
}

// Run loops until ctx is cancelled, polling every pollInterval.
func (p *Producer) Run(ctx context.Context) {
	p.logger.InfoWithStage(logger.Producer, "producer starting, poll interval %v", p.pollInterval)
	defer p.logger.InfoWithStage(logger.Producer, "producer stopped")

	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

// tick runs a single poll cycle. A panic inside it is caught and logged so
// the producer survives to the next tick.
func (p *Producer) tick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.ErrorWithStage(logger.Producer, "recovered from panic during poll: %v", r)
		}
	}()

	pending, err := p.store.GetPending(ctx)
	if err != nil {
		p.logger.ErrorWithStage(logger.Producer, "failed to fetch pending intents: %v", err)
		return
	}

	if len(pending) == 0 {
		p.logger.DebugWithStage(logger.Producer, "idle: no pending intents")
		return
	}

	ids := make([]string, len(pending))
	byID := make(map[string]int, len(pending))
	for i, intent := range pending {
		ids[i] = intent.ID
		byID[intent.ID] = i
	}

	newIDs := p.registry.Claim(ids)
	metrics.RegistrySize.Set(float64(p.registry.Len()))

	if len(newIDs) == 0 {
		p.logger.DebugWithStage(logger.Producer, "%d pending intents, all already in flight", len(pending))
		return
	}

	p.logger.InfoWithStage(logger.Producer, "claimed %d new intent(s) of %d pending", len(newIDs), len(pending))

	for _, id := range newIDs {
		intent := pending[byID[id]]
		if err := p.queue.Offer(ctx, intent); err != nil {
			p.logger.ErrorWithStage(logger.Producer, "failed to offer intent %s to queue: %v", id, err)
			p.registry.Release(id)
			continue
		}
		metrics.QueueDepth.Set(float64(p.queue.Depth()))
	}
}
