package settlement

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/speedrun-hq/settlement-worker/pkg/breaker"
	"github.com/speedrun-hq/settlement-worker/pkg/chain"
	"github.com/speedrun-hq/settlement-worker/pkg/logger"
	"github.com/speedrun-hq/settlement-worker/pkg/nonce"
	"github.com/speedrun-hq/settlement-worker/pkg/queue"
	"github.com/speedrun-hq/settlement-worker/pkg/registry"
	"github.com/speedrun-hq/settlement-worker/pkg/signer"
	"github.com/speedrun-hq/settlement-worker/pkg/store"
)

// Config carries the subset of the worker's configuration the Supervisor
// needs to assemble the pipeline.
type Config struct {
	PollInterval time.Duration
	WorkerCount  int
	ChainID      int64
	MaxRetries   int

	CircuitBreakerEnabled      bool
	CircuitBreakerThreshold    int
	CircuitBreakerWindow       time.Duration
	CircuitBreakerResetTimeout time.Duration
}

// Supervisor owns the per-process singletons — Nonce Coordinator, In-flight
// Registry, Work Queue, Submission Lock — and forks the Producer and N
// Workers over them. Its lifetime equals the worker's.
type Supervisor struct {
	cfg Config

	store  store.Store
	chain  chain.Chain
	signer signer.Signer
	logger logger.Logger

	Queue    *queue.Queue
	Registry *registry.Registry
	Nonce    *nonce.Coordinator
	Breaker  *breaker.Breaker
	lock     *SubmissionLock

	wg sync.WaitGroup
}

// New assembles a Supervisor and the shared state it owns, but does not
// start anything.
func New(cfg Config, s store.Store, c chain.Chain, sg signer.Signer, log logger.Logger) *Supervisor {
	if log == nil {
		log = &logger.EmptyLogger{}
	}
	return &Supervisor{
		cfg:    cfg,
		store:  s,
		chain:  c,
		signer: sg,
		logger: log,

		Queue:    queue.New(),
		Registry: registry.New(),
		Nonce:    nonce.New(),
		Breaker: breaker.New(
			cfg.CircuitBreakerEnabled,
			cfg.CircuitBreakerThreshold,
			cfg.CircuitBreakerWindow,
			cfg.CircuitBreakerResetTimeout,
			log,
		),
		lock: NewSubmissionLock(),
	}
}

// Run reconciles any intents stranded in PROCESSING from a prior crash,
// then forks the Producer and the worker pool and blocks until ctx is
// cancelled, at which point it closes the Queue and waits for every task
// to exit before returning.
func (sv *Supervisor) Run(ctx context.Context) error {
	reconciled, err := sv.store.ReconcilePendingFromProcessing(ctx)
	if err != nil {
		return fmt.Errorf("settlement: boot-time reconciliation failed: %w", err)
	}
	if reconciled > 0 {
		sv.logger.NoticeWithStage(logger.Supervisor, "reconciled %d intent(s) stuck in PROCESSING back to PENDING", reconciled)
	}

	processor := NewProcessor(sv.chain, sv.store, sv.signer, sv.Nonce, sv.Breaker, sv.logger, ProcessorConfig{
		ChainID:    sv.cfg.ChainID,
		MaxRetries: sv.cfg.MaxRetries,
	})

	producer := NewProducer(sv.store, sv.Queue, sv.Registry, sv.cfg.PollInterval, sv.logger)

	sv.wg.Add(1)
	go func() {
		defer sv.wg.Done()
		producer.Run(ctx)
	}()

	workerCount := sv.cfg.WorkerCount
	if workerCount <= 0 {
		workerCount = 1
	}
	for i := 0; i < workerCount; i++ {
		worker := NewWorker(i, sv.Queue, sv.Registry, sv.lock, processor, sv.logger)
		sv.wg.Add(1)
		go func() {
			defer sv.wg.Done()
			worker.Run(ctx)
		}()
	}

	sv.logger.NoticeWithStage(logger.Supervisor, "settlement pipeline running with %d worker(s)", workerCount)

	<-ctx.Done()
	sv.logger.NoticeWithStage(logger.Supervisor, "shutdown signalled, draining pipeline")
	sv.Queue.Close()
	sv.wg.Wait()
	sv.logger.NoticeWithStage(logger.Supervisor, "settlement pipeline stopped")
	return nil
}
