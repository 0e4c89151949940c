package settlement

import (
	"context"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/speedrun-hq/settlement-worker/pkg/breaker"
	"github.com/speedrun-hq/settlement-worker/pkg/chain"
	"github.com/speedrun-hq/settlement-worker/pkg/logger"
	"github.com/speedrun-hq/settlement-worker/pkg/metrics"
	"github.com/speedrun-hq/settlement-worker/pkg/models"
	"github.com/speedrun-hq/settlement-worker/pkg/nonce"
	"github.com/speedrun-hq/settlement-worker/pkg/settlementerr"
	"github.com/speedrun-hq/settlement-worker/pkg/signer"
	"github.com/speedrun-hq/settlement-worker/pkg/store"
)

// ProcessorConfig carries the fixed parameters the Processor needs from
// configuration, beyond its collaborators.
type ProcessorConfig struct {
	ChainID    int64
	MaxRetries int
}

// Processor runs the single-attempt validate → nonce → build → sign →
// broadcast → persist pipeline for one intent. It holds no per-call state;
// every invocation of Process is expected to happen while the caller holds
// the Submission Lock.
type Processor struct {
	chain   chain.Chain
	store   store.Store
	signer  signer.Signer
	nonce   *nonce.Coordinator
	breaker *breaker.Breaker
	logger  logger.Logger
	cfg     ProcessorConfig
}

// NewProcessor wires a Processor to its collaborators.
func NewProcessor(c chain.Chain, s store.Store, sg signer.Signer, n *nonce.Coordinator, b *breaker.Breaker, log logger.Logger, cfg ProcessorConfig) *Processor {
	if log == nil {
		log = &logger.EmptyLogger{}
	}
	return &Processor{chain: c, store: s, signer: sg, nonce: n, breaker: b, logger: log, cfg: cfg}
}

// Process runs one attempt at settling intent. It mutates intent in place
// (Status, Hash, RetryCount) to reflect whatever was durably persisted, so
// that a caller retrying in-worker observes the updated retry budget
// without re-reading the Store. It returns the classified
// *settlementerr.SettlementError on failure, or nil on success.
func (p *Processor) Process(ctx context.Context, intent *models.Intent) error {
	start := time.Now()
	defer func() {
		metrics.ProcessingSeconds.Observe(time.Since(start).Seconds())
	}()

	p.logger.DebugWithStage(logger.Processor, "processing intent %s (attempt, retryCount=%d)", intent.ID, intent.RetryCount)

	if err := p.store.SetStatus(ctx, intent.ID, models.StatusProcessing, ""); err != nil {
		return p.fail(ctx, intent, settlementerr.ParseRPCError(err))
	}
	intent.Status = models.StatusProcessing

	from := p.signer.Address()

	if verr := validate(intent, from); verr != nil {
		return p.fail(ctx, intent, verr)
	}

	if _, err := p.nonce.SeedFromChain(ctx, p.chain, from); err != nil {
		return p.fail(ctx, intent, settlementerr.ParseRPCError(err))
	}

	gasPrice, err := p.chain.GetGasPrice(ctx)
	if err != nil {
		return p.fail(ctx, intent, settlementerr.ParseRPCError(err))
	}
	metrics.GasPriceGwei.Set(weiToGwei(gasPrice))

	value, _ := new(big.Int).SetString(intent.Value, 10)
	gasLimit, _ := strconv.ParseUint(intent.GasLimit, 10, 64)

	unsigned := &signer.UnsignedTx{
		To:       intent.To,
		Value:    value,
		Data:     common.FromHex(intent.Calldata),
		GasLimit: gasLimit,
		GasPrice: gasPrice,
		Nonce:    p.nonce.Current(),
		ChainID:  big.NewInt(p.cfg.ChainID),
	}

	signedHex, err := p.signer.Sign(unsigned)
	if err != nil {
		return p.fail(ctx, intent, settlementerr.ParseRPCError(err))
	}

	hash, err := p.broadcast(ctx, signedHex)
	if err != nil {
		return p.fail(ctx, intent, settlementerr.ParseRPCError(err))
	}

	if err := p.store.SetStatus(ctx, intent.ID, models.StatusSettled, hash); err != nil {
		return p.fail(ctx, intent, settlementerr.ParseRPCError(err))
	}
	intent.Status = models.StatusSettled
	intent.Hash = hash

	p.nonce.Advance()
	metrics.NonceCurrent.Set(float64(p.nonce.Current()))
	metrics.IntentsSettled.Inc()

	p.logger.InfoWithStage(logger.Processor, "settled intent %s: hash=%s nonce=%d", intent.ID, hash, unsigned.Nonce)
	return nil
}

// broadcast sends the signed transaction through the circuit breaker guard.
func (p *Processor) broadcast(ctx context.Context, signedHex string) (string, error) {
	if p.breaker.IsOpen() {
		return "", &settlementerr.SettlementError{Kind: settlementerr.KindNetworkError, Message: "circuit breaker open: broadcast short-circuited"}
	}

	hash, err := p.chain.SendRaw(ctx, signedHex)
	if err != nil {
		if settlementerr.IsTransient(settlementerr.ParseRPCError(err)) {
			p.breaker.RecordFailure()
		}
		metrics.BreakerOpen.Set(boolToFloat(p.breaker.IsOpen()))
		return "", err
	}
	metrics.BreakerOpen.Set(0)
	return hash, nil
}

// fail classifies err, persists the consequence, and returns the
// classified error for the worker's retry schedule to inspect. Every
// durable write happens here, before the error is returned, so a
// cancellation afterward loses no state.
func (p *Processor) fail(ctx context.Context, intent *models.Intent, se *settlementerr.SettlementError) error {
	metrics.ErrorsTotal.WithLabelValues(kindLabel(se.Kind)).Inc()

	if err := p.store.RecordError(ctx, intent.ID, se.Error()); err != nil {
		p.logger.ErrorWithStage(logger.Processor, "failed to record error for intent %s: %v", intent.ID, err)
	}
	intent.LastError = se.Error()

	transient := settlementerr.IsTransient(se)

	switch {
	case transient && intent.RetryCount < p.cfg.MaxRetries:
		if se.Kind == settlementerr.KindNonceTooLow {
			p.nonce.ResyncTo(se.CurrentNonce)
			metrics.NonceCurrent.Set(float64(p.nonce.Current()))
		}
		if err := p.store.IncrementRetry(ctx, intent.ID); err != nil {
			p.logger.ErrorWithStage(logger.Processor, "failed to increment retry count for intent %s: %v", intent.ID, err)
		}
		if err := p.store.SetStatus(ctx, intent.ID, models.StatusPending, ""); err != nil {
			p.logger.ErrorWithStage(logger.Processor, "failed to reset intent %s to pending: %v", intent.ID, err)
		}
		intent.RetryCount++
		intent.Status = models.StatusPending
		metrics.RetryCount.Inc()
		p.logger.NoticeWithStage(logger.Processor, "intent %s: transient %v, retry %d/%d scheduled", intent.ID, se.Kind, intent.RetryCount, p.cfg.MaxRetries)

	case transient:
		p.dlq(ctx, intent, settlementerr.ReasonMaxRetriesExceeded, se)

	default:
		p.dlq(ctx, intent, settlementerr.ReasonPermanentError, se)
	}

	return se
}

func (p *Processor) dlq(ctx context.Context, intent *models.Intent, reason string, se *settlementerr.SettlementError) {
	if err := p.store.DLQ(ctx, intent.ID, reason, se.Error()); err != nil {
		p.logger.ErrorWithStage(logger.Processor, "failed to write DLQ entry for intent %s: %v", intent.ID, err)
	}
	intent.Status = models.StatusFailed
	metrics.DLQTotal.WithLabelValues(reason).Inc()
	metrics.IntentsFailed.Inc()
	p.logger.ErrorWithStage(logger.Processor, "intent %s reached dead-letter queue: %s (%v)", intent.ID, reason, se)
}

// validate checks the intent payload per the fixed set of checks, mapping
// any failure directly to a ValidationError rather than through
// ParseRPCError.
func validate(intent *models.Intent, from string) *settlementerr.SettlementError {
	if !common.IsHexAddress(intent.To) {
		return settlementerr.NewValidationError("to", "not a well-formed address: "+intent.To)
	}
	if !common.IsHexAddress(from) {
		return settlementerr.NewValidationError("from", "not a well-formed address: "+from)
	}
	value, ok := new(big.Int).SetString(intent.Value, 10)
	if !ok || value.Sign() < 0 {
		return settlementerr.NewValidationError("value", "must be a non-negative decimal integer: "+intent.Value)
	}
	if !strings.HasPrefix(intent.Calldata, "0x") {
		return settlementerr.NewValidationError("calldata", "must be hex-prefixed: "+intent.Calldata)
	}
	if _, err := strconv.ParseUint(intent.GasLimit, 10, 64); err != nil {
		return settlementerr.NewValidationError("gasLimit", "must be a non-negative integer: "+intent.GasLimit)
	}
	return nil
}

func kindLabel(k settlementerr.Kind) string {
	switch k {
	case settlementerr.KindNonceTooLow:
		return "nonce_too_low"
	case settlementerr.KindReplacementFeeTooLow:
		return "replacement_fee_too_low"
	case settlementerr.KindNetworkError:
		return "network_error"
	case settlementerr.KindExecutionReverted:
		return "execution_reverted"
	case settlementerr.KindInsufficientFunds:
		return "insufficient_funds"
	case settlementerr.KindValidationError:
		return "validation_error"
	case settlementerr.KindStoreError:
		return "store_error"
	default:
		return "unknown"
	}
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func weiToGwei(wei *big.Int) float64 {
	f := new(big.Float).Quo(new(big.Float).SetInt(wei), big.NewFloat(1e9))
	v, _ := f.Float64()
	return v
}
