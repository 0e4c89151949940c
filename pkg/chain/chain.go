// Package chain defines the Chain capability the processor drives an
// intent through, and an ethclient-backed implementation of it against a
// real EVM-style JSON-RPC endpoint.
package chain

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/speedrun-hq/settlement-worker/pkg/logger"
)

// Receipt is the subset of an on-chain receipt the pipeline cares about.
type Receipt struct {
	TxHash      string
	BlockNumber uint64
	Status      uint64
}

// Chain is the external transactional collaborator the processor drives
// every intent through. Implementations must be safe for concurrent use.
type Chain interface {
	// GetNonce returns the pending-nonce for address.
	GetNonce(ctx context.Context, address string) (int64, error)
	// GetGasPrice returns the current suggested gas price, with the
	// configured multiplier already applied.
	GetGasPrice(ctx context.Context) (*big.Int, error)
	// SendRaw broadcasts an already-signed transaction and returns its
	// hash.
	SendRaw(ctx context.Context, signedHex string) (string, error)
	// GetTx looks up a transaction by hash; returns found=false if not found.
	GetTx(ctx context.Context, hash string) (found bool, pending bool, err error)
	// WaitFor blocks, up to 60s, for the transaction to be mined and
	// returns its receipt.
	WaitFor(ctx context.Context, hash string) (*Receipt, error)
	// ChainID returns the network's chain ID as reported by the endpoint.
	// Built transactions carry the configured chain ID, not this value.
	ChainID(ctx context.Context) (*big.Int, error)
}

// EVMChain is the production Chain implementation, backed by
// go-ethereum's ethclient.
type EVMChain struct {
	client        *ethclient.Client
	gasMultiplier float64
	logger        logger.Logger
}

var _ Chain = (*EVMChain)(nil)

// Dial connects to the given RPC endpoint. gasMultiplier scales the
// suggested gas price (e.g. 1.1 = a 10% buffer over the network
// suggestion), matching the teacher's per-chain gas multiplier.
func Dial(rpcURL string, gasMultiplier float64, log logger.Logger) (*EVMChain, error) {
	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("chain: failed to connect: %w", err)
	}
	if log == nil {
		log = &logger.EmptyLogger{}
	}
	return &EVMChain{client: client, gasMultiplier: gasMultiplier, logger: log}, nil
}

// Connected reports whether the underlying client was constructed
// successfully, for the health server's readiness check.
func (c *EVMChain) Connected() bool {
	return c.client != nil
}

func (c *EVMChain) GetNonce(ctx context.Context, address string) (int64, error) {
	nonce, err := c.client.PendingNonceAt(ctx, common.HexToAddress(address))
	if err != nil {
		return 0, fmt.Errorf("failed to get pending nonce: %w", err)
	}
	return int64(nonce), nil
}

func (c *EVMChain) GetGasPrice(ctx context.Context) (*big.Int, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	gasPrice, err := c.client.SuggestGasPrice(timeoutCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to get gas price: %w", err)
	}

	multiplied := new(big.Float).Mul(
		new(big.Float).SetInt(gasPrice),
		big.NewFloat(c.gasMultiplier),
	)
	final := new(big.Int)
	multiplied.Int(final)

	c.logger.DebugWithStage(logger.Processor, "suggested gas price %s wei (multiplier %.2f) -> %s wei",
		gasPrice.String(), c.gasMultiplier, final.String())

	return final, nil
}

func (c *EVMChain) SendRaw(ctx context.Context, signedHex string) (string, error) {
	var tx types.Transaction
	if err := tx.UnmarshalBinary(common.FromHex(signedHex)); err != nil {
		return "", fmt.Errorf("failed to decode signed transaction: %w", err)
	}
	if err := c.client.SendTransaction(ctx, &tx); err != nil {
		return "", err
	}
	return tx.Hash().Hex(), nil
}

func (c *EVMChain) GetTx(ctx context.Context, hash string) (bool, bool, error) {
	_, isPending, err := c.client.TransactionByHash(ctx, common.HexToHash(hash))
	if err != nil {
		if err == ethereum.NotFound {
			return false, false, nil
		}
		return false, false, err
	}
	return true, isPending, nil
}

func (c *EVMChain) WaitFor(ctx context.Context, hash string) (*Receipt, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	txHash := common.HexToHash(hash)
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		receipt, err := c.client.TransactionReceipt(timeoutCtx, txHash)
		if err == nil {
			return &Receipt{
				TxHash:      receipt.TxHash.Hex(),
				BlockNumber: receipt.BlockNumber.Uint64(),
				Status:      receipt.Status,
			}, nil
		}
		if err != ethereum.NotFound {
			return nil, err
		}

		select {
		case <-timeoutCtx.Done():
			return nil, fmt.Errorf("timed out waiting for transaction %s to be mined", hash)
		case <-ticker.C:
		}
	}
}

func (c *EVMChain) ChainID(ctx context.Context) (*big.Int, error) {
	return c.client.ChainID(ctx)
}
