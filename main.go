package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/speedrun-hq/settlement-worker/pkg/chain"
	"github.com/speedrun-hq/settlement-worker/pkg/config"
	"github.com/speedrun-hq/settlement-worker/pkg/health"
	"github.com/speedrun-hq/settlement-worker/pkg/logger"
	"github.com/speedrun-hq/settlement-worker/pkg/settlement"
	"github.com/speedrun-hq/settlement-worker/pkg/signer"
	"github.com/speedrun-hq/settlement-worker/pkg/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	stdLogger := logger.NewStdLogger(cfg.LoggerConfig.Coloring, cfg.LoggerConfig.Level)

	db, err := store.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to store: %v", err)
	}
	defer db.Close()

	evmChain, err := chain.Dial(cfg.RPCURL, cfg.MaxGasPriceMultiplier, stdLogger)
	if err != nil {
		log.Fatalf("failed to connect to chain: %v", err)
	}

	localSigner, err := signer.NewLocalSigner(cfg.PrivateKey)
	if err != nil {
		log.Fatalf("failed to load signing key: %v", err)
	}
	stdLogger.Notice("signing identity: %s", localSigner.Address())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	supervisor := settlement.New(settlement.Config{
		PollInterval:               cfg.PollInterval,
		WorkerCount:                cfg.WorkerCount,
		ChainID:                    cfg.ChainID,
		MaxRetries:                 cfg.MaxRetries,
		CircuitBreakerEnabled:      cfg.CircuitBreaker.Enabled,
		CircuitBreakerThreshold:    cfg.CircuitBreaker.Threshold,
		CircuitBreakerWindow:       cfg.CircuitBreaker.Window,
		CircuitBreakerResetTimeout: cfg.CircuitBreaker.ResetTimeout,
	}, db, evmChain, localSigner, stdLogger)

	healthServer := health.NewServer(
		cfg.MetricsPort,
		cfg.MetricsKey,
		evmChain,
		supervisor.Queue,
		supervisor.Registry,
		supervisor.Nonce,
		supervisor.Breaker,
		cfg.WorkerCount,
	)
	go func() {
		if err := healthServer.Start(); err != nil {
			stdLogger.Error("health server stopped: %v", err)
		}
	}()

	stdLogger.Notice("starting settlement worker")
	if err := supervisor.Run(ctx); err != nil {
		log.Fatalf("settlement pipeline exited with error: %v", err)
	}
}
