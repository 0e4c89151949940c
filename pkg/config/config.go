// Package config loads the worker's configuration from environment
// variables, the same two-phase pattern as the teacher's config package:
// an optional .env load via godotenv, followed by a sequence of typed
// GetEnvXxx accessors that each carry a hardcoded default.
package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"

	"github.com/speedrun-hq/settlement-worker/pkg/logger"
)

// Config holds every recognized configuration option for the worker.
type Config struct {
	RPCURL                string
	ChainID               int64
	PrivateKey            string
	DatabaseURL           string
	PollInterval          time.Duration
	MaxRetries            int
	MaxGasPriceMultiplier float64

	WorkerCount int
	MetricsPort string
	MetricsKey  string

	CircuitBreaker CircuitBreakerConfig
	LoggerConfig   LoggerConfig
}

// CircuitBreakerConfig configures the broadcast guard in pkg/breaker.
type CircuitBreakerConfig struct {
	Enabled      bool
	Threshold    int
	Window       time.Duration
	ResetTimeout time.Duration
}

// LoggerConfig configures pkg/logger.
type LoggerConfig struct {
	Level    logger.Level
	Coloring bool
}

// Load reads configuration from the environment, optionally preceded by a
// .env file. A missing .env file is not fatal, matching the teacher's
// behavior.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: .env file not found, using environment variables")
	}

	pollInterval, err := getEnvPollInterval()
	if err != nil {
		return nil, err
	}

	workerCount, err := getEnvInt("WORKER_COUNT", DefaultWorkerCount)
	if err != nil {
		return nil, err
	}

	maxRetries, err := getEnvInt("MAX_RETRIES", DefaultMaxRetries)
	if err != nil {
		return nil, err
	}

	maxGasPriceMultiplier, err := getEnvFloat("MAX_GAS_PRICE_MULTIPLIER", DefaultMaxGasPriceMultiplier)
	if err != nil {
		return nil, err
	}

	chainID, err := getEnvInt64("CHAIN_ID", DefaultChainID)
	if err != nil {
		return nil, err
	}

	cbEnabled, err := getEnvBool("CIRCUIT_BREAKER_ENABLED", DefaultCircuitBreakerEnabled)
	if err != nil {
		return nil, err
	}

	cbThreshold, err := getEnvInt("CIRCUIT_BREAKER_THRESHOLD", DefaultCircuitBreakerThreshold)
	if err != nil {
		return nil, err
	}

	cbWindow, err := getEnvDuration("CIRCUIT_BREAKER_WINDOW", DefaultCircuitBreakerWindow)
	if err != nil {
		return nil, err
	}

	cbReset, err := getEnvSeconds("CIRCUIT_BREAKER_RESET_SECONDS", DefaultCircuitBreakerReset)
	if err != nil {
		return nil, err
	}

	logLevel := logger.ParseLevel(getEnvString("LOG_LEVEL", "info"))
	logColoring, err := getEnvBool("LOG_COLOR", true)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		RPCURL:                getEnvString("RPC_URL", ""),
		ChainID:               chainID,
		PrivateKey:            getEnvString("PRIVATE_KEY", ""),
		DatabaseURL:           getEnvString("DATABASE_URL", ""),
		PollInterval:          pollInterval,
		MaxRetries:            maxRetries,
		MaxGasPriceMultiplier: maxGasPriceMultiplier,
		WorkerCount:           workerCount,
		MetricsPort:           getEnvString("METRICS_PORT", DefaultMetricsPort),
		MetricsKey:            getEnvString("METRICS_API_KEY", ""),
		CircuitBreaker: CircuitBreakerConfig{
			Enabled:      cbEnabled,
			Threshold:    cbThreshold,
			Window:       cbWindow,
			ResetTimeout: cbReset,
		},
		LoggerConfig: LoggerConfig{
			Level:    logLevel,
			Coloring: logColoring,
		},
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.RPCURL == "" {
		return fmt.Errorf("RPC_URL environment variable is required")
	}
	if cfg.PrivateKey == "" {
		return fmt.Errorf("PRIVATE_KEY environment variable is required")
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable is required")
	}
	return nil
}
