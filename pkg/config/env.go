package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	// DefaultPollInterval is the producer's poll period when
	// POLL_INTERVAL_MS is unset.
	DefaultPollInterval = 2000 * time.Millisecond

	// DefaultWorkerCount is the worker pool size when WORKER_COUNT is
	// unset.
	DefaultWorkerCount = 2

	// DefaultMaxRetries is the per-intent transient retry budget when
	// MAX_RETRIES is unset.
	DefaultMaxRetries = 3

	// DefaultMaxGasPriceMultiplier bounds any gas-bump strategy when
	// MAX_GAS_PRICE_MULTIPLIER is unset.
	DefaultMaxGasPriceMultiplier = 1.2

	// DefaultChainID is used when CHAIN_ID is unset.
	DefaultChainID = 1

	// DefaultMetricsPort is the health/metrics server's port when
	// METRICS_PORT is unset.
	DefaultMetricsPort = "9090"

	// DefaultCircuitBreakerEnabled controls whether the broadcast guard
	// is active by default.
	DefaultCircuitBreakerEnabled = true

	// DefaultCircuitBreakerThreshold is the number of failures within
	// the window that trips the breaker by default.
	DefaultCircuitBreakerThreshold = 5

	// DefaultCircuitBreakerWindow is the sliding window failures are
	// counted within by default.
	DefaultCircuitBreakerWindow = 60 * time.Second

	// DefaultCircuitBreakerReset is the cooldown before a half-open probe
	// by default.
	DefaultCircuitBreakerReset = 60 * time.Second
)

func getEnvString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: must be an integer", key, v)
	}
	return n, nil
}

func getEnvInt64(key string, fallback int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: must be an integer", key, v)
	}
	return n, nil
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		return 0, fmt.Errorf("invalid %s value %q: must be a positive number", key, v)
	}
	return f, nil
}

func getEnvBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return false, fmt.Errorf("invalid %s value %q: must be 'true' or 'false'", key, v)
	}
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		if seconds, serr := strconv.Atoi(v); serr == nil {
			return time.Duration(seconds) * time.Second, nil
		}
		return 0, fmt.Errorf("invalid %s value %q: must be a duration string", key, v)
	}
	return d, nil
}

// getEnvSeconds parses key as a bare integer number of seconds, matching
// env vars whose name says "_SECONDS" rather than accepting a Go duration
// string like getEnvDuration does.
func getEnvSeconds(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	seconds, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: must be an integer number of seconds", key, v)
	}
	return time.Duration(seconds) * time.Second, nil
}

func getEnvPollInterval() (time.Duration, error) {
	v := os.Getenv("POLL_INTERVAL_MS")
	if v == "" {
		return DefaultPollInterval, nil
	}
	ms, err := strconv.Atoi(v)
	if err != nil || ms <= 0 {
		return 0, fmt.Errorf("invalid POLL_INTERVAL_MS value %q: must be a positive integer", v)
	}
	return time.Duration(ms) * time.Millisecond, nil
}
