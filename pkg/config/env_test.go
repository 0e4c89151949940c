package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetEnvIntFallback(t *testing.T) {
	t.Setenv("SETTLEMENT_TEST_INT", "")
	n, err := getEnvInt("SETTLEMENT_TEST_INT", 7)
	assert.NoError(t, err)
	assert.Equal(t, 7, n)
}

func TestGetEnvIntRejectsNonInteger(t *testing.T) {
	t.Setenv("SETTLEMENT_TEST_INT", "not-a-number")
	_, err := getEnvInt("SETTLEMENT_TEST_INT", 7)
	assert.Error(t, err)
}

func TestGetEnvFloatRejectsNonPositive(t *testing.T) {
	t.Setenv("SETTLEMENT_TEST_FLOAT", "0")
	_, err := getEnvFloat("SETTLEMENT_TEST_FLOAT", 1.0)
	assert.Error(t, err)

	t.Setenv("SETTLEMENT_TEST_FLOAT", "-1.5")
	_, err = getEnvFloat("SETTLEMENT_TEST_FLOAT", 1.0)
	assert.Error(t, err)
}

func TestGetEnvBoolRejectsUnrecognizedValue(t *testing.T) {
	t.Setenv("SETTLEMENT_TEST_BOOL", "yes")
	_, err := getEnvBool("SETTLEMENT_TEST_BOOL", true)
	assert.Error(t, err)
}

func TestGetEnvDurationAcceptsBareSeconds(t *testing.T) {
	t.Setenv("SETTLEMENT_TEST_DURATION", "30")
	d, err := getEnvDuration("SETTLEMENT_TEST_DURATION", time.Minute)
	assert.NoError(t, err)
	assert.Equal(t, 30*time.Second, d)
}

func TestGetEnvDurationAcceptsGoDurationString(t *testing.T) {
	t.Setenv("SETTLEMENT_TEST_DURATION", "1h30m")
	d, err := getEnvDuration("SETTLEMENT_TEST_DURATION", time.Minute)
	assert.NoError(t, err)
	assert.Equal(t, 90*time.Minute, d)
}

func TestGetEnvSecondsParsesBareInteger(t *testing.T) {
	t.Setenv("SETTLEMENT_TEST_SECONDS", "60")
	d, err := getEnvSeconds("SETTLEMENT_TEST_SECONDS", time.Minute)
	assert.NoError(t, err)
	assert.Equal(t, 60*time.Second, d)
}

func TestGetEnvSecondsFallback(t *testing.T) {
	t.Setenv("SETTLEMENT_TEST_SECONDS", "")
	d, err := getEnvSeconds("SETTLEMENT_TEST_SECONDS", 90*time.Second)
	assert.NoError(t, err)
	assert.Equal(t, 90*time.Second, d)
}

func TestGetEnvSecondsRejectsDurationString(t *testing.T) {
	t.Setenv("SETTLEMENT_TEST_SECONDS", "60s")
	_, err := getEnvSeconds("SETTLEMENT_TEST_SECONDS", time.Minute)
	assert.Error(t, err, "a _SECONDS env var takes a bare integer, not a Go duration string")
}

func TestGetEnvPollIntervalRejectsNonPositive(t *testing.T) {
	t.Setenv("POLL_INTERVAL_MS", "0")
	_, err := getEnvPollInterval()
	assert.Error(t, err)
}

func TestGetEnvPollIntervalDefault(t *testing.T) {
	t.Setenv("POLL_INTERVAL_MS", "")
	d, err := getEnvPollInterval()
	assert.NoError(t, err)
	assert.Equal(t, DefaultPollInterval, d)
}
