package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "data/orders", cfg.StorageDir)
	assert.Equal(t, "data/events", cfg.EventsDir)
	assert.Equal(t, 5*time.Second, cfg.Relay.PollingInterval)
	assert.Equal(t, 3, cfg.Relay.MaxAttempts)
	assert.False(t, cfg.Relay.Enabled)
	assert.Equal(t, 20.0, cfg.RateLimit.MaxTokens)
	assert.Equal(t, 10.0, cfg.RateLimit.RefillRate)
}

func TestLoadRateLimitFromEnv(t *testing.T) {
	t.Setenv("RATE_LIMIT_MAX_TOKENS", "50")
	t.Setenv("RATE_LIMIT_REFILL_RATE", "2.5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 50.0, cfg.RateLimit.MaxTokens)
	assert.Equal(t, 2.5, cfg.RateLimit.RefillRate)
}

func TestLoadRejectsInvalidRateLimit(t *testing.T) {
	t.Setenv("RATE_LIMIT_MAX_TOKENS", "plenty")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadEnablesRelayWithBrokers(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "broker-1:9092, broker-2:9092")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.Relay.Enabled)
	assert.Equal(t, []string{"broker-1:9092", "broker-2:9092"}, cfg.Kafka.Brokers)
}
