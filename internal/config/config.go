package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the runtime configuration for the service
type Config struct {
	Port     int
	LogLevel string
	Env      string

	// StorageDir holds one JSON file per order; EventsDir receives
	// state change event files for poll-based consumers.
	StorageDir string
	EventsDir  string

	// StatesPath points at the YAML file defining the lifecycle rules.
	StatesPath string
	// CatalogPath points at the YAML customer/product catalog for seeding.
	CatalogPath string

	Kafka     KafkaConfig
	Relay     RelayConfig
	RateLimit RateLimitConfig
}

// KafkaConfig holds the Kafka connection settings
type KafkaConfig struct {
	Brokers     []string
	EventsTopic string
}

// RelayConfig holds the event relay settings
type RelayConfig struct {
	Enabled         bool
	PollingInterval time.Duration
	BatchSize       int
	MaxAttempts     int
}

// RateLimitConfig holds the per-IP API rate limit settings
type RateLimitConfig struct {
	MaxTokens  float64
	RefillRate float64
}

// getEnv retrieves the value of an environment variable or returns a default value if not set.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}

	return defaultValue
}

// Load reads the configuration from environment variables and returns a Config struct.
func Load() (*Config, error) {
	port, err := strconv.Atoi(getEnv("PORT", "8080"))

	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}

	pollingSeconds, err := strconv.Atoi(getEnv("RELAY_POLLING_SECONDS", "5"))

	if err != nil {
		return nil, fmt.Errorf("invalid RELAY_POLLING_SECONDS: %w", err)
	}

	batchSize, err := strconv.Atoi(getEnv("RELAY_BATCH_SIZE", "10"))

	if err != nil {
		return nil, fmt.Errorf("invalid RELAY_BATCH_SIZE: %w", err)
	}

	maxAttempts, err := strconv.Atoi(getEnv("RELAY_MAX_ATTEMPTS", "3"))

	if err != nil {
		return nil, fmt.Errorf("invalid RELAY_MAX_ATTEMPTS: %w", err)
	}

	maxTokens, err := strconv.ParseFloat(getEnv("RATE_LIMIT_MAX_TOKENS", "20"), 64)

	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_MAX_TOKENS: %w", err)
	}

	refillRate, err := strconv.ParseFloat(getEnv("RATE_LIMIT_REFILL_RATE", "10"), 64)

	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_REFILL_RATE: %w", err)
	}

	brokers := splitAndTrim(getEnv("KAFKA_BROKERS", ""))

	return &Config{
		Port:        port,
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Env:         getEnv("APP_ENV", "development"),
		StorageDir:  getEnv("ORDER_STORAGE_DIR", "data/orders"),
		EventsDir:   getEnv("ORDER_EVENTS_DIR", "data/events"),
		StatesPath:  getEnv("ORDER_STATES_CONFIG", "configs/order_states.yaml"),
		CatalogPath: getEnv("SEED_CATALOG_CONFIG", "configs/seed_catalog.yaml"),
		Kafka: KafkaConfig{
			Brokers:     brokers,
			EventsTopic: getEnv("KAFKA_EVENTS_TOPIC", "order-events"),
		},
		Relay: RelayConfig{
			// The relay only runs when brokers are configured; event
			// files remain the source of truth either way.
			Enabled:         len(brokers) > 0,
			PollingInterval: time.Duration(pollingSeconds) * time.Second,
			BatchSize:       batchSize,
			MaxAttempts:     maxAttempts,
		},
		RateLimit: RateLimitConfig{
			MaxTokens:  maxTokens,
			RefillRate: refillRate,
		},
	}, nil
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}

	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))

	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}

	return out
}
