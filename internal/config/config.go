package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the runtime settings for the API process, read from the
// environment with an optional .env file for local development.
type Config struct {
	Port         string
	PostgresURL  string
	KafkaBrokers []string

	ShopifyStoreName   string
	ShopifyAPIKey      string
	ShopifyAPIPassword string
	ShopifyAPIVersion  string
	ShopifyTimeout     time.Duration

	StrictStatus bool
}

// Load reads the configuration. A missing .env file is not an error;
// production deployments set real environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:               getenv("PORT", "3001"),
		PostgresURL:        os.Getenv("POSTGRES_URL"),
		ShopifyStoreName:   os.Getenv("SHOPIFY_STORE_NAME"),
		ShopifyAPIKey:      os.Getenv("SHOPIFY_API_KEY"),
		ShopifyAPIPassword: os.Getenv("SHOPIFY_API_PASSWORD"),
		ShopifyAPIVersion:  os.Getenv("SHOPIFY_API_VERSION"),
		ShopifyTimeout:     10 * time.Second,
	}

	if cfg.PostgresURL == "" {
		return nil, errors.New("POSTGRES_URL environment variable is required")
	}

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}

	if raw := os.Getenv("SHOPIFY_TIMEOUT"); raw != "" {
		timeout, err := time.ParseDuration(raw)
		if err != nil {
			return nil, errors.New("SHOPIFY_TIMEOUT must be a duration, e.g. 10s")
		}
		cfg.ShopifyTimeout = timeout
	}

	if raw := os.Getenv("ORDERS_STRICT_STATUS"); raw != "" {
		strict, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, errors.New("ORDERS_STRICT_STATUS must be a boolean")
		}
		cfg.StrictStatus = strict
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
