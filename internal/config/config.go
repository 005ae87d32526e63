package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	ServerPort string

	// External Auth/Storage backend. URL and service key are required;
	// the process refuses to start without them.
	StoreURL        string
	StoreServiceKey string

	// Optional shared secret for verifying access tokens locally
	// instead of a round trip to the backend per request.
	StoreJWTSecret string

	// Card notification email (disabled when SESFromEmail is empty)
	AWSRegion    string
	SESFromEmail string
	SESFromName  string
}

// Load reads configuration from the environment. A .env file is loaded
// first if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		ServerPort:      getEnv("PORT", "8080"),
		StoreURL:        os.Getenv("STORE_URL"),
		StoreServiceKey: os.Getenv("STORE_SERVICE_KEY"),
		StoreJWTSecret:  os.Getenv("STORE_JWT_SECRET"),
		AWSRegion:       getEnv("AWS_REGION", "us-east-1"),
		SESFromEmail:    os.Getenv("SES_FROM_EMAIL"),
		SESFromName:     getEnv("SES_FROM_NAME", "Family Scheme Card"),
	}

	if cfg.StoreURL == "" {
		return nil, fmt.Errorf("STORE_URL is required")
	}
	if cfg.StoreServiceKey == "" {
		return nil, fmt.Errorf("STORE_SERVICE_KEY is required")
	}

	return cfg, nil
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
