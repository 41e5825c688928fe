package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

type Config struct {
	Port                    string
	Env                     string
	LogLevel                string
	StorageDriver           string
	PostgresConnStr         string
	MongoURI                string
	MongoDatabase           string
	MetricsPort             string
	JWTSecret               string
	FirebaseCredentialsPath string

	StripeSecretKey     string
	StripeWebhookSecret string
	StripePriceID       string
	StripeCurrency      string
	StripeTimeout       time.Duration

	RedisURL       string
	AccessCacheTTL time.Duration
	RequestTimeout time.Duration
}

// Load reads the configuration from the environment, after loading an
// optional .env file. It reports whether a .env file was found.
func Load() (*Config, bool, error) {
	dotenv := godotenv.Load() == nil

	cfg := &Config{
		Port:                    getEnv("PORT", "8080"),
		Env:                     getEnv("ENV", "development"),
		LogLevel:                getEnv("LOG_LEVEL", "info"),
		StorageDriver:           getEnv("STORAGE_DRIVER", StorageDriverPostgres),
		PostgresConnStr:         getEnv("POSTGRES_CONN_STR", ""),
		MongoURI:                getEnv("MONGO_URI", ""),
		MongoDatabase:           getEnv("MONGO_DATABASE", "nanopress"),
		MetricsPort:             getEnv("METRICS_PORT", "9090"),
		JWTSecret:               getEnv("JWT_SECRET", ""),
		FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),
		StripeSecretKey:         getEnv("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret:     getEnv("STRIPE_WEBHOOK_SECRET", ""),
		StripePriceID:           getEnv("STRIPE_PRICE_ID", ""),
		StripeCurrency:          getEnv("STRIPE_CURRENCY", "usd"),
		RedisURL:                getEnv("REDIS_URL", ""),
	}

	var err error
	if cfg.StripeTimeout, err = getDuration("STRIPE_TIMEOUT", 10*time.Second); err != nil {
		return nil, dotenv, err
	}
	if cfg.AccessCacheTTL, err = getDuration("ACCESS_CACHE_TTL", 30*time.Second); err != nil {
		return nil, dotenv, err
	}
	if cfg.RequestTimeout, err = getDuration("REQUEST_TIMEOUT", 15*time.Second); err != nil {
		return nil, dotenv, err
	}
	return cfg, dotenv, cfg.Validate()
}

// Validate checks the settings every deployment needs.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET environment variable not set")
	}
	switch c.StorageDriver {
	case StorageDriverMemory:
	case StorageDriverPostgres:
		if c.PostgresConnStr == "" {
			return fmt.Errorf("POSTGRES_CONN_STR environment variable not set")
		}
		if c.MongoURI == "" {
			return fmt.Errorf("MONGO_URI environment variable not set")
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}
	return nil
}

// IsDevelopment reports whether internal error details may be exposed.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
