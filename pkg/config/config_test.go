package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{"PORT", "ENV", "MONGO_DATABASE", "STRIPE_CURRENCY", "STRIPE_TIMEOUT", "ACCESS_CACHE_TTL", "REQUEST_TIMEOUT"} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("STORAGE_DRIVER", "memory")

	cfg, _, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "nanopress", cfg.MongoDatabase)
	assert.Equal(t, "usd", cfg.StripeCurrency)
	assert.Equal(t, 10*time.Second, cfg.StripeTimeout)
	assert.Equal(t, 30*time.Second, cfg.AccessCacheTTL)
	assert.Equal(t, 15*time.Second, cfg.RequestTimeout)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoadParsesDurations(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("ACCESS_CACHE_TTL", "5s")

	cfg, _, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, cfg.AccessCacheTTL)

	t.Setenv("STRIPE_TIMEOUT", "soon")
	_, _, err = Load()
	assert.ErrorContains(t, err, "STRIPE_TIMEOUT")
}

func TestValidate(t *testing.T) {
	cfg := &Config{StorageDriver: StorageDriverPostgres, JWTSecret: "s"}
	assert.ErrorContains(t, cfg.Validate(), "POSTGRES_CONN_STR")

	cfg.PostgresConnStr = "postgres://localhost/db"
	assert.ErrorContains(t, cfg.Validate(), "MONGO_URI")

	cfg.MongoURI = "mongodb://localhost"
	assert.NoError(t, cfg.Validate())

	cfg.JWTSecret = ""
	assert.ErrorContains(t, cfg.Validate(), "JWT_SECRET")

	cfg = &Config{StorageDriver: "sqlite", JWTSecret: "s"}
	assert.Error(t, cfg.Validate())
}
