package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		ServerPort:         8080,
		DatabaseDriver:     DriverSQLite,
		DatabasePath:       "./test.db",
		MongoDatabase:      "incomesense",
		JWTSecret:          "secret",
		TokenTTL:           24 * time.Hour,
		EventRetention:     24 * time.Hour,
		EventPruneSchedule: "0 3 * * *",
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("PORT", "9090")
	t.Setenv("BASE_PATH", "/finance/")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, http://b.test ,")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.ServerPort)
	assert.Equal(t, "/finance", cfg.BasePath)
	assert.Equal(t, DriverSQLite, cfg.DatabaseDriver)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_InvalidPort(t *testing.T) {
	t.Setenv("PORT", "abc")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("TOKEN_TTL", "one day")
	_, err := Load()
	assert.ErrorContains(t, err, "TOKEN_TTL")
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(c *Config)
		errorString string
	}{
		{
			name:   "valid sqlite config",
			mutate: func(c *Config) {},
		},
		{
			name:        "port out of range",
			mutate:      func(c *Config) { c.ServerPort = 70000 },
			errorString: "invalid port 70000: must be between 1 and 65535",
		},
		{
			name:        "unknown driver",
			mutate:      func(c *Config) { c.DatabaseDriver = "oracle" },
			errorString: "invalid DB_DRIVER 'oracle'",
		},
		{
			name:        "postgres without url",
			mutate:      func(c *Config) { c.DatabaseDriver = DriverPostgres },
			errorString: "DATABASE_URL is required",
		},
		{
			name:        "mongo without uri",
			mutate:      func(c *Config) { c.DatabaseDriver = DriverMongo },
			errorString: "MONGO_URI is required",
		},
		{
			name:        "bad amqp scheme",
			mutate:      func(c *Config) { c.AMQPURL = "http://localhost:5672" },
			errorString: "invalid AMQP URL scheme 'http'",
		},
		{
			name:        "bad cron schedule",
			mutate:      func(c *Config) { c.EventPruneSchedule = "every day" },
			errorString: "invalid EVENT_PRUNE_SCHEDULE",
		},
		{
			name:        "non-positive ttl",
			mutate:      func(c *Config) { c.TokenTTL = 0 },
			errorString: "invalid TOKEN_TTL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.errorString == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorString)
		})
	}
}

func TestConfig_ValidateMissingSecret(t *testing.T) {
	cfg := validConfig()
	cfg.JWTSecret = ""
	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingJWTSecret))

	cfg.ServerPort = 0
	err = cfg.Validate()
	assert.True(t, errors.Is(err, ErrMissingJWTSecret))
	assert.Contains(t, err.Error(), "invalid port 0")
}
