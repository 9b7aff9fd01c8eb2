package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Supported values for DB_DRIVER.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

// ErrMissingJWTSecret is returned when no signing key is configured.
var ErrMissingJWTSecret = errors.New("JWT_SECRET must be set")

// Config holds the application configuration.
type Config struct {
	ServerPort int
	BasePath   string // Prefix mounted in front of /api
	AppEnv     string
	LogLevel   string

	DatabaseDriver string
	DatabasePath   string // SQLite file
	DatabaseURL    string // Postgres DSN
	MongoURI       string
	MongoDatabase  string

	JWTSecret string
	TokenTTL  time.Duration

	AllowedOrigins []string

	AMQPURL      string
	AMQPExchange string

	EventRetention     time.Duration
	EventPruneSchedule string
}

// Load loads configuration from environment variables or sets defaults.
// A .env file in the working directory is honoured when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	portStr := getEnv("PORT", "8080")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT %q: %w", portStr, err)
	}

	ttl, err := getEnvDuration("TOKEN_TTL", 24*time.Hour)
	if err != nil {
		return nil, err
	}
	retention, err := getEnvDuration("EVENT_RETENTION", 90*24*time.Hour)
	if err != nil {
		return nil, err
	}

	return &Config{
		ServerPort:         port,
		BasePath:           strings.TrimRight(getEnv("BASE_PATH", ""), "/"),
		AppEnv:             getEnv("APP_ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		DatabaseDriver:     strings.ToLower(getEnv("DB_DRIVER", DriverSQLite)),
		DatabasePath:       getEnv("DATABASE_PATH", "./incomesense.db"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		MongoURI:           getEnv("MONGO_URI", ""),
		MongoDatabase:      getEnv("MONGO_DATABASE", "incomesense"),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		TokenTTL:           ttl,
		AllowedOrigins:     splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173")),
		AMQPURL:            getEnv("AMQP_URL", ""),
		AMQPExchange:       getEnv("AMQP_EXCHANGE", "incomesense.events"),
		EventRetention:     retention,
		EventPruneSchedule: getEnv("EVENT_PRUNE_SCHEDULE", "0 3 * * *"),
	}, nil
}

// IsProduction reports whether the service runs with APP_ENV=production.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Validate checks the configuration and reports every problem found at once.
// A missing JWT secret is always reported as ErrMissingJWTSecret so callers can match it.
func (c *Config) Validate() error {
	var problems []string

	if c.ServerPort < 1 || c.ServerPort > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %d: must be between 1 and 65535", c.ServerPort))
	}

	switch c.DatabaseDriver {
	case DriverSQLite:
		if c.DatabasePath == "" {
			problems = append(problems, "DATABASE_PATH cannot be empty when DB_DRIVER=sqlite")
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			problems = append(problems, "DATABASE_URL is required when DB_DRIVER=postgres")
		}
	case DriverMongo:
		if c.MongoURI == "" {
			problems = append(problems, "MONGO_URI is required when DB_DRIVER=mongo")
		}
		if c.MongoDatabase == "" {
			problems = append(problems, "MONGO_DATABASE cannot be empty when DB_DRIVER=mongo")
		}
	default:
		problems = append(problems, fmt.Sprintf("invalid DB_DRIVER '%s': must be one of [sqlite postgres mongo]", c.DatabaseDriver))
	}

	if c.TokenTTL <= 0 {
		problems = append(problems, fmt.Sprintf("invalid TOKEN_TTL %v: must be positive", c.TokenTTL))
	}

	if c.AMQPURL != "" {
		if u, err := url.Parse(c.AMQPURL); err != nil {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL: %v", err))
		} else if u.Scheme != "amqp" && u.Scheme != "amqps" {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", u.Scheme))
		}
		if c.AMQPExchange == "" {
			problems = append(problems, "AMQP_EXCHANGE cannot be empty when AMQP_URL is set")
		}
	}

	if c.EventRetention < time.Hour {
		problems = append(problems, fmt.Sprintf("invalid EVENT_RETENTION %v: must be at least 1h", c.EventRetention))
	}
	if _, err := cron.ParseStandard(c.EventPruneSchedule); err != nil {
		problems = append(problems, fmt.Sprintf("invalid EVENT_PRUNE_SCHEDULE '%s': %v", c.EventPruneSchedule, err))
	}

	var err error
	if len(problems) > 0 {
		err = fmt.Errorf("configuration validation failed:\n- %s", strings.Join(problems, "\n- "))
	}
	if c.JWTSecret == "" {
		err = errors.Join(ErrMissingJWTSecret, err)
	}
	return err
}

// Helper to get an environment variable with a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
