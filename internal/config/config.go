// Package config provides application configuration through environment variables.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/allisson/go-env"
	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	// ServerHost is the host address the server will bind to.
	ServerHost string
	// ServerPort is the port number the server will listen on.
	ServerPort int

	// LogLevel is the logging level (e.g., "debug", "info", "warn", "error").
	LogLevel string

	// QueueDBDriver is the driver backing the local durable log ("sqlite3", "postgres", "mysql").
	QueueDBDriver string
	// QueueDBConnectionString is the DSN (or file path for sqlite3) of the local durable log.
	QueueDBConnectionString string
	// QueueDBMaxOpenConnections is the maximum number of open connections to the log database.
	QueueDBMaxOpenConnections int
	// QueueDBMaxIdleConnections is the maximum number of idle connections in the log database pool.
	QueueDBMaxIdleConnections int
	// QueueDBConnMaxLifetime is the maximum amount of time a connection may be reused.
	QueueDBConnMaxLifetime time.Duration
	// QueueAutoMigrate applies the embedded migrations when the log database is opened.
	QueueAutoMigrate bool

	// QueueDrainBatchSize is the number of pending operations replayed per drain.
	QueueDrainBatchSize int
	// QueueMaxRetries moves an operation to the dead-letter table after this many
	// transient replay failures. Zero disables the bound.
	QueueMaxRetries int
	// QueueDrainInterval enables a background drain tick when greater than zero.
	QueueDrainInterval time.Duration
	// QueuePayloadKeyURI seals queued payloads with a gocloud.dev/secrets keeper when set.
	QueuePayloadKeyURI string

	// RemoteDriver selects the remote data store adapter ("postgrest", "postgres", "mysql").
	RemoteDriver string
	// RemoteURL is the base URL of the PostgREST endpoint (a Supabase project URL).
	RemoteURL string
	// RemoteAPIKey is sent as both apikey and bearer token to PostgREST.
	RemoteAPIKey string
	// RemoteTimeout bounds a single remote write.
	RemoteTimeout time.Duration
	// RemoteDBConnectionString is the DSN used by the SQL remote store adapters.
	RemoteDBConnectionString string

	// RateLimitEnabled indicates whether per-IP rate limiting of the API is enabled.
	RateLimitEnabled bool
	// RateLimitRequestsPerSec is the number of requests allowed per second per client IP.
	RateLimitRequestsPerSec float64
	// RateLimitBurst is the burst size for rate limiting.
	RateLimitBurst int

	// CORSEnabled indicates whether CORS is enabled.
	CORSEnabled bool
	// CORSAllowOrigins is a comma-separated list of allowed origins for CORS.
	CORSAllowOrigins string

	// MetricsEnabled indicates whether metrics collection is enabled.
	MetricsEnabled bool
	// MetricsNamespace is the namespace for the application metrics.
	MetricsNamespace string
	// MetricsPort is the port number for the metrics server.
	MetricsPort int
}

// Load loads configuration from environment variables and .env file.
func Load() *Config {
	loadDotEnv()

	return &Config{
		// Server configuration
		ServerHost: env.GetString("SERVER_HOST", "0.0.0.0"),
		ServerPort: env.GetInt("SERVER_PORT", 8080),

		// Logging
		LogLevel: env.GetString("LOG_LEVEL", "info"),

		// Local durable log
		QueueDBDriver:             env.GetString("QUEUE_DB_DRIVER", "sqlite3"),
		QueueDBConnectionString:   env.GetString("QUEUE_DB_CONNECTION_STRING", "pending_sync.db"),
		QueueDBMaxOpenConnections: env.GetInt("QUEUE_DB_MAX_OPEN_CONNECTIONS", 25),
		QueueDBMaxIdleConnections: env.GetInt("QUEUE_DB_MAX_IDLE_CONNECTIONS", 5),
		QueueDBConnMaxLifetime:    env.GetDuration("QUEUE_DB_CONN_MAX_LIFETIME_MINUTES", 5, time.Minute),
		QueueAutoMigrate:          env.GetBool("QUEUE_AUTO_MIGRATE", true),

		// Queue behavior
		QueueDrainBatchSize: env.GetInt("QUEUE_DRAIN_BATCH_SIZE", 20),
		QueueMaxRetries:     env.GetInt("QUEUE_MAX_RETRIES", 100),
		QueueDrainInterval:  env.GetDuration("QUEUE_DRAIN_INTERVAL_SECONDS", 0, time.Second),
		QueuePayloadKeyURI:  env.GetString("QUEUE_PAYLOAD_KEY_URI", ""),

		// Remote data store
		RemoteDriver:             env.GetString("REMOTE_DRIVER", "postgrest"),
		RemoteURL:                env.GetString("REMOTE_URL", "http://localhost:54321"),
		RemoteAPIKey:             env.GetString("REMOTE_API_KEY", ""),
		RemoteTimeout:            env.GetDuration("REMOTE_TIMEOUT_SECONDS", 10, time.Second),
		RemoteDBConnectionString: env.GetString("REMOTE_DB_CONNECTION_STRING", ""),

		// Rate Limiting
		RateLimitEnabled:        env.GetBool("RATE_LIMIT_ENABLED", true),
		RateLimitRequestsPerSec: env.GetFloat64("RATE_LIMIT_REQUESTS_PER_SEC", 10.0),
		RateLimitBurst:          env.GetInt("RATE_LIMIT_BURST", 20),

		// CORS
		CORSEnabled:      env.GetBool("CORS_ENABLED", false),
		CORSAllowOrigins: env.GetString("CORS_ALLOW_ORIGINS", ""),

		// Metrics
		MetricsEnabled:   env.GetBool("METRICS_ENABLED", true),
		MetricsNamespace: env.GetString("METRICS_NAMESPACE", "writequeue"),
		MetricsPort:      env.GetInt("METRICS_PORT", 8081),
	}
}

// GetGinMode returns the appropriate Gin mode based on log level.
func (c *Config) GetGinMode() string {
	if c.LogLevel == "debug" {
		return "debug"
	}
	return "release"
}

// loadDotEnv searches for a .env file recursively from the current directory
// up to the root directory and loads it if found.
func loadDotEnv() {
	cwd, err := os.Getwd()
	if err != nil {
		return
	}

	dir := cwd
	for {
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			_ = godotenv.Load(envPath)
			return
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
}
