package config

import (
	"fmt"
	"net/netip"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Supported values for DATA_BACKEND.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

type Config struct {
	// HTTP Server
	Port string

	// Backend selection
	DataBackend    string
	MemorySeedFile string
	SQLiteDBPath   string
	PostgresDSN    string

	// AMQP report jobs, disabled when the URL is empty
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Kafka report events, disabled when no broker is set
	KafkaBrokers []string
	KafkaTopic   string

	// Google Sheets export, disabled without a spreadsheet id
	GoogleSpreadsheetID      string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// Report generation
	BalanceCacheSize            int
	BalanceCacheTTL             time.Duration
	BalanceCacheRedisURL        string
	OpeningConcurrency          int
	DefaultPresentationCurrency string

	// HTTP API surface
	AuthJWTSecret         string
	AuthJWTIssuer         string
	CORSAllowedOrigins    []string
	TrustedProxies        []string
	MetricsEnabled        bool
	JobRateLimitPerMinute int
	JobRateLimitBurst     int

	LogLevel string
}

func Load() *Config {
	cfg := &Config{
		Port: getEnv("PORT", "8080"),

		DataBackend:    getEnv("DATA_BACKEND", BackendMemory),
		MemorySeedFile: getEnv("MEMORY_SEED_FILE", "./data/gl_entries.json"),
		SQLiteDBPath:   getEnv("SQLITE_DB_PATH", "./data/glreport.db"),
		PostgresDSN:    getEnv("POSTGRES_DSN", ""),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "glreport"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "customer_gl_reports"),

		KafkaBrokers: getEnvList("KAFKA_BROKERS"),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "gl_report_generated"),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),

		BalanceCacheSize:            getEnvInt("BALANCE_CACHE_SIZE", 1024),
		BalanceCacheTTL:             getEnvDuration("BALANCE_CACHE_TTL", time.Minute),
		BalanceCacheRedisURL:        getEnv("BALANCE_CACHE_REDIS_URL", ""),
		OpeningConcurrency:          getEnvInt("OPENING_CONCURRENCY", 4),
		DefaultPresentationCurrency: getEnv("DEFAULT_PRESENTATION_CURRENCY", "USD"),

		AuthJWTSecret:         getEnv("AUTH_JWT_SECRET", ""),
		AuthJWTIssuer:         getEnv("AUTH_JWT_ISSUER", ""),
		CORSAllowedOrigins:    getEnvList("CORS_ALLOWED_ORIGINS"),
		TrustedProxies:        getEnvList("TRUSTED_PROXIES"),
		MetricsEnabled:        getEnvBool("METRICS_ENABLED", true),
		JobRateLimitPerMinute: getEnvInt("JOB_RATE_LIMIT_PER_MINUTE", 30),
		JobRateLimitBurst:     getEnvInt("JOB_RATE_LIMIT_BURST", 10),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	return cfg
}

// JobsEnabled reports whether an AMQP broker is configured.
func (c *Config) JobsEnabled() bool { return c.AMQPURL != "" }

// EventsEnabled reports whether Kafka brokers are configured.
func (c *Config) EventsEnabled() bool { return len(c.KafkaBrokers) > 0 }

// RedisCacheEnabled reports whether balances are cached in Redis instead of
// the in-process LRU.
func (c *Config) RedisCacheEnabled() bool { return c.BalanceCacheRedisURL != "" }

// ExportEnabled reports whether reports should be written to Google Sheets.
func (c *Config) ExportEnabled() bool { return c.GoogleSpreadsheetID != "" }

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	// Validate data backend
	validBackends := []string{BackendMemory, BackendSQLite, BackendPostgres}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	switch c.DataBackend {
	case BackendSQLite:
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	case BackendPostgres:
		if c.PostgresDSN == "" {
			errors = append(errors, "POSTGRES_DSN is required when using postgres backend")
		} else if u, err := url.Parse(c.PostgresDSN); err != nil {
			errors = append(errors, fmt.Sprintf("invalid Postgres DSN: %v", err))
		} else if u.Scheme != "postgres" && u.Scheme != "postgresql" {
			errors = append(errors, fmt.Sprintf("invalid Postgres DSN scheme '%s': must be 'postgres' or 'postgresql'", u.Scheme))
		}
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.EventsEnabled() && c.KafkaTopic == "" {
		errors = append(errors, "Kafka topic cannot be empty when KAFKA_BROKERS is set")
	}

	if c.ExportEnabled() {
		if c.GoogleServiceAccountFile == "" && c.GoogleServiceAccountJSON == "" {
			errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_SERVICE_ACCOUNT_JSON must be provided for sheets export")
		}
		if c.GoogleServiceAccountFile != "" {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	}

	if c.BalanceCacheSize < 0 {
		errors = append(errors, fmt.Sprintf("invalid balance cache size %d: must not be negative", c.BalanceCacheSize))
	}
	if c.BalanceCacheSize > 0 && c.BalanceCacheTTL < time.Second {
		errors = append(errors, fmt.Sprintf("invalid balance cache TTL %v: must be at least 1 second", c.BalanceCacheTTL))
	}

	if c.BalanceCacheRedisURL != "" {
		if u, err := url.Parse(c.BalanceCacheRedisURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid Redis URL: %v", err))
		} else if u.Scheme != "redis" && u.Scheme != "rediss" {
			errors = append(errors, fmt.Sprintf("invalid Redis URL scheme '%s': must be 'redis' or 'rediss'", u.Scheme))
		}
		if c.BalanceCacheTTL < time.Second {
			errors = append(errors, fmt.Sprintf("invalid balance cache TTL %v: must be at least 1 second", c.BalanceCacheTTL))
		}
	}

	if c.AuthJWTSecret != "" && len(c.AuthJWTSecret) < 16 {
		errors = append(errors, "AUTH_JWT_SECRET must be at least 16 characters")
	}
	for _, origin := range c.CORSAllowedOrigins {
		if origin == "*" {
			continue
		}
		if u, err := url.Parse(origin); err != nil || u.Scheme == "" || u.Host == "" {
			errors = append(errors, fmt.Sprintf("invalid CORS origin '%s': must be '*' or scheme://host", origin))
		}
	}
	for _, proxy := range c.TrustedProxies {
		if _, err := netip.ParsePrefix(proxy); err == nil {
			continue
		}
		if _, err := netip.ParseAddr(proxy); err != nil {
			errors = append(errors, fmt.Sprintf("invalid trusted proxy '%s': must be an IP or CIDR", proxy))
		}
	}
	if c.JobRateLimitPerMinute < 1 || c.JobRateLimitBurst < 1 {
		errors = append(errors, fmt.Sprintf("invalid job rate limit %d/min burst %d: both must be positive", c.JobRateLimitPerMinute, c.JobRateLimitBurst))
	}

	if c.OpeningConcurrency < 1 {
		errors = append(errors, fmt.Sprintf("invalid opening concurrency %d: must be at least 1", c.OpeningConcurrency))
	} else if c.OpeningConcurrency > 64 {
		errors = append(errors, fmt.Sprintf("invalid opening concurrency %d: must be at most 64", c.OpeningConcurrency))
	}

	if strings.TrimSpace(c.DefaultPresentationCurrency) == "" {
		errors = append(errors, "default presentation currency cannot be empty")
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be debug, info, warn or error", c.LogLevel))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvList splits a comma separated variable, dropping blank items.
func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
