package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/felixgeelhaar/taskgraph/internal/graph/domain"
	"github.com/joho/godotenv"
)

// DefaultUserID is the owner used by the CLI when none is configured.
const DefaultUserID = "00000000-0000-0000-0000-000000000001"

// Config holds application configuration.
type Config struct {
	// Application
	AppEnv   string
	LogLevel string
	UserID   string

	// Database. An empty DatabaseURL selects local SQLite mode.
	DatabaseURL    string
	DatabaseDriver string
	SQLitePath     string
	LocalMode      bool

	// Redis. Empty means owner locks are held in process.
	RedisURL string
	LockTTL  time.Duration

	// RabbitMQ. Empty means events go to the in-process bus.
	RabbitMQURL string

	// Outbox
	OutboxPollInterval     time.Duration
	OutboxBatchSize        int
	OutboxMaxRetries       int
	OutboxRetentionDays    int
	OutboxCleanupInterval  time.Duration
	OutboxProcessorEnabled bool

	// Worker
	WorkerHealthAddr string

	// MCP
	MCPAddr      string
	MCPAuthToken string

	// Graph policy
	MaxTreeDepth       int
	MaxDependencyDepth int
	MaxTasksPerOwner   int
	// TraversalCeiling of zero follows MaxTasksPerOwner.
	TraversalCeiling int
	ConflictRetries  int
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	defaults := domain.DefaultLimits()
	databaseURL := getEnv("DATABASE_URL", "")

	cfg := &Config{
		AppEnv:   getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		UserID:   getEnv("TASKGRAPH_USER_ID", DefaultUserID),

		DatabaseURL:    databaseURL,
		DatabaseDriver: getEnv("DATABASE_DRIVER", defaultDriver(databaseURL)),
		SQLitePath:     getEnv("SQLITE_PATH", ""),
		LocalMode:      databaseURL == "",

		RedisURL:    getEnv("REDIS_URL", ""),
		LockTTL:     getDurationEnv("TASKGRAPH_LOCK_TTL", 30*time.Second),
		RabbitMQURL: getEnv("RABBITMQ_URL", ""),

		OutboxPollInterval:     getDurationEnv("OUTBOX_POLL_INTERVAL", 100*time.Millisecond),
		OutboxBatchSize:        getIntEnv("OUTBOX_BATCH_SIZE", 100),
		OutboxMaxRetries:       getIntEnv("OUTBOX_MAX_RETRIES", 5),
		OutboxRetentionDays:    getIntEnv("OUTBOX_RETENTION_DAYS", 7),
		OutboxCleanupInterval:  getDurationEnv("OUTBOX_CLEANUP_INTERVAL", time.Hour),
		OutboxProcessorEnabled: getBoolEnv("OUTBOX_PROCESSOR_ENABLED", true),

		WorkerHealthAddr: getEnv("WORKER_HEALTH_ADDR", "0.0.0.0:8081"),

		MCPAddr:      getEnv("MCP_ADDR", "0.0.0.0:8082"),
		MCPAuthToken: getEnv("MCP_AUTH_TOKEN", ""),

		MaxTreeDepth:       getIntEnv("TASKGRAPH_MAX_TREE_DEPTH", defaults.MaxTreeDepth),
		MaxDependencyDepth: getIntEnv("TASKGRAPH_MAX_DEPENDENCY_DEPTH", defaults.MaxDependencyDepth),
		MaxTasksPerOwner:   getIntEnv("TASKGRAPH_MAX_TASKS_PER_OWNER", defaults.MaxTasksPerOwner),
		TraversalCeiling:   getIntEnv("TASKGRAPH_TRAVERSAL_CEILING", 0),
		ConflictRetries:    getIntEnv("TASKGRAPH_CONFLICT_RETRIES", defaults.ConflictRetries),
	}

	if _, err := cfg.Limits(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Limits returns the validated graph policy.
func (c *Config) Limits() (domain.Limits, error) {
	limits := domain.Limits{
		MaxTreeDepth:       c.MaxTreeDepth,
		MaxDependencyDepth: c.MaxDependencyDepth,
		MaxTasksPerOwner:   c.MaxTasksPerOwner,
		TraversalCeiling:   c.TraversalCeiling,
		ConflictRetries:    c.ConflictRetries,
	}
	if limits.TraversalCeiling == 0 {
		limits.TraversalCeiling = limits.MaxTasksPerOwner
	}
	if err := limits.Validate(); err != nil {
		return domain.Limits{}, fmt.Errorf("invalid graph policy: %w", err)
	}
	return limits, nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func defaultDriver(databaseURL string) string {
	if databaseURL == "" {
		return "sqlite"
	}
	return "postgres"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
