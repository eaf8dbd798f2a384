// Package app wires configuration, storage, locking and event delivery into
// a ready graph engine for the CLI, the MCP server and the outbox worker.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/taskgraph/internal/graph/application/services"
	"github.com/felixgeelhaar/taskgraph/internal/graph/domain"
	"github.com/felixgeelhaar/taskgraph/internal/graph/infrastructure/persistence"
	sharedApplication "github.com/felixgeelhaar/taskgraph/internal/shared/application"
	"github.com/felixgeelhaar/taskgraph/internal/shared/infrastructure/database"
	_ "github.com/felixgeelhaar/taskgraph/internal/shared/infrastructure/database/postgres" // Register PostgreSQL driver
	_ "github.com/felixgeelhaar/taskgraph/internal/shared/infrastructure/database/sqlite"   // Register SQLite driver
	"github.com/felixgeelhaar/taskgraph/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/taskgraph/internal/shared/infrastructure/lock"
	"github.com/felixgeelhaar/taskgraph/internal/shared/infrastructure/migrations"
	"github.com/felixgeelhaar/taskgraph/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/taskgraph/pkg/config"
	"github.com/felixgeelhaar/taskgraph/pkg/observability"
	"github.com/redis/go-redis/v9"
)

// Container holds all application dependencies.
type Container struct {
	Config  *config.Config
	Logger  *slog.Logger
	Metrics observability.Metrics
	Health  *observability.HealthRegistry

	// Database. Nil in memory mode.
	DBConn   database.Connection
	DBDriver database.Driver

	// Redis. Nil when owner locks are held in process.
	RedisClient *redis.Client

	Store      domain.Store
	UnitOfWork sharedApplication.UnitOfWork
	OutboxRepo outbox.Repository
	Locker     lock.OwnerLocker

	// EventBus receives relayed events when no broker is configured.
	EventBus        *eventbus.InProcessEventBus
	EventPublisher  eventbus.Publisher
	OutboxProcessor *outbox.Processor

	Engine *services.Engine
}

// NewContainer connects to the configured database (SQLite when no
// DATABASE_URL is set), runs migrations and builds the engine. Redis and
// RabbitMQ are optional in development.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	c := &Container{
		Config:  cfg,
		Logger:  logger,
		Metrics: observability.NoopMetrics{},
		Health:  observability.NewHealthRegistry(),
	}

	conn, err := database.NewConnection(ctx, database.Config{
		Driver:     database.Driver(cfg.DatabaseDriver),
		URL:        cfg.DatabaseURL,
		SQLitePath: cfg.SQLitePath,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	c.DBConn = conn
	c.DBDriver = conn.Driver()
	logger.Info("connected to database", "driver", c.DBDriver.String())

	if err := migrations.Run(ctx, conn); err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	c.Health.Register("database", observability.PingHealthChecker("database", conn.Ping))

	factory := NewRepositoryFactory(conn)
	if c.Store, err = factory.TaskStore(); err != nil {
		c.Close()
		return nil, err
	}
	if c.OutboxRepo, err = factory.OutboxRepository(); err != nil {
		c.Close()
		return nil, err
	}
	c.UnitOfWork = factory.UnitOfWork()

	if err := c.initLocker(ctx); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.initPublisher(); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.initEngine(); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

// NewMemoryContainer builds an engine on the in-memory store with
// in-process locks and events. Nothing survives the process.
func NewMemoryContainer(cfg *config.Config, logger *slog.Logger) (*Container, error) {
	store := persistence.NewMemoryStore()
	c := &Container{
		Config:     cfg,
		Logger:     logger,
		Metrics:    observability.NoopMetrics{},
		Health:     observability.NewHealthRegistry(),
		Store:      store,
		UnitOfWork: store,
		OutboxRepo: outbox.NewInMemoryRepository(),
		Locker:     lock.NewLocalLocker(),
	}
	if err := c.initPublisher(); err != nil {
		return nil, err
	}
	if err := c.initEngine(); err != nil {
		return nil, err
	}
	return c, nil
}

// initLocker picks the owner locker. The Redis lock only saves database
// round trips between processes; PostgreSQL transactions also take an
// advisory lock on the owner, so losing Redis never lets two processes
// interleave the writes of one owner.
func (c *Container) initLocker(ctx context.Context) error {
	c.Locker = lock.NewLocalLocker()
	if c.Config.RedisURL == "" {
		if c.DBDriver == database.DriverPostgres {
			c.Logger.Info("no Redis configured, processes serialize owners through advisory locks")
		}
		return nil
	}

	opt, err := redis.ParseURL(c.Config.RedisURL)
	if err != nil {
		if !c.Config.IsDevelopment() {
			return fmt.Errorf("failed to parse Redis URL: %w", err)
		}
		c.Logger.Warn("invalid Redis URL, owner locks stay in process", "error", err)
		return nil
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		if !c.Config.IsDevelopment() {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		c.Logger.Warn("Redis not available, owner locks stay in process", "error", err)
		return nil
	}

	lockCfg := lock.DefaultRedisConfig()
	if c.Config.LockTTL > 0 {
		lockCfg.TTL = c.Config.LockTTL
	}
	locker := lock.NewRedisLocker(client, lockCfg, c.Logger)
	c.RedisClient = client
	c.Locker = locker
	c.Health.Register("redis", observability.OptionalHealthChecker("redis", locker.Ping))
	c.Logger.Info("connected to Redis")
	return nil
}

func (c *Container) initPublisher() error {
	if c.Config.RabbitMQURL == "" {
		c.EventBus = eventbus.NewInProcessEventBus(c.Logger)
		c.EventPublisher = c.EventBus
		return nil
	}

	publisher, err := eventbus.NewRabbitMQPublisher(c.Config.RabbitMQURL, c.Logger)
	if err != nil {
		if !c.Config.IsDevelopment() {
			return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
		}
		c.Logger.Warn("RabbitMQ not available, using in-process event bus", "error", err)
		c.EventBus = eventbus.NewInProcessEventBus(c.Logger)
		c.EventPublisher = c.EventBus
		return nil
	}

	breaker := eventbus.NewBreakerPublisher(publisher, eventbus.DefaultBreakerConfig(), c.Logger)
	c.EventPublisher = breaker
	c.Health.Register("rabbitmq", observability.OptionalHealthChecker("rabbitmq", func(ctx context.Context) error {
		if breaker.State() == "open" {
			return eventbus.ErrBrokerUnavailable
		}
		return publisher.Ping(ctx)
	}))
	c.Logger.Info("connected to RabbitMQ")
	return nil
}

func (c *Container) initEngine() error {
	limits, err := c.Config.Limits()
	if err != nil {
		return err
	}
	engine, err := services.NewEngine(services.EngineConfig{
		Store:      c.Store,
		UnitOfWork: c.UnitOfWork,
		Outbox:     c.OutboxRepo,
		Locker:     c.Locker,
		Limits:     limits,
		Logger:     c.Logger,
		Metrics:    c.Metrics,
	})
	if err != nil {
		return err
	}
	c.Engine = engine

	c.OutboxProcessor = outbox.NewProcessor(c.OutboxRepo, c.EventPublisher, c.processorConfig(), c.Logger).
		WithMetrics(c.Metrics)
	return nil
}

func (c *Container) processorConfig() outbox.ProcessorConfig {
	cfg := outbox.DefaultProcessorConfig()
	if c.Config.OutboxPollInterval > 0 {
		cfg.PollInterval = c.Config.OutboxPollInterval
	}
	if c.Config.OutboxBatchSize > 0 {
		cfg.BatchSize = c.Config.OutboxBatchSize
	}
	if c.Config.OutboxMaxRetries > 0 {
		cfg.MaxRetries = c.Config.OutboxMaxRetries
	}
	cfg.RetentionDays = c.Config.OutboxRetentionDays
	if c.Config.OutboxCleanupInterval > 0 {
		cfg.CleanupInterval = c.Config.OutboxCleanupInterval
	}
	return cfg
}

// StartOutboxProcessor starts relaying events when enabled in config.
func (c *Container) StartOutboxProcessor(ctx context.Context) error {
	if !c.Config.OutboxProcessorEnabled {
		c.Logger.Info("outbox processor disabled")
		return nil
	}
	if err := c.OutboxProcessor.Start(ctx); err != nil {
		return fmt.Errorf("start outbox processor: %w", err)
	}
	return nil
}

// FlushOutbox relays pending events once. Short-lived CLI commands use it
// so local subscribers see events without a running worker.
func (c *Container) FlushOutbox(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return c.OutboxProcessor.ProcessOnce(ctx)
}

// WatchEvents delivers graph events to consumer until ctx is done. In
// local mode the outbox is relayed here onto the in-process bus. With a
// broker, consumer reads from its own auto-deleted queue and the relay is
// left to the worker; a nil consumer then runs the relay in this process.
func (c *Container) WatchEvents(ctx context.Context, consumer eventbus.EventConsumer) error {
	if c.EventBus == nil && consumer != nil {
		sub, err := eventbus.NewRabbitMQConsumer(eventbus.RabbitMQConsumerConfig{
			URL:    c.Config.RabbitMQURL,
			Logger: c.Logger,
		})
		if err != nil {
			return err
		}
		defer sub.Close()
		sub.RegisterConsumer(consumer)
		return sub.Start(ctx)
	}

	if consumer != nil {
		c.EventBus.RegisterConsumer(consumer)
	}
	if err := c.OutboxProcessor.Start(ctx); err != nil {
		return fmt.Errorf("start outbox processor: %w", err)
	}
	<-ctx.Done()
	c.OutboxProcessor.Stop()
	return ctx.Err()
}

// Close cleans up all resources.
func (c *Container) Close() {
	if c.OutboxProcessor != nil && c.OutboxProcessor.IsRunning() {
		c.OutboxProcessor.Stop()
	}

	if c.EventPublisher != nil {
		if err := c.EventPublisher.Close(); err != nil && !errors.Is(err, context.Canceled) {
			c.Logger.Warn("error closing event publisher", "error", err)
		}
	}

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			c.Logger.Warn("error closing Redis connection", "error", err)
		} else {
			c.Logger.Info("Redis connection closed")
		}
	}

	if c.DBConn != nil {
		if err := c.DBConn.Close(); err != nil {
			c.Logger.Warn("error closing database connection", "error", err)
		} else {
			c.Logger.Info("database connection closed", "driver", c.DBDriver.String())
		}
	}
}
