// Package app wires the analytics engine to its storage, cache and event
// infrastructure.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/felixgeelhaar/teampulse/internal/performance/application"
	"github.com/felixgeelhaar/teampulse/internal/performance/application/queries"
	"github.com/felixgeelhaar/teampulse/internal/performance/domain"
	"github.com/felixgeelhaar/teampulse/internal/performance/infrastructure/cache"
	"github.com/felixgeelhaar/teampulse/internal/performance/infrastructure/events"
	"github.com/felixgeelhaar/teampulse/internal/performance/infrastructure/persistence"
	"github.com/felixgeelhaar/teampulse/internal/performance/infrastructure/resilience"
	"github.com/felixgeelhaar/teampulse/internal/shared/infrastructure/convert"
	"github.com/felixgeelhaar/teampulse/internal/shared/infrastructure/database"
	_ "github.com/felixgeelhaar/teampulse/internal/shared/infrastructure/database/postgres" // Register PostgreSQL driver
	_ "github.com/felixgeelhaar/teampulse/internal/shared/infrastructure/database/sqlite"   // Register SQLite driver
	"github.com/felixgeelhaar/teampulse/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/teampulse/internal/shared/infrastructure/migrations"
	"github.com/felixgeelhaar/teampulse/pkg/config"
	"github.com/felixgeelhaar/teampulse/pkg/observability"
)

// Container holds all application dependencies.
type Container struct {
	Config  *config.Config
	Logger  *slog.Logger
	Metrics *observability.InMemoryMetrics
	Health  *observability.HealthRegistry

	// Database
	DBConn database.Connection

	// Redis
	RedisClient *redis.Client

	// Event publishing; Bus is set in local mode only.
	EventPublisher eventbus.Publisher
	Bus            *eventbus.InProcessBus

	// Records
	RecordSource domain.RecordSource
	Breaker      *resilience.BreakerSource
	RecordWriter *persistence.SQLRecordWriter

	// Analytics
	Cache      application.CacheStore
	Aggregator *application.Aggregator
	Refresher  *application.Refresher

	// Query handlers
	GetTeamReportHandler    *queries.GetTeamReportHandler
	GetWorkerRankingHandler *queries.GetWorkerRankingHandler
}

// NewContainer creates a fully wired container. Redis and RabbitMQ are
// optional in development: when unreachable the container falls back to the
// in-memory cache and the noop publisher.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Container{
		Config:  cfg,
		Logger:  logger,
		Metrics: observability.NewInMemoryMetrics(),
		Health:  observability.NewHealthRegistry(),
	}

	conn, err := database.Open(ctx, database.Config{
		Driver:     database.Driver(cfg.DatabaseDriver),
		URL:        cfg.DatabaseURL,
		SQLitePath: cfg.SQLitePath,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := migrations.Run(ctx, conn); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	c.DBConn = conn
	c.Health.Register("database", observability.DatabaseHealthChecker(conn.Ping))
	logger.Info("connected to database", "driver", conn.Driver())

	if err := c.initCache(ctx); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.initPublisher(); err != nil {
		c.Close()
		return nil, err
	}

	c.Breaker = resilience.NewBreakerSource(
		persistence.NewSQLRecordSource(conn),
		resilience.BreakerConfig{
			FailureThreshold: convert.ClampUint32(cfg.FetchBreakerThreshold),
			Timeout:          cfg.FetchBreakerTimeout,
		},
		logger, c.Metrics,
	)
	c.RecordSource = c.Breaker
	c.RecordWriter = persistence.NewSQLRecordWriter(conn)

	opts := []application.AggregatorOption{
		application.WithCache(c.Cache),
		application.WithLogger(logger),
		application.WithMetrics(c.Metrics),
	}
	if cfg.PublishInsights {
		opts = append(opts, application.WithResultPublisher(
			events.NewInsightPublisher(c.EventPublisher, cfg.InsightRoutingKey, logger, c.Metrics),
		))
	}
	c.Aggregator = application.NewAggregator(c.RecordSource, application.AggregatorConfig{
		CacheTTL:         cfg.AnalyticsCacheTTL,
		FetchConcurrency: cfg.AnalyticsFetchConcurrency,
		GracePeriodBonus: cfg.AnalyticsGraceBonus,
	}, opts...)
	c.Refresher = application.NewRefresher(c.Aggregator, application.RefresherConfig{
		Debounce: cfg.AnalyticsFilterDebounce,
		Interval: cfg.AnalyticsRefreshInterval,
	}, logger, c.Metrics)

	// Two missed intervals mark the analytics view as stale.
	c.Health.Register("analytics", observability.FreshnessHealthChecker(
		c.Aggregator.LastSuccess, 2*cfg.AnalyticsRefreshInterval, nil,
	))

	c.GetTeamReportHandler = queries.NewGetTeamReportHandler(c.RecordSource)
	c.GetWorkerRankingHandler = queries.NewGetWorkerRankingHandler(c.RecordSource)

	return c, nil
}

func (c *Container) initCache(ctx context.Context) error {
	cfg, logger := c.Config, c.Logger
	c.Cache = application.NewMemoryStore()
	if cfg.CacheBackend != config.CacheBackendRedis {
		return nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		if !cfg.IsDevelopment() {
			return fmt.Errorf("failed to parse Redis URL: %w", err)
		}
		logger.Warn("invalid Redis URL, analytics cache will use memory", "error", err)
		return nil
	}
	client := redis.NewClient(opt)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		if !cfg.IsDevelopment() {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		logger.Warn("Redis not available, analytics cache will use memory", "error", err)
		return nil
	}

	c.RedisClient = client
	// Redis expiry is housekeeping; freshness is checked against the TTL on read.
	c.Cache = cache.NewRedisStore(client, cache.DefaultKeyPrefix, 10*cfg.AnalyticsCacheTTL)
	c.Health.Register("redis", observability.RedisHealthChecker(func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}))
	logger.Info("connected to Redis")
	return nil
}

func (c *Container) initPublisher() error {
	cfg, logger := c.Config, c.Logger
	switch {
	case !cfg.PublishInsights:
		c.EventPublisher = eventbus.NewNoopPublisher(logger)
	case cfg.LocalMode:
		c.Bus = eventbus.NewInProcessBus(logger)
		c.EventPublisher = c.Bus
	default:
		publisher, err := eventbus.NewRabbitMQPublisher(cfg.RabbitMQURL, logger)
		if err != nil {
			if !cfg.IsDevelopment() {
				return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
			}
			logger.Warn("RabbitMQ not available, using noop publisher", "error", err)
			c.EventPublisher = eventbus.NewNoopPublisher(logger)
			return nil
		}
		c.EventPublisher = publisher
		c.Health.Register("rabbitmq", observability.RabbitMQHealthChecker(publisher.Ping))
	}
	return nil
}

// Close releases every connection the container opened.
func (c *Container) Close() {
	if c.Refresher != nil {
		if err := c.Refresher.Teardown(context.Background()); err != nil {
			c.Logger.Debug("refresher teardown", "error", err)
		}
	}

	if c.EventPublisher != nil {
		if err := c.EventPublisher.Close(); err != nil {
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
			c.Logger.Warn("error closing database", "error", err)
		} else {
			c.Logger.Info("database connection closed")
		}
	}
}
