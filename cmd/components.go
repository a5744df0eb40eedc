package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"example.com/backstage/services/picking/config"
	"example.com/backstage/services/picking/internal/cache"
	"example.com/backstage/services/picking/internal/database"
	"example.com/backstage/services/picking/internal/messaging"
	"example.com/backstage/services/picking/internal/metrics"
	"example.com/backstage/services/picking/internal/repository"
	"example.com/backstage/services/picking/internal/search"
	"example.com/backstage/services/picking/internal/service"
	"example.com/backstage/services/picking/internal/tokenstore"
	"example.com/backstage/services/picking/internal/tracing"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// memoryDSN selects the in-process repository instead of Postgres
const memoryDSN = "memory"

// components holds the infrastructure shared by serve and worker
type components struct {
	cfg       config.Config
	metrics   *metrics.Metrics
	tracer    tracing.Tracer
	db        *gorm.DB
	repo      repository.Repository
	redis     cache.RedisClient
	indexer   search.PickListIndexer
	publisher messaging.Publisher
}

func newComponents(cfg config.Config) (*components, error) {
	c := &components{cfg: cfg, metrics: metrics.NewMetrics()}

	tracer, err := tracing.NewTracer(cfg.Tracing)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize tracer, continuing without tracing")
		tracer = tracing.NewNoopTracer()
	}
	c.tracer = tracer

	if cfg.DB.DSN == memoryDSN {
		log.Warn().Msg("Using in-memory repository, data is lost on exit")
		c.repo = repository.NewMemoryRepository()
	} else {
		db, err := database.Connect(cfg.DB, c.metrics)
		if err != nil {
			return nil, err
		}
		c.db = db
		c.repo = repository.NewRepository(db)
	}
	c.metrics.SetHealth("database", true)

	if cfg.Redis.Enabled || cfg.Tokens.Backend == "redis" {
		client, err := cache.NewRedisClient(cfg.Redis)
		if err != nil {
			if cfg.Tokens.Backend == "redis" {
				return nil, err
			}
			log.Warn().Err(err).Msg("Failed to initialize Redis, continuing without it")
		} else {
			c.redis = client
			c.metrics.SetHealth("redis", true)
		}
	}

	if cfg.Elastic.Enabled {
		client, err := search.NewElasticClient(cfg.Elastic)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize Elasticsearch client, continuing without search indexing")
		} else {
			c.indexer = client
		}
	}

	c.publisher = messaging.NoopPublisher{}
	if cfg.Azure.QueueConnStr != "" {
		publisher, err := messaging.NewServiceBusPublisher(cfg.Azure, "picking-service")
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize Azure Service Bus, events will not be published")
		} else {
			c.publisher = publisher
		}
	}

	return c, nil
}

// inviteStore picks the token backend. The returned scheduler, when not nil,
// sweeps the in-memory store and must be shut down by the caller.
func (c *components) inviteStore() (tokenstore.Store[service.InviteCode], gocron.Scheduler, error) {
	if c.cfg.Tokens.Expiration <= 0 {
		return nil, nil, fmt.Errorf("tokens.expiration must be positive, got %s", c.cfg.Tokens.Expiration)
	}
	if c.cfg.Tokens.Backend == "redis" {
		return tokenstore.NewRedisStore[service.InviteCode](c.redis, c.cfg.Tokens.Expiration, c.cfg.Tokens.KeyPrefix), nil, nil
	}

	store := tokenstore.NewMemoryStore[service.InviteCode](c.cfg.Tokens.Expiration)
	if c.cfg.Tokens.SweepInterval <= 0 {
		return store, nil, nil
	}
	scheduler, err := store.StartSweeper(c.cfg.Tokens.SweepInterval)
	if err != nil {
		return nil, nil, err
	}
	return store, scheduler, nil
}

// startHealthChecks runs checkHealth now and then every interval until the
// returned scheduler is shut down
func (c *components) startHealthChecks(ctx context.Context, interval time.Duration) (gocron.Scheduler, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("health check interval must be positive, got %s", interval)
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() { c.checkHealth(ctx) }),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return nil, err
	}

	scheduler.Start()
	return scheduler, nil
}

// checkHealth pings the backing stores and records the result
func (c *components) checkHealth(ctx context.Context) {
	if c.db != nil {
		err := database.Ping(c.db)
		c.metrics.SetHealth("database", err == nil)
		if err != nil {
			log.Error().Err(err).Msg("Database health check failed")
		}
	}

	if c.redis != nil {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := c.redis.Ping(pingCtx)
		cancel()
		c.metrics.SetHealth("redis", err == nil)
		if err != nil {
			log.Error().Err(err).Msg("Redis health check failed")
		}
	}
}

func (c *components) Close() error {
	var errs []error
	if c.publisher != nil {
		errs = append(errs, c.publisher.Close())
	}
	if c.redis != nil {
		errs = append(errs, c.redis.Close())
	}
	if c.db != nil {
		if sqlDB, err := c.db.DB(); err == nil {
			errs = append(errs, sqlDB.Close())
		}
	}
	c.tracer.Close()
	return errors.Join(errs...)
}
