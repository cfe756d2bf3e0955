package app

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/anansi/internal/config"
	"github.com/MrSnakeDoc/anansi/internal/connect"
	"github.com/MrSnakeDoc/anansi/internal/domain"
	"github.com/MrSnakeDoc/anansi/internal/logger"
	"github.com/MrSnakeDoc/anansi/internal/redis"
	"github.com/MrSnakeDoc/anansi/internal/store/memory"
	"github.com/MrSnakeDoc/anansi/internal/store/postgres"
	redisstore "github.com/MrSnakeDoc/anansi/internal/store/redis"
)

// Backend is the record store selected by the configuration, optionally
// fronted by the Redis read cache.
type Backend struct {
	Store domain.Store
	Cache *redisstore.CachedStore // nil when Redis is not configured

	db          *sqlx.DB
	redisClient *goredis.Client
	logger      logger.Logger
}

// OpenBackend connects the configured store (and cache) and applies
// pending migrations when auto-migrate is on.
func OpenBackend(ctx context.Context, cfg *config.Config, log logger.Logger) (*Backend, error) {
	b := &Backend{logger: log}

	switch cfg.StoreBackend {
	case config.StoreMemory:
		log.Warn("using the in-memory store, bookmarks will be lost on restart")
		b.Store = memory.NewStore()

	case config.StorePostgres:
		if cfg.AutoMigrate {
			if err := postgres.MigrateUp(cfg.DatabaseDSN, log); err != nil {
				return nil, fmt.Errorf("apply migrations: %w", err)
			}
		}

		db, err := postgres.Open(ctx, postgres.Options{
			DSN:             cfg.DatabaseDSN,
			MaxOpenConns:    cfg.DBMaxOpenConns,
			MaxIdleConns:    cfg.DBMaxIdleConns,
			ConnMaxLifetime: cfg.DBConnMaxLifetime,
			Retry: connect.Policy{
				ConnectTimeout: cfg.DBConnectTimeout,
				RetryInterval:  cfg.DBRetryInterval,
				MaxWait:        cfg.DBMaxWait,
				PingTimeout:    cfg.DBPingTimeout,
				WarnThreshold:  cfg.DBWarnThreshold,
			},
		}, log)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		b.db = db
		b.Store = postgres.NewStore(db)

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}

	if cfg.RedisAddr == "" {
		log.Info("redis not configured, read cache disabled")
		return b, nil
	}

	log.Infof("Connecting to Redis at %s", cfg.RedisAddr)
	client, err := redis.New(ctx, redis.ConnectOptions{
		Addr:         cfg.RedisAddr,
		User:         cfg.RedisUser,
		Password:     cfg.RedisPassword,
		RedisDB:      cfg.RedisDB,
		DialTimeout:  cfg.RedisDT,
		ReadTimeout:  cfg.RedisRT,
		WriteTimeout: cfg.RedisWT,
		PoolSize:     cfg.RedisPoolSize,
		Retry: connect.Policy{
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
			WarnThreshold:  cfg.RedisWarnThreshold,
		},
	}, log)
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	b.redisClient = client
	b.Cache = redisstore.NewCachedStore(b.Store, client, log.Named("cache"), cfg.CacheTTL)
	b.Store = b.Cache

	// Entries written by a previous run may be stale if the database was
	// changed while we were down.
	n, err := b.Cache.FlushCache(ctx)
	if err != nil {
		log.Warn("failed to flush bookmark cache", logger.Error(err))
	} else {
		log.Info("bookmark cache flushed", logger.Int("keys", n))
	}

	return b, nil
}

// Close releases the database pool and Redis client.
func (b *Backend) Close() {
	if b.redisClient != nil {
		if err := b.redisClient.Close(); err != nil {
			b.logger.Warnf("failed to close redis: %v", err)
		} else {
			b.logger.Info("✅ Redis closed cleanly")
		}
	}
	if b.db != nil {
		if err := b.db.Close(); err != nil {
			b.logger.Warnf("failed to close database: %v", err)
		} else {
			b.logger.Info("✅ Database closed cleanly")
		}
	}
}
