package app

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/admissions-crm/internal/config"
	"github.com/ignite/admissions-crm/internal/pkg/logger"
	"github.com/ignite/admissions-crm/internal/repository/memory"
	"github.com/ignite/admissions-crm/internal/repository/postgres"
	"github.com/ignite/admissions-crm/internal/storage"
)

// Runtime holds the external connections behind a wired Services.
type Runtime struct {
	Config   *config.Config
	DB       *sql.DB       // nil on the in-memory store
	Redis    *redis.Client // nil when REDIS_URL is unset
	Storage  *storage.Storage
	Services *Services
}

// SetupLogging applies the logging section of cfg.
func SetupLogging(cfg config.LoggingConfig) {
	logger.SetLevel(logger.ParseLevel(cfg.Level))
	logger.SetRedactPII(cfg.Redact())
}

// OpenRedis parses url and pings the server. An empty url returns nil.
func OpenRedis(ctx context.Context, url string) (*redis.Client, error) {
	if url == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		opts = &redis.Options{Addr: url}
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// Start connects every configured backend and wires the services. Without
// a database URL it runs on the in-memory store, which only DevMode allows.
func Start(ctx context.Context, cfg *config.Config) (*Runtime, error) {
	rt := &Runtime{Config: cfg}

	var repos Repositories
	switch {
	case cfg.Database.URL != "":
		db, err := postgres.Open(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		rt.DB = db
		repos = PostgresRepositories(postgres.NewStore(db))
		logger.Info("using postgres store")
	case cfg.DevMode:
		repos = MemoryRepositories(memory.NewStore())
		logger.Warn("DATABASE_URL not set, using in-memory store; data is lost on restart")
	default:
		return nil, fmt.Errorf("DATABASE_URL is required unless DEV_MODE is set")
	}

	client, err := OpenRedis(ctx, cfg.Redis.URL)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.Redis = client

	store, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("init storage: %w", err)
	}
	rt.Storage = store

	sink, err := BuildSink(ctx, cfg, store)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.Services = NewServices(cfg, repos, sink, store)
	return rt, nil
}

// Close releases the database and Redis connections.
func (rt *Runtime) Close() {
	if rt.Redis != nil {
		if err := rt.Redis.Close(); err != nil {
			logger.Warn("redis close failed", "error", err)
		}
	}
	if rt.DB != nil {
		if err := rt.DB.Close(); err != nil {
			logger.Warn("database close failed", "error", err)
		}
	}
}
