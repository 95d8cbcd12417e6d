package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/Gunvolt24/storefront-sync/config"
	"github.com/Gunvolt24/storefront-sync/internal/kvstore/memory"
	"github.com/Gunvolt24/storefront-sync/internal/kvstore/redis"
	"github.com/Gunvolt24/storefront-sync/internal/kvstore/sqlite"
	"github.com/Gunvolt24/storefront-sync/internal/ports"
	"github.com/Gunvolt24/storefront-sync/internal/repo/postgres"
)

// openStore — хранилище под кэшем по STORE_DRIVER; closeFn освобождает соединения.
func openStore(ctx context.Context, cfg *config.Config) (store ports.KVStore, closeFn func(), err error) {
	noop := func() {}

	switch strings.ToLower(strings.TrimSpace(cfg.Store.Driver)) {
	case "memory":
		return memory.NewStore(), noop, nil

	case "sqlite":
		s, err := sqlite.Open(ctx, cfg.SQLite.Path)
		if err != nil {
			return nil, noop, err
		}
		return s, func() { _ = s.Close() }, nil

	case "postgres":
		if err := postgres.Migrate(ctx, cfg.Postgres.DSN); err != nil {
			return nil, noop, err
		}
		pool, err := postgres.NewPool(ctx, postgres.PoolConfig{
			DSN:         cfg.Postgres.DSN,
			MaxConns:    cfg.Postgres.MaxConns,
			MinConns:    cfg.Postgres.MinConns,
			MaxLifetime: cfg.Postgres.MaxConnLifetime,
		})
		if err != nil {
			return nil, noop, err
		}
		return postgres.NewKVStore(pool), pool.Close, nil

	case "redis":
		s, err := redis.New(ctx, redis.Options{
			Addr:        cfg.Redis.Addr,
			Password:    cfg.Redis.Password,
			DB:          cfg.Redis.DB,
			PoolSize:    cfg.Redis.PoolSize,
			DialTimeout: cfg.Redis.DialTimeout,
		})
		if err != nil {
			return nil, noop, err
		}
		return s, func() { _ = s.Close() }, nil

	default:
		return nil, noop, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
