// Package storage opens the task store selected by configuration.
package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"tasklist/internal/config"
	"tasklist/internal/db"
	"tasklist/pkg/store"
	"tasklist/pkg/task"
)

// Open connects to the configured backend and wraps it in an Adapter.
// The caller owns the Adapter and must Close it.
func Open(ctx context.Context, cfg config.Storage, log *slog.Logger) (*store.Adapter, error) {
	backend, err := openBackend(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s storage: %w", cfg.Driver, err)
	}
	if log == nil {
		log = slog.Default()
	}
	log.Info("storage opened", "driver", cfg.Driver, "key", cfg.Key)
	return store.New(backend, log), nil
}

func openBackend(ctx context.Context, cfg config.Storage) (store.Backend, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return store.NewMemory(), nil
	case config.DriverSQLite:
		s, err := store.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.DriverPostgres:
		pool, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		pg := store.NewPgStore(pool)
		if err := pg.EnsureTable(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		return pg, nil
	case config.DriverRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		return store.NewRedis(client, cfg.RedisPrefix), nil
	default:
		return nil, fmt.Errorf("unknown driver %q", cfg.Driver)
	}
}

// TaskStore returns the task collection stored under cfg.Key.
func TaskStore(a *store.Adapter, cfg config.Storage) task.Store {
	return store.NewValue(a, cfg.Key, []task.Task{})
}
