package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"skinscan/internal/config"
	"skinscan/internal/database"
	"skinscan/internal/database/migration"
	"skinscan/internal/kv"
)

// kvHandle is the selected key-value backend plus its lifecycle hooks.
type kvHandle struct {
	Store kv.Store
	Ping  func(context.Context) error
	Close func()
}

func openStore(ctx context.Context, cfg *config.AppConfig, log zerolog.Logger) (kvHandle, error) {
	switch cfg.KV.Backend {
	case "postgres":
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			return kvHandle{}, err
		}
		if err := migration.EnsureMigrated(ctx, db, log, cfg.Database.Endpoint()); err != nil {
			db.Close()
			return kvHandle{}, err
		}
		return kvHandle{
			Store: kv.NewPostgresStore(db),
			Ping:  db.PingContext,
			Close: closeDB(db, log),
		}, nil

	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.KV.RedisAddr,
			Password: cfg.KV.RedisPassword,
			DB:       cfg.KV.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return kvHandle{}, fmt.Errorf("redis ping: %w", err)
		}
		return kvHandle{
			Store: kv.NewRedisStore(client),
			Ping:  func(ctx context.Context) error { return client.Ping(ctx).Err() },
			Close: func() { _ = client.Close() },
		}, nil

	case "memory":
		log.Warn().Msg("using in-memory key-value store; data is lost on restart")
		return kvHandle{
			Store: kv.NewMemoryStore(),
			Ping:  func(context.Context) error { return nil },
			Close: func() {},
		}, nil

	default:
		return kvHandle{}, fmt.Errorf("unknown KV_BACKEND %q", cfg.KV.Backend)
	}
}

func closeDB(db *sql.DB, log zerolog.Logger) func() {
	return func() {
		if err := db.Close(); err != nil {
			log.Error().Err(err).Msg("close database")
		}
	}
}
