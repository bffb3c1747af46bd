package main

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skinscan/internal/config"
	"skinscan/internal/kv"
	"skinscan/internal/logging"
)

func TestOpenStore(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		h, err := openStore(ctx, &config.AppConfig{KV: config.KVConfig{Backend: "memory"}}, logging.Nop())
		require.NoError(t, err)
		defer h.Close()
		assert.IsType(t, &kv.MemoryStore{}, h.Store)
		assert.NoError(t, h.Ping(ctx))
	})

	t.Run("redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		h, err := openStore(ctx, &config.AppConfig{KV: config.KVConfig{Backend: "redis", RedisAddr: mr.Addr()}}, logging.Nop())
		require.NoError(t, err)
		defer h.Close()
		assert.IsType(t, &kv.RedisStore{}, h.Store)
		assert.NoError(t, h.Ping(ctx))
	})

	t.Run("redis unreachable", func(t *testing.T) {
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()
		_, err := openStore(ctx, &config.AppConfig{KV: config.KVConfig{Backend: "redis", RedisAddr: addr}}, logging.Nop())
		assert.ErrorContains(t, err, "redis ping")
	})

	t.Run("postgres without config", func(t *testing.T) {
		_, err := openStore(ctx, &config.AppConfig{KV: config.KVConfig{Backend: "postgres"}}, logging.Nop())
		assert.ErrorContains(t, err, "invalid database config")
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := openStore(ctx, &config.AppConfig{KV: config.KVConfig{Backend: "etcd"}}, logging.Nop())
		assert.EqualError(t, err, `unknown KV_BACKEND "etcd"`)
	})
}
