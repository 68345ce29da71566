package di

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"user-service/internal/adapter/repository/cached"
	"user-service/internal/config"
	"user-service/internal/usecase/user"
)

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		Store: config.StoreConfig{
			URI:          "sqlite://" + filepath.Join(t.TempDir(), "users.db"),
			Database:     "user_service",
			Collection:   "users",
			MaxOpenConns: 4,
			MaxIdleConns: 2,
		},
		App:    config.AppConfig{HTTPPort: "3000", ShutdownTimeoutSeconds: 5},
		Redis:  config.RedisConfig{Port: "6379", CacheTTL: 60, PoolSize: 2},
		Logger: config.LoggerConfig{Level: "warn"},
	}
}

func TestNewContainer_WithoutCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewContainer(ctx, testConfig(t), zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close(ctx) })

	assert.Nil(t, c.RedisClient)
	assert.Same(t, c.Store.Repo, c.Repo)
	assert.NotNil(t, c.GinHandler)
	assert.NotNil(t, c.Registry)
}

func TestNewContainer_WithCache(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	cfg := testConfig(t)
	cfg.Redis.CacheEnabled = true
	cfg.Redis.Host = mr.Host()
	cfg.Redis.Port = mr.Port()

	c, err := NewContainer(ctx, cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close(ctx) })

	require.NotNil(t, c.RedisClient)
	assert.IsType(t, &cached.UserRepository{}, c.Repo)

	created, err := c.UserUC.CreateUser(ctx, user.CreateUserRequest{
		Payload: map[string]any{"name": "Ann", "email": "ann@example.com"},
	})
	require.NoError(t, err)

	_, err = c.UserUC.GetUser(ctx, user.GetUserRequest{ID: created.ID})
	require.NoError(t, err)
	assert.True(t, mr.Exists("user:"+created.ID))
}

func TestNewContainer_InvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.App.HTTPPort = "not-a-port"

	_, err := NewContainer(context.Background(), cfg, zaptest.NewLogger(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config validation failed")
}
