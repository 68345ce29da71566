package di

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"user-service/cmd/api/infrastructure"
	"user-service/internal/adapter/cache"
	ginhandler "user-service/internal/adapter/gin/handler"
	"user-service/internal/adapter/repository/cached"
	"user-service/internal/config"
	"user-service/internal/usecase/user"
	redisclient "user-service/pkg/redis"
)

// Container holds all application dependencies
type Container struct {
	Config      *config.Config
	Logger      *zap.Logger
	Store       *infrastructure.Store
	Repo        user.Repository
	RedisClient *redisclient.Client // nil unless CACHE_ENABLED
	Registry    *prometheus.Registry
	UserUC      user.UserUsecase
	GinHandler  *ginhandler.UserHandler
}

// NewContainer creates and initializes all application dependencies
func NewContainer(ctx context.Context, cfg *config.Config, l *zap.Logger) (*Container, error) {
	// Validate configuration before initializing any dependencies
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	store, err := infrastructure.NewStore(ctx, cfg, l)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}

	c := &Container{
		Config:   cfg,
		Logger:   l,
		Store:    store,
		Repo:     store.Repo,
		Registry: infrastructure.NewMetricsRegistry(),
	}

	if cfg.Redis.CacheEnabled {
		rdb, err := infrastructure.NewRedisClient(ctx, cfg, l)
		if err != nil {
			_ = store.Close(ctx)
			return nil, fmt.Errorf("failed to initialize Redis: %w", err)
		}
		c.RedisClient = rdb

		userCache := cache.NewRedisUserCache(
			rdb.Client,
			time.Duration(cfg.Redis.CacheTTL)*time.Second,
			l,
		)
		c.Repo = cached.NewUserRepository(store.Repo, userCache, l)
		l.Info("user cache enabled", zap.Int("ttl_seconds", cfg.Redis.CacheTTL))
	}

	c.UserUC = user.New(c.Repo, l,
		user.WithStoreTimeout(time.Duration(cfg.Store.TimeoutSeconds)*time.Second),
	)
	c.GinHandler = ginhandler.NewUserHandler(c.UserUC, l)

	return c, nil
}

// Close closes all resources held by the container
func (c *Container) Close(ctx context.Context) error {
	var errs []error

	// Close Redis connection
	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close Redis: %w", err))
		}
	}

	if c.Store != nil {
		if err := c.Store.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to close store: %w", err))
		}
	}

	return errors.Join(errs...)
}
