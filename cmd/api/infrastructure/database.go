package infrastructure

import (
	"context"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"user-service/internal/adapter/db/mongodb"
	"user-service/internal/adapter/db/relational"
	"user-service/internal/config"
	"user-service/internal/usecase/user"
	"user-service/pkg/logger"
)

// Store is the opened backing store: the repository over it and how to release it.
type Store struct {
	Kind  config.StoreKind
	Repo  user.Repository
	close func(ctx context.Context) error
}

// Close releases the store's connections.
func (s *Store) Close(ctx context.Context) error {
	if s == nil || s.close == nil {
		return nil
	}
	return s.close(ctx)
}

// NewStore connects to the backend selected by the MONGO_URI scheme.
func NewStore(ctx context.Context, cfg *config.Config, l *zap.Logger) (*Store, error) {
	kind, err := cfg.Store.Kind()
	if err != nil {
		return nil, err
	}

	switch kind {
	case config.StoreMongo:
		return newMongoStore(ctx, cfg, l)
	case config.StorePostgres:
		return newSQLStore(pgdriver.Open(cfg.Store.URI), kind, cfg, l)
	case config.StoreSQLite:
		return newSQLStore(sqlite.Open(cfg.Store.SQLitePath()), kind, cfg, l)
	default:
		return nil, fmt.Errorf("unsupported store kind %q", kind)
	}
}

func newMongoStore(ctx context.Context, cfg *config.Config, l *zap.Logger) (*Store, error) {
	client, err := mongodb.Connect(ctx, mongodb.ClientConfig{
		URI:            cfg.Store.URI,
		MaxPoolSize:    uint64(cfg.Store.MaxPoolSize),
		ConnectTimeout: 10 * time.Second,
	}, l)
	if err != nil {
		return nil, err
	}

	coll := client.Database(cfg.Store.Database).Collection(cfg.Store.Collection)
	l.Info("using MongoDB store",
		zap.String("database", cfg.Store.Database),
		zap.String("collection", cfg.Store.Collection),
	)

	return &Store{
		Kind: config.StoreMongo,
		Repo: mongodb.NewUserRepo(coll, l),
		close: func(ctx context.Context) error {
			if err := client.Disconnect(ctx); err != nil {
				return fmt.Errorf("failed to disconnect MongoDB: %w", err)
			}
			return nil
		},
	}, nil
}

func newSQLStore(dialector gorm.Dialector, kind config.StoreKind, cfg *config.Config, l *zap.Logger) (*Store, error) {
	db, err := NewDatabase(dialector, cfg, l)
	if err != nil {
		return nil, err
	}

	if err := relational.AutoMigrate(db); err != nil {
		_ = CloseDatabase(db)
		return nil, fmt.Errorf("failed to create users table: %w", err)
	}

	return &Store{
		Kind: kind,
		Repo: relational.NewUserRepo(db, l),
		close: func(context.Context) error {
			return CloseDatabase(db)
		},
	}, nil
}

// NewDatabase creates a new database connection with GORM configuration
func NewDatabase(dialector gorm.Dialector, cfg *config.Config, l *zap.Logger) (*gorm.DB, error) {
	gormLogger := logger.NewGormLogger(l, cfg.Logger.SlowQuerySeconds, cfg.Logger.Level)

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying sql.DB for connection pool configuration
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.Store.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Store.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.Store.ConnMaxLifetimeSeconds) * time.Second)

	l.Info("database connected successfully",
		zap.String("dialect", dialector.Name()),
		zap.Int("max_open_conns", cfg.Store.MaxOpenConns),
		zap.Int("max_idle_conns", cfg.Store.MaxIdleConns),
		zap.Int("conn_max_lifetime_seconds", cfg.Store.ConnMaxLifetimeSeconds),
	)

	return db, nil
}

// CloseDatabase closes the database connection
func CloseDatabase(db *gorm.DB) error {
	if db == nil {
		return nil
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	return nil
}
