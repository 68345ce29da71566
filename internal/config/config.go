package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// StoreKind identifies the storage backend selected by the connection string.
type StoreKind string

const (
	StoreMongo    StoreKind = "mongo"
	StorePostgres StoreKind = "postgres"
	StoreSQLite   StoreKind = "sqlite"
)

// Config holds all configuration for the application.
// Every key is flat (MONGO_URI, HTTP_PORT, ...), so the sections are squashed.
type Config struct {
	Store  StoreConfig  `mapstructure:",squash"`
	App    AppConfig    `mapstructure:",squash"`
	Redis  RedisConfig  `mapstructure:",squash"`
	Logger LoggerConfig `mapstructure:",squash"`
}

// StoreConfig holds configuration for the backing store.
// URI is the single connection string; its scheme picks the backend.
type StoreConfig struct {
	URI                    string `mapstructure:"MONGO_URI"`
	Database               string `mapstructure:"MONGO_DATABASE"`
	Collection             string `mapstructure:"MONGO_COLLECTION"`
	MaxPoolSize            int    `mapstructure:"MONGO_MAX_POOL_SIZE"`
	TimeoutSeconds         int    `mapstructure:"STORE_TIMEOUT_SECONDS"`
	MaxOpenConns           int    `mapstructure:"DB_MAX_OPEN_CONNS"`
	MaxIdleConns           int    `mapstructure:"DB_MAX_IDLE_CONNS"`
	ConnMaxLifetimeSeconds int    `mapstructure:"DB_CONN_MAX_LIFETIME_SECONDS"`
}

// AppConfig holds configuration for the application server
type AppConfig struct {
	HTTPPort               string `mapstructure:"HTTP_PORT"`
	ShutdownTimeoutSeconds int    `mapstructure:"SHUTDOWN_TIMEOUT_SECONDS"`
	Environment            string `mapstructure:"APP_ENV"`
}

// RedisConfig holds configuration for the optional read-through cache
type RedisConfig struct {
	CacheEnabled bool   `mapstructure:"CACHE_ENABLED"`
	CacheTTL     int    `mapstructure:"CACHE_TTL_SECONDS"`
	Host         string `mapstructure:"REDIS_HOST"`
	Port         string `mapstructure:"REDIS_PORT"`
	Password     string `mapstructure:"REDIS_PASSWORD"`
	DB           int    `mapstructure:"REDIS_DB"`
	MaxRetries   int    `mapstructure:"REDIS_MAX_RETRIES"`
	PoolSize     int    `mapstructure:"REDIS_POOL_SIZE"`
	MinIdleConn  int    `mapstructure:"REDIS_MIN_IDLE_CONN"`
}

// LoggerConfig holds configuration for the logger
type LoggerConfig struct {
	Level            string  `mapstructure:"LOG_LEVEL"`
	Format           string  `mapstructure:"LOG_FORMAT"`
	OutputPath       string  `mapstructure:"LOG_OUTPUT_PATH"`
	SlowQuerySeconds float64 `mapstructure:"LOG_SLOW_QUERY_SECONDS"`
	EnableSampling   bool    `mapstructure:"LOG_ENABLE_SAMPLING"`
	ServiceName      string  `mapstructure:"SERVICE_NAME"`
	ServiceVersion   string  `mapstructure:"SERVICE_VERSION"`
}

// LoadConfig reads app.env from path (if present) and lets environment variables override it.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.AddConfigPath(path)
	v.SetConfigName("app") // Look for app.env
	v.SetConfigType("env")

	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Logger defaults depend on APP_ENV, which is only known once env and file are read.
	setLoggerDefaults(v, v.GetString("APP_ENV"))

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DATABASE", "user_service")
	v.SetDefault("MONGO_COLLECTION", "users")
	v.SetDefault("MONGO_MAX_POOL_SIZE", 100)
	v.SetDefault("STORE_TIMEOUT_SECONDS", 0)
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME_SECONDS", 300)

	v.SetDefault("HTTP_PORT", "3000")
	v.SetDefault("SHUTDOWN_TIMEOUT_SECONDS", 10)
	v.SetDefault("APP_ENV", "development")

	v.SetDefault("CACHE_ENABLED", false)
	v.SetDefault("CACHE_TTL_SECONDS", 300)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_MAX_RETRIES", 3)
	v.SetDefault("REDIS_POOL_SIZE", 10)
	v.SetDefault("REDIS_MIN_IDLE_CONN", 2)

	v.SetDefault("LOG_OUTPUT_PATH", "stdout")
	v.SetDefault("LOG_SLOW_QUERY_SECONDS", 0.2)
	v.SetDefault("SERVICE_NAME", "user-service")
	v.SetDefault("SERVICE_VERSION", "1.0.0")
}

// setLoggerDefaults picks level, format and sampling for env.
func setLoggerDefaults(v *viper.Viper, env string) {
	if env == "production" {
		v.SetDefault("LOG_LEVEL", "info")
		v.SetDefault("LOG_FORMAT", "json")
		v.SetDefault("LOG_ENABLE_SAMPLING", true)
		return
	}
	v.SetDefault("LOG_LEVEL", "debug")
	v.SetDefault("LOG_FORMAT", "console")
	v.SetDefault("LOG_ENABLE_SAMPLING", false)
}

// Validate checks the configuration for values the service cannot start with.
func (c *Config) Validate() error {
	var errs []error

	if _, err := c.Store.Kind(); err != nil {
		errs = append(errs, err)
	}
	if c.Store.Database == "" {
		errs = append(errs, errors.New("MONGO_DATABASE must not be empty"))
	}
	if c.Store.Collection == "" {
		errs = append(errs, errors.New("MONGO_COLLECTION must not be empty"))
	}
	if c.Store.TimeoutSeconds < 0 {
		errs = append(errs, errors.New("STORE_TIMEOUT_SECONDS must not be negative"))
	}
	if err := validatePort("HTTP_PORT", c.App.HTTPPort); err != nil {
		errs = append(errs, err)
	}
	if c.App.ShutdownTimeoutSeconds <= 0 {
		errs = append(errs, errors.New("SHUTDOWN_TIMEOUT_SECONDS must be positive"))
	}
	if c.Redis.CacheEnabled {
		if err := validatePort("REDIS_PORT", c.Redis.Port); err != nil {
			errs = append(errs, err)
		}
		if c.Redis.CacheTTL <= 0 {
			errs = append(errs, errors.New("CACHE_TTL_SECONDS must be positive when the cache is enabled"))
		}
	}

	return errors.Join(errs...)
}

func validatePort(name, port string) error {
	n, err := strconv.Atoi(port)
	if err != nil || n < 1 || n > 65535 {
		return fmt.Errorf("%s must be a port number between 1 and 65535, got %q", name, port)
	}
	return nil
}

// Kind returns the backend selected by the URI scheme.
func (c *StoreConfig) Kind() (StoreKind, error) {
	switch {
	case c.URI == "":
		return "", errors.New("MONGO_URI must not be empty")
	case strings.HasPrefix(c.URI, "mongodb://"), strings.HasPrefix(c.URI, "mongodb+srv://"):
		return StoreMongo, nil
	case strings.HasPrefix(c.URI, "postgres://"), strings.HasPrefix(c.URI, "postgresql://"):
		return StorePostgres, nil
	case strings.HasPrefix(c.URI, "sqlite://"):
		return StoreSQLite, nil
	default:
		return "", fmt.Errorf("MONGO_URI has an unsupported scheme: %q", redact(c.URI))
	}
}

// SQLitePath returns the file path of a sqlite:// URI.
func (c *StoreConfig) SQLitePath() string {
	return strings.TrimPrefix(c.URI, "sqlite://")
}

// redact hides credentials embedded in a connection string.
func redact(uri string) string {
	scheme, rest, ok := strings.Cut(uri, "://")
	if !ok {
		return uri
	}
	if at := strings.LastIndex(rest, "@"); at >= 0 {
		return scheme + "://***@" + rest[at+1:]
	}
	return uri
}
