package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Store    StoreConfig    `mapstructure:"store"`
	Mongo    MongoConfig    `mapstructure:"mongo"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Identity IdentityConfig `mapstructure:"identity"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Security SecurityConfig `mapstructure:"security"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

type ServerConfig struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
	MiddlewareTimeout time.Duration `mapstructure:"middleware_timeout"`
}

// Store drivers
const (
	StoreDriverMongo    = "mongo"
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

type StoreConfig struct {
	Driver           string `mapstructure:"driver"`
	UsersCollection  string `mapstructure:"users_collection"`
	MoviesCollection string `mapstructure:"movies_collection"`
	MigrationsPath   string `mapstructure:"migrations_path"`
}

type MongoConfig struct {
	URI      string        `mapstructure:"uri"`
	Database string        `mapstructure:"database"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// MigrateURL returns the URI with the database name as its path, the form
// the migration driver expects
func (c MongoConfig) MigrateURL() (string, error) {
	u, err := url.Parse(c.URI)
	if err != nil {
		return "", fmt.Errorf("invalid mongo uri: %w", err)
	}
	u.Path = "/" + c.Database
	return u.String(), nil
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"ssl_mode"`
	MaxConns int32  `mapstructure:"max_conns"`
	MinConns int32  `mapstructure:"min_conns"`
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode,
	)
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Identity providers
const (
	IdentityProviderLocal = "local"
	IdentityProviderOIDC  = "oidc"
)

type IdentityConfig struct {
	Provider string              `mapstructure:"provider"`
	Local    LocalIdentityConfig `mapstructure:"local"`
	OIDC     OIDCConfig          `mapstructure:"oidc"`
}

type LocalIdentityConfig struct {
	JWTSecret       string        `mapstructure:"jwt_secret"`
	Issuer          string        `mapstructure:"issuer"`
	AccessTokenTTL  time.Duration `mapstructure:"access_token_ttl"`
	RefreshTokenTTL time.Duration `mapstructure:"refresh_token_ttl"`
	AutoConfirm     bool          `mapstructure:"auto_confirm"`
}

type OIDCConfig struct {
	IssuerURL    string   `mapstructure:"issuer_url"`
	ClientID     string   `mapstructure:"client_id"`
	ClientSecret string   `mapstructure:"client_secret"`
	Scopes       []string `mapstructure:"scopes"`
}

type CatalogConfig struct {
	DefaultLimit     int           `mapstructure:"default_limit"`
	MaxLimit         int           `mapstructure:"max_limit"`
	ScanBatchSize    int           `mapstructure:"scan_batch_size"`
	ScanCeiling      int           `mapstructure:"scan_ceiling"`
	CacheTTL         time.Duration `mapstructure:"cache_ttl"`
	LegacyPagination bool          `mapstructure:"legacy_pagination"`
}

type SecurityConfig struct {
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

type RateLimitConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	RequestsPerMinute int  `mapstructure:"requests_per_minute"`
	Burst             int  `mapstructure:"burst"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Load reads configuration from file and environment variables
func Load() (*Config, error) {
	v := viper.New()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./configs/config.yaml"
	}

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, use defaults and env vars
	}

	v.AutomaticEnv()
	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects configurations the server cannot run with
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case StoreDriverMongo, StoreDriverPostgres, StoreDriverMemory:
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}

	switch c.Identity.Provider {
	case IdentityProviderLocal:
		if c.Identity.Local.JWTSecret == "" {
			return errors.New("identity.local.jwt_secret is required for the local identity provider")
		}
	case IdentityProviderOIDC:
		if c.Identity.OIDC.IssuerURL == "" || c.Identity.OIDC.ClientID == "" {
			return errors.New("identity.oidc.issuer_url and identity.oidc.client_id are required")
		}
	default:
		return fmt.Errorf("unknown identity provider %q", c.Identity.Provider)
	}

	if c.Catalog.DefaultLimit <= 0 || c.Catalog.MaxLimit <= 0 {
		return errors.New("catalog limits must be positive")
	}
	if c.Catalog.DefaultLimit > c.Catalog.MaxLimit {
		return errors.New("catalog.default_limit must not exceed catalog.max_limit")
	}
	if c.Catalog.ScanBatchSize <= 0 || c.Catalog.ScanCeiling <= 0 {
		return errors.New("catalog scan bounds must be positive")
	}

	return nil
}

func setDefaults(v *viper.Viper) {
	// Server
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "15s")
	v.SetDefault("server.middleware_timeout", "29s")

	// Store
	v.SetDefault("store.driver", StoreDriverMongo)
	v.SetDefault("store.users_collection", "users")
	v.SetDefault("store.movies_collection", "movies")
	v.SetDefault("store.migrations_path", "file://migrations")

	// Mongo
	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "moviecatalog")
	v.SetDefault("mongo.timeout", "10s")

	// Database
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "moviecatalog")
	v.SetDefault("database.database", "moviecatalog")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 2)

	// Redis
	v.SetDefault("redis.enabled", true)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)

	// Identity
	v.SetDefault("identity.provider", IdentityProviderLocal)
	v.SetDefault("identity.local.issuer", "movie-catalog")
	v.SetDefault("identity.local.access_token_ttl", "1h")
	v.SetDefault("identity.local.refresh_token_ttl", "720h") // 30 days
	v.SetDefault("identity.local.auto_confirm", true)
	v.SetDefault("identity.oidc.scopes", []string{"openid", "profile", "email"})

	// Catalog
	v.SetDefault("catalog.default_limit", 20)
	v.SetDefault("catalog.max_limit", 100)
	v.SetDefault("catalog.scan_batch_size", 100)
	v.SetDefault("catalog.scan_ceiling", 10000)
	v.SetDefault("catalog.cache_ttl", "30s")
	v.SetDefault("catalog.legacy_pagination", false)

	// Security
	v.SetDefault("security.rate_limit.enabled", true)
	v.SetDefault("security.rate_limit.requests_per_minute", 30)
	v.SetDefault("security.rate_limit.burst", 10)

	// Logging
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Metrics
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

func bindEnvVars(v *viper.Viper) {
	// Store
	v.BindEnv("store.driver", "STORE_DRIVER")
	v.BindEnv("store.users_collection", "USERS_TABLE")
	v.BindEnv("store.movies_collection", "MOVIES_TABLE")

	// Mongo
	v.BindEnv("mongo.uri", "MONGO_URI")
	v.BindEnv("mongo.database", "MONGO_DATABASE")

	// Database
	v.BindEnv("database.password", "POSTGRES_PASSWORD")

	// Redis
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.password", "REDIS_PASSWORD")

	// Identity
	v.BindEnv("identity.provider", "IDENTITY_PROVIDER")
	v.BindEnv("identity.local.jwt_secret", "JWT_SECRET")
	v.BindEnv("identity.oidc.issuer_url", "OIDC_PROVIDER")
	v.BindEnv("identity.oidc.client_id", "OIDC_CLIENT_ID")
	v.BindEnv("identity.oidc.client_secret", "OIDC_CLIENT_SECRET")

	// Logging
	v.BindEnv("logging.level", "LOG_LEVEL")
	v.BindEnv("logging.file", "LOG_FILE")
}
