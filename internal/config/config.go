package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/feral-file/ff-editions/internal/domain"
)

// BaseConfig holds base configuration
type BaseConfig struct {
	Debug       bool   `mapstructure:"debug"`
	SentryDSN   string `mapstructure:"sentry_dsn"`
	Environment string `mapstructure:"environment"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`     // Maximum number of open connections to the database
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`     // Maximum number of idle connections in the pool
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`  // Maximum amount of time a connection may be reused (e.g., "5m", "1h")
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"` // Maximum amount of time a connection may be idle (e.g., "10m", "30m")
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	// URL is a redis:// URL. Empty disables the distributed rate limiter.
	URL string `mapstructure:"url"`
}

// RateLimitConfig holds acquisition rate limit configuration
type RateLimitConfig struct {
	// BurstLimit acquisition attempts per user within BurstWindow
	BurstLimit  int           `mapstructure:"burst_limit"`
	BurstWindow time.Duration `mapstructure:"burst_window"`
	// DailyLimit acquisition attempts per user within 24 hours
	DailyLimit int `mapstructure:"daily_limit"`
	// IPLimit acquisition attempts per network origin within IPWindow
	IPLimit  int           `mapstructure:"ip_limit"`
	IPWindow time.Duration `mapstructure:"ip_window"`
	// KeyPrefix namespaces the Redis keys
	KeyPrefix string `mapstructure:"key_prefix"`
	// EnableLocalFallback keeps limiting with per-instance counters while Redis is down
	EnableLocalFallback bool `mapstructure:"enable_local_fallback"`
}

// SolanaConfig holds Solana RPC configuration
type SolanaConfig struct {
	RPCURL         string        `mapstructure:"rpc_url"`
	Chain          domain.Chain  `mapstructure:"chain"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxRetries     uint64        `mapstructure:"max_retries"`
}

// SignerConfig holds the transaction builder/signer service configuration
type SignerConfig struct {
	URL            string        `mapstructure:"url"`
	APIKey         string        `mapstructure:"api_key"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxRetries     uint64        `mapstructure:"max_retries"`
}

// NATSConfig holds NATS JetStream configuration
type NATSConfig struct {
	// URL empty disables notifications
	URL            string        `mapstructure:"url"`
	StreamName     string        `mapstructure:"stream_name"`
	SubjectPrefix  string        `mapstructure:"subject_prefix"`
	MaxReconnects  int           `mapstructure:"max_reconnects"`
	ReconnectWait  time.Duration `mapstructure:"reconnect_wait"`
	ConnectionName string        `mapstructure:"connection_name"`
	PublishTimeout time.Duration `mapstructure:"publish_timeout"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`  // in seconds
	WriteTimeout int    `mapstructure:"write_timeout"` // in seconds
	IdleTimeout  int    `mapstructure:"idle_timeout"`  // in seconds
	// TrustedProxies are passed to gin so ClientIP honors X-Forwarded-For only from them
	TrustedProxies []string `mapstructure:"trusted_proxies"`
	// AllowedOrigins for CORS, empty allows any origin
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	JWTPublicKey string `mapstructure:"jwt_public_key"`
}

// WebhookConfig holds inbound transaction webhook configuration
type WebhookConfig struct {
	// Secret is compared against X-Webhook-Secret and keys the HMAC signature
	Secret string `mapstructure:"secret"`
	// TimestampTolerance bounds the age of a signed webhook
	TimestampTolerance time.Duration `mapstructure:"timestamp_tolerance"`
}

// PipelineConfig holds acquisition pipeline thresholds
type PipelineConfig struct {
	// StaleThreshold after which reserved, pending and minting records are recovered
	StaleThreshold time.Duration `mapstructure:"stale_threshold"`
	// PaymentExpiry after which a submitted payment the chain never saw is failed
	PaymentExpiry time.Duration `mapstructure:"payment_expiry"`
}

// WorkerConfig holds worker configuration
type WorkerConfig struct {
	WorkerPoolSize  int `mapstructure:"pool_size"`
	WorkerQueueSize int `mapstructure:"queue_size"`
}

// ReconcilerSweeperConfig holds configuration for the reconciliation sweeper
type ReconcilerSweeperConfig struct {
	Interval  time.Duration `mapstructure:"interval"`
	BatchSize int           `mapstructure:"batch_size"`
	// MinAge skips records touched more recently than this so the sweeper does not race clients
	MinAge time.Duration `mapstructure:"min_age"`
	Worker WorkerConfig  `mapstructure:"worker"`
}

// APIConfig holds configuration for API server
type APIConfig struct {
	BaseConfig `mapstructure:",squash"`
	Server     ServerConfig    `mapstructure:"server"`
	Database   DatabaseConfig  `mapstructure:"database"`
	Redis      RedisConfig     `mapstructure:"redis"`
	RateLimit  RateLimitConfig `mapstructure:"rate_limit"`
	Solana     SolanaConfig    `mapstructure:"solana"`
	Signer     SignerConfig    `mapstructure:"signer"`
	NATS       NATSConfig      `mapstructure:"nats"`
	Auth       AuthConfig      `mapstructure:"auth"`
	Webhook    WebhookConfig   `mapstructure:"webhook"`
	Pipeline   PipelineConfig  `mapstructure:"pipeline"`
}

// SweeperConfig holds configuration for the sweeper program
type SweeperConfig struct {
	BaseConfig `mapstructure:",squash"`
	Database   DatabaseConfig          `mapstructure:"database"`
	Solana     SolanaConfig            `mapstructure:"solana"`
	Signer     SignerConfig            `mapstructure:"signer"`
	NATS       NATSConfig              `mapstructure:"nats"`
	Pipeline   PipelineConfig          `mapstructure:"pipeline"`
	Reconciler ReconcilerSweeperConfig `mapstructure:"reconciler"`
}

// MigrateConfig holds configuration for the migrate program
type MigrateConfig struct {
	BaseConfig     `mapstructure:",squash"`
	Database       DatabaseConfig `mapstructure:"database"`
	MigrationsPath string         `mapstructure:"migrations_path"`
}

// LoadAPIConfig loads configuration for the API server
func LoadAPIConfig(configFile string, envPath string) (*APIConfig, error) {
	v := configureViper("api", configFile, envPath)

	// Set defaults
	v.SetDefault("debug", false)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 30)
	v.SetDefault("server.idle_timeout", 120)
	setDatabaseDefaults(v)
	v.SetDefault("rate_limit.burst_limit", 3)
	v.SetDefault("rate_limit.burst_window", "10s")
	v.SetDefault("rate_limit.daily_limit", 50)
	v.SetDefault("rate_limit.ip_limit", 20)
	v.SetDefault("rate_limit.ip_window", "1h")
	v.SetDefault("rate_limit.key_prefix", "ff:editions:acquire:")
	v.SetDefault("rate_limit.enable_local_fallback", true)
	setChainDefaults(v)
	v.SetDefault("webhook.timestamp_tolerance", "5m")

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg APIConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if !domain.IsValidChain(cfg.Solana.Chain) {
		return nil, fmt.Errorf("unsupported solana.chain: %s", cfg.Solana.Chain)
	}
	if cfg.Webhook.Secret == "" {
		return nil, errors.New("webhook.secret is required")
	}

	return &cfg, nil
}

// LoadSweeperConfig loads configuration for the reconciliation sweeper
func LoadSweeperConfig(configFile string, envPath string) (*SweeperConfig, error) {
	v := configureViper("sweeper", configFile, envPath)

	// Set defaults
	setDatabaseDefaults(v)
	v.SetDefault("database.max_open_conns", 5)
	v.SetDefault("database.max_idle_conns", 2)
	setChainDefaults(v)
	v.SetDefault("reconciler.interval", "30s")
	v.SetDefault("reconciler.batch_size", 100)
	v.SetDefault("reconciler.min_age", "30s")
	v.SetDefault("reconciler.worker.pool_size", 10)
	v.SetDefault("reconciler.worker.queue_size", 100)

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg SweeperConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate required fields
	if cfg.Database.Host == "" {
		return nil, errors.New("database.host is required")
	}
	if cfg.Database.DBName == "" {
		return nil, errors.New("database.dbname is required")
	}

	return &cfg, nil
}

// LoadMigrateConfig loads configuration for the migrate program
func LoadMigrateConfig(configFile string, envPath string) (*MigrateConfig, error) {
	v := configureViper("migrate", configFile, envPath)

	setDatabaseDefaults(v)
	v.SetDefault("migrations_path", "db/migrations")

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg MigrateConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Database.Host == "" {
		return nil, errors.New("database.host is required")
	}

	return &cfg, nil
}

func setDatabaseDefaults(v *viper.Viper) {
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "5m")
	v.SetDefault("database.conn_max_idle_time", "10m")
}

func setChainDefaults(v *viper.Viper) {
	v.SetDefault("solana.chain", string(domain.ChainSolanaMainnet))
	v.SetDefault("solana.rpc_url", "https://api.mainnet-beta.solana.com")
	v.SetDefault("solana.request_timeout", domain.DEFAULT_RPC_TIMEOUT.String())
	v.SetDefault("solana.max_retries", domain.DEFAULT_RPC_MAX_RETRIES)
	v.SetDefault("signer.request_timeout", domain.DEFAULT_RPC_TIMEOUT.String())
	v.SetDefault("signer.max_retries", domain.DEFAULT_RPC_MAX_RETRIES)
	v.SetDefault("nats.stream_name", "EDITIONS")
	v.SetDefault("nats.subject_prefix", "editions")
	v.SetDefault("nats.max_reconnects", 10)
	v.SetDefault("nats.reconnect_wait", "2s")
	v.SetDefault("nats.connection_name", "ff-editions")
	v.SetDefault("nats.publish_timeout", "5s")
	v.SetDefault("pipeline.stale_threshold", domain.DEFAULT_STALE_THRESHOLD.String())
	v.SetDefault("pipeline.payment_expiry", domain.DEFAULT_PAYMENT_EXPIRY.String())
}

// readConfig reads the config file, tolerating its absence so env-only deployments work
func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}
	return nil
}

// configureViper returns a viper instance with the config file and environment variables set
func configureViper(service string, configFile string, envPath string) *viper.Viper {
	v := viper.New()

	// Load environment variables
	loadEnv(envPath, service)

	// Set config file
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		// Search for config.yaml in multiple locations:
		// 1. Current directory
		v.AddConfigPath(".")
		// 2. Service-specific directory (e.g., cmd/sweeper/, cmd/api/)
		v.AddConfigPath(fmt.Sprintf("cmd/%s/", service))
		// 3. Config directory
		v.AddConfigPath("config/")
	}

	// Set environment variables
	v.SetEnvPrefix("FF_EDITIONS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Explicitly bind all environment variables
	bindAllEnvVars(v)
	return v
}

// bindAllEnvVars binds every key so Unmarshal sees env-only values
func bindAllEnvVars(v *viper.Viper) {
	keys := []string{
		"debug",
		"sentry_dsn",
		"environment",
		"migrations_path",
		// Server
		"server.host",
		"server.port",
		"server.read_timeout",
		"server.write_timeout",
		"server.idle_timeout",
		"server.trusted_proxies",
		"server.allowed_origins",
		// Database
		"database.host",
		"database.port",
		"database.user",
		"database.password",
		"database.dbname",
		"database.sslmode",
		"database.max_open_conns",
		"database.max_idle_conns",
		"database.conn_max_lifetime",
		"database.conn_max_idle_time",
		// Redis
		"redis.url",
		// Rate limit
		"rate_limit.burst_limit",
		"rate_limit.burst_window",
		"rate_limit.daily_limit",
		"rate_limit.ip_limit",
		"rate_limit.ip_window",
		"rate_limit.key_prefix",
		"rate_limit.enable_local_fallback",
		// Solana
		"solana.rpc_url",
		"solana.chain",
		"solana.request_timeout",
		"solana.max_retries",
		// Signer
		"signer.url",
		"signer.api_key",
		"signer.request_timeout",
		"signer.max_retries",
		// NATS
		"nats.url",
		"nats.stream_name",
		"nats.subject_prefix",
		"nats.max_reconnects",
		"nats.reconnect_wait",
		"nats.connection_name",
		"nats.publish_timeout",
		// Auth
		"auth.jwt_public_key",
		// Webhook
		"webhook.secret",
		"webhook.timestamp_tolerance",
		// Pipeline
		"pipeline.stale_threshold",
		"pipeline.payment_expiry",
		// Reconciler sweeper
		"reconciler.interval",
		"reconciler.batch_size",
		"reconciler.min_age",
		"reconciler.worker.pool_size",
		"reconciler.worker.queue_size",
	}

	for _, key := range keys {
		_ = v.BindEnv(key)
	}
}

// loadEnv loads .env files from envPath
func loadEnv(envPath string, service string) {
	// Always try shared base first, then local, then optional per-service local.
	envFiles := []string{".env", ".env.local"}
	if service != "" {
		envFiles = append(envFiles, ".env."+service+".local")
	}

	// Default to config directory
	if envPath == "" {
		envPath = "config/"
	}

	for _, envFile := range envFiles {
		candidate := filepath.Join(envPath, envFile)
		_ = godotenv.Overload(candidate) // Overload lets later files override earlier ones
	}
}

// ChdirRepoRoot walks up from the working directory until it finds the config directory
func ChdirRepoRoot() {
	cwd, _ := os.Getwd()
	for range 5 {
		if _, err := os.Stat(filepath.Join(cwd, "config")); err == nil {
			_ = os.Chdir(cwd)
			return
		}
		cwd = filepath.Dir(cwd)
	}
}

// DSN returns the gorm/pgx connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// URL returns the postgres:// URL form used by golang-migrate
func (c *DatabaseConfig) URL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=" + url.QueryEscape(c.SSLMode),
	}
	return u.String()
}
