package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"kanban-board-api/internal/ordering"
)

// Ledger backends
const (
	LedgerBackendRedis = "redis"
	LedgerBackendSQL   = "sql"
)

// Config is the full service configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	JWT      JWTConfig      `yaml:"jwt"`
	Logger   LoggerConfig   `yaml:"logger"`
	Ordering OrderingConfig `yaml:"ordering"`
	Ledger   LedgerConfig   `yaml:"ledger"`
	Notify   NotifyConfig   `yaml:"notify"`
	S3       S3Config       `yaml:"s3"`
	Tracing  TracingConfig  `yaml:"tracing"`
}

type ServerConfig struct {
	Port            string        `yaml:"port" env:"PORT"`
	Mode            string        `yaml:"mode" env:"GIN_MODE"`
	BasePath        string        `yaml:"base_path" env:"BASE_PATH"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT"`
	CORSOrigins     []string      `yaml:"cors_origins" env:"CORS_ORIGINS" envSeparator:","`
}

type DatabaseConfig struct {
	Driver          string        `yaml:"driver" env:"DATABASE_DRIVER"`
	DSN             string        `yaml:"dsn" env:"DATABASE_DSN"`
	Host            string        `yaml:"host" env:"DB_HOST"`
	Port            int           `yaml:"port" env:"DB_PORT"`
	User            string        `yaml:"user" env:"DB_USER"`
	Password        string        `yaml:"password" env:"DB_PASSWORD"`
	Name            string        `yaml:"name" env:"DB_NAME"`
	SSLMode         string        `yaml:"ssl_mode" env:"DB_SSLMODE"`
	MaxOpenConns    int           `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS"`
	MaxIdleConns    int           `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME"`
	AutoMigrate     bool          `yaml:"auto_migrate" env:"DB_AUTO_MIGRATE"`
}

// GetDSN returns the explicit DSN or builds a postgres DSN from the parts
func (d DatabaseConfig) GetDSN() string {
	if d.DSN != "" {
		return d.DSN
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	URL      string `yaml:"url" env:"REDIS_URL"`
	Addr     string `yaml:"addr" env:"REDIS_ADDR"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB"`
}

// Enabled reports whether any redis address is configured
func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Addr != ""
}

type JWTConfig struct {
	Secret string `yaml:"secret" env:"JWT_SECRET"`
}

type LoggerConfig struct {
	Level string `yaml:"level" env:"LOG_LEVEL"`
}

type OrderingConfig struct {
	MaxKeyLength int `yaml:"max_key_length" env:"ORDERING_MAX_KEY_LENGTH"`
	JitterDigits int `yaml:"jitter_digits" env:"ORDERING_JITTER_DIGITS"`
}

type LedgerConfig struct {
	Backend       string        `yaml:"backend" env:"LEDGER_BACKEND"`
	Retention     time.Duration `yaml:"retention" env:"LEDGER_RETENTION"`
	SweepSchedule string        `yaml:"sweep_schedule" env:"LEDGER_SWEEP_SCHEDULE"`
	KeyPrefix     string        `yaml:"key_prefix" env:"LEDGER_KEY_PREFIX"`
}

type NotifyConfig struct {
	Workers                int           `yaml:"workers" env:"NOTIFY_WORKERS"`
	QueueSize              int           `yaml:"queue_size" env:"NOTIFY_QUEUE_SIZE"`
	SinkTimeout            time.Duration `yaml:"sink_timeout" env:"NOTIFY_SINK_TIMEOUT"`
	ChatWebhookURL         string        `yaml:"chat_webhook_url" env:"CHAT_WEBHOOK_URL"`
	NotificationServiceURL string        `yaml:"notification_service_url" env:"NOTIFICATION_SERVICE_URL"`
	InternalAPIKey         string        `yaml:"internal_api_key" env:"INTERNAL_API_KEY"`
	PushChannelPrefix      string        `yaml:"push_channel_prefix" env:"PUSH_CHANNEL_PREFIX"`
}

type S3Config struct {
	Bucket     string        `yaml:"bucket" env:"S3_BUCKET"`
	Region     string        `yaml:"region" env:"S3_REGION"`
	Endpoint   string        `yaml:"endpoint" env:"S3_ENDPOINT"`
	AccessKey  string        `yaml:"access_key" env:"S3_ACCESS_KEY"`
	SecretKey  string        `yaml:"secret_key" env:"S3_SECRET_KEY"`
	PresignTTL time.Duration `yaml:"presign_ttl" env:"S3_PRESIGN_TTL"`
}

// Enabled reports whether attachment storage is configured
func (s S3Config) Enabled() bool {
	return s.Bucket != "" && s.Region != ""
}

type TracingConfig struct {
	Enabled     bool    `yaml:"enabled" env:"OTEL_ENABLED"`
	Endpoint    string  `yaml:"endpoint" env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	Insecure    bool    `yaml:"insecure" env:"OTEL_EXPORTER_OTLP_INSECURE"`
	ServiceName string  `yaml:"service_name" env:"OTEL_SERVICE_NAME"`
	SampleRatio float64 `yaml:"sample_ratio" env:"OTEL_SAMPLE_RATIO"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "8000",
			Mode:            "debug",
			BasePath:        "/api",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			CORSOrigins:     []string{"*"},
		},
		Database: DatabaseConfig{
			Driver:          "postgres",
			Host:            "localhost",
			Port:            5432,
			User:            "postgres",
			Name:            "kanban",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
			AutoMigrate:     true,
		},
		Logger: LoggerConfig{Level: "info"},
		Ordering: OrderingConfig{
			MaxKeyLength: ordering.DefaultMaxKeyLength,
			JitterDigits: ordering.DefaultJitterDigits,
		},
		Ledger: LedgerConfig{
			Backend:       LedgerBackendSQL,
			Retention:     72 * time.Hour,
			SweepSchedule: "@every 1h",
			KeyPrefix:     "kanban:ledger",
		},
		Notify: NotifyConfig{
			Workers:           4,
			QueueSize:         1024,
			SinkTimeout:       5 * time.Second,
			PushChannelPrefix: "kanban",
		},
		S3: S3Config{
			PresignTTL: 15 * time.Minute,
		},
		Tracing: TracingConfig{
			ServiceName: "kanban-board-api",
			SampleRatio: 1.0,
		},
	}
}

// Load reads defaults, then the yaml file at path if it exists, then environment overrides
func Load(path string) (*Config, error) {
	cfg := Default()

	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the engine cannot run with
func (c *Config) Validate() error {
	var errs []error

	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("database.driver must be postgres or sqlite, got %q", c.Database.Driver))
	}
	switch c.Ledger.Backend {
	case LedgerBackendSQL:
	case LedgerBackendRedis:
		if !c.Redis.Enabled() {
			errs = append(errs, errors.New("ledger.backend redis requires redis.url or redis.addr"))
		}
	default:
		errs = append(errs, fmt.Errorf("ledger.backend must be redis or sql, got %q", c.Ledger.Backend))
	}
	if c.Ledger.Retention <= 0 {
		errs = append(errs, errors.New("ledger.retention must be positive"))
	}
	if c.Ordering.MaxKeyLength < 8 || c.Ordering.MaxKeyLength > ordering.MaxStoredKeyLength {
		errs = append(errs, fmt.Errorf("ordering.max_key_length must be between 8 and %d, got %d",
			ordering.MaxStoredKeyLength, c.Ordering.MaxKeyLength))
	}
	if c.Ordering.JitterDigits < 0 || c.Ordering.JitterDigits >= c.Ordering.MaxKeyLength/2 {
		errs = append(errs, fmt.Errorf("ordering.jitter_digits out of range: %d", c.Ordering.JitterDigits))
	}
	if c.Notify.SinkTimeout <= 0 {
		errs = append(errs, errors.New("notify.sink_timeout must be positive"))
	}
	if c.Notify.Workers < 0 {
		errs = append(errs, errors.New("notify.workers must not be negative"))
	}

	return errors.Join(errs...)
}
