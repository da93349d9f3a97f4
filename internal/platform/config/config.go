// Package config loads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Notifier sinks for alert notifications.
const (
	NotifierLog   = "log"
	NotifierRedis = "redis"
	NotifierKafka = "kafka"
)

// Rate limit counter backends.
const (
	RateLimitMemory = "memory"
	RateLimitRedis  = "redis"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string        `env:"CAREFLOW_ADDR" envDefault:":8080"`
	ShutdownTimeout time.Duration `env:"CAREFLOW_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	JWTSigningKey   string        `env:"JWT_SIGNING_KEY" envDefault:"dev-secret-key-change-in-production"`
	JWTIssuer       string        `env:"JWT_ISSUER" envDefault:"careflow"`
}

type Database struct {
	URL             string        `env:"DATABASE_URL"`
	MaxOpenConns    int           `env:"DATABASE_MAX_OPEN_CONNS" envDefault:"20"`
	MaxIdleConns    int           `env:"DATABASE_MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"DATABASE_CONN_MAX_LIFETIME" envDefault:"30m"`
	Migrate         bool          `env:"DATABASE_MIGRATE" envDefault:"true"`
}

// RedisConfig configures the optional notification stream.
type RedisConfig struct {
	URL          string        `env:"REDIS_URL"`
	PoolSize     int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"3s"`
}

type KafkaConfig struct {
	Brokers           []string `env:"KAFKA_BROKERS" envSeparator:","`
	ClientID          string   `env:"KAFKA_CLIENT_ID" envDefault:"careflow"`
	Partitions        int32    `env:"KAFKA_TOPIC_PARTITIONS" envDefault:"3"`
	ReplicationFactor int16    `env:"KAFKA_TOPIC_REPLICATION" envDefault:"1"`
}

type Notify struct {
	Sink            string        `env:"CAREFLOW_NOTIFIER" envDefault:"log"`
	Stream          string        `env:"CAREFLOW_NOTIFY_STREAM" envDefault:"careflow:notifications"`
	StreamMaxLen    int64         `env:"CAREFLOW_NOTIFY_STREAM_MAXLEN" envDefault:"10000"`
	Topic           string        `env:"CAREFLOW_NOTIFY_TOPIC" envDefault:"careflow.notifications"`
	Timeout         time.Duration `env:"CAREFLOW_NOTIFY_TIMEOUT" envDefault:"2s"`
	BreakerFailures int           `env:"CAREFLOW_NOTIFY_BREAKER_FAILURES" envDefault:"5"`
	BreakerCooldown time.Duration `env:"CAREFLOW_NOTIFY_BREAKER_COOLDOWN" envDefault:"30s"`
}

// Workflow configures the periodic rule engine caller. A zero interval leaves
// processing to the ops endpoint.
type Workflow struct {
	ProcessInterval time.Duration `env:"CAREFLOW_PROCESS_INTERVAL" envDefault:"5s"`
	BatchLimit      int           `env:"CAREFLOW_BATCH_LIMIT" envDefault:"25"`
	SeedRules       bool          `env:"CAREFLOW_SEED_RULES" envDefault:"true"`
}

type Risk struct {
	CutPoints []float64 `env:"CAREFLOW_RISK_CUTPOINTS" envSeparator:"," envDefault:"0.25,0.5,0.75"`
	TopK      int       `env:"CAREFLOW_RISK_TOP_K" envDefault:"3"`
}

// RateLimit budgets are per minute. Public requests are keyed by client IP, the
// others by token subject.
type RateLimit struct {
	Enabled         bool   `env:"CAREFLOW_RATELIMIT_ENABLED" envDefault:"true"`
	Backend         string `env:"CAREFLOW_RATELIMIT_BACKEND" envDefault:"memory"`
	PublicPerMinute int    `env:"CAREFLOW_RATELIMIT_PUBLIC_PER_MINUTE" envDefault:"30"`
	ReadPerMinute   int    `env:"CAREFLOW_RATELIMIT_READ_PER_MINUTE" envDefault:"300"`
	WritePerMinute  int    `env:"CAREFLOW_RATELIMIT_WRITE_PER_MINUTE" envDefault:"120"`
}

type Config struct {
	Environment string `env:"CAREFLOW_ENV" envDefault:"development"`
	LogLevel    string `env:"CAREFLOW_LOG_LEVEL" envDefault:"info"`
	Server      Server
	Database    Database
	Redis       RedisConfig
	Kafka       KafkaConfig
	Notify      Notify
	Workflow    Workflow
	Risk        Risk
	RateLimit   RateLimit
}

// FromEnv parses and validates configuration so main stays lean.
func FromEnv() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects combinations the server cannot start with.
func (c *Config) Validate() error {
	var errs []error
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown log level %q", c.LogLevel))
	}
	if c.Workflow.BatchLimit < 1 || c.Workflow.BatchLimit > 200 {
		errs = append(errs, fmt.Errorf("batch limit must be between 1 and 200: got %d", c.Workflow.BatchLimit))
	}
	if c.Workflow.ProcessInterval < 0 {
		errs = append(errs, errors.New("process interval must not be negative"))
	}
	if len(c.Risk.CutPoints) != 3 {
		errs = append(errs, fmt.Errorf("risk cut points need three values: got %d", len(c.Risk.CutPoints)))
	}
	switch c.Notify.Sink {
	case NotifierLog:
	case NotifierRedis:
		if c.Redis.URL == "" {
			errs = append(errs, errors.New("redis notifier requires REDIS_URL"))
		}
	case NotifierKafka:
		if len(c.Kafka.Brokers) == 0 {
			errs = append(errs, errors.New("kafka notifier requires KAFKA_BROKERS"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown notifier %q", c.Notify.Sink))
	}
	if c.RateLimit.Enabled {
		switch c.RateLimit.Backend {
		case RateLimitMemory:
		case RateLimitRedis:
			if c.Redis.URL == "" {
				errs = append(errs, errors.New("redis rate limit backend requires REDIS_URL"))
			}
		default:
			errs = append(errs, fmt.Errorf("unknown rate limit backend %q", c.RateLimit.Backend))
		}
		if c.RateLimit.PublicPerMinute < 1 || c.RateLimit.ReadPerMinute < 1 || c.RateLimit.WritePerMinute < 1 {
			errs = append(errs, errors.New("rate limit budgets must be at least one request per minute"))
		}
	}
	if c.IsProduction() && c.Server.JWTSigningKey == "dev-secret-key-change-in-production" {
		errs = append(errs, errors.New("JWT_SIGNING_KEY must be set in production"))
	}
	return errors.Join(errs...)
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// UsesRedis reports whether any component needs the shared redis client.
func (c *Config) UsesRedis() bool {
	return c.Notify.Sink == NotifierRedis || (c.RateLimit.Enabled && c.RateLimit.Backend == RateLimitRedis)
}

// UsesPostgres reports whether stores are backed by a database. Without one every
// store runs in memory.
func (c *Config) UsesPostgres() bool {
	return c.Database.URL != ""
}
