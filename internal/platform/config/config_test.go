package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, NotifierLog, cfg.Notify.Sink)
	assert.Equal(t, 25, cfg.Workflow.BatchLimit)
	assert.Equal(t, 5*time.Second, cfg.Workflow.ProcessInterval)
	assert.Equal(t, []float64{0.25, 0.5, 0.75}, cfg.Risk.CutPoints)
	assert.False(t, cfg.UsesPostgres())
	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, RateLimitMemory, cfg.RateLimit.Backend)
	assert.False(t, cfg.UsesRedis())
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://careflow@localhost/careflow?sslmode=disable")
	t.Setenv("CAREFLOW_NOTIFIER", "kafka")
	t.Setenv("KAFKA_BROKERS", "broker-1:9092,broker-2:9092")
	t.Setenv("CAREFLOW_BATCH_LIMIT", "50")
	t.Setenv("CAREFLOW_PROCESS_INTERVAL", "0s")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.True(t, cfg.UsesPostgres())
	assert.Equal(t, []string{"broker-1:9092", "broker-2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 50, cfg.Workflow.BatchLimit)
	assert.Zero(t, cfg.Workflow.ProcessInterval)
}

func TestUsesRedis(t *testing.T) {
	cfg := &Config{Notify: Notify{Sink: NotifierLog}, RateLimit: RateLimit{Enabled: true, Backend: RateLimitRedis}}
	assert.True(t, cfg.UsesRedis())

	cfg.RateLimit.Enabled = false
	assert.False(t, cfg.UsesRedis())

	cfg.Notify.Sink = NotifierRedis
	assert.True(t, cfg.UsesRedis())
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			LogLevel: "info",
			Workflow: Workflow{BatchLimit: 25},
			Risk:     Risk{CutPoints: []float64{0.25, 0.5, 0.75}, TopK: 3},
			Notify:   Notify{Sink: NotifierLog},
			Server:   Server{JWTSigningKey: "secret"},
			RateLimit: RateLimit{
				Enabled:         true,
				Backend:         RateLimitMemory,
				PublicPerMinute: 30,
				ReadPerMinute:   300,
				WritePerMinute:  120,
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"batch limit above max", func(c *Config) { c.Workflow.BatchLimit = 201 }, "batch limit"},
		{"batch limit zero", func(c *Config) { c.Workflow.BatchLimit = 0 }, "batch limit"},
		{"unknown log level", func(c *Config) { c.LogLevel = "trace" }, "log level"},
		{"redis sink without url", func(c *Config) { c.Notify.Sink = NotifierRedis }, "REDIS_URL"},
		{"kafka sink without brokers", func(c *Config) { c.Notify.Sink = NotifierKafka }, "KAFKA_BROKERS"},
		{"unknown sink", func(c *Config) { c.Notify.Sink = "pager" }, "unknown notifier"},
		{"redis rate limits without url", func(c *Config) { c.RateLimit.Backend = RateLimitRedis }, "REDIS_URL"},
		{"unknown rate limit backend", func(c *Config) { c.RateLimit.Backend = "memcached" }, "rate limit backend"},
		{"zero write budget", func(c *Config) { c.RateLimit.WritePerMinute = 0 }, "rate limit budgets"},
		{"disabled limits skip checks", func(c *Config) {
			c.RateLimit = RateLimit{Enabled: false, Backend: "memcached"}
		}, ""},
		{"two cut points", func(c *Config) { c.Risk.CutPoints = []float64{0.3, 0.6} }, "cut points"},
		{"dev key in production", func(c *Config) {
			c.Environment = "production"
			c.Server.JWTSigningKey = "dev-secret-key-change-in-production"
		}, "JWT_SIGNING_KEY"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
