package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/additive-lens/internal/config"
	"github.com/turtacn/additive-lens/pkg/errors"
)

func validConfig() *config.Config {
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	return cfg
}

func TestConfig_Validate_ValidConfig(t *testing.T) {
	t.Parallel()
	assert.NoError(t, validConfig().Validate())
}

func TestConfig_Validate_Failures(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"http port", func(c *config.Config) { c.Server.HTTP.Port = 70000 }, "server.http.port"},
		{"http mode", func(c *config.Config) { c.Server.HTTP.Mode = "fast" }, "server.http.mode"},
		{"rate limit", func(c *config.Config) { c.Server.HTTP.RateLimitRPS = -1 }, "rate limit"},
		{"grpc port clash", func(c *config.Config) {
			c.Server.GRPC.Enabled = true
			c.Server.GRPC.Port = c.Server.HTTP.Port
		}, "server.grpc.port"},
		{"asset source", func(c *config.Config) { c.Assets.Source = "ftp" }, "assets.source"},
		{"asset dir", func(c *config.Config) { c.Assets.Dir = "" }, "assets.dir"},
		{"minio endpoint", func(c *config.Config) {
			c.Assets.Source = "minio"
			c.MinIO.Endpoint = ""
		}, "minio.endpoint"},
		{"threshold", func(c *config.Config) { c.Matching.Threshold = -1 }, "matching.threshold"},
		{"workers", func(c *config.Config) { c.Matching.Workers = 0 }, "matching.workers"},
		{"redis mode", func(c *config.Config) {
			c.Cache.Enabled = true
			c.Cache.Redis.Mode = "ring"
		}, "cache.redis.mode"},
		{"redis cluster", func(c *config.Config) {
			c.Cache.Enabled = true
			c.Cache.Redis.Mode = "cluster"
		}, "cluster_addrs"},
		{"kafka brokers", func(c *config.Config) {
			c.Kafka.Enabled = true
			c.Kafka.Brokers = nil
		}, "kafka"},
		{"log level", func(c *config.Config) { c.Log.Level = "trace" }, "log.level"},
		{"log format", func(c *config.Config) { c.Log.Format = "xml" }, "log.format"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
			assert.True(t, errors.IsCode(err, errors.CodeValidation))
		})
	}
}

func TestConfig_Validate_DisabledSectionsAreIgnored(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.Kafka.Brokers = nil
	cfg.Cache.Redis.Mode = "ring"
	cfg.Server.GRPC.Port = cfg.Server.HTTP.Port
	assert.NoError(t, cfg.Validate())
}

func TestMatchingConfig_Resolver(t *testing.T) {
	t.Parallel()
	m := config.MatchingConfig{Threshold: 0.3, Workers: 8}
	r := m.Resolver()
	assert.Equal(t, float32(0.3), r.Threshold)
	assert.Equal(t, 8, r.Workers)
}
