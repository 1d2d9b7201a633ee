// Package config defines the configuration of the additive-lens binaries.
// Loading lives in loader.go and defaults in defaults.go.
package config

import (
	"time"

	"github.com/turtacn/additive-lens/internal/infrastructure/database/redis"
	"github.com/turtacn/additive-lens/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/additive-lens/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/additive-lens/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/additive-lens/internal/infrastructure/storage/minio"
	"github.com/turtacn/additive-lens/internal/intelligence/additive"
	"github.com/turtacn/additive-lens/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// Sub-configuration structs
// ─────────────────────────────────────────────────────────────────────────────

// HTTPConfig holds HTTP server tunables.
type HTTPConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // "debug" | "release" | "test"
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	MaxBodySize     int64         `mapstructure:"max_body_size"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	// CORSAllowedOrigins enables CORS when non-empty; "*" allows any origin.
	CORSAllowedOrigins []string `mapstructure:"cors_allowed_origins"`
	// RateLimitRPS enables per-client rate limiting when positive.
	RateLimitRPS   float64 `mapstructure:"rate_limit_rps"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
}

// GRPCConfig holds the health/reflection gRPC listener.
type GRPCConfig struct {
	Enabled    bool `mapstructure:"enabled"`
	Port       int  `mapstructure:"port"`
	Reflection bool `mapstructure:"reflection"`
}

type ServerConfig struct {
	HTTP HTTPConfig `mapstructure:"http"`
	GRPC GRPCConfig `mapstructure:"grpc"`
}

// AssetsConfig says where the catalog and the regulation CSV come from.
type AssetsConfig struct {
	Source      string `mapstructure:"source"` // "file" | "minio"
	Dir         string `mapstructure:"dir"`
	Catalog     string `mapstructure:"catalog"`
	Regulations string `mapstructure:"regulations"`
	// Background loads the assets after the listeners are up; /readyz
	// reports the outcome.
	Background bool `mapstructure:"background"`
}

// MatchingConfig tunes the resolver.
type MatchingConfig struct {
	Threshold    float32 `mapstructure:"threshold"`
	Workers      int     `mapstructure:"workers"`
	SuggestLimit int     `mapstructure:"suggest_limit"`
}

// Resolver returns the resolver settings.
func (m MatchingConfig) Resolver() additive.ResolverConfig {
	return additive.ResolverConfig{Threshold: m.Threshold, Workers: m.Workers}
}

// CacheConfig holds the Redis result cache.
type CacheConfig struct {
	Enabled bool              `mapstructure:"enabled"`
	TTL     time.Duration     `mapstructure:"ttl"`
	Prefix  string            `mapstructure:"prefix"`
	Redis   redis.RedisConfig `mapstructure:"redis"`
}

// KafkaConfig holds the resolution event publisher.
type KafkaConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	Topic             string `mapstructure:"topic"`
	Source            string `mapstructure:"source"`
	AutoCreateTopics  bool   `mapstructure:"auto_create_topics"`
	ReplicationFactor int    `mapstructure:"replication_factor"`

	kafka.ProducerConfig `mapstructure:",squash"`
}

// MetricsConfig holds the Prometheus exposition settings.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`

	prometheus.CollectorConfig `mapstructure:",squash"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Root Config
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root configuration shared by the CLI and the API server.
type Config struct {
	Server   ServerConfig      `mapstructure:"server"`
	Log      logging.LogConfig `mapstructure:"log"`
	Assets   AssetsConfig      `mapstructure:"assets"`
	Matching MatchingConfig    `mapstructure:"matching"`
	Cache    CacheConfig       `mapstructure:"cache"`
	MinIO    minio.MinIOConfig `mapstructure:"minio"`
	Kafka    KafkaConfig       `mapstructure:"kafka"`
	Metrics  MetricsConfig     `mapstructure:"metrics"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

func invalid(format string, args ...interface{}) error {
	return errors.Newf(errors.CodeValidation, "config: "+format, args...)
}

// Validate performs semantic validation of a fully populated Config and
// returns the first problem found.
func (c *Config) Validate() error {
	if c.Server.HTTP.Port < 1 || c.Server.HTTP.Port > 65535 {
		return invalid("server.http.port %d is out of range [1, 65535]", c.Server.HTTP.Port)
	}
	switch c.Server.HTTP.Mode {
	case "debug", "release", "test":
	default:
		return invalid("server.http.mode %q is invalid; expected debug|release|test", c.Server.HTTP.Mode)
	}
	if c.Server.HTTP.RateLimitRPS < 0 || c.Server.HTTP.RateLimitBurst < 0 {
		return invalid("server.http rate limit settings must not be negative")
	}
	if c.Server.GRPC.Enabled {
		if c.Server.GRPC.Port < 1 || c.Server.GRPC.Port > 65535 {
			return invalid("server.grpc.port %d is out of range [1, 65535]", c.Server.GRPC.Port)
		}
		if c.Server.GRPC.Port == c.Server.HTTP.Port {
			return invalid("server.grpc.port must differ from server.http.port")
		}
	}

	switch c.Assets.Source {
	case "file":
		if c.Assets.Dir == "" {
			return invalid("assets.dir is required when assets.source is file")
		}
	case "minio":
		if c.MinIO.Endpoint == "" {
			return invalid("minio.endpoint is required when assets.source is minio")
		}
	default:
		return invalid("assets.source %q is invalid; expected file|minio", c.Assets.Source)
	}
	if c.Assets.Catalog == "" || c.Assets.Regulations == "" {
		return invalid("assets.catalog and assets.regulations are required")
	}

	if c.Matching.Threshold <= 0 || c.Matching.Threshold > 2 {
		return invalid("matching.threshold %.3f is out of range (0, 2]", c.Matching.Threshold)
	}
	if c.Matching.Workers < 1 {
		return invalid("matching.workers must be ≥ 1, got %d", c.Matching.Workers)
	}

	if c.Cache.Enabled {
		switch c.Cache.Redis.Mode {
		case "", "standalone":
			if c.Cache.Redis.Addr == "" {
				return invalid("cache.redis.addr is required")
			}
		case "sentinel":
			if c.Cache.Redis.MasterName == "" || len(c.Cache.Redis.SentinelAddrs) == 0 {
				return invalid("cache.redis sentinel mode needs master_name and sentinel_addrs")
			}
		case "cluster":
			if len(c.Cache.Redis.ClusterAddrs) == 0 {
				return invalid("cache.redis.cluster_addrs is required in cluster mode")
			}
		default:
			return invalid("cache.redis.mode %q is invalid; expected standalone|sentinel|cluster", c.Cache.Redis.Mode)
		}
		if c.Cache.Redis.DB < 0 {
			return invalid("cache.redis.db must be ≥ 0, got %d", c.Cache.Redis.DB)
		}
	}

	if c.Kafka.Enabled {
		if err := kafka.ValidateProducerConfig(c.Kafka.ProducerConfig); err != nil {
			return invalid("kafka: %v", err)
		}
		if c.Kafka.Topic == "" {
			return invalid("kafka.topic is required")
		}
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return invalid("log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return invalid("log.format %q is invalid; expected json|console", c.Log.Format)
	}

	return nil
}
