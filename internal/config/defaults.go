package config

import (
	"time"

	"github.com/spf13/viper"

	"github.com/turtacn/additive-lens/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/additive-lens/internal/intelligence/additive"
)

// ─────────────────────────────────────────────────────────────────────────────
// Default value constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	DefaultHTTPPort        = 8080
	DefaultHTTPMode        = "release"
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
	DefaultMaxBodySize     = 1 << 20

	DefaultGRPCPort = 9090

	DefaultAssetSource  = "file"
	DefaultAssetDir     = "./data"
	DefaultCatalogName  = "catalog.json"
	DefaultRegulations  = "regulations.csv"
	DefaultSuggestLimit = 5
	DefaultWorkers      = 4

	DefaultRedisAddr = "localhost:6379"
	DefaultCacheTTL  = 15 * time.Minute
	DefaultCachePfx  = "additivelens:"

	DefaultMinIOEndpoint = "localhost:9000"
	DefaultMinIOBucket   = "additivelens-assets"

	DefaultKafkaBroker = "localhost:9092"
	DefaultKafkaSource = "additivelens"

	DefaultMetricsPath      = "/metrics"
	DefaultMetricsNamespace = "additivelens"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// defaults is the flat key/value view of the defaults. Registering every key
// with viper also lets AutomaticEnv resolve ADDITIVELENS_* variables for keys
// the config file does not mention.
func defaults() map[string]interface{} {
	return map[string]interface{}{
		"server.http.host":             "0.0.0.0",
		"server.http.port":             DefaultHTTPPort,
		"server.http.mode":             DefaultHTTPMode,
		"server.http.read_timeout":     DefaultReadTimeout,
		"server.http.write_timeout":    DefaultWriteTimeout,
		"server.http.max_body_size":    DefaultMaxBodySize,
		"server.http.shutdown_timeout": DefaultShutdownTimeout,
		"server.http.rate_limit_rps":   0.0,
		"server.http.rate_limit_burst": 0,
		"server.grpc.enabled":          false,
		"server.grpc.port":             DefaultGRPCPort,
		"server.grpc.reflection":       true,

		"log.level":  DefaultLogLevel,
		"log.format": DefaultLogFormat,

		"assets.source":      DefaultAssetSource,
		"assets.dir":         DefaultAssetDir,
		"assets.catalog":     DefaultCatalogName,
		"assets.regulations": DefaultRegulations,
		"assets.background":  false,

		"matching.threshold":     additive.DefaultThreshold,
		"matching.workers":       DefaultWorkers,
		"matching.suggest_limit": DefaultSuggestLimit,

		"cache.enabled":        false,
		"cache.ttl":            DefaultCacheTTL,
		"cache.prefix":         DefaultCachePfx,
		"cache.redis.mode":     "standalone",
		"cache.redis.addr":     DefaultRedisAddr,
		"cache.redis.db":       0,
		"cache.redis.password": "",

		"minio.endpoint":          DefaultMinIOEndpoint,
		"minio.access_key_id":     "",
		"minio.secret_access_key": "",
		"minio.use_ssl":           false,
		"minio.bucket":            DefaultMinIOBucket,
		"minio.prefix":            "",
		"minio.create_bucket":     false,

		"kafka.enabled":            false,
		"kafka.topic":              kafka.TopicAdditiveResolved,
		"kafka.source":             DefaultKafkaSource,
		"kafka.auto_create_topics": false,
		"kafka.replication_factor": 1,
		"kafka.brokers":            []string{DefaultKafkaBroker},
		"kafka.acks":               "leader",
		"kafka.max_retries":        3,
		"kafka.batch_timeout":      10 * time.Millisecond,
		"kafka.async":              false,

		"metrics.enabled":         true,
		"metrics.path":            DefaultMetricsPath,
		"metrics.namespace":       DefaultMetricsNamespace,
		"metrics.go_metrics":      true,
		"metrics.process_metrics": true,
	}
}

func setDefaults(v *viper.Viper) {
	for k, val := range defaults() {
		v.SetDefault(k, val)
	}
}

// ApplyDefaults fills zero-value fields in cfg with the defaults. Explicit
// values always win.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Server ────────────────────────────────────────────────────────────────
	if cfg.Server.HTTP.Port == 0 {
		cfg.Server.HTTP.Port = DefaultHTTPPort
	}
	if cfg.Server.HTTP.Mode == "" {
		cfg.Server.HTTP.Mode = DefaultHTTPMode
	}
	if cfg.Server.HTTP.ReadTimeout == 0 {
		cfg.Server.HTTP.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.HTTP.WriteTimeout == 0 {
		cfg.Server.HTTP.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.HTTP.ShutdownTimeout == 0 {
		cfg.Server.HTTP.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.HTTP.MaxBodySize == 0 {
		cfg.Server.HTTP.MaxBodySize = DefaultMaxBodySize
	}
	if cfg.Server.HTTP.RateLimitRPS > 0 && cfg.Server.HTTP.RateLimitBurst == 0 {
		cfg.Server.HTTP.RateLimitBurst = max(1, int(cfg.Server.HTTP.RateLimitRPS*2))
	}
	if cfg.Server.GRPC.Port == 0 {
		cfg.Server.GRPC.Port = DefaultGRPCPort
	}

	// ── Assets ────────────────────────────────────────────────────────────────
	if cfg.Assets.Source == "" {
		cfg.Assets.Source = DefaultAssetSource
	}
	if cfg.Assets.Dir == "" {
		cfg.Assets.Dir = DefaultAssetDir
	}
	if cfg.Assets.Catalog == "" {
		cfg.Assets.Catalog = DefaultCatalogName
	}
	if cfg.Assets.Regulations == "" {
		cfg.Assets.Regulations = DefaultRegulations
	}

	// ── Matching ──────────────────────────────────────────────────────────────
	if cfg.Matching.Threshold == 0 {
		cfg.Matching.Threshold = additive.DefaultThreshold
	}
	if cfg.Matching.Workers == 0 {
		cfg.Matching.Workers = DefaultWorkers
	}
	if cfg.Matching.SuggestLimit == 0 {
		cfg.Matching.SuggestLimit = DefaultSuggestLimit
	}

	// ── Cache ─────────────────────────────────────────────────────────────────
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = DefaultCacheTTL
	}
	if cfg.Cache.Prefix == "" {
		cfg.Cache.Prefix = DefaultCachePfx
	}
	if cfg.Cache.Redis.Addr == "" {
		cfg.Cache.Redis.Addr = DefaultRedisAddr
	}

	// ── MinIO ─────────────────────────────────────────────────────────────────
	if cfg.MinIO.Endpoint == "" {
		cfg.MinIO.Endpoint = DefaultMinIOEndpoint
	}
	if cfg.MinIO.Bucket == "" {
		cfg.MinIO.Bucket = DefaultMinIOBucket
	}

	// ── Kafka ─────────────────────────────────────────────────────────────────
	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{DefaultKafkaBroker}
	}
	if cfg.Kafka.Topic == "" {
		cfg.Kafka.Topic = kafka.TopicAdditiveResolved
	}
	if cfg.Kafka.Source == "" {
		cfg.Kafka.Source = DefaultKafkaSource
	}
	if cfg.Kafka.ReplicationFactor == 0 {
		cfg.Kafka.ReplicationFactor = 1
	}

	// ── Metrics ───────────────────────────────────────────────────────────────
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}

	// ── Log ───────────────────────────────────────────────────────────────────
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
}
