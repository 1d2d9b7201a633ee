// Package bootstrap turns a Config into the running collaborators shared by
// the API server and the CLI.
package bootstrap

import (
	"context"
	"time"

	"github.com/turtacn/additive-lens/internal/application/lookup"
	"github.com/turtacn/additive-lens/internal/config"
	"github.com/turtacn/additive-lens/internal/infrastructure/database/redis"
	"github.com/turtacn/additive-lens/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/additive-lens/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/additive-lens/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/additive-lens/internal/infrastructure/storage/minio"
	"github.com/turtacn/additive-lens/internal/interfaces/http/handlers"
	"github.com/turtacn/additive-lens/pkg/errors"
)

// Infrastructure holds the optional backends named by the configuration.
// A nil field means the backend is disabled.
type Infrastructure struct {
	Collector prometheus.MetricsCollector
	Metrics   *prometheus.AppMetrics

	Redis *redis.Client
	Cache redis.Cache

	MinIO  *minio.MinIOClient
	Assets minio.AssetStore

	Producer *kafka.Producer
	Events   kafka.EventPublisher

	cfg    *config.Config
	logger logging.Logger
}

// Open connects every backend enabled in cfg. Backends opened before a
// failure are closed again.
func Open(ctx context.Context, cfg *config.Config, logger logging.Logger) (*Infrastructure, error) {
	if cfg == nil {
		return nil, errors.New(errors.CodeInvalidParam, "bootstrap: config is nil")
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	infra := &Infrastructure{
		Collector: prometheus.NewNoopCollector(),
		Metrics:   prometheus.NewNoopAppMetrics(),
		cfg:       cfg,
		logger:    logger,
	}

	if cfg.Metrics.Enabled {
		collector, err := prometheus.NewMetricsCollector(cfg.Metrics.CollectorConfig, logger)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeInternal, "bootstrap: metrics collector")
		}
		infra.Collector = collector
		infra.Metrics = prometheus.NewAppMetrics(collector)
	}

	if cfg.Cache.Enabled {
		client, err := redis.NewClient(&cfg.Cache.Redis, logger)
		if err != nil {
			infra.Close()
			return nil, errors.Wrap(err, errors.CodeServiceUnavailable, "bootstrap: redis")
		}
		infra.Redis = client
		infra.Cache = redis.NewRedisCache(client, logger,
			redis.WithPrefix(cfg.Cache.Prefix),
			redis.WithDefaultTTL(cfg.Cache.TTL),
		)
	}

	if cfg.Assets.Source == "minio" {
		client, err := minio.NewMinIOClient(&cfg.MinIO, logger)
		if err != nil {
			infra.Close()
			return nil, errors.Wrap(err, errors.CodeServiceUnavailable, "bootstrap: minio")
		}
		infra.MinIO = client
		infra.Assets = minio.NewAssetStore(client, logger)
	}

	if cfg.Kafka.Enabled {
		if cfg.Kafka.AutoCreateTopics {
			if err := ensureTopics(ctx, cfg, logger); err != nil {
				infra.Close()
				return nil, err
			}
		}
		producer, err := kafka.NewProducer(cfg.Kafka.ProducerConfig, logger)
		if err != nil {
			infra.Close()
			return nil, errors.Wrap(err, errors.CodeServiceUnavailable, "bootstrap: kafka producer")
		}
		infra.Producer = producer
		infra.Events = kafka.NewEventPublisher(producer, cfg.Kafka.Source, cfg.Kafka.Topic, logger)
	}

	logger.Info("Infrastructure initialized",
		logging.Bool("metrics", cfg.Metrics.Enabled),
		logging.Bool("cache", infra.Cache != nil),
		logging.String("assets", cfg.Assets.Source),
		logging.Bool("events", infra.Events != nil),
	)
	return infra, nil
}

func ensureTopics(ctx context.Context, cfg *config.Config, logger logging.Logger) error {
	tm, err := kafka.NewTopicManager(cfg.Kafka.Brokers, logger)
	if err != nil {
		return errors.Wrap(err, errors.CodeServiceUnavailable, "bootstrap: kafka topic manager")
	}
	defer tm.Close()
	if err := tm.EnsureTopics(ctx, kafka.DefaultTopics(cfg.Kafka.ReplicationFactor)); err != nil {
		return errors.Wrap(err, errors.CodeServiceUnavailable, "bootstrap: kafka topics")
	}
	return nil
}

// AssetSource is the object store when assets come from MinIO and the
// configured directory otherwise.
func (i *Infrastructure) AssetSource() lookup.AssetSource {
	if i.Assets != nil {
		return i.Assets
	}
	return lookup.FileSource{Dir: i.cfg.Assets.Dir}
}

// LookupConfig maps the configuration onto the lookup service settings.
func LookupConfig(cfg *config.Config) lookup.Config {
	return lookup.Config{
		CatalogName:     cfg.Assets.Catalog,
		RegulationsName: cfg.Assets.Regulations,
		Resolver:        cfg.Matching.Resolver(),
		CacheTTL:        cfg.Cache.TTL,
		SuggestLimit:    cfg.Matching.SuggestLimit,
		EventSource:     cfg.Kafka.Source,
	}
}

// NewLookupService builds the lookup service over the enabled backends.
// Its assets are not loaded yet.
func (i *Infrastructure) NewLookupService() lookup.Service {
	opts := []lookup.Option{lookup.WithMetrics(i.Metrics)}
	if i.Cache != nil {
		opts = append(opts, lookup.WithCache(i.Cache))
	}
	if i.Events != nil {
		opts = append(opts, lookup.WithEvents(i.Events))
	}
	return lookup.NewService(LookupConfig(i.cfg), i.AssetSource(), i.logger, opts...)
}

// HealthCheckers reports the asset state of svc plus every connected backend.
func (i *Infrastructure) HealthCheckers(svc lookup.Service) []handlers.HealthChecker {
	checkers := []handlers.HealthChecker{
		handlers.NewChecker("assets", func(context.Context) error {
			if svc.Ready() {
				return nil
			}
			st := svc.Status()
			if st.Error != "" {
				return errors.New(errors.CodeCatalogNotReady, st.Error)
			}
			return errors.Newf(errors.CodeCatalogNotReady, "assets are %s", st.State)
		}),
	}
	if i.Redis != nil {
		checkers = append(checkers, handlers.NewChecker("redis", i.Redis.Ping))
	}
	if i.MinIO != nil {
		checkers = append(checkers, handlers.NewChecker("minio", func(ctx context.Context) error {
			status, err := i.MinIO.HealthCheck(ctx)
			if err != nil {
				return err
			}
			if !status.Healthy {
				return errors.New(errors.CodeServiceUnavailable, status.Error)
			}
			return nil
		}))
	}
	return checkers
}

// Close releases every backend. Pending events are flushed first.
func (i *Infrastructure) Close() {
	if i.Events != nil {
		if err := i.Events.Close(); err != nil {
			i.logger.Warn("Failed to close event publisher", logging.Err(err))
		}
	} else if i.Producer != nil {
		if err := i.Producer.Close(); err != nil {
			i.logger.Warn("Failed to close kafka producer", logging.Err(err))
		}
	}
	if i.Redis != nil {
		if err := i.Redis.Close(); err != nil {
			i.logger.Warn("Failed to close redis client", logging.Err(err))
		}
	}
	if i.MinIO != nil {
		if err := i.MinIO.Close(); err != nil {
			i.logger.Warn("Failed to close minio client", logging.Err(err))
		}
	}
}

// ReadinessPollInterval is how often readiness is mirrored into gRPC health.
const ReadinessPollInterval = time.Second
