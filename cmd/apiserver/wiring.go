package main

import (
	"github.com/turtacn/additive-lens/internal/application/lookup"
	"github.com/turtacn/additive-lens/internal/bootstrap"
	"github.com/turtacn/additive-lens/internal/config"
	"github.com/turtacn/additive-lens/internal/infrastructure/monitoring/logging"
	httpserver "github.com/turtacn/additive-lens/internal/interfaces/http"
	"github.com/turtacn/additive-lens/internal/interfaces/http/handlers"
	"github.com/turtacn/additive-lens/internal/interfaces/http/middleware"
)

// buildRouterConfig maps the configuration onto handlers and middleware. The
// returned cleanup stops the rate limiter's janitor.
func buildRouterConfig(cfg *config.Config, infra *bootstrap.Infrastructure, svc lookup.Service, logger logging.Logger) (httpserver.RouterConfig, func()) {
	rc := httpserver.RouterConfig{
		LookupHandler: handlers.NewLookupHandler(svc, logger),
		HealthHandler: handlers.NewHealthHandler(version, infra.HealthCheckers(svc)...),
		Logging:       middleware.DefaultLoggingConfig(),
		MaxBodySize:   cfg.Server.HTTP.MaxBodySize,
		Logger:        logger,
	}

	if cfg.Metrics.Enabled {
		rc.Metrics = infra.Metrics
		rc.MetricsCollector = infra.Collector
		rc.MetricsPath = cfg.Metrics.Path
	}

	if len(cfg.Server.HTTP.CORSAllowedOrigins) > 0 {
		cors := middleware.DefaultCORSConfig()
		cors.AllowedOrigins = cfg.Server.HTTP.CORSAllowedOrigins
		rc.CORS = &cors
	}

	cleanup := func() {}
	if cfg.Server.HTTP.RateLimitRPS > 0 {
		rl := middleware.DefaultRateLimitConfig()
		rl.RequestsPerSecond = cfg.Server.HTTP.RateLimitRPS
		rl.BurstSize = cfg.Server.HTTP.RateLimitBurst
		rl.SkipPaths = append(rl.SkipPaths, "/healthz/detail", cfg.Metrics.Path)
		limiter := middleware.NewTokenBucketLimiter(rl.RequestsPerSecond, rl.BurstSize, rl.CleanupInterval)
		rc.RateLimiter = limiter
		rc.RateLimit = rl
		cleanup = limiter.Stop
	}
	return rc, cleanup
}
