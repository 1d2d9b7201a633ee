package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/additive-lens/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/additive-lens/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/additive-lens/internal/interfaces/http/handlers"
	"github.com/turtacn/additive-lens/internal/interfaces/http/middleware"
	"github.com/turtacn/additive-lens/pkg/errors"
)

// RouterConfig aggregates the handlers and middleware settings needed to
// build the route tree. Nil handlers and middleware are skipped.
type RouterConfig struct {
	// Handlers
	LookupHandler *handlers.LookupHandler
	HealthHandler *handlers.HealthHandler

	// Middleware
	CORS        *middleware.CORSConfig
	Logging     middleware.LoggingConfig
	RateLimiter middleware.RateLimiter
	RateLimit   middleware.RateLimitConfig
	MaxBodySize int64

	// Infrastructure
	Logger           logging.Logger
	Metrics          *prometheus.AppMetrics
	MetricsCollector prometheus.MetricsCollector
	MetricsPath      string
}

// NewRouter builds the gin engine: global middleware, public health and
// metrics endpoints, and the /api/v1 lookup group.
func NewRouter(cfg RouterConfig) *gin.Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	r := gin.New()
	r.HandleMethodNotAllowed = true

	// --- Global middleware (applied to every request) ---
	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery(logger))
	if cfg.CORS != nil {
		r.Use(middleware.CORS(*cfg.CORS))
	}
	r.Use(middleware.RequestLogging(logger, cfg.Logging))
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}
	if cfg.RateLimiter != nil {
		r.Use(middleware.RateLimit(cfg.RateLimiter, cfg.RateLimit))
	}
	if cfg.MaxBodySize > 0 {
		r.Use(limitBody(cfg.MaxBodySize))
	}

	r.NoRoute(middleware.NotFound())
	r.NoMethod(func(c *gin.Context) {
		middleware.AbortWithError(c, http.StatusMethodNotAllowed, string(errors.CodeMethodNotAllowed),
			c.Request.Method+" is not allowed on "+c.Request.URL.Path)
	})

	// --- Public health endpoints ---
	if cfg.HealthHandler != nil {
		cfg.HealthHandler.RegisterRoutes(r)
	}

	// --- Metrics endpoint ---
	if cfg.MetricsCollector != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.GET(path, gin.WrapH(cfg.MetricsCollector.Handler()))
	}

	// --- API v1 ---
	api := r.Group("/api/v1")
	if cfg.LookupHandler != nil {
		cfg.LookupHandler.RegisterRoutes(api)
	}

	return r
}

// limitBody caps request bodies; reads past the limit fail and the JSON
// binder answers 400.
func limitBody(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		}
		c.Next()
	}
}
